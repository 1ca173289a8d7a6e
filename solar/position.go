// Package solar provides the solar geometry and clear-sky irradiance inputs
// of the production model: apparent sun position, declination, sunrise and
// sunset times, airmass and an Ineichen clear-sky model.
package solar

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

const degPerRad = 180.0 / math.Pi

func cosDegrees(deg float64) float64 { return math.Cos(deg / degPerRad) }

// Position is the apparent position of the sun at an instant and location.
type Position struct {
	// AzimuthDegrees is measured clockwise from north (0° = north, 90° = east).
	AzimuthDegrees float64
	// ZenithDegrees is the angle between the sun and the local vertical.
	ZenithDegrees float64
	// ElevationDegrees is the complement of the zenith angle.
	ElevationDegrees float64
}

// GetPosition computes the apparent sun position for the given instant.
// suncalc reports azimuth from south (westward positive) in radians; the
// result is converted to the degrees-from-north convention irradiance
// transposition expects.
func GetPosition(t time.Time, latitude, longitude float64) Position {
	pos := suncalc.GetPosition(t, latitude, longitude)

	azimuth := math.Mod(pos.Azimuth*degPerRad+180.0, 360.0)
	if azimuth < 0 {
		azimuth += 360.0
	}
	elevation := pos.Altitude * degPerRad

	return Position{
		AzimuthDegrees:   azimuth,
		ZenithDegrees:    90.0 - elevation,
		ElevationDegrees: elevation,
	}
}

// Positions computes the sun position for every timestamp in the slice.
func Positions(times []time.Time, latitude, longitude float64) []Position {
	positions := make([]Position, len(times))
	for i, t := range times {
		positions[i] = GetPosition(t, latitude, longitude)
	}
	return positions
}

// Declination returns the solar declination in radians for the given day,
// from the trigonometric series expansion in the day angle.
func Declination(t time.Time) float64 {
	yearDay := float64(t.YearDay()) + float64(t.Hour())/24.0
	n0 := 79.3946 + 0.2422*float64(t.Year()-1957) - float64((t.Year()-1957)/4)
	ω := (2 * math.Pi / 365.2422) * (yearDay - n0)
	return 0.0064979 +
		0.4059059*math.Sin(ω) + 0.0020054*math.Sin(2*ω) - 0.0029880*math.Sin(3*ω) -
		0.0132296*math.Cos(ω) + 0.0063809*math.Cos(2*ω) + 0.0003508*math.Cos(3*ω)
}

// EquationOfTime returns the difference between true and mean solar time.
func EquationOfTime(t time.Time) time.Duration {
	yearDay := float64(t.YearDay()) + float64(t.Hour())/24.0 + float64(t.Minute())/1440.0
	dayAngle := (2 * math.Pi / 365.2422) * yearDay
	return time.Duration((-0.128*math.Sin(dayAngle-0.04887) -
		0.165*math.Sin(2*dayAngle+0.34383)) * float64(time.Hour))
}

// SunriseSunset returns the sunrise and sunset instants in UTC for the day
// containing t at the given location. At polar latitudes the day collapses to
// zero or extends to 24 hours depending on the sign of the declination.
func SunriseSunset(t time.Time, latitude, longitude float64) (time.Time, time.Time) {
	latRad := latitude / degPerRad
	decl := Declination(t)

	var sunsetHourAngle float64
	product := -math.Tan(latRad) * math.Tan(decl)
	switch {
	case product >= 1:
		sunsetHourAngle = 0 // polar night
	case product <= -1:
		sunsetHourAngle = math.Pi // midnight sun
	default:
		sunsetHourAngle = math.Acos(product)
	}

	sunriseHour := 12.0 * (1.0 - sunsetHourAngle/math.Pi)
	sunsetHour := 12.0 * (1.0 + sunsetHourAngle/math.Pi)

	lonCorrection := time.Duration(longitude / 360.0 * 24.0 * float64(time.Hour))
	midnightTst := t.UTC().Truncate(24 * time.Hour)
	eot := EquationOfTime(t)

	sunrise := midnightTst.Add(time.Duration(sunriseHour * float64(time.Hour))).Add(-eot).Add(-lonCorrection)
	sunset := midnightTst.Add(time.Duration(sunsetHour * float64(time.Hour))).Add(-eot).Add(-lonCorrection)
	return sunrise, sunset
}

// ExtraterrestrialNormal returns the direct normal irradiance at the top of
// the atmosphere (W/m²), corrected for the sun-earth distance over the year.
func ExtraterrestrialNormal(t time.Time) float64 {
	dayAngle := 2 * math.Pi * float64(t.YearDay()) / 365.0
	return 1366.1 * (1 + 0.033*math.Cos(dayAngle))
}

// RelativeAirmass returns the Kasten–Young relative airmass for an apparent
// zenith angle in degrees, or +Inf when the sun is below the horizon.
func RelativeAirmass(zenithDegrees float64) float64 {
	if zenithDegrees >= 90 {
		return math.Inf(1)
	}
	zRad := zenithDegrees / degPerRad
	return 1.0 / (math.Cos(zRad) + 0.50572*math.Pow(96.07995-zenithDegrees, -1.6364))
}

// AbsoluteAirmass corrects the relative airmass for station pressure derived
// from altitude (m) with the standard barometric profile.
func AbsoluteAirmass(relative, altitude float64) float64 {
	pressure := 101325.0 * math.Exp(-altitude/8434.5)
	return relative * pressure / 101325.0
}
