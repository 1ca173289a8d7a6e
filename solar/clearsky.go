package solar

import (
	"math"
	"time"
)

// DefaultLinkeTurbidity is a reasonable mid-latitude yearly average when no
// turbidity climatology is available.
const DefaultLinkeTurbidity = 3.0

// ClearSkyValues holds clear-sky irradiance components in W/m².
type ClearSkyValues struct {
	GHI float64
	DNI float64
	DHI float64
}

// ClearSky evaluates the Ineichen/Perez clear-sky model at one instant.
// Altitude is in metres, linkeTurbidity dimensionless (use
// DefaultLinkeTurbidity when unknown).
func ClearSky(t time.Time, latitude, longitude, altitude, linkeTurbidity float64) ClearSkyValues {
	pos := GetPosition(t, latitude, longitude)
	if pos.ZenithDegrees >= 90 {
		return ClearSkyValues{}
	}

	cosZenith := cosDegrees(pos.ZenithDegrees)
	am := AbsoluteAirmass(RelativeAirmass(pos.ZenithDegrees), altitude)
	i0 := ExtraterrestrialNormal(t)
	tl := linkeTurbidity

	fh1 := math.Exp(-altitude / 8000.0)
	fh2 := math.Exp(-altitude / 1250.0)
	cg1 := 5.09e-5*altitude + 0.868
	cg2 := 3.92e-5*altitude + 0.0387

	ghi := cg1 * i0 * cosZenith *
		math.Exp(-cg2*am*(fh1+fh2*(tl-1))) *
		math.Exp(0.01*math.Pow(am, 1.8))
	if ghi < 0 {
		ghi = 0
	}

	b := 0.664 + 0.163/fh1
	dni := b * i0 * math.Exp(-0.09*am*(tl-1))

	// Cap the beam component so the implied diffuse fraction stays physical
	// near the horizon.
	dniMax := ghi * (1 - (0.1-0.2*math.Exp(-tl))/(0.1+0.882/fh1)) / cosZenith
	if dni > dniMax {
		dni = dniMax
	}
	if dni < 0 {
		dni = 0
	}

	dhi := ghi - dni*cosZenith
	if dhi < 0 {
		dhi = 0
	}

	return ClearSkyValues{GHI: ghi, DNI: dni, DHI: dhi}
}

// ClearSkySeries evaluates the clear-sky model over a time range.
func ClearSkySeries(times []time.Time, latitude, longitude, altitude, linkeTurbidity float64) []ClearSkyValues {
	values := make([]ClearSkyValues, len(times))
	for i, t := range times {
		values[i] = ClearSky(t, latitude, longitude, altitude, linkeTurbidity)
	}
	return values
}

// HourlyRange generates hourly timestamps in [start, end) in the given
// location, the sampling the clear-sky profile mode runs on.
func HourlyRange(start, end time.Time) []time.Time {
	times := make([]time.Time, 0, int(end.Sub(start).Hours()))
	for t := start; t.Before(end); t = t.Add(time.Hour) {
		times = append(times, t)
	}
	return times
}
