package pvmodel

import (
	"math"

	"github.com/pvtools/pvprofiler/solar"
)

// RowGeometry describes one row of a bifacial array and its surroundings.
type RowGeometry struct {
	HeightMeters float64 // row centre height above ground
	WidthMeters  float64 // row width along the slant
	GCR          float64 // ground coverage ratio (row width / pitch)
	Albedo       float64 // ground reflectance
	Bifaciality  float64 // rear-side efficiency relative to the front
}

// Irradiance holds the plane-of-array components for one instant, W/m².
type Irradiance struct {
	Front     float64
	Back      float64
	Effective float64 // Front + Back·bifaciality
}

// EffectiveIrradiance transposes horizontal irradiance components onto both
// faces of a bifacial row. The front face combines beam (by angle of
// incidence), isotropic sky diffuse and ground-reflected light; the back face
// is the same surface flipped by 180° of azimuth, with the ground view
// reduced by the neighbouring rows. Effective irradiance follows the
// bifacial convention E_eff = E_front + E_back · bifaciality.
func EffectiveIrradiance(sun solar.Position, ghi, dni, dhi, tiltDegrees, azimuthDegrees float64, geo RowGeometry) Irradiance {
	front := poaSide(sun, ghi, dni, dhi, tiltDegrees, azimuthDegrees, geo)
	back := poaSide(sun, ghi, dni, dhi, 180-tiltDegrees, azimuthDegrees+180, geo)

	return Irradiance{
		Front:     front,
		Back:      back,
		Effective: front + back*geo.Bifaciality,
	}
}

func poaSide(sun solar.Position, ghi, dni, dhi, tiltDegrees, azimuthDegrees float64, geo RowGeometry) float64 {
	tilt := tiltDegrees / degPerRad

	beam := 0.0
	if sun.ZenithDegrees < 90 {
		cosAOI := math.Cos(tilt)*cosDeg(sun.ZenithDegrees) +
			math.Sin(tilt)*math.Sin(sun.ZenithDegrees/degPerRad)*
				cosDeg(sun.AzimuthDegrees-azimuthDegrees)
		if cosAOI > 0 {
			beam = dni * cosAOI
		}
	}

	skyDiffuse := dhi * (1 + math.Cos(tilt)) / 2

	// Ground-reflected light, attenuated by how much of the ground between
	// rows is shaded by the array itself.
	groundView := (1 - math.Cos(tilt)) / 2
	shading := 1 - clamp01(geo.GCR)
	ground := ghi * geo.Albedo * groundView * shading

	poa := beam + skyDiffuse + ground
	if poa < 0 {
		return 0
	}
	return poa
}

func cosDeg(deg float64) float64 { return math.Cos(deg / degPerRad) }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
