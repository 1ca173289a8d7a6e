// Package pvmodel implements the physical production model of the profiler:
// plane-of-array transposition for bifacial rows, cell temperature, and the
// module/inverter electrical chain that turns TMY irradiance into AC power.
package pvmodel

import (
	"math"

	"github.com/pvtools/pvprofiler/solar"
)

const degPerRad = 180.0 / math.Pi

// Mount describes a single-axis-tracker style row orientation. With
// MaxAngleDegrees zero the mount is fixed: axis tilt 90 and axis azimuth 90
// give the vertical east/west bifacial rows the profiler defaults to.
type Mount struct {
	AxisTiltDegrees    float64
	AxisAzimuthDegrees float64
	MaxAngleDegrees    float64
	Backtrack          bool
	GCR                float64
}

// Orientation resolves the instantaneous surface tilt and azimuth for the
// sun position. A fixed mount (max angle 0) returns the axis orientation
// unchanged; otherwise the tracker rotates towards the sun up to the maximum
// angle.
func (m Mount) Orientation(sun solar.Position) (tiltDegrees, azimuthDegrees float64) {
	if m.MaxAngleDegrees == 0 || sun.ZenithDegrees >= 90 {
		return m.AxisTiltDegrees, m.AxisAzimuthDegrees
	}

	// Rotation of a horizontal N-S style axis towards the sun's projection
	// on the tracking plane, clamped to the rotation limit.
	azDiff := (sun.AzimuthDegrees - m.AxisAzimuthDegrees) / degPerRad
	zen := sun.ZenithDegrees / degPerRad
	rotation := math.Atan2(math.Sin(zen)*math.Sin(azDiff), math.Cos(zen)) * degPerRad
	if rotation > m.MaxAngleDegrees {
		rotation = m.MaxAngleDegrees
	}
	if rotation < -m.MaxAngleDegrees {
		rotation = -m.MaxAngleDegrees
	}

	tilt := m.AxisTiltDegrees + rotation
	if tilt > 180 {
		tilt -= 180
	}
	return tilt, m.AxisAzimuthDegrees
}
