package pvmodel

import (
	"fmt"
	"time"

	"github.com/pvtools/pvprofiler/solar"
	"github.com/pvtools/pvprofiler/tmy"
)

// Chain wires the full model pipeline together: sun position, bifacial
// transposition, cell temperature, module DC and inverter AC conversion.
type Chain struct {
	Latitude  float64
	Longitude float64
	Mount     Mount
	Geometry  RowGeometry
	Module    ModuleParameters
	Inverter  InverterParameters
	TempModel TemperatureModel
}

// Result is the hourly output of a chain run. All slices share the length
// and ordering of the input times.
type Result struct {
	Times               []time.Time
	ACPower             []float64 // W
	EffectiveIrradiance []float64 // W/m²
	CellTemperature     []float64 // °C
}

// EnergyKWh integrates hourly AC power into energy. Negative night tare
// hours count against the total, as they would on a meter.
func (r Result) EnergyKWh() float64 {
	var total float64
	for _, p := range r.ACPower {
		total += p / 1000.0
	}
	return total
}

// Run executes the chain over aligned times and TMY samples. Times carry the
// calendar (and the absolute instants solar geometry needs); samples carry
// irradiance and weather positionally, as the calendar correction aligned
// them.
func (c Chain) Run(times []time.Time, samples tmy.Series) (Result, error) {
	if len(times) != len(samples) {
		return Result{}, fmt.Errorf("times/samples length mismatch: %d != %d", len(times), len(samples))
	}
	if len(times) == 0 {
		return Result{}, fmt.Errorf("nothing to simulate")
	}

	result := Result{
		Times:               times,
		ACPower:             make([]float64, len(times)),
		EffectiveIrradiance: make([]float64, len(times)),
		CellTemperature:     make([]float64, len(times)),
	}

	for i, t := range times {
		sun := solar.GetPosition(t, c.Latitude, c.Longitude)
		tilt, azimuth := c.Mount.Orientation(sun)

		sample := samples[i]
		irrad := EffectiveIrradiance(sun, sample.GHI, sample.DNI, sample.DHI, tilt, azimuth, c.Geometry)
		cellTemp := c.TempModel.CellTemperature(irrad.Effective, sample.AirTemp, sample.WindSpeed)

		dc := c.Module.DCPower(irrad.Effective, cellTemp)
		result.ACPower[i] = c.Inverter.ACPower(dc)
		result.EffectiveIrradiance[i] = irrad.Effective
		result.CellTemperature[i] = cellTemp
	}

	return result, nil
}
