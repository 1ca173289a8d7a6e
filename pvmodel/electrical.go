package pvmodel

import (
	"fmt"
	"math"
)

// TemperatureModel holds SAPM cell temperature coefficients.
type TemperatureModel struct {
	A      float64 // natural log back-of-module coefficient
	B      float64 // wind speed coefficient
	DeltaT float64 // cell-to-module temperature delta at 1000 W/m²
}

// OpenRackGlassGlass is the SAPM parameter set for glass/glass modules on an
// open rack, the mounting the profiler assumes for bifacial rows.
var OpenRackGlassGlass = TemperatureModel{A: -3.47, B: -0.0594, DeltaT: 3.0}

// CellTemperature estimates the cell temperature (°C) from plane-of-array
// irradiance, ambient temperature and wind speed with the SAPM model.
func (m TemperatureModel) CellTemperature(poa, airTemp, windSpeed float64) float64 {
	moduleTemp := poa*math.Exp(m.A+m.B*windSpeed) + airTemp
	return moduleTemp + poa/1000.0*m.DeltaT
}

// ModuleParameters is the reduced electrical description of a PV module.
type ModuleParameters struct {
	Name        string
	STCPower    float64 // nameplate DC power at STC, W
	GammaPmp    float64 // max-power temperature coefficient, 1/°C
	Bifaciality float64 // rear-side efficiency fraction, 0 for monofacial
}

// InverterParameters is the reduced description of a grid-tied inverter.
type InverterParameters struct {
	Name              string
	PacoWatts         float64 // rated AC output power
	PdcoWatts         float64 // DC input at which Paco is reached
	NominalEfficiency float64
	NightTareWatts    float64 // standby draw when the array is dark
}

// moduleCatalog is a small stand-in for the CEC module database; only the
// entries the profiler is used with are carried.
var moduleCatalog = map[string]ModuleParameters{
	"Prism Solar Technologies Bi60-375BSTC": {
		Name:        "Prism Solar Technologies Bi60-375BSTC",
		STCPower:    375.0,
		GammaPmp:    -0.0036,
		Bifaciality: 0.9,
	},
	"Canadian Solar CS5P-220M": {
		Name:        "Canadian Solar CS5P-220M",
		STCPower:    220.0,
		GammaPmp:    -0.0047,
		Bifaciality: 0.0,
	},
	"LG Electronics LG320N1K-A5": {
		Name:        "LG Electronics LG320N1K-A5",
		STCPower:    320.0,
		GammaPmp:    -0.0037,
		Bifaciality: 0.0,
	},
}

// inverterCatalog is the matching stand-in for the CEC inverter database.
var inverterCatalog = map[string]InverterParameters{
	"ABB MICRO-0.25-I-OUTD-US-208": {
		Name:              "ABB MICRO-0.25-I-OUTD-US-208",
		PacoWatts:         250.0,
		PdcoWatts:         265.0,
		NominalEfficiency: 0.96,
		NightTareWatts:    0.05,
	},
	"Enphase Energy IQ7-60-2-US": {
		Name:              "Enphase Energy IQ7-60-2-US",
		PacoWatts:         240.0,
		PdcoWatts:         250.0,
		NominalEfficiency: 0.97,
		NightTareWatts:    0.06,
	},
	"SMA America SB5000US-11": {
		Name:              "SMA America SB5000US-11",
		PacoWatts:         5000.0,
		PdcoWatts:         5250.0,
		NominalEfficiency: 0.96,
		NightTareWatts:    0.5,
	},
}

// LookupModule finds module parameters by catalog name.
func LookupModule(name string) (ModuleParameters, error) {
	params, ok := moduleCatalog[name]
	if !ok {
		return ModuleParameters{}, fmt.Errorf("unknown module %q", name)
	}
	return params, nil
}

// LookupInverter finds inverter parameters by catalog name.
func LookupInverter(name string) (InverterParameters, error) {
	params, ok := inverterCatalog[name]
	if !ok {
		return InverterParameters{}, fmt.Errorf("unknown inverter %q", name)
	}
	return params, nil
}

// DCPower converts effective irradiance and cell temperature into module DC
// power with the single-point efficiency model: nameplate power scaled by
// irradiance and corrected for temperature.
func (p ModuleParameters) DCPower(effectiveIrradiance, cellTemp float64) float64 {
	dc := effectiveIrradiance / 1000.0 * p.STCPower * (1 + p.GammaPmp*(cellTemp-25.0))
	if dc < 0 {
		return 0
	}
	return dc
}

// referenceEfficiency anchors the part-load efficiency curve.
const referenceEfficiency = 0.9637

// ACPower converts DC input into AC output with a part-load efficiency curve
// and clipping at the rated output. At zero DC input the inverter draws its
// night tare from the grid.
func (p InverterParameters) ACPower(dcPower float64) float64 {
	if dcPower <= 0 {
		return -p.NightTareWatts
	}

	pdc0 := p.PacoWatts / p.NominalEfficiency
	zeta := dcPower / pdc0
	eta := p.NominalEfficiency / referenceEfficiency *
		(-0.0162*zeta - 0.0059/zeta + 0.9858)
	if eta < 0 {
		eta = 0
	}

	ac := eta * dcPower
	if ac > p.PacoWatts {
		return p.PacoWatts
	}
	return ac
}
