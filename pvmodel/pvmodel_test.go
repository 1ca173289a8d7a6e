package pvmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pvtools/pvprofiler/solar"
	"github.com/pvtools/pvprofiler/tmy"
)

func defaultGeometry() RowGeometry {
	return RowGeometry{
		HeightMeters: 0.8,
		WidthMeters:  7.455,
		GCR:          0.35,
		Albedo:       0.25,
		Bifaciality:  0.9,
	}
}

func TestMountFixedOrientation(t *testing.T) {
	mount := Mount{AxisTiltDegrees: 90, AxisAzimuthDegrees: 90, MaxAngleDegrees: 0, GCR: 0.35}
	sun := solar.Position{AzimuthDegrees: 150, ZenithDegrees: 40}

	tilt, azimuth := mount.Orientation(sun)
	assert.Equal(t, 90.0, tilt)
	assert.Equal(t, 90.0, azimuth)
}

func TestMountTrackingClampsRotation(t *testing.T) {
	mount := Mount{AxisTiltDegrees: 0, AxisAzimuthDegrees: 180, MaxAngleDegrees: 45, GCR: 0.35}
	sun := solar.Position{AzimuthDegrees: 90, ZenithDegrees: 70}

	tilt, _ := mount.Orientation(sun)
	assert.LessOrEqual(t, tilt, 45.0)
	assert.GreaterOrEqual(t, tilt, -45.0)
}

func TestEffectiveIrradianceNight(t *testing.T) {
	sun := solar.Position{AzimuthDegrees: 0, ZenithDegrees: 120}
	irrad := EffectiveIrradiance(sun, 0, 0, 0, 90, 90, defaultGeometry())
	assert.Zero(t, irrad.Effective)
}

func TestEffectiveIrradianceBifacialGain(t *testing.T) {
	// Morning sun from the east onto vertical east-facing rows: the front
	// face collects beam, the back face only diffuse and ground light, and
	// the bifacial total exceeds the front alone.
	sun := solar.Position{AzimuthDegrees: 90, ZenithDegrees: 60}
	irrad := EffectiveIrradiance(sun, 550, 700, 100, 90, 90, defaultGeometry())

	assert.Greater(t, irrad.Front, irrad.Back)
	assert.Greater(t, irrad.Back, 0.0)
	assert.InDelta(t, irrad.Front+irrad.Back*0.9, irrad.Effective, 1e-9)
}

func TestEffectiveIrradianceEveningFavoursBack(t *testing.T) {
	// Evening sun from the west reaches the rear face of east-facing rows.
	sun := solar.Position{AzimuthDegrees: 270, ZenithDegrees: 60}
	irrad := EffectiveIrradiance(sun, 550, 700, 100, 90, 90, defaultGeometry())
	assert.Greater(t, irrad.Back, irrad.Front)
}

func TestCellTemperatureAboveAmbientUnderSun(t *testing.T) {
	temp := OpenRackGlassGlass.CellTemperature(1000, 20, 1)
	assert.Greater(t, temp, 40.0)
	assert.Less(t, temp, 60.0)

	// No irradiance: cell sits at ambient.
	assert.InDelta(t, 20.0, OpenRackGlassGlass.CellTemperature(0, 20, 1), 1e-9)

	// Wind cools the module.
	windy := OpenRackGlassGlass.CellTemperature(1000, 20, 10)
	assert.Less(t, windy, temp)
}

func TestLookupModule(t *testing.T) {
	module, err := LookupModule("Prism Solar Technologies Bi60-375BSTC")
	require.NoError(t, err)
	assert.Equal(t, 375.0, module.STCPower)
	assert.Equal(t, 0.9, module.Bifaciality)

	_, err = LookupModule("No Such Module")
	assert.Error(t, err)
}

func TestLookupInverter(t *testing.T) {
	inverter, err := LookupInverter("ABB MICRO-0.25-I-OUTD-US-208")
	require.NoError(t, err)
	assert.Equal(t, 250.0, inverter.PacoWatts)

	_, err = LookupInverter("No Such Inverter")
	assert.Error(t, err)
}

func TestDCPowerTemperatureDerating(t *testing.T) {
	module, err := LookupModule("Prism Solar Technologies Bi60-375BSTC")
	require.NoError(t, err)

	atSTC := module.DCPower(1000, 25)
	assert.InDelta(t, 375.0, atSTC, 1e-9)

	hot := module.DCPower(1000, 60)
	assert.Less(t, hot, atSTC)

	assert.Zero(t, module.DCPower(0, 25))
}

func TestACPowerClipsAtRating(t *testing.T) {
	inverter, err := LookupInverter("ABB MICRO-0.25-I-OUTD-US-208")
	require.NoError(t, err)

	// A 375 W module easily saturates a 250 W micro at full irradiance.
	assert.Equal(t, 250.0, inverter.ACPower(375))

	partial := inverter.ACPower(125)
	assert.Greater(t, partial, 100.0)
	assert.Less(t, partial, 125.0)

	// Dark array: night tare drawn from the grid.
	assert.Equal(t, -0.05, inverter.ACPower(0))
}

func TestChainRunJuneDay(t *testing.T) {
	module, err := LookupModule("Prism Solar Technologies Bi60-375BSTC")
	require.NoError(t, err)
	inverter, err := LookupInverter("ABB MICRO-0.25-I-OUTD-US-208")
	require.NoError(t, err)

	chain := Chain{
		Latitude:  60.455,
		Longitude: 22.286,
		Mount:     Mount{AxisTiltDegrees: 90, AxisAzimuthDegrees: 90, GCR: 0.35},
		Geometry:  defaultGeometry(),
		Module:    module,
		Inverter:  inverter,
		TempModel: OpenRackGlassGlass,
	}

	zone := tmy.FixedZone(3)
	times := make([]time.Time, 24)
	samples := make(tmy.Series, 24)
	for h := 0; h < 24; h++ {
		ts := time.Date(2020, 6, 15, h, 0, 0, 0, zone)
		times[h] = ts
		cs := solar.ClearSky(ts, 60.455, 22.286, 30, solar.DefaultLinkeTurbidity)
		samples[h] = tmy.Sample{Time: ts, GHI: cs.GHI, DNI: cs.DNI, DHI: cs.DHI, AirTemp: 18, WindSpeed: 2}
	}

	result, err := chain.Run(times, samples)
	require.NoError(t, err)
	require.Len(t, result.ACPower, 24)

	// Midsummer at 60°N: daytime production, near-zero or tare at night,
	// never above the inverter rating.
	var peak float64
	for h, p := range result.ACPower {
		assert.LessOrEqual(t, p, 250.0, "hour %d", h)
		if p > peak {
			peak = p
		}
	}
	assert.Greater(t, peak, 100.0)
	assert.Greater(t, result.EnergyKWh(), 0.5)
}

func TestChainRunLengthMismatch(t *testing.T) {
	chain := Chain{}
	_, err := chain.Run(make([]time.Time, 3), make(tmy.Series, 2))
	assert.Error(t, err)

	_, err = chain.Run(nil, nil)
	assert.Error(t, err)
}
