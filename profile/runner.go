package profile

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pvtools/pvprofiler/pvgis"
	"github.com/pvtools/pvprofiler/pvmodel"
	"github.com/pvtools/pvprofiler/solar"
	"github.com/pvtools/pvprofiler/tmy"
)

// Runner executes the profiling pipeline for a configured site: it holds
// the calendar-corrected TMY series and the model chain, and simulates
// months on demand.
type Runner struct {
	config *Config
	logger *log.Logger
	client *pvgis.Client
	chain  pvmodel.Chain

	// series is the working copy: shifted to local standard time with
	// leap days removed, ready for month slicing.
	series tmy.Series
	// shift is the stitch correction the month windows must undo. It is
	// the UTC offset for shifted TMY input and zero for synthetic series
	// that are born on a clean local calendar.
	shift int
	// raw is the PVGIS JSON document when the series came from the API.
	raw *pvgis.RawDocument
}

// MonthResult is the outcome of simulating one calendar month.
type MonthResult struct {
	Month     time.Month
	Window    tmy.Window
	Result    pvmodel.Result
	Profile   [24]float64
	EnergyKWh float64
}

// NewRunner builds a runner from configuration. Module and inverter names
// must resolve against the built-in catalogs.
func NewRunner(config *Config, logger *log.Logger) (*Runner, error) {
	module, err := pvmodel.LookupModule(config.ModuleName)
	if err != nil {
		return nil, err
	}
	inverter, err := pvmodel.LookupInverter(config.InverterName)
	if err != nil {
		return nil, err
	}

	chain := pvmodel.Chain{
		Latitude:  config.Latitude,
		Longitude: config.Longitude,
		Mount: pvmodel.Mount{
			AxisTiltDegrees:    config.SurfaceTiltDegrees,
			AxisAzimuthDegrees: config.SurfaceAzimuthDegrees,
			MaxAngleDegrees:    config.MaxAngleDegrees,
			GCR:                config.GCR,
		},
		Geometry: pvmodel.RowGeometry{
			HeightMeters: config.RowHeightMeters,
			WidthMeters:  config.RowWidthMeters,
			GCR:          config.GCR,
			Albedo:       config.Albedo,
			Bifaciality:  module.Bifaciality,
		},
		Module:    module,
		Inverter:  inverter,
		TempModel: pvmodel.OpenRackGlassGlass,
	}

	httpClient := &http.Client{Timeout: config.APITimeout}

	return &Runner{
		config: config,
		logger: logger,
		client: pvgis.NewClientWithHTTPClient(httpClient, config.UserAgent),
		chain:  chain,
	}, nil
}

// SetClient replaces the PVGIS client (useful for testing).
func (r *Runner) SetClient(client *pvgis.Client) {
	r.client = client
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// RawDocument returns the PVGIS JSON document from the last API load, or
// nil when the series came from a file or clear-sky synthesis.
func (r *Runner) RawDocument() *pvgis.RawDocument {
	return r.raw
}

// LoadSeries installs a TMY series: it is validated, shifted from UTC to
// local standard time and stripped of leap days.
func (r *Runner) LoadSeries(series tmy.Series) error {
	if err := series.Validate(); err != nil {
		return fmt.Errorf("invalid TMY series: %w", err)
	}

	r.series = series.Shift(r.config.UTCOffsetHours).DropLeapDays()
	r.shift = r.config.UTCOffsetHours
	r.logger.Printf("Loaded TMY series: %d samples, UTC offset %+d h",
		len(r.series), r.config.UTCOffsetHours)
	return nil
}

// LoadFromSource loads the TMY series from the configured data source.
func (r *Runner) LoadFromSource(ctx context.Context) error {
	switch r.config.DataSource {
	case "pvgis":
		return r.loadFromAPI(ctx)
	case "file":
		return r.loadFromFile()
	default:
		return fmt.Errorf("unknown data source: %s", r.config.DataSource)
	}
}

// loadFromFile reads the TMY series from the configured input file using the
// configured column layout. Files in local wall time are installed as-is
// (minus leap days): there is no timezone shift, so none of the stitch
// corrections apply. Files in UTC go through the same shift pipeline as API
// data.
func (r *Runner) loadFromFile() error {
	loc := time.UTC
	if r.config.FileLocalTime {
		loc = tmy.FixedZone(r.config.UTCOffsetHours)
	}

	series, err := tmy.ReadFile(r.config.InputFile, r.config.FileLayout, loc)
	if err != nil {
		return fmt.Errorf("failed to read TMY file: %w", err)
	}
	r.logger.Printf("Read TMY data from %s", r.config.InputFile)

	if !r.config.FileLocalTime {
		return r.LoadSeries(series)
	}

	if err := series.Validate(); err != nil {
		return fmt.Errorf("invalid TMY series: %w", err)
	}
	r.series = series.DropLeapDays()
	r.shift = 0
	r.logger.Printf("Loaded TMY series: %d samples, local time", len(r.series))
	return nil
}

func (r *Runner) loadFromAPI(ctx context.Context) error {
	params := pvgis.QueryParams{
		Location: pvgis.Location{
			Latitude:  r.config.Latitude,
			Longitude: r.config.Longitude,
		},
	}

	r.logger.Printf("Fetching TMY data from PVGIS for %.4f, %.4f",
		r.config.Latitude, r.config.Longitude)

	series, err := r.client.GetTMY(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to fetch TMY data: %w", err)
	}

	raw, err := r.client.GetTMYRaw(ctx, params)
	if err != nil {
		// The raw document only feeds the archive; the run can proceed.
		r.logger.Printf("Warning: failed to fetch raw TMY document: %v", err)
	} else {
		r.raw = raw
		for _, sel := range raw.MonthsSelected {
			r.logger.Printf("TMY month %2d drawn from %d", sel.Month, sel.Year)
		}
	}

	return r.LoadSeries(series)
}

// LoadClearSky replaces the TMY series with a synthetic clear-sky year,
// giving the theoretical maximum production for the site. Ambient
// conditions use mild defaults since no weather is available.
func (r *Runner) LoadClearSky() error {
	year := r.config.ClearSkyYear
	loc := tmy.FixedZone(r.config.UTCOffsetHours)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)
	times := solar.HourlyRange(start, end)

	values := solar.ClearSkySeries(times, r.config.Latitude, r.config.Longitude,
		r.config.AltitudeMeters, r.config.LinkeTurbidity)

	series := make(tmy.Series, len(times))
	for i, ts := range times {
		series[i] = tmy.Sample{
			Time:      ts,
			GHI:       values[i].GHI,
			DNI:       values[i].DNI,
			DHI:       values[i].DHI,
			AirTemp:   20.0,
			WindSpeed: 0.0,
		}
	}

	// Already on local wall time, so no stitch correction applies; leap
	// days are dropped to keep the month arithmetic uniform with TMY input.
	r.series = series.DropLeapDays()
	r.shift = 0
	r.logger.Printf("Generated clear-sky year %d: %d samples", year, len(r.series))
	return nil
}

// RunMonth simulates one calendar month of the loaded series.
func (r *Runner) RunMonth(month time.Month) (*MonthResult, error) {
	if len(r.series) == 0 {
		return nil, fmt.Errorf("no series loaded")
	}

	shift := r.shift
	slice := r.series.SelectMonth(month)
	if len(slice) == 0 {
		return nil, fmt.Errorf("no samples for %s", month)
	}
	if month == time.January && shift > 0 {
		slice = slice.RotateJanuary(shift)
	}

	window, err := slice.MonthWindow()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", month, err)
	}

	times, err := slice.AlignTimes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", month, err)
	}

	result, err := r.chain.Run(times, slice)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", month, err)
	}

	mr := &MonthResult{
		Month:     month,
		Window:    window,
		Result:    result,
		Profile:   result.AverageDailyProfile(),
		EnergyKWh: result.EnergyKWh(),
	}

	r.logger.Printf("%-9s %s..%s  %4d h  %8.1f kWh",
		month, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"),
		len(times), mr.EnergyKWh)

	return mr, nil
}

// RunYear simulates all twelve months in calendar order.
func (r *Runner) RunYear() ([]*MonthResult, error) {
	results := make([]*MonthResult, 0, 12)
	for m := time.January; m <= time.December; m++ {
		mr, err := r.RunMonth(m)
		if err != nil {
			return nil, err
		}
		results = append(results, mr)
	}
	return results, nil
}
