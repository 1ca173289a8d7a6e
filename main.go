// Package main provides the PV production profiler entry point and CLI
// interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pvtools/pvprofiler/chart"
	"github.com/pvtools/pvprofiler/inverter"
	"github.com/pvtools/pvprofiler/profile"
)

func main() {
	// Command line flags
	var (
		configFile = flag.String("config", "config.json", "Configuration file path")
		source     = flag.String("source", "", "TMY data source: pvgis or file (overrides config)")
		input      = flag.String("input", "", "TMY input file for the file source (overrides config)")
		lat        = flag.Float64("lat", 0, "Site latitude in decimal degrees (overrides config)")
		lon        = flag.Float64("lon", 0, "Site longitude in decimal degrees (overrides config)")
		month      = flag.Int("month", 0, "Simulate a single month (1-12), 0 = whole year")
		clearSky   = flag.Bool("clearsky", false, "Use a synthetic clear-sky year instead of TMY data")
		save       = flag.Bool("save", false, "Save monthly CSV results and the raw TMY document")
		plots      = flag.Bool("plot", false, "Render per-month PNG plots and a yearly overlay")
		out        = flag.String("out", "", "Output directory root (overrides config)")
		overlay    = flag.String("overlay", "", "Comma-separated run directories to overlay and exit")
		serve      = flag.Bool("serve", false, "Keep the web server running after the simulation")
		live       = flag.String("live", "", "Run directory to compare against the live inverter")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *overlay != "" {
		if err := runOverlay(*overlay); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		return
	}

	config, err := loadConfig(*configFile)
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		os.Exit(1)
	}

	// Flag overrides
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyOverrides(config, cliOverrides{
		source: *source,
		input:  *input,
		lat:    *lat,
		lon:    *lon,
		out:    *out,
	}, set)
	if err := config.Validate(); err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "[PROFILER] ", log.LstdFlags)

	if *live != "" {
		if err := runLiveComparison(config, logger, *live); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(config, logger, *month, *clearSky, *save, *plots, *serve); err != nil {
		logger.Printf("Error: %v", err)
		os.Exit(1)
	}
}

// cliOverrides holds the flag values that may replace config file settings.
type cliOverrides struct {
	source string
	input  string
	lat    float64
	lon    float64
	out    string
}

// applyOverrides copies explicitly passed flags onto the config. Membership
// in set (collected with flag.Visit) decides, not the value, so zero
// coordinates like the equator or the prime meridian stay expressible.
func applyOverrides(config *profile.Config, o cliOverrides, set map[string]bool) {
	if set["source"] {
		config.DataSource = o.source
	}
	if set["input"] {
		config.InputFile = o.input
		if !set["source"] {
			config.DataSource = "file"
		}
	}
	if set["lat"] {
		config.Latitude = o.lat
	}
	if set["lon"] {
		config.Longitude = o.lon
	}
	if set["out"] {
		config.OutputDir = o.out
	}
}

// loadConfig reads the config file, falling back to defaults when the
// default file name is absent.
func loadConfig(path string) (*profile.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "config.json" {
		return profile.DefaultConfig(), nil
	}
	return profile.LoadConfig(path)
}

func run(config *profile.Config, logger *log.Logger, month int, clearSky, save, plots, serve bool) error {
	fmt.Printf("PV production profiler\n")
	fmt.Printf("  Site:     %.4f, %.4f (%+d h from UTC)\n",
		config.Latitude, config.Longitude, config.UTCOffsetHours)
	fmt.Printf("  Array:    tilt %.0f°, azimuth %.0f°, GCR %.2f\n",
		config.SurfaceTiltDegrees, config.SurfaceAzimuthDegrees, config.GCR)
	fmt.Printf("  Module:   %s\n", config.ModuleName)
	fmt.Printf("  Inverter: %s\n", config.InverterName)
	if clearSky {
		fmt.Printf("  Mode:     clear-sky year %d\n", config.ClearSkyYear)
	} else {
		fmt.Printf("  Source:   %s\n", config.DataSource)
	}
	fmt.Println()

	runner, err := profile.NewRunner(config, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if clearSky {
		if err := runner.LoadClearSky(); err != nil {
			return err
		}
	} else {
		if err := runner.LoadFromSource(ctx); err != nil {
			return err
		}
	}

	server := profile.NewWebServer(config.ServerPort, logger)
	if err := server.Start(); err != nil {
		return err
	}

	results, err := runMonths(runner, month)
	if err != nil {
		return err
	}

	printSummary(results)

	var runDir string
	if save || plots {
		runDir, err = profile.NewRunDir(config.OutputDir)
		if err != nil {
			return err
		}
		logger.Printf("Writing results to %s", runDir)
	}

	if save {
		if err := saveResults(runner, runDir, results, config); err != nil {
			return err
		}
	}

	if plots {
		if err := renderPlots(runDir, results); err != nil {
			return err
		}
	}

	if config.PostgresConnString != "" {
		if err := persistResults(ctx, config, results, runDir); err != nil {
			logger.Printf("Warning: failed to persist results: %v", err)
		} else {
			logger.Printf("Results persisted to database")
		}
	}

	server.PublishResults(runDir, results)

	if serve && server != nil {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		logger.Printf("Serving results. Press Ctrl+C to stop...")
		<-sigChan
		logger.Printf("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Stop(shutdownCtx)
}

func runMonths(runner *profile.Runner, month int) ([]*profile.MonthResult, error) {
	if month != 0 {
		if month < 1 || month > 12 {
			return nil, fmt.Errorf("month must be between 1 and 12, got %d", month)
		}
		mr, err := runner.RunMonth(time.Month(month))
		if err != nil {
			return nil, err
		}
		return []*profile.MonthResult{mr}, nil
	}
	return runner.RunYear()
}

func printSummary(results []*profile.MonthResult) {
	fmt.Println()
	fmt.Println("┌───────────┬────────────┬────────────┬────────────┐")
	fmt.Println("│   Month   │   Window   │   Hours    │   Energy   │")
	fmt.Println("│           │   start    │ simulated  │    (kWh)   │")
	fmt.Println("├───────────┼────────────┼────────────┼────────────┤")

	total := 0.0
	for _, mr := range results {
		fmt.Printf("│ %-9s │ %s │   %6d   │  %8.1f  │\n",
			mr.Month, mr.Window.Start.Format("2006-01-02"),
			len(mr.Result.Times), mr.EnergyKWh)
		total += mr.EnergyKWh
	}

	fmt.Println("└───────────┴────────────┴────────────┴────────────┘")
	fmt.Printf("Total: %.1f kWh\n\n", total)
}

func saveResults(runner *profile.Runner, runDir string, results []*profile.MonthResult, config *profile.Config) error {
	if err := config.SaveConfig(filepath.Join(runDir, "config.json")); err != nil {
		return err
	}

	for _, mr := range results {
		if _, err := profile.SaveMonthCSV(runDir, mr); err != nil {
			return err
		}
	}

	if raw := runner.RawDocument(); raw != nil {
		if _, err := profile.SaveRawJSON(runDir, raw.JSON()); err != nil {
			return err
		}
	}
	return nil
}

func renderPlots(runDir string, results []*profile.MonthResult) error {
	profiles := make([]chart.NamedProfile, 0, len(results))
	for _, mr := range results {
		name := strings.ToLower(mr.Month.String())
		path := filepath.Join(runDir, fmt.Sprintf("%02d_%s.png", int(mr.Month), name))
		if err := chart.SaveMonthPNG(path, mr.Month.String(), mr.Result); err != nil {
			return err
		}
		profiles = append(profiles, chart.NamedProfile{
			Name:    mr.Month.String(),
			Profile: mr.Profile,
		})
	}

	return chart.SaveOverlayPNG(filepath.Join(runDir, "overlay.png"),
		"Average Daily Profiles", profiles)
}

func persistResults(ctx context.Context, config *profile.Config, results []*profile.MonthResult, runDir string) error {
	store, err := profile.OpenStore(config.PostgresConnString)
	if err != nil {
		return err
	}
	defer store.Close()

	runID := filepath.Base(runDir)
	if runID == "." || runID == "" {
		runID = time.Now().Format("20060102T150405")
	}
	return store.SaveResults(ctx, runID, results)
}

// runOverlay compares the saved daily profiles of one or two run
// directories on a single plot. A second run is drawn dashed.
func runOverlay(dirs string) error {
	var profiles []chart.NamedProfile

	for i, dir := range strings.Split(dirs, ",") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		saved, err := profile.LoadRunProfiles(dir)
		if err != nil {
			return err
		}
		label := filepath.Base(dir)
		for _, sp := range saved {
			name := sp.Month.String()
			if i > 0 {
				name = fmt.Sprintf("%s (%s)", name, label)
			}
			profiles = append(profiles, chart.NamedProfile{
				Name:    name,
				Profile: sp.Profile,
				Dashed:  i > 0,
			})
		}
	}

	if err := chart.SaveOverlayPNG("overlay.png", "Average Daily Profiles", profiles); err != nil {
		return err
	}
	fmt.Println("Wrote overlay.png")
	return nil
}

// runLiveComparison reads the current month's saved profile and compares
// it with the inverter's live output over Modbus.
func runLiveComparison(config *profile.Config, logger *log.Logger, runDir string) error {
	if config.InverterModbusAddress == "" {
		return fmt.Errorf("inverter_modbus_address is not configured")
	}

	saved, err := profile.LoadRunProfiles(runDir)
	if err != nil {
		return err
	}

	now := time.Now()
	var current *profile.SavedProfile
	for i := range saved {
		if saved[i].Month == now.Month() {
			current = &saved[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("no saved profile for %s in %s", now.Month(), runDir)
	}

	client, err := inverter.NewTCPClient(config.InverterModbusAddress, inverter.DefaultSlaveID)
	if err != nil {
		return err
	}
	defer client.Close()

	status, err := client.ReadStatus()
	if err != nil {
		return err
	}

	dev := inverter.CompareToProfile(status, current.Profile, now)
	logger.Printf("Inverter at %s", config.InverterModbusAddress)
	logger.Printf("  Measured:  %8.1f W", dev.MeasuredWatts)
	logger.Printf("  Expected:  %8.1f W (%s average, hour %02d)", dev.ExpectedWatts, current.Month, now.Hour())
	logger.Printf("  Delta:     %+8.1f W", dev.DeltaWatts)
	if dev.Ratio > 0 {
		logger.Printf("  Ratio:     %8.2f", dev.Ratio)
	}
	logger.Printf("  Lifetime:  %8.1f kWh", status.LifetimeEnergyWh/1000)
	return nil
}

func showHelp() {
	fmt.Println("pvprofiler - Compute PV production profiles from typical meteorological year data")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Fetches TMY irradiance data (PVGIS or a local file), corrects its stitched")
	fmt.Println("  calendar to local time, and simulates a bifacial PV system month by month:")
	fmt.Println("  sun position, plane-of-array irradiance, cell temperature and AC power.")
	fmt.Println()
	fmt.Println("  Key Features:")
	fmt.Println("  - PVGIS TMY API client with raw document archival")
	fmt.Println("  - Calendar correction for timezone shift and missing leap days")
	fmt.Println("  - Bifacial vertical-row modelling with monthly energy totals")
	fmt.Println("  - Clear-sky mode for the theoretical site maximum")
	fmt.Println("  - CSV export, PNG plots and run-to-run overlay comparison")
	fmt.Println("  - Live inverter comparison over Modbus TCP")
	fmt.Println("  - Results feed over HTTP and WebSocket")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  pvprofiler [OPTIONS]")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Simulate a whole year from PVGIS with plots and CSV output")
	fmt.Println("  pvprofiler --save --plot")
	fmt.Println()
	fmt.Println("  # Single month from a local TMY file")
	fmt.Println("  pvprofiler --source=file --input=tmy.csv --month=6")
	fmt.Println()
	fmt.Println("  # Theoretical clear-sky maximum for another site")
	fmt.Println("  pvprofiler --clearsky --lat=56.95 --lon=24.11")
	fmt.Println()
	fmt.Println("  # Compare two saved runs")
	fmt.Println("  pvprofiler --overlay=output/20260801T090000,output/20260815T090000")
	fmt.Println()
	fmt.Println("  # Compare the live inverter with a saved run")
	fmt.Println("  pvprofiler --live=output/20260801T090000")
}
