package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pvtools/pvprofiler/pvgis"
	"github.com/pvtools/pvprofiler/tmy"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// stitchedYear builds a synthetic UTC TMY: each month from its own source
// year, no February 29, constant irradiance and mild weather.
func stitchedYear() tmy.Series {
	sourceYears := map[time.Month]int{
		time.January:   2007,
		time.February:  2012,
		time.March:     2012,
		time.April:     2015,
		time.May:       2009,
		time.June:      2014,
		time.July:      2011,
		time.August:    2013,
		time.September: 2010,
		time.October:   2016,
		time.November:  2008,
		time.December:  2010,
	}

	series := make(tmy.Series, 0, 8760)
	for m := time.January; m <= time.December; m++ {
		year := sourceYears[m]
		for t := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC); t.Month() == m; t = t.Add(time.Hour) {
			if t.Month() == time.February && t.Day() == 29 {
				continue
			}
			series = append(series, tmy.Sample{
				Time: t, GHI: 300, DHI: 120, DNI: 250, AirTemp: 10, WindSpeed: 2,
			})
		}
	}
	return series
}

func TestNewRunnerUnknownModule(t *testing.T) {
	config := DefaultConfig()
	config.ModuleName = "No Such Module 9000"

	if _, err := NewRunner(config, testLogger()); err == nil {
		t.Fatal("expected error for unknown module")
	}
}

func TestRunMonthWithoutSeries(t *testing.T) {
	runner, err := NewRunner(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	if _, err := runner.RunMonth(time.June); err == nil {
		t.Fatal("expected error when no series is loaded")
	}
}

func TestRunnerYearFromTMY(t *testing.T) {
	runner, err := NewRunner(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := runner.LoadSeries(stitchedYear()); err != nil {
		t.Fatalf("LoadSeries failed: %v", err)
	}

	results, err := runner.RunYear()
	if err != nil {
		t.Fatalf("RunYear failed: %v", err)
	}
	if len(results) != 12 {
		t.Fatalf("expected 12 month results, got %d", len(results))
	}

	for _, mr := range results {
		if len(mr.Result.Times) == 0 {
			t.Errorf("%s produced no hours", mr.Month)
		}
		if mr.EnergyKWh <= 0 {
			t.Errorf("%s produced no energy", mr.Month)
		}
	}

	feb := results[1]
	if !feb.Window.LeapYear {
		t.Error("expected February to come from a leap source year")
	}
	if len(feb.Result.Times) != 28*24 {
		t.Errorf("expected %d February hours, got %d", 28*24, len(feb.Result.Times))
	}

	// March from a leap source year loses the rows the shift pushed onto
	// the deleted leap day.
	march := results[2]
	if want := 31*24 - 2; len(march.Result.Times) != want {
		t.Errorf("expected %d March hours, got %d", want, len(march.Result.Times))
	}

	june := results[5]
	if len(june.Result.Times) != 30*24 {
		t.Errorf("expected %d June hours, got %d", 30*24, len(june.Result.Times))
	}
	if june.Window.Start.Year() != 2014 {
		t.Errorf("expected June window in 2014, got %d", june.Window.Start.Year())
	}
}

func TestRunnerClearSkyJune(t *testing.T) {
	config := DefaultConfig()
	runner, err := NewRunner(config, testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := runner.LoadClearSky(); err != nil {
		t.Fatalf("LoadClearSky failed: %v", err)
	}

	mr, err := runner.RunMonth(time.June)
	if err != nil {
		t.Fatalf("RunMonth failed: %v", err)
	}

	if len(mr.Result.Times) != 30*24 {
		t.Fatalf("expected %d hours, got %d", 30*24, len(mr.Result.Times))
	}
	if mr.Window.Start.Year() != config.ClearSkyYear {
		t.Errorf("expected window in %d, got %d", config.ClearSkyYear, mr.Window.Start.Year())
	}
	if mr.EnergyKWh <= 0 {
		t.Error("expected positive clear-sky energy in June")
	}

	// Nordic June: morning and evening production around a vertical
	// east/west row, none at local midnight.
	if mr.Profile[0] > 1 {
		t.Errorf("expected no production at midnight, got %f W", mr.Profile[0])
	}
}

func TestRunnerClearSkyYear(t *testing.T) {
	runner, err := NewRunner(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := runner.LoadClearSky(); err != nil {
		t.Fatalf("LoadClearSky failed: %v", err)
	}

	results, err := runner.RunYear()
	if err != nil {
		t.Fatalf("RunYear failed: %v", err)
	}

	// Clear-sky June should out-produce December at 60°N.
	june, december := results[5], results[11]
	if june.EnergyKWh <= december.EnergyKWh {
		t.Errorf("expected June (%f kWh) to beat December (%f kWh)",
			june.EnergyKWh, december.EnergyKWh)
	}
}

func TestRunnerLoadFromFile(t *testing.T) {
	series := stitchedYear()
	data, err := json.Marshal(series)
	if err != nil {
		t.Fatalf("failed to marshal series: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tmy.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write TMY file: %v", err)
	}

	config := DefaultConfig()
	config.DataSource = "file"
	config.InputFile = path
	config.FileLocalTime = false // the fixture is a UTC stitched year

	runner, err := NewRunner(config, testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := runner.LoadFromSource(context.Background()); err != nil {
		t.Fatalf("LoadFromSource failed: %v", err)
	}

	if runner.shift != config.UTCOffsetHours {
		t.Errorf("expected UTC file data to be shifted by %d h, got %d",
			config.UTCOffsetHours, runner.shift)
	}
	if _, err := runner.RunMonth(time.June); err != nil {
		t.Fatalf("RunMonth failed after file load: %v", err)
	}
}

// defaultCSV renders a series in the datetime-first CSV format of
// tmy.DefaultLayout.
func defaultCSV(series tmy.Series) string {
	var b strings.Builder
	b.WriteString("time,a,b,c,d,ghi,dhi,dni\n")
	for _, s := range series {
		fmt.Fprintf(&b, "%s,0,0,0,0,%.1f,%.1f,%.1f\n",
			s.Time.Format("2006-01-02 15:04:05"), s.GHI, s.DHI, s.DNI)
	}
	return b.String()
}

// localYear builds a clean local-calendar year, the shape a manually
// exported measurement file has.
func localYear(year, offset int) tmy.Series {
	loc := tmy.FixedZone(offset)
	series := make(tmy.Series, 0, 8760)
	for t := time.Date(year, time.January, 1, 0, 0, 0, 0, loc); t.Year() == year; t = t.Add(time.Hour) {
		series = append(series, tmy.Sample{Time: t, GHI: 300, DHI: 120, DNI: 250})
	}
	return series
}

// A file already in local wall time must be taken as-is: no timezone shift,
// and none of the stitch corrections (no January wrap, no leading March trim).
func TestRunnerLoadFromLocalTimeFile(t *testing.T) {
	config := DefaultConfig()
	series := localYear(2013, config.UTCOffsetHours)

	path := filepath.Join(t.TempDir(), "tmy.csv")
	if err := os.WriteFile(path, []byte(defaultCSV(series)), 0o644); err != nil {
		t.Fatalf("failed to write TMY file: %v", err)
	}

	config.DataSource = "file"
	config.InputFile = path
	config.FileLocalTime = true

	runner, err := NewRunner(config, testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if err := runner.LoadFromSource(context.Background()); err != nil {
		t.Fatalf("LoadFromSource failed: %v", err)
	}

	if runner.shift != 0 {
		t.Errorf("expected no shift for local-time file data, got %d", runner.shift)
	}
	if got := runner.series[0].Time; got.Hour() != 0 || got.Day() != 1 {
		t.Errorf("expected series to start at local midnight on January 1, got %s", got)
	}

	jan, err := runner.RunMonth(time.January)
	if err != nil {
		t.Fatalf("RunMonth failed: %v", err)
	}
	if len(jan.Result.Times) != 31*24 {
		t.Errorf("expected %d January hours, got %d", 31*24, len(jan.Result.Times))
	}
	if got := jan.Window.Start.Format("2006-01-02"); got != "2013-01-01" {
		t.Errorf("expected January window to start 2013-01-01, got %s", got)
	}

	june, err := runner.RunMonth(time.June)
	if err != nil {
		t.Fatalf("RunMonth failed: %v", err)
	}
	if len(june.Result.Times) != 30*24 {
		t.Errorf("expected %d June hours, got %d", 30*24, len(june.Result.Times))
	}
}

// pvgisCSV renders a series in the PVGIS basic CSV format.
func pvgisCSV(series tmy.Series) string {
	var b strings.Builder
	b.WriteString("time,T2m,RH,G(h),Gb(n),Gd(h),IR(h),WS10m\n")
	for _, s := range series {
		fmt.Fprintf(&b, "%s,%.1f,80.0,%.1f,%.1f,%.1f,300.0,%.1f\n",
			s.Time.Format("20060102:1504"), s.AirTemp, s.GHI, s.DNI, s.DHI, s.WindSpeed)
	}
	return b.String()
}

func TestRunnerLoadFromAPI(t *testing.T) {
	csvBody := pvgisCSV(stitchedYear())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("outputformat") {
		case "basic":
			w.Header().Set("Content-Type", "text/csv")
			io.WriteString(w, csvBody)
		case "json":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"outputs": {"months_selected": [{"month": 6, "year": 2014}]}}`)
		default:
			http.Error(w, "bad outputformat", http.StatusBadRequest)
		}
	}))
	defer server.Close()

	runner, err := NewRunner(DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	client := pvgis.NewClient("test/1.0")
	client.SetBaseURL(server.URL)
	runner.SetClient(client)

	if err := runner.LoadFromSource(context.Background()); err != nil {
		t.Fatalf("LoadFromSource failed: %v", err)
	}

	raw := runner.RawDocument()
	if raw == nil {
		t.Fatal("expected raw document after API load")
	}
	if raw.SourceYear(6) != 2014 {
		t.Errorf("expected June source year 2014, got %d", raw.SourceYear(6))
	}

	mr, err := runner.RunMonth(time.June)
	if err != nil {
		t.Fatalf("RunMonth failed after API load: %v", err)
	}
	if len(mr.Result.Times) != 30*24 {
		t.Errorf("expected %d June hours, got %d", 30*24, len(mr.Result.Times))
	}
}

func TestRunnerUnknownSource(t *testing.T) {
	config := DefaultConfig()
	config.DataSource = "pvgis"

	runner, err := NewRunner(config, testLogger())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	runner.config.DataSource = "carrier-pigeon"
	if err := runner.LoadFromSource(context.Background()); err == nil {
		t.Fatal("expected error for unknown data source")
	}
}
