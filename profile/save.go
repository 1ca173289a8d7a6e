package profile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pvtools/pvprofiler/pvmodel"
)

// Time layout used in saved CSV files.
const csvTimeLayout = "2006-01-02 15:04:05"

// NewRunDir creates a timestamped directory for one profiler run under the
// configured output root and returns its path.
func NewRunDir(outputDir string) (string, error) {
	dir := filepath.Join(outputDir, time.Now().Format("20060102T150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// monthFileName returns the CSV base name for a month, zero padded so a
// directory listing reads in calendar order.
func monthFileName(month time.Month) string {
	return fmt.Sprintf("%02d_%s.csv", int(month), strings.ToLower(month.String()))
}

// SaveMonthCSV writes one month's hourly AC power to a CSV file in the run
// directory and returns the file path.
func SaveMonthCSV(dir string, mr *MonthResult) (string, error) {
	path := filepath.Join(dir, monthFileName(mr.Month))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"Time", "AC Power (W)"}); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, ts := range mr.Result.Times {
		record := []string{
			ts.Format(csvTimeLayout),
			strconv.FormatFloat(mr.Result.ACPower[i], 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}
	return path, nil
}

// SaveRawJSON archives the PVGIS response document next to the results.
func SaveRawJSON(dir string, data []byte) (string, error) {
	path := filepath.Join(dir, "tmy_raw.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write raw TMY document: %w", err)
	}
	return path, nil
}

// LoadProfileCSV reads a saved month CSV back into a result with times and
// AC power populated.
func LoadProfileCSV(path string) (pvmodel.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return pvmodel.Result{}, fmt.Errorf("failed to open profile CSV: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return pvmodel.Result{}, fmt.Errorf("failed to read profile CSV: %w", err)
	}

	var result pvmodel.Result
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		ts, err := time.Parse(csvTimeLayout, record[0])
		if err != nil {
			// Header row.
			continue
		}
		power, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return pvmodel.Result{}, fmt.Errorf("bad power value %q: %w", record[1], err)
		}
		result.Times = append(result.Times, ts)
		result.ACPower = append(result.ACPower, power)
	}

	if len(result.Times) == 0 {
		return pvmodel.Result{}, fmt.Errorf("no data rows in %s", path)
	}
	return result, nil
}

// SavedProfile is the average daily shape recovered from one saved month.
type SavedProfile struct {
	Month   time.Month
	Profile [24]float64
}

// LoadRunProfiles reads every month CSV present in a run directory, in
// calendar order, and reduces each to its average daily profile.
func LoadRunProfiles(dir string) ([]SavedProfile, error) {
	var profiles []SavedProfile
	for m := time.January; m <= time.December; m++ {
		path := filepath.Join(dir, monthFileName(m))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		result, err := LoadProfileCSV(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		profiles = append(profiles, SavedProfile{
			Month:   m,
			Profile: result.AverageDailyProfile(),
		})
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("no month profiles found in %s", dir)
	}
	return profiles, nil
}
