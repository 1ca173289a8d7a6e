package tmy

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ColumnLayout describes where a TMY file keeps its fields. Indexes are
// zero-based CSV columns; set an index to -1 for fields the file lacks.
type ColumnLayout struct {
	TimeFormat   string `json:"time_format"` // Go reference layout for the timestamp column
	TimeIndex    int    `json:"time_index"`
	GHIIndex     int    `json:"ghi_index"`
	DHIIndex     int    `json:"dhi_index"`
	DNIIndex     int    `json:"dni_index"`
	AirTempIndex int    `json:"air_temp_index"`
	WindIndex    int    `json:"wind_index"`
}

// DefaultLayout matches the common "datetime first, irradiance later" export
// format handled by the manual file path of the profiler.
func DefaultLayout() ColumnLayout {
	return ColumnLayout{
		TimeFormat:   "2006-01-02 15:04:05",
		TimeIndex:    0,
		GHIIndex:     5,
		DHIIndex:     6,
		DNIIndex:     7,
		AirTempIndex: -1,
		WindIndex:    -1,
	}
}

// PVGISBasicLayout matches the PVGIS v5.2 TMY "basic" CSV output:
// time(UTC), T2m, RH, G(h), Gb(n), Gd(h), IR(h), WS10m, WD10m, SP.
func PVGISBasicLayout() ColumnLayout {
	return ColumnLayout{
		TimeFormat:   "20060102:1504",
		TimeIndex:    0,
		GHIIndex:     3,
		DHIIndex:     5,
		DNIIndex:     4,
		AirTempIndex: 1,
		WindIndex:    7,
	}
}

// ParseCSV reads an hourly TMY series from CSV data. Rows whose timestamp
// column does not parse with the layout's format are skipped, which tolerates
// header lines and trailing metadata without knowing the exact dialect.
// Timestamps are interpreted in loc.
func ParseCSV(r io.Reader, layout ColumnLayout, loc *time.Location) (Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	maxIdx := layout.TimeIndex
	for _, idx := range []int{layout.GHIIndex, layout.DHIIndex, layout.DNIIndex} {
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	series := make(Series, 0, 8760)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) <= maxIdx {
			continue
		}

		ts, err := time.ParseInLocation(layout.TimeFormat, strings.TrimSpace(record[layout.TimeIndex]), loc)
		if err != nil {
			continue // header or metadata row
		}

		sample := Sample{Time: ts}
		if sample.GHI, err = parseField(record, layout.GHIIndex); err != nil {
			return nil, fmt.Errorf("row %s: bad GHI: %w", record[layout.TimeIndex], err)
		}
		if sample.DHI, err = parseField(record, layout.DHIIndex); err != nil {
			return nil, fmt.Errorf("row %s: bad DHI: %w", record[layout.TimeIndex], err)
		}
		if sample.DNI, err = parseField(record, layout.DNIIndex); err != nil {
			return nil, fmt.Errorf("row %s: bad DNI: %w", record[layout.TimeIndex], err)
		}
		// Optional columns fall back to zero values; the electrical model
		// substitutes its own defaults for missing weather.
		sample.AirTemp, _ = parseField(record, layout.AirTempIndex)
		sample.WindSpeed, _ = parseField(record, layout.WindIndex)

		series = append(series, sample)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("no TMY rows parsed (time format %q)", layout.TimeFormat)
	}
	return series, nil
}

func parseField(record []string, idx int) (float64, error) {
	if idx < 0 || idx >= len(record) {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// ReadFile loads a TMY series from a local file, dispatching on extension:
// .json files must hold a JSON array of samples, anything else is parsed as
// CSV with the given layout.
func ReadFile(path string, layout ColumnLayout, loc *time.Location) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open TMY file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var series Series
		if err := json.NewDecoder(f).Decode(&series); err != nil {
			return nil, fmt.Errorf("failed to decode TMY JSON: %w", err)
		}
		if len(series) == 0 {
			return nil, fmt.Errorf("no TMY rows in %s", path)
		}
		return series, nil
	}

	series, err := ParseCSV(f, layout, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}
