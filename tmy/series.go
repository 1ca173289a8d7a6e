// Package tmy models typical meteorological year (TMY) irradiance series and
// the calendar corrections needed to slice them along real month boundaries.
//
// TMY data is a stitched year: every month comes from a different historical
// source year and the series carries no leap days. Aligning such a series
// with a local-time calendar therefore needs a timezone shift, leap-day
// cleanup and a month-boundary heuristic; those live here.
package tmy

import (
	"fmt"
	"time"
)

// Sample is a single hourly TMY record.
type Sample struct {
	Time      time.Time `json:"time"`
	GHI       float64   `json:"ghi"`        // global horizontal irradiance, W/m²
	DHI       float64   `json:"dhi"`        // diffuse horizontal irradiance, W/m²
	DNI       float64   `json:"dni"`        // direct normal irradiance, W/m²
	AirTemp   float64   `json:"air_temp"`   // ambient temperature, °C
	WindSpeed float64   `json:"wind_speed"` // wind speed at 10 m, m/s
}

// Series is an hourly TMY time series, normally one stitched year (8760 rows).
type Series []Sample

// Shift returns a copy of the series with every timestamp re-expressed in a
// fixed zone offset by the given number of hours from UTC. PVGIS delivers TMY
// data in UTC; shifting by the location's UTC offset moves the wall clock so
// that month slices select local calendar boundaries, while the absolute
// instants (which solar geometry depends on) are preserved.
func (s Series) Shift(hours int) Series {
	if hours == 0 {
		return s
	}
	zone := FixedZone(hours)
	shifted := make(Series, len(s))
	for i, sample := range s {
		sample.Time = sample.Time.In(zone)
		shifted[i] = sample
	}
	return shifted
}

// FixedZone returns the fixed-offset location for a whole-hour UTC offset,
// named in the Etc/GMT style PVGIS users expect (UTC+3, UTC-5, ...).
func FixedZone(hours int) *time.Location {
	if hours == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", hours), hours*3600)
}

// DropLeapDays removes all rows falling on February 29. TMY data has no leap
// days, but shifting a February sourced from a leap year can push its last
// hours onto the 29th; those rows have no calendar slot and are discarded.
func (s Series) DropLeapDays() Series {
	kept := make(Series, 0, len(s))
	for _, sample := range s {
		if sample.Time.Month() == time.February && sample.Time.Day() == 29 {
			continue
		}
		kept = append(kept, sample)
	}
	return kept
}

// SelectMonth returns the subset of the series falling in the given calendar
// month, regardless of year. Row order is preserved.
func (s Series) SelectMonth(month time.Month) Series {
	sub := make(Series, 0, 31*24)
	for _, sample := range s {
		if sample.Time.Month() == month {
			sub = append(sub, sample)
		}
	}
	return sub
}

// RotateJanuary moves the trailing shift rows of a January slice to its
// front. After a positive timezone shift the first local hours of January 1st
// originate from the December tail of the stitched year and sort at the end
// of the month slice; rotating restores positional alignment with a calendar
// hour range. A no-op for shift <= 0 or slices shorter than the shift.
func (s Series) RotateJanuary(shift int) Series {
	if shift <= 0 || len(s) <= shift {
		return s
	}
	rotated := make(Series, 0, len(s))
	rotated = append(rotated, s[len(s)-shift:]...)
	rotated = append(rotated, s[:len(s)-shift]...)
	return rotated
}

// Validate checks that the series is non-empty and hourly-ish. It does not
// require monotonic timestamps: a rotated January is deliberately reordered.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("series is empty")
	}
	for i, sample := range s {
		if sample.Time.IsZero() {
			return fmt.Errorf("sample %d has a zero timestamp", i)
		}
	}
	return nil
}
