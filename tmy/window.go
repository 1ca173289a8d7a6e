package tmy

import (
	"fmt"
	"time"
)

// Indexes used to probe a month slice for its window. Index 20 is safely past
// any rows a timezone shift pulls in from the neighbouring month's source
// year, while still on the first local day. Index len-23 backs off the final
// day so that adding 23 hours lands on the exclusive end date.
const (
	startProbeIndex = 20
	endProbeOffset  = 23
)

// Window is the calendar range a month simulation runs over. Start is the
// first simulated midnight and End the exclusive terminating date, both in
// the month's source-year calendar. Lead counts the hours missing at the
// head of the slice: when the previous month's source year was leap, the
// rows its shift pushed forward landed on the deleted February 29 instead of
// the first of this month, so the slice starts at hour Lead rather than
// midnight. LeapYear reports whether the source year has a February 29.
type Window struct {
	Start    time.Time
	End      time.Time
	Lead     int
	LeapYear bool
}

// MonthWindow derives the simulation window for a month slice of TMY data.
//
// The start date is read from the sample at index 20: the handful of leading
// rows of a shifted month belong to the previous month's source year, so the
// first rows cannot be trusted for the year, but an index well inside the
// first day can. The lead is read from the very first sample: a month that
// lost its shifted-in head rows to a leap-day deletion starts after midnight,
// and the wall clock of that first row says by how much. The end is the
// exclusive date after the last local day covered by the slice, probed 23
// rows from the end so the slice's own tail rows (which may belong to the
// next month's source year) cannot skew it.
func (s Series) MonthWindow() (Window, error) {
	if len(s) <= startProbeIndex+endProbeOffset {
		return Window{}, fmt.Errorf("month slice too short: %d rows", len(s))
	}

	probe := s[startProbeIndex].Time
	start := time.Date(probe.Year(), probe.Month(), probe.Day(), 0, 0, 0, 0, probe.Location())

	lead := 0
	if first := s[0].Time; first.Day() == 1 && first.Month() == start.Month() {
		lead = first.Hour()
	}

	endProbe := s[len(s)-endProbeOffset].Time.Add(endProbeOffset * time.Hour)
	end := time.Date(endProbe.Year(), endProbe.Month(), endProbe.Day(), 0, 0, 0, 0, endProbe.Location())

	if !end.After(start) {
		return Window{}, fmt.Errorf("degenerate month window: start %s, end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	return Window{Start: start, End: end, Lead: lead, LeapYear: isLeapYear(probe.Year())}, nil
}

// SimulationTimes expands a window into the hourly timestamps the physical
// model runs over, one per TMY sample of the month. Two corrections keep the
// range aligned with a shifted, leap-day-free series:
//
//   - February 29 never exists in TMY data, so its hours are dropped.
//   - The window's lead hours were sourced from rows the shift pushed onto a
//     deleted leap day; the month slice does not have them, so neither does
//     the range.
func (w Window) SimulationTimes() []time.Time {
	first := w.Start.Add(time.Duration(w.Lead) * time.Hour)
	times := make([]time.Time, 0, int(w.End.Sub(first).Hours()))
	for t := first; t.Before(w.End); t = t.Add(time.Hour) {
		if t.Month() == time.February && t.Day() == 29 {
			continue
		}
		times = append(times, t)
	}
	return times
}

// AlignTimes computes the simulation timestamps for a month slice and checks
// the one-to-one correspondence with its samples. A mismatch means the slice
// was not shifted and cleaned the way the window assumes, and aborts the
// month rather than feed misaligned irradiance into the model.
func (s Series) AlignTimes() ([]time.Time, error) {
	w, err := s.MonthWindow()
	if err != nil {
		return nil, err
	}
	times := w.SimulationTimes()
	if len(times) != len(s) {
		return nil, fmt.Errorf("window %s..%s yields %d hours for %d samples",
			w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), len(times), len(s))
	}
	return times, nil
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
