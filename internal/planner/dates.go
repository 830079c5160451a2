package planner

import (
	"sort"
	"time"
)

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeDates returns the distinct calendar days of dates in ascending order.
func NormalizeDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := Day(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ResponsibleTransferDate returns the latest transfer date strictly before the
// performance. ok is false when the performance falls on or before the first
// transfer date, i.e. no selected day can move a kit in time.
func ResponsibleTransferDate(transferDates []time.Time, performance time.Time) (time.Time, bool) {
	perf := Day(performance)
	var best time.Time
	found := false
	for _, t := range transferDates {
		day := Day(t)
		if day.Before(perf) && (!found || day.After(best)) {
			best = day
			found = true
		}
	}
	return best, found
}

// CoverageWindow is the inclusive range of performance dates a transfer day serves.
type CoverageWindow struct {
	TransferDate time.Time `json:"transfer_date"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
}

// CoverageWindows maps each transfer day to (day, next transfer day]; the last
// one runs to windowEnd. Transfer days whose range would be empty are omitted.
func CoverageWindows(transferDates []time.Time, windowEnd time.Time) []CoverageWindow {
	days := NormalizeDates(transferDates)
	end := Day(windowEnd)
	windows := make([]CoverageWindow, 0, len(days))
	for i, t := range days {
		to := end
		if i+1 < len(days) {
			to = days[i+1]
		}
		from := t.AddDate(0, 0, 1)
		if to.Before(from) {
			continue
		}
		windows = append(windows, CoverageWindow{TransferDate: t, From: from, To: to})
	}
	return windows
}
