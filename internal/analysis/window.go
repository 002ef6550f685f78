// Package analysis turns parsed bank statements into the 12-month analytical
// view: a common time window, a merged deduplicated transaction ledger,
// canonical transactions, counterparty turnover rankings and a related-party
// net-position table.
package analysis

import (
	"fmt"
	"time"
)

// Window is the fixed analysis period: exactly 12 full calendar months ending
// the last day of the month before the anchor date's month. Both bounds are
// inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ComputeWindow derives the window from an anchor date. The anchor's own,
// possibly partial, month is never included. Any valid date yields a valid
// window.
func ComputeWindow(anchor time.Time) Window {
	firstOfAnchorMonth := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := firstOfAnchorMonth.AddDate(0, 0, -1)
	start := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	return Window{Start: start, End: end}
}

// Contains reports whether d falls inside the window, bounds inclusive.
// d is compared at day granularity.
func (w Window) Contains(d time.Time) bool {
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(w.Start) && !day.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s → %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
