// Package performance derives time-windowed price development from a daily
// quote series: target lookback dates, nearest-date matching, and returns.
package performance

import "time"

// TargetPeriod is a named lookback expressed as a calendar offset.
type TargetPeriod struct {
	Name   string
	Years  int
	Months int
}

// Lookback periods in record order.
var (
	OneMonth    = TargetPeriod{Name: "1 Month", Months: 1}
	ThreeMonths = TargetPeriod{Name: "3 Months", Months: 3}
	OneYear     = TargetPeriod{Name: "1 Year", Years: 1}
	ThreeYears  = TargetPeriod{Name: "3 Years", Years: 3}
)

// Periods returns the fixed set of lookbacks.
func Periods() []TargetPeriod {
	return []TargetPeriod{OneMonth, ThreeMonths, OneYear, ThreeYears}
}

// Target returns the ideal date for p counted back from today.
// Month overflow normalizes the way time.AddDate does (Mar 31 - 1 month = Mar 3).
func (p TargetPeriod) Target(today time.Time) time.Time {
	return today.AddDate(-p.Years, -p.Months, 0)
}

// Today truncates t to its calendar date at 00:00 UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window returns the history window [today-longest lookback, today].
func Window(today time.Time) (from, to time.Time) {
	return ThreeYears.Target(today), today
}
