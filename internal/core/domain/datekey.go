package domain

import "time"

// FiscalYearStartMonth is the first month of the fiscal year. A date in
// January–March belongs to the fiscal year labelled with the previous
// calendar year.
const FiscalYearStartMonth = time.April

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// DayKey formats t as a local-date key in t's own location.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// MonthKey formats t as a month key in t's own location.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// FiscalYear returns the April-start fiscal year label for t,
// evaluated in t's own location.
func FiscalYear(t time.Time) int {
	if t.Month() < FiscalYearStartMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// DayKeys enumerates every calendar date between start and end inclusive,
// evaluated in loc. The result reconstructs the span with no gaps even
// when the instants cross midnight or DST transitions.
func DayKeys(start, end time.Time, loc *time.Location) []string {
	start = start.In(loc)
	end = end.In(loc)

	var keys []string
	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	for !cur.After(last) {
		keys = append(keys, cur.Format(dayKeyLayout))
		cur = cur.AddDate(0, 0, 1)
	}
	return keys
}

// MonthKeys enumerates every month between start and end inclusive,
// evaluated in loc.
func MonthKeys(start, end time.Time, loc *time.Location) []string {
	start = start.In(loc)
	end = end.In(loc)

	var keys []string
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, loc)
	for !cur.After(last) {
		keys = append(keys, cur.Format(monthKeyLayout))
		cur = cur.AddDate(0, 1, 0)
	}
	return keys
}

// FiscalYears enumerates every fiscal year label the span touches,
// evaluated in loc, in ascending order.
func FiscalYears(start, end time.Time, loc *time.Location) []int {
	first := FiscalYear(start.In(loc))
	last := FiscalYear(end.In(loc))

	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}
