package domain

import "time"

// Default sync window bounds, relative to the current month.
const (
	defaultWindowMonthsBack  = 6
	defaultWindowMonthsAhead = 13
)

// TimeRange is a half-open-looking but inclusive window bounding a full
// (non-incremental) event fetch.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range carries no bounds.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// ResolveTimeRange returns explicit when it carries bounds, otherwise the
// default window: the first of the month six months before now at
// 00:00:00.000 local, through the last day of the month thirteen months
// ahead at 23:59:59.999 local.
func ResolveTimeRange(now time.Time, explicit *TimeRange) TimeRange {
	if explicit != nil && !explicit.IsZero() {
		return *explicit
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := firstOfMonth.AddDate(0, -defaultWindowMonthsBack, 0)
	// One month past the target month, rolled back a millisecond, lands
	// on the last day of that month at 23:59:59.999.
	end := firstOfMonth.AddDate(0, defaultWindowMonthsAhead+1, 0).Add(-time.Millisecond)

	return TimeRange{Start: start, End: end}
}
