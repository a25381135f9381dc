package domain

import "time"

// EventUIDSeparator joins a calendar ID and event ID into an eventUid.
const EventUIDSeparator = "__"

// EventUID builds the globally unique, deterministic key for an event.
// It is the idempotency key for every upsert and delete: replaying the
// same batch converges to the same stored state.
func EventUID(calendarID, eventID string) string {
	return calendarID + EventUIDSeparator + eventID
}

// RawEventTime preserves the provider's original start or end value.
// Exactly one of Date (all-day, "2006-01-02") or DateTime (RFC 3339)
// is set. TimeZone is an IANA name and may be empty for timed events
// whose DateTime already carries an offset.
type RawEventTime struct {
	Date     string
	DateTime string
	TimeZone string
}

// EventRecord is the normalised internal shape of a provider event.
// Records are sink-of-truth from the provider and never locally edited.
type EventRecord struct {
	// UID is EventUID(CalendarID, EventID).
	UID string

	// CalendarID and EventID identify the event at the provider.
	CalendarID string
	EventID    string

	Summary     string
	Description string
	Location    string

	// StartDateKey and EndDateKey are local-date strings ("2006-01-02")
	// computed in the event's zone.
	StartDateKey string
	EndDateKey   string

	// StartTime and EndTime are the resolved instants. For all-day
	// events these are midnight UTC, with the provider's exclusive end
	// date pulled back one day to be inclusive.
	StartTime time.Time
	EndTime   time.Time

	// AllDay is true when the provider supplied a date and no dateTime.
	AllDay bool

	// DayKeys enumerates every local calendar date the event touches,
	// inclusive on both ends and with no gaps across the span.
	DayKeys []string

	// MonthKeys enumerates the touched months as "2006-01".
	MonthKeys []string

	// FiscalYearKeys enumerates the April-start fiscal years the span
	// touches, computed in the event's zone.
	FiscalYearKeys []int

	// Status is the provider's event status (confirmed, tentative).
	// Cancelled events never become records.
	Status string

	// StartRaw and EndRaw preserve the provider's original values.
	StartRaw RawEventTime
	EndRaw   RawEventTime

	// Organizer is the organiser's email, when present.
	Organizer string

	// ColorID is the provider's event colour identifier.
	ColorID string

	CreatedAt time.Time
	UpdatedAt time.Time
}
