package google

import (
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"github.com/nendocal/calsync/internal/core/domain"
)

const allDayLayout = "2006-01-02"

// MapEvent normalises a raw provider event into an EventRecord.
//
// Timed events take their instants from dateTime; all-day events are
// anchored at midnight UTC, with the provider's exclusive end date
// pulled back one day so the stored span is inclusive. Index keys are
// enumerated in the event's own time zone, not the caller's local zone.
func MapEvent(calendarID string, ev *calendar.Event) domain.EventRecord {
	eventID := ev.Id
	if eventID == "" {
		// The provider guarantees an id, but a record without one would
		// collide on the empty UID suffix.
		eventID = uuid.NewString()
	}

	start, end, allDay, loc := resolveEventSpan(ev)

	record := domain.EventRecord{
		UID:            domain.EventUID(calendarID, eventID),
		CalendarID:     calendarID,
		EventID:        eventID,
		Summary:        ev.Summary,
		Description:    ev.Description,
		Location:       ev.Location,
		StartDateKey:   domain.DayKey(start.In(loc)),
		EndDateKey:     domain.DayKey(end.In(loc)),
		StartTime:      start,
		EndTime:        end,
		AllDay:         allDay,
		DayKeys:        domain.DayKeys(start, end, loc),
		MonthKeys:      domain.MonthKeys(start, end, loc),
		FiscalYearKeys: domain.FiscalYears(start, end, loc),
		Status:         ev.Status,
		ColorID:        ev.ColorId,
	}

	if ev.Start != nil {
		record.StartRaw = domain.RawEventTime{
			Date:     ev.Start.Date,
			DateTime: ev.Start.DateTime,
			TimeZone: ev.Start.TimeZone,
		}
	}
	if ev.End != nil {
		record.EndRaw = domain.RawEventTime{
			Date:     ev.End.Date,
			DateTime: ev.End.DateTime,
			TimeZone: ev.End.TimeZone,
		}
	}
	if ev.Organizer != nil {
		record.Organizer = ev.Organizer.Email
	}
	if t, err := time.Parse(time.RFC3339, ev.Created); err == nil {
		record.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, ev.Updated); err == nil {
		record.UpdatedAt = t
	}

	return record
}

// resolveEventSpan derives the event's instants, all-day flag, and the
// location index keys are computed in.
func resolveEventSpan(ev *calendar.Event) (start, end time.Time, allDay bool, loc *time.Location) {
	loc = eventLocation(ev)

	var startRaw, endRaw *calendar.EventDateTime
	if ev.Start != nil {
		startRaw = ev.Start
	}
	if ev.End != nil {
		endRaw = ev.End
	}

	// dateTime wins over date when both are present.
	allDay = startRaw != nil && startRaw.Date != "" && startRaw.DateTime == ""

	if allDay {
		start, _ = time.ParseInLocation(allDayLayout, startRaw.Date, time.UTC)
		if endRaw != nil && endRaw.Date != "" {
			end, _ = time.ParseInLocation(allDayLayout, endRaw.Date, time.UTC)
			// The provider's all-day end date is exclusive.
			end = end.AddDate(0, 0, -1)
		}
		if end.Before(start) {
			end = start
		}
		// All-day dates are civil dates; keys must not shift with a zone.
		loc = time.UTC
		return start, end, allDay, loc
	}

	if startRaw != nil && startRaw.DateTime != "" {
		start, _ = time.Parse(time.RFC3339, startRaw.DateTime)
	}
	if endRaw != nil && endRaw.DateTime != "" {
		end, _ = time.Parse(time.RFC3339, endRaw.DateTime)
	}
	if end.Before(start) {
		end = start
	}
	if !hasNamedZone(ev) && !start.IsZero() {
		// No configured zone; fall back to the offset carried by the
		// dateTime itself.
		loc = start.Location()
	}
	return start, end, allDay, loc
}

func hasNamedZone(ev *calendar.Event) bool {
	if ev.Start != nil && ev.Start.TimeZone != "" {
		return true
	}
	return ev.End != nil && ev.End.TimeZone != ""
}

// eventLocation resolves the zone the provider configured for the
// event, falling back to UTC.
func eventLocation(ev *calendar.Event) *time.Location {
	var name string
	if ev.Start != nil && ev.Start.TimeZone != "" {
		name = ev.Start.TimeZone
	} else if ev.End != nil && ev.End.TimeZone != "" {
		name = ev.End.TimeZone
	}
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}
