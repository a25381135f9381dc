package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func TestMapEvent_TimedEvent(t *testing.T) {
	ev := &calendar.Event{
		Id:      "ev1",
		Summary: "Staff meeting",
		Status:  "confirmed",
		Start: &calendar.EventDateTime{
			DateTime: "2024-04-30T23:00:00+09:00",
			TimeZone: "Asia/Tokyo",
		},
		End: &calendar.EventDateTime{
			DateTime: "2024-05-01T01:00:00+09:00",
			TimeZone: "Asia/Tokyo",
		},
		Organizer: &calendar.EventOrganizer{Email: "admin@school.example"},
		Created:   "2024-04-01T00:00:00Z",
		Updated:   "2024-04-02T00:00:00Z",
	}

	record := MapEvent("cal1", ev)

	assert.Equal(t, "cal1__ev1", record.UID)
	assert.Equal(t, "cal1", record.CalendarID)
	assert.Equal(t, "ev1", record.EventID)
	assert.False(t, record.AllDay)
	// Crossing midnight in the event's zone covers both dates.
	assert.Equal(t, []string{"2024-04-30", "2024-05-01"}, record.DayKeys)
	assert.Equal(t, []string{"2024-04", "2024-05"}, record.MonthKeys)
	// Both days fall in the April-start fiscal year 2024.
	assert.Equal(t, []int{2024}, record.FiscalYearKeys)
	assert.Equal(t, "2024-04-30", record.StartDateKey)
	assert.Equal(t, "2024-05-01", record.EndDateKey)
	assert.Equal(t, "admin@school.example", record.Organizer)
	assert.Equal(t, "Asia/Tokyo", record.StartRaw.TimeZone)
	assert.Equal(t, "2024-04-30T23:00:00+09:00", record.StartRaw.DateTime)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), record.CreatedAt)
}

func TestMapEvent_AllDay(t *testing.T) {
	ev := &calendar.Event{
		Id: "ev2",
		Start: &calendar.EventDateTime{
			Date: "2024-06-01",
		},
		End: &calendar.EventDateTime{
			Date: "2024-06-03", // exclusive: event covers Jun 1 and Jun 2
		},
	}

	record := MapEvent("cal1", ev)

	assert.True(t, record.AllDay)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), record.StartTime)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), record.EndTime)
	assert.Equal(t, []string{"2024-06-01", "2024-06-02"}, record.DayKeys)
	assert.Equal(t, "2024-06-01", record.StartRaw.Date)
	assert.Equal(t, "2024-06-03", record.EndRaw.Date, "raw end keeps the provider's exclusive date")
}

func TestMapEvent_DateTimeWinsOverDate(t *testing.T) {
	ev := &calendar.Event{
		Id: "ev3",
		Start: &calendar.EventDateTime{
			Date:     "2024-06-01",
			DateTime: "2024-06-01T10:00:00Z",
		},
		End: &calendar.EventDateTime{
			DateTime: "2024-06-01T11:00:00Z",
		},
	}

	record := MapEvent("cal1", ev)

	assert.False(t, record.AllDay, "an event with dateTime is never all-day")
}

func TestMapEvent_SingleDayAllDay(t *testing.T) {
	ev := &calendar.Event{
		Id: "ev4",
		Start: &calendar.EventDateTime{
			Date: "2024-06-01",
		},
		End: &calendar.EventDateTime{
			Date: "2024-06-02",
		},
	}

	record := MapEvent("cal1", ev)

	assert.Equal(t, []string{"2024-06-01"}, record.DayKeys)
	assert.Equal(t, record.StartTime, record.EndTime)
}

func TestMapEvent_MissingIDGenerated(t *testing.T) {
	ev := &calendar.Event{
		Start: &calendar.EventDateTime{Date: "2024-06-01"},
		End:   &calendar.EventDateTime{Date: "2024-06-02"},
	}

	record := MapEvent("cal1", ev)

	require.NotEmpty(t, record.EventID)
	assert.Equal(t, "cal1__"+record.EventID, record.UID)
}

func TestMapEvent_FiscalYearBoundary(t *testing.T) {
	ev := &calendar.Event{
		Id: "ev5",
		Start: &calendar.EventDateTime{
			Date: "2024-03-30",
		},
		End: &calendar.EventDateTime{
			Date: "2024-04-03", // exclusive: covers Mar 30 .. Apr 2
		},
	}

	record := MapEvent("cal1", ev)

	assert.Equal(t, []int{2023, 2024}, record.FiscalYearKeys)
}
