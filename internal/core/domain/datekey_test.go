package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDayKeys_CrossesMidnight tests that an event crossing midnight
// covers both local dates.
func TestDayKeys_CrossesMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start := time.Date(2024, 4, 30, 23, 0, 0, 0, loc)
	end := time.Date(2024, 5, 1, 1, 0, 0, 0, loc)

	keys := DayKeys(start, end, loc)

	assert.Equal(t, []string{"2024-04-30", "2024-05-01"}, keys)
}

// TestDayKeys_SingleDay tests a same-day event.
func TestDayKeys_SingleDay(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 6, 15, 9, 0, 0, 0, loc)
	end := time.Date(2024, 6, 15, 10, 0, 0, 0, loc)

	assert.Equal(t, []string{"2024-06-15"}, DayKeys(start, end, loc))
}

// TestDayKeys_EvaluatedInEventZone tests that keys follow the supplied
// location, not the instant's own location.
func TestDayKeys_EvaluatedInEventZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-06-01T23:00Z is already 2024-06-02 in Tokyo.
	start := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	assert.Equal(t, []string{"2024-06-02"}, DayKeys(start, end, tokyo))
}

// TestDayKeys_NoGapsAcrossSpan tests multi-day coverage.
func TestDayKeys_NoGapsAcrossSpan(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 2, 27, 12, 0, 0, 0, loc)
	end := time.Date(2024, 3, 2, 8, 0, 0, 0, loc)

	keys := DayKeys(start, end, loc)

	// 2024 is a leap year, so Feb 29 must be present.
	assert.Equal(t, []string{
		"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02",
	}, keys)
}

func TestMonthKeys_SpansYearBoundary(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 11, 20, 0, 0, 0, 0, loc)
	end := time.Date(2025, 1, 5, 0, 0, 0, 0, loc)

	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01"}, MonthKeys(start, end, loc))
}

// TestFiscalYear_AprilStart tests the fiscal year boundary.
func TestFiscalYear_AprilStart(t *testing.T) {
	loc := time.UTC

	assert.Equal(t, 2023, FiscalYear(time.Date(2024, 3, 31, 23, 59, 0, 0, loc)))
	assert.Equal(t, 2024, FiscalYear(time.Date(2024, 4, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, 2024, FiscalYear(time.Date(2025, 1, 15, 0, 0, 0, 0, loc)))
}

// TestFiscalYears_MidnightCrossingStaysInOneYear tests that an event
// spanning Apr 30 23:00 to May 1 01:00 touches only fiscal year 2024.
func TestFiscalYears_MidnightCrossingStaysInOneYear(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 4, 30, 23, 0, 0, 0, loc)
	end := time.Date(2024, 5, 1, 1, 0, 0, 0, loc)

	assert.Equal(t, []int{2024}, FiscalYears(start, end, loc))
}

func TestFiscalYears_SpanAcrossBoundary(t *testing.T) {
	loc := time.UTC
	start := time.Date(2024, 3, 30, 0, 0, 0, 0, loc)
	end := time.Date(2024, 4, 2, 0, 0, 0, 0, loc)

	assert.Equal(t, []int{2023, 2024}, FiscalYears(start, end, loc))
}
