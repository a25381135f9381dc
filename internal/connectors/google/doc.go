// Package google implements the CalendarProvider port against the
// Google Calendar API: token grants, the calendar list, and paginated
// (optionally sync-token-driven) event fetches, with client-side rate
// limiting and classification of API errors.
package google
