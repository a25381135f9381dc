package firerest

import (
	"github.com/nendocal/calsync/internal/core/domain"
)

// integrationFields encodes an IntegrationRecord as wire fields.
func integrationFields(record *domain.IntegrationRecord) map[string]Value {
	tokens := make(map[string]Value, len(record.SyncTokens))
	for id, cursor := range record.SyncTokens {
		tokens[id] = String(cursor)
	}

	calendars := make([]Value, len(record.CalendarList))
	for i, entry := range record.CalendarList {
		calendars[i] = Map(map[string]Value{
			"id":              String(entry.ID),
			"summary":         String(entry.Summary),
			"primary":         Bool(entry.Primary),
			"accessRole":      String(entry.AccessRole),
			"backgroundColor": String(entry.BackgroundColor),
			"foregroundColor": String(entry.ForegroundColor),
			"selected":        Bool(entry.Selected),
		})
	}

	return map[string]Value{
		"userId":         String(record.UserID),
		"accessToken":    String(record.AccessToken),
		"refreshToken":   String(record.RefreshToken),
		"tokenType":      String(record.TokenType),
		"scope":          String(record.Scope),
		"expiresAt":      Timestamp(record.ExpiresAt),
		"syncTokens":     Map(tokens),
		"calendarList":   Array(calendars),
		"lastSyncedAt":   Timestamp(record.LastSyncedAt),
		"lastSyncStatus": String(string(record.LastSyncStatus)),
		"lastSyncError":  String(record.LastSyncError),
		"updatedAt":      Timestamp(record.UpdatedAt),
	}
}

// decodeIntegration rebuilds an IntegrationRecord from wire fields.
// Unknown or mistyped fields decode as their zero values.
func decodeIntegration(fields map[string]Value) *domain.IntegrationRecord {
	record := &domain.IntegrationRecord{
		UserID:         fields["userId"].StringOr(),
		AccessToken:    fields["accessToken"].StringOr(),
		RefreshToken:   fields["refreshToken"].StringOr(),
		TokenType:      fields["tokenType"].StringOr(),
		Scope:          fields["scope"].StringOr(),
		ExpiresAt:      fields["expiresAt"].TimeOr(),
		LastSyncedAt:   fields["lastSyncedAt"].TimeOr(),
		LastSyncStatus: domain.SyncStatus(fields["lastSyncStatus"].StringOr()),
		LastSyncError:  fields["lastSyncError"].StringOr(),
		UpdatedAt:      fields["updatedAt"].TimeOr(),
	}

	if tokens := fields["syncTokens"]; tokens.Kind == KindMap && len(tokens.Map) > 0 {
		record.SyncTokens = make(map[string]string, len(tokens.Map))
		for id, v := range tokens.Map {
			record.SyncTokens[id] = v.StringOr()
		}
	}

	if list := fields["calendarList"]; list.Kind == KindArray {
		record.CalendarList = make([]domain.CalendarListEntry, 0, len(list.Array))
		for _, v := range list.Array {
			if v.Kind != KindMap {
				continue
			}
			record.CalendarList = append(record.CalendarList, domain.CalendarListEntry{
				ID:              v.Map["id"].StringOr(),
				Summary:         v.Map["summary"].StringOr(),
				Primary:         v.Map["primary"].BoolOr(),
				AccessRole:      v.Map["accessRole"].StringOr(),
				BackgroundColor: v.Map["backgroundColor"].StringOr(),
				ForegroundColor: v.Map["foregroundColor"].StringOr(),
				Selected:        v.Map["selected"].BoolOr(),
			})
		}
	}

	return record
}

// eventFields encodes an EventRecord as wire fields.
func eventFields(ev *domain.EventRecord) map[string]Value {
	return map[string]Value{
		"uid":            String(ev.UID),
		"calendarId":     String(ev.CalendarID),
		"eventId":        String(ev.EventID),
		"summary":        String(ev.Summary),
		"description":    String(ev.Description),
		"location":       String(ev.Location),
		"startDateKey":   String(ev.StartDateKey),
		"endDateKey":     String(ev.EndDateKey),
		"startTime":      Timestamp(ev.StartTime),
		"endTime":        Timestamp(ev.EndTime),
		"allDay":         Bool(ev.AllDay),
		"dayKeys":        Strings(ev.DayKeys),
		"monthKeys":      Strings(ev.MonthKeys),
		"fiscalYearKeys": Ints(ev.FiscalYearKeys),
		"status":         String(ev.Status),
		"startRaw":       rawTimeValue(ev.StartRaw),
		"endRaw":         rawTimeValue(ev.EndRaw),
		"organizer":      String(ev.Organizer),
		"colorId":        String(ev.ColorID),
		"createdAt":      Timestamp(ev.CreatedAt),
		"updatedAt":      Timestamp(ev.UpdatedAt),
	}
}

func rawTimeValue(raw domain.RawEventTime) Value {
	return Map(map[string]Value{
		"date":     String(raw.Date),
		"dateTime": String(raw.DateTime),
		"timeZone": String(raw.TimeZone),
	})
}
