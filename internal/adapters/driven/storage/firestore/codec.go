package firestore

import (
	"fmt"
	"strconv"
	"time"

	firestore "google.golang.org/api/firestore/v1"

	"github.com/nendocal/calsync/internal/core/domain"
)

// nullValueEnum is the only member of the NullValue enum.
const nullValueEnum = "NULL_VALUE"

func stringValue(s string) firestore.Value {
	return firestore.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

func boolValue(b bool) firestore.Value {
	return firestore.Value{BooleanValue: b, ForceSendFields: []string{"BooleanValue"}}
}

func intValue(i int64) firestore.Value {
	return firestore.Value{IntegerValue: i, ForceSendFields: []string{"IntegerValue"}}
}

func timestampValue(t time.Time) firestore.Value {
	if t.IsZero() {
		return firestore.Value{NullValue: nullValueEnum, ForceSendFields: []string{"NullValue"}}
	}
	return firestore.Value{TimestampValue: t.UTC().Format(time.RFC3339Nano)}
}

func stringArrayValue(items []string) firestore.Value {
	values := make([]*firestore.Value, len(items))
	for i, item := range items {
		v := stringValue(item)
		values[i] = &v
	}
	return firestore.Value{ArrayValue: &firestore.ArrayValue{Values: values}}
}

func intArrayValue(items []int) firestore.Value {
	values := make([]*firestore.Value, len(items))
	for i, item := range items {
		v := intValue(int64(item))
		values[i] = &v
	}
	return firestore.Value{ArrayValue: &firestore.ArrayValue{Values: values}}
}

func mapValue(fields map[string]firestore.Value) firestore.Value {
	return firestore.Value{MapValue: &firestore.MapValue{Fields: fields}}
}

// integrationFields encodes an IntegrationRecord as Firestore fields.
func integrationFields(record *domain.IntegrationRecord) map[string]firestore.Value {
	tokens := make(map[string]firestore.Value, len(record.SyncTokens))
	for id, cursor := range record.SyncTokens {
		tokens[id] = stringValue(cursor)
	}

	calendars := make([]*firestore.Value, len(record.CalendarList))
	for i, entry := range record.CalendarList {
		v := mapValue(map[string]firestore.Value{
			"id":              stringValue(entry.ID),
			"summary":         stringValue(entry.Summary),
			"primary":         boolValue(entry.Primary),
			"accessRole":      stringValue(entry.AccessRole),
			"backgroundColor": stringValue(entry.BackgroundColor),
			"foregroundColor": stringValue(entry.ForegroundColor),
			"selected":        boolValue(entry.Selected),
		})
		calendars[i] = &v
	}

	return map[string]firestore.Value{
		"userId":         stringValue(record.UserID),
		"accessToken":    stringValue(record.AccessToken),
		"refreshToken":   stringValue(record.RefreshToken),
		"tokenType":      stringValue(record.TokenType),
		"scope":          stringValue(record.Scope),
		"expiresAt":      timestampValue(record.ExpiresAt),
		"syncTokens":     mapValue(tokens),
		"calendarList":   {ArrayValue: &firestore.ArrayValue{Values: calendars}},
		"lastSyncedAt":   timestampValue(record.LastSyncedAt),
		"lastSyncStatus": stringValue(string(record.LastSyncStatus)),
		"lastSyncError":  stringValue(record.LastSyncError),
		"updatedAt":      timestampValue(record.UpdatedAt),
	}
}

// decodeIntegration rebuilds an IntegrationRecord from Firestore fields.
func decodeIntegration(fields map[string]firestore.Value) (*domain.IntegrationRecord, error) {
	record := &domain.IntegrationRecord{
		UserID:        fields["userId"].StringValue,
		AccessToken:   fields["accessToken"].StringValue,
		RefreshToken:  fields["refreshToken"].StringValue,
		TokenType:     fields["tokenType"].StringValue,
		Scope:         fields["scope"].StringValue,
		LastSyncError: fields["lastSyncError"].StringValue,
	}
	record.LastSyncStatus = domain.SyncStatus(fields["lastSyncStatus"].StringValue)

	var err error
	if record.ExpiresAt, err = decodeTimestamp(fields["expiresAt"]); err != nil {
		return nil, fmt.Errorf("expiresAt: %w", err)
	}
	if record.LastSyncedAt, err = decodeTimestamp(fields["lastSyncedAt"]); err != nil {
		return nil, fmt.Errorf("lastSyncedAt: %w", err)
	}
	if record.UpdatedAt, err = decodeTimestamp(fields["updatedAt"]); err != nil {
		return nil, fmt.Errorf("updatedAt: %w", err)
	}

	if mv := fields["syncTokens"].MapValue; mv != nil && len(mv.Fields) > 0 {
		record.SyncTokens = make(map[string]string, len(mv.Fields))
		for id, v := range mv.Fields {
			record.SyncTokens[id] = v.StringValue
		}
	}

	if av := fields["calendarList"].ArrayValue; av != nil {
		record.CalendarList = make([]domain.CalendarListEntry, 0, len(av.Values))
		for _, v := range av.Values {
			if v == nil || v.MapValue == nil {
				continue
			}
			entry := v.MapValue.Fields
			record.CalendarList = append(record.CalendarList, domain.CalendarListEntry{
				ID:              entry["id"].StringValue,
				Summary:         entry["summary"].StringValue,
				Primary:         entry["primary"].BooleanValue,
				AccessRole:      entry["accessRole"].StringValue,
				BackgroundColor: entry["backgroundColor"].StringValue,
				ForegroundColor: entry["foregroundColor"].StringValue,
				Selected:        entry["selected"].BooleanValue,
			})
		}
	}

	return record, nil
}

// eventFields encodes an EventRecord as Firestore fields.
func eventFields(ev *domain.EventRecord) map[string]firestore.Value {
	return map[string]firestore.Value{
		"uid":            stringValue(ev.UID),
		"calendarId":     stringValue(ev.CalendarID),
		"eventId":        stringValue(ev.EventID),
		"summary":        stringValue(ev.Summary),
		"description":    stringValue(ev.Description),
		"location":       stringValue(ev.Location),
		"startDateKey":   stringValue(ev.StartDateKey),
		"endDateKey":     stringValue(ev.EndDateKey),
		"startTime":      timestampValue(ev.StartTime),
		"endTime":        timestampValue(ev.EndTime),
		"allDay":         boolValue(ev.AllDay),
		"dayKeys":        stringArrayValue(ev.DayKeys),
		"monthKeys":      stringArrayValue(ev.MonthKeys),
		"fiscalYearKeys": intArrayValue(ev.FiscalYearKeys),
		"status":         stringValue(ev.Status),
		"startRaw":       rawTimeValue(ev.StartRaw),
		"endRaw":         rawTimeValue(ev.EndRaw),
		"organizer":      stringValue(ev.Organizer),
		"colorId":        stringValue(ev.ColorID),
		"createdAt":      timestampValue(ev.CreatedAt),
		"updatedAt":      timestampValue(ev.UpdatedAt),
	}
}

func rawTimeValue(raw domain.RawEventTime) firestore.Value {
	return mapValue(map[string]firestore.Value{
		"date":     stringValue(raw.Date),
		"dateTime": stringValue(raw.DateTime),
		"timeZone": stringValue(raw.TimeZone),
	})
}

func decodeTimestamp(v firestore.Value) (time.Time, error) {
	if v.TimestampValue == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.TimestampValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", strconv.Quote(v.TimestampValue), err)
	}
	return t, nil
}
