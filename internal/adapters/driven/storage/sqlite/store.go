package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nendocal/calsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/nendocal/calsync/internal/core/domain"
	"github.com/nendocal/calsync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SyncStore = (*Store)(nil)

// Store is a SQLite-backed SyncStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.calsync/data/sync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".calsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sync.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending up migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Integrations ====================

// LoadIntegration retrieves a user's integration record.
func (s *Store) LoadIntegration(ctx context.Context, userID string) (*domain.IntegrationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, token_type, scope,
		       expires_at, sync_tokens, calendar_list,
		       last_synced_at, last_sync_status, last_sync_error, updated_at
		FROM integrations WHERE user_id = ?
	`, userID)

	var record domain.IntegrationRecord
	var expiresAt, lastSyncedAt sql.NullTime
	var syncTokens, calendarList string
	var status string

	err := row.Scan(
		&record.UserID, &record.AccessToken, &record.RefreshToken,
		&record.TokenType, &record.Scope, &expiresAt,
		&syncTokens, &calendarList,
		&lastSyncedAt, &status, &record.LastSyncError, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning integration: %w", err)
	}

	if expiresAt.Valid {
		record.ExpiresAt = expiresAt.Time
	}
	if lastSyncedAt.Valid {
		record.LastSyncedAt = lastSyncedAt.Time
	}
	record.LastSyncStatus = domain.SyncStatus(status)

	if err := json.Unmarshal([]byte(syncTokens), &record.SyncTokens); err != nil {
		return nil, fmt.Errorf("decoding sync tokens: %w", err)
	}
	if err := json.Unmarshal([]byte(calendarList), &record.CalendarList); err != nil {
		return nil, fmt.Errorf("decoding calendar list: %w", err)
	}

	return &record, nil
}

// EnsureIntegration creates an empty record if none exists.
func (s *Store) EnsureIntegration(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrations (user_id, updated_at)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensuring integration: %w", err)
	}
	return nil
}

// UpdateIntegration applies a partial update to the record.
func (s *Store) UpdateIntegration(ctx context.Context, userID string, patch domain.IntegrationPatch) error {
	record, err := s.LoadIntegration(ctx, userID)
	if err != nil {
		return err
	}
	patch.Apply(record, time.Now().UTC())

	syncTokens, err := json.Marshal(record.SyncTokens)
	if err != nil {
		return fmt.Errorf("encoding sync tokens: %w", err)
	}
	if record.SyncTokens == nil {
		syncTokens = []byte("{}")
	}
	calendarList, err := json.Marshal(record.CalendarList)
	if err != nil {
		return fmt.Errorf("encoding calendar list: %w", err)
	}
	if record.CalendarList == nil {
		calendarList = []byte("[]")
	}

	status := record.LastSyncStatus
	if status == "" {
		status = domain.SyncStatusIdle
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE integrations SET
			access_token = ?, refresh_token = ?, token_type = ?, scope = ?,
			expires_at = ?, sync_tokens = ?, calendar_list = ?,
			last_synced_at = ?, last_sync_status = ?, last_sync_error = ?,
			updated_at = ?
		WHERE user_id = ?
	`,
		record.AccessToken, record.RefreshToken, record.TokenType, record.Scope,
		nullTime(record.ExpiresAt), string(syncTokens), string(calendarList),
		nullTime(record.LastSyncedAt), string(status), record.LastSyncError,
		record.UpdatedAt, userID,
	)
	if err != nil {
		return fmt.Errorf("updating integration: %w", err)
	}
	return nil
}

// DeleteIntegration removes the record entirely.
func (s *Store) DeleteIntegration(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM integrations WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("deleting integration: %w", err)
	}
	return nil
}

// ==================== Events ====================

// UpsertEvents writes event records keyed by their UID, committing in
// chunks of at most driven.EventBatchLimit per transaction.
func (s *Store) UpsertEvents(ctx context.Context, userID string, events []domain.EventRecord) error {
	for start := 0; start < len(events); start += driven.EventBatchLimit {
		end := start + driven.EventBatchLimit
		if end > len(events) {
			end = len(events)
		}
		if err := s.upsertChunk(ctx, userID, events[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertChunk(ctx context.Context, userID string, events []domain.EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (
			user_id, uid, calendar_id, event_id, summary, description, location,
			start_date_key, end_date_key, start_time, end_time, all_day,
			day_keys, month_keys, fiscal_year_keys, status,
			start_raw, end_raw, organizer, color_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, uid) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			event_id = excluded.event_id,
			summary = excluded.summary,
			description = excluded.description,
			location = excluded.location,
			start_date_key = excluded.start_date_key,
			end_date_key = excluded.end_date_key,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			all_day = excluded.all_day,
			day_keys = excluded.day_keys,
			month_keys = excluded.month_keys,
			fiscal_year_keys = excluded.fiscal_year_keys,
			status = excluded.status,
			start_raw = excluded.start_raw,
			end_raw = excluded.end_raw,
			organizer = excluded.organizer,
			color_id = excluded.color_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		dayKeys, err := json.Marshal(ev.DayKeys)
		if err != nil {
			return fmt.Errorf("encoding day keys: %w", err)
		}
		monthKeys, err := json.Marshal(ev.MonthKeys)
		if err != nil {
			return fmt.Errorf("encoding month keys: %w", err)
		}
		fiscalYears, err := json.Marshal(ev.FiscalYearKeys)
		if err != nil {
			return fmt.Errorf("encoding fiscal year keys: %w", err)
		}
		startRaw, err := json.Marshal(ev.StartRaw)
		if err != nil {
			return fmt.Errorf("encoding start raw: %w", err)
		}
		endRaw, err := json.Marshal(ev.EndRaw)
		if err != nil {
			return fmt.Errorf("encoding end raw: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			userID, ev.UID, ev.CalendarID, ev.EventID, ev.Summary, ev.Description, ev.Location,
			ev.StartDateKey, ev.EndDateKey, nullTime(ev.StartTime), nullTime(ev.EndTime), ev.AllDay,
			string(dayKeys), string(monthKeys), string(fiscalYears), ev.Status,
			string(startRaw), string(endRaw), ev.Organizer, ev.ColorID,
			nullTime(ev.CreatedAt), nullTime(ev.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("upserting event %s: %w", ev.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert chunk: %w", err)
	}
	return nil
}

// RemoveEvents deletes event records by UID, committing in chunks of at
// most driven.EventBatchLimit per transaction. Missing UIDs are ignored.
func (s *Store) RemoveEvents(ctx context.Context, userID string, uids []string) error {
	for start := 0; start < len(uids); start += driven.EventBatchLimit {
		end := start + driven.EventBatchLimit
		if end > len(uids) {
			end = len(uids)
		}
		if err := s.removeChunk(ctx, userID, uids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) removeChunk(ctx context.Context, userID string, uids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM events WHERE user_id = ? AND uid = ?")
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	for _, uid := range uids {
		if _, err := stmt.ExecContext(ctx, userID, uid); err != nil {
			return fmt.Errorf("deleting event %s: %w", uid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete chunk: %w", err)
	}
	return nil
}

// ListEventUIDsByCalendar returns the UIDs of all stored events for one calendar.
func (s *Store) ListEventUIDsByCalendar(ctx context.Context, userID, calendarID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid FROM events WHERE user_id = ? AND calendar_id = ?
	`, userID, calendarID)
	if err != nil {
		return nil, fmt.Errorf("listing event uids: %w", err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scanning uid: %w", err)
		}
		uids = append(uids, uid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating uids: %w", err)
	}
	return uids, nil
}

// nullTime maps a zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
