// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/models"
)

// Event kinds stored in the events table.
const (
	kindSelection  = "selection"
	kindAction     = "action"
	kindRecommend  = "recommendation"
	kindPrediction = "prediction"

	viewPatterns = "mood_patterns"
	viewLearning = "learning_metrics"
)

// SQLStore implements Store on DuckDB or SQLite through database/sql.
// Rows carry the indexed columns plus a JSON body.
type SQLStore struct {
	db      *sql.DB
	backend string
	closed  atomic.Bool
}

// schema is valid for both DuckDB and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		version BIGINT NOT NULL,
		body TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user ON events (user_id, kind, created_at)`,
	`CREATE TABLE IF NOT EXISTS views (
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (user_id, kind)
	)`,
	`CREATE TABLE IF NOT EXISTS health_snapshots (
		id TEXT PRIMARY KEY,
		taken_at BIGINT NOT NULL,
		body TEXT NOT NULL
	)`,
}

const schemaVersion = 1

// OpenSQL opens a DuckDB or SQLite database at path and applies the schema.
// An empty path opens an in-memory database.
func OpenSQL(backend, path string) (*SQLStore, error) {
	var driver, dsn string
	switch backend {
	case BackendDuckDB:
		driver, dsn = "duckdb", path
	case BackendSQLite:
		driver, dsn = "sqlite", path
		if dsn == "" {
			dsn = ":memory:"
		}
	default:
		return nil, fmt.Errorf("unsupported SQL backend %q", backend)
	}

	if dir := filepath.Dir(path); path != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	if backend == BackendSQLite {
		// every :memory: connection is a separate database
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, backend: backend}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().
		Str("backend", backend).
		Str("path", path).
		Msg("SQL store opened")
	return s, nil
}

// Backend returns the backend name.
func (s *SQLStore) Backend() string { return s.backend }

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		schemaVersion, "initial_schema")
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

func (s *SQLStore) begin(ctx context.Context, userID string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID != "" {
		return checkUserID(userID)
	}
	return nil
}

func (s *SQLStore) GetProfile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	if err := s.begin(ctx, userID); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM profiles WHERE user_id = ?`, userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	var p models.PersonaProfile
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	p.Normalize()
	return &p, nil
}

func (s *SQLStore) PutProfile(ctx context.Context, p *models.PersonaProfile, expected int64) error {
	if err := s.begin(ctx, p.UserID); err != nil {
		return err
	}
	next := p.Clone()
	next.Version = expected + 1
	body, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	var res sql.Result
	if expected == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO profiles (user_id, version, body) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			p.UserID, next.Version, string(body))
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE profiles SET version = ?, body = ? WHERE user_id = ? AND version = ?`,
			next.Version, string(body), p.UserID, expected)
	}
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: user %s, expected version %d", ErrVersionConflict, p.UserID, expected)
	}
	p.Version = next.Version
	return nil
}

func (s *SQLStore) appendEvent(ctx context.Context, kind string, id uuid.UUID, userID string, at time.Time, rec any) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (kind, id, user_id, created_at, body) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		kind, id.String(), userID, at.UnixNano(), string(body))
	if err != nil {
		return fmt.Errorf("append %s: %w", kind, err)
	}
	return nil
}

func (s *SQLStore) AppendMoodSelection(ctx context.Context, sel *models.MoodSelection) error {
	return s.appendEvent(ctx, kindSelection, sel.ID, sel.UserID, sel.CreatedAt, sel)
}

func (s *SQLStore) MoodSelections(ctx context.Context, userID string, from time.Time) ([]models.MoodSelection, error) {
	out, err := listEvents[models.MoodSelection](ctx, s, kindSelection, userID, from)
	sortSelections(out)
	return out, err
}

func (s *SQLStore) AppendUserAction(ctx context.Context, action *models.UserAction) error {
	return s.appendEvent(ctx, kindAction, action.ID, action.UserID, action.CreatedAt, action)
}

func (s *SQLStore) UserActions(ctx context.Context, userID string, from time.Time) ([]models.UserAction, error) {
	out, err := listEvents[models.UserAction](ctx, s, kindAction, userID, from)
	sortActions(out)
	return out, err
}

func (s *SQLStore) AppendRecommendationEvent(ctx context.Context, event *models.RecommendationEvent) error {
	return s.appendEvent(ctx, kindRecommend, event.ID, event.UserID, event.CreatedAt, event)
}

func (s *SQLStore) RecommendationEvents(ctx context.Context, userID string, from time.Time) ([]models.RecommendationEvent, error) {
	out, err := listEvents[models.RecommendationEvent](ctx, s, kindRecommend, userID, from)
	sortRecommendations(out)
	return out, err
}

func (s *SQLStore) PutPrediction(ctx context.Context, p *models.MoodPrediction) error {
	if err := s.begin(ctx, p.UserID); err != nil {
		return err
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prediction: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (kind, id, user_id, created_at, body) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET body = excluded.body`,
		kindPrediction, p.ID.String(), p.UserID, p.CreatedAt.UnixNano(), string(body))
	if err != nil {
		return fmt.Errorf("put prediction: %w", err)
	}
	return nil
}

func (s *SQLStore) GetPrediction(ctx context.Context, userID string, id uuid.UUID) (*models.MoodPrediction, error) {
	if err := s.begin(ctx, userID); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM events WHERE kind = ? AND id = ? AND user_id = ?`,
		kindPrediction, id.String(), userID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query prediction: %w", err)
	}
	var p models.MoodPrediction
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("decode prediction: %w", err)
	}
	return &p, nil
}

func (s *SQLStore) Predictions(ctx context.Context, userID string, from time.Time) ([]models.MoodPrediction, error) {
	out, err := listEvents[models.MoodPrediction](ctx, s, kindPrediction, userID, from)
	sortPredictions(out)
	return out, err
}

func (s *SQLStore) putView(ctx context.Context, userID, kind string, rec any) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO views (user_id, kind, body) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, kind) DO UPDATE SET body = excluded.body`,
		userID, kind, string(body))
	if err != nil {
		return fmt.Errorf("put %s: %w", kind, err)
	}
	return nil
}

func (s *SQLStore) getView(ctx context.Context, userID, kind string, out any) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM views WHERE user_id = ? AND kind = ?`, userID, kind).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

func (s *SQLStore) PutMoodPatterns(ctx context.Context, userID string, patterns []models.MoodPattern) error {
	if patterns == nil {
		patterns = []models.MoodPattern{}
	}
	return s.putView(ctx, userID, viewPatterns, patterns)
}

func (s *SQLStore) MoodPatterns(ctx context.Context, userID string) ([]models.MoodPattern, error) {
	var out []models.MoodPattern
	if err := s.getView(ctx, userID, viewPatterns, &out); err != nil {
		return nil, err
	}
	sortPatterns(out)
	return out, nil
}

func (s *SQLStore) PutLearningMetrics(ctx context.Context, m *models.LearningMetrics) error {
	return s.putView(ctx, m.UserID, viewLearning, m)
}

func (s *SQLStore) LearningMetrics(ctx context.Context, userID string) (*models.LearningMetrics, error) {
	var out models.LearningMetrics
	if err := s.getView(ctx, userID, viewLearning, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SQLStore) PutHealthSnapshot(ctx context.Context, snap *models.HealthSnapshot) error {
	if err := s.begin(ctx, ""); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode health snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO health_snapshots (id, taken_at, body) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET body = excluded.body`,
		snap.ID.String(), snap.TakenAt.UnixNano(), string(body))
	if err != nil {
		return fmt.Errorf("put health snapshot: %w", err)
	}
	return nil
}

func (s *SQLStore) LatestHealthSnapshot(ctx context.Context) (*models.HealthSnapshot, error) {
	if err := s.begin(ctx, ""); err != nil {
		return nil, err
	}
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM health_snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query health snapshot: %w", err)
	}
	var snap models.HealthSnapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("decode health snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SQLStore) DeleteUser(ctx context.Context, userID string) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin erase: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM profiles WHERE user_id = ?`,
		`DELETE FROM events WHERE user_id = ?`,
		`DELETE FROM views WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("erase user: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.begin(ctx, ""); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close closes the database. It is safe to call more than once.
func (s *SQLStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func listEvents[T any](ctx context.Context, s *SQLStore, kind, userID string, from time.Time) ([]T, error) {
	if err := s.begin(ctx, userID); err != nil {
		return nil, err
	}
	query := `SELECT body FROM events WHERE kind = ? AND user_id = ? ORDER BY created_at, id`
	args := []any{kind, userID}
	if !from.IsZero() {
		query = `SELECT body FROM events WHERE kind = ? AND user_id = ? AND created_at >= ? ORDER BY created_at, id`
		args = append(args, from.UnixNano())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s events: %w", kind, err)
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s event: %w", kind, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", kind, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s events: %w", kind, err)
	}
	return out, nil
}
