// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrVersionConflict is returned when a profile write loses an optimistic
	// concurrency race.
	ErrVersionConflict = errors.New("store: version conflict")

	// ErrUnavailable is returned when the backend cannot serve requests.
	ErrUnavailable = errors.New("store: unavailable")

	// ErrInvalidKey is returned for identifiers that cannot be encoded as keys.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
)

//nolint:gochecknoinits // registers low-cardinality error labels
func init() {
	metrics.RegisterErrorClass(ErrNotFound, "not_found")
	metrics.RegisterErrorClass(ErrVersionConflict, "conflict")
	metrics.RegisterErrorClass(ErrUnavailable, "unavailable")
	metrics.RegisterErrorClass(ErrInvalidKey, "invalid_key")
	metrics.RegisterErrorClass(ErrClosed, "closed")
}

// ProfileStore persists persona profiles with optimistic concurrency.
type ProfileStore interface {
	// GetProfile returns the stored profile or ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*models.PersonaProfile, error)

	// PutProfile stores p if the stored version equals expected (0 = absent).
	// On success p.Version is set to expected+1.
	PutProfile(ctx context.Context, p *models.PersonaProfile, expected int64) error
}

// EventStore is the append-only event log.
type EventStore interface {
	AppendMoodSelection(ctx context.Context, sel *models.MoodSelection) error
	MoodSelections(ctx context.Context, userID string, since time.Time) ([]models.MoodSelection, error)

	AppendUserAction(ctx context.Context, action *models.UserAction) error
	UserActions(ctx context.Context, userID string, since time.Time) ([]models.UserAction, error)

	AppendRecommendationEvent(ctx context.Context, event *models.RecommendationEvent) error
	RecommendationEvents(ctx context.Context, userID string, since time.Time) ([]models.RecommendationEvent, error)

	// PutPrediction inserts or replaces a prediction.
	PutPrediction(ctx context.Context, p *models.MoodPrediction) error
	GetPrediction(ctx context.Context, userID string, id uuid.UUID) (*models.MoodPrediction, error)
	Predictions(ctx context.Context, userID string, since time.Time) ([]models.MoodPrediction, error)
}

// ViewStore holds recomputable materialized views and health snapshots.
type ViewStore interface {
	PutMoodPatterns(ctx context.Context, userID string, patterns []models.MoodPattern) error
	MoodPatterns(ctx context.Context, userID string) ([]models.MoodPattern, error)

	PutLearningMetrics(ctx context.Context, m *models.LearningMetrics) error
	LearningMetrics(ctx context.Context, userID string) (*models.LearningMetrics, error)

	PutHealthSnapshot(ctx context.Context, s *models.HealthSnapshot) error
	// LatestHealthSnapshot returns the most recent snapshot or ErrNotFound.
	LatestHealthSnapshot(ctx context.Context) (*models.HealthSnapshot, error)
}

// Store is the full persistence collaborator.
type Store interface {
	ProfileStore
	EventStore
	ViewStore

	// DeleteUser erases everything stored for userID.
	DeleteUser(ctx context.Context, userID string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Backend names.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendDuckDB = "duckdb"
	BackendSQLite = "sqlite"
)

// Config selects and tunes a backend.
type Config struct {
	// Backend is one of memory, badger, duckdb, sqlite.
	Backend string `koanf:"backend" validate:"oneof=memory badger duckdb sqlite"`

	// Path is the badger directory or the SQL database file.
	// Empty means in-memory for badger, duckdb and sqlite.
	Path string `koanf:"path"`

	// Timeout bounds every call made through Resilient.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// Breaker configures the circuit breaker.
	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig holds gobreaker settings.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"gte=1"`

	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration `koanf:"open_timeout" validate:"gt=0"`

	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32 `koanf:"half_open_requests" validate:"gte=1"`

	// Interval clears the closed-state counts periodically. 0 never clears.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Timeout: 2 * time.Second,
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
			Interval:         time.Minute,
		},
	}
}

// Open creates the configured backend. The result is not wrapped in Resilient.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendBadger:
		return OpenBadger(cfg.Path)
	case BackendDuckDB, BackendSQLite:
		return OpenSQL(cfg.Backend, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func checkUserID(userID string) error {
	if userID == "" || strings.Contains(userID, ":") {
		return fmt.Errorf("%w: user id %q", ErrInvalidKey, userID)
	}
	return nil
}

// timeOrder sorts records by creation time then ID.
func timeOrder[T any](records []T, at func(*T) time.Time, id func(*T) uuid.UUID) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := at(&records[i]), at(&records[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return id(&records[i]).String() < id(&records[j]).String()
	})
}

func sortSelections(s []models.MoodSelection) {
	timeOrder(s, func(r *models.MoodSelection) time.Time { return r.CreatedAt },
		func(r *models.MoodSelection) uuid.UUID { return r.ID })
}

func sortActions(s []models.UserAction) {
	timeOrder(s, func(r *models.UserAction) time.Time { return r.CreatedAt },
		func(r *models.UserAction) uuid.UUID { return r.ID })
}

func sortRecommendations(s []models.RecommendationEvent) {
	timeOrder(s, func(r *models.RecommendationEvent) time.Time { return r.CreatedAt },
		func(r *models.RecommendationEvent) uuid.UUID { return r.ID })
}

func sortPredictions(s []models.MoodPrediction) {
	timeOrder(s, func(r *models.MoodPrediction) time.Time { return r.CreatedAt },
		func(r *models.MoodPrediction) uuid.UUID { return r.ID })
}

func sortPatterns(p []models.MoodPattern) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].Mood != p[j].Mood {
			return p[i].Mood < p[j].Mood
		}
		return p[i].TimeOfDay < p[j].TimeOfDay
	})
}

// since reports whether at is not before the lower bound. A zero bound admits everything.
func since(at, bound time.Time) bool {
	return bound.IsZero() || !at.Before(bound)
}
