// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/models"
)

// Resilient wraps a Store with a per-call timeout and a circuit breaker.
// Breaker rejections and timeouts are reported as ErrUnavailable; expected
// outcomes (ErrNotFound, ErrVersionConflict, ErrInvalidKey) do not count as
// failures.
type Resilient struct {
	inner   Store
	backend string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
}

var _ Store = (*Resilient)(nil)

// NewResilient wraps inner. backend labels metrics.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewResilient(inner Store, backend string, cfg Config, logger zerolog.Logger) *Resilient {
	r := &Resilient{
		inner:   inner,
		backend: backend,
		timeout: cfg.Timeout,
		logger:  logger.With().Str("component", "store").Str("backend", backend).Logger(),
	}

	name := "store-" + backend
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.Breaker.HalfOpenRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrVersionConflict) ||
				errors.Is(err, ErrInvalidKey) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			r.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	r.cb = gobreaker.NewCircuitBreaker[any](settings)
	metrics.RecordBreakerTransition(name, "", gobreaker.StateClosed.String())
	return r
}

// BreakerState returns "closed", "half-open" or "open".
func (r *Resilient) BreakerState() string {
	return r.cb.State().String()
}

// Inner returns the wrapped store.
func (r *Resilient) Inner() Store { return r.inner }

func call[T any](ctx context.Context, r *Resilient, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.cb.Execute(func() (any, error) {
		v, err := fn(ctx)
		if err == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ctx.Err()
		}
		return v, err
	})
	err = r.classify(op, err)
	metrics.RecordStoreOperation(r.backend, op, time.Since(start), err)
	if err != nil {
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func exec(ctx context.Context, r *Resilient, op string, fn func(context.Context) error) error {
	_, err := call(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (r *Resilient) classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn().Str("operation", op).Dur("timeout", r.timeout).Msg("store call timed out")
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrInvalidKey), errors.Is(err, ErrUnavailable), errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
}

func (r *Resilient) GetProfile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	return call(ctx, r, "get_profile", func(ctx context.Context) (*models.PersonaProfile, error) {
		return r.inner.GetProfile(ctx, userID)
	})
}

func (r *Resilient) PutProfile(ctx context.Context, p *models.PersonaProfile, expected int64) error {
	return exec(ctx, r, "put_profile", func(ctx context.Context) error {
		return r.inner.PutProfile(ctx, p, expected)
	})
}

func (r *Resilient) AppendMoodSelection(ctx context.Context, sel *models.MoodSelection) error {
	return exec(ctx, r, "append_mood_selection", func(ctx context.Context) error {
		return r.inner.AppendMoodSelection(ctx, sel)
	})
}

func (r *Resilient) MoodSelections(ctx context.Context, userID string, from time.Time) ([]models.MoodSelection, error) {
	return call(ctx, r, "mood_selections", func(ctx context.Context) ([]models.MoodSelection, error) {
		return r.inner.MoodSelections(ctx, userID, from)
	})
}

func (r *Resilient) AppendUserAction(ctx context.Context, action *models.UserAction) error {
	return exec(ctx, r, "append_user_action", func(ctx context.Context) error {
		return r.inner.AppendUserAction(ctx, action)
	})
}

func (r *Resilient) UserActions(ctx context.Context, userID string, from time.Time) ([]models.UserAction, error) {
	return call(ctx, r, "user_actions", func(ctx context.Context) ([]models.UserAction, error) {
		return r.inner.UserActions(ctx, userID, from)
	})
}

func (r *Resilient) AppendRecommendationEvent(ctx context.Context, event *models.RecommendationEvent) error {
	return exec(ctx, r, "append_recommendation", func(ctx context.Context) error {
		return r.inner.AppendRecommendationEvent(ctx, event)
	})
}

func (r *Resilient) RecommendationEvents(ctx context.Context, userID string, from time.Time) ([]models.RecommendationEvent, error) {
	return call(ctx, r, "recommendations", func(ctx context.Context) ([]models.RecommendationEvent, error) {
		return r.inner.RecommendationEvents(ctx, userID, from)
	})
}

func (r *Resilient) PutPrediction(ctx context.Context, p *models.MoodPrediction) error {
	return exec(ctx, r, "put_prediction", func(ctx context.Context) error {
		return r.inner.PutPrediction(ctx, p)
	})
}

func (r *Resilient) GetPrediction(ctx context.Context, userID string, id uuid.UUID) (*models.MoodPrediction, error) {
	return call(ctx, r, "get_prediction", func(ctx context.Context) (*models.MoodPrediction, error) {
		return r.inner.GetPrediction(ctx, userID, id)
	})
}

func (r *Resilient) Predictions(ctx context.Context, userID string, from time.Time) ([]models.MoodPrediction, error) {
	return call(ctx, r, "predictions", func(ctx context.Context) ([]models.MoodPrediction, error) {
		return r.inner.Predictions(ctx, userID, from)
	})
}

func (r *Resilient) PutMoodPatterns(ctx context.Context, userID string, patterns []models.MoodPattern) error {
	return exec(ctx, r, "put_mood_patterns", func(ctx context.Context) error {
		return r.inner.PutMoodPatterns(ctx, userID, patterns)
	})
}

func (r *Resilient) MoodPatterns(ctx context.Context, userID string) ([]models.MoodPattern, error) {
	return call(ctx, r, "mood_patterns", func(ctx context.Context) ([]models.MoodPattern, error) {
		return r.inner.MoodPatterns(ctx, userID)
	})
}

func (r *Resilient) PutLearningMetrics(ctx context.Context, m *models.LearningMetrics) error {
	return exec(ctx, r, "put_learning_metrics", func(ctx context.Context) error {
		return r.inner.PutLearningMetrics(ctx, m)
	})
}

func (r *Resilient) LearningMetrics(ctx context.Context, userID string) (*models.LearningMetrics, error) {
	return call(ctx, r, "learning_metrics", func(ctx context.Context) (*models.LearningMetrics, error) {
		return r.inner.LearningMetrics(ctx, userID)
	})
}

func (r *Resilient) PutHealthSnapshot(ctx context.Context, s *models.HealthSnapshot) error {
	return exec(ctx, r, "put_health_snapshot", func(ctx context.Context) error {
		return r.inner.PutHealthSnapshot(ctx, s)
	})
}

func (r *Resilient) LatestHealthSnapshot(ctx context.Context) (*models.HealthSnapshot, error) {
	return call(ctx, r, "latest_health_snapshot", func(ctx context.Context) (*models.HealthSnapshot, error) {
		return r.inner.LatestHealthSnapshot(ctx)
	})
}

func (r *Resilient) DeleteUser(ctx context.Context, userID string) error {
	return exec(ctx, r, "delete_user", func(ctx context.Context) error {
		return r.inner.DeleteUser(ctx, userID)
	})
}

// Ping goes through the breaker so that health checks see an open breaker as
// a disconnected store.
func (r *Resilient) Ping(ctx context.Context) error {
	return exec(ctx, r, "ping", r.inner.Ping)
}

func (r *Resilient) Close() error {
	return r.inner.Close()
}
