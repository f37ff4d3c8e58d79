// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package learning

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
)

var (
	// ErrDuplicateEvent is returned when an event has already been applied.
	ErrDuplicateEvent = errors.New("learning: event already applied")

	// ErrConflict is returned when concurrent writers kept winning the version
	// race. It is safe to retry.
	ErrConflict = errors.New("learning: concurrent update conflict")

	// ErrInvalidEvent is returned for events the loop cannot apply.
	ErrInvalidEvent = errors.New("learning: invalid event")
)

//nolint:gochecknoinits // registers low-cardinality error labels
func init() {
	metrics.RegisterErrorClass(ErrDuplicateEvent, "duplicate")
	metrics.RegisterErrorClass(ErrConflict, "conflict")
	metrics.RegisterErrorClass(ErrInvalidEvent, "invalid_event")
}

// ItemLookup resolves library items by ID for action updates.
type ItemLookup interface {
	LookupItem(ctx context.Context, userID, itemID string) (signal.ContextualItem, bool)
}

// Loop applies events to persisted profiles.
// It is safe for concurrent use.
type Loop struct {
	store  store.Store
	items  ItemLookup
	cfg    Config
	logger zerolog.Logger
	locks  []sync.Mutex
	now    func() time.Time
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// WithItemLookup sets the library used to resolve action item IDs.
func WithItemLookup(items ItemLookup) Option {
	return func(l *Loop) { l.items = items }
}

// NewLoop creates a learning loop over s.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoop(s store.Store, cfg Config, logger zerolog.Logger, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid learning config: %w", err)
	}
	l := &Loop{
		store:  s,
		cfg:    cfg,
		logger: logger.With().Str("component", "learning").Logger(),
		locks:  make([]sync.Mutex, cfg.LockStripes),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Config returns the loop's configuration.
func (l *Loop) Config() Config { return l.cfg }

func (l *Loop) lock(userID string) func() {
	m := &l.locks[xxhash.Sum64String(userID)%uint64(len(l.locks))]
	m.Lock()
	return m.Unlock
}

// Profile returns the stored profile, or a fresh neutral one when the user has
// none yet. The neutral profile is not persisted.
func (l *Loop) Profile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	p, err := l.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewPersonaProfile(userID, l.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// update runs a serialized read-modify-write of userID's profile.
func (l *Loop) update(ctx context.Context, kind, userID string, eventID uuid.UUID, apply func(*models.PersonaProfile)) (*models.PersonaProfile, error) {
	unlock := l.lock(userID)
	defer unlock()

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		p, err := l.Profile(ctx, userID)
		if err != nil {
			metrics.RecordLearningUpdate(kind, "error")
			return nil, err
		}
		if p.HasApplied(eventID) {
			metrics.RecordLearningUpdate(kind, "duplicate")
			return p, fmt.Errorf("%w: %s %s", ErrDuplicateEvent, kind, eventID)
		}

		expected := p.Version
		apply(p)
		p.MarkApplied(eventID, l.cfg.AppliedEventWindow)
		p.UpdatedAt = l.now()

		err = l.store.PutProfile(ctx, p, expected)
		if err == nil {
			metrics.RecordLearningUpdate(kind, "applied")
			metrics.RecordProfileConfidence(p.Confidence)
			l.logger.Debug().
				Str("user_id", userID).
				Str("event", kind).
				Int64("version", p.Version).
				Int("sample_size", p.SampleSize).
				Float64("confidence", p.Confidence).
				Msg("profile updated")
			return p, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			metrics.RecordLearningUpdate(kind, "error")
			return nil, fmt.Errorf("save profile: %w", err)
		}
		metrics.RecordLearningRetry()
		l.logger.Debug().Str("user_id", userID).Int("attempt", attempt+1).Msg("profile version conflict, retrying")
	}

	metrics.RecordLearningUpdate(kind, "conflict")
	return nil, fmt.Errorf("%w: user %s after %d retries", ErrConflict, userID, l.cfg.MaxRetries)
}

// RecordMoodSelection appends sel to the event log and folds it into the profile.
func (l *Loop) RecordMoodSelection(ctx context.Context, sel *models.MoodSelection) (*models.PersonaProfile, error) {
	if sel.ID == uuid.Nil || sel.UserID == "" || !sel.PrimaryMood.Valid() {
		return nil, fmt.Errorf("%w: mood selection needs id, user and a known primary mood", ErrInvalidEvent)
	}
	if sel.SecondaryMood != "" && !sel.SecondaryMood.Valid() {
		return nil, fmt.Errorf("%w: unknown secondary mood %q", ErrInvalidEvent, sel.SecondaryMood)
	}
	if d := sel.Context.DayOfWeek; d < time.Sunday || d > time.Saturday {
		return nil, fmt.Errorf("%w: day of week %d out of range", ErrInvalidEvent, d)
	}
	if err := l.store.AppendMoodSelection(ctx, sel); err != nil {
		return nil, fmt.Errorf("append mood selection: %w", err)
	}
	return l.update(ctx, "mood_selection", sel.UserID, sel.ID, func(p *models.PersonaProfile) {
		applySelection(p, sel, &l.cfg)
	})
}

// RecordUserAction appends a to the event log and folds it into the profile.
// The item is resolved through the configured ItemLookup; unknown items only
// update the platform bias.
func (l *Loop) RecordUserAction(ctx context.Context, a *models.UserAction) (*models.PersonaProfile, error) {
	if a.ID == uuid.Nil || a.UserID == "" || !a.Type.Valid() {
		return nil, fmt.Errorf("%w: user action needs id, user and a known type", ErrInvalidEvent)
	}
	if err := l.store.AppendUserAction(ctx, a); err != nil {
		return nil, fmt.Errorf("append user action: %w", err)
	}
	item := l.lookup(ctx, a.UserID, a.ItemID)
	return l.update(ctx, "user_action", a.UserID, a.ID, func(p *models.PersonaProfile) {
		applyAction(p, a, item, &l.cfg)
	})
}

// RecordRecommendationOutcome appends ev and feeds its implicit reward back
// at OutcomeRate.
func (l *Loop) RecordRecommendationOutcome(ctx context.Context, ev *models.RecommendationEvent) (*models.PersonaProfile, error) {
	if ev.ID == uuid.Nil || ev.UserID == "" {
		return nil, fmt.Errorf("%w: recommendation event needs id and user", ErrInvalidEvent)
	}
	if ev.ChosenItemID != "" && ev.ChosenRank() < 0 {
		return nil, fmt.Errorf("%w: chosen item %q is not a candidate", ErrInvalidEvent, ev.ChosenItemID)
	}
	if err := l.store.AppendRecommendationEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("append recommendation event: %w", err)
	}
	return l.update(ctx, "recommendation_outcome", ev.UserID, ev.ID, func(p *models.PersonaProfile) {
		applyOutcome(p, ev, &l.cfg)
	})
}

func (l *Loop) lookup(ctx context.Context, userID, itemID string) *signal.ContextualItem {
	if l.items == nil || itemID == "" {
		return nil
	}
	item, ok := l.items.LookupItem(ctx, userID, itemID)
	if !ok {
		return nil
	}
	return &item
}
