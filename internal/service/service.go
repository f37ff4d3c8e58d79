// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/playwise/internal/cache"
	"github.com/tomtom215/playwise/internal/eventbus"
	"github.com/tomtom215/playwise/internal/learning"
	"github.com/tomtom215/playwise/internal/library"
	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/observability"
	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
	"github.com/tomtom215/playwise/internal/validation"
)

// Operation names recorded by the aggregator.
const (
	OpSubmitMoodSelection = "submit_mood_selection"
	OpSubmitUserAction    = "submit_user_action"
	OpGetRecommendations  = "get_recommendations"
	OpGetPersonaProfile   = "get_persona_profile"
	OpRecordOutcome       = "record_recommendation_outcome"
	OpPredictMood         = "predict_mood"
	OpResolvePrediction   = "resolve_prediction"
	OpRebuildViews        = "rebuild_views"
	OpRebuildProfile      = "rebuild_profile"
	OpEraseUser           = "erase_user"

	StageLoadProfile  = observability.StagePrefix + "load_profile"
	StageLoadLibrary  = observability.StagePrefix + "load_library"
	StageBuildContext = observability.StagePrefix + "build_context"
	StageScore        = observability.StagePrefix + "score"
)

// ErrUnknownRequest is returned for outcomes of rankings the service no
// longer remembers.
var ErrUnknownRequest = errors.New("service: unknown or expired recommendation request")

// IsDegraded reports whether err means the store could not be reached.
// Callers may retry later or fall back to cached data.
func IsDegraded(err error) bool {
	return errors.Is(err, store.ErrUnavailable)
}

// Publisher publishes domain events. *eventbus.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, topic, userID string, payload any) error
	Enabled() bool
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (noopPublisher) Enabled() bool                                      { return false }

// Deps are the collaborators a Service orchestrates.
type Deps struct {
	Store      store.Store
	Library    library.Provider
	Engine     *recommend.Engine
	Loop       *learning.Loop
	Aggregator *observability.Aggregator

	// Breaker reports the store circuit breaker state. Optional.
	Breaker observability.BreakerReporter

	// Bus receives domain events. Optional.
	Bus Publisher
}

// Config tunes the service.
type Config struct {
	Context persona.Options

	// LastKnownGoodEntries bounds the per-user fallback cache.
	LastKnownGoodEntries int

	// LastKnownGoodTTL is how long a ranking may be served as fallback.
	LastKnownGoodTTL time.Duration

	// ServedTTL is how long a served ranking can receive an outcome.
	ServedTTL time.Duration
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		Context:              persona.DefaultOptions(),
		LastKnownGoodEntries: 1024,
		LastKnownGoodTTL:     24 * time.Hour,
		ServedTTL:            6 * time.Hour,
	}
}

// Service implements the engine's operations.
type Service struct {
	store   store.Store
	library library.Provider
	engine  *recommend.Engine
	loop    *learning.Loop
	agg     *observability.Aggregator
	breaker observability.BreakerReporter
	bus     Publisher

	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	lastKnownGood *cache.LRU[*recommend.Response]
	served        *cache.LRU[*servedRanking]
	flight        singleflight.Group
}

// servedRanking is what RecordRecommendationOutcome needs to rebuild the
// recommendation event.
type servedRanking struct {
	userID  string
	filters recommend.Filters
	matches []recommend.ContextualMatch
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires a Service. Store, Library, Engine, Loop and Aggregator are required.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(deps Deps, cfg Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("service: store is required")
	case deps.Library == nil:
		return nil, errors.New("service: library is required")
	case deps.Engine == nil:
		return nil, errors.New("service: engine is required")
	case deps.Loop == nil:
		return nil, errors.New("service: learning loop is required")
	case deps.Aggregator == nil:
		return nil, errors.New("service: aggregator is required")
	}
	if err := cfg.Context.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context options: %w", err)
	}
	bus := deps.Bus
	if bus == nil {
		bus = noopPublisher{}
	}

	s := &Service{
		store:   deps.Store,
		library: deps.Library,
		engine:  deps.Engine,
		loop:    deps.Loop,
		agg:     deps.Aggregator,
		breaker: deps.Breaker,
		bus:     bus,
		cfg:     cfg,
		logger:  logger.With().Str("component", "service").Logger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastKnownGood = cache.NewLRU[*recommend.Response](cfg.LastKnownGoodEntries, cfg.LastKnownGoodTTL, cache.WithClock(s.now))
	s.served = cache.NewLRU[*servedRanking](cfg.LastKnownGoodEntries, cfg.ServedTTL, cache.WithClock(s.now))
	return s, nil
}

func validate(req any) error {
	if verr := validation.ValidateStruct(req); verr != nil {
		return verr
	}
	return nil
}

// publish is best effort; a lost event never fails the operation.
func (s *Service) publish(ctx context.Context, topic, userID string, payload any) {
	if err := s.bus.Publish(ctx, topic, userID, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("topic", topic).Str("user_id", userID).Msg("event publish failed")
	}
}

func (s *Service) profileUpdated(ctx context.Context, p *models.PersonaProfile, cause string, eventID uuid.UUID) {
	s.publish(ctx, eventbus.TopicProfileUpdated, p.UserID, eventbus.ProfileUpdated{
		UserID:     p.UserID,
		Version:    p.Version,
		Cause:      cause,
		EventID:    eventID.String(),
		Confidence: p.Confidence,
		SampleSize: p.SampleSize,
		At:         s.now(),
	})
}

// SubmitMoodSelection records a declared mood and updates the profile.
// Resubmitting the same ID is accepted and changes nothing.
func (s *Service) SubmitMoodSelection(ctx context.Context, req MoodSelectionRequest) (*models.MoodSelection, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	sel := &models.MoodSelection{
		ID:            id,
		UserID:        req.UserID,
		SessionID:     req.SessionID,
		PrimaryMood:   req.PrimaryMood,
		SecondaryMood: req.SecondaryMood,
		Intensity:     req.Intensity,
		Context: models.SelectionContext{
			TimeOfDay:    req.Context.TimeOfDay,
			DayOfWeek:    at.Weekday(),
			Trigger:      req.Context.Trigger,
			PreviousMood: req.Context.PreviousMood,
		},
		Outcomes:  req.Outcomes,
		CreatedAt: at,
	}
	if sel.Context.TimeOfDay == "" {
		sel.Context.TimeOfDay = signal.TimeOfDayAt(at)
	}
	if sel.Context.Trigger == "" {
		sel.Context.Trigger = models.TriggerManual
	}

	var (
		profile   *models.PersonaProfile
		duplicate bool
	)
	err := s.agg.Track(ctx, OpSubmitMoodSelection, func(ctx context.Context) error {
		var err error
		profile, err = s.loop.RecordMoodSelection(ctx, sel)
		return ignoreDuplicate(err, &duplicate)
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		return sel, nil
	}

	s.publish(ctx, eventbus.TopicMoodSelected, sel.UserID, sel)
	if profile != nil {
		s.profileUpdated(ctx, profile, "mood_selection", sel.ID)
	}
	return sel, nil
}

// SubmitUserAction records a behavioral event and updates the profile.
func (s *Service) SubmitUserAction(ctx context.Context, req UserActionRequest) (*models.UserAction, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if req.ItemID == "" && req.Type != models.ActionSwitchMood {
		return nil, validation.NewFieldError("item_id", "required", req.ItemID,
			fmt.Sprintf("item_id is required for %s actions", req.Type))
	}
	if req.Type == models.ActionSwitchMood && req.Metadata.NewMood == "" {
		return nil, validation.NewFieldError("metadata.new_mood", "required", "",
			"metadata.new_mood is required for switch_mood actions")
	}
	if req.Type == models.ActionRate && req.Metadata.Rating == 0 {
		return nil, validation.NewFieldError("metadata.rating", "required", 0,
			"metadata.rating is required for rate actions")
	}

	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	action := &models.UserAction{
		ID:          id,
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Type:        req.Type,
		ItemID:      req.ItemID,
		MoodContext: req.MoodContext,
		Metadata: models.ActionMetadata{
			SessionMinutes: req.Metadata.SessionMinutes,
			Rating:         req.Metadata.Rating,
			Reason:         req.Metadata.Reason,
			Platform:       req.Metadata.Platform,
			NewMood:        req.Metadata.NewMood,
		},
		CreatedAt: at,
	}

	var (
		profile   *models.PersonaProfile
		duplicate bool
	)
	err := s.agg.Track(ctx, OpSubmitUserAction, func(ctx context.Context) error {
		var err error
		profile, err = s.loop.RecordUserAction(ctx, action)
		return ignoreDuplicate(err, &duplicate)
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		return action, nil
	}

	// The bus consumer counts actions; without a bus count them here.
	if s.bus.Enabled() {
		s.publish(ctx, eventbus.TopicActionRecorded, action.UserID, action)
	} else {
		s.agg.RecordAction(action.Type)
	}
	if profile != nil {
		s.profileUpdated(ctx, profile, "user_action", action.ID)
	}
	return action, nil
}

// GetPersonaProfile returns the user's profile, creating the neutral default
// on first use.
func (s *Service) GetPersonaProfile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var p *models.PersonaProfile
	err := s.agg.Track(ctx, OpGetPersonaProfile, func(ctx context.Context) error {
		var err error
		p, err = s.loop.EnsureProfile(ctx, userID)
		return err
	})
	return p, err
}

// GetPerformanceStats returns rolling statistics for one operation over the
// trailing windowHours. An empty operation aggregates everything.
func (s *Service) GetPerformanceStats(operation string, windowHours float64) observability.OperationStats {
	return s.agg.StatsHours(operation, windowHours)
}

// AllPerformanceStats returns statistics for every tracked operation.
func (s *Service) AllPerformanceStats(window time.Duration) []observability.OperationStats {
	return s.agg.AllStats(window)
}

// GetHealthSnapshot evaluates pipeline health and stores the snapshot when
// the store accepts it. It never fails.
func (s *Service) GetHealthSnapshot(ctx context.Context) models.HealthSnapshot {
	snap := s.agg.Snapshot(ctx, s.store, s.breaker)
	if snap.Details.StoreConnected {
		if err := s.store.PutHealthSnapshot(ctx, &snap); err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("health snapshot not persisted")
		}
	}
	return snap
}

// RecordRecommendationOutcome feeds the user's reaction to a served ranking
// back into the profile.
func (s *Service) RecordRecommendationOutcome(ctx context.Context, req OutcomeRequest) (*models.RecommendationEvent, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	served, ok := s.served.Get(req.RequestID)
	if !ok || served.userID != req.UserID {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, req.RequestID)
	}

	ev := &models.RecommendationEvent{
		ID:        uuid.MustParse(req.RequestID),
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Context: models.RecommendationFilters{
			Moods:         served.filters.Moods,
			SessionLength: served.filters.SessionLength,
			TimeOfDay:     served.filters.TimeOfDay,
			PersonaWeight: served.filters.PersonaWeight,
		},
		Candidates:   make([]models.RecommendedCandidate, len(served.matches)),
		ChosenItemID: req.ChosenItemID,
		Success:      req.ChosenItemID != "",
		CreatedAt:    s.now(),
	}
	for i := range served.matches {
		m := &served.matches[i]
		ev.Candidates[i] = models.RecommendedCandidate{
			ItemID:  m.ItemID,
			Score:   m.Score,
			Reasons: m.Reasons,
			Moods:   m.Moods,
			Genres:  m.Genres,
			Tags:    m.Tags,
		}
	}
	if ev.ChosenItemID != "" && ev.ChosenRank() < 0 {
		return nil, validation.NewFieldError("chosen_item_id", "oneof", req.ChosenItemID,
			"chosen_item_id must be one of the served items")
	}

	var (
		profile   *models.PersonaProfile
		duplicate bool
	)
	err := s.agg.Track(ctx, OpRecordOutcome, func(ctx context.Context) error {
		var err error
		profile, err = s.loop.RecordRecommendationOutcome(ctx, ev)
		return ignoreDuplicate(err, &duplicate)
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		return ev, nil
	}
	if profile != nil {
		s.profileUpdated(ctx, profile, "recommendation_outcome", ev.ID)
	}
	return ev, nil
}

// PredictMood forecasts the user's next mood.
func (s *Service) PredictMood(ctx context.Context, userID string) (*models.MoodPrediction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var pred *models.MoodPrediction
	err := s.agg.Track(ctx, OpPredictMood, func(ctx context.Context) error {
		var err error
		pred, err = s.loop.PredictMood(ctx, userID)
		return err
	})
	return pred, err
}

// ResolvePrediction records whether the user took the predicted mood.
func (s *Service) ResolvePrediction(ctx context.Context, userID string, predictionID uuid.UUID, accepted bool) (*models.MoodPrediction, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if predictionID == uuid.Nil {
		return nil, validation.NewFieldError("prediction_id", "required", predictionID, "prediction_id is required")
	}
	var pred *models.MoodPrediction
	err := s.agg.Track(ctx, OpResolvePrediction, func(ctx context.Context) error {
		var err error
		pred, err = s.loop.ResolvePrediction(ctx, userID, predictionID, accepted)
		return err
	})
	return pred, err
}

// RebuildViews recomputes and stores the user's mood patterns and learning
// metrics from the event log.
func (s *Service) RebuildViews(ctx context.Context, userID string) ([]models.MoodPattern, *models.LearningMetrics, error) {
	if err := validateUserID(userID); err != nil {
		return nil, nil, err
	}
	var (
		patterns []models.MoodPattern
		lm       *models.LearningMetrics
	)
	err := s.agg.Track(ctx, OpRebuildViews, func(ctx context.Context) error {
		var err error
		patterns, lm, err = s.loop.Refresh(ctx, userID)
		return err
	})
	return patterns, lm, err
}

// RebuildProfile replays the event log into a fresh profile and stores it.
func (s *Service) RebuildProfile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var p *models.PersonaProfile
	err := s.agg.Track(ctx, OpRebuildProfile, func(ctx context.Context) error {
		var err error
		p, err = s.loop.Rebuild(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.lastKnownGood.RemovePrefix(userPrefix(userID))
	s.profileUpdated(ctx, p, "rebuild", uuid.Nil)
	return p, nil
}

// EraseUser deletes the user's profile, events and views, and forgets any
// cached rankings.
func (s *Service) EraseUser(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	err := s.agg.Track(ctx, OpEraseUser, func(ctx context.Context) error {
		return s.store.DeleteUser(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.lastKnownGood.RemovePrefix(userPrefix(userID))
	s.engine.ClearCache()
	logging.Ctx(ctx).Info().Str("user_id", userID).Msg("user erased")
	return nil
}

// PruneCaches drops expired fallback and served rankings and returns how many
// were removed.
func (s *Service) PruneCaches() int {
	return s.lastKnownGood.CleanupExpired() + s.served.CleanupExpired()
}

func validateUserID(userID string) error {
	req := struct {
		UserID string `json:"user_id" validate:"user_id"`
	}{userID}
	return validate(&req)
}

// ignoreDuplicate turns an already-applied event into success and records
// that it was one in dup.
func ignoreDuplicate(err error, dup *bool) error {
	if errors.Is(err, learning.ErrDuplicateEvent) {
		*dup = true
		return nil
	}
	return err
}
