// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/eventbus"
	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/metrics"
	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/persona"
	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/signal"
)

// GetRecommendations ranks the user's library for the requested context.
//
// When the store is unavailable the call still succeeds: the last ranking
// served for the same user and filters is returned if it is recent enough,
// otherwise the library is scored against the neutral persona. The response
// metadata names the fallback used.
//
// Identical concurrent requests share one computation and one request ID.
func (s *Service) GetRecommendations(ctx context.Context, req RecommendationRequest) (*recommend.Response, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	filters := recommend.Filters{
		Moods:         req.moods(),
		SessionLength: req.SessionLength,
		TimeOfDay:     req.TimeOfDay,
		PersonaWeight: req.PersonaWeight,
	}

	key := req.RequestID
	if key == "" {
		key = filterKey(req.UserID, filters, req.Limit)
	}
	v, err, shared := s.flight.Do(key, func() (any, error) {
		var resp *recommend.Response
		err := s.agg.Track(ctx, OpGetRecommendations, func(ctx context.Context) error {
			var err error
			resp, err = s.recommend(ctx, req, filters)
			return err
		})
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Ctx(ctx).Debug().Str("user_id", req.UserID).Msg("recommendation shared with concurrent request")
	}
	return cloneResponse(v.(*recommend.Response)), nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (s *Service) recommend(ctx context.Context, req RecommendationRequest, filters recommend.Filters) (*recommend.Response, error) {
	start := s.now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := logging.Ctx(ctx).With().Str("request_id", requestID).Str("user_id", req.UserID).Logger()

	var profile *models.PersonaProfile
	profileErr := s.agg.Track(ctx, StageLoadProfile, func(ctx context.Context) error {
		var err error
		profile, err = s.loop.Profile(ctx, req.UserID)
		return err
	})
	if profileErr != nil && !IsDegraded(profileErr) {
		return nil, fmt.Errorf("load profile: %w", profileErr)
	}

	var items []signal.ContextualItem
	if err := s.agg.Track(ctx, StageLoadLibrary, func(ctx context.Context) error {
		var err error
		items, err = s.library.Items(ctx, req.UserID)
		return err
	}); err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}

	lkgKey := filterKey(req.UserID, filters, req.Limit)
	engineReq := recommend.Request{
		RequestID: requestID,
		UserID:    req.UserID,
		Filters:   filters,
		Limit:     req.Limit,
	}

	var (
		resp     *recommend.Response
		fallback string
	)
	switch {
	case profileErr != nil:
		logger.Warn().Err(profileErr).Msg("store unavailable, serving fallback ranking")
		if cached, age, ok := s.lastKnownGood.GetWithAge(lkgKey); ok {
			resp = cloneResponse(cached)
			resp.Metadata.RequestID = requestID
			fallback = recommend.FallbackLastKnownGood
			logger.Debug().Dur("age", age).Msg("serving last known good ranking")
			break
		}
		var err error
		resp, err = s.score(ctx, engineReq, items, nil)
		if err != nil {
			return nil, err
		}
		fallback = recommend.FallbackNeutral

	default:
		var pc persona.PersonaContext
		_ = s.agg.Track(ctx, StageBuildContext, func(context.Context) error {
			pc = persona.Build(items, profile, s.cfg.Context)
			return nil
		})
		engineReq.ProfileVersion = profile.Version
		var err error
		resp, err = s.score(ctx, engineReq, items, &pc)
		if err != nil {
			return nil, err
		}
		s.lastKnownGood.Add(lkgKey, cloneResponse(resp))
	}

	resp.Metadata.Fallback = fallback
	if fallback != "" {
		metrics.RecordRecommendationFallback(fallback)
	}
	metrics.RecordRecommendation(resp.Metadata.CacheHit, s.engine.GetConfig().Cache.Enabled, len(resp.Matches), s.now().Sub(start))

	s.served.Add(requestID, &servedRanking{
		userID:  req.UserID,
		filters: filters,
		matches: cloneResponse(resp).Matches,
	})

	ids := make([]string, len(resp.Matches))
	for i := range resp.Matches {
		ids[i] = resp.Matches[i].ItemID
	}
	s.publish(ctx, eventbus.TopicRecommendationServed, req.UserID, eventbus.RecommendationServed{
		RequestID: requestID,
		UserID:    req.UserID,
		ItemIDs:   ids,
		Moods:     filters.Moods,
		CacheHit:  resp.Metadata.CacheHit,
		Fallback:  fallback,
		At:        s.now(),
	})
	return resp, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (s *Service) score(ctx context.Context, req recommend.Request, items []signal.ContextualItem, pc *persona.PersonaContext) (*recommend.Response, error) {
	var resp *recommend.Response
	err := s.agg.Track(ctx, StageScore, func(ctx context.Context) error {
		var err error
		resp, err = s.engine.Recommend(ctx, req, items, pc)
		return err
	})
	return resp, err
}

// filterKey identifies a user's request context. It starts with the user ID
// followed by a NUL so all of a user's entries share a prefix.
func filterKey(userID string, f recommend.Filters, limit int) string {
	var b strings.Builder
	b.WriteString(userPrefix(userID))
	for i, m := range f.Moods {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(m))
	}
	b.WriteByte('|')
	b.WriteString(string(f.SessionLength))
	b.WriteByte('|')
	b.WriteString(string(f.TimeOfDay))
	b.WriteByte('|')
	if f.PersonaWeight != nil {
		b.WriteString(strconv.FormatFloat(*f.PersonaWeight, 'g', -1, 64))
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(limit))
	return b.String()
}

func userPrefix(userID string) string {
	return userID + "\x00"
}

func cloneResponse(resp *recommend.Response) *recommend.Response {
	out := *resp
	out.Matches = make([]recommend.ContextualMatch, len(resp.Matches))
	for i := range resp.Matches {
		m := resp.Matches[i]
		m.Reasons = append([]string(nil), m.Reasons...)
		m.Moods = append([]signal.Mood(nil), m.Moods...)
		m.Genres = append([]signal.Genre(nil), m.Genres...)
		m.Tags = append([]string(nil), m.Tags...)
		out.Matches[i] = m
	}
	return &out
}
