// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package logging

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// scope is the request-scoped logging state carried in a context. It is
// copied on every change, never mutated in place.
type scope struct {
	correlationID string
	userID        string
	logger        *zerolog.Logger
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, update func(*scope)) context.Context {
	s := scopeFrom(ctx)
	update(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// GenerateCorrelationID returns 12 hex characters taken from a random UUID.
func GenerateCorrelationID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ContextWithCorrelationID tags ctx with id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return withScope(ctx, func(s *scope) { s.correlationID = id })
}

// ContextWithNewCorrelationID tags ctx with a generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

func CorrelationIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).correlationID
}

// ContextWithUserID tags ctx with the user a request acts for.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return withScope(ctx, func(s *scope) { s.userID = userID })
}

func UserIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).userID
}

// ContextWithLogger makes logger the base for Ctx on ctx and its children.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return withScope(ctx, func(s *scope) { s.logger = &logger })
}

// LoggerFromContext returns the logger stored by ContextWithLogger, or the
// global logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if l := scopeFrom(ctx).logger; l != nil {
		return *l
	}
	return Logger()
}

// Ctx returns a logger carrying the correlation_id and user_id of ctx.
// Fields that are unset are omitted.
//
//	logging.Ctx(ctx).Info().Msg("recommendations served")
func Ctx(ctx context.Context) *zerolog.Logger {
	s := scopeFrom(ctx)
	base := LoggerFromContext(ctx)
	if s.correlationID == "" && s.userID == "" {
		return &base
	}

	lc := base.With()
	if s.correlationID != "" {
		lc = lc.Str("correlation_id", s.correlationID)
	}
	if s.userID != "" {
		lc = lc.Str("user_id", s.userID)
	}
	l := lc.Logger()
	return &l
}
