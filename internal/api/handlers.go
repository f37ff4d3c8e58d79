// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/service"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/validation"
)

// Health returns the pipeline health snapshot. Unhealthy maps to 503 so load
// balancers can act on it; the body is the same either way.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snap := h.backend.GetHealthSnapshot(r.Context())

	status := http.StatusOK
	if snap.Status == models.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	respondData(w, status, snap, start)
}

// HealthLive reports that the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]any{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// SubmitMood handles POST /api/v1/users/{userID}/moods.
func (h *Handler) SubmitMood(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req service.MoodSelectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = chi.URLParam(r, "userID")

	sel, err := h.backend.SubmitMoodSelection(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, sel, start)
}

// SubmitAction handles POST /api/v1/users/{userID}/actions.
func (h *Handler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req service.UserActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = chi.URLParam(r, "userID")

	action, err := h.backend.SubmitUserAction(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, action, start)
}

// Recommendations handles GET /api/v1/users/{userID}/recommendations.
// Mood, session and time parameters accept the vocabulary synonyms.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	req := service.RecommendationRequest{
		RequestID: q.Get("request_id"),
		UserID:    chi.URLParam(r, "userID"),
		Limit:     getIntParam(r, "limit", 0),
	}
	var err error
	if req.PrimaryMood, err = parseOptional(q.Get("mood"), signal.ParseMood); err != nil {
		respondFieldError(w, r, "mood", err)
		return
	}
	if req.SecondaryMood, err = parseOptional(q.Get("secondary_mood"), signal.ParseMood); err != nil {
		respondFieldError(w, r, "secondary_mood", err)
		return
	}
	if req.SessionLength, err = parseOptional(q.Get("session_length"), signal.ParseSessionLength); err != nil {
		respondFieldError(w, r, "session_length", err)
		return
	}
	if req.TimeOfDay, err = parseOptional(q.Get("time_of_day"), signal.ParseTimeOfDay); err != nil {
		respondFieldError(w, r, "time_of_day", err)
		return
	}
	if v := q.Get("persona_weight"); v != "" {
		pw, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			respondFieldError(w, r, "persona_weight", perr)
			return
		}
		req.PersonaWeight = &pw
	}

	resp, err := h.backend.GetRecommendations(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   resp,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			RequestID:   resp.Metadata.RequestID,
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      resp.Metadata.CacheHit,
			Degraded:    resp.Metadata.Fallback != "",
		},
	})
}

// outcomeBody is the body of an outcome report.
type outcomeBody struct {
	SessionID    string `json:"session_id,omitempty"`
	ChosenItemID string `json:"chosen_item_id,omitempty"`
}

// RecommendationOutcome handles
// POST /api/v1/users/{userID}/recommendations/{requestID}/outcome.
func (h *Handler) RecommendationOutcome(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var body outcomeBody
	if !decodeBody(w, r, &body) {
		return
	}

	ev, err := h.backend.RecordRecommendationOutcome(r.Context(), service.OutcomeRequest{
		RequestID:    chi.URLParam(r, "requestID"),
		UserID:       chi.URLParam(r, "userID"),
		SessionID:    body.SessionID,
		ChosenItemID: body.ChosenItemID,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, ev, start)
}

// Profile handles GET /api/v1/users/{userID}/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.backend.GetPersonaProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p, start)
}

// RebuildProfile handles POST /api/v1/users/{userID}/profile/rebuild.
func (h *Handler) RebuildProfile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.backend.RebuildProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, p, start)
}

// viewsResponse is the result of a views rebuild.
type viewsResponse struct {
	Patterns []models.MoodPattern   `json:"patterns"`
	Metrics  *models.LearningMetrics `json:"metrics"`
}

// RebuildViews handles POST /api/v1/users/{userID}/views/rebuild.
func (h *Handler) RebuildViews(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	patterns, lm, err := h.backend.RebuildViews(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, viewsResponse{Patterns: patterns, Metrics: lm}, start)
}

// PredictMood handles POST /api/v1/users/{userID}/predictions.
func (h *Handler) PredictMood(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	pred, err := h.backend.PredictMood(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, pred, start)
}

type resolveBody struct {
	Accepted *bool `json:"accepted"`
}

// ResolvePrediction handles
// POST /api/v1/users/{userID}/predictions/{predictionID}/resolve.
func (h *Handler) ResolvePrediction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := uuid.Parse(chi.URLParam(r, "predictionID"))
	if err != nil {
		respondFieldError(w, r, "prediction_id", err)
		return
	}
	var body resolveBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Accepted == nil {
		respondServiceError(w, r, validation.NewFieldError("accepted", "required", nil, "accepted is required"))
		return
	}

	pred, err := h.backend.ResolvePrediction(r.Context(), chi.URLParam(r, "userID"), id, *body.Accepted)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, pred, start)
}

// EraseUser handles DELETE /api/v1/users/{userID}.
func (h *Handler) EraseUser(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.EraseUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/stats. With ?operation= it returns that
// operation's statistics, otherwise every tracked operation. hours selects
// the window (default 1).
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	hours := 1.0
	if v := r.URL.Query().Get("hours"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			respondServiceError(w, r, validation.NewFieldError("hours", "gt", v, "hours must be a positive number"))
			return
		}
		hours = parsed
	}

	if op := r.URL.Query().Get("operation"); op != "" {
		respondData(w, http.StatusOK, h.backend.GetPerformanceStats(op, hours), start)
		return
	}
	window := time.Duration(hours * float64(time.Hour))
	respondData(w, http.StatusOK, h.backend.AllPerformanceStats(window), start)
}

func respondFieldError(w http.ResponseWriter, r *http.Request, field string, err error) {
	respondServiceError(w, r, validation.NewFieldError(field, "format", nil, field+": "+err.Error()))
}

// parseOptional returns the zero value for an empty parameter.
func parseOptional[T ~string](v string, parse func(string) (T, error)) (T, error) {
	if v == "" {
		var zero T
		return zero, nil
	}
	return parse(v)
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
