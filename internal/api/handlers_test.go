// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/learning"
	"github.com/tomtom215/playwise/internal/library"
	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/observability"
	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/service"
	"github.com/tomtom215/playwise/internal/signal"
	"github.com/tomtom215/playwise/internal/store"
)

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWith(t, RouterConfig{})
}

func newTestRouterWith(t *testing.T, cfg RouterConfig) http.Handler {
	t.Helper()

	st := store.NewMemoryStore()
	lib := library.NewMemory(nil, zerolog.Nop())
	lib.SetShared([]signal.RawItem{
		{ID: "celeste", Title: "Celeste", Moods: []string{"energetic"}, SessionLength: "short"},
		{ID: "stardew", Title: "Stardew Valley", Moods: []string{"cozy", "zen"}, SessionLength: "medium"},
	})

	loop, err := learning.NewLoop(st, learning.DefaultConfig(), zerolog.Nop(), learning.WithItemLookup(lib))
	if err != nil {
		t.Fatalf("NewLoop() error = %v", err)
	}
	engine, err := recommend.NewEngine(recommend.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	agg, err := observability.New(observability.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("observability.New() error = %v", err)
	}
	svc, err := service.New(service.Deps{
		Store:      st,
		Library:    lib,
		Engine:     engine,
		Loop:       loop,
		Aggregator: agg,
	}, service.DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("service.New() error = %v", err)
	}
	return NewRouter(svc, cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health", http.StatusOK},
		{"/health/live", http.StatusOK},
		{"/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, _ := do(t, h, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get(requestIDHeader) == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestHealth_Body(t *testing.T) {
	h := newTestRouter(t)
	_, env := do(t, h, http.MethodGet, "/health", "")

	var snap models.HealthSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Status != models.StatusHealthy {
		t.Errorf("Status = %s, want healthy", snap.Status)
	}
	if !snap.Details.StoreConnected {
		t.Error("StoreConnected should be true")
	}
}

func TestSubmitMood(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"valid", `{"primary_mood":"zen","intensity":0.7}`, http.StatusCreated, "", ""},
		{"unknown mood", `{"primary_mood":"grumpy","intensity":0.7}`, http.StatusBadRequest, CodeValidation, "primary_mood"},
		{"intensity", `{"primary_mood":"zen","intensity":3}`, http.StatusBadRequest, CodeValidation, "intensity"},
		{"unknown field", `{"primary_mood":"zen","vibe":"good"}`, http.StatusBadRequest, CodeInvalidJSON, ""},
		{"malformed", `{"primary_mood":`, http.StatusBadRequest, CodeInvalidJSON, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodPost, "/api/v1/users/u1/moods", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode == "" {
				return
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if tt.wantField != "" {
				if _, ok := env.Error.Details[tt.wantField]; !ok {
					t.Errorf("details = %v, want field %s", env.Error.Details, tt.wantField)
				}
			}
		})
	}
}

func TestRecommendationFlow(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/users/u1/recommendations?mood=chill&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	var resp recommend.Response
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Matches) == 0 || resp.Matches[0].ItemID != "stardew" {
		t.Fatalf("matches = %+v, want stardew first", resp.Matches)
	}
	if env.Metadata.RequestID != resp.Metadata.RequestID {
		t.Errorf("envelope request ID %q != response %q", env.Metadata.RequestID, resp.Metadata.RequestID)
	}

	path := "/api/v1/users/u1/recommendations/" + resp.Metadata.RequestID + "/outcome"
	rec, _ = do(t, h, http.MethodPost, path, `{"chosen_item_id":"stardew"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("outcome status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec, env = do(t, h, http.MethodPost, "/api/v1/users/u1/recommendations/5b1f3c9e-8a7d-4e2b-9c1a-0f6e2d3b4a59/outcome", `{}`)
	if rec.Code != http.StatusNotFound || env.Error.Code != CodeNotFound {
		t.Errorf("unknown outcome = %d %+v, want 404", rec.Code, env.Error)
	}
}

func TestRecommendations_BadParams(t *testing.T) {
	h := newTestRouter(t)
	for _, q := range []string{"mood=grumpy", "time_of_day=brunch", "persona_weight=abc", "persona_weight=2", "limit=500"} {
		t.Run(q, func(t *testing.T) {
			rec, env := do(t, h, http.MethodGet, "/api/v1/users/u1/recommendations?"+q, "")
			if rec.Code != http.StatusBadRequest || env.Error.Code != CodeValidation {
				t.Errorf("status = %d, error = %+v, want 400 validation", rec.Code, env.Error)
			}
		})
	}
}

func TestProfileLifecycle(t *testing.T) {
	h := newTestRouter(t)

	if rec, _ := do(t, h, http.MethodPost, "/api/v1/users/u1/actions", `{"type":"launch","item_id":"celeste","mood_context":"energetic"}`); rec.Code != http.StatusCreated {
		t.Fatalf("action status = %d (%s)", rec.Code, rec.Body.String())
	}

	rec, env := do(t, h, http.MethodGet, "/api/v1/users/u1/profile", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile status = %d", rec.Code)
	}
	var p models.PersonaProfile
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.Version == 0 {
		t.Error("profile should have been persisted by the action")
	}

	if rec, _ := do(t, h, http.MethodPost, "/api/v1/users/u1/profile/rebuild", ""); rec.Code != http.StatusOK {
		t.Errorf("rebuild status = %d", rec.Code)
	}
	if rec, _ := do(t, h, http.MethodDelete, "/api/v1/users/u1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("erase status = %d", rec.Code)
	}
}

func TestPredictions(t *testing.T) {
	h := newTestRouter(t)

	rec, env := do(t, h, http.MethodPost, "/api/v1/users/u1/predictions", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("predict status = %d (%s)", rec.Code, rec.Body.String())
	}
	var pred models.MoodPrediction
	if err := json.Unmarshal(env.Data, &pred); err != nil {
		t.Fatalf("decode prediction: %v", err)
	}

	path := "/api/v1/users/u1/predictions/" + pred.ID.String() + "/resolve"
	if rec, _ := do(t, h, http.MethodPost, path, `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("resolve without accepted = %d, want 400", rec.Code)
	}
	if rec, _ := do(t, h, http.MethodPost, path, `{"accepted":true}`); rec.Code != http.StatusOK {
		t.Errorf("resolve status = %d, want 200", rec.Code)
	}
	if rec, _ := do(t, h, http.MethodPost, path, `{"accepted":false}`); rec.Code != http.StatusConflict {
		t.Errorf("second resolve = %d, want 409", rec.Code)
	}
	if rec, _ := do(t, h, http.MethodPost, "/api/v1/users/u1/predictions/not-a-uuid/resolve", `{"accepted":true}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodGet, "/api/v1/users/u1/recommendations", "")

	rec, env := do(t, h, http.MethodGet, "/api/v1/stats?operation="+service.OpGetRecommendations, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st observability.OperationStats
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.Count != 1 {
		t.Errorf("Count = %d, want 1", st.Count)
	}

	if rec, _ := do(t, h, http.MethodGet, "/api/v1/stats?hours=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative hours = %d, want 400", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestRouterWith(t, RouterConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, h, http.MethodGet, "/api/v1/stats", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec, env := do(t, h, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != CodeRateLimited {
		t.Errorf("error = %+v, want %s", env.Error, CodeRateLimited)
	}

	// ops endpoints are not limited
	if rec, _ := do(t, h, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("/health/live status = %d, want 200", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		want    string
	}{
		{"allowed origin", []string{"https://playwise.example"}, "https://playwise.example"},
		{"disabled", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouterWith(t, RouterConfig{CORSAllowedOrigins: tt.origins})

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/stats", http.NoBody)
			req.Header.Set("Origin", "https://playwise.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
