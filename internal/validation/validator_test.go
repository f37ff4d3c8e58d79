// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package validation

import (
	"errors"
	"strings"
	"testing"
)

type selectionContext struct {
	Trigger   string `json:"trigger" validate:"omitempty,trigger"`
	TimeOfDay string `json:"time_of_day" validate:"omitempty,time_of_day"`
}

type testRequest struct {
	UserID        string           `json:"user_id" validate:"user_id"`
	PrimaryMood   string           `json:"primary_mood" validate:"required,mood"`
	SecondaryMood string           `json:"secondary_mood,omitempty" validate:"omitempty,mood,nefield=PrimaryMood"`
	Intensity     float64          `json:"intensity" validate:"gte=0,lte=1"`
	Session       string           `json:"session_length" validate:"omitempty,session_length"`
	Action        string           `json:"type" validate:"omitempty,action_type"`
	Limit         int              `json:"limit" validate:"min=0,max=50"`
	Note          string           `json:"note" validate:"max=5"`
	Context       selectionContext `json:"context"`
}

func validRequest() testRequest {
	return testRequest{
		UserID:      "player-1",
		PrimaryMood: "zen",
		Intensity:   0.5,
		Limit:       10,
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*testRequest)
	}{
		{"minimal", func(*testRequest) {}},
		{"all vocabularies", func(r *testRequest) {
			r.SecondaryMood = "cozy"
			r.Session = "long"
			r.Action = "switch_mood"
			r.Context = selectionContext{Trigger: "suggested", TimeOfDay: "late-night"}
		}},
		{"bounds", func(r *testRequest) {
			r.Intensity = 1
			r.Limit = 50
			r.Note = "12345"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if err := ValidateStruct(&req); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*testRequest)
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{"missing mood", func(r *testRequest) { r.PrimaryMood = "" }, "primary_mood", "required", "primary_mood is required"},
		{"unknown mood", func(r *testRequest) { r.PrimaryMood = "grumpy" }, "primary_mood", "mood", "primary_mood must be a known mood"},
		{"same secondary", func(r *testRequest) { r.SecondaryMood = "zen" }, "secondary_mood", "nefield", "secondary_mood must differ from PrimaryMood"},
		{"intensity high", func(r *testRequest) { r.Intensity = 1.5 }, "intensity", "lte", "intensity must be less than or equal to 1"},
		{"intensity negative", func(r *testRequest) { r.Intensity = -0.1 }, "intensity", "gte", "intensity must be greater than or equal to 0"},
		{"blank user", func(r *testRequest) { r.UserID = "  " }, "user_id", "user_id", "user_id must be non-empty and must not contain ':'"},
		{"user with colon", func(r *testRequest) { r.UserID = "a:b" }, "user_id", "user_id", ""},
		{"bad session", func(r *testRequest) { r.Session = "forever" }, "session_length", "session_length", ""},
		{"bad action", func(r *testRequest) { r.Action = "uninstall" }, "type", "action_type", ""},
		{"limit too large", func(r *testRequest) { r.Limit = 51 }, "limit", "max", "limit must be at most 50"},
		{"note too long", func(r *testRequest) { r.Note = "123456" }, "note", "max", "note must be at most 5 characters"},
		{"nested trigger", func(r *testRequest) { r.Context.Trigger = "cron" }, "context.trigger", "trigger", "context.trigger must be manual, suggested or auto"},
		{"nested time", func(r *testRequest) { r.Context.TimeOfDay = "noon" }, "context.time_of_day", "time_of_day", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			verr := ValidateStruct(&req)
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("field/tag = %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
			if tt.wantMsg != "" && errs[0].Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
			if _, ok := verr.Fields()[tt.wantField]; !ok {
				t.Errorf("Fields() = %v, missing %s", verr.Fields(), tt.wantField)
			}
		})
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	req := validRequest()
	req.PrimaryMood = "nope"
	req.Intensity = 2
	req.Limit = -1

	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected error")
	}
	if got := len(verr.Errors()); got != 3 {
		t.Errorf("got %d errors, want 3", got)
	}
	msg := verr.Error()
	for _, want := range []string{"primary_mood", "intensity", "limit"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %s", msg, want)
		}
	}
}

func TestRequestValidationError_Is(t *testing.T) {
	var err error = NewFieldError("item_id", "required", "", "item_id is required for launch")
	if !errors.Is(err, ErrValidation) {
		t.Error("errors.Is(err, ErrValidation) = false")
	}

	var verr *RequestValidationError
	if !errors.As(err, &verr) || verr.Fields()["item_id"] != "item_id is required for launch" {
		t.Errorf("Fields() = %v", verr.Fields())
	}
	if (&RequestValidationError{}).Error() != "validation failed" {
		t.Error("empty error message")
	}
}
