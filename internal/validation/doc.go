// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

// Package validation validates inbound requests with go-playground/validator.
//
// The shared validator reports fields by their JSON names and knows the
// domain vocabularies:
//
//	mood            canonical mood id
//	session_length  short, medium or long
//	time_of_day     morning, afternoon, evening or late-night
//	action_type     launch, ignore, rate, switch_mood or session_complete
//	trigger         manual, suggested or auto
//	user_id         non-empty, no ':'
//
// Failures come back as *RequestValidationError, which matches ErrValidation
// with errors.Is and exposes one message per field:
//
//	type MoodSelectionRequest struct {
//	    UserID    string  `json:"user_id" validate:"user_id"`
//	    Mood      string  `json:"primary_mood" validate:"required,mood"`
//	    Intensity float64 `json:"intensity" validate:"gte=0,lte=1"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return nil, verr
//	}
package validation
