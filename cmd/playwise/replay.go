// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/service"
)

// Event kinds accepted in an events file.
const (
	eventKindMood   = "mood"
	eventKindAction = "action"
)

// eventRecord is one entry of an events file. Files are a stream of JSON
// objects, one per line or concatenated:
//
//	{"kind":"mood","mood":{"primary_mood":"cozy","intensity":0.7}}
//	{"kind":"action","action":{"type":"launch","item_id":"stardew"}}
type eventRecord struct {
	Kind   string                        `json:"kind"`
	Mood   *service.MoodSelectionRequest `json:"mood,omitempty"`
	Action *service.UserActionRequest    `json:"action,omitempty"`
}

type importStats struct {
	Moods   int `json:"moods"`
	Actions int `json:"actions"`
}

// importEvents submits every record in path through the service as userID.
// Records that name a different user are rejected.
func importEvents(ctx context.Context, svc *service.Service, userID, path string) (importStats, error) {
	var stats importStats

	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return stats, fmt.Errorf("open events: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	for n := 1; ; n++ {
		var rec eventRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("events record %d: %w", n, err)
		}

		switch {
		case rec.Kind == eventKindMood && rec.Mood != nil:
			if err := ownEvent(&rec.Mood.UserID, userID); err != nil {
				return stats, fmt.Errorf("events record %d: %w", n, err)
			}
			if _, err := svc.SubmitMoodSelection(ctx, *rec.Mood); err != nil {
				return stats, fmt.Errorf("events record %d: %w", n, err)
			}
			stats.Moods++
		case rec.Kind == eventKindAction && rec.Action != nil:
			if err := ownEvent(&rec.Action.UserID, userID); err != nil {
				return stats, fmt.Errorf("events record %d: %w", n, err)
			}
			if _, err := svc.SubmitUserAction(ctx, *rec.Action); err != nil {
				return stats, fmt.Errorf("events record %d: %w", n, err)
			}
			stats.Actions++
		default:
			return stats, fmt.Errorf("events record %d: unknown kind %q or missing body", n, rec.Kind)
		}
	}
}

func ownEvent(recordUser *string, userID string) error {
	if *recordUser == "" {
		*recordUser = userID
		return nil
	}
	if *recordUser != userID {
		return fmt.Errorf("belongs to user %q, not %q", *recordUser, userID)
	}
	return nil
}

type replayResult struct {
	Imported *importStats            `json:"imported,omitempty"`
	Profile  *models.PersonaProfile  `json:"profile"`
	Patterns []models.MoodPattern    `json:"patterns"`
	Metrics  *models.LearningMetrics `json:"metrics"`
}

func newReplayCommand(root *rootOptions) *cobra.Command {
	var userID, events string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild a user's profile and derived views from the event log",
		Long: `replay folds a user's full event history into a fresh persona profile,
replacing the stored one, then recomputes mood patterns and learning metrics.
With --events the records in the file are applied first, which makes replay
useful against the in-memory store for what-if analysis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, a.Close())
			}()

			ctx := cmd.Context()
			var out replayResult
			if events != "" {
				stats, err := importEvents(ctx, a.svc, userID, events)
				if err != nil {
					return err
				}
				out.Imported = &stats
			}

			if out.Profile, err = a.svc.RebuildProfile(ctx, userID); err != nil {
				return err
			}
			if out.Patterns, out.Metrics, err = a.svc.RebuildViews(ctx, userID); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVar(&events, "events", "", "JSON stream of events to apply before replaying")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
