// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/playwise/internal/models"
)

type profileResult struct {
	Profile    *models.PersonaProfile `json:"profile"`
	Prediction *models.MoodPrediction `json:"prediction,omitempty"`
}

func newProfileCommand(root *rootOptions) *cobra.Command {
	var (
		userID  string
		events  string
		predict bool
		erase   bool
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show, predict from or erase a user's persona profile",
		Example: `  playwise profile --user u1
  playwise profile --user u1 --predict
  playwise profile --user u1 --erase`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if erase && (predict || events != "") {
				return errors.New("--erase cannot be combined with --predict or --events")
			}

			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, a.Close())
			}()

			ctx := cmd.Context()
			if erase {
				if err := a.svc.EraseUser(ctx, userID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "erased %s\n", userID)
				return nil
			}

			if events != "" {
				if _, err := importEvents(ctx, a.svc, userID, events); err != nil {
					return err
				}
			}

			var out profileResult
			if out.Profile, err = a.svc.GetPersonaProfile(ctx, userID); err != nil {
				return err
			}
			if predict {
				if out.Prediction, err = a.svc.PredictMood(ctx, userID); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&userID, "user", "u", "", "user ID (required)")
	f.StringVar(&events, "events", "", "JSON stream of events to apply first")
	f.BoolVar(&predict, "predict", false, "include a mood prediction for now")
	f.BoolVar(&erase, "erase", false, "delete the profile and every event of the user")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
