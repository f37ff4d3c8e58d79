// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/service"
	"github.com/tomtom215/playwise/internal/signal"
)

type recommendOptions struct {
	userID        string
	mood          string
	secondaryMood string
	session       string
	timeOfDay     string
	personaWeight float64
	limit         int
	events        string
	output        string
}

func newRecommendCommand(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank the library for one user and print the result",
		Example: `  playwise recommend --user u1 --mood cozy --session short
  playwise recommend --user u1 --mood zen --events history.jsonl --output text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, a.Close())
			}()

			if opts.events != "" {
				if _, err := importEvents(cmd.Context(), a.svc, opts.userID, opts.events); err != nil {
					return err
				}
			}

			resp, err := a.svc.GetRecommendations(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.output == "text" {
				return writeMatches(cmd.OutOrStdout(), resp)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.userID, "user", "u", "", "user ID (required)")
	f.StringVarP(&opts.mood, "mood", "m", "", "primary mood, e.g. cozy, zen, energetic")
	f.StringVar(&opts.secondaryMood, "secondary-mood", "", "secondary mood")
	f.StringVarP(&opts.session, "session", "s", "", "session length: short, medium, long")
	f.StringVarP(&opts.timeOfDay, "time", "t", "", "time of day: morning, afternoon, evening, late-night")
	f.Float64Var(&opts.personaWeight, "persona-weight", 0, "persona influence in [0, 1]; unset uses the configured default")
	f.IntVarP(&opts.limit, "limit", "n", 0, "number of matches; 0 uses the configured default")
	f.StringVar(&opts.events, "events", "", "JSON stream of events to apply before ranking")
	f.StringVarP(&opts.output, "output", "o", "json", "output format: json or text")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// request parses the flags. Mood, session and time accept the same synonyms
// as the API.
func (o *recommendOptions) request(cmd *cobra.Command) (service.RecommendationRequest, error) {
	req := service.RecommendationRequest{
		UserID: o.userID,
		Limit:  o.limit,
	}
	if o.output != "json" && o.output != "text" {
		return req, fmt.Errorf("invalid --output %q: want json or text", o.output)
	}

	var err error
	if o.mood != "" {
		if req.PrimaryMood, err = signal.ParseMood(o.mood); err != nil {
			return req, fmt.Errorf("--mood: %w", err)
		}
	}
	if o.secondaryMood != "" {
		if req.SecondaryMood, err = signal.ParseMood(o.secondaryMood); err != nil {
			return req, fmt.Errorf("--secondary-mood: %w", err)
		}
	}
	if o.session != "" {
		if req.SessionLength, err = signal.ParseSessionLength(o.session); err != nil {
			return req, fmt.Errorf("--session: %w", err)
		}
	}
	if o.timeOfDay != "" {
		if req.TimeOfDay, err = signal.ParseTimeOfDay(o.timeOfDay); err != nil {
			return req, fmt.Errorf("--time: %w", err)
		}
	}
	if cmd.Flags().Changed("persona-weight") {
		w := o.personaWeight
		req.PersonaWeight = &w
	}
	return req, nil
}

func writeMatches(w io.Writer, resp *recommend.Response) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "request %s", resp.Metadata.RequestID)
	if resp.Metadata.Fallback != "" {
		fmt.Fprintf(tw, " (fallback: %s)", resp.Metadata.Fallback)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "RANK\tID\tTITLE\tSCORE\tREASONS")
	for i := range resp.Matches {
		m := &resp.Matches[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%s\n", i+1, m.ItemID, m.Title, m.Score, strings.Join(m.Reasons, "; "))
	}
	return tw.Flush()
}
