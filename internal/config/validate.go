// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/playwise/internal/logging"
	"github.com/tomtom215/playwise/internal/validation"
)

// Validate checks struct tags first, then each section's own rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	var errs []error
	section := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	for name, level := range c.Logging.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			section("logging.components."+name, err)
		}
	}

	_, err := c.Normalizer.Options()
	section("normalizer", err)
	section("context", c.Context.Validate())
	section("scoring", c.Scoring.Validate())
	section("learning", c.Learning.Validate())
	section("observability", c.Observability.Validate())
	section("eventbus", c.EventBus.Validate())

	return errors.Join(errs...)
}
