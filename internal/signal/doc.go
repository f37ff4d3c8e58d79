// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

/*
Package signal turns raw library and session records into canonical ContextualItems.

It owns the closed vocabularies every other package uses:

  - Mood: energetic, zen, focused, social, adventurous, competitive, creative,
    nostalgic, cozy, melancholy
  - Genre: action, adventure, rpg, strategy, puzzle, simulation, sports, racing,
    shooter, horror, platformer, fighting, casual, sandbox, survival, roguelike
  - SessionLength: short, medium, long
  - TimeOfDay: morning, afternoon, evening, late-night

Free text enters the system only through ParseMood, ParseGenre, ParseSessionLength
and ParseTimeOfDay. Each accepts any casing and a table of synonyms
("chill" and "relaxed" map to zen, "hype" to energetic, "sim" to simulation, ...).

# Normalization

Normalizer.Normalize is a pure function of its input and Options:

	n := signal.NewNormalizer(signal.DefaultOptions())
	items, report := n.Normalize(rawItems)

Session length is taken from an explicit tag when present, otherwise from the
average session minutes (<30 short, 30-120 medium, >120 long), otherwise medium.

Recommended times come from explicit tags or from weighted heuristic rules. A rule
fires when its strength is at least 1 - Aggressiveness, so raising Aggressiveness
admits weaker inferences. When nothing fires the item is recommended for the evening.
Items without any mood tags get moods inferred from their genres under the same gate.

Records missing an id or title are skipped and counted in the Report.
*/
package signal
