// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package library

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tomtom215/playwise/internal/signal"
)

// File is the on-disk library document.
type File struct {
	Items []signal.RawItem            `json:"items" yaml:"items"`
	Users map[string][]signal.RawItem `json:"users,omitempty" yaml:"users,omitempty"`
}

// ReadFile decodes a library file. The format follows the extension: .json,
// .yaml or .yml.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read library file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return decodeJSON(data)
	case ".yaml", ".yml":
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported library file extension %q", ext)
	}
}

func decodeJSON(data []byte) (*File, error) {
	f := &File{}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &f.Items); err != nil {
			return nil, fmt.Errorf("decode library json: %w", err)
		}
		return f, nil
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("decode library json: %w", err)
	}
	return f, nil
}

func decodeYAML(data []byte) (*File, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode library yaml: %w", err)
	}
	f := &File{}
	if len(node.Content) == 0 {
		return f, nil
	}
	root := node.Content[0]
	var err error
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&f.Items)
	} else {
		err = root.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode library yaml: %w", err)
	}
	return f, nil
}

// Load replaces the provider contents with the file at path. Users missing from
// the file lose their personal libraries.
func (m *Memory) Load(path string) (signal.Report, error) {
	f, err := ReadFile(path)
	if err != nil {
		return signal.Report{}, err
	}

	items, total := m.normalize(f.Items)
	shared := newCatalog(items)

	userIDs := make([]string, 0, len(f.Users))
	for id := range f.Users {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	users := make(map[string]catalog, len(userIDs))
	for _, id := range userIDs {
		if len(f.Users[id]) == 0 {
			continue
		}
		userItems, report := m.normalize(f.Users[id])
		merge(&total, report)
		users[id] = newCatalog(userItems)
	}

	m.mu.Lock()
	m.shared, m.users = shared, users
	m.mu.Unlock()

	m.logger.Info().
		Str("path", path).
		Int("shared_items", len(shared.items)).
		Int("user_libraries", len(users)).
		Int("skipped", total.Skipped).
		Msg("library loaded")
	return total, nil
}

func merge(dst *signal.Report, src signal.Report) {
	dst.Total += src.Total
	dst.Normalized += src.Normalized
	dst.Skipped += src.Skipped
	dst.UnknownTokens += src.UnknownTokens
	for k, v := range src.SkipReasons {
		if dst.SkipReasons == nil {
			dst.SkipReasons = make(map[string]int)
		}
		dst.SkipReasons[k] += v
	}
	for k, v := range src.RulesFired {
		if dst.RulesFired == nil {
			dst.RulesFired = make(map[string]int)
		}
		dst.RulesFired[k] += v
	}
}

// Open builds a provider from cfg. An empty path yields an empty provider.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, n *signal.Normalizer, logger zerolog.Logger) (*Memory, error) {
	m := NewMemory(n, logger)
	if cfg.Path == "" {
		return m, nil
	}
	if _, err := m.Load(cfg.Path); err != nil {
		return nil, err
	}
	return m, nil
}
