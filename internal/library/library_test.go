// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package library

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/playwise/internal/signal"
)

func newTestMemory() *Memory {
	return NewMemory(signal.NewNormalizer(signal.DefaultOptions()), zerolog.New(io.Discard))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func ids(items []signal.ContextualItem) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].ID
	}
	return out
}

func TestMemory_SharedAndUser(t *testing.T) {
	m := newTestMemory()
	ctx := context.Background()

	report := m.SetShared([]signal.RawItem{
		{ID: "hades", Title: "Hades", Moods: []string{"energetic"}},
		{ID: "", Title: "No ID"},
		{ID: "celeste", Title: "Celeste", Moods: []string{"focused"}},
	})
	if report.Normalized != 2 || report.Skipped != 1 {
		t.Errorf("report = %+v, want 2 normalized 1 skipped", report)
	}
	m.SetUser("u2", []signal.RawItem{{ID: "stardew", Title: "Stardew Valley", Moods: []string{"cozy"}}})

	tests := []struct {
		user string
		want []string
	}{
		{"u1", []string{"hades", "celeste"}},
		{"u2", []string{"stardew"}},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			items, err := m.Items(ctx, tt.user)
			if err != nil {
				t.Fatalf("Items() error = %v", err)
			}
			got := ids(items)
			if len(got) != len(tt.want) {
				t.Fatalf("Items() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Items()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, ok := m.LookupItem(ctx, "u1", "hades"); !ok {
		t.Error("LookupItem(u1, hades) not found")
	}
	if _, ok := m.LookupItem(ctx, "u2", "hades"); ok {
		t.Error("LookupItem(u2, hades) found in shared catalog, want personal library only")
	}

	m.SetUser("u2", nil)
	if _, ok := m.LookupItem(ctx, "u2", "hades"); !ok {
		t.Error("u2 should fall back to the shared catalog after removal")
	}
}

func TestMemory_ItemsIsCopy(t *testing.T) {
	m := newTestMemory()
	m.SetShared([]signal.RawItem{{ID: "hades", Title: "Hades"}})

	items, _ := m.Items(context.Background(), "u1")
	items[0].ID = "mutated"

	again, _ := m.Items(context.Background(), "u1")
	if again[0].ID != "hades" {
		t.Errorf("catalog mutated through Items result: %q", again[0].ID)
	}
}

func TestMemory_CanceledContext(t *testing.T) {
	m := newTestMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Items(ctx, "u1"); err == nil {
		t.Error("Items() with canceled context returned nil error")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		content    string
		wantShared int
		wantUsers  int
		wantErr    bool
	}{
		{
			name: "yaml document",
			file: "library.yaml",
			content: `
items:
  - id: hades
    title: Hades
    moods: [energetic, competitive]
    genres: [roguelike, action]
    average_session_minutes: 25
users:
  u1:
    - id: celeste
      title: Celeste
      moods: [focused]
`,
			wantShared: 1,
			wantUsers:  1,
		},
		{
			name: "yaml list",
			file: "library.yml",
			content: `
- id: hades
  title: Hades
- id: celeste
  title: Celeste
`,
			wantShared: 2,
		},
		{
			name:       "json document",
			file:       "library.json",
			content:    `{"items":[{"id":"hades","title":"Hades"}],"users":{"u1":[{"id":"a","title":"A"}],"u2":[{"id":"b","title":"B"}]}}`,
			wantShared: 1,
			wantUsers:  2,
		},
		{
			name:       "json list",
			file:       "library.json",
			content:    `[{"id":"hades","title":"Hades"},{"id":"celeste","title":"Celeste"},{"title":"broken"}]`,
			wantShared: 2,
		},
		{name: "empty yaml", file: "empty.yaml", content: ""},
		{name: "bad json", file: "bad.json", content: `{"items":`, wantErr: true},
		{name: "unknown extension", file: "library.toml", content: `items = []`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			m := newTestMemory()
			_, err := m.Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			shared, users := m.Len()
			if shared != tt.wantShared || users != tt.wantUsers {
				t.Errorf("Len() = (%d, %d), want (%d, %d)", shared, users, tt.wantShared, tt.wantUsers)
			}
		})
	}
}

func TestLoad_Normalizes(t *testing.T) {
	path := writeFile(t, "library.yaml", `
items:
  - id: hades
    title: Hades
    moods: [Energetic, chill, energetic]
    average_session_minutes: 25
`)
	m := newTestMemory()
	if _, err := m.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	item, ok := m.LookupItem(context.Background(), "anyone", "hades")
	if !ok {
		t.Fatal("hades not found")
	}
	if item.SessionLength != signal.SessionShort {
		t.Errorf("SessionLength = %q, want short", item.SessionLength)
	}
	if !item.HasMood(signal.MoodEnergetic) || !item.HasMood(signal.MoodZen) || len(item.Moods) != 2 {
		t.Errorf("Moods = %v, want [energetic zen]", item.Moods)
	}
}

func TestLoad_ReplacesUsers(t *testing.T) {
	m := newTestMemory()
	m.SetUser("stale", []signal.RawItem{{ID: "x", Title: "X"}})

	path := writeFile(t, "library.json", `{"items":[{"id":"hades","title":"Hades"}]}`)
	if _, err := m.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, users := m.Len(); users != 0 {
		t.Errorf("user libraries = %d after reload, want 0", users)
	}
}

func TestOpen(t *testing.T) {
	m, err := Open(Config{}, nil, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if shared, _ := m.Len(); shared != 0 {
		t.Errorf("shared = %d, want 0", shared)
	}

	if _, err := Open(Config{Path: filepath.Join(t.TempDir(), "missing.yaml")}, nil, zerolog.New(io.Discard)); err == nil {
		t.Error("Open() with missing file returned nil error")
	}
}
