// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/playwise/internal/models"
)

// Key prefixes. User-scoped keys are "<prefix><userID>:..." so that one prefix
// scan per kind finds everything DeleteUser must erase.
const (
	prefixProfile    = "profile:"
	prefixSelection  = "sel:"
	prefixAction     = "act:"
	prefixRecommend  = "rec:"
	prefixPrediction = "pred:"
	prefixPatterns   = "patterns:"
	prefixLearning   = "lmetrics:"
	prefixHealth     = "health:"

	keyTimeLayout = "20060102T150405.000000000"
)

var userPrefixes = []string{prefixSelection, prefixAction, prefixRecommend, prefixPrediction}

// kvTxn is one read or read-write transaction.
type kvTxn interface {
	get(key string) ([]byte, error) // ErrNotFound when absent
	set(key string, val []byte) error
	del(key string) error
	// scan visits keys with prefix in ascending order.
	scan(prefix string, fn func(key string, val []byte) error) error
}

// kvEngine is the ordered key-value primitive under KVStore.
type kvEngine interface {
	view(fn func(kvTxn) error) error
	update(fn func(kvTxn) error) error
	ping() error
	close() error
}

// KVStore implements Store over an ordered key-value engine.
type KVStore struct {
	engine  kvEngine
	backend string
	closed  atomic.Bool
}

func newKVStore(engine kvEngine, backend string) *KVStore {
	return &KVStore{engine: engine, backend: backend}
}

// Backend returns the backend name.
func (s *KVStore) Backend() string { return s.backend }

// eventKey addresses an event by ID alone, so a resubmitted event maps to the
// row already stored whatever its timestamp. Listings sort by time on read.
func eventKey(prefix, userID string, id uuid.UUID) string {
	return prefix + userID + ":" + id.String()
}

func (s *KVStore) begin(ctx context.Context, userID string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID != "" {
		return checkUserID(userID)
	}
	return nil
}

func (s *KVStore) GetProfile(ctx context.Context, userID string) (*models.PersonaProfile, error) {
	if err := s.begin(ctx, userID); err != nil {
		return nil, err
	}
	var p models.PersonaProfile
	err := s.engine.view(func(tx kvTxn) error {
		data, err := tx.get(prefixProfile + userID)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *KVStore) PutProfile(ctx context.Context, p *models.PersonaProfile, expected int64) error {
	if err := s.begin(ctx, p.UserID); err != nil {
		return err
	}
	key := prefixProfile + p.UserID
	return s.engine.update(func(tx kvTxn) error {
		current := int64(0)
		data, err := tx.get(key)
		switch {
		case err == nil:
			var stored struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(data, &stored); err != nil {
				return fmt.Errorf("decode stored profile: %w", err)
			}
			current = stored.Version
		case !isNotFound(err):
			return err
		}
		if current != expected {
			return fmt.Errorf("%w: user %s has version %d, expected %d", ErrVersionConflict, p.UserID, current, expected)
		}

		next := p.Clone()
		next.Version = expected + 1
		out, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		if err := tx.set(key, out); err != nil {
			return err
		}
		p.Version = next.Version
		return nil
	})
}

func (s *KVStore) AppendMoodSelection(ctx context.Context, sel *models.MoodSelection) error {
	return appendRecord(ctx, s, eventKey(prefixSelection, sel.UserID, sel.ID), sel.UserID, sel)
}

func (s *KVStore) MoodSelections(ctx context.Context, userID string, from time.Time) ([]models.MoodSelection, error) {
	out, err := listRecords(ctx, s, prefixSelection+userID+":", userID, func(r *models.MoodSelection) bool {
		return since(r.CreatedAt, from)
	})
	sortSelections(out)
	return out, err
}

func (s *KVStore) AppendUserAction(ctx context.Context, action *models.UserAction) error {
	return appendRecord(ctx, s, eventKey(prefixAction, action.UserID, action.ID), action.UserID, action)
}

func (s *KVStore) UserActions(ctx context.Context, userID string, from time.Time) ([]models.UserAction, error) {
	out, err := listRecords(ctx, s, prefixAction+userID+":", userID, func(r *models.UserAction) bool {
		return since(r.CreatedAt, from)
	})
	sortActions(out)
	return out, err
}

func (s *KVStore) AppendRecommendationEvent(ctx context.Context, event *models.RecommendationEvent) error {
	return appendRecord(ctx, s, eventKey(prefixRecommend, event.UserID, event.ID), event.UserID, event)
}

func (s *KVStore) RecommendationEvents(ctx context.Context, userID string, from time.Time) ([]models.RecommendationEvent, error) {
	out, err := listRecords(ctx, s, prefixRecommend+userID+":", userID, func(r *models.RecommendationEvent) bool {
		return since(r.CreatedAt, from)
	})
	sortRecommendations(out)
	return out, err
}

func (s *KVStore) PutPrediction(ctx context.Context, p *models.MoodPrediction) error {
	return putRecord(ctx, s, prefixPrediction+p.UserID+":"+p.ID.String(), p.UserID, p)
}

func (s *KVStore) GetPrediction(ctx context.Context, userID string, id uuid.UUID) (*models.MoodPrediction, error) {
	return getRecord[models.MoodPrediction](ctx, s, prefixPrediction+userID+":"+id.String(), userID)
}

func (s *KVStore) Predictions(ctx context.Context, userID string, from time.Time) ([]models.MoodPrediction, error) {
	out, err := listRecords(ctx, s, prefixPrediction+userID+":", userID, func(r *models.MoodPrediction) bool {
		return since(r.CreatedAt, from)
	})
	sortPredictions(out)
	return out, err
}

func (s *KVStore) PutMoodPatterns(ctx context.Context, userID string, patterns []models.MoodPattern) error {
	if patterns == nil {
		patterns = []models.MoodPattern{}
	}
	return putRecord(ctx, s, prefixPatterns+userID, userID, &patterns)
}

func (s *KVStore) MoodPatterns(ctx context.Context, userID string) ([]models.MoodPattern, error) {
	p, err := getRecord[[]models.MoodPattern](ctx, s, prefixPatterns+userID, userID)
	if err != nil {
		return nil, err
	}
	sortPatterns(*p)
	return *p, nil
}

func (s *KVStore) PutLearningMetrics(ctx context.Context, m *models.LearningMetrics) error {
	return putRecord(ctx, s, prefixLearning+m.UserID, m.UserID, m)
}

func (s *KVStore) LearningMetrics(ctx context.Context, userID string) (*models.LearningMetrics, error) {
	return getRecord[models.LearningMetrics](ctx, s, prefixLearning+userID, userID)
}

func (s *KVStore) PutHealthSnapshot(ctx context.Context, snap *models.HealthSnapshot) error {
	return putRecord(ctx, s, prefixHealth+snap.TakenAt.UTC().Format(keyTimeLayout)+":"+snap.ID.String(), "", snap)
}

func (s *KVStore) LatestHealthSnapshot(ctx context.Context) (*models.HealthSnapshot, error) {
	if err := s.begin(ctx, ""); err != nil {
		return nil, err
	}
	var latest []byte
	err := s.engine.view(func(tx kvTxn) error {
		return tx.scan(prefixHealth, func(_ string, val []byte) error {
			latest = val
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	var snap models.HealthSnapshot
	if err := json.Unmarshal(latest, &snap); err != nil {
		return nil, fmt.Errorf("decode health snapshot: %w", err)
	}
	return &snap, nil
}

func (s *KVStore) DeleteUser(ctx context.Context, userID string) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	return s.engine.update(func(tx kvTxn) error {
		keys := []string{prefixProfile + userID, prefixPatterns + userID, prefixLearning + userID}
		for _, prefix := range userPrefixes {
			err := tx.scan(prefix+userID+":", func(key string, _ []byte) error {
				keys = append(keys, key)
				return nil
			})
			if err != nil {
				return err
			}
		}
		for _, key := range keys {
			if err := tx.del(key); err != nil && !isNotFound(err) {
				return err
			}
		}
		return nil
	})
}

func (s *KVStore) Ping(ctx context.Context) error {
	if err := s.begin(ctx, ""); err != nil {
		return err
	}
	return s.engine.ping()
}

// Close releases the engine. It is safe to call more than once.
func (s *KVStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.engine.close()
}

func appendRecord[T any](ctx context.Context, s *KVStore, key, userID string, rec *T) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.engine.update(func(tx kvTxn) error {
		if _, err := tx.get(key); err == nil {
			return nil
		} else if !isNotFound(err) {
			return err
		}
		return tx.set(key, data)
	})
}

func putRecord[T any](ctx context.Context, s *KVStore, key, userID string, rec *T) error {
	if err := s.begin(ctx, userID); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return s.engine.update(func(tx kvTxn) error {
		return tx.set(key, data)
	})
}

func getRecord[T any](ctx context.Context, s *KVStore, key, userID string) (*T, error) {
	if err := s.begin(ctx, userID); err != nil {
		return nil, err
	}
	var out T
	err := s.engine.view(func(tx kvTxn) error {
		data, err := tx.get(key)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func listRecords[T any](ctx context.Context, s *KVStore, prefix, userID string, keep func(*T) bool) ([]T, error) {
	if err := s.begin(ctx, userID); err != nil {
		return nil, err
	}
	var out []T
	err := s.engine.view(func(tx kvTxn) error {
		return tx.scan(prefix, func(key string, val []byte) error {
			var rec T
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			if keep(&rec) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
