package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"

	"github.com/KaramelBytes/queryloom/internal/dataset"
	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/metrics"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

// ErrNotFound is returned for an unknown or expired dataset id.
var ErrNotFound = errors.New("dataset not loaded")

// Turn is one answered question.
type Turn struct {
	Utterance string          `json:"utterance"`
	Answer    string          `json:"answer"`
	Category  intent.Category `json:"category"`
	Source    string          `json:"source"`
	At        time.Time       `json:"at"`
}

// Snapshot is an immutable view of a session taken at one instant.
type Snapshot struct {
	ID       string
	Dataset  *dataset.Dataset
	Schema   profile.Schema
	Turns    []Turn
	LoadedAt time.Time
}

// Recent returns the categories of the last n turns, oldest first.
func (s Snapshot) Recent(n int) []intent.Category {
	turns := s.Turns
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	out := make([]intent.Category, 0, len(turns))
	for _, t := range turns {
		if t.Category != "" && t.Category != intent.Unknown {
			out = append(out, t.Category)
		}
	}
	return out
}

type Config struct {
	// TTL evicts sessions idle for longer than this. Zero keeps them an hour.
	TTL time.Duration
	// MaxTurns caps the retained history per session. Zero keeps 20.
	MaxTurns int
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

type entry struct {
	ds       *dataset.Dataset
	schema   profile.Schema
	turns    []Turn
	loadedAt time.Time
}

// Store maps dataset ids to loaded datasets and their conversation. It is
// safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	cache    *ttlcache.Cache[string, *entry]
	clock    clockwork.Clock
	log      *slog.Logger
	maxTurns int
}

func New(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 20
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *entry](cfg.TTL),
	)
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *entry]) {
		metrics.SessionsLive.Dec()
		if reason == ttlcache.EvictionReasonExpired {
			cfg.Logger.Debug("session expired", "dataset_id", item.Key())
		}
	})
	go cache.Start()
	return &Store{cache: cache, clock: cfg.Clock, log: cfg.Logger, maxTurns: cfg.MaxTurns}
}

// Close stops the expiry loop.
func (s *Store) Close() { s.cache.Stop() }

// Put profiles ds, stores it under a fresh id and returns the id.
func (s *Store) Put(ds *dataset.Dataset) string {
	return s.PutProfiled(ds, profile.Profile(ds))
}

// PutProfiled stores ds with a schema the caller already computed, so one
// dataset can back many sessions without being profiled again.
func (s *Store) PutProfiled(ds *dataset.Dataset, schema profile.Schema) string {
	id := uuid.NewString()
	s.cache.Set(id, &entry{ds: ds, schema: schema, loadedAt: s.clock.Now()}, ttlcache.DefaultTTL)
	metrics.SessionsLive.Inc()
	s.log.Debug("dataset loaded", "dataset_id", id, "name", ds.Name(), "rows", ds.NumRows(), "cols", ds.NumCols())
	return id
}

// Replace swaps the dataset behind id wholesale. Conversation history is
// kept; the profile is recomputed.
func (s *Store) Replace(id string, ds *dataset.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.cache.Get(id)
	if item == nil {
		return fmt.Errorf("replace %s: %w", id, ErrNotFound)
	}
	e := s.newEntry(ds)
	e.turns = item.Value().turns
	s.cache.Set(id, e, ttlcache.DefaultTTL)
	return nil
}

func (s *Store) newEntry(ds *dataset.Dataset) *entry {
	return &entry{ds: ds, schema: profile.Profile(ds), loadedAt: s.clock.Now()}
}

// Snapshot returns the current state of a session.
func (s *Store) Snapshot(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.cache.Get(id)
	if item == nil {
		return Snapshot{}, false
	}
	e := item.Value()
	return Snapshot{
		ID:       id,
		Dataset:  e.ds,
		Schema:   e.schema,
		Turns:    append([]Turn(nil), e.turns...),
		LoadedAt: e.loadedAt,
	}, true
}

// Record appends a turn to the session history, stamping it with the
// store's clock when At is zero.
func (s *Store) Record(id string, t Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.cache.Get(id)
	if item == nil {
		return fmt.Errorf("record turn for %s: %w", id, ErrNotFound)
	}
	if t.At.IsZero() {
		t.At = s.clock.Now()
	}
	e := item.Value()
	turns := append(append([]Turn(nil), e.turns...), t)
	if len(turns) > s.maxTurns {
		turns = turns[len(turns)-s.maxTurns:]
	}
	e.turns = turns
	return nil
}

// Delete drops a session.
func (s *Store) Delete(id string) { s.cache.Delete(id) }

// Len is the number of live sessions.
func (s *Store) Len() int { return s.cache.Len() }
