package session

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/queryloom/internal/dataset"
	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

func newStore(t *testing.T, clk clockwork.Clock) *Store {
	t.Helper()
	s := New(Config{Clock: clk, MaxTurns: 3})
	t.Cleanup(s.Close)
	return s
}

func sales() *dataset.Dataset {
	return dataset.New("sales", []string{"region", "revenue"}, [][]string{{"North", "10"}, {"South", "20"}, {"North", "5"}})
}

func TestPutAndSnapshot(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	s := newStore(t, clk)

	id := s.Put(sales())
	require.NotEmpty(t, id)
	snap, ok := s.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, 3, snap.Dataset.NumRows())
	assert.Equal(t, clk.Now(), snap.LoadedAt)
	c, ok := snap.Schema.Lookup("revenue")
	require.True(t, ok)
	assert.Equal(t, profile.Numeric, c.Type)

	_, ok = s.Snapshot("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestPutProfiledSharesOneSchema(t *testing.T) {
	s := newStore(t, clockwork.NewFakeClock())
	ds := sales()
	schema := profile.Profile(ds)
	schema.Rows = 42 // marks the caller's copy

	a, b := s.PutProfiled(ds, schema), s.PutProfiled(ds, schema)
	require.NotEqual(t, a, b)
	for _, id := range []string{a, b} {
		snap, ok := s.Snapshot(id)
		require.True(t, ok)
		assert.Equal(t, 42, snap.Schema.Rows)
		assert.Same(t, ds, snap.Dataset)
	}
	assert.Equal(t, 2, s.Len())
}

func TestRecordStampsAndCapsHistory(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	s := newStore(t, clk)
	id := s.Put(sales())

	cats := []intent.Category{intent.Aggregation, intent.Unknown, intent.Ranking, intent.Trend}
	for _, c := range cats {
		require.NoError(t, s.Record(id, Turn{Utterance: string(c), Category: c}))
		clk.Advance(time.Minute)
	}
	snap, _ := s.Snapshot(id)
	require.Len(t, snap.Turns, 3)
	assert.Equal(t, "unknown", snap.Turns[0].Utterance)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 5, 5, 0, time.UTC), snap.Turns[0].At)
	assert.Equal(t, []intent.Category{intent.Ranking, intent.Trend}, snap.Recent(0))
	assert.Equal(t, []intent.Category{intent.Trend}, snap.Recent(1))

	assert.ErrorIs(t, s.Record("missing", Turn{}), ErrNotFound)
}

func TestSnapshotIsIsolatedFromLaterTurns(t *testing.T) {
	s := newStore(t, clockwork.NewFakeClock())
	id := s.Put(sales())
	require.NoError(t, s.Record(id, Turn{Utterance: "first"}))
	before, _ := s.Snapshot(id)
	require.NoError(t, s.Record(id, Turn{Utterance: "second"}))
	assert.Len(t, before.Turns, 1)
}

func TestReplaceKeepsHistory(t *testing.T) {
	s := newStore(t, clockwork.NewFakeClock())
	id := s.Put(sales())
	require.NoError(t, s.Record(id, Turn{Utterance: "total revenue", Category: intent.Aggregation}))

	next := dataset.New("costs", []string{"date", "cost"}, [][]string{{"2024-01-01", "3"}, {"2024-01-02", "4"}})
	require.NoError(t, s.Replace(id, next))
	snap, _ := s.Snapshot(id)
	assert.Equal(t, "costs", snap.Dataset.Name())
	assert.Len(t, snap.Schema.Temporal(), 1)
	assert.Len(t, snap.Turns, 1)

	assert.ErrorIs(t, s.Replace("missing", next), ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newStore(t, clockwork.NewFakeClock())
	id := s.Put(sales())
	s.Delete(id)
	_, ok := s.Snapshot(id)
	assert.False(t, ok)
}

func TestConcurrentRecord(t *testing.T) {
	s := New(Config{MaxTurns: 1000})
	t.Cleanup(s.Close)
	id := s.Put(sales())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Record(id, Turn{Utterance: "q"})
			_, _ = s.Snapshot(id)
		}()
	}
	wg.Wait()
	snap, _ := s.Snapshot(id)
	assert.Len(t, snap.Turns, 50)
}
