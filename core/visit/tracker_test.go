package visit

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a KVStore backed by a plain map.
type mapStore struct {
	data map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]string)}
}

func (s *mapStore) Get(_ context.Context, key, def string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.data[key] = value
	return nil
}

func TestTracker_RecordDeduplicates(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newMapStore(), nil)

	require.NoError(t, tracker.Record(ctx, "", "home"))
	require.NoError(t, tracker.Record(ctx, "", "home"))

	pages, err := tracker.Visited(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, pages)
}

func TestTracker_RecordDistinctPages(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newMapStore(), nil)

	want := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		page := fmt.Sprintf("page-%d", i)
		want = append(want, page)
		require.NoError(t, tracker.Record(ctx, "", page))
	}

	pages, err := tracker.Visited(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, want, pages)
	assert.Len(t, pages, 10)
}

func TestTracker_MissingValueIsEmptySet(t *testing.T) {
	pages, err := NewTracker(newMapStore(), nil).Visited(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestTracker_CorruptValueIsEmptySet(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.data[StoreKey] = "{not json["

	tracker := NewTracker(store, nil)

	pages, err := tracker.Visited(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pages)

	// recording after corruption starts from an empty set
	require.NoError(t, tracker.Record(ctx, "", "upload"))
	pages, err = tracker.Visited(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"upload"}, pages)
}

func TestTracker_PerClientScoping(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newMapStore(), nil)

	require.NoError(t, tracker.Record(ctx, "alice", "browse"))
	require.NoError(t, tracker.Record(ctx, "bob", "upload"))

	visited, err := tracker.HasVisited(ctx, "alice", "browse")
	require.NoError(t, err)
	assert.True(t, visited)

	visited, err = tracker.HasVisited(ctx, "alice", "upload")
	require.NoError(t, err)
	assert.False(t, visited)
}

func TestTracker_BlankPageIsIgnored(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newMapStore(), nil)

	require.NoError(t, tracker.Record(ctx, "", "   "))
	pages, err := tracker.Visited(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pages)
}
