package selection_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ezcode-server/internal/selection"
	"ezcode-server/internal/selection/mocks"
	"ezcode-server/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entry(id string) selection.Entry {
	return selection.Entry{ID: id, Name: "Tool " + id, Category: "AI Assistant", Rating: 4.5, Price: "Free"}
}

func ids(entries []selection.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func newComparison(t *testing.T, kv storage.KV) *selection.Store {
	t.Helper()
	doc := storage.NewDocument[[]selection.Entry](kv, storage.ComparisonKey("s1"), 0)
	s := selection.NewComparisonSet(doc, selection.DefaultComparisonCapacity, zap.NewNop())
	s.Load(context.Background())
	return s
}

func TestParseName(t *testing.T) {
	n, err := selection.ParseName("comparison")
	require.NoError(t, err)
	assert.Equal(t, selection.Comparison, n)

	_, err = selection.ParseName("wishlist")
	assert.ErrorIs(t, err, selection.ErrUnknownSet)
}

func TestStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newComparison(t, storage.NewMemoryKV())

	require.NoError(t, s.Add(ctx, entry("a")))
	require.NoError(t, s.Add(ctx, entry("a")))

	assert.Equal(t, 1, s.Size())
	assert.True(t, s.Contains("a"))
}

func TestStore_CapacityRejectsWithoutMutation(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := newComparison(t, kv)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Add(ctx, entry(id)))
	}
	err := s.Add(ctx, entry("d"))
	assert.ErrorIs(t, err, selection.ErrCapacityExceeded)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Entries()))

	// Дубликат в полном наборе - не ошибка.
	assert.NoError(t, s.Add(ctx, entry("b")))

	reloaded := newComparison(t, kv)
	assert.Equal(t, []string{"a", "b", "c"}, ids(reloaded.Entries()))
}

func TestStore_InvalidEntry(t *testing.T) {
	s := newComparison(t, storage.NewMemoryKV())
	assert.ErrorIs(t, s.Add(context.Background(), selection.Entry{Name: "nameless"}), selection.ErrInvalidEntry)
	_, err := s.Toggle(context.Background(), selection.Entry{})
	assert.ErrorIs(t, err, selection.ErrInvalidEntry)
}

func TestStore_PersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	s := newComparison(t, kv)

	require.NoError(t, s.Add(ctx, entry("a")))
	require.NoError(t, s.Add(ctx, entry("b")))
	s.Remove(ctx, "a")

	doc := storage.NewDocument[[]selection.Entry](kv, storage.ComparisonKey("s1"), 0)
	persisted, found, err := doc.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"b"}, ids(persisted))

	s.Clear(ctx)
	_, found, err = doc.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found, "empty set removes the stored key")
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	p := new(mocks.Persister)
	p.On("Load", mock.Anything).Return([]selection.Entry{entry("a")}, true, nil).Once()

	s := selection.NewFavoriteSet(p, zap.NewNop())
	s.Load(ctx)
	s.Remove(ctx, "zzz")
	p.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	p.On("Delete", mock.Anything).Return(nil).Once()
	s.Clear(ctx)
	s.Clear(ctx)
	p.AssertExpectations(t)
}

func TestStore_Toggle(t *testing.T) {
	ctx := context.Background()
	s := newComparison(t, storage.NewMemoryKV())

	in, err := s.Toggle(ctx, entry("a"))
	require.NoError(t, err)
	assert.True(t, in)

	in, err = s.Toggle(ctx, entry("a"))
	require.NoError(t, err)
	assert.False(t, in)
	assert.Equal(t, 0, s.Size())

	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Toggle(ctx, entry(id))
		require.NoError(t, err)
	}
	_, err = s.Toggle(ctx, entry("d"))
	assert.ErrorIs(t, err, selection.ErrCapacityExceeded)
}

func TestStore_FavoritesUnbounded(t *testing.T) {
	ctx := context.Background()
	doc := storage.NewDocument[[]selection.Entry](storage.NewMemoryKV(), storage.FavoritesKey("s1"), 0)
	s := selection.NewFavoriteSet(doc, zap.NewNop())
	s.Load(ctx)

	for i := 0; i < 50; i++ {
		require.NoError(t, s.Add(ctx, entry(string(rune('A'+i)))))
	}
	assert.Equal(t, 50, s.Size())
	assert.Equal(t, 0, s.Capacity())
}

func TestStore_LoadFailureStartsEmpty(t *testing.T) {
	ctx := context.Background()
	p := new(mocks.Persister)
	p.On("Load", mock.Anything).Return(nil, false, storage.ErrCorrupt).Once()

	s := selection.NewComparisonSet(p, 0, zap.NewNop())
	s.Load(ctx)
	s.Load(ctx) // повторная загрузка не читает хранилище

	assert.Equal(t, 0, s.Size())
	assert.Equal(t, selection.DefaultComparisonCapacity, s.Capacity())
	p.AssertExpectations(t)
}

func TestStore_LoadNormalizesPersistedList(t *testing.T) {
	ctx := context.Background()
	p := new(mocks.Persister)
	p.On("Load", mock.Anything).Return([]selection.Entry{
		entry("a"), entry("a"), {Name: "no id"}, entry("b"), entry("c"), entry("d"),
	}, true, nil)

	s := selection.NewComparisonSet(p, 3, zap.NewNop())
	s.Load(ctx)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Entries()))
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	p := new(mocks.Persister)
	p.On("Load", mock.Anything).Return(nil, false, nil)
	p.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	s := selection.NewFavoriteSet(p, zap.NewNop())
	s.Load(ctx)
	require.NoError(t, s.Add(ctx, entry("a")))
	assert.True(t, s.Contains("a"))
}

func TestStore_SubscribersSeeEveryMutationInOrder(t *testing.T) {
	ctx := context.Background()
	s := newComparison(t, storage.NewMemoryKV())

	var got []selection.Event
	unsubscribe := s.Subscribe(func(e selection.Event) { got = append(got, e) })

	require.NoError(t, s.Add(ctx, entry("a")))
	require.NoError(t, s.Add(ctx, entry("b")))
	require.NoError(t, s.Add(ctx, entry("a"))) // без события
	s.Remove(ctx, "a")
	unsubscribe()
	unsubscribe()
	s.Clear(ctx)

	require.Len(t, got, 3)
	assert.Equal(t, selection.EventAdded, got[0].Kind)
	assert.Equal(t, "a", got[0].EntryID)
	assert.Equal(t, []string{"a", "b"}, ids(got[1].Entries))
	assert.Equal(t, selection.EventRemoved, got[2].Kind)
	assert.Equal(t, []string{"b"}, ids(got[2].Entries))
	assert.Equal(t, selection.Comparison, got[2].Set)
}

func TestStore_CloseNotifiesAndDropsListeners(t *testing.T) {
	ctx := context.Background()
	s := newComparison(t, storage.NewMemoryKV())

	var kinds []selection.EventKind
	s.Subscribe(func(e selection.Event) { kinds = append(kinds, e.Kind) })
	s.Close()
	require.NoError(t, s.Add(ctx, entry("a")))

	assert.Equal(t, []selection.EventKind{selection.EventClosed}, kinds)
}

func TestStore_ConcurrentAddsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	s := newComparison(t, storage.NewMemoryKV())

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Add(ctx, entry(string(rune('a'+i)))); errors.Is(err, selection.ErrCapacityExceeded) {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, s.Size())
	assert.Equal(t, 17, rejected)
}

func TestStore_ConcurrentTogglesAlternate(t *testing.T) {
	ctx := context.Background()
	s := newComparison(t, storage.NewMemoryKV())

	const toggles = 40
	var wg sync.WaitGroup
	var mu sync.Mutex
	selected := 0
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in, err := s.Toggle(ctx, entry("a"))
			assert.NoError(t, err)
			if in {
				mu.Lock()
				selected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, toggles/2, selected)
	assert.False(t, s.Contains("a"))
}

func TestStore_PersistsAfterRequestCancelled(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := newComparison(t, kv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Add(ctx, entry("a")))

	doc := storage.NewDocument[[]selection.Entry](kv, storage.ComparisonKey("s1"), 0)
	persisted, found, err := doc.Load(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a"}, ids(persisted))
}
