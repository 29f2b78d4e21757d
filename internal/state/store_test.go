package state

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/statekit/internal/retry"
)

func newItemStore(t *testing.T, opts ...Option) *Store[int, item] {
	t.Helper()
	s := NewStore[int, item](testConfig(), opts...)
	t.Cleanup(s.Close)
	return s
}

// pages serves items in fixed pages and counts fetches.
type pages struct {
	items []item
	calls atomic.Int32
}

func (p *pages) fetch(_ context.Context, page, pageSize int) ([]item, error) {
	p.calls.Add(1)
	start := page * pageSize
	if start >= len(p.items) {
		return nil, nil
	}
	end := min(start+pageSize, len(p.items))
	return append([]item(nil), p.items[start:end]...), nil
}

func seq(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{ID: i + 1, Name: string(rune('a' + i))}
	}
	return out
}

func TestStoreUpdateAndCommit(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success([]item{{ID: 1, Name: "a"}}))

	s.Update(1, Assign(nameField, "b"))
	assert.Equal(t, []item{{ID: 1, Name: "b"}}, s.AllModels())
	committed, _ := s.State().Data()
	assert.Equal(t, "a", committed[0].Name)
	assert.True(t, s.HasMutationsFor(1))

	s.Commit()
	data, _ := s.State().Data()
	assert.Equal(t, []item{{ID: 1, Name: "b"}}, data)
	assert.True(t, s.State().IsSuccess())
	assert.False(t, s.HasMutationsFor(1))
	assert.False(t, s.HasMutations())
}

func TestStoreCommitLeavesUntouchedModels(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(3)))
	s.Update(2, Assign(doneField, true))
	s.Commit()

	data, _ := s.State().Data()
	assert.Equal(t, []item{{ID: 1, Name: "a"}, {ID: 2, Name: "b", Done: true}, {ID: 3, Name: "c"}}, data)
}

func TestStoreMutationForUnknownKeyIsInert(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(1)))
	s.Update(99, Assign(nameField, "ghost"))

	assert.True(t, s.HasMutationsFor(99))
	assert.Equal(t, seq(1), s.AllModels())
	_, ok := s.Model(99)
	assert.False(t, ok)
}

func TestStoreModel(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(2)))
	s.Update(2, Assign(nameField, "z"))

	m, ok := s.Model(2)
	require.True(t, ok)
	assert.Equal(t, "z", m.Name)
}

func TestStoreAllModelsReturnsCopy(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(2)))

	first := s.AllModels()
	first[0].Name = "mutated"
	assert.Equal(t, "a", s.AllModels()[0].Name)
}

func TestStoreUpdateWithoutDataIsIgnored(t *testing.T) {
	s := newItemStore(t)
	s.Update(1, Assign(nameField, "b"))
	assert.False(t, s.HasMutations())
}

func TestStoreDiscardKey(t *testing.T) {
	s := newItemStore(t, WithUndoRedo())
	s.SetState(Success(seq(2)))
	s.Update(1, Assign(nameField, "x"))
	s.Update(2, Assign(nameField, "y"))

	s.DiscardKey(1)
	assert.False(t, s.HasMutationsFor(1))
	assert.True(t, s.HasMutationsFor(2))

	s.Undo()
	assert.True(t, s.HasMutationsFor(1))

	s.Discard()
	assert.False(t, s.HasMutations())
}

func TestStoreUndoRedoRoundTrip(t *testing.T) {
	s := newItemStore(t, WithUndoRedo())
	s.SetState(Success(seq(2)))
	s.Update(1, Assign(nameField, "x"))
	s.Update(2, Assign(doneField, true))
	want := s.AllModels()

	s.Undo()
	assert.False(t, s.HasMutationsFor(2))
	assert.True(t, s.HasMutationsFor(1))

	s.Redo()
	assert.Equal(t, want, s.AllModels())
}

func TestStoreUndoDoesNotAliasHistory(t *testing.T) {
	s := newItemStore(t, WithUndoRedo())
	s.SetState(Success(seq(1)))
	s.Update(1, Assign(nameField, "x"))
	s.Update(1, Assign(nameField, "y"))

	s.Undo()
	assert.Equal(t, "x", s.AllModels()[0].Name)
	s.Undo()
	assert.Equal(t, "a", s.AllModels()[0].Name)
	assert.False(t, s.CanUndo())
}

func TestStoreLoadPageHasMore(t *testing.T) {
	src := &pages{items: seq(3)}
	s := newItemStore(t)

	s.LoadPage(context.Background(), 0, false, retry.NoRetry(), src.fetch)
	assert.True(t, s.HasMorePages())
	assert.Equal(t, 0, s.CurrentPage())

	s.LoadPage(context.Background(), 1, true, retry.NoRetry(), src.fetch)
	assert.False(t, s.HasMorePages())
	assert.Equal(t, 1, s.CurrentPage())
	assert.Equal(t, seq(3), s.AllModels())
}

func TestStoreLoadNextPage(t *testing.T) {
	src := &pages{items: seq(3)}
	s := newItemStore(t)

	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)
	assert.Equal(t, seq(2), s.AllModels())

	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)
	assert.Equal(t, seq(3), s.AllModels())
	require.False(t, s.HasMorePages())
	require.EqualValues(t, 2, src.calls.Load())

	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestStoreFullFinalPageNeedsOneMoreFetch(t *testing.T) {
	src := &pages{items: seq(4)}
	s := newItemStore(t)

	s.Refresh(context.Background(), retry.NoRetry(), src.fetch)
	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)
	assert.True(t, s.HasMorePages())

	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)
	assert.False(t, s.HasMorePages())
	assert.Equal(t, seq(4), s.AllModels())
	assert.Equal(t, 2, s.CurrentPage())
}

func TestStoreLoadNextPageSkippedWhileLoading(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(2)))

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	slow := func(ctx context.Context, page, _ int) ([]item, error) {
		calls.Add(1)
		close(started)
		<-release
		return []item{{ID: 10}}, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.LoadNextPage(context.Background(), retry.NoRetry(), slow)
	}()
	<-started

	s.LoadNextPage(context.Background(), retry.NoRetry(), func(context.Context, int, int) ([]item, error) {
		calls.Add(1)
		return nil, nil
	})
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, append(seq(2), item{ID: 10}), s.AllModels())
	assert.Equal(t, 1, s.CurrentPage())
}

func TestStoreRefreshReplaces(t *testing.T) {
	src := &pages{items: seq(3)}
	s := newItemStore(t)
	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)
	s.LoadNextPage(context.Background(), retry.NoRetry(), src.fetch)

	src.items = []item{{ID: 7, Name: "new"}}
	s.Refresh(context.Background(), retry.NoRetry(), src.fetch)
	assert.Equal(t, src.items, s.AllModels())
	assert.Equal(t, 0, s.CurrentPage())
	assert.False(t, s.HasMorePages())
}

func TestStoreLoadFailureKeepsPreviousData(t *testing.T) {
	s := newItemStore(t)
	s.Load(context.Background(), "all", retry.NoRetry(), func(context.Context) ([]item, error) {
		return seq(2), nil
	})
	s.Load(context.Background(), "all", fastPolicy(2), func(context.Context) ([]item, error) {
		return nil, errors.New("unreachable")
	})

	st := s.State()
	require.True(t, st.IsFailure())
	assert.Equal(t, "unreachable", st.StateErr().Message)
	data, _ := st.Data()
	assert.Equal(t, seq(2), data)
}

func TestStoreCancelPageLoad(t *testing.T) {
	s := newItemStore(t)
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.LoadPage(context.Background(), 3, false, retry.NoRetry(), func(ctx context.Context, _, _ int) ([]item, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
	}()
	<-started
	s.Cancel("load_page_3")
	<-done

	assert.ErrorIs(t, s.State().Err(), ErrCancelled)
	assert.True(t, s.HasMorePages())
}

func TestStoreDifferentPagesLoadIndependently(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(2)))

	started := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	release := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	var cancelled atomic.Int32
	op := func(ctx context.Context, page, _ int) ([]item, error) {
		close(started[page])
		select {
		case <-release[page]:
			return []item{{ID: page * 10}, {ID: page*10 + 1}}, nil
		case <-ctx.Done():
			cancelled.Add(1)
			return nil, ctx.Err()
		}
	}

	done := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	for _, page := range []int{1, 2} {
		go func() {
			defer close(done[page])
			s.LoadPage(context.Background(), page, true, retry.NoRetry(), op)
		}()
	}
	<-started[1]
	<-started[2]

	close(release[1])
	<-done[1]
	close(release[2])
	<-done[2]

	assert.Zero(t, cancelled.Load())
	assert.True(t, s.State().IsSuccess())
	assert.Equal(t, append(seq(2), item{ID: 10}, item{ID: 11}, item{ID: 20}, item{ID: 21}), s.AllModels())
	assert.Equal(t, 2, s.CurrentPage())
}

func TestStoreSamePageReplacesInFlightRequest(t *testing.T) {
	s := newItemStore(t)
	s.SetState(Success(seq(2)))

	started := make(chan struct{})
	firstErr := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.LoadPage(context.Background(), 1, true, retry.NoRetry(), func(ctx context.Context, _, _ int) ([]item, error) {
			close(started)
			<-ctx.Done()
			firstErr <- ctx.Err()
			return []item{{ID: 99}}, nil
		})
	}()
	<-started
	require.True(t, s.loads.tasks.Running(PageTaskID(1)))

	s.LoadPage(context.Background(), 1, true, retry.NoRetry(), func(context.Context, int, int) ([]item, error) {
		return []item{{ID: 10}, {ID: 11}}, nil
	})
	<-done

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	st := s.State()
	require.True(t, st.IsSuccess())
	assert.Equal(t, append(seq(2), item{ID: 10}, item{ID: 11}), s.AllModels())
	assert.Equal(t, 1, s.CurrentPage())
}

func TestStoreConcurrentSameIDLoadsLastCallerWins(t *testing.T) {
	for round := range 500 {
		s := NewStore[int, item](testConfig())
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				s.LoadPage(context.Background(), 0, false, fastPolicy(1), func(context.Context, int, int) ([]item, error) {
					return []item{{ID: i}}, nil
				})
			}()
		}
		close(start)
		wg.Wait()

		st := s.State()
		s.Close()
		require.Truef(t, st.IsSuccess(), "round %d: state = %v", round, st)
	}
}

func TestStoreCloseRacingLoad(t *testing.T) {
	for round := range 200 {
		s := NewStore[int, item](testConfig())
		start := make(chan struct{})
		loaded := make(chan struct{})
		go func() {
			defer close(loaded)
			<-start
			s.Load(context.Background(), "all", retry.NoRetry(), func(ctx context.Context) ([]item, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Second):
					return seq(1), nil
				}
			})
		}()

		close(start)
		s.Close()
		afterClose := s.State().Phase()
		<-loaded

		st := s.State()
		require.Falsef(t, st.IsSuccess(), "round %d: load outlived Close", round)
		require.Equalf(t, afterClose, st.Phase(), "round %d: state changed after Close", round)
	}
}

func TestStoreSetStateResetsPagination(t *testing.T) {
	src := &pages{items: seq(1)}
	s := newItemStore(t, WithUndoRedo())
	s.Refresh(context.Background(), retry.NoRetry(), src.fetch)
	s.Update(1, Assign(nameField, "x"))
	require.False(t, s.HasMorePages())

	s.SetState(Success(seq(2)))
	assert.True(t, s.HasMorePages())
	assert.Equal(t, 0, s.CurrentPage())
	assert.False(t, s.HasMutations())
	assert.False(t, s.CanUndo())
}

func TestStoreCloseIgnoresLaterLoads(t *testing.T) {
	s := NewStore[int, item](testConfig())
	ch := s.Subscribe()
	s.Close()

	_, open := <-ch
	assert.False(t, open)

	src := &pages{items: seq(2)}
	s.Refresh(context.Background(), retry.NoRetry(), src.fetch)
	assert.Zero(t, src.calls.Load())
	assert.True(t, s.State().IsIdle())
}
