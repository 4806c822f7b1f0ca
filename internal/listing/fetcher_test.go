package listing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookbase/bookbase-admin/internal/metrics"
)

type row struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (r row) Key() int { return r.ID }

// fakeSource serves rows 1..total and records each call.
type fakeSource struct {
	mu    sync.Mutex
	rows  []row
	calls []call
	err   error
}

type call struct {
	query  Query
	offset int
	limit  int
}

func newFakeSource(total int) *fakeSource {
	rows := make([]row, total)
	for i := range rows {
		rows[i] = row{ID: i + 1}
	}
	return &fakeSource{rows: rows}
}

func (s *fakeSource) load(_ context.Context, q Query, offset, limit int) (Page[row], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call{query: q, offset: offset, limit: limit})
	if s.err != nil {
		return Page[row]{}, s.err
	}

	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	if offset > len(s.rows) {
		offset = len(s.rows)
	}
	return Page[row]{Items: append([]row(nil), s.rows[offset:end]...), Total: len(s.rows)}, nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSource) lastCall() call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{1, 1},
		{9, 1},
		{10, 1},
		{11, 2},
		{20, 2},
		{23, 3},
		{100, 10},
	}

	for _, tt := range tests {
		if got := TotalPages(tt.total, 10); got != tt.want {
			t.Errorf("TotalPages(%d, 10) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestFetcher_Search(t *testing.T) {
	t.Parallel()

	src := newFakeSource(23)
	f := New(src.load, Options{View: "books"})

	require.NoError(t, f.Search(context.Background(), Query{Term: "javascript"}))

	st := f.State()
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Len(t, st.Items, 10)
	assert.Equal(t, 23, st.Total)
	assert.Equal(t, 3, st.TotalPages)
	assert.Equal(t, 1, st.CurrentPage)
	assert.Equal(t, "javascript", st.Query.Term)
	assert.Equal(t, call{query: Query{Term: "javascript"}, offset: 0, limit: 10}, src.lastCall())
}

func TestFetcher_PagingGuards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(23)
	f := New(src.load, Options{})
	require.NoError(t, f.Search(ctx, Query{}))

	for _, page := range []int{0, -1, 4, 100} {
		moved, err := f.GoTo(ctx, page)
		require.NoError(t, err)
		assert.False(t, moved, "page %d", page)
	}
	assert.Equal(t, 1, src.callCount())

	moved, err := f.Prev(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = f.GoTo(ctx, 3)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 20, src.lastCall().offset)
	assert.Len(t, f.State().Items, 3)

	moved, err = f.Next(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = f.Prev(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 2, f.State().CurrentPage)
}

func TestFetcher_EmptyResult(t *testing.T) {
	t.Parallel()

	src := newFakeSource(0)
	f := New(src.load, Options{})
	require.NoError(t, f.Search(context.Background(), Query{Term: "javascript"}))

	st := f.State()
	assert.True(t, st.Empty())
	assert.Equal(t, 0, st.TotalPages)
	assert.False(t, st.HasNext())
	assert.False(t, st.HasPrev())
}

func TestFetcher_ErrorKeepsItemsAndRetry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(23)
	recorder := metrics.NewInMemory()
	f := New(src.load, Options{
		View:     "books",
		Metrics:  recorder,
		Describe: func(error) string { return "Erro ao conectar com o servidor" },
	})
	require.NoError(t, f.Search(ctx, Query{}))

	src.err = errors.New("connection refused")
	_, err := f.GoTo(ctx, 2)
	require.Error(t, err)

	st := f.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "Erro ao conectar com o servidor", st.Err)
	assert.Len(t, st.Items, 10)
	assert.Equal(t, 1, st.Items[0].ID)
	assert.Equal(t, 1, st.CurrentPage)

	src.err = nil
	require.NoError(t, f.Retry(ctx))

	st = f.State()
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Empty(t, st.Err)
	assert.Equal(t, 2, st.CurrentPage)
	assert.Equal(t, 11, st.Items[0].ID)
	assert.Equal(t, 10, src.lastCall().offset)

	snap := recorder.Snapshot()
	assert.Equal(t, uint64(2), snap.ListFetches[metrics.Pair{"books", "success"}])
	assert.Equal(t, uint64(1), snap.ListFetches[metrics.Pair{"books", "error"}])
}

func TestFetcher_RemoveSoleItemOnLaterPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(21)
	f := New(src.load, Options{})
	require.NoError(t, f.Load(ctx, Query{Term: "x"}, 3))
	require.Len(t, f.State().Items, 1)

	src.rows = src.rows[:20]
	err := f.Remove(ctx, 21, func(context.Context) error { return nil })
	require.NoError(t, err)

	st := f.State()
	assert.Equal(t, 2, st.CurrentPage)
	assert.Equal(t, call{query: Query{Term: "x"}, offset: 10, limit: 10}, src.lastCall())
	assert.Len(t, st.Items, 10)
	assert.Equal(t, 2, st.TotalPages)
	assert.Equal(t, ConfirmClosed, st.Confirm.Phase)
}

func TestFetcher_RemoveSucceedsWhenReloadFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(11)
	f := New(src.load, Options{Describe: func(err error) string { return "falhou: " + err.Error() }})
	require.NoError(t, f.Load(ctx, Query{}, 2))
	require.True(t, f.OpenConfirm(11))

	src.err = errors.New("500")
	require.NoError(t, f.Remove(ctx, 11, func(context.Context) error { return nil }))

	st := f.State()
	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, "falhou: 500", st.Err)
	assert.Equal(t, ConfirmClosed, st.Confirm.Phase)
	assert.Empty(t, st.Items)
	assert.Equal(t, Attempt{Query: Query{}, Page: 1}, st.Attempt)

	src.err = nil
	require.NoError(t, f.Retry(ctx))
	st = f.State()
	assert.Equal(t, PhaseSuccess, st.Phase)
	assert.Equal(t, 1, st.CurrentPage)
	assert.Len(t, st.Items, 10)
}

func TestFetcher_RemoveKeepsPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		total          int
		page           int
		removeID       int
		wantTotal      int
		wantTotalPages int
		wantItems      int
	}{
		{"only item on first page", 1, 1, 1, 0, 0, 0},
		{"first page with more rows", 11, 1, 3, 10, 1, 9},
		{"middle page keeps rows", 23, 2, 15, 22, 3, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			src := newFakeSource(tt.total)
			f := New(src.load, Options{})
			require.NoError(t, f.Load(ctx, Query{}, tt.page))
			calls := src.callCount()

			require.NoError(t, f.Remove(ctx, tt.removeID, func(context.Context) error { return nil }))

			st := f.State()
			assert.Equal(t, calls, src.callCount(), "no re-fetch expected")
			assert.Equal(t, tt.page, st.CurrentPage)
			assert.Equal(t, tt.wantTotal, st.Total)
			assert.Equal(t, tt.wantTotalPages, st.TotalPages)
			assert.Len(t, st.Items, tt.wantItems)
			for _, item := range st.Items {
				assert.NotEqual(t, tt.removeID, item.ID)
			}
		})
	}
}

func TestFetcher_RemoveFailureLeavesRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(5)
	f := New(src.load, Options{Describe: func(err error) string { return "falhou: " + err.Error() }})
	require.NoError(t, f.Search(ctx, Query{}))
	require.True(t, f.OpenConfirm(2))

	err := f.Remove(ctx, 2, func(context.Context) error { return errors.New("403") })
	require.Error(t, err)

	st := f.State()
	assert.Len(t, st.Items, 5)
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, ConfirmOpen, st.Confirm.Phase)
	assert.Equal(t, 2, st.Confirm.TargetID)
	assert.Equal(t, "falhou: 403", st.Confirm.Err)
}

func TestFetcher_Replace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(3)
	f := New(src.load, Options{})
	require.NoError(t, f.Search(ctx, Query{}))

	err := f.Replace(ctx, 2,
		func(context.Context) (row, error) { return row{ID: 2, Name: "updated"}, nil },
		func(current, updated row) row {
			current.Name = updated.Name + "!"
			return current
		},
	)
	require.NoError(t, err)

	st := f.State()
	assert.Equal(t, "updated!", st.Items[1].Name)
	assert.Equal(t, 1, src.callCount())
}

func TestFetcher_MutationWhileSubmitting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource(3)
	f := New(src.load, Options{})
	require.NoError(t, f.Search(ctx, Query{}))

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f.Remove(ctx, 1, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := f.Remove(ctx, 2, func(context.Context) error {
		t.Error("second mutation must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrConfirmBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, f.State().Items, 2)
}

func TestFetcher_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	recorder := metrics.NewInMemory()
	slowStarted := make(chan struct{})
	releaseSlow := make(chan struct{})

	load := func(_ context.Context, q Query, offset, limit int) (Page[row], error) {
		if q.Term == "slow" {
			close(slowStarted)
			<-releaseSlow
			return Page[row]{Items: []row{{ID: 100}}, Total: 1}, nil
		}
		return Page[row]{Items: []row{{ID: 1}, {ID: 2}}, Total: 2}, nil
	}

	f := New(load, Options{View: "loans", Metrics: recorder})

	slowErr := make(chan error, 1)
	go func() { slowErr <- f.Search(ctx, Query{Term: "slow"}) }()
	<-slowStarted

	require.NoError(t, f.Search(ctx, Query{Term: "fast"}))
	close(releaseSlow)
	assert.ErrorIs(t, <-slowErr, ErrStaleResponse)

	st := f.State()
	assert.Equal(t, "fast", st.Query.Term)
	assert.Len(t, st.Items, 2)
	assert.Equal(t, int64(2), st.Seq)
	assert.Equal(t, uint64(1), recorder.Snapshot().StaleResponses["loans"])
}

func TestRestore(t *testing.T) {
	t.Parallel()

	src := newFakeSource(23)
	saved := State[row]{
		Query:       Query{Term: "a"},
		Items:       []row{{ID: 11}},
		Total:       23,
		TotalPages:  3,
		CurrentPage: 2,
		Phase:       PhaseSuccess,
	}

	f := Restore(src.load, Options{}, saved)
	moved, err := f.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, call{query: Query{Term: "a"}, offset: 20, limit: 10}, src.lastCall())
	assert.Equal(t, ConfirmClosed, f.State().Confirm.Phase)
}
