// Package listing keeps the state of a paginated, searchable remote list
// and applies mutations to it without re-fetching.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bookbase/bookbase-admin/internal/metrics"
)

// DefaultPageSize is used when Options.PageSize is not set.
const DefaultPageSize = 10

// ErrStaleResponse is returned by a load whose response arrived after a
// newer load was issued. The response is not applied.
var ErrStaleResponse = errors.New("listing: stale response discarded")

// Phase is the fetch lifecycle of a list.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// Keyed is a row with a stable identity.
type Keyed interface {
	Key() int
}

// Query is the user supplied filter of a list.
type Query struct {
	Term   string `json:"term,omitempty"`
	Status string `json:"status,omitempty"`
}

// Page is what a LoadFunc returns for one page.
type Page[T any] struct {
	Items []T
	Total int
}

// LoadFunc fetches limit rows starting at offset.
type LoadFunc[T any] func(ctx context.Context, q Query, offset, limit int) (Page[T], error)

// Attempt is the last request issued, kept so it can be retried.
type Attempt struct {
	Query Query `json:"query"`
	Page  int   `json:"page"`
}

// State is the renderable and persistable state of a list view.
type State[T any] struct {
	Query       Query   `json:"query"`
	Items       []T     `json:"items"`
	Total       int     `json:"total"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	Phase       Phase   `json:"phase"`
	Err         string  `json:"error,omitempty"`
	Attempt     Attempt `json:"attempt"`
	Confirm     Confirm `json:"confirm"`
	Seq         int64   `json:"seq"`
}

// Empty reports whether a successful fetch returned no rows.
func (s State[T]) Empty() bool {
	return s.Phase == PhaseSuccess && len(s.Items) == 0
}

// HasPrev reports whether a previous page exists.
func (s State[T]) HasPrev() bool {
	return s.CurrentPage > 1
}

// HasNext reports whether a next page exists.
func (s State[T]) HasNext() bool {
	return s.CurrentPage < s.TotalPages
}

// TotalPages is ceil(total/size), or 0 when there is nothing to show.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Options configures a Fetcher.
type Options struct {
	// View names the list in logs and metrics.
	View     string
	PageSize int
	// Sequencer orders loads. Defaults to an in-process counter.
	Sequencer Sequencer
	// Describe turns an error into the message stored in State.Err.
	Describe func(error) string
	Metrics  metrics.Recorder
	Logger   *slog.Logger
}

// Fetcher drives one list view.
type Fetcher[T Keyed] struct {
	load     LoadFunc[T]
	view     string
	pageSize int
	seq      Sequencer
	describe func(error) string
	metrics  metrics.Recorder
	logger   *slog.Logger

	mu    sync.Mutex
	state State[T]
}

// New creates an idle Fetcher positioned on page 1.
func New[T Keyed](load LoadFunc[T], opts Options) *Fetcher[T] {
	return Restore(load, opts, State[T]{})
}

// Restore creates a Fetcher continuing from a previously saved state.
func Restore[T Keyed](load LoadFunc[T], opts Options, st State[T]) *Fetcher[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Sequencer == nil {
		opts.Sequencer = NewMemorySequencer()
	}
	if opts.Describe == nil {
		opts.Describe = func(err error) string { return err.Error() }
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if st.Phase == "" {
		st.Phase = PhaseIdle
	}
	if st.CurrentPage < 1 {
		st.CurrentPage = 1
	}
	if st.Confirm.Phase == "" {
		st.Confirm.Phase = ConfirmClosed
	}
	if st.Items == nil {
		st.Items = []T{}
	}

	return &Fetcher[T]{
		load:     load,
		view:     opts.View,
		pageSize: opts.PageSize,
		seq:      opts.Sequencer,
		describe: opts.Describe,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		state:    st,
	}
}

// State returns a copy of the current state.
func (f *Fetcher[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state
	st.Items = append([]T(nil), f.state.Items...)
	return st
}

// PageSize returns the configured page size.
func (f *Fetcher[T]) PageSize() int {
	return f.pageSize
}

// Search loads the first page for q.
func (f *Fetcher[T]) Search(ctx context.Context, q Query) error {
	return f.Load(ctx, q, 1)
}

// Load fetches page of q. On failure the previous items are kept and the
// error message is stored. A response overtaken by a newer load is dropped
// and ErrStaleResponse is returned.
func (f *Fetcher[T]) Load(ctx context.Context, q Query, page int) error {
	if page < 1 {
		page = 1
	}

	f.mu.Lock()
	f.state.Attempt = Attempt{Query: q, Page: page}
	f.state.Phase = PhaseLoading
	f.state.Err = ""
	f.mu.Unlock()

	seq, err := f.seq.Next(ctx)
	if err != nil {
		return f.fail(ctx, fmt.Errorf("next sequence: %w", err))
	}

	result, loadErr := f.load(ctx, q, (page-1)*f.pageSize, f.pageSize)

	if latest, err := f.seq.Latest(ctx); err == nil && latest > seq {
		f.metrics.IncStaleResponse(f.view)
		f.logger.DebugContext(ctx, "stale list response discarded",
			slog.String("view", f.view),
			slog.Int64("seq", seq),
			slog.Int64("latest", latest),
		)
		return ErrStaleResponse
	}

	if loadErr != nil {
		return f.fail(ctx, loadErr)
	}

	f.metrics.IncListFetch(f.view, "success")

	f.mu.Lock()
	defer f.mu.Unlock()

	items := result.Items
	if items == nil {
		items = []T{}
	}
	f.state.Query = q
	f.state.Items = items
	f.state.Total = result.Total
	f.state.TotalPages = TotalPages(result.Total, f.pageSize)
	f.state.CurrentPage = page
	f.state.Phase = PhaseSuccess
	f.state.Seq = seq
	return nil
}

func (f *Fetcher[T]) fail(ctx context.Context, err error) error {
	f.metrics.IncListFetch(f.view, "error")
	f.logger.WarnContext(ctx, "list fetch failed",
		slog.String("view", f.view),
		slog.String("error", err.Error()),
	)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Phase = PhaseError
	f.state.Err = f.describe(err)
	return err
}

// Retry re-issues the last attempted load.
func (f *Fetcher[T]) Retry(ctx context.Context) error {
	f.mu.Lock()
	attempt := f.state.Attempt
	if attempt.Page < 1 {
		attempt = Attempt{Query: f.state.Query, Page: f.state.CurrentPage}
	}
	f.mu.Unlock()

	return f.Load(ctx, attempt.Query, attempt.Page)
}

// GoTo loads page of the current query. Pages outside [1, TotalPages] are
// ignored and reported as false.
func (f *Fetcher[T]) GoTo(ctx context.Context, page int) (bool, error) {
	f.mu.Lock()
	q := f.state.Query
	valid := page >= 1 && page <= f.state.TotalPages
	f.mu.Unlock()

	if !valid {
		return false, nil
	}
	return true, f.Load(ctx, q, page)
}

// Next moves to the following page if there is one.
func (f *Fetcher[T]) Next(ctx context.Context) (bool, error) {
	return f.GoTo(ctx, f.State().CurrentPage+1)
}

// Prev moves to the preceding page if there is one.
func (f *Fetcher[T]) Prev(ctx context.Context) (bool, error) {
	return f.GoTo(ctx, f.State().CurrentPage-1)
}

func (f *Fetcher[T]) indexOf(id int) int {
	for i, item := range f.state.Items {
		if item.Key() == id {
			return i
		}
	}
	return -1
}
