package handler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/bookbase/bookbase-admin/internal/cache"
	"github.com/bookbase/bookbase-admin/internal/listing"
	"github.com/bookbase/bookbase-admin/internal/metrics"
)

// listView restores a list Fetcher from the session's stored state and
// stores it back after each request.
type listView[T listing.Keyed] struct {
	name     string
	load     listing.LoadFunc[T]
	store    listing.ViewStore
	seqs     Sequencers
	pageSize int
	metrics  metrics.Recorder
	logger   *slog.Logger
}

func (v *listView[T]) key(sessionID string) string {
	return cache.ViewKey(sessionID, v.name)
}

// open returns the Fetcher of the session. stored is false when there was
// no usable state, in which case the Fetcher starts idle on page 1.
func (v *listView[T]) open(ctx context.Context, sessionID string) (f *listing.Fetcher[T], stored bool) {
	st, ok, err := listing.LoadState[T](ctx, v.store, v.key(sessionID))
	if err != nil {
		v.logger.WarnContext(ctx, "view state unavailable",
			slog.String("view", v.name),
			slog.String("error", err.Error()),
		)
		st, ok = listing.State[T]{}, false
	}

	return listing.Restore(v.load, listing.Options{
		View:      v.name,
		PageSize:  v.pageSize,
		Sequencer: v.seqs(sessionID, v.name),
		Describe:  listErrorMessage,
		Metrics:   v.metrics,
		Logger:    v.logger,
	}, st), ok
}

// fetch loads page of q into f and stores the result. A page past the end
// of the stored result for the same query leaves that result in place; a
// page past the end of a fresh result falls back to its last page.
func (v *listView[T]) fetch(ctx context.Context, sessionID string, f *listing.Fetcher[T], stored bool, q listing.Query, page int) listing.State[T] {
	f.CancelConfirm()

	st := f.State()
	if stored && st.Phase == listing.PhaseSuccess && st.Query == q && page > max(st.TotalPages, 1) {
		return v.save(ctx, sessionID, st)
	}

	err := f.Load(ctx, q, page)
	if st = f.State(); err == nil && st.TotalPages > 0 && st.CurrentPage > st.TotalPages {
		_, err = f.GoTo(ctx, st.TotalPages)
	}
	return v.settle(ctx, sessionID, f, err)
}

// settle stores the state of f after an operation that returned err and
// returns the state to render. When the operation was overtaken by a newer
// load, or a newer state is already stored, that newer state wins.
func (v *listView[T]) settle(ctx context.Context, sessionID string, f *listing.Fetcher[T], err error) listing.State[T] {
	if errors.Is(err, listing.ErrStaleResponse) {
		if newer, ok := v.stored(ctx, sessionID); ok {
			return newer
		}
	}
	return v.save(ctx, sessionID, f.State())
}

func (v *listView[T]) save(ctx context.Context, sessionID string, st listing.State[T]) listing.State[T] {
	saved, err := listing.SaveState(ctx, v.store, v.key(sessionID), st)
	if err != nil {
		v.logger.WarnContext(ctx, "view state not saved",
			slog.String("view", v.name),
			slog.String("error", err.Error()),
		)
		return st
	}
	if saved {
		return st
	}
	if newer, ok := v.stored(ctx, sessionID); ok {
		return newer
	}
	return st
}

func (v *listView[T]) stored(ctx context.Context, sessionID string) (listing.State[T], bool) {
	st, ok, err := listing.LoadState[T](ctx, v.store, v.key(sessionID))
	if err != nil || !ok {
		return listing.State[T]{}, false
	}
	return st, true
}

// memorySequencers hands out one in-process counter per session and view.
func memorySequencers() Sequencers {
	var mu sync.Mutex
	seqs := make(map[string]*listing.MemorySequencer)
	return func(sessionID, view string) listing.Sequencer {
		mu.Lock()
		defer mu.Unlock()
		key := sessionID + ":" + view
		s, ok := seqs[key]
		if !ok {
			s = listing.NewMemorySequencer()
			seqs[key] = s
		}
		return s
	}
}
