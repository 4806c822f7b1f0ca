package listing

import (
	"context"
	"errors"
	"log/slog"
)

// ErrConfirmBusy is returned when a confirmed action is already running.
var ErrConfirmBusy = errors.New("listing: confirmation already submitting")

// OpenConfirm opens the confirmation modal for row id.
func (f *Fetcher[T]) OpenConfirm(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Confirm.Open(id)
}

// CancelConfirm closes the confirmation modal.
func (f *Fetcher[T]) CancelConfirm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Confirm.Cancel()
}

// submit moves the modal for id to submitting, opening it first if needed.
func (f *Fetcher[T]) submit(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := &f.state.Confirm
	if c.Phase != ConfirmOpen || c.TargetID != id {
		if !c.Open(id) {
			return ErrConfirmBusy
		}
	}
	c.Submit()
	return nil
}

func (f *Fetcher[T]) failMutation(ctx context.Context, err error) error {
	f.logger.WarnContext(ctx, "list mutation failed",
		slog.String("view", f.view),
		slog.String("error", err.Error()),
	)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Confirm.Fail(f.describe(err))
	return err
}

// bump takes a new sequence so the patched state outranks older loads.
func (f *Fetcher[T]) bump(ctx context.Context) {
	seq, err := f.seq.Next(ctx)
	if err != nil {
		f.logger.WarnContext(ctx, "next sequence failed",
			slog.String("view", f.view),
			slog.String("error", err.Error()),
		)
		return
	}
	f.mu.Lock()
	f.state.Seq = seq
	f.mu.Unlock()
}

// Remove runs mutate for row id and, on success, drops the row from the
// current page without re-fetching. When that empties a page other than the
// first, the previous page is loaded instead; only ErrStaleResponse from
// that load is returned. On failure the rows are left as they were and the
// message is shown in the confirmation modal.
func (f *Fetcher[T]) Remove(ctx context.Context, id int, mutate func(ctx context.Context) error) error {
	if err := f.submit(id); err != nil {
		return err
	}

	if err := mutate(ctx); err != nil {
		return f.failMutation(ctx, err)
	}

	f.mu.Lock()
	f.state.Confirm.Succeed()
	if i := f.indexOf(id); i >= 0 {
		f.state.Items = append(f.state.Items[:i:i], f.state.Items[i+1:]...)
	}
	if f.state.Total > 0 {
		f.state.Total--
	}
	refetch := len(f.state.Items) == 0 && f.state.CurrentPage > 1
	q, page := f.state.Query, f.state.CurrentPage
	if !refetch {
		f.state.TotalPages = TotalPages(f.state.Total, f.pageSize)
	}
	f.mu.Unlock()

	if refetch {
		// The row is gone either way. A failed reload stays in the state as
		// PhaseError so the page offers a retry of page-1.
		if err := f.Load(ctx, q, page-1); errors.Is(err, ErrStaleResponse) {
			return err
		}
		return nil
	}
	f.bump(ctx)
	return nil
}

// Replace runs mutate for row id and merges the record it returns into the
// matching row. merge receives the current row and the returned record; a
// nil merge replaces the row.
func (f *Fetcher[T]) Replace(ctx context.Context, id int, mutate func(ctx context.Context) (T, error), merge func(current, updated T) T) error {
	if err := f.submit(id); err != nil {
		return err
	}

	updated, err := mutate(ctx)
	if err != nil {
		return f.failMutation(ctx, err)
	}

	f.mu.Lock()
	f.state.Confirm.Succeed()
	if i := f.indexOf(id); i >= 0 {
		if merge != nil {
			f.state.Items[i] = merge(f.state.Items[i], updated)
		} else {
			f.state.Items[i] = updated
		}
	}
	f.mu.Unlock()

	f.bump(ctx)
	return nil
}
