package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// Sequencer hands out increasing load numbers for one view.
type Sequencer interface {
	Next(ctx context.Context) (int64, error)
	Latest(ctx context.Context) (int64, error)
}

// ViewStore persists encoded list state between requests.
type ViewStore interface {
	// Get returns nil data when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// SaveIfNewer stores data unless the stored entry has a higher seq.
	SaveIfNewer(ctx context.Context, key string, seq int64, data []byte) (bool, error)
	Delete(ctx context.Context, key string) error
}

// LoadState decodes the state stored under key. ok is false when nothing
// is stored.
func LoadState[T any](ctx context.Context, store ViewStore, key string) (st State[T], ok bool, err error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return st, false, fmt.Errorf("load view state: %w", err)
	}
	if data == nil {
		return st, false, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return State[T]{}, false, fmt.Errorf("decode view state: %w", err)
	}
	return st, true, nil
}

// SaveState stores st under key unless a newer state is already stored.
func SaveState[T any](ctx context.Context, store ViewStore, key string, st State[T]) (bool, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return false, fmt.Errorf("encode view state: %w", err)
	}
	saved, err := store.SaveIfNewer(ctx, key, st.Seq, data)
	if err != nil {
		return false, fmt.Errorf("save view state: %w", err)
	}
	return saved, nil
}

// MemorySequencer is an in-process Sequencer.
type MemorySequencer struct {
	n atomic.Int64
}

// NewMemorySequencer returns a Sequencer starting at zero.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{}
}

// Next returns the next number.
func (s *MemorySequencer) Next(context.Context) (int64, error) {
	return s.n.Add(1), nil
}

// Latest returns the last number handed out.
func (s *MemorySequencer) Latest(context.Context) (int64, error) {
	return s.n.Load(), nil
}

type memoryEntry struct {
	seq  int64
	data []byte
}

// MemoryViewStore is an in-process ViewStore.
type MemoryViewStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryViewStore returns an empty MemoryViewStore.
func NewMemoryViewStore() *MemoryViewStore {
	return &MemoryViewStore{entries: make(map[string]memoryEntry)}
}

// Get returns the data stored under key.
func (s *MemoryViewStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), e.data...), nil
}

// SaveIfNewer stores data unless a higher seq is stored.
func (s *MemoryViewStore) SaveIfNewer(_ context.Context, key string, seq int64, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.seq > seq {
		return false, nil
	}
	s.entries[key] = memoryEntry{seq: seq, data: append([]byte(nil), data...)}
	return true, nil
}

// Delete removes key.
func (s *MemoryViewStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
