package metrics

import (
	"sync"
	"time"
)

// Pair is a two-label metric key such as (operation, status).
type Pair [2]string

// Snapshot captures current in-memory counters.
type Snapshot struct {
	APIRequests        map[Pair]uint64 // (op, status class)
	APIDurationCount   map[string]uint64
	APIDurationTotalNs map[string]int64
	ListFetches        map[Pair]uint64 // (view, outcome)
	StaleResponses     map[string]uint64
	Mutations          map[Pair]uint64 // (kind, outcome)
	Logins             map[string]uint64
}

// InMemoryRecorder stores metrics in memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	mu                 sync.Mutex
	apiRequests        map[Pair]uint64
	apiDurationCount   map[string]uint64
	apiDurationTotalNs map[string]int64
	listFetches        map[Pair]uint64
	staleResponses     map[string]uint64
	mutations          map[Pair]uint64
	logins             map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		apiRequests:        make(map[Pair]uint64),
		apiDurationCount:   make(map[string]uint64),
		apiDurationTotalNs: make(map[string]int64),
		listFetches:        make(map[Pair]uint64),
		staleResponses:     make(map[string]uint64),
		mutations:          make(map[Pair]uint64),
		logins:             make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		APIRequests:        copyMap(m.apiRequests),
		APIDurationCount:   copyMap(m.apiDurationCount),
		APIDurationTotalNs: copyMap(m.apiDurationTotalNs),
		ListFetches:        copyMap(m.listFetches),
		StaleResponses:     copyMap(m.staleResponses),
		Mutations:          copyMap(m.mutations),
		Logins:             copyMap(m.logins),
	}
}

// ObserveAPIRequest counts an outbound call and records its duration.
func (m *InMemoryRecorder) ObserveAPIRequest(op, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiRequests[Pair{op, status}]++
	m.apiDurationCount[op]++
	m.apiDurationTotalNs[op] += duration.Nanoseconds()
}

// IncListFetch increments the list fetch counter.
func (m *InMemoryRecorder) IncListFetch(view, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listFetches[Pair{view, outcome}]++
}

// IncStaleResponse increments the discarded response counter.
func (m *InMemoryRecorder) IncStaleResponse(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleResponses[view]++
}

// IncMutation increments the mutation counter.
func (m *InMemoryRecorder) IncMutation(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations[Pair{kind, outcome}]++
}

// IncLogin increments the login counter.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[outcome]++
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
