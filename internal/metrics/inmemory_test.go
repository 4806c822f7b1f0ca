package metrics

import (
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	t.Parallel()

	m := NewInMemory()

	m.ObserveAPIRequest("list_books", "2xx", 20*time.Millisecond)
	m.ObserveAPIRequest("list_books", "2xx", 30*time.Millisecond)
	m.ObserveAPIRequest("list_books", "error", time.Millisecond)
	m.IncListFetch("books", "success")
	m.IncStaleResponse("loans")
	m.IncMutation("book_deleted", "success")
	m.IncLogin("failed")
	m.IncLogin("failed")

	snap := m.Snapshot()

	if got := snap.APIRequests[Pair{"list_books", "2xx"}]; got != 2 {
		t.Errorf("api 2xx = %d, want 2", got)
	}
	if got := snap.APIDurationCount["list_books"]; got != 3 {
		t.Errorf("duration count = %d, want 3", got)
	}
	if got := snap.APIDurationTotalNs["list_books"]; got != int64(51*time.Millisecond) {
		t.Errorf("duration total = %d", got)
	}
	if snap.ListFetches[Pair{"books", "success"}] != 1 {
		t.Error("list fetch not counted")
	}
	if snap.StaleResponses["loans"] != 1 {
		t.Error("stale response not counted")
	}
	if snap.Mutations[Pair{"book_deleted", "success"}] != 1 {
		t.Error("mutation not counted")
	}
	if snap.Logins["failed"] != 2 {
		t.Errorf("logins failed = %d, want 2", snap.Logins["failed"])
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncLogin("success")

	snap := m.Snapshot()
	snap.Logins["success"] = 99

	if got := m.Snapshot().Logins["success"]; got != 1 {
		t.Errorf("recorder mutated through snapshot: %d", got)
	}
}
