package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/infrastructure/queue"
)

type fakeHealth struct{ online bool }

func (f fakeHealth) IsOnline() bool { return f.online }

type fakeRecomputer struct {
	fail  map[string]bool
	calls []string
}

func (f *fakeRecomputer) RecomputeStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	f.calls = append(f.calls, userID)
	if f.fail[userID] {
		return nil, errors.New("stats store down")
	}
	return &domain.UserStats{UserID: userID}, nil
}

func openQueue(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.Open(filepath.Join(t.TempDir(), "stale.db"), "")
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStaleMarker_QueuesOncePerUser(t *testing.T) {
	store := openQueue(t)
	marker := NewStaleMarker(store, nil, nil)

	for i := 0; i < 2; i++ {
		if err := marker.MarkStale(context.Background(), "u1", errors.New("upsert failed")); err != nil {
			t.Fatalf("mark stale: %v", err)
		}
	}
	if size, _ := store.Size(); size != 1 {
		t.Errorf("expected 1 queued user, got %d", size)
	}
	if err := marker.MarkStale(context.Background(), "", nil); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestStatsReconciler_Drain(t *testing.T) {
	store := openQueue(t)
	for _, id := range []string{"u1", "u2"} {
		if err := store.Enqueue(queue.Item{UserID: id}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	rec := &fakeRecomputer{fail: map[string]bool{"u2": true}}
	r := NewStatsReconciler(store, fakeHealth{online: true}, rec, nil, nil, ReconcilerConfig{MaxRetries: 2})

	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	items, _ := store.GetBatch(10)
	if len(items) != 1 || items[0].UserID != "u2" || items[0].Retries != 1 {
		t.Fatalf("expected u2 requeued once, got %+v", items)
	}

	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if r.Size() != 0 {
		t.Errorf("expected u2 dropped after max retries, queue size %d", r.Size())
	}
}

func TestStatsReconciler_SkipsWhileOffline(t *testing.T) {
	store := openQueue(t)
	if err := store.Enqueue(queue.Item{UserID: "u1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	rec := &fakeRecomputer{}
	r := NewStatsReconciler(store, fakeHealth{online: false}, rec, nil, nil, ReconcilerConfig{})

	if err := r.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(rec.calls) != 0 || r.Size() != 1 {
		t.Errorf("expected nothing drained while offline, calls=%v size=%d", rec.calls, r.Size())
	}
}
