package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/logger"
)

type reconcileRecorder struct {
	mu    sync.Mutex
	calls []domain.Item
	fired chan struct{}
}

func newReconcileRecorder() *reconcileRecorder {
	return &reconcileRecorder{fired: make(chan struct{}, 16)}
}

func (r *reconcileRecorder) reconcile(_ context.Context, item domain.Item, source domain.Source) error {
	r.mu.Lock()
	r.calls = append(r.calls, item)
	r.mu.Unlock()
	r.fired <- struct{}{}
	return nil
}

func (r *reconcileRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestDebouncerFiresAfterDelay(t *testing.T) {
	rec := newReconcileRecorder()
	d := NewDebouncer(rec.reconcile, logger.Nop(), 10*time.Millisecond)
	d.Start(context.Background())
	defer d.Stop()

	d.Schedule(domain.Item{ID: "v1"})

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
	if rec.count() != 1 {
		t.Errorf("reconcile called %d times, want 1", rec.count())
	}
}

func TestDebouncerCoalescesReannouncements(t *testing.T) {
	rec := newReconcileRecorder()
	d := NewDebouncer(rec.reconcile, logger.Nop(), 50*time.Millisecond)
	d.Start(context.Background())
	defer d.Stop()

	// Rapid re-announcements of the same item reset the timer.
	for i := 0; i < 5; i++ {
		d.Schedule(domain.Item{ID: "v1"})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}
	// Allow a straggler to show up if coalescing were broken.
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 1 {
		t.Errorf("reconcile called %d times for one item, want 1", rec.count())
	}
}

func TestDebouncerTracksItemsIndependently(t *testing.T) {
	rec := newReconcileRecorder()
	d := NewDebouncer(rec.reconcile, logger.Nop(), 10*time.Millisecond)
	d.Start(context.Background())
	defer d.Stop()

	d.Schedule(domain.Item{ID: "v1"})
	d.Schedule(domain.Item{ID: "v2"})

	for i := 0; i < 2; i++ {
		select {
		case <-rec.fired:
		case <-time.After(time.Second):
			t.Fatalf("only %d of 2 reconciliations fired", i)
		}
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	rec := newReconcileRecorder()
	d := NewDebouncer(rec.reconcile, logger.Nop(), 30*time.Millisecond)
	d.Start(context.Background())

	d.Schedule(domain.Item{ID: "v1"})
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("reconcile called %d times after Stop, want 0", rec.count())
	}

	// Scheduling after Stop is a no-op, not a panic.
	d.Schedule(domain.Item{ID: "v2"})
	time.Sleep(80 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("reconcile called %d times after Stop, want 0", rec.count())
	}
}

func TestDebouncerContextCancelCancelsPending(t *testing.T) {
	rec := newReconcileRecorder()
	d := NewDebouncer(rec.reconcile, logger.Nop(), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Schedule(domain.Item{ID: "v1"})
	cancel()

	time.Sleep(80 * time.Millisecond)
	if rec.count() != 0 {
		t.Errorf("reconcile called %d times after context cancel, want 0", rec.count())
	}
}
