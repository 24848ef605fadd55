package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/ledger"
	"github.com/leadscout/leadscout/internal/logger"
	"github.com/leadscout/leadscout/internal/scoring"
)

type fakeProvider struct {
	mu        sync.Mutex
	items     []domain.Item
	stats     map[string]int64
	listErr   error
	listCalls int
}

func (p *fakeProvider) ListRecentItems(_ context.Context, _ string, _ int64) ([]domain.Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.items, nil
}

func (p *fakeProvider) ItemStats(_ context.Context, itemID string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats[itemID], nil
}

type fakeFetcher struct {
	mu       sync.Mutex
	comments map[string][]domain.Comment
	errs     map[string]error
	calls    map[string]int
}

func (f *fakeFetcher) FetchAllComments(_ context.Context, itemID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[itemID]++
	if err := f.errs[itemID]; err != nil {
		return nil, err
	}
	return f.comments[itemID], nil
}

func (f *fakeFetcher) fetchCount(itemID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[itemID]
}

type fakeSink struct {
	mu      sync.Mutex
	records []domain.LeadRecord
	failOn  string // comment ID whose append fails
}

func (s *fakeSink) Append(rec domain.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && rec.Comment.ID == s.failOn {
		return errors.New("sink unavailable")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSink) leads() []domain.LeadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LeadRecord, len(s.records))
	copy(out, s.records)
	return out
}

type fakeGate bool

func (g fakeGate) Authenticated() bool { return bool(g) }

// flakyLedger injects a single commit failure for one comment.
type flakyLedger struct {
	ledger.Ledger
	mu       sync.Mutex
	failMark string
}

func (l *flakyLedger) MarkCommentProcessed(ctx context.Context, commentID string) error {
	l.mu.Lock()
	fail := l.failMark == commentID
	if fail {
		l.failMark = ""
	}
	l.mu.Unlock()
	if fail {
		return errors.New("ledger write failed")
	}
	return l.Ledger.MarkCommentProcessed(ctx, commentID)
}

func newFileLedger(t *testing.T) *ledger.FileLedger {
	t.Helper()
	l, err := ledger.OpenFile(filepath.Join(t.TempDir(), "ledger.json"))
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	return l
}

// qualifying text scores well past the default threshold.
const hotText = "Interested in pricing for my business, email me at lead@example.com"

func comment(id, itemID, text string) domain.Comment {
	return domain.Comment{ID: id, ItemID: itemID, Text: text}
}

func newTestEngine(p Provider, f Fetcher, led ledger.Ledger, sink LeadSink, gate CredentialGate) *Engine {
	eng := New(Config{
		SweepPageSize: 50,
		SweepWorkers:  2,
		Thresholds:    scoring.DefaultThresholds(),
	}, p, f, led, sink, scoring.New(scoring.DefaultTables()), gate, logger.Nop())
	eng.SetChannel("UC123")
	return eng
}

func TestSweepSkipsWhenNotAuthenticated(t *testing.T) {
	p := &fakeProvider{items: []domain.Item{{ID: "v1"}}}
	eng := newTestEngine(p, &fakeFetcher{}, newFileLedger(t), &fakeSink{}, fakeGate(false))

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if p.listCalls != 0 {
		t.Errorf("ListRecentItems called %d times while unauthenticated, want 0", p.listCalls)
	}
}

func TestSweepSkipsWithoutChannel(t *testing.T) {
	p := &fakeProvider{items: []domain.Item{{ID: "v1"}}}
	eng := newTestEngine(p, &fakeFetcher{}, newFileLedger(t), &fakeSink{}, fakeGate(true))
	eng.SetChannel("")

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if p.listCalls != 0 {
		t.Errorf("ListRecentItems called %d times without channel, want 0", p.listCalls)
	}
}

func TestSweepDiscoversAndScores(t *testing.T) {
	p := &fakeProvider{
		items: []domain.Item{{ID: "v1", Title: "first"}},
		stats: map[string]int64{"v1": 2},
	}
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {comment("c1", "v1", hotText), comment("c2", "v1", "nice video")},
	}}
	sink := &fakeSink{}
	led := newFileLedger(t)
	eng := newTestEngine(p, f, led, sink, fakeGate(true))

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	leads := sink.leads()
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].Comment.ID != "c1" {
		t.Errorf("lead comment = %q, want c1", leads[0].Comment.ID)
	}
	if leads[0].Source != domain.SourcePoll {
		t.Errorf("lead source = %q, want %q", leads[0].Source, domain.SourcePoll)
	}
	if leads[0].ItemTitle != "first" {
		t.Errorf("lead item title = %q, want %q", leads[0].ItemTitle, "first")
	}

	ctx := context.Background()
	if ok, _ := led.IsItemProcessed(ctx, "v1"); !ok {
		t.Error("item v1 not marked processed after sweep")
	}
	if n, _ := led.CommentCount(ctx, "v1"); n != 2 {
		t.Errorf("ledger count = %v, want 2", n)
	}
	for _, id := range []string{"c1", "c2"} {
		if ok, _ := led.IsCommentProcessed(ctx, id); !ok {
			t.Errorf("comment %s not committed", id)
		}
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	p := &fakeProvider{
		items: []domain.Item{{ID: "v1"}},
		stats: map[string]int64{"v1": 1},
	}
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {comment("c1", "v1", hotText)},
	}}
	sink := &fakeSink{}
	eng := newTestEngine(p, f, newFileLedger(t), sink, fakeGate(true))

	for i := 0; i < 3; i++ {
		if err := eng.Sweep(context.Background()); err != nil {
			t.Fatalf("Sweep() #%d error = %v", i, err)
		}
	}

	if got := len(sink.leads()); got != 1 {
		t.Errorf("got %d leads after repeated sweeps, want 1", got)
	}
}

func TestSweepPreFilterSkipsUnchangedItems(t *testing.T) {
	p := &fakeProvider{
		items: []domain.Item{{ID: "v1"}},
		stats: map[string]int64{"v1": 1},
	}
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {comment("c1", "v1", "nice video")},
	}}
	eng := newTestEngine(p, f, newFileLedger(t), &fakeSink{}, fakeGate(true))

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	// The second sweep sees an unchanged count on a processed item and
	// must not refetch the comment tree.
	if got := f.fetchCount("v1"); got != 1 {
		t.Errorf("FetchAllComments called %d times, want 1", got)
	}
}

func TestSweepRefetchesWhenCountGrows(t *testing.T) {
	p := &fakeProvider{
		items: []domain.Item{{ID: "v1"}},
		stats: map[string]int64{"v1": 3},
	}
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {
			comment("c1", "v1", "nice video"),
			comment("c2", "v1", "thanks"),
			comment("c3", "v1", "great"),
		},
	}}
	sink := &fakeSink{}
	eng := newTestEngine(p, f, newFileLedger(t), sink, fakeGate(true))

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	// Two new comments arrive, one of them a lead.
	p.mu.Lock()
	p.stats["v1"] = 5
	p.mu.Unlock()
	f.mu.Lock()
	f.comments["v1"] = append(f.comments["v1"],
		comment("c4", "v1", hotText),
		comment("c5", "v1", "ok"))
	f.mu.Unlock()

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	leads := sink.leads()
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].Comment.ID != "c4" {
		t.Errorf("lead comment = %q, want c4", leads[0].Comment.ID)
	}
	if got := f.fetchCount("v1"); got != 2 {
		t.Errorf("FetchAllComments called %d times, want 2", got)
	}
}

func TestSweepContinuesAfterItemFailure(t *testing.T) {
	p := &fakeProvider{
		items: []domain.Item{{ID: "v1"}, {ID: "v2"}},
		stats: map[string]int64{"v1": 1, "v2": 1},
	}
	f := &fakeFetcher{
		comments: map[string][]domain.Comment{
			"v2": {comment("c2", "v2", hotText)},
		},
		errs: map[string]error{"v1": errors.New("remote unavailable")},
	}
	sink := &fakeSink{}
	led := newFileLedger(t)
	eng := newTestEngine(p, f, led, sink, fakeGate(true))

	if err := eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep() error = %v, per-item failures must not abort the sweep", err)
	}

	if got := len(sink.leads()); got != 1 {
		t.Errorf("got %d leads, want 1 from the healthy item", got)
	}
	ctx := context.Background()
	if ok, _ := led.IsItemProcessed(ctx, "v1"); ok {
		t.Error("failed item v1 must stay unprocessed for retry")
	}
	if ok, _ := led.IsItemProcessed(ctx, "v2"); !ok {
		t.Error("item v2 not marked processed")
	}
}

func TestReconcileItemSinkFailureLeavesCommentUncommitted(t *testing.T) {
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {comment("c1", "v1", hotText), comment("c2", "v1", hotText)},
	}}
	sink := &fakeSink{failOn: "c2"}
	led := newFileLedger(t)
	eng := newTestEngine(&fakeProvider{}, f, led, sink, fakeGate(true))

	item := domain.Item{ID: "v1"}
	if err := eng.ReconcileItem(context.Background(), item, domain.SourcePush); err == nil {
		t.Fatal("ReconcileItem() expected error when sink fails")
	}

	ctx := context.Background()
	// c1 committed before the failure, c2 stays retryable.
	if ok, _ := led.IsCommentProcessed(ctx, "c1"); !ok {
		t.Error("comment c1 should be committed")
	}
	if ok, _ := led.IsCommentProcessed(ctx, "c2"); ok {
		t.Error("comment c2 must stay uncommitted after sink failure")
	}
	if ok, _ := led.IsItemProcessed(ctx, "v1"); ok {
		t.Error("item must stay unprocessed after a partial pass")
	}

	// Retry commits c2 without re-emitting c1.
	sink.mu.Lock()
	sink.failOn = ""
	sink.mu.Unlock()
	if err := eng.ReconcileItem(context.Background(), item, domain.SourcePush); err != nil {
		t.Fatalf("ReconcileItem() retry error = %v", err)
	}
	leads := sink.leads()
	if len(leads) != 2 {
		t.Fatalf("got %d leads, want 2", len(leads))
	}
	if leads[0].Comment.ID != "c1" || leads[1].Comment.ID != "c2" {
		t.Errorf("leads = [%s %s], want [c1 c2]", leads[0].Comment.ID, leads[1].Comment.ID)
	}
}

func TestReconcileItemLedgerFailureLeavesCommentUnprocessed(t *testing.T) {
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {comment("c1", "v1", hotText)},
	}}
	sink := &fakeSink{}
	led := &flakyLedger{Ledger: newFileLedger(t), failMark: "c1"}
	eng := newTestEngine(&fakeProvider{}, f, led, sink, fakeGate(true))

	item := domain.Item{ID: "v1"}
	if err := eng.ReconcileItem(context.Background(), item, domain.SourcePush); err == nil {
		t.Fatal("ReconcileItem() expected error when ledger commit fails")
	}
	if ok, _ := led.IsCommentProcessed(context.Background(), "c1"); ok {
		t.Error("comment c1 must stay unprocessed after failed commit")
	}

	// The next pass re-emits the lead, the duplicate is accepted: the
	// sink saw it once before the commit failed, once on retry.
	if err := eng.ReconcileItem(context.Background(), item, domain.SourcePush); err != nil {
		t.Fatalf("ReconcileItem() retry error = %v", err)
	}
	if ok, _ := led.IsCommentProcessed(context.Background(), "c1"); !ok {
		t.Error("comment c1 should be committed after retry")
	}
}

func TestConcurrentSweepAndTargetedReconcile(t *testing.T) {
	p := &fakeProvider{
		items: []domain.Item{{ID: "v1"}},
		stats: map[string]int64{"v1": 2},
	}
	f := &fakeFetcher{comments: map[string][]domain.Comment{
		"v1": {comment("c1", "v1", hotText), comment("c2", "v1", "nice")},
	}}
	sink := &fakeSink{}
	eng := newTestEngine(p, f, newFileLedger(t), sink, fakeGate(true))

	item := domain.Item{ID: "v1"}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = eng.Sweep(context.Background())
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = eng.ReconcileItem(context.Background(), item, domain.SourcePush)
		}()
	}
	wg.Wait()

	// The per-item lock serializes passes; the ledger diff makes every
	// pass after the first a no-op. Exactly one lead, ever.
	if got := len(sink.leads()); got != 1 {
		t.Errorf("got %d leads from concurrent triggers, want 1", got)
	}
}

func TestSweepListFailureIsReturned(t *testing.T) {
	p := &fakeProvider{listErr: errors.New("remote down")}
	eng := newTestEngine(p, &fakeFetcher{}, newFileLedger(t), &fakeSink{}, fakeGate(true))

	if err := eng.Sweep(context.Background()); err == nil {
		t.Error("Sweep() expected error when listing fails")
	}
}
