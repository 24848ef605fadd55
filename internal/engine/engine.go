package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/ledger"
	"github.com/leadscout/leadscout/internal/logger"
	"github.com/leadscout/leadscout/internal/scoring"
)

// Provider lists channel items and their statistics.
type Provider interface {
	ListRecentItems(ctx context.Context, channelID string, max int64) ([]domain.Item, error)
	ItemStats(ctx context.Context, itemID string) (int64, error)
}

// Fetcher materializes the full comment tree for one item.
type Fetcher interface {
	FetchAllComments(ctx context.Context, itemID string) ([]domain.Comment, error)
}

// Scorer evaluates a single comment. Must be pure.
type Scorer interface {
	Evaluate(c domain.Comment) scoring.Evaluation
}

// LeadSink receives qualified leads.
type LeadSink interface {
	Append(rec domain.LeadRecord) error
}

// CredentialGate tells the engine whether remote calls can succeed at all.
type CredentialGate interface {
	Authenticated() bool
}

// Config holds the engine's tunables.
type Config struct {
	// SweepPageSize bounds how many recent items one sweep inspects.
	SweepPageSize int64
	// SweepWorkers bounds per-item parallelism within a sweep.
	SweepWorkers int
	// ItemTimeout is the soft deadline for one item's reconciliation,
	// so a stalled item cannot block the pool indefinitely.
	ItemTimeout time.Duration
	// Thresholds qualify and band lead scores.
	Thresholds scoring.Thresholds
}

// Engine reconciles the remote comment state against the ledger and
// emits newly discovered comments as scored leads. Two entry points:
// Sweep inspects recent items with a cheap count pre-filter, and
// ReconcileItem handles exactly one item (the push path).
type Engine struct {
	provider Provider
	fetcher  Fetcher
	ledger   ledger.Ledger
	sink     LeadSink
	scorer   Scorer
	gate     CredentialGate
	log      logger.Logger
	cfg      Config

	locks *itemLocks
	now   func() time.Time

	mu      sync.RWMutex
	channel string
}

// New wires an engine. All collaborators are injected; the engine owns
// no ambient state.
func New(cfg Config, p Provider, f Fetcher, led ledger.Ledger, sink LeadSink, sc Scorer, gate CredentialGate, log logger.Logger) *Engine {
	if cfg.SweepPageSize <= 0 {
		cfg.SweepPageSize = 50
	}
	if cfg.SweepWorkers <= 0 {
		cfg.SweepWorkers = 1
	}
	return &Engine{
		provider: p,
		fetcher:  f,
		ledger:   led,
		sink:     sink,
		scorer:   sc,
		gate:     gate,
		log:      log,
		cfg:      cfg,
		locks:    newItemLocks(),
		now:      time.Now,
	}
}

// SetChannel sets the watched channel. Sweeps are no-ops until both a
// channel and credentials are available.
func (e *Engine) SetChannel(channelID string) {
	e.mu.Lock()
	e.channel = channelID
	e.mu.Unlock()
}

// Channel returns the watched channel ID, empty if not set yet.
func (e *Engine) Channel() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.channel
}

// Sweep inspects the channel's most recent items and reconciles those
// whose comment count moved. Per-item failures are contained at the
// item boundary; only a failure of the sweep's own trigger mechanism
// (listing items) aborts the invocation.
func (e *Engine) Sweep(ctx context.Context) error {
	channel := e.Channel()
	if channel == "" || !e.gate.Authenticated() {
		e.log.Debug("sweep skipped, not authenticated or no channel watched")
		return nil
	}

	items, err := e.provider.ListRecentItems(ctx, channel, e.cfg.SweepPageSize)
	if err != nil {
		return fmt.Errorf("failed to list recent items: %w", err)
	}

	e.log.Info("sweep started",
		logger.String("channel", channel),
		logger.Int("items", len(items)))

	jobs := make(chan domain.Item)
	var wg sync.WaitGroup
	for i := 0; i < e.cfg.SweepWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				if ctx.Err() != nil {
					return
				}
				e.sweepItem(ctx, item)
			}
		}()
	}

	for _, item := range items {
		select {
		case jobs <- item:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

// sweepItem applies the count pre-filter and reconciles when it fires.
// A count increase is a necessary signal of new comments, not a
// sufficient one; reconciliation still diffs by comment ID.
func (e *Engine) sweepItem(ctx context.Context, item domain.Item) {
	total, err := e.provider.ItemStats(ctx, item.ID)
	if err != nil {
		e.log.Warn("failed to fetch item statistics",
			logger.String("item_id", item.ID),
			logger.Error(err))
		return
	}

	known, err := e.ledger.CommentCount(ctx, item.ID)
	if err != nil {
		e.log.Warn("failed to read ledger count",
			logger.String("item_id", item.ID),
			logger.Error(err))
		return
	}
	processed, err := e.ledger.IsItemProcessed(ctx, item.ID)
	if err != nil {
		e.log.Warn("failed to read ledger item state",
			logger.String("item_id", item.ID),
			logger.Error(err))
		return
	}

	if processed && total <= known {
		return // nothing moved, skip the comment fetch
	}

	e.log.Info("item has comment activity",
		logger.String("item_id", item.ID),
		logger.Int("known", int(known)),
		logger.Int("observed", int(total)))

	if err := e.ReconcileItem(ctx, item, domain.SourcePoll); err != nil {
		e.log.Warn("item reconciliation failed, continuing sweep",
			logger.String("item_id", item.ID),
			logger.Error(err))
	}
}

// ReconcileItem fetches one item's comment tree, diffs it against the
// ledger, scores unseen comments and commits each one before moving
// on. The per-item lock makes concurrent push and sweep triggers for
// the same item safe: whichever runs second finds everything already
// committed and does nothing.
//
// Commit ordering is the crash-safety invariant: a comment is marked
// processed (durably) right after it is scored and its lead, if any,
// is appended. A crash mid-pass re-examines at most this item's
// remaining comments and never rescores a committed one.
func (e *Engine) ReconcileItem(ctx context.Context, item domain.Item, source domain.Source) error {
	unlock := e.locks.lock(item.ID)
	defer unlock()

	if e.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ItemTimeout)
		defer cancel()
	}

	comments, err := e.fetcher.FetchAllComments(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch comments for item %s: %w", item.ID, err)
	}

	var fresh, leads int
	for _, comment := range comments {
		seen, err := e.ledger.IsCommentProcessed(ctx, comment.ID)
		if err != nil {
			return fmt.Errorf("failed to diff comment %s: %w", comment.ID, err)
		}
		if seen {
			continue
		}

		ev := e.scorer.Evaluate(comment)
		qualified, priority := scoring.Classify(ev.Score, e.cfg.Thresholds)
		if qualified {
			rec := domain.LeadRecord{
				Comment:    comment,
				ItemTitle:  item.Title,
				Score:      ev.Score,
				Qualified:  true,
				Priority:   priority,
				Contact:    ev.Contact,
				Indicators: ev.Indicators,
				Source:     source,
				DetectedAt: e.now(),
			}
			if err := e.sink.Append(rec); err != nil {
				// Comment stays uncommitted so the next pass retries it.
				return fmt.Errorf("failed to report lead for comment %s: %w", comment.ID, err)
			}
			leads++
			e.log.Info("qualified lead detected",
				logger.String("item_id", item.ID),
				logger.String("comment_id", comment.ID),
				logger.String("author", comment.AuthorName),
				logger.Int("score", ev.Score),
				logger.String("priority", string(priority)))
		}

		if err := e.ledger.MarkCommentProcessed(ctx, comment.ID); err != nil {
			return fmt.Errorf("failed to commit comment %s: %w", comment.ID, err)
		}
		fresh++
	}

	// Count and item flag move only after every comment of this pass is
	// committed, so a crash before this point just re-diffs.
	if err := e.ledger.SetCommentCount(ctx, item.ID, int64(len(comments))); err != nil {
		return fmt.Errorf("failed to update count for item %s: %w", item.ID, err)
	}
	if err := e.ledger.MarkItemProcessed(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to mark item %s processed: %w", item.ID, err)
	}

	e.log.Info("item reconciled",
		logger.String("item_id", item.ID),
		logger.String("source", string(source)),
		logger.Int("comments", len(comments)),
		logger.Int("new", fresh),
		logger.Int("leads", leads))
	return nil
}
