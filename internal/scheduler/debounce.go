package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/leadscout/leadscout/internal/domain"
	"github.com/leadscout/leadscout/internal/logger"
)

// ReconcileFunc runs a targeted reconciliation for one item.
type ReconcileFunc func(ctx context.Context, item domain.Item, source domain.Source) error

// Debouncer delays targeted reconciliations so the provider has time
// to make a freshly announced item fully queryable. Re-announcing an
// item while its timer is pending resets the timer. All pending work
// is tracked and cancelled on shutdown; there are no fire-and-forget
// timers.
type Debouncer struct {
	reconcile ReconcileFunc
	log       logger.Logger
	delay     time.Duration

	mu      sync.Mutex
	ctx     context.Context
	pending map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer with the given propagation delay.
func NewDebouncer(reconcile ReconcileFunc, log logger.Logger, delay time.Duration) *Debouncer {
	return &Debouncer{
		reconcile: reconcile,
		log:       log,
		delay:     delay,
		pending:   make(map[string]*time.Timer),
	}
}

// Start binds the debouncer to a lifecycle context. When the context
// ends, pending timers are cancelled.
func (d *Debouncer) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.Stop()
	}()
}

// Schedule queues a targeted reconciliation for item after the delay.
func (d *Debouncer) Schedule(item domain.Item) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if timer, ok := d.pending[item.ID]; ok {
		timer.Stop()
		d.log.Debug("debounce reset", logger.String("item_id", item.ID))
	}
	d.pending[item.ID] = time.AfterFunc(d.delay, func() { d.fire(item) })
}

// Stop cancels all pending reconciliations.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for id, timer := range d.pending {
		timer.Stop()
		delete(d.pending, id)
	}
}

func (d *Debouncer) fire(item domain.Item) {
	d.mu.Lock()
	delete(d.pending, item.ID)
	ctx := d.ctx
	stopped := d.stopped
	d.mu.Unlock()

	if stopped || ctx == nil || ctx.Err() != nil {
		return
	}
	if err := d.reconcile(ctx, item, domain.SourcePush); err != nil {
		d.log.Error("targeted reconciliation failed",
			logger.String("item_id", item.ID),
			logger.Error(err))
	}
}
