package reviewsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/five82/reviewdeck/internal/reviews"
	"github.com/five82/reviewdeck/internal/state"
	"github.com/five82/reviewdeck/internal/telemetry"
)

// DefaultInterval is the auto refresh cadence.
const DefaultInterval = 15 * time.Second

var (
	// ErrAlreadyStarted is returned by Start on a running controller.
	ErrAlreadyStarted = errors.New("review sync already started")
	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("review sync stopped")
)

type trigger string

const (
	triggerInitial trigger = "initial"
	triggerTimer   trigger = "timer"
	triggerManual  trigger = "manual"
)

// Option configures a Controller.
type Option func(*Controller)

// WithInterval sets the auto refresh cadence. Non-positive values keep
// DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.WithTicker) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records cycle outcomes. Nil metrics are a no-op.
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller drives the review fetch lifecycle: an immediate fetch on Start,
// one per interval afterwards, and out-of-band fetches via RefreshNow.
type Controller struct {
	fetcher  reviews.Fetcher
	store    *state.Store
	clock    clock.WithTicker
	interval time.Duration
	logger   *zap.Logger
	metrics  *telemetry.SyncMetrics

	changes chan struct{}

	// ctx is cancelled by Stop and bounds every fetch.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool

	inflight sync.WaitGroup
}

// New builds an idle controller. Nothing is fetched until Start or
// RefreshNow.
func New(fetcher reviews.Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		clock:    clock.RealClock{},
		interval: DefaultInterval,
		logger:   zap.NewNop(),
		changes:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.store = state.NewStore(c.clock.Now)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Interval returns the auto refresh cadence.
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// State returns the current snapshot.
func (c *Controller) State() state.Snapshot {
	return c.store.Snapshot()
}

// Changes signals after every state transition. Signals coalesce: a reader
// that falls behind sees one pending signal, then reads State.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Start runs one fetch cycle immediately and then one per interval until Stop
// is called or ctx is cancelled. It returns without waiting for the fetch.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	ticker := c.clock.NewTicker(c.interval)
	c.mu.Unlock()

	c.logger.Info("review sync started", zap.Duration("interval", c.interval))
	c.launch(triggerInitial)
	go c.loop(ctx, ticker)
	return nil
}

// Stop cancels the recurring timer and any in-flight fetch. Results that
// arrive afterwards are ignored. Stop is idempotent and safe before Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.store.Close()
	c.cancel()
	c.logger.Info("review sync stopped")
}

// RefreshNow starts an out-of-band fetch without disturbing the timer. It
// may overlap a cycle already in flight; only the latest cycle's result is
// applied. It returns false after Stop.
func (c *Controller) RefreshNow() bool {
	return c.launch(triggerManual)
}

func (c *Controller) loop(parent context.Context, ticker clock.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-parent.Done():
			c.Stop()
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C():
			c.launch(triggerTimer)
		}
	}
}

func (c *Controller) launch(why trigger) bool {
	seq, ok := c.store.Begin()
	if !ok {
		return false
	}
	c.notify()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.runCycle(seq, why)
	}()
	return true
}

func (c *Controller) runCycle(seq uint64, why trigger) {
	log := c.logger.With(zap.Uint64("seq", seq), zap.String("trigger", string(why)))
	start := c.clock.Now()

	list, err := c.fetcher.FetchReviews(c.ctx)
	elapsed := c.clock.Since(start)

	// Metrics outlive the lifecycle context.
	mctx := context.Background()

	if !c.store.Apply(seq, list, err) {
		log.Debug("discarding stale review fetch", zap.Duration("elapsed", elapsed), zap.Error(err))
		c.metrics.RecordCycle(mctx, telemetry.OutcomeDiscarded, elapsed)
		return
	}

	if err != nil {
		log.Warn("review fetch failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		c.metrics.RecordCycle(mctx, telemetry.OutcomeError, elapsed)
	} else {
		log.Debug("review fetch succeeded", zap.Duration("elapsed", elapsed), zap.Int("reviews", len(list)))
		c.metrics.RecordCycle(mctx, telemetry.OutcomeSuccess, elapsed)
		c.metrics.RecordReviewsShown(mctx, len(list))
	}
	c.notify()
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
