// Package controller reconciles user-edited filter state with server-side paginated
// results.
//
// Filter and limit edits are debounced through a single timer slot; page navigation
// fetches immediately. Every fetch carries a generation number and only the newest
// generation may commit, so responses that resolve out of order never overwrite newer
// state. Superseded requests are also cancelled through their context.
package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/pagination"
)

// DefaultDebounce is the quiet period after the last edit before a fetch starts.
const DefaultDebounce = 250 * time.Millisecond

// DefaultLimit is the page size used when the initial state does not set one.
const DefaultLimit = 20

// Fetcher loads one page of publications and the total match count. page is zero-based.
type Fetcher interface {
	FetchList(ctx context.Context, filters model.FilterSet, page, limit int) ([]model.Publication, error)
	FetchCount(ctx context.Context, filters model.FilterSet) (int, error)
}

// State seeds a controller.
type State struct {
	Filters model.FilterSet
	Page    int
	Limit   int
	Result  model.ResultPage
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the debounce window. Zero still defers the fetch to the clock.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithClock replaces the scheduler used for debounce timers.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithListener registers a snapshot callback. Listeners run outside the controller lock,
// in increasing Version order, and must not call back into the controller synchronously.
func WithListener(fn Listener) Option {
	return func(c *Controller) {
		if fn != nil {
			c.subscribeLocked(fn)
		}
	}
}

// WithContext sets the parent context for fetches. Cancelling it stops in-flight
// requests but does not close the controller.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.parent = ctx
		}
	}
}

// Controller coordinates one filtered, paginated view. Safe for concurrent use.
type Controller struct {
	fetcher  Fetcher
	clock    Clock
	debounce time.Duration
	logger   zerolog.Logger
	parent   context.Context

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	filters  model.FilterSet
	page     int
	limit    int
	result   model.ResultPage
	status   model.PendingStatus
	err      error
	gen      uint64
	version  uint64
	timer    Timer
	inflight context.CancelFunc
	changed  chan struct{}
	closed   bool

	notifyMu  sync.Mutex
	delivered uint64
	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

// New creates a controller in the Idle state holding initial.
func New(fetcher Fetcher, initial State, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  fetcher,
		clock:    SystemClock{},
		debounce: DefaultDebounce,
		logger:   zerolog.Nop(),
		parent:   context.Background(),
		filters:  initial.Filters.Clone(),
		page:     max(initial.Page, 1),
		limit:    initial.Limit,
		result:   initial.Result,
		status:   model.StatusIdle,
		changed:  make(chan struct{}),
	}
	if c.limit < 1 {
		c.limit = DefaultLimit
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(c.parent)
	return c
}

// SetFilter applies edits atomically. When anything changed the page resets to 1 and a
// debounced fetch is (re)armed. It reports whether the filters changed.
func (c *Controller) SetFilter(edits ...model.FilterEdit) bool {
	c.mu.Lock()
	if c.closed || !c.filters.Apply(edits...) {
		c.mu.Unlock()
		return false
	}
	c.page = 1
	c.armLocked("filter")
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// SetLimit parses input as the new page size. Invalid input returns ErrInvalidLimit and
// leaves state untouched; the current limit is unchanged by an equal value.
func (c *Controller) SetLimit(input string) error {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 {
		return fmt.Errorf("%w: %q", ErrInvalidLimit, input)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if n == c.limit {
		c.mu.Unlock()
		return nil
	}
	c.limit = n
	c.page = 1
	c.armLocked("limit")
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// SetPage navigates using a pagination token ("prev", "next", "first", "last" or a page
// number). It cancels any armed debounce and fetches immediately. Unknown or out-of-range
// tokens are rejected without changing state.
func (c *Controller) SetPage(token string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	target, err := pagination.Resolve(token, c.page, c.result.TotalCount, c.limit)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn().Ctx(c.ctx).Err(err).Str("token", token).Msg("pagination token rejected")
		return err
	}
	c.page = target
	c.stopTimerLocked()
	c.gen++
	c.startFetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Refresh re-issues the current query immediately.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.gen++
	c.startFetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Subscribe adds fn to the listeners and returns a function that removes it. fn first
// receives the next state change, not the current state.
func (c *Controller) Subscribe(fn Listener) (unsubscribe func()) {
	c.notifyMu.Lock()
	id := c.subscribeLocked(fn)
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		c.listeners = slices.DeleteFunc(c.listeners, func(s subscription) bool { return s.id == id })
	}
}

func (c *Controller) subscribeLocked(fn Listener) int {
	c.nextSub++
	c.listeners = append(c.listeners, subscription{id: c.nextSub, fn: fn})
	return c.nextSub
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Await blocks until the controller is Idle and returns that state.
func (c *Controller) Await(ctx context.Context) (Snapshot, error) {
	for {
		c.mu.Lock()
		if c.status == model.StatusIdle || c.closed {
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap, nil
		}
		ch := c.changed
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
}

// Close stops the timer, cancels in-flight requests and waits for them to return.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.cancelInflightLocked()
	c.gen++
	c.status = model.StatusIdle
	c.bumpLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// armLocked supersedes any pending or in-flight work and schedules a fetch after the
// debounce window.
func (c *Controller) armLocked(reason string) {
	c.stopTimerLocked()
	c.cancelInflightLocked()
	c.gen++
	c.status = model.StatusPending
	c.err = nil
	c.bumpLocked()

	gen := c.gen
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(gen) })
	c.logger.Debug().Ctx(c.ctx).
		Str("reason", reason).
		Uint64("generation", gen).
		Dur("debounce", c.debounce).
		Msg("refresh scheduled")
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug().Ctx(c.ctx).Uint64("generation", gen).Msg("stale timer ignored")
		return
	}
	c.timer = nil
	c.startFetchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// startFetchLocked launches list and count requests for the current generation.
func (c *Controller) startFetchLocked() {
	c.cancelInflightLocked()
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.status = model.StatusFetching
	c.err = nil
	c.bumpLocked()

	gen, filters, page, limit := c.gen, c.filters.Clone(), c.page, c.limit
	c.logger.Debug().Ctx(ctx).
		Uint64("generation", gen).
		Int("page", page).
		Int("limit", limit).
		Msg("fetching publications")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		result, err := c.fetch(ctx, filters, page, limit)
		c.commit(gen, result, err)
	}()
}

func (c *Controller) fetch(ctx context.Context, filters model.FilterSet, page, limit int) (model.ResultPage, error) {
	var result model.ResultPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.fetcher.FetchCount(gctx, filters)
		if err != nil {
			return fmt.Errorf("counting publications: %w", err)
		}
		result.TotalCount = n
		return nil
	})
	g.Go(func() error {
		items, err := c.fetcher.FetchList(gctx, filters, page-1, limit)
		if err != nil {
			return fmt.Errorf("listing publications: %w", err)
		}
		result.Items = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.ResultPage{}, err
	}
	return result, nil
}

// commit applies a finished fetch if it still belongs to the current generation.
func (c *Controller) commit(gen uint64, result model.ResultPage, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug().Ctx(c.ctx).Uint64("generation", gen).Err(err).Msg("stale response discarded")
		return
	}
	c.inflight = nil
	c.status = model.StatusIdle
	if err != nil {
		c.err = err
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn().Ctx(c.ctx).Err(err).Uint64("generation", gen).Msg("fetch failed")
		}
	} else {
		c.result = result
		c.err = nil
		c.logger.Debug().Ctx(c.ctx).
			Uint64("generation", gen).
			Int("items", len(result.Items)).
			Int("total", result.TotalCount).
			Msg("results committed")
	}
	c.bumpLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) cancelInflightLocked() {
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

// bumpLocked records a state change and wakes Await callers.
func (c *Controller) bumpLocked() {
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Version: c.version,
		Filters: c.filters.Clone(),
		Page:    c.page,
		Limit:   c.limit,
		Result:  c.result,
		Status:  c.status,
		Err:     c.err,
		Links:   pagination.PageLinks(c.page, c.result.TotalCount, c.limit),
	}
}

// notify delivers snap unless a newer snapshot was already delivered.
func (c *Controller) notify(snap Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Version <= c.delivered {
		return
	}
	c.delivered = snap.Version
	for _, s := range c.listeners {
		s.fn(snap)
	}
}
