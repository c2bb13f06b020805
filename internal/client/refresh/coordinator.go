package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/client/credentials"
	"github.com/dmitrijs2005/cmsclient/internal/logging"
)

// DefaultTimeout bounds one refresh epoch unless WithTimeout overrides it.
const DefaultTimeout = 10 * time.Second

type State int

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// Outcome is the result of one refresh epoch: Some(Credential) when OK,
// None otherwise.
type Outcome struct {
	Credential credentials.Credential
	OK         bool
}

func None() Outcome { return Outcome{} }

func Some(c credentials.Credential) Outcome { return Outcome{Credential: c, OK: true} }

// Refresher performs the underlying network refresh.
type Refresher interface {
	Refresh(ctx context.Context) (credentials.Credential, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) (credentials.Credential, error)

func (f RefresherFunc) Refresh(ctx context.Context) (credentials.Credential, error) {
	return f(ctx)
}

type flight struct {
	done    chan struct{}
	outcome Outcome
	waiters int
}

type Coordinator struct {
	refresher Refresher
	store     credentials.Store
	timeout   time.Duration
	log       logging.Logger

	mu       sync.Mutex
	inflight *flight
	epochs   int
}

type Option func(*Coordinator)

// WithTimeout bounds every epoch; zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

func NewCoordinator(refresher Refresher, store credentials.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		refresher: refresher,
		store:     store,
		timeout:   DefaultTimeout,
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Refresh returns the outcome of the current epoch, starting one if none is
// in flight. The epoch itself is not tied to ctx: if ctx ends first the
// caller gets None while other callers keep waiting for the shared result.
func (c *Coordinator) Refresh(ctx context.Context) Outcome {
	c.mu.Lock()
	f := c.inflight
	if f == nil {
		f = &flight{done: make(chan struct{})}
		c.inflight = f
		c.epochs++
		go c.run(context.WithoutCancel(ctx), f, c.epochs)
	}
	f.waiters++
	c.mu.Unlock()

	select {
	case <-f.done:
		return f.outcome
	case <-ctx.Done():
		return None()
	}
}

// State reports whether a flight is currently recorded.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return Refreshing
	}
	return Idle
}

// Waiters is the number of callers attached to the current flight.
func (c *Coordinator) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == nil {
		return 0
	}
	return c.inflight.waiters
}

// Epochs is the number of refreshes started so far.
func (c *Coordinator) Epochs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs
}

func (c *Coordinator) run(ctx context.Context, f *flight, epoch int) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	c.log.Debug(ctx, "refresh started", "epoch", epoch)

	out := c.refresh(ctx, epoch)

	c.mu.Lock()
	c.inflight = nil
	f.outcome = out
	waiters := f.waiters
	c.mu.Unlock()
	close(f.done)

	c.log.Debug(ctx, "refresh settled",
		"epoch", epoch,
		"ok", out.OK,
		"waiters", waiters,
		"elapsed", time.Since(started),
	)
}

func (c *Coordinator) refresh(ctx context.Context, epoch int) Outcome {
	type result struct {
		cred credentials.Credential
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		cred, err := c.refresher.Refresh(ctx)
		ch <- result{cred, err}
	}()

	var r result
	select {
	case r = <-ch:
	case <-ctx.Done():
		c.log.Warn(ctx, "refresh timed out", "epoch", epoch, "error", ctx.Err())
		return None()
	}

	if r.err != nil {
		c.log.Warn(ctx, "refresh failed", "epoch", epoch, "error", r.err)
		return None()
	}
	if r.cred == "" {
		c.log.Warn(ctx, "refresh returned no credential", "epoch", epoch)
		return None()
	}
	if err := c.store.Set(ctx, r.cred); err != nil {
		c.log.Error(ctx, "store refreshed credential", "epoch", epoch, "error", err)
		return None()
	}
	return Some(r.cred)
}
