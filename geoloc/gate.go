// Package geoloc provides the geolocation cache/dedup gate.
//
// The gate coalesces concurrent position requests into a single underlying
// platform call and serves cached positions within a freshness window. This
// matters because each underlying call may trigger a user-visible permission
// prompt; two concurrent callers must share one prompt, not raise two.
package geoloc

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Freshness is how long a cached position remains valid for reuse.
const Freshness = 5 * time.Minute

// Position is a successfully resolved device position.
type Position struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

// Options configure the underlying platform request.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultOptions returns the request options used by the gate.
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      25 * time.Second,
		MaximumAge:   Freshness,
	}
}

// Locator is the platform geolocation capability. Implementations wrap
// whatever position source the host environment provides.
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context, opts Options) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	return f(ctx, opts)
}

// inflight is one shared pending request. Result fields are written exactly
// once, before done is closed; waiters read them only after <-done.
type inflight struct {
	done chan struct{}
	pos  Position
	err  error
}

// Gate serializes and caches position requests.
//
// State machine per session: Idle -> Pending (one shared in-flight call) ->
// Cached on success, back to Idle on failure. A result older than Freshness
// is treated as absent and a new request starts.
type Gate struct {
	locator Locator
	opts    Options
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	pending  *inflight
	cached   Position
	cachedAt time.Time
	hasCache bool
}

// GateOption configures the Gate.
type GateOption func(*Gate)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

// WithOptions overrides the platform request options.
func WithOptions(opts Options) GateOption {
	return func(g *Gate) { g.opts = opts }
}

// WithClock sets a custom clock (useful for testing the freshness window).
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a gate around the given locator.
func NewGate(locator Locator, opts ...GateOption) *Gate {
	g := &Gate{
		locator: locator,
		opts:    DefaultOptions(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Request returns the current position, serving it from cache when fresh and
// joining any in-flight request otherwise. All callers observing the same
// pending window receive the identical result from a single locator call.
//
// A caller whose ctx is cancelled returns ctx.Err() without cancelling the
// shared underlying call; late results still populate the cache for the next
// caller.
func (g *Gate) Request(ctx context.Context) (Position, error) {
	g.mu.Lock()

	if g.hasCache && g.now().Sub(g.cachedAt) < Freshness {
		pos := g.cached
		g.mu.Unlock()
		return pos, nil
	}

	if call := g.pending; call != nil {
		g.mu.Unlock()
		return g.wait(ctx, call)
	}

	call := &inflight{done: make(chan struct{})}
	g.pending = call
	g.mu.Unlock()

	go g.resolve(call)

	return g.wait(ctx, call)
}

// resolve performs the single underlying platform call for one pending
// window and publishes its result exactly once.
func (g *Gate) resolve(call *inflight) {
	// Detached from any caller's context: waiter cancellation must not
	// cancel the shared request. The platform timeout still applies.
	ctx := context.Background()
	var cancel context.CancelFunc
	if g.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	pos, err := g.locator.CurrentPosition(ctx, g.opts)
	err = normalizeError(err)

	g.mu.Lock()
	if err == nil {
		g.cached = pos
		g.cachedAt = g.now()
		g.hasCache = true
	}
	g.pending = nil
	g.mu.Unlock()

	if err != nil {
		g.logger.Debug("geolocation request failed", "error", err)
	}

	call.pos = pos
	call.err = err
	close(call.done)
}

func (g *Gate) wait(ctx context.Context, call *inflight) (Position, error) {
	select {
	case <-call.done:
		return call.pos, call.err
	case <-ctx.Done():
		return Position{}, ctx.Err()
	}
}
