package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Polling defaults.
const (
	DefaultPollInterval = 30 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

// PollerConfig configures a Poller.
type PollerConfig struct {
	Interval time.Duration // delay between the end of one attempt and the next; 0 = DefaultPollInterval
	Manual   bool          // when true Start does not poll; only Refresh fetches
	Timeout  time.Duration // per-attempt deadline; 0 = DefaultFetchTimeout
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultFetchTimeout
	}
	return c
}

// State is a snapshot of a Poller. It is replaced wholesale on every change.
type State[T any] struct {
	Data      *T        // last successful result, retained across failures
	Loading   bool      // an attempt is in flight
	Err       error     // last failure, cleared by the next success
	UpdatedAt time.Time // when Data was last replaced
}

// FetchFunc performs one attempt.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Poller runs a FetchFunc on a fixed cadence and keeps the latest result.
//
// At most one attempt per activation is in flight at a time; triggers arriving meanwhile
// are dropped. After Stop, the result of an attempt that was already running is discarded
// and no further attempt runs until the next Start.
type Poller[T any] struct {
	name  string
	fetch FetchFunc[T]
	cfg   PollerConfig
	now   func() time.Time
	log   *slog.Logger

	mu          sync.Mutex
	state       State[T]
	inFlight    bool
	inFlightGen uint64 // generation of the attempt marked by inFlight
	running     bool
	stopped     bool // Stop was called and Start has not been called since
	cancel      context.CancelFunc
	gen         uint64 // bumped by Stop; attempts from an older generation are discarded
	issued      uint64
	applied     uint64
	subs        map[int]func(State[T])
	nextSub     int
}

// NewPoller creates a stopped Poller. name is used in logs only.
func NewPoller[T any](name string, fetch FetchFunc[T], cfg PollerConfig, log *slog.Logger) *Poller[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Poller[T]{
		name:  name,
		fetch: fetch,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		log:   log.With("poller", name),
		subs:  make(map[int]func(State[T])),
	}
}

// Start begins polling: one attempt immediately, then one every Interval after the
// previous attempt ends. It is a no-op when already running. In Manual mode it only
// marks the poller as started.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopped = false
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	gen := p.gen
	p.mu.Unlock()

	if p.cfg.Manual {
		return
	}
	go p.loop(loopCtx, gen)
}

// Stop cancels the pending timer. It does not wait for an in-flight attempt; that
// attempt's result is discarded.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	p.gen++
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	cancel()
}

// Running reports whether Start has been called without a matching Stop.
func (p *Poller[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Refresh runs one attempt now and waits for it. It returns false without fetching
// when another attempt is already in flight, or when the poller has been stopped.
// A poller that was never started can be refreshed.
func (p *Poller[T]) Refresh(ctx context.Context) bool {
	p.mu.Lock()
	gen, stopped := p.gen, p.stopped
	p.mu.Unlock()
	if stopped {
		return false
	}
	return p.attempt(ctx, gen)
}

// State returns the current snapshot.
func (p *Poller[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn to be called with every new state. Calls happen outside the
// poller's lock, on the goroutine that produced the change. The returned func unsubscribes.
func (p *Poller[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Poller[T]) loop(ctx context.Context, gen uint64) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if !p.attempt(ctx, gen) {
			p.log.Debug("tick coalesced with in-flight fetch")
		}
		timer.Reset(p.cfg.Interval)
	}
}

// attempt performs one fetch unless gen is no longer current or an attempt of the
// current generation is already in flight. An attempt left over from before Stop does
// not block the next activation.
func (p *Poller[T]) attempt(ctx context.Context, gen uint64) bool {
	p.mu.Lock()
	if gen != p.gen || (p.inFlight && p.inFlightGen == gen) {
		p.mu.Unlock()
		return false
	}
	p.inFlight = true
	p.inFlightGen = gen
	p.issued++
	seq := p.issued
	p.state.Loading = true
	snap, subs := p.state, p.subscribers()
	p.mu.Unlock()
	notify(subs, snap)

	// Stop cancels the loop context but must not abort a running request.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
	data, err := p.fetch(fctx)
	cancel()

	p.mu.Lock()
	if p.inFlightGen == gen {
		p.inFlight = false
	}
	if gen != p.gen || seq <= p.applied {
		p.state.Loading = p.inFlight
		snap, subs = p.state, p.subscribers()
		p.mu.Unlock()
		p.log.Debug("discarding result of superseded fetch", "seq", seq)
		notify(subs, snap)
		return true
	}
	p.applied = seq
	next := State[T]{Data: p.state.Data, UpdatedAt: p.state.UpdatedAt}
	if err != nil {
		next.Err = err
		p.log.Warn("fetch failed", "error", err)
	} else {
		next.Data = &data
		next.UpdatedAt = p.now()
	}
	p.state = next
	snap, subs = p.state, p.subscribers()
	p.mu.Unlock()

	notify(subs, snap)
	return true
}

// subscribers must be called with p.mu held.
func (p *Poller[T]) subscribers() []func(State[T]) {
	if len(p.subs) == 0 {
		return nil
	}
	out := make([]func(State[T]), 0, len(p.subs))
	for _, fn := range p.subs {
		out = append(out, fn)
	}
	return out
}

func notify[T any](subs []func(State[T]), s State[T]) {
	for _, fn := range subs {
		fn(s)
	}
}
