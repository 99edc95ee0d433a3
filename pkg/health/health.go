// Package health serves liveness and readiness probes.
//
// Every check runs on its own ticker. A check flips to failing only after
// FailureThreshold consecutive errors and back to passing after
// SuccessThreshold consecutive successes, so a single slow query does not
// take the service out of rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// Check returns nil when the probed component works.
type Check func(ctx context.Context) error

// Kind separates liveness probes from readiness probes.
type Kind int

const (
	Liveness Kind = iota
	Readiness
)

// Option tunes a registered check.
type Option func(*probe)

// FailureThreshold sets how many consecutive errors mark a check failing.
func FailureThreshold(n int) Option {
	return func(p *probe) { p.failAfter = n }
}

// SuccessThreshold sets how many consecutive successes mark a check passing.
func SuccessThreshold(n int) Option {
	return func(p *probe) { p.passAfter = n }
}

type probe struct {
	name      string
	timeout   time.Duration
	check     Check
	failAfter int
	passAfter int

	passing atomic.Bool
	lastErr atomic.Pointer[error]

	// Touched only by the goroutine driving run.
	fails, oks int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)
	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= p.failAfter {
			p.passing.Store(false)
		}
		return
	}
	p.fails = 0
	p.oks++
	if p.oks >= p.passAfter {
		p.passing.Store(true)
	}
}

func (p *probe) failure() string {
	if e := p.lastErr.Load(); e != nil && *e != nil {
		return (*e).Error()
	}
	return "check is failing"
}

// Health tracks probes and the manual readiness switch.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes map[Kind][]*probe
	stop   context.CancelFunc
}

// New returns a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{probes: make(map[Kind][]*probe)}
}

// Add registers a check. Checks start out passing.
func (h *Health) Add(kind Kind, name string, timeout time.Duration, check Check, opts ...Option) {
	p := &probe{
		name:      name,
		timeout:   timeout,
		check:     check,
		failAfter: 3,
		passAfter: 1,
	}
	for _, o := range opts {
		o(p)
	}
	p.passing.Store(true)

	h.mu.Lock()
	h.probes[kind] = append(h.probes[kind], p)
	h.mu.Unlock()
}

func (h *Health) snapshot(kinds ...Kind) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*probe
	for _, k := range kinds {
		out = append(out, h.probes[k]...)
	}
	return out
}

// Start runs every registered check immediately and then every interval
// until Stop is called or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.stop = cancel
	h.mu.Unlock()

	for _, p := range h.snapshot(Liveness, Readiness) {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.run(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}(p)
	}
}

// Stop halts the check goroutines. It may be called more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

// SetReady flips the manual readiness switch, e.g. off while draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Report is the state of one probe kind.
type Report struct {
	// Failures maps failing check names to their last error.
	Failures map[string]string
}

// OK reports whether nothing is failing.
func (r Report) OK() bool { return len(r.Failures) == 0 }

// Report collects failing checks of kind. Readiness also fails while the
// manual switch is off.
func (h *Health) Report(kind Kind) Report {
	r := Report{Failures: make(map[string]string)}
	for _, p := range h.snapshot(kind) {
		if !p.passing.Load() {
			r.Failures[p.name] = p.failure()
		}
	}
	if kind == Readiness && !h.ready.Load() {
		r.Failures["_readiness"] = "service is not ready"
	}
	return r
}

// Ready reports whether the service should receive traffic.
func (h *Health) Ready() bool {
	return h.Report(Readiness).OK()
}

// Handler serves the report of kind as JSON: 200 when OK, 503 otherwise.
func (h *Health) Handler(kind Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r := h.Report(kind)

		status := http.StatusOK
		if !r.OK() {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(r.encode())
	})
}

func (r Report) encode() []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if r.OK() {
		e.Str("ok")
	} else {
		e.Str("unhealthy")
		names := make([]string, 0, len(r.Failures))
		for name := range r.Failures {
			names = append(names, name)
		}
		sort.Strings(names)

		e.FieldStart("checks")
		e.ObjStart()
		for _, name := range names {
			e.FieldStart(name)
			e.Str(r.Failures[name])
		}
		e.ObjEnd()
	}
	e.ObjEnd()
	return e.Bytes()
}
