package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/noteshub/backend/core"
)

// connectFailedMsg is the message synthesized when a poll attempt fails for
// any reason (network, non-2xx, undecodable body).
const connectFailedMsg = "Could not connect to server"

// Poller periodically fetches a db-status endpoint and keeps the most recent
// Report. It never retries within an interval: a failed attempt synthesizes
// an error report and waits for the next tick.
//
// Overlapping polls are not ordered; the last completed response wins.
type Poller struct {
	endpoint string
	interval time.Duration
	client   *http.Client
	logger   core.Logger
	onUpdate func(Report)

	mu   sync.RWMutex
	last Report
	seen bool

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) PollerOption {
	return func(p *Poller) { p.client = client }
}

// WithOnUpdate registers a callback invoked with every new report,
// including synthesized failure reports.
func WithOnUpdate(fn func(Report)) PollerOption {
	return func(p *Poller) { p.onUpdate = fn }
}

func NewPoller(endpoint string, interval time.Duration, logger core.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		endpoint: endpoint,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Last returns the most recent report, or the neutral checking report while
// no poll has completed yet.
func (p *Poller) Last() Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.seen {
		return CheckingReport()
	}
	return p.last
}

// Check performs one poll, records the result and returns it. A failed
// attempt yields the synthesized error report, never an error: the consumer
// must not be left in a stale checking state.
func (p *Poller) Check(ctx context.Context) Report {
	rep, err := p.fetch(ctx)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("db-status poll failed", err)
		}
		rep = Report{Status: StateError, Message: connectFailedMsg, Fallback: true}
	}
	p.record(rep)
	return rep
}

func (p *Poller) fetch(ctx context.Context) (Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return Report{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, fmt.Errorf("db-status endpoint returned %s", resp.Status)
	}

	var rep Report
	if err = json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		return Report{}, err
	}
	switch rep.Status {
	case StateOK, StateWarning, StateError:
	default:
		return Report{}, fmt.Errorf("unknown status %q", rep.Status)
	}
	return rep, nil
}

func (p *Poller) record(rep Report) {
	p.mu.Lock()
	p.last = rep
	p.seen = true
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(rep)
	}
}

// Start polls once immediately, then on every interval tick until the given
// context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	go func() {
		defer close(p.done)

		p.Check(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Check(ctx)
			}
		}
	}()
}

// Stop cancels the polling loop and waits for it to exit. It is required
// whenever the consumer goes away, so no recurring background request leaks.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel == nil { // never started
			return
		}
		p.cancel()
		<-p.done
	})
}
