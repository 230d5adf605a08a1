// Package keepalive keeps a free-tier backend host from idling out by
// requesting one of its endpoints on a fixed interval.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noteshub/backend/core"
	"github.com/noteshub/backend/services/metrics"
)

// maxLoggedBody caps how much of the response body ends up in the logs.
const maxLoggedBody = 512

// Pinger issues GET {baseURL}/test on every tick and logs the status code
// and body. A failed ping is logged and retried only at the next tick.
type Pinger struct {
	baseURL  string
	interval time.Duration
	client   *http.Client
	logger   core.Logger

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewPinger(baseURL string, interval time.Duration, logger core.Logger) *Pinger {
	return &Pinger{
		baseURL:  strings.TrimRight(baseURL, "/"),
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Ping performs a single keep-alive request.
func (p *Pinger) Ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/test", nil)
	if err != nil {
		p.logger.Error("building keep-alive request", err)
		return
	}

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.KeepAlivePings.WithLabelValues("error").Inc()
		p.logger.Warn(fmt.Sprintf("keep-alive ping failed: %v", err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	metrics.KeepAlivePings.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	p.logger.Info(fmt.Sprintf("keep-alive ping: %d %s", resp.StatusCode, strings.TrimSpace(string(body))))
}

// Start pings once immediately, then on every interval tick until the given
// context is cancelled or Stop is called.
func (p *Pinger) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	go func() {
		defer close(p.done)

		p.Ping(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Ping(ctx)
			}
		}
	}()
}

// Stop cancels the ping loop and waits for it to exit.
func (p *Pinger) Stop() {
	p.stopOnce.Do(func() {
		if p.cancel == nil { // never started
			return
		}
		p.cancel()
		<-p.done
	})
}
