package keepalive

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noteshub/backend/core"
)

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

var _ core.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, msg)
}

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func (l *recordingLogger) Enable(bool)                        {}
func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.record(msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.record(msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.record(msg) }
func (l *recordingLogger) Fatal(msg string, _ ...interface{}) {
	l.record(msg)
	log.New(os.Stderr, "", 0).Fatal(msg)
}

func TestPinger_LogsStatusAndBody(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	NewPinger(srv.URL, time.Minute, logger).Ping(context.Background())

	assert.Equal(t, "/test", gotPath)

	lines := logger.all()
	if assert.Len(t, lines, 1) {
		assert.Contains(t, lines[0], "200")
		assert.Contains(t, lines[0], "pong")
	}
}

func TestPinger_FailureIsLoggedNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	logger := &recordingLogger{}
	NewPinger(srv.URL, time.Minute, logger).Ping(context.Background())

	lines := logger.all()
	if assert.Len(t, lines, 1) {
		assert.True(t, strings.Contains(lines[0], "keep-alive ping failed"), lines[0])
	}
}

func TestPinger_StartAndStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	p := NewPinger(srv.URL, 10*time.Millisecond, logger)
	p.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for len(logger.all()) == 0 {
		select {
		case <-deadline:
			t.Fatal("pinger never pinged")
		case <-time.After(5 * time.Millisecond):
		}
	}

	p.Stop()
	n := len(logger.all())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, len(logger.all()), "pinger kept running after Stop")
}
