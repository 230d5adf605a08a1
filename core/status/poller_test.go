package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func statusServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPoller_LastIsCheckingBeforeFirstPoll(t *testing.T) {
	p := NewPoller("http://localhost:0", time.Minute, nil)
	assert.Equal(t, StateChecking, p.Last().Status)
}

func TestPoller_Check(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Report
	}{
		{
			name: "ok",
			body: `{"status":"ok","message":"database connected","fallback":false}`,
			want: Report{Status: StateOK, Message: "database connected"},
		},
		{
			name: "warning is distinct from error",
			body: `{"status":"warning","message":"using local cache","fallback":true}`,
			want: Report{Status: StateWarning, Message: "using local cache", Fallback: true},
		},
		{
			name: "error reported by endpoint",
			body: `{"status":"error","message":"database unreachable","fallback":false}`,
			want: Report{Status: StateError, Message: "database unreachable"},
		},
		{
			name: "undecodable body synthesizes error",
			body: `<!doctype html>`,
			want: Report{Status: StateError, Message: connectFailedMsg, Fallback: true},
		},
		{
			name: "unknown status synthesizes error",
			body: `{"status":"degraded"}`,
			want: Report{Status: StateError, Message: connectFailedMsg, Fallback: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := statusServer(t, tt.body)
			p := NewPoller(srv.URL, time.Minute, nil)

			got := p.Check(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, p.Last(), "check result must be recorded")
		})
	}
}

func TestPoller_NetworkFailureSynthesizesError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	p := NewPoller(srv.URL, time.Minute, nil)
	got := p.Check(context.Background())

	want := Report{Status: StateError, Message: connectFailedMsg, Fallback: true}
	assert.Equal(t, want, got)
	// never left stuck on the checking state after a failed attempt
	assert.Equal(t, want, p.Last())
}

func TestPoller_StartPollsAndStopCancels(t *testing.T) {
	polled := make(chan Report, 16)
	srv := statusServer(t, `{"status":"ok","message":"database connected"}`)

	p := NewPoller(srv.URL, 10*time.Millisecond, nil, WithOnUpdate(func(rep Report) {
		select {
		case polled <- rep:
		default:
		}
	}))
	p.Start(context.Background())

	select {
	case rep := <-polled:
		assert.Equal(t, StateOK, rep.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reported")
	}

	p.Stop()

	// drain anything in flight, then make sure the timer is gone
	for len(polled) > 0 {
		<-polled
	}
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, polled, "poller kept running after Stop")

	p.Stop() // stopping twice is fine
}

func TestPoller_StopWithoutStart(t *testing.T) {
	p := NewPoller("http://localhost:0", time.Minute, nil)
	p.Stop() // must not block or panic
}
