package echoapi

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"

	"github.com/noteshub/backend/core/status"
)

func Test_statusApi_hello(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/api/hello")
	req.Header.Set("X-Forwarded-Proto", "https") // so HSTS kicks in
	env.app.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, map[string]string{"message": "Hello from the NotesHub API!"}),
	}, rec)

	// security headers must be present on every response
	hdrs := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"X-XSS-Protection":          "1; mode=block",
		"Strict-Transport-Security": "max-age=31536000; includeSubdomains",
	}
	for hdr, want := range hdrs {
		if got := rec.Header().Get(hdr); got != want {
			t.Errorf("%s = %q; want %q", hdr, got, want)
		}
	}
}

func Test_statusApi_dbStatus(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name     string
		pingErr  error
		fallback bool
		want     status.Report
	}{
		{
			name: "healthy database reports ok",
			want: status.Report{Status: status.StateOK, Message: "database connected"},
		},
		{
			name:    "unreachable database reports error",
			pingErr: errors.New("connection refused"),
			want:    status.Report{Status: status.StateError, Message: "database unreachable"},
		},
		{
			name:     "fallback storage reports warning",
			pingErr:  errors.New("connection refused"),
			fallback: true,
			want: status.Report{
				Status:   status.StateWarning,
				Message:  "operating on fallback storage",
				Fallback: true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.pinger.err = tt.pingErr
			env.pinger.fallback = tt.fallback

			req, rec := newRequest(http.MethodGet, "/api/db-status")
			env.app.ServeHTTP(rec, req)

			checkCodeAndData(t, httpTest{
				wantCode: http.StatusOK,
				wantData: marchallObj(t, tt.want),
			}, rec)
		})
	}
}

func Test_keepAliveProbe(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/test")
	env.app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q; want %q", got, "ok")
	}
}
