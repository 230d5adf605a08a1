// Package metrics exposes the app's Prometheus collectors. They are served
// on the debug mux next to expvar.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DBStatusPolls counts poll outcomes by reported status.
	DBStatusPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteshub_db_status_polls_total",
		Help: "Outcomes of db-status polls, labeled by reported status.",
	}, []string{"status"})

	// KeepAlivePings counts keep-alive pings by HTTP status code
	// ("error" when the request never completed).
	KeepAlivePings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noteshub_keepalive_pings_total",
		Help: "Keep-alive pings, labeled by HTTP status code.",
	}, []string{"code"})

	// NoteFlags counts flag submissions accepted by the API.
	NoteFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noteshub_note_flags_total",
		Help: "Note flag submissions accepted by the API.",
	})

	// NoteUploads counts notes uploaded through the API.
	NoteUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "noteshub_note_uploads_total",
		Help: "Notes uploaded through the API.",
	})
)

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
