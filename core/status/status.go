package status

import "context"

// State is the health of the backing data store as surfaced to clients.
type State string

const (
	// StateChecking is the neutral state before any report has been received.
	StateChecking State = "checking"
	StateOK       State = "ok"
	StateWarning  State = "warning" // operating on fallback storage
	StateError    State = "error"
)

// Report is the payload of the db-status endpoint. It is produced per check
// and never persisted; each report replaces the previous one.
type Report struct {
	Status   State  `json:"status"`
	Message  string `json:"message"`
	Fallback bool   `json:"fallback"`
}

// CheckingReport is what a consumer shows while no report has arrived yet.
func CheckingReport() Report {
	return Report{Status: StateChecking, Message: "checking database status"}
}

// Pinger is the slice of *sql.DB the checker needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Checker produces a Report for the primary database. When the application
// is serving from its in-memory fallback store, the report degrades to
// StateWarning instead of StateError.
type Checker struct {
	db         Pinger
	onFallback func() bool
}

// NewChecker builds a Checker. onFallback may be nil when the deployment has
// no fallback store.
func NewChecker(db Pinger, onFallback func() bool) *Checker {
	return &Checker{db: db, onFallback: onFallback}
}

func (c *Checker) Check(ctx context.Context) Report {
	if c.onFallback != nil && c.onFallback() {
		return Report{
			Status:   StateWarning,
			Message:  "operating on fallback storage",
			Fallback: true,
		}
	}
	if c.db == nil {
		return Report{Status: StateError, Message: "no database configured"}
	}
	if err := c.db.PingContext(ctx); err != nil {
		return Report{Status: StateError, Message: "database unreachable"}
	}
	return Report{Status: StateOK, Message: "database connected"}
}
