// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes passed to IncLogin.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Rate limit scopes passed to IncRateLimited.
const (
	ScopeAuth = "auth"
	ScopeAPI  = "api"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLogin(status string)

	// Expense metrics
	IncExpenseCreated()
	IncExpenseUpdated()
	IncExpenseDeleted()
	ObserveSummaryDuration(duration time.Duration)

	// Edge metrics
	IncRateLimited(scope string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
