package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered        uint64
	LoginsSucceeded        uint64
	LoginsFailed           uint64
	ExpensesCreated        uint64
	ExpensesUpdated        uint64
	ExpensesDeleted        uint64
	SummaryDurationCount   uint64
	SummaryDurationTotalNs int64
	RateLimitedAuth        uint64
	RateLimitedAPI         uint64
}

// InMemoryRecorder stores metrics in memory.
// It backs the /metrics endpoint and is used directly in tests.
type InMemoryRecorder struct {
	usersRegistered        atomic.Uint64
	loginsSucceeded        atomic.Uint64
	loginsFailed           atomic.Uint64
	expensesCreated        atomic.Uint64
	expensesUpdated        atomic.Uint64
	expensesDeleted        atomic.Uint64
	summaryDurationCount   atomic.Uint64
	summaryDurationTotalNs atomic.Int64
	rateLimitedAuth        atomic.Uint64
	rateLimitedAPI         atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:        m.usersRegistered.Load(),
		LoginsSucceeded:        m.loginsSucceeded.Load(),
		LoginsFailed:           m.loginsFailed.Load(),
		ExpensesCreated:        m.expensesCreated.Load(),
		ExpensesUpdated:        m.expensesUpdated.Load(),
		ExpensesDeleted:        m.expensesDeleted.Load(),
		SummaryDurationCount:   m.summaryDurationCount.Load(),
		SummaryDurationTotalNs: m.summaryDurationTotalNs.Load(),
		RateLimitedAuth:        m.rateLimitedAuth.Load(),
		RateLimitedAPI:         m.rateLimitedAPI.Load(),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	m.usersRegistered.Add(1)
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == LoginSuccess {
		m.loginsSucceeded.Add(1)
		return
	}
	m.loginsFailed.Add(1)
}

// IncExpenseCreated increments expense created counter.
func (m *InMemoryRecorder) IncExpenseCreated() {
	m.expensesCreated.Add(1)
}

// IncExpenseUpdated increments expense updated counter.
func (m *InMemoryRecorder) IncExpenseUpdated() {
	m.expensesUpdated.Add(1)
}

// IncExpenseDeleted increments expense deleted counter.
func (m *InMemoryRecorder) IncExpenseDeleted() {
	m.expensesDeleted.Add(1)
}

// ObserveSummaryDuration records how long a summary took to compute.
func (m *InMemoryRecorder) ObserveSummaryDuration(duration time.Duration) {
	m.summaryDurationCount.Add(1)
	m.summaryDurationTotalNs.Add(duration.Nanoseconds())
}

// IncRateLimited increments the rejected-request counter for scope.
func (m *InMemoryRecorder) IncRateLimited(scope string) {
	if scope == ScopeAuth {
		m.rateLimitedAuth.Add(1)
		return
	}
	m.rateLimitedAPI.Add(1)
}
