package interfaces

import "time"

// WatchlistStatus reports the state of the watchlist scheduler
type WatchlistStatus struct {
	Enabled   bool
	Schedule  string
	Tickers   []string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based watchlist re-research
type SchedulerService interface {
	// Start the scheduler with the configured cron expression
	Start() error

	// Stop the scheduler
	Stop() error

	// TriggerNow manually runs research over the watchlist
	TriggerNow() error

	// IsRunning returns true if the scheduler is active
	IsRunning() bool

	// Status returns the current watchlist scheduler state
	Status() *WatchlistStatus
}
