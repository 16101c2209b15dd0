// -----------------------------------------------------------------------
// Watchlist scheduler - periodically re-researches the configured
// tickers on a cron schedule
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
)

// Service implements SchedulerService over robfig/cron. Watchlist runs
// never overlap: a tick that fires while a cycle is still in flight is
// skipped.
type Service struct {
	research interfaces.ResearchService
	config   common.WatchlistConfig
	cron     *cron.Cron
	logger   arbor.ILogger

	mu           sync.Mutex
	cronID       cron.EntryID
	running      bool
	isProcessing bool
	lastRun      *time.Time
	lastError    string
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a watchlist scheduler. Schedules use six-field cron
// expressions with a seconds column.
func NewService(research interfaces.ResearchService, config common.WatchlistConfig, logger arbor.ILogger) *Service {
	return &Service{
		research: research,
		config:   config,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Start registers the watchlist job and starts the cron loop. A disabled
// or empty watchlist is not an error; the scheduler simply stays idle.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if !s.config.Enabled || len(s.config.Tickers) == 0 {
		s.logger.Info().Msg("Watchlist disabled, scheduler idle")
		return nil
	}

	cronID, err := s.cron.AddFunc(s.config.Schedule, s.runWatchlist)
	if err != nil {
		return fmt.Errorf("invalid watchlist schedule %q: %w", s.config.Schedule, err)
	}
	s.cronID = cronID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Int("tickers", len(s.config.Tickers)).
		Msg("Watchlist scheduler started")

	return nil
}

// Stop halts the cron loop. A watchlist cycle already in flight runs to
// completion.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Watchlist scheduler stopped")
	return nil
}

// TriggerNow runs the watchlist cycle immediately in the background.
func (s *Service) TriggerNow() error {
	if len(s.config.Tickers) == 0 {
		return fmt.Errorf("watchlist is empty")
	}

	s.logger.Info().Msg("Manual watchlist run triggered")
	common.SafeGo(s.logger, "watchlistRun", s.runWatchlist)
	return nil
}

// IsRunning returns true if the cron loop is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status reports the scheduler and watchlist state
func (s *Service) Status() *interfaces.WatchlistStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.WatchlistStatus{
		Enabled:   s.config.Enabled,
		Schedule:  s.config.Schedule,
		Tickers:   s.config.Tickers,
		LastRun:   s.lastRun,
		IsRunning: s.isProcessing,
		LastError: s.lastError,
	}

	if s.running {
		for _, entry := range s.cron.Entries() {
			if entry.ID == s.cronID {
				next := entry.Next
				status.NextRun = &next
				break
			}
		}
	}

	return &status
}

// runWatchlist researches every watchlist ticker sequentially. A failed
// ticker is logged and the cycle continues; the last failure is surfaced
// in Status.
func (s *Service) runWatchlist() {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Watchlist cycle already in progress, skipping tick")
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		now := time.Now()
		s.mu.Lock()
		s.isProcessing = false
		s.lastRun = &now
		s.mu.Unlock()
	}()

	s.logger.Info().
		Int("tickers", len(s.config.Tickers)).
		Msg("Starting watchlist research cycle")

	started := time.Now()
	cycleError := ""
	for _, ticker := range s.config.Tickers {
		result, err := s.research.Research(context.Background(), ticker)
		if err != nil {
			cycleError = fmt.Sprintf("%s: %v", ticker, err)
			s.logger.Warn().
				Str("ticker", ticker).
				Err(err).
				Msg("Watchlist research failed, continuing with next ticker")
			continue
		}

		s.logger.Info().
			Str("ticker", result.Ticker).
			Str("verdict", string(result.Verdict)).
			Int("score", result.ExtendedScore).
			Msg("Watchlist research completed")
	}

	s.mu.Lock()
	s.lastError = cycleError
	s.mu.Unlock()

	s.logger.Info().
		Dur("duration", time.Since(started)).
		Msg("Watchlist research cycle finished")
}
