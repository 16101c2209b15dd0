// -----------------------------------------------------------------------
// Application wiring - builds the full service graph from configuration
// -----------------------------------------------------------------------

package app

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/services/debate"
	"github.com/ternarybob/counsel/internal/services/events"
	"github.com/ternarybob/counsel/internal/services/llm"
	"github.com/ternarybob/counsel/internal/services/reports"
	"github.com/ternarybob/counsel/internal/services/research"
	"github.com/ternarybob/counsel/internal/services/scheduler"
	"github.com/ternarybob/counsel/internal/storage/badger"
)

const (
	defaultAnalystTimeout = 3 * time.Minute
	defaultDebateTimeout  = 2 * time.Minute
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB             *badger.BadgerDB
	KVStorage      interfaces.KeyValueStorage
	ArchiveService interfaces.ArchiveService

	EventService     interfaces.EventService
	Provider         *llm.ProviderFactory
	ResearchService  interfaces.ResearchService
	ReportService    interfaces.PDFService
	SchedulerService interfaces.SchedulerService
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	common.SetDefaultExchange(cfg.Markets.DefaultExchange)

	db, err := badger.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db
	app.KVStorage = badger.NewKVStorage(db, logger)
	app.ArchiveService = badger.NewSessionStorage(db, logger)

	app.EventService = events.NewService(logger)

	app.Provider = llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, app.KVStorage, logger)

	analystTimeout := parseDuration(cfg.Analysts.CallTimeout, defaultAnalystTimeout)
	debateTimeout := parseDuration(cfg.Debate.CallTimeout, defaultDebateTimeout)

	analysts := make([]interfaces.Analyst, 0, len(cfg.Analysts.Members))
	debaters := make([]interfaces.Debater, 0, len(cfg.Analysts.Members))
	for _, member := range cfg.Analysts.Members {
		analysts = append(analysts, llm.NewAnalyst(member.Name, member.Model, app.Provider, analystTimeout, logger))
		debaters = append(debaters, llm.NewDebater(member.Name, member.Model, app.Provider, logger))
	}

	orchestrator, err := debate.NewOrchestrator(debaters, cfg.Debate.Rounds, debateTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize debate orchestrator: %w", err)
	}

	researchService, err := research.NewService(analysts, orchestrator, app.EventService, app.ArchiveService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize research service: %w", err)
	}
	app.ResearchService = researchService

	app.ReportService = reports.NewService(logger)

	app.SchedulerService = scheduler.NewService(researchService, cfg.Watchlist, logger)

	logger.Info().
		Int("analysts", len(analysts)).
		Int("debate_rounds", cfg.Debate.Rounds).
		Str("default_provider", string(cfg.LLM.DefaultProvider)).
		Msg("Application initialized")

	return app, nil
}

// Start begins background processing. Research itself is on-demand; only
// the watchlist scheduler runs continuously.
func (a *App) Start() error {
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Close shuts the application down in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
