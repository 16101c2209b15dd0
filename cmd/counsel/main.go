// -----------------------------------------------------------------------
// counsel - multi-analyst stock consensus engine
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/app"
	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
	"github.com/ternarybob/counsel/internal/services/reports"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	ticker       = flag.String("ticker", "", "Research a ticker now (e.g. NASDAQ:AAPL or AAPL)")
	report       = flag.String("report", "", "Write a PDF report for a ticker's most recent research session")
	watch        = flag.Bool("watch", false, "Run the watchlist scheduler until interrupted")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Counsel version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence: load config, initialize logger, print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("counsel.toml"); err == nil {
			configFiles = append(configFiles, "counsel.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	subscribeProgress(application)

	switch {
	case *ticker != "":
		runResearch(application, *ticker)
		if *report != "" {
			writeReport(application, *report)
		}
	case *report != "":
		writeReport(application, *report)
	case *watch:
		runWatch(application)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// subscribeProgress mirrors pipeline progress events to stdout so an
// interactive run shows what the engine is doing.
func subscribeProgress(application *app.App) {
	printer := func(ctx context.Context, event interfaces.Event) error {
		fmt.Println(event.Message)
		return nil
	}
	for _, eventType := range []interfaces.EventType{
		interfaces.EventResearchStarted,
		interfaces.EventAnalystCompleted,
		interfaces.EventDebateTriggered,
		interfaces.EventDebateResolved,
		interfaces.EventResearchCompleted,
	} {
		if err := application.EventService.Subscribe(eventType, printer); err != nil {
			logger.Warn().Err(err).Str("event", string(eventType)).Msg("Failed to subscribe progress printer")
		}
	}
}

func runResearch(application *app.App, ticker string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := application.ResearchService.Research(ctx, ticker)
	if err != nil {
		logger.Fatal().Str("ticker", ticker).Err(err).Msg("Research failed")
	}

	printResult(result)
}

func printResult(result *models.ConsensusResult) {
	fmt.Printf("\n%s\n", result.Ticker)
	fmt.Printf("Verdict: %s (extended score %+d)\n\n", result.Verdict, result.ExtendedScore)

	for _, metric := range models.AllMetrics() {
		rating := result.FinalRatings[metric]
		if rating == "" {
			rating = "-"
		}
		fmt.Printf("  %-18s %s\n", metric, rating)
	}

	if len(result.ComplexMetrics) > 0 {
		names := make([]string, len(result.ComplexMetrics))
		for i, m := range result.ComplexMetrics {
			names[i] = string(m)
		}
		fmt.Printf("\nUnresolved (COMPLEX): %s\n", strings.Join(names, ", "))
	}
	fmt.Println()
}

// writeReport renders the ticker's most recent archived session as a PDF
// under the configured reports directory. Sessions are archived in the
// background, so a session started moments ago may need a short wait.
func writeReport(application *app.App, ticker string) {
	parsed := common.ParseTicker(ticker)
	if parsed.Code == "" {
		logger.Fatal().Str("ticker", ticker).Msg("Invalid ticker")
	}

	session := waitForSession(application, parsed.SessionKey())
	if session == nil {
		logger.Fatal().Str("ticker", parsed.String()).Msg("No archived research session found")
	}

	markdown := reports.BuildMarkdown(session)
	title := fmt.Sprintf("Consensus Report: %s", parsed.String())

	pdf, err := application.ReportService.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		logger.Fatal().Err(err).Msg("Report generation failed")
	}

	dir := application.Config.Reports.Dir
	if dir == "" {
		dir = "./reports"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Fatal().Err(err).Str("dir", dir).Msg("Failed to create reports directory")
	}

	name := fmt.Sprintf("counsel_%s_%s.pdf",
		strings.ReplaceAll(parsed.SessionKey(), ":", "_"),
		session.CreatedAt.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, pdf, 0644); err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("Failed to write report")
	}

	fmt.Printf("Report written to %s\n", path)
}

func waitForSession(application *app.App, sessionKey string) *models.ResearchSession {
	deadline := time.Now().Add(5 * time.Second)
	for {
		sessions, err := application.ArchiveService.ListSessions(context.Background(), sessionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to list research sessions")
		}
		if len(sessions) > 0 {
			return sessions[0]
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func runWatch(application *app.App) {
	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start watchlist scheduler")
	}

	status := application.SchedulerService.Status()
	if !status.Enabled || len(status.Tickers) == 0 {
		logger.Fatal().Msg("Watchlist is disabled or empty; enable it in counsel.toml")
	}

	logger.Info().
		Str("schedule", status.Schedule).
		Strs("tickers", status.Tickers).
		Msg("Watching - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}
