package research

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
	"github.com/ternarybob/counsel/internal/services/debate"
)

type fakeAnalyst struct {
	name     string
	analysis *models.Analysis
	err      error
}

func (f *fakeAnalyst) Name() string { return f.name }

func (f *fakeAnalyst) Analyze(ctx context.Context, ticker string, retrievalContext string) (*models.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type scriptedDebater struct {
	name      string
	responses []string

	mu    sync.Mutex
	calls int
}

func (d *scriptedDebater) Name() string { return d.name }

func (d *scriptedDebater) Respond(ctx context.Context, threadID string, prompt string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.calls >= len(d.responses) {
		d.calls++
		return "I maintain my position.", nil
	}
	resp := d.responses[d.calls]
	d.calls++
	return resp, nil
}

type captureBus struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (b *captureBus) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (b *captureBus) Publish(ctx context.Context, event interfaces.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *captureBus) PublishSync(ctx context.Context, event interfaces.Event) error {
	return b.Publish(ctx, event)
}

func (b *captureBus) Close() error { return nil }

func (b *captureBus) typesSeen() []interfaces.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := make([]interfaces.EventType, len(b.events))
	for i, e := range b.events {
		types[i] = e.Type
	}
	return types
}

type captureArchive struct {
	mu       sync.Mutex
	sessions []*models.ResearchSession
	saved    chan struct{}
}

func newCaptureArchive() *captureArchive {
	return &captureArchive{saved: make(chan struct{}, 8)}
}

func (a *captureArchive) SaveSession(ctx context.Context, session *models.ResearchSession) error {
	a.mu.Lock()
	a.sessions = append(a.sessions, session)
	a.mu.Unlock()
	a.saved <- struct{}{}
	return nil
}

func (a *captureArchive) GetSession(ctx context.Context, id string) (*models.ResearchSession, error) {
	return nil, interfaces.ErrSessionNotFound
}

func (a *captureArchive) ListSessions(ctx context.Context, sessionKey string) ([]*models.ResearchSession, error) {
	return nil, nil
}

func (a *captureArchive) DeleteSession(ctx context.Context, id string) error { return nil }

func (a *captureArchive) waitForSave(t *testing.T) *models.ResearchSession {
	t.Helper()
	select {
	case <-a.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("session was not archived")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions[len(a.sessions)-1]
}

func newAnalysis(analyst, rating string, overrides map[models.Metric]string) *models.Analysis {
	a := &models.Analysis{
		Analyst:           analyst,
		Ticker:            "NASDAQ:AAPL",
		Ratings:           make(map[models.Metric]string),
		Reasons:           make(map[models.Metric]string),
		FinancialStrength: "6/8",
	}
	for _, m := range models.AllMetrics() {
		a.Ratings[m] = rating
	}
	for m, r := range overrides {
		a.Ratings[m] = r
	}
	return a
}

func newTestService(t *testing.T, analysts []interfaces.Analyst, debaters []interfaces.Debater, bus interfaces.EventService, archive interfaces.ArchiveService) *Service {
	t.Helper()
	orchestrator, err := debate.NewOrchestrator(debaters, 2, 0, common.GetLogger())
	require.NoError(t, err)
	svc, err := NewService(analysts, orchestrator, bus, archive, common.GetLogger())
	require.NoError(t, err)
	return svc
}

func alignedAnalysts(rating string) []interfaces.Analyst {
	return []interfaces.Analyst{
		&fakeAnalyst{name: "socrates", analysis: newAnalysis("socrates", rating, nil)},
		&fakeAnalyst{name: "pythagoras", analysis: newAnalysis("pythagoras", rating, nil)},
		&fakeAnalyst{name: "diogenes", analysis: newAnalysis("diogenes", rating, nil)},
	}
}

func quietDebaters() []interfaces.Debater {
	return []interfaces.Debater{
		&scriptedDebater{name: "socrates"},
		&scriptedDebater{name: "pythagoras"},
		&scriptedDebater{name: "diogenes"},
	}
}

func TestResearch_AlignedAnalystsSkipDebate(t *testing.T) {
	bus := &captureBus{}
	archive := newCaptureArchive()
	debaters := quietDebaters()
	svc := newTestService(t, alignedAnalysts("Good"), debaters, bus, archive)

	result, err := svc.Research(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "NASDAQ:AAPL", result.Ticker)
	assert.Equal(t, 8, result.ExtendedScore)
	assert.Equal(t, models.VerdictSafe, result.Verdict)
	assert.Equal(t, []int{8, 8, 8}, result.StrengthScores)
	assert.Empty(t, result.ComplexMetrics)
	for _, m := range models.AllMetrics() {
		assert.Equal(t, "Good", result.FinalRatings[m], "metric %s", m)
	}

	// No metric was disputed, so no debater should have been called
	for _, d := range debaters {
		sd := d.(*scriptedDebater)
		assert.Zero(t, sd.calls, "debater %s was called", sd.name)
	}

	types := bus.typesSeen()
	assert.Contains(t, types, interfaces.EventResearchStarted)
	assert.Contains(t, types, interfaces.EventResearchCompleted)
	assert.NotContains(t, types, interfaces.EventDebateTriggered)

	session := archive.waitForSave(t)
	assert.Equal(t, "nasdaq:AAPL", session.Ticker)
	assert.Len(t, session.Analyses, 3)
	assert.Len(t, session.Harmonization, len(models.AllMetrics()))
	require.NotNil(t, session.Result)
	assert.Equal(t, result.SessionID, session.Result.SessionID)
}

func TestResearch_CrossTierConflictTriggersDebate(t *testing.T) {
	analysts := []interfaces.Analyst{
		&fakeAnalyst{name: "socrates", analysis: newAnalysis("socrates", "Good", nil)},
		&fakeAnalyst{name: "pythagoras", analysis: newAnalysis("pythagoras", "Good", map[models.Metric]string{
			models.MetricCashFlow: "Bad - cash burn accelerated",
		})},
		&fakeAnalyst{name: "diogenes", analysis: newAnalysis("diogenes", "Good", nil)},
	}
	// Two rounds: opening statement then final vote
	debaters := []interfaces.Debater{
		&scriptedDebater{name: "socrates", responses: []string{"Cash flow is healthy.", "FINAL RATING: Good"}},
		&scriptedDebater{name: "pythagoras", responses: []string{"Cash burn is a problem.", "FINAL RATING: Bad"}},
		&scriptedDebater{name: "diogenes", responses: []string{"Free cash flow covers obligations.", "FINAL RATING: Good"}},
	}
	bus := &captureBus{}
	svc := newTestService(t, analysts, debaters, bus, nil)

	result, err := svc.Research(context.Background(), "NASDAQ:AAPL")
	require.NoError(t, err)

	assert.Equal(t, "Good", result.FinalRatings[models.MetricCashFlow])
	assert.Empty(t, result.ComplexMetrics)
	assert.Equal(t, 8, result.ExtendedScore)
	// Debate resolution flows back into the recalculated strength scores
	assert.Equal(t, []int{8, 8, 8}, result.StrengthScores)

	var debateMsg string
	for _, e := range bus.events {
		if e.Type == interfaces.EventDebateTriggered {
			debateMsg = e.Message
		}
	}
	assert.Equal(t, "Debate triggered on: cash_flow", debateMsg)
}

func TestResearch_ThreeWayTieIsComplex(t *testing.T) {
	analysts := []interfaces.Analyst{
		&fakeAnalyst{name: "socrates", analysis: newAnalysis("socrates", "Good", map[models.Metric]string{
			models.MetricTotalDebt: "Excellent",
		})},
		&fakeAnalyst{name: "pythagoras", analysis: newAnalysis("pythagoras", "Good", map[models.Metric]string{
			models.MetricTotalDebt: "Bad",
		})},
		&fakeAnalyst{name: "diogenes", analysis: newAnalysis("diogenes", "Good", map[models.Metric]string{
			models.MetricTotalDebt: "Neutral",
		})},
	}
	debaters := []interfaces.Debater{
		&scriptedDebater{name: "socrates", responses: []string{"Debt is minimal.", "FINAL RATING: Excellent"}},
		&scriptedDebater{name: "pythagoras", responses: []string{"Leverage is rising.", "FINAL RATING: Bad"}},
		&scriptedDebater{name: "diogenes", responses: []string{"It depends on rates.", "FINAL RATING: Neutral"}},
	}
	svc := newTestService(t, analysts, debaters, &captureBus{}, nil)

	result, err := svc.Research(context.Background(), "NASDAQ:AAPL")
	require.NoError(t, err)

	assert.Equal(t, models.RatingComplex, result.FinalRatings[models.MetricTotalDebt])
	assert.Equal(t, []models.Metric{models.MetricTotalDebt}, result.ComplexMetrics)
	// COMPLEX contributes nothing: seven Good metrics remain
	assert.Equal(t, 7, result.ExtendedScore)
}

func TestResearch_OneAnalystFailureTolerated(t *testing.T) {
	analysts := []interfaces.Analyst{
		&fakeAnalyst{name: "socrates", analysis: newAnalysis("socrates", "Excellent", nil)},
		&fakeAnalyst{name: "pythagoras", err: errors.New("api quota exceeded")},
		&fakeAnalyst{name: "diogenes", analysis: newAnalysis("diogenes", "Excellent", nil)},
	}
	svc := newTestService(t, analysts, quietDebaters(), &captureBus{}, nil)

	result, err := svc.Research(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 16, result.ExtendedScore)
	assert.Equal(t, models.VerdictExtremelySafe, result.Verdict)
	assert.Len(t, result.StrengthScores, 2)
}

func TestResearch_AllAnalystsFailed(t *testing.T) {
	analysts := []interfaces.Analyst{
		&fakeAnalyst{name: "socrates", err: errors.New("timeout")},
		&fakeAnalyst{name: "pythagoras", err: errors.New("timeout")},
	}
	svc := newTestService(t, analysts, quietDebaters(), &captureBus{}, nil)

	_, err := svc.Research(context.Background(), "AAPL")
	assert.ErrorIs(t, err, interfaces.ErrAllAnalystsFailed)
}

func TestResearch_InvalidTicker(t *testing.T) {
	svc := newTestService(t, alignedAnalysts("Good"), quietDebaters(), &captureBus{}, nil)

	_, err := svc.Research(context.Background(), "   ")
	assert.Error(t, err)
}

func TestResearchWithAnalyses_SkipsFanOut(t *testing.T) {
	// Analysts that would fail if called prove the fan-out is skipped
	analysts := []interfaces.Analyst{
		&fakeAnalyst{name: "socrates", err: errors.New("must not be called")},
	}
	svc := newTestService(t, analysts, quietDebaters(), &captureBus{}, nil)

	analyses := []*models.Analysis{
		newAnalysis("socrates", "Bad", nil),
		newAnalysis("pythagoras", "Bad", nil),
		newAnalysis("diogenes", "Bad", nil),
	}

	result, err := svc.ResearchWithAnalyses(context.Background(), "NASDAQ:AAPL", analyses)
	require.NoError(t, err)

	assert.Equal(t, -8, result.ExtendedScore)
	assert.Equal(t, models.VerdictRisky, result.Verdict)
}

func TestResearchWithAnalyses_EmptyInput(t *testing.T) {
	svc := newTestService(t, alignedAnalysts("Good"), quietDebaters(), &captureBus{}, nil)

	_, err := svc.ResearchWithAnalyses(context.Background(), "NASDAQ:AAPL", nil)
	assert.ErrorIs(t, err, interfaces.ErrAllAnalystsFailed)
}

func TestNewService_Validation(t *testing.T) {
	orchestrator, err := debate.NewOrchestrator(quietDebaters(), 2, 0, common.GetLogger())
	require.NoError(t, err)

	_, err = NewService(nil, orchestrator, nil, nil, common.GetLogger())
	assert.Error(t, err)

	_, err = NewService(alignedAnalysts("Good"), nil, nil, nil, common.GetLogger())
	assert.Error(t, err)
}
