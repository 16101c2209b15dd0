// -----------------------------------------------------------------------
// LLM-backed analyst - produces one structured assessment per ticker
// -----------------------------------------------------------------------

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
)

// AnalystService is one LLM persona producing full ticker assessments.
type AnalystService struct {
	name        string
	model       string
	provider    interfaces.LLMProvider
	callTimeout time.Duration
	logger      arbor.ILogger
}

var _ interfaces.Analyst = (*AnalystService)(nil)

// NewAnalyst creates an analyst persona backed by the given provider.
// model selects the backing LLM via the model-string prefix convention;
// empty uses the provider's default.
func NewAnalyst(name, model string, provider interfaces.LLMProvider, callTimeout time.Duration, logger arbor.ILogger) *AnalystService {
	return &AnalystService{
		name:        name,
		model:       model,
		provider:    provider,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Name returns the analyst identity
func (a *AnalystService) Name() string {
	return a.name
}

// Analyze prompts the persona for a full assessment of the ticker and
// parses the fenced-YAML response into an Analysis.
func (a *AnalystService) Analyze(ctx context.Context, ticker string, retrievalContext string) (*models.Analysis, error) {
	if a.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
	}

	a.logger.Info().
		Str("analyst", a.name).
		Str("ticker", ticker).
		Msg("Requesting analyst assessment")

	messages := []interfaces.Message{
		{Role: "system", Content: analystSystemPrompt(a.name)},
		{Role: "user", Content: analystUserPrompt(ticker, retrievalContext)},
	}

	response, err := a.provider.Generate(ctx, a.model, messages)
	if err != nil {
		return nil, fmt.Errorf("analyst %s call failed: %w", a.name, err)
	}

	analysis, err := ParseAnalysisResponse(a.name, ticker, response)
	if err != nil {
		return nil, fmt.Errorf("analyst %s returned unusable response: %w", a.name, err)
	}

	return analysis, nil
}

func analystSystemPrompt(name string) string {
	return fmt.Sprintf(
		"You are %s, an independent financial analyst. You assess companies "+
			"strictly from the evidence available to you and never invent "+
			"figures. When the evidence does not support a judgement on a "+
			"metric, you say \"Not enough information\".", name)
}

func analystUserPrompt(ticker, retrievalContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the stock %s on the eight standard metrics.\n\n", ticker)

	if retrievalContext != "" {
		b.WriteString("Supporting material:\n")
		b.WriteString(retrievalContext)
		b.WriteString("\n\n")
	}

	b.WriteString("Rate each metric Excellent, Good, Neutral, Bad or Horrible, ")
	b.WriteString("or \"Not enough information\". Respond with a yaml block only:\n\n")
	b.WriteString("```yaml\n")
	b.WriteString("metrics:\n")
	for _, metric := range models.AllMetrics() {
		fmt.Fprintf(&b, "  %s:\n    rating: \"<rating> - <one-line basis>\"\n    reason: \"<justification>\"\n", metric)
	}
	b.WriteString("financial_strength: \"<X/8 - count of Good or Excellent metrics>\"\n")
	b.WriteString("summary: \"<overall view in two sentences>\"\n")
	b.WriteString("```\n")
	return b.String()
}
