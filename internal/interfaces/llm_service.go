package interfaces

import (
	"context"

	"github.com/ternarybob/counsel/internal/models"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMProvider generates chat completions against a configured model.
// Implementations wrap cloud APIs (Anthropic, Gemini) and handle retry and
// rate limiting internally.
type LLMProvider interface {
	// Generate produces a completion for the conversation history.
	// Messages are in chronological order; system prompts use Role "system".
	Generate(ctx context.Context, model string, messages []Message) (string, error)

	// HealthCheck verifies the provider can handle requests
	HealthCheck(ctx context.Context) error
}

// Analyst produces a structured financial analysis for one ticker.
// Each configured analyst is an independent LLM persona; a failure of one
// analyst never fails the research session as long as another succeeds.
type Analyst interface {
	// Name returns the analyst identity (e.g. "socrates")
	Name() string

	// Analyze researches the ticker and returns a parsed Analysis.
	// retrievalContext is opaque supporting material supplied by the caller
	// and may be empty.
	Analyze(ctx context.Context, ticker string, retrievalContext string) (*models.Analysis, error)
}

// Debater is one participant in a metric debate. Conversational memory is
// scoped per threadID: sequential metric debates must not share a thread.
type Debater interface {
	// Name returns the participant identity
	Name() string

	// Respond generates the participant's next statement in the thread
	Respond(ctx context.Context, threadID string, prompt string) (string, error)
}
