// -----------------------------------------------------------------------
// LLM-backed debate participant with thread-scoped conversational memory
// -----------------------------------------------------------------------

package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/interfaces"
)

// DebaterService is one LLM persona participating in metric debates.
// Conversation history is kept per thread ID, so a participant remembers
// earlier rounds of the same metric's debate but never carries context
// from one metric to the next.
type DebaterService struct {
	name     string
	model    string
	provider interfaces.LLMProvider
	logger   arbor.ILogger

	mu      sync.Mutex
	threads map[string][]interfaces.Message
}

var _ interfaces.Debater = (*DebaterService)(nil)

// NewDebater creates a debate participant backed by the given provider.
func NewDebater(name, model string, provider interfaces.LLMProvider, logger arbor.ILogger) *DebaterService {
	return &DebaterService{
		name:     name,
		model:    model,
		provider: provider,
		logger:   logger,
		threads:  make(map[string][]interfaces.Message),
	}
}

// Name returns the participant identity
func (d *DebaterService) Name() string {
	return d.name
}

// Respond generates the participant's next statement in the thread. The
// prompt and the reply are appended to the thread history so subsequent
// rounds see the full conversation.
func (d *DebaterService) Respond(ctx context.Context, threadID string, prompt string) (string, error) {
	d.mu.Lock()
	history := make([]interfaces.Message, 0, len(d.threads[threadID])+2)
	history = append(history, interfaces.Message{Role: "system", Content: debaterSystemPrompt(d.name)})
	history = append(history, d.threads[threadID]...)
	history = append(history, interfaces.Message{Role: "user", Content: prompt})
	d.mu.Unlock()

	response, err := d.provider.Generate(ctx, d.model, history)
	if err != nil {
		return "", fmt.Errorf("debater %s call failed: %w", d.name, err)
	}

	d.mu.Lock()
	d.threads[threadID] = append(d.threads[threadID],
		interfaces.Message{Role: "user", Content: prompt},
		interfaces.Message{Role: "assistant", Content: response},
	)
	d.mu.Unlock()

	return response, nil
}

// ForgetThread drops a finished debate's conversation history. Called by
// the research service after a session completes to bound memory.
func (d *DebaterService) ForgetThread(threadID string) {
	d.mu.Lock()
	delete(d.threads, threadID)
	d.mu.Unlock()
}

// ForgetAll drops every thread's history.
func (d *DebaterService) ForgetAll() {
	d.mu.Lock()
	d.threads = make(map[string][]interfaces.Message)
	d.mu.Unlock()
}

func debaterSystemPrompt(name string) string {
	return fmt.Sprintf(
		"You are %s, a financial analyst participating in a structured "+
			"debate. Argue from evidence, concede when the other side's "+
			"evidence is stronger, and follow the response format the "+
			"moderator asks for exactly.", name)
}
