package llm

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
)

// recordingProvider echoes a counter and records the messages it was
// given per call.
type recordingProvider struct {
	mu    sync.Mutex
	calls [][]interfaces.Message
}

func (p *recordingProvider) Generate(_ context.Context, _ string, messages []interfaces.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, messages)
	return fmt.Sprintf("reply %d", len(p.calls)), nil
}

func (p *recordingProvider) HealthCheck(context.Context) error { return nil }

func TestDebater_ThreadMemory(t *testing.T) {
	provider := &recordingProvider{}
	d := NewDebater("socrates", "", provider, common.GetLogger())

	_, err := d.Respond(context.Background(), "thread-1", "round 1 prompt")
	require.NoError(t, err)
	_, err = d.Respond(context.Background(), "thread-1", "round 2 prompt")
	require.NoError(t, err)

	// Second call carries the full thread: system + round1 user/assistant +
	// round2 user
	second := provider.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, "system", second[0].Role)
	assert.Equal(t, "round 1 prompt", second[1].Content)
	assert.Equal(t, "reply 1", second[2].Content)
	assert.Equal(t, "round 2 prompt", second[3].Content)
}

func TestDebater_ThreadsIsolated(t *testing.T) {
	provider := &recordingProvider{}
	d := NewDebater("socrates", "", provider, common.GetLogger())

	_, err := d.Respond(context.Background(), "debate-revenue", "revenue prompt")
	require.NoError(t, err)
	_, err = d.Respond(context.Background(), "debate-cash-flow", "cash flow prompt")
	require.NoError(t, err)

	// The second thread starts fresh: system + its own user prompt only
	second := provider.calls[1]
	require.Len(t, second, 2)
	assert.Equal(t, "cash flow prompt", second[1].Content)
}

func TestDebater_ForgetThread(t *testing.T) {
	provider := &recordingProvider{}
	d := NewDebater("socrates", "", provider, common.GetLogger())

	_, err := d.Respond(context.Background(), "thread-1", "prompt")
	require.NoError(t, err)

	d.ForgetThread("thread-1")

	_, err = d.Respond(context.Background(), "thread-1", "new prompt")
	require.NoError(t, err)

	second := provider.calls[1]
	require.Len(t, second, 2, "forgotten thread should start fresh")
}
