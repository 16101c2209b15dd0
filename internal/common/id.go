package common

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewSessionID generates a unique research session ID with the "session_" prefix
// Format: session_<uuid>
func NewSessionID() string {
	return "session_" + uuid.New().String()
}

// NewDebateID generates the base identifier for one metric's debate.
// Format: debate_<ticker>_<metric>_<uuid8>
// The short uuid keeps repeated debates on the same (ticker, metric) distinct.
func NewDebateID(ticker, metric string) string {
	ticker = strings.ReplaceAll(strings.ToLower(ticker), ":", "_")
	return fmt.Sprintf("debate_%s_%s_%s", ticker, metric, uuid.New().String()[:8])
}

// DebateThreadID scopes a participant's conversational memory to one
// metric's debate. Sequential metric debates never share a thread.
func DebateThreadID(debateID, participant string) string {
	return debateID + "_" + participant
}
