package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/counsel/internal/models"
)

// ErrSessionNotFound is returned when a research session does not exist
var ErrSessionNotFound = errors.New("research session not found")

// ArchiveService persists completed research sessions: the analyst inputs,
// harmonization records, debate transcript and the final consensus result.
type ArchiveService interface {
	// SaveSession stores a completed (or failed) research session
	SaveSession(ctx context.Context, session *models.ResearchSession) error

	// GetSession retrieves a session by ID, returns ErrSessionNotFound if missing
	GetSession(ctx context.Context, id string) (*models.ResearchSession, error)

	// ListSessions returns sessions for a ticker session key, newest first.
	// An empty key lists all sessions.
	ListSessions(ctx context.Context, sessionKey string) ([]*models.ResearchSession, error)

	// DeleteSession removes a session by ID
	DeleteSession(ctx context.Context, id string) error
}
