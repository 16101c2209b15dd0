package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
)

// SessionStorage implements ArchiveService over badgerhold. Sessions are
// keyed by ID with a secondary index on ticker for history queries.
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.ArchiveService = (*SessionStorage)(nil)

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArchiveService {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

// SaveSession stores a completed (or failed) research session
func (s *SessionStorage) SaveSession(ctx context.Context, session *models.ResearchSession) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("session must have an ID")
	}

	if err := s.db.Store().Upsert(session.ID, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}

	s.logger.Debug().
		Str("session_id", session.ID).
		Str("ticker", session.Ticker).
		Msg("Research session archived")

	return nil
}

// GetSession retrieves a session by ID
func (s *SessionStorage) GetSession(ctx context.Context, id string) (*models.ResearchSession, error) {
	var session models.ResearchSession
	err := s.db.Store().Get(id, &session)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return &session, nil
}

// ListSessions returns sessions for a ticker session key, newest first.
// An empty key lists all sessions.
func (s *SessionStorage) ListSessions(ctx context.Context, sessionKey string) ([]*models.ResearchSession, error) {
	var sessions []*models.ResearchSession

	query := badgerhold.Where("Ticker").Ne("").SortBy("CreatedAt").Reverse()
	if sessionKey != "" {
		query = badgerhold.Where("Ticker").Eq(sessionKey).Index("Ticker").SortBy("CreatedAt").Reverse()
	}

	if err := s.db.Store().Find(&sessions, query); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session by ID
func (s *SessionStorage) DeleteSession(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.ResearchSession{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}
