package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store, logger: arbor.NewLogger(), stopGC: make(chan struct{})}
}

func TestSessionStorage_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	session := &models.ResearchSession{
		ID:        "session_test-1",
		Ticker:    "nasdaq:AAPL",
		CreatedAt: time.Now(),
		Result: &models.ConsensusResult{
			SessionID:     "session_test-1",
			Ticker:        "NASDAQ:AAPL",
			ExtendedScore: 7,
			Verdict:       models.VerdictSafe,
		},
	}

	if err := storage.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := storage.GetSession(ctx, "session_test-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Ticker != "nasdaq:AAPL" {
		t.Errorf("Ticker = %q, want nasdaq:AAPL", got.Ticker)
	}
	if got.Result == nil || got.Result.Verdict != models.VerdictSafe {
		t.Errorf("Result not round-tripped: %+v", got.Result)
	}
}

func TestSessionStorage_GetMissing(t *testing.T) {
	db := newTestDB(t)
	storage := NewSessionStorage(db, arbor.NewLogger())

	_, err := storage.GetSession(context.Background(), "session_nope")
	if err != interfaces.ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStorage_ListByTicker(t *testing.T) {
	db := newTestDB(t)
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	sessions := []*models.ResearchSession{
		{ID: "session_1", Ticker: "nasdaq:AAPL", CreatedAt: base},
		{ID: "session_2", Ticker: "nasdaq:AAPL", CreatedAt: base.Add(time.Minute)},
		{ID: "session_3", Ticker: "nyse:KO", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, s := range sessions {
		if err := storage.SaveSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	aapl, err := storage.ListSessions(ctx, "nasdaq:AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(aapl) != 2 {
		t.Fatalf("got %d sessions for nasdaq:AAPL, want 2", len(aapl))
	}
	// Newest first
	if aapl[0].ID != "session_2" {
		t.Errorf("first session = %s, want session_2 (newest first)", aapl[0].ID)
	}

	all, err := storage.ListSessions(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d sessions for empty key, want 3", len(all))
	}
}

func TestSessionStorage_Delete(t *testing.T) {
	db := newTestDB(t)
	storage := NewSessionStorage(db, arbor.NewLogger())
	ctx := context.Background()

	session := &models.ResearchSession{ID: "session_del", Ticker: "nasdaq:TSLA", CreatedAt: time.Now()}
	if err := storage.SaveSession(ctx, session); err != nil {
		t.Fatal(err)
	}

	if err := storage.DeleteSession(ctx, "session_del"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := storage.GetSession(ctx, "session_del"); err != interfaces.ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound after delete", err)
	}

	if err := storage.DeleteSession(ctx, "session_del"); err != interfaces.ErrSessionNotFound {
		t.Errorf("deleting a missing session should return ErrSessionNotFound, got %v", err)
	}
}

func TestKVStorage_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewKVStorage(db, arbor.NewLogger())
	ctx := context.Background()

	if err := storage.Set(ctx, "Gemini_API_Key", "abc123", "test key"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Keys are case-insensitive
	value, err := storage.Get(ctx, "gemini_api_key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "abc123" {
		t.Errorf("value = %q, want abc123", value)
	}

	pair, err := storage.GetPair(ctx, "GEMINI_API_KEY")
	if err != nil {
		t.Fatal(err)
	}
	if pair.Description != "test key" {
		t.Errorf("description = %q, want 'test key'", pair.Description)
	}

	if _, err := storage.Get(ctx, "missing"); err != interfaces.ErrKeyNotFound {
		t.Errorf("err = %v, want ErrKeyNotFound", err)
	}

	if err := storage.Delete(ctx, "gemini_api_key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := storage.Delete(ctx, "gemini_api_key"); err != interfaces.ErrKeyNotFound {
		t.Errorf("err = %v, want ErrKeyNotFound on double delete", err)
	}
}
