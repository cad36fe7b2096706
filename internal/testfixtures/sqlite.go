package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jadwalin/jadwal/internal/persistence"
	"github.com/jadwalin/jadwal/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary directory and
// closes it when the test ends.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	storage, err := sqlite.Open(filepath.Join(tb.TempDir(), "jadwal.db"))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return storage
}

// Seed inserts fixtures into store in dependency order: users, subjects, events, sessions.
func Seed(tb testing.TB, store persistence.Store, users []UserFixture, subjects []SubjectFixture, events []EventFixture, sessions []SessionFixture) {
	tb.Helper()
	ctx := context.Background()

	for _, user := range users {
		if err := store.CreateUser(ctx, user.Persistence()); err != nil {
			tb.Fatalf("seed user %s: %v", user.ID, err)
		}
	}
	for _, subject := range subjects {
		if err := store.CreateSubject(ctx, subject.Persistence()); err != nil {
			tb.Fatalf("seed subject %s: %v", subject.ID, err)
		}
	}
	for _, event := range events {
		if err := store.CreateEvent(ctx, event.Persistence()); err != nil {
			tb.Fatalf("seed event %s: %v", event.ID, err)
		}
	}
	for _, session := range sessions {
		if _, err := store.CreateSession(ctx, session.Persistence()); err != nil {
			tb.Fatalf("seed session %s: %v", session.ID, err)
		}
	}
}
