// Package sqlite persists users, subjects, schedule events and sessions in a
// SQLite database through modernc.org/sqlite.
package sqlite

import (
	"context"

	"github.com/jadwalin/jadwal/internal/persistence"
)

// Storage aggregates the SQLite repositories over one connection pool.
type Storage struct {
	*UserRepository
	*SubjectRepository
	*EventRepository
	*SessionRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to the database at dsn using DefaultConfig. Call Migrate
// before first use.
func Open(dsn string) (*Storage, error) {
	return OpenWithConfig(DefaultConfig(dsn))
}

// OpenWithConfig connects using explicit connection settings.
func OpenWithConfig(config Config) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:    NewUserRepository(pool),
		SubjectRepository: NewSubjectRepository(pool),
		EventRepository:   NewEventRepository(pool),
		SessionRepository: NewSessionRepository(pool),
		pool:              pool,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.pool.Migrate(ctx)
	return err
}

// Pool exposes the underlying connection pool.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database connection.
func (s *Storage) Close() error {
	return s.pool.Close()
}
