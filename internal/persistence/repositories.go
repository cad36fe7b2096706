package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SubjectRepository exposes CRUD operations for the course catalog.
type SubjectRepository interface {
	CreateSubject(ctx context.Context, subject Subject) error
	UpdateSubject(ctx context.Context, subject Subject) error
	GetSubject(ctx context.Context, id string) (Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)
	DeleteSubject(ctx context.Context, id string) error
}

// EventFilter narrows schedule event queries. A nil DayOfWeek matches every day.
type EventFilter struct {
	UserID    string
	DayOfWeek *int
}

// EventRepository stores weekly schedule events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event ScheduleEvent) error
	UpdateEvent(ctx context.Context, event ScheduleEvent) error
	GetEvent(ctx context.Context, id string) (ScheduleEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]ScheduleEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error)
}

// Store aggregates every repository a backend provides.
type Store interface {
	UserRepository
	SubjectRepository
	EventRepository
	SessionRepository
	Migrate(ctx context.Context) error
	Close() error
}
