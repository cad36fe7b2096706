package persistence

import "time"

// User represents a student, lecturer, or administrator account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Subject represents a course catalog entry that schedule events may reference.
type Subject struct {
	ID        string
	Code      string
	Name      string
	Credits   int
	Lecturer  *string
	Color     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleEvent is a weekly recurring slot stored in persistence. Offsets are
// milliseconds since local midnight.
type ScheduleEvent struct {
	ID            string
	UserID        string
	SubjectID     *string
	Title         string
	DayOfWeek     int
	StartOffsetMS int64
	EndOffsetMS   int64
	Location      *string
	JoinURL       *string
	Notes         *string
	Color         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
