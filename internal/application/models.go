package application

import (
	"time"

	"github.com/jadwalin/jadwal/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Role classifies an account.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// ScheduleEvent is a weekly recurring slot in a user's timetable.
type ScheduleEvent struct {
	ID        string
	UserID    string
	SubjectID *string
	Title     string
	DayOfWeek time.Weekday
	Start     scheduler.DayOffset
	End       scheduler.DayOffset
	Location  string
	JoinURL   string
	Notes     string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventInput captures caller provided schedule event fields.
// An empty UserID means the acting principal.
type EventInput struct {
	UserID    string
	SubjectID *string
	Title     string
	DayOfWeek time.Weekday
	Start     scheduler.DayOffset
	End       scheduler.DayOffset
	Location  string
	JoinURL   string
	Notes     string
	Color     string
}

// ConflictWarning names an existing event that overlaps a proposed or stored slot.
// ConflictsWith is set on listing warnings and names the other event of the pair.
type ConflictWarning struct {
	EventID       string
	Title         string
	DayOfWeek     time.Weekday
	Start         scheduler.DayOffset
	End           scheduler.DayOffset
	ConflictsWith string
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// UpdateEventParams wraps the data required to edit an event in place.
type UpdateEventParams struct {
	Principal Principal
	EventID   string
	Input     EventInput
}

// MoveEventParams reschedules an event. A nil End keeps the current duration.
type MoveEventParams struct {
	Principal Principal
	EventID   string
	DayOfWeek time.Weekday
	Start     scheduler.DayOffset
	End       *scheduler.DayOffset
}

// DuplicateEventParams copies an event to another day. A nil Start keeps the source time.
type DuplicateEventParams struct {
	Principal Principal
	EventID   string
	DayOfWeek time.Weekday
	Start     *scheduler.DayOffset
}

// ListEventsParams selects a user's events. An empty UserID means the principal.
type ListEventsParams struct {
	Principal Principal
	UserID    string
	DayOfWeek *time.Weekday
}

// CheckConflictsParams describes a proposed slot to test without saving.
type CheckConflictsParams struct {
	Principal      Principal
	UserID         string
	DayOfWeek      time.Weekday
	Start          scheduler.DayOffset
	End            scheduler.DayOffset
	ExcludeEventID string
}

// WeekViewParams selects the week containing Reference.
type WeekViewParams struct {
	Principal Principal
	UserID    string
	Reference time.Time
}

// Occurrence is one dated instance of an event in a week view.
type Occurrence struct {
	EventID string
	Title   string
	Start   time.Time
	End     time.Time
}

// SubjectInput captures caller provided subject fields.
type SubjectInput struct {
	Code     string
	Name     string
	Credits  int
	Lecturer *string
	Color    *string
}

// Subject is a course catalog entry.
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

// CreateSubjectParams wraps the data required to create a subject.
type CreateSubjectParams struct {
	Principal Principal
	Input     SubjectInput
}

// UpdateSubjectParams wraps the data required to update a subject.
type UpdateSubjectParams struct {
	Principal Principal
	SubjectID string
	Input     SubjectInput
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Role        Role
	Password    string
}

// User represents an account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        Role
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
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

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// UpdateUserParams wraps the data required to update a user. The password is
// left unchanged when Input.Password is empty.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// RefreshSessionParams captures the data required to extend a session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult returns the rotated session.
type RefreshSessionResult struct {
	Session Session
}
