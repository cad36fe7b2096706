package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jadwalin/jadwal/internal/application"
	"github.com/jadwalin/jadwal/internal/persistence"
	"github.com/jadwalin/jadwal/internal/scheduler"
)

var (
	userCounter    uint64
	subjectCounter uint64
	eventCounter   uint64
	sessionCounter uint64
)

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account that can be materialised for
// application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Role         application.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a student account with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@kampus.ac.id", id),
		DisplayName:  fmt.Sprintf("Mahasiswa %03d", idx),
		Role:         application.RoleStudent,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserRole sets the account role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// IsAdmin reports whether the fixture carries the admin role.
func (f UserFixture) IsAdmin() bool {
	return f.Role == application.RoleAdmin
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		IsAdmin:     f.IsAdmin(),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{User: f.Application(), PasswordHash: f.PasswordHash}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin()}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin(),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ---------------------------- Subject fixtures ----------------------------

// SubjectFixture is a deterministic course catalog entry.
type SubjectFixture struct {
	ID        string
	Code      string
	Name      string
	Credits   int
	Lecturer  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubjectOption configures the generated subject fixture.
type SubjectOption func(*SubjectFixture)

// NewSubjectFixture returns a three-credit subject with optional overrides.
func NewSubjectFixture(opts ...SubjectOption) SubjectFixture {
	idx := atomic.AddUint64(&subjectCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := SubjectFixture{
		ID:        fmt.Sprintf("subj-%03d", idx),
		Code:      fmt.Sprintf("IF%04d", 2100+idx),
		Name:      fmt.Sprintf("Mata Kuliah %03d", idx),
		Credits:   3,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSubjectID overrides the generated subject ID.
func WithSubjectID(id string) SubjectOption {
	return func(f *SubjectFixture) { f.ID = id }
}

// WithSubjectCode overrides the generated code.
func WithSubjectCode(code string) SubjectOption {
	return func(f *SubjectFixture) { f.Code = code }
}

// WithSubjectLecturer sets the lecturer name.
func WithSubjectLecturer(name string) SubjectOption {
	return func(f *SubjectFixture) { f.Lecturer = &name }
}

// Application returns the fixture as an application.Subject value.
func (f SubjectFixture) Application() application.Subject {
	return application.Subject{
		ID:        f.ID,
		Code:      f.Code,
		Name:      f.Name,
		Credits:   f.Credits,
		Lecturer:  copyStringPtr(f.Lecturer),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Subject value.
func (f SubjectFixture) Persistence() persistence.Subject {
	return persistence.Subject{
		ID:        f.ID,
		Code:      f.Code,
		Name:      f.Name,
		Credits:   f.Credits,
		Lecturer:  copyStringPtr(f.Lecturer),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.SubjectInput.
func (f SubjectFixture) Input() application.SubjectInput {
	return application.SubjectInput{Code: f.Code, Name: f.Name, Credits: f.Credits, Lecturer: copyStringPtr(f.Lecturer)}
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture is a deterministic weekly schedule slot.
type EventFixture struct {
	ID        string
	UserID    string
	SubjectID *string
	Title     string
	DayOfWeek time.Weekday
	Start     scheduler.DayOffset
	End       scheduler.DayOffset
	Location  string
	JoinURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a Monday 08:00-09:40 lecture with optional overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	fixture := EventFixture{
		ID:        fmt.Sprintf("evt-%03d", idx),
		UserID:    "user-001",
		Title:     fmt.Sprintf("Kuliah %03d", idx),
		DayOfWeek: time.Monday,
		Start:     Offset("08:00"),
		End:       Offset("09:40"),
		Location:  "Gedung A",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) { f.ID = id }
}

// WithEventOwner sets the owning user.
func WithEventOwner(userID string) EventOption {
	return func(f *EventFixture) { f.UserID = userID }
}

// WithEventTitle overrides the title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) { f.Title = title }
}

// WithEventSlot places the event on day from start to end, given as "HH:MM".
func WithEventSlot(day time.Weekday, start, end string) EventOption {
	return func(f *EventFixture) {
		f.DayOfWeek = day
		f.Start = Offset(start)
		f.End = Offset(end)
	}
}

// WithEventSubject links the event to a subject.
func WithEventSubject(subjectID string) EventOption {
	return func(f *EventFixture) { f.SubjectID = &subjectID }
}

// WithEventJoinURL sets the online meeting link.
func WithEventJoinURL(url string) EventOption {
	return func(f *EventFixture) { f.JoinURL = url }
}

// Application returns the fixture as an application.ScheduleEvent value.
func (f EventFixture) Application() application.ScheduleEvent {
	return application.ScheduleEvent{
		ID:        f.ID,
		UserID:    f.UserID,
		SubjectID: copyStringPtr(f.SubjectID),
		Title:     f.Title,
		DayOfWeek: f.DayOfWeek,
		Start:     f.Start,
		End:       f.End,
		Location:  f.Location,
		JoinURL:   f.JoinURL,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EventInput.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		UserID:    f.UserID,
		SubjectID: copyStringPtr(f.SubjectID),
		Title:     f.Title,
		DayOfWeek: f.DayOfWeek,
		Start:     f.Start,
		End:       f.End,
		Location:  f.Location,
		JoinURL:   f.JoinURL,
	}
}

// Persistence returns the fixture as a persistence.ScheduleEvent value.
func (f EventFixture) Persistence() persistence.ScheduleEvent {
	return persistence.ScheduleEvent{
		ID:            f.ID,
		UserID:        f.UserID,
		SubjectID:     copyStringPtr(f.SubjectID),
		Title:         f.Title,
		DayOfWeek:     int(f.DayOfWeek),
		StartOffsetMS: int64(f.Start),
		EndOffsetMS:   int64(f.End),
		Location:      optionalString(f.Location),
		JoinURL:       optionalString(f.JoinURL),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Scheduler returns the fixture as the detector's view of the event.
func (f EventFixture) Scheduler() scheduler.Event {
	return scheduler.Event{ID: f.ID, UserID: f.UserID, DayOfWeek: f.DayOfWeek, Start: f.Start, End: f.End}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture is a deterministic login session.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session valid for a day after ReferenceTime.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		UserID:      "user-001",
		Token:       fmt.Sprintf("token-%03d", idx),
		Fingerprint: "test-device",
		ExpiresAt:   referenceTime.Add(24 * time.Hour),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUserID sets the session owner.
func WithSessionUserID(id string) SessionOption {
	return func(f *SessionFixture) { f.UserID = id }
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) { f.Token = token }
}

// WithSessionExpiresAt sets the expiry.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = t }
}

// WithSessionRevokedAt marks the session as logged out.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.RevokedAt = &t }
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   copyTimePtr(f.RevokedAt),
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}

func copyTimePtr(src *time.Time) *time.Time {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
