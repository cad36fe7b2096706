// Package memory provides a map-backed implementation of the persistence
// repositories. It enforces the same keys and constraints as the SQLite
// backend so either can sit behind the application services.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jadwalin/jadwal/internal/persistence"
)

const endOfDayMS = 24 * 60 * 60 * 1000

// Storage keeps every record in process memory guarded by a single RWMutex.
type Storage struct {
	mu       sync.RWMutex
	users    map[string]persistence.User
	subjects map[string]persistence.Subject
	events   map[string]persistence.ScheduleEvent
	sessions map[string]persistence.Session
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		users:    make(map[string]persistence.User),
		subjects: make(map[string]persistence.Subject),
		events:   make(map[string]persistence.ScheduleEvent),
		sessions: make(map[string]persistence.Session),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Migrate initialises the storage. No-op for the in-memory implementation.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s: %w", user.ID, persistence.ErrDuplicate)
	}
	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}

	user.Email = normalizeEmail(user.Email)
	s.users[user.ID] = user
	return nil
}

// UpdateUser updates an existing user.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}

	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = current.CreatedAt
	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address, ignoring case.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := normalizeEmail(email)
	for _, user := range s.users {
		if user.Email == lower {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns all users ordered by CreatedAt ascending.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]persistence.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// DeleteUser removes a user together with their events and sessions.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)

	for eventID, event := range s.events {
		if event.UserID == id {
			delete(s.events, eventID)
		}
	}
	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Storage) ensureUniqueEmailLocked(id, email string) error {
	lower := normalizeEmail(email)
	for existingID, user := range s.users {
		if existingID != id && user.Email == lower {
			return fmt.Errorf("memory: email %s: %w", email, persistence.ErrDuplicate)
		}
	}
	return nil
}

// --- SubjectRepository implementation ---

// CreateSubject stores a new catalog entry.
func (s *Storage) CreateSubject(ctx context.Context, subject persistence.Subject) error {
	if err := checkSubject(subject); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subjects[subject.ID]; ok {
		return fmt.Errorf("memory: subject %s: %w", subject.ID, persistence.ErrDuplicate)
	}
	if err := s.ensureUniqueCodeLocked(subject.ID, subject.Code); err != nil {
		return err
	}

	s.subjects[subject.ID] = cloneSubject(subject)
	return nil
}

// UpdateSubject updates an existing catalog entry.
func (s *Storage) UpdateSubject(ctx context.Context, subject persistence.Subject) error {
	if err := checkSubject(subject); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subjects[subject.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueCodeLocked(subject.ID, subject.Code); err != nil {
		return err
	}

	subject.CreatedAt = current.CreatedAt
	s.subjects[subject.ID] = cloneSubject(subject)
	return nil
}

// GetSubject retrieves a subject by ID.
func (s *Storage) GetSubject(ctx context.Context, id string) (persistence.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[id]
	if !ok {
		return persistence.Subject{}, persistence.ErrNotFound
	}
	return cloneSubject(subject), nil
}

// ListSubjects returns every subject ordered by code.
func (s *Storage) ListSubjects(ctx context.Context) ([]persistence.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]persistence.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		subjects = append(subjects, cloneSubject(subject))
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Code == subjects[j].Code {
			return subjects[i].ID < subjects[j].ID
		}
		return subjects[i].Code < subjects[j].Code
	})
	return subjects, nil
}

// DeleteSubject removes a subject and detaches it from any events.
func (s *Storage) DeleteSubject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subjects[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.subjects, id)

	for eventID, event := range s.events {
		if event.SubjectID != nil && *event.SubjectID == id {
			event.SubjectID = nil
			s.events[eventID] = event
		}
	}
	return nil
}

func (s *Storage) ensureUniqueCodeLocked(id, code string) error {
	for existingID, subject := range s.subjects {
		if existingID != id && strings.EqualFold(subject.Code, code) {
			return fmt.Errorf("memory: subject code %s: %w", code, persistence.ErrDuplicate)
		}
	}
	return nil
}

// --- EventRepository implementation ---

// CreateEvent stores a new schedule event.
func (s *Storage) CreateEvent(ctx context.Context, event persistence.ScheduleEvent) error {
	if err := checkEvent(event); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return fmt.Errorf("memory: event %s: %w", event.ID, persistence.ErrDuplicate)
	}
	if err := s.ensureEventReferencesLocked(event); err != nil {
		return err
	}

	s.events[event.ID] = cloneEvent(event)
	return nil
}

// UpdateEvent replaces an existing schedule event. Owner and creation time are kept.
func (s *Storage) UpdateEvent(ctx context.Context, event persistence.ScheduleEvent) error {
	if err := checkEvent(event); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.events[event.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	event.UserID = current.UserID
	event.CreatedAt = current.CreatedAt
	if err := s.ensureEventReferencesLocked(event); err != nil {
		return err
	}

	s.events[event.ID] = cloneEvent(event)
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Storage) GetEvent(ctx context.Context, id string) (persistence.ScheduleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return persistence.ScheduleEvent{}, persistence.ErrNotFound
	}
	return cloneEvent(event), nil
}

// ListEvents returns events matching filter ordered by day, start offset, then ID.
func (s *Storage) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.ScheduleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.ScheduleEvent, 0)
	for _, event := range s.events {
		if filter.UserID != "" && event.UserID != filter.UserID {
			continue
		}
		if filter.DayOfWeek != nil && event.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		events = append(events, cloneEvent(event))
	}
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartOffsetMS != b.StartOffsetMS {
			return a.StartOffsetMS < b.StartOffsetMS
		}
		return a.ID < b.ID
	})
	return events, nil
}

// DeleteEvent removes an event by ID.
func (s *Storage) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Storage) ensureEventReferencesLocked(event persistence.ScheduleEvent) error {
	if _, ok := s.users[event.UserID]; !ok {
		return fmt.Errorf("memory: event owner %s: %w", event.UserID, persistence.ErrForeignKeyViolation)
	}
	if event.SubjectID != nil {
		if _, ok := s.subjects[*event.SubjectID]; !ok {
			return fmt.Errorf("memory: event subject %s: %w", *event.SubjectID, persistence.ErrForeignKeyViolation)
		}
	}
	return nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by its token.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return persistence.Session{}, persistence.ErrForeignKeyViolation
	}
	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	for _, existing := range s.sessions {
		if existing.ID == session.ID {
			return persistence.Session{}, persistence.ErrDuplicate
		}
	}

	session = normalizeSession(session)
	s.sessions[session.Token] = session
	return cloneSession(session), nil
}

// GetSession retrieves a session by its token value.
func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[strings.TrimSpace(token)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// UpdateSession updates the mutable fields of the session with the same ID.
func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current persistence.Session
	found := false
	for _, existing := range s.sessions {
		if existing.ID == session.ID {
			current = existing
			found = true
			break
		}
	}
	if !found {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if other, ok := s.sessions[session.Token]; ok && other.ID != session.ID {
		return persistence.Session{}, persistence.ErrDuplicate
	}

	session.UserID = current.UserID
	session.CreatedAt = current.CreatedAt
	session = normalizeSession(session)

	delete(s.sessions, current.Token)
	s.sessions[session.Token] = session
	return cloneSession(session), nil
}

// RevokeSession marks the session identified by token as revoked.
func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(token)
	session, ok := s.sessions[key]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked
	s.sessions[key] = session
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions that expired on or before reference
// and reports how many were removed.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, session := range s.sessions {
		if session.ExpiresAt.IsZero() || session.ExpiresAt.After(reference) {
			continue
		}
		delete(s.sessions, token)
		removed++
	}
	return removed, nil
}

func checkSubject(subject persistence.Subject) error {
	if strings.TrimSpace(subject.ID) == "" || strings.TrimSpace(subject.Code) == "" || strings.TrimSpace(subject.Name) == "" {
		return persistence.ErrConstraintViolation
	}
	if subject.Credits < 1 || subject.Credits > 6 {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func checkEvent(event persistence.ScheduleEvent) error {
	if strings.TrimSpace(event.ID) == "" || strings.TrimSpace(event.UserID) == "" || strings.TrimSpace(event.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if event.DayOfWeek < 0 || event.DayOfWeek > 6 {
		return persistence.ErrConstraintViolation
	}
	if event.StartOffsetMS < 0 || event.StartOffsetMS >= event.EndOffsetMS || event.EndOffsetMS > endOfDayMS {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeSession(session persistence.Session) persistence.Session {
	session.Fingerprint = strings.TrimSpace(session.Fingerprint)
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	return cloneSession(session)
}

func cloneSubject(subject persistence.Subject) persistence.Subject {
	clone := subject
	clone.Lecturer = copyStringPtr(subject.Lecturer)
	clone.Color = copyStringPtr(subject.Color)
	return clone
}

func cloneEvent(event persistence.ScheduleEvent) persistence.ScheduleEvent {
	clone := event
	clone.SubjectID = copyStringPtr(event.SubjectID)
	clone.Location = copyStringPtr(event.Location)
	clone.JoinURL = copyStringPtr(event.JoinURL)
	clone.Notes = copyStringPtr(event.Notes)
	clone.Color = copyStringPtr(event.Color)
	return clone
}

func cloneSession(session persistence.Session) persistence.Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC()
		clone.RevokedAt = &revoked
	}
	return clone
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	value := *src
	return &value
}
