package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jadwalin/jadwal/internal/application"
	"github.com/jadwalin/jadwal/internal/persistence"
	"github.com/jadwalin/jadwal/internal/scheduler"
)

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if passwordHash == "" {
		current, err := a.repo.GetUser(ctx, user.ID)
		if err != nil {
			return application.User{}, err
		}
		passwordHash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

// UserExists lets the user repository double as the schedule service's directory.
func (a *userRepositoryAdapter) UserExists(ctx context.Context, id string) (bool, error) {
	if _, err := a.repo.GetUser(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetUserCredentialsByEmail serves the auth service's credential lookups.
func (a *userRepositoryAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

type subjectRepositoryAdapter struct {
	repo persistence.SubjectRepository
}

func newSubjectRepositoryAdapter(repo persistence.SubjectRepository) *subjectRepositoryAdapter {
	return &subjectRepositoryAdapter{repo: repo}
}

func (a *subjectRepositoryAdapter) CreateSubject(ctx context.Context, subject application.Subject) (application.Subject, error) {
	if err := a.repo.CreateSubject(ctx, toPersistenceSubject(subject)); err != nil {
		return application.Subject{}, err
	}
	return a.GetSubject(ctx, subject.ID)
}

func (a *subjectRepositoryAdapter) GetSubject(ctx context.Context, id string) (application.Subject, error) {
	stored, err := a.repo.GetSubject(ctx, id)
	if err != nil {
		return application.Subject{}, err
	}
	return toApplicationSubject(stored), nil
}

func (a *subjectRepositoryAdapter) UpdateSubject(ctx context.Context, subject application.Subject) (application.Subject, error) {
	if err := a.repo.UpdateSubject(ctx, toPersistenceSubject(subject)); err != nil {
		return application.Subject{}, err
	}
	return a.GetSubject(ctx, subject.ID)
}

func (a *subjectRepositoryAdapter) DeleteSubject(ctx context.Context, id string) error {
	return a.repo.DeleteSubject(ctx, id)
}

func (a *subjectRepositoryAdapter) ListSubjects(ctx context.Context) ([]application.Subject, error) {
	models, err := a.repo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	subjects := make([]application.Subject, 0, len(models))
	for _, model := range models {
		subjects = append(subjects, toApplicationSubject(model))
	}
	return subjects, nil
}

func (a *subjectRepositoryAdapter) SubjectExists(ctx context.Context, id string) (bool, error) {
	if _, err := a.repo.GetSubject(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.ScheduleEvent) (application.ScheduleEvent, error) {
	if err := a.repo.CreateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.ScheduleEvent{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.ScheduleEvent, error) {
	stored, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.ScheduleEvent{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.ScheduleEvent) (application.ScheduleEvent, error) {
	if err := a.repo.UpdateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.ScheduleEvent{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context, filter application.EventRepositoryFilter) ([]application.ScheduleEvent, error) {
	persistedFilter := persistence.EventFilter{UserID: filter.UserID}
	if filter.DayOfWeek != nil {
		day := int(*filter.DayOfWeek)
		persistedFilter.DayOfWeek = &day
	}
	models, err := a.repo.ListEvents(ctx, persistedFilter)
	if err != nil {
		return nil, err
	}
	events := make([]application.ScheduleEvent, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationEvent(model))
	}
	return events, nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error) {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Role:        application.Role(model.Role),
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		Role:         string(user.Role),
		PasswordHash: passwordHash,
		IsAdmin:      user.IsAdmin,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSubject(model persistence.Subject) application.Subject {
	return application.Subject{
		ID:        model.ID,
		Code:      model.Code,
		Name:      model.Name,
		Credits:   model.Credits,
		Lecturer:  cloneString(model.Lecturer),
		Color:     cloneString(model.Color),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceSubject(subject application.Subject) persistence.Subject {
	return persistence.Subject{
		ID:        subject.ID,
		Code:      subject.Code,
		Name:      subject.Name,
		Credits:   subject.Credits,
		Lecturer:  cloneString(subject.Lecturer),
		Color:     cloneString(subject.Color),
		CreatedAt: subject.CreatedAt,
		UpdatedAt: subject.UpdatedAt,
	}
}

func toApplicationEvent(model persistence.ScheduleEvent) application.ScheduleEvent {
	return application.ScheduleEvent{
		ID:        model.ID,
		UserID:    model.UserID,
		SubjectID: cloneString(model.SubjectID),
		Title:     model.Title,
		DayOfWeek: time.Weekday(model.DayOfWeek),
		Start:     scheduler.DayOffset(model.StartOffsetMS),
		End:       scheduler.DayOffset(model.EndOffsetMS),
		Location:  derefString(model.Location),
		JoinURL:   derefString(model.JoinURL),
		Notes:     derefString(model.Notes),
		Color:     derefString(model.Color),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceEvent(event application.ScheduleEvent) persistence.ScheduleEvent {
	return persistence.ScheduleEvent{
		ID:            event.ID,
		UserID:        event.UserID,
		SubjectID:     cloneString(event.SubjectID),
		Title:         event.Title,
		DayOfWeek:     int(event.DayOfWeek),
		StartOffsetMS: int64(event.Start),
		EndOffsetMS:   int64(event.End),
		Location:      optionalString(event.Location),
		JoinURL:       optionalString(event.JoinURL),
		Notes:         optionalString(event.Notes),
		Color:         optionalString(event.Color),
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
