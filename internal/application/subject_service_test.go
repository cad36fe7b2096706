package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jadwalin/jadwal/internal/persistence"
)

type subjectRepoStub struct {
	subject   Subject
	created   Subject
	updated   Subject
	list      []Subject
	err       error
	deleteErr error
}

func (s *subjectRepoStub) CreateSubject(ctx context.Context, subject Subject) (Subject, error) {
	if s.err != nil {
		return Subject{}, s.err
	}
	s.created = subject
	return subject, nil
}

func (s *subjectRepoStub) GetSubject(ctx context.Context, id string) (Subject, error) {
	if s.subject.ID == "" || s.subject.ID != id {
		return Subject{}, persistence.ErrNotFound
	}
	return s.subject, nil
}

func (s *subjectRepoStub) UpdateSubject(ctx context.Context, subject Subject) (Subject, error) {
	if s.err != nil {
		return Subject{}, s.err
	}
	s.updated = subject
	return subject, nil
}

func (s *subjectRepoStub) DeleteSubject(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *subjectRepoStub) ListSubjects(ctx context.Context) ([]Subject, error) {
	return s.list, s.err
}

func TestSubjectService_CreateSubject(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	lecturer := "  Dr. Sari  "

	tests := []struct {
		name      string
		principal Principal
		input     SubjectInput
		repoErr   error
		wantErr   error
		wantField string
	}{
		{name: "admin creates subject", principal: Principal{UserID: "admin", IsAdmin: true}, input: SubjectInput{Code: " if2101 ", Name: "Algoritma", Credits: 3, Lecturer: &lecturer}},
		{name: "non-admin rejected", principal: Principal{UserID: "student"}, input: SubjectInput{Code: "IF2101", Name: "Algoritma", Credits: 3}, wantErr: ErrUnauthorized},
		{name: "missing code", principal: Principal{UserID: "admin", IsAdmin: true}, input: SubjectInput{Name: "Algoritma", Credits: 3}, wantField: "code"},
		{name: "credits out of range", principal: Principal{UserID: "admin", IsAdmin: true}, input: SubjectInput{Code: "IF2101", Name: "Algoritma", Credits: 7}, wantField: "credits"},
		{name: "duplicate code", principal: Principal{UserID: "admin", IsAdmin: true}, input: SubjectInput{Code: "IF2101", Name: "Algoritma", Credits: 3}, repoErr: persistence.ErrDuplicate, wantErr: ErrAlreadyExists},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &subjectRepoStub{err: tt.repoErr}
			svc := NewSubjectService(repo, func() string { return "subj-1" }, func() time.Time { return now })

			subject, err := svc.CreateSubject(context.Background(), CreateSubjectParams{Principal: tt.principal, Input: tt.input})
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.wantField != "":
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.FieldErrors[tt.wantField] == "" {
					t.Fatalf("expected %s validation error, got %v", tt.wantField, err)
				}
			default:
				if err != nil {
					t.Fatalf("CreateSubject returned error: %v", err)
				}
				if subject.Code != "IF2101" || subject.Lecturer == nil || *subject.Lecturer != "Dr. Sari" {
					t.Fatalf("unexpected subject %+v", subject)
				}
				if repo.created.ID != "subj-1" || !repo.created.CreatedAt.Equal(now) {
					t.Fatalf("unexpected persisted subject %+v", repo.created)
				}
			}
		})
	}
}

func TestSubjectService_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	repo := &subjectRepoStub{subject: Subject{ID: "subj-1", Code: "IF2101", Name: "Algoritma", Credits: 3}}
	svc := NewSubjectService(repo, nil, nil)
	admin := Principal{UserID: "admin", IsAdmin: true}

	updated, err := svc.UpdateSubject(context.Background(), UpdateSubjectParams{Principal: admin, SubjectID: "subj-1", Input: SubjectInput{Code: "IF2101", Name: "Algoritma Lanjut", Credits: 4}})
	if err != nil {
		t.Fatalf("UpdateSubject returned error: %v", err)
	}
	if updated.Name != "Algoritma Lanjut" || updated.Credits != 4 {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := svc.UpdateSubject(context.Background(), UpdateSubjectParams{Principal: admin, SubjectID: "missing", Input: SubjectInput{Code: "X", Name: "Y", Credits: 2}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.DeleteSubject(context.Background(), Principal{UserID: "student"}, "subj-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	repo.deleteErr = persistence.ErrNotFound
	if err := svc.DeleteSubject(context.Background(), admin, "subj-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubjectService_ListSubjectsSortsByCode(t *testing.T) {
	t.Parallel()

	repo := &subjectRepoStub{list: []Subject{{ID: "2", Code: "MA1101"}, {ID: "1", Code: "IF2101"}}}
	svc := NewSubjectService(repo, nil, nil)

	subjects, err := svc.ListSubjects(context.Background(), Principal{UserID: "student"})
	if err != nil {
		t.Fatalf("ListSubjects returned error: %v", err)
	}
	if len(subjects) != 2 || subjects[0].Code != "IF2101" {
		t.Fatalf("unexpected order %+v", subjects)
	}
	if repo.list[0].Code != "MA1101" {
		t.Fatal("ListSubjects must not reorder the repository slice")
	}
}
