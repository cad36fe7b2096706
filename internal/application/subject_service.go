package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jadwalin/jadwal/internal/persistence"
)

const (
	minCredits = 1
	maxCredits = 6
)

// SubjectRepository captures the persistence operations needed by the service.
type SubjectRepository interface {
	CreateSubject(ctx context.Context, subject Subject) (Subject, error)
	GetSubject(ctx context.Context, id string) (Subject, error)
	UpdateSubject(ctx context.Context, subject Subject) (Subject, error)
	DeleteSubject(ctx context.Context, id string) error
	ListSubjects(ctx context.Context) ([]Subject, error)
}

// SubjectService orchestrates validation, authorization, and persistence for the course catalog.
type SubjectService struct {
	subjects    SubjectRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSubjectService constructs a subject service with the provided dependencies.
func NewSubjectService(subjects SubjectRepository, idGenerator func() string, now func() time.Time) *SubjectService {
	return NewSubjectServiceWithLogger(subjects, idGenerator, now, nil)
}

// NewSubjectServiceWithLogger constructs a subject service with a specified logger.
func NewSubjectServiceWithLogger(subjects SubjectRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SubjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SubjectService{subjects: subjects, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *SubjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SubjectService", operation, attrs...)
}

// CreateSubject validates input and persists a new subject for administrators.
func (s *SubjectService) CreateSubject(ctx context.Context, params CreateSubjectParams) (subject Subject, err error) {
	if s == nil {
		err = fmt.Errorf("SubjectService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSubject", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create subject", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("subject_id", subject.ID, "code", subject.Code).InfoContext(ctx, "subject created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	if vErr := validateSubjectInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	subject = Subject{
		ID:        s.idGenerator(),
		Code:      normalizeSubjectCode(params.Input.Code),
		Name:      strings.TrimSpace(params.Input.Name),
		Credits:   params.Input.Credits,
		Lecturer:  normalizeOptionalString(params.Input.Lecturer),
		Color:     normalizeOptionalString(params.Input.Color),
		CreatedAt: s.now(),
	}
	subject.UpdatedAt = subject.CreatedAt

	if s.subjects == nil {
		return
	}

	var persisted Subject
	persisted, err = s.subjects.CreateSubject(ctx, subject)
	if err != nil {
		err = mapSubjectRepoError(err)
		return
	}

	subject = persisted
	return
}

// UpdateSubject validates input and updates an existing subject for administrators.
func (s *SubjectService) UpdateSubject(ctx context.Context, params UpdateSubjectParams) (subject Subject, err error) {
	if s == nil {
		err = fmt.Errorf("SubjectService is nil")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.subjects == nil {
		err = fmt.Errorf("subject repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSubject",
		"principal_id", params.Principal.UserID,
		"subject_id", params.SubjectID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update subject", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "subject updated")
	}()

	var existing Subject
	existing, err = s.subjects.GetSubject(ctx, params.SubjectID)
	if err != nil {
		err = mapSubjectRepoError(err)
		return
	}

	if vErr := validateSubjectInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Code = normalizeSubjectCode(params.Input.Code)
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Credits = params.Input.Credits
	updated.Lecturer = normalizeOptionalString(params.Input.Lecturer)
	updated.Color = normalizeOptionalString(params.Input.Color)
	updated.UpdatedAt = s.now()

	subject, err = s.subjects.UpdateSubject(ctx, updated)
	if err != nil {
		err = mapSubjectRepoError(err)
	}
	return
}

// DeleteSubject removes a subject when requested by an administrator. Events
// that referenced it keep their own title and lose the link.
func (s *SubjectService) DeleteSubject(ctx context.Context, principal Principal, subjectID string) error {
	if s == nil {
		return fmt.Errorf("SubjectService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.subjects == nil {
		return fmt.Errorf("subject repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSubject",
		"principal_id", principal.UserID,
		"subject_id", subjectID,
	)

	if err := s.subjects.DeleteSubject(ctx, subjectID); err != nil {
		err = mapSubjectRepoError(err)
		logger.ErrorContext(ctx, "failed to delete subject", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "subject deleted")
	return nil
}

// GetSubject returns a single subject for any authenticated user.
func (s *SubjectService) GetSubject(ctx context.Context, principal Principal, subjectID string) (Subject, error) {
	if s == nil {
		return Subject{}, fmt.Errorf("SubjectService is nil")
	}
	if s.subjects == nil {
		return Subject{}, fmt.Errorf("subject repository not configured")
	}
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return Subject{}, mapSubjectRepoError(err)
	}
	return subject, nil
}

// ListSubjects returns the catalog ordered by code.
func (s *SubjectService) ListSubjects(ctx context.Context, principal Principal) (subjects []Subject, err error) {
	if s == nil {
		err = fmt.Errorf("SubjectService is nil")
		return
	}
	if s.subjects == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListSubjects", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list subjects", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(subjects)).DebugContext(ctx, "subjects listed")
	}()

	var raw []Subject
	raw, err = s.subjects.ListSubjects(ctx)
	if err != nil {
		return
	}

	subjects = make([]Subject, len(raw))
	copy(subjects, raw)
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Code == subjects[j].Code {
			return subjects[i].ID < subjects[j].ID
		}
		return subjects[i].Code < subjects[j].Code
	})
	return
}

func validateSubjectInput(input SubjectInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Code) == "" {
		vErr.add("code", "code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Credits < minCredits || input.Credits > maxCredits {
		vErr.add("credits", fmt.Sprintf("credits must be between %d and %d", minCredits, maxCredits))
	}
	if color := normalizeOptionalString(input.Color); color != nil && !colorPattern.MatchString(*color) {
		vErr.add("color", "must be a hex color such as #1E88E5")
	}

	return vErr
}

func normalizeSubjectCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func mapSubjectRepoError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFoundError(err) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("credits", fmt.Sprintf("credits must be between %d and %d", minCredits, maxCredits))
	}
	return err
}
