package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jadwalin/jadwal/internal/persistence"
)

// SubjectRepository implements persistence.SubjectRepository using SQLite.
type SubjectRepository struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper ErrorMapper
}

// NewSubjectRepository creates a SQLite subject repository.
func NewSubjectRepository(pool *ConnectionPool) *SubjectRepository {
	return &SubjectRepository{pool: pool, retry: NewRetryHelper(DefaultRetryConfig())}
}

const subjectColumns = `id, code, name, credits, lecturer, color, created_at, updated_at`

// CreateSubject inserts a catalog entry.
func (r *SubjectRepository) CreateSubject(ctx context.Context, subject persistence.Subject) error {
	if subject.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO subjects (`+subjectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			subject.ID,
			subject.Code,
			subject.Name,
			subject.Credits,
			nullableString(subject.Lecturer),
			nullableString(subject.Color),
			formatTime(subject.CreatedAt),
			formatTime(subject.UpdatedAt),
		)
		return err
	})
}

// UpdateSubject updates a catalog entry.
func (r *SubjectRepository) UpdateSubject(ctx context.Context, subject persistence.Subject) error {
	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE subjects
			SET code = ?, name = ?, credits = ?, lecturer = ?, color = ?, updated_at = ?
			WHERE id = ?`,
			subject.Code,
			subject.Name,
			subject.Credits,
			nullableString(subject.Lecturer),
			nullableString(subject.Color),
			formatTime(subject.UpdatedAt),
			subject.ID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetSubject retrieves a subject by ID.
func (r *SubjectRepository) GetSubject(ctx context.Context, id string) (persistence.Subject, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
	subject, err := scanSubject(row)
	if err != nil {
		return persistence.Subject{}, r.mapper.MapError(err)
	}
	return subject, nil
}

// ListSubjects returns every subject ordered by code.
func (r *SubjectRepository) ListSubjects(ctx context.Context) ([]persistence.Subject, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+subjectColumns+` FROM subjects ORDER BY code, id`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	subjects := make([]persistence.Subject, 0)
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate subjects: %w", err)
	}
	return subjects, nil
}

// DeleteSubject removes a subject. Referencing events keep their slot with subject_id cleared.
func (r *SubjectRepository) DeleteSubject(ctx context.Context, id string) error {
	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanSubject(row rowScanner) (persistence.Subject, error) {
	var subject persistence.Subject
	var lecturer, color sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(
		&subject.ID,
		&subject.Code,
		&subject.Name,
		&subject.Credits,
		&lecturer,
		&color,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Subject{}, err
	}

	subject.Lecturer = stringPtr(lecturer)
	subject.Color = stringPtr(color)

	var err error
	if subject.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Subject{}, err
	}
	if subject.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Subject{}, err
	}
	return subject, nil
}
