package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jadwalin/jadwal/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper ErrorMapper
}

// NewEventRepository creates a SQLite schedule event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool, retry: NewRetryHelper(DefaultRetryConfig())}
}

const eventColumns = `id, user_id, subject_id, title, day_of_week, start_offset_ms, end_offset_ms,
	location, join_url, notes, color, created_at, updated_at`

// CreateEvent inserts a schedule event. The table CHECK rejects offsets outside the day.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.ScheduleEvent) error {
	if event.ID == "" || event.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO schedule_events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.UserID,
			nullableString(event.SubjectID),
			event.Title,
			event.DayOfWeek,
			event.StartOffsetMS,
			event.EndOffsetMS,
			nullableString(event.Location),
			nullableString(event.JoinURL),
			nullableString(event.Notes),
			nullableString(event.Color),
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		return err
	})
}

// UpdateEvent rewrites the mutable columns of an event. Owner and creation time are kept.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.ScheduleEvent) error {
	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `
			UPDATE schedule_events
			SET subject_id = ?, title = ?, day_of_week = ?, start_offset_ms = ?, end_offset_ms = ?,
				location = ?, join_url = ?, notes = ?, color = ?, updated_at = ?
			WHERE id = ?`,
			nullableString(event.SubjectID),
			event.Title,
			event.DayOfWeek,
			event.StartOffsetMS,
			event.EndOffsetMS,
			nullableString(event.Location),
			nullableString(event.JoinURL),
			nullableString(event.Notes),
			nullableString(event.Color),
			formatTime(event.UpdatedAt),
			event.ID,
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

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.ScheduleEvent, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM schedule_events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.ScheduleEvent{}, r.mapper.MapError(err)
	}
	return event, nil
}

// ListEvents returns events matching filter ordered by day, start offset, then ID.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.ScheduleEvent, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.DayOfWeek != nil {
		clauses = append(clauses, "day_of_week = ?")
		args = append(args, *filter.DayOfWeek)
	}

	query := `SELECT ` + eventColumns + ` FROM schedule_events`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY day_of_week, start_offset_ms, id`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	events := make([]persistence.ScheduleEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan schedule event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate schedule events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM schedule_events WHERE id = ?`, id)
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

func scanEvent(row rowScanner) (persistence.ScheduleEvent, error) {
	var event persistence.ScheduleEvent
	var subjectID, location, joinURL, notes, color sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(
		&event.ID,
		&event.UserID,
		&subjectID,
		&event.Title,
		&event.DayOfWeek,
		&event.StartOffsetMS,
		&event.EndOffsetMS,
		&location,
		&joinURL,
		&notes,
		&color,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.ScheduleEvent{}, err
	}

	event.SubjectID = stringPtr(subjectID)
	event.Location = stringPtr(location)
	event.JoinURL = stringPtr(joinURL)
	event.Notes = stringPtr(notes)
	event.Color = stringPtr(color)

	var err error
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.ScheduleEvent{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.ScheduleEvent{}, err
	}
	return event, nil
}
