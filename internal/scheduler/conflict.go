package scheduler

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInterval indicates an interval with start >= end or offsets outside the day.
	ErrInvalidInterval = errors.New("scheduler: invalid interval")
	// ErrInvalidDay indicates a day of week outside Sunday..Saturday.
	ErrInvalidDay = errors.New("scheduler: invalid day of week")
)

// Event is a weekly recurring slot owned by a single user.
type Event struct {
	ID        string
	UserID    string
	DayOfWeek time.Weekday
	Start     DayOffset
	End       DayOffset
}

// Query describes a proposed slot to check against a user's schedule.
// ExcludeEventID, when set, removes the event being edited from the comparison.
type Query struct {
	UserID         string
	DayOfWeek      time.Weekday
	Start          DayOffset
	End            DayOffset
	ExcludeEventID string
}

// ValidateInterval checks 0 <= start < end <= EndOfDay.
func ValidateInterval(start, end DayOffset) error {
	if start < 0 || end > EndOfDay || start >= end {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start, end)
	}
	return nil
}

// ValidateDay checks that day is between Sunday and Saturday.
func ValidateDay(day time.Weekday) error {
	if day < time.Sunday || day > time.Saturday {
		return fmt.Errorf("%w: %d", ErrInvalidDay, int(day))
	}
	return nil
}

// ValidateEvent checks the invariants every stored event must satisfy.
func ValidateEvent(e Event) error {
	if err := ValidateDay(e.DayOfWeek); err != nil {
		return err
	}
	return ValidateInterval(e.Start, e.End)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd DayOffset) bool {
	return aStart < bEnd && bStart < aEnd
}

// GetConflicts returns the events in the query owner's schedule that collide
// with the proposed slot, in input order. A nil result means no conflict; it
// is never an error. The function is pure and safe to call repeatedly.
func GetConflicts(events []Event, q Query) ([]Event, error) {
	if err := ValidateDay(q.DayOfWeek); err != nil {
		return nil, err
	}
	if err := ValidateInterval(q.Start, q.End); err != nil {
		return nil, err
	}

	var conflicts []Event
	for _, e := range events {
		if e.UserID != q.UserID || e.DayOfWeek != q.DayOfWeek {
			continue
		}
		if q.ExcludeEventID != "" && e.ID == q.ExcludeEventID {
			continue
		}
		if Overlaps(q.Start, q.End, e.Start, e.End) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts, nil
}
