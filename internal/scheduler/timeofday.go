package scheduler

import (
	"errors"
	"fmt"
)

const (
	// MinutesPerDay is the length of a schedule day in minutes.
	MinutesPerDay = 24 * 60
	// EndOfDay is the largest valid offset: midnight at the end of the day.
	EndOfDay DayOffset = MinutesPerDay * millisPerMinute

	millisPerMinute = 60 * 1000
)

// ErrInvalidFormat is returned when a wall-clock string is not a 24-hour HH:MM value.
var ErrInvalidFormat = errors.New("scheduler: invalid time format")

// DayOffset is a time of day expressed as milliseconds since local midnight.
// It is not an instant: the same offset means the same wall-clock time on
// every day the event recurs.
type DayOffset int64

// OffsetFromMinutes converts minutes since midnight to a DayOffset.
func OffsetFromMinutes(minutes int) DayOffset {
	return DayOffset(minutes) * millisPerMinute
}

// Minutes returns the whole minutes since midnight represented by the offset.
func (o DayOffset) Minutes() int {
	return int(o / millisPerMinute)
}

// String renders the offset as HH:MM. EndOfDay renders as "24:00".
func (o DayOffset) String() string {
	if o == EndOfDay {
		return "24:00"
	}
	return MinutesToTimeString(o.Minutes())
}

// ParseTimeToMinutes converts a 24-hour "HH:MM" string to minutes since midnight.
func ParseTimeToMinutes(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}
	hours, ok := twoDigits(value[0], value[1])
	if !ok || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}
	minutes, ok := twoDigits(value[3], value[4])
	if !ok || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, value)
	}
	return hours*60 + minutes, nil
}

// MinutesToTimeString renders minutes as zero-padded "HH:MM", wrapping into a
// single day. Negative inputs wrap backwards from midnight.
func MinutesToTimeString(minutes int) string {
	m := ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseDayOffset parses an "HH:MM" start time into a DayOffset.
func ParseDayOffset(value string) (DayOffset, error) {
	minutes, err := ParseTimeToMinutes(value)
	if err != nil {
		return 0, err
	}
	return OffsetFromMinutes(minutes), nil
}

// ParseEndOffset parses the end of an interval. It behaves like
// ParseDayOffset but also accepts "24:00" so a slot can run until midnight.
func ParseEndOffset(value string) (DayOffset, error) {
	if value == "24:00" {
		return EndOfDay, nil
	}
	return ParseDayOffset(value)
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
