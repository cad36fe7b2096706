package testfixtures

import (
	"sync"
	"time"

	"github.com/jadwalin/jadwal/internal/scheduler"
)

// Campus is the fixed WIB zone fixtures use so tests do not depend on tzdata.
var Campus = time.FixedZone("WIB", 7*60*60)

// referenceTime is Monday 4 March 2024, 07:30 WIB.
var referenceTime = time.Date(2024, time.March, 4, 7, 30, 0, 0, Campus)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock provides a controllable time source for tests.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock initialised to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// AdvanceTo moves the clock to the next wall-clock time of day on the given
// weekday in the campus zone, staying put when the clock is already there.
func (c *Clock) AdvanceTo(day time.Weekday, offset scheduler.DayOffset) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	local := c.current.In(Campus)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Campus)
	target := midnight.AddDate(0, 0, (int(day)-int(local.Weekday())+7)%7).Add(time.Duration(offset) * time.Millisecond)
	if target.Before(local) {
		target = target.AddDate(0, 0, 7)
	}
	c.current = target
	return target
}

// Offset parses an "HH:MM" time of day and panics on malformed input. "24:00"
// is accepted for slot ends.
func Offset(hhmm string) scheduler.DayOffset {
	offset, err := scheduler.ParseEndOffset(hhmm)
	if err != nil {
		panic(err)
	}
	return offset
}
