package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jadwalin/jadwal/internal/scheduler"
)

// wib is the campus default (Western Indonesian Time) used when no location is configured.
var wib = time.FixedZone("WIB", 7*60*60)

// ErrInvalidWindow indicates the expansion window is empty or inverted.
var ErrInvalidWindow = errors.New("recurrence: expansion window must have end after start")

// Weekly is a schedule slot that repeats every week on the same day.
type Weekly struct {
	EventID   string
	DayOfWeek time.Weekday
	Start     scheduler.DayOffset
	End       scheduler.DayOffset
}

// Occurrence is a concrete instance of a weekly slot.
type Occurrence struct {
	EventID string
	Start   time.Time
	End     time.Time
}

// Engine expands weekly slots into dated occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that interprets day offsets as wall-clock
// time in loc. If loc is nil, WIB (UTC+7) is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = wib
	}
	return &Engine{location: loc}
}

// Location returns the timezone occurrences are generated in.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return wib
	}
	return e.location
}

// Expand returns every occurrence of slot whose start falls in [rangeStart, rangeEnd).
//
// Offsets are applied to the calendar date as wall-clock components, so a
// 08:00 lecture stays at 08:00 across DST changes in the engine location.
func (e *Engine) Expand(slot Weekly, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	if !rangeEnd.After(rangeStart) {
		return nil, ErrInvalidWindow
	}
	if err := scheduler.ValidateEvent(scheduler.Event{DayOfWeek: slot.DayOfWeek, Start: slot.Start, End: slot.End}); err != nil {
		return nil, err
	}

	loc := e.Location()
	rangeStart = rangeStart.In(loc)
	rangeEnd = rangeEnd.In(loc)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{ToRRuleWeekday(slot.DayOfWeek)},
		Dtstart:   atOffset(rangeStart, slot.Start, loc),
	})
	if err != nil {
		return nil, fmt.Errorf("recurrence: build rule for %s: %w", slot.EventID, err)
	}

	starts := rule.Between(rangeStart, rangeEnd, true)
	occurrences := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		if !start.Before(rangeEnd) {
			continue
		}
		occurrences = append(occurrences, Occurrence{
			EventID: slot.EventID,
			Start:   start,
			End:     atOffset(start, slot.End, loc),
		})
	}
	return occurrences, nil
}

// ExpandAll expands every slot and orders the result by start, then event id.
func (e *Engine) ExpandAll(slots []Weekly, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	if !rangeEnd.After(rangeStart) {
		return nil, ErrInvalidWindow
	}
	var all []Occurrence
	for _, slot := range slots {
		occurrences, err := e.Expand(slot, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		all = append(all, occurrences...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start.Equal(all[j].Start) {
			return all[i].EventID < all[j].EventID
		}
		return all[i].Start.Before(all[j].Start)
	})
	return all, nil
}

// WeekStart returns Monday 00:00 of the week containing reference, in the engine location.
func (e *Engine) WeekStart(reference time.Time) time.Time {
	loc := e.Location()
	local := reference.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// FirstOnOrAfter returns the first date on or after from that falls on day,
// at the given offset, in the engine location.
func (e *Engine) FirstOnOrAfter(from time.Time, day time.Weekday, offset scheduler.DayOffset) time.Time {
	loc := e.Location()
	local := from.In(loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	delta := (int(day) - int(date.Weekday()) + 7) % 7
	return atOffset(date.AddDate(0, 0, delta), offset, loc)
}

// RuleString renders the weekly rule for day without DTSTART, e.g. "FREQ=WEEKLY;BYDAY=MO".
func RuleString(day time.Weekday) string {
	option := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{ToRRuleWeekday(day)}}
	return option.RRuleString()
}

// ToRRuleWeekday maps a time.Weekday to its rrule counterpart.
func ToRRuleWeekday(day time.Weekday) rrule.Weekday {
	switch day {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// atOffset places offset on the calendar date of day as wall-clock time.
// EndOfDay normalizes to midnight of the following date.
func atOffset(day time.Time, offset scheduler.DayOffset, loc *time.Location) time.Time {
	local := day.In(loc)
	ms := int64(offset)
	hour := int(ms / int64(time.Hour/time.Millisecond))
	ms %= int64(time.Hour / time.Millisecond)
	minute := int(ms / int64(time.Minute/time.Millisecond))
	ms %= int64(time.Minute / time.Millisecond)
	second := int(ms / 1000)
	nsec := int(ms%1000) * int(time.Millisecond)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, second, nsec, loc)
}
