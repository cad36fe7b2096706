// Package calendar renders weekly schedules as iCalendar documents.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/jadwalin/jadwal/internal/recurrence"
	"github.com/jadwalin/jadwal/internal/scheduler"
)

const productID = "-//Jadwal_In//Weekly Schedule//EN"

// ErrNoAnchor indicates EncodeOptions.Anchor was not set.
var ErrNoAnchor = errors.New("calendar: anchor date is required")

// Event is a weekly slot to export.
type Event struct {
	ID        string
	Title     string
	Location  string
	Notes     string
	JoinURL   string
	DayOfWeek time.Weekday
	Start     scheduler.DayOffset
	End       scheduler.DayOffset
	UpdatedAt time.Time
}

// EncodeOptions controls document-level fields.
type EncodeOptions struct {
	// Name is written as X-WR-CALNAME.
	Name string
	// Engine places slots on concrete dates. Nil uses the default campus zone.
	Engine *recurrence.Engine
	// Anchor is the date from which the first occurrence of each slot is chosen.
	Anchor time.Time
	// Now stamps DTSTAMP.
	Now time.Time
}

// Export renders events as a VCALENDAR with one recurring VEVENT per slot.
// DTSTART is the first occurrence on or after the anchor date.
func Export(events []Event, opts EncodeOptions) ([]byte, error) {
	if opts.Anchor.IsZero() {
		return nil, ErrNoAnchor
	}
	engine := opts.Engine
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = opts.Anchor
	}

	loc := engine.Location()
	tzid := ""
	if strings.Contains(loc.String(), "/") {
		tzid = loc.String()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if tzid != "" {
		cal.SetXWRTimezone(tzid)
		addTimezone(cal, loc, tzid, opts.Anchor)
	}

	for _, event := range events {
		if err := scheduler.ValidateEvent(scheduler.Event{DayOfWeek: event.DayOfWeek, Start: event.Start, End: event.End}); err != nil {
			return nil, fmt.Errorf("calendar: event %s: %w", event.ID, err)
		}

		start := engine.FirstOnOrAfter(opts.Anchor, event.DayOfWeek, event.Start)
		end := start.Add(time.Duration(event.End-event.Start) * time.Millisecond)

		vevent := cal.AddEvent(event.ID + "@jadwal")
		vevent.SetDtStampTime(stamp)
		if !event.UpdatedAt.IsZero() {
			vevent.SetModifiedAt(event.UpdatedAt)
		}
		if tzid != "" {
			vevent.SetProperty(ical.ComponentPropertyDtStart, start.Format(localLayout), ical.WithTZID(tzid))
			vevent.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localLayout), ical.WithTZID(tzid))
		} else {
			vevent.SetStartAt(start)
			vevent.SetEndAt(end)
		}
		vevent.SetSummary(event.Title)
		if event.Location != "" {
			vevent.SetLocation(event.Location)
		}
		if description := describe(event); description != "" {
			vevent.SetDescription(description)
		}
		if event.JoinURL != "" {
			vevent.SetURL(event.JoinURL)
		}
		vevent.AddRrule(recurrence.RuleString(event.DayOfWeek))
	}

	return []byte(cal.Serialize()), nil
}

func describe(event Event) string {
	parts := make([]string, 0, 2)
	if notes := strings.TrimSpace(event.Notes); notes != "" {
		parts = append(parts, notes)
	}
	if event.JoinURL != "" {
		parts = append(parts, "Join: "+event.JoinURL)
	}
	return strings.Join(parts, "\n")
}
