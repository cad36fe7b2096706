package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

// timezoneYears bounds how far ahead offset transitions are written.
const timezoneYears = 5

const localLayout = "20060102T150405"

// addTimezone writes a VTIMEZONE for tzid describing loc from January 1 of
// from's year. Zones with a fixed offset get a single STANDARD observance;
// zones with transitions get one dated observance per change.
func addTimezone(cal *ical.Calendar, loc *time.Location, tzid string, from time.Time) {
	start := time.Date(from.In(loc).Year(), time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(timezoneYears, 0, 0)

	tz := cal.AddTimezone(tzid)
	_, initial := start.Zone()
	addObservance(tz, start, initial)

	previous := start
	_, offset := start.Zone()
	for t := start.Add(24 * time.Hour); t.Before(end); t = t.Add(24 * time.Hour) {
		if _, o := t.Zone(); o != offset {
			at := transitionBetween(previous, t)
			addObservance(tz, at, offset)
			offset = o
		}
		previous = t
	}
}

// transitionBetween returns the first instant in (lo, hi] whose offset differs from lo's.
func transitionBetween(lo, hi time.Time) time.Time {
	_, base := lo.Zone()
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, o := mid.Zone(); o == base {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

func addObservance(tz *ical.VTimezone, at time.Time, offsetFrom int) {
	name, offsetTo := at.Zone()

	var component *ical.ComponentBase
	if at.IsDST() {
		daylight := &ical.Daylight{}
		tz.Components = append(tz.Components, daylight)
		component = &daylight.ComponentBase
	} else {
		component = &tz.AddStandard().ComponentBase
	}

	// DTSTART of an observance is local time in the offset being left.
	local := at.In(time.FixedZone("", offsetFrom)).Format(localLayout)
	component.SetProperty(ical.ComponentPropertyDtStart, local)
	component.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetfrom), formatOffset(offsetFrom))
	component.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetto), formatOffset(offsetTo))
	if name != "" {
		component.SetProperty(ical.ComponentProperty(ical.PropertyTzname), name)
	}
}

// formatOffset renders seconds east of UTC as ±hhmm.
func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}
