package localtime

import (
	"fmt"
	"time"
)

const (
	clockLayout    = "15:04"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// The viewer's time zone. "Rest of today" is measured against its calendar.
var viewerLocation *time.Location = time.Local

func SetTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}
	viewerLocation = loc
	return nil
}

func Location() *time.Location {
	return viewerLocation
}

// NextMidnight returns 00:00 of the calendar day following t in the viewer's
// time zone. Day lengths of 23 or 25 hours are handled by time.Date.
func NextMidnight(t time.Time) time.Time {
	return NextMidnightIn(t, viewerLocation)
}

func NextMidnightIn(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
}

// Midnight returns 00:00 of the calendar day of t in the viewer's time zone.
func Midnight(t time.Time) time.Time {
	lt := t.In(viewerLocation)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, viewerLocation)
}

func FormatClock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.In(viewerLocation).Format(clockLayout)
}

func FormatDateTime(t time.Time) string {
	return t.In(viewerLocation).Format(dateTimeLayout)
}

func FromIso(str string) time.Time {
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}
	}
	return t
}
