package countdown

import (
	"fmt"
	"time"
)

const ActiveLabel = "Now"

type Countdown struct {
	Label     string
	IsActive  bool
	Remaining time.Duration // Floored to whole minutes, zero when active
}

// Project computes the time left until targetStart as seen at now. The
// remaining time is truncated to whole minutes, never rounded up.
func Project(targetStart, now time.Time) Countdown {
	if !targetStart.After(now) {
		return Countdown{Label: ActiveLabel, IsActive: true}
	}

	remaining := targetStart.Sub(now).Truncate(time.Minute)
	return Countdown{
		Label:     FormatRemaining(remaining),
		IsActive:  false,
		Remaining: remaining,
	}
}

// FormatRemaining renders d as "1h 29min", omitting the hours when zero.
func FormatRemaining(d time.Duration) string {
	minutes := int(d / time.Minute)
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dmin", m)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}
