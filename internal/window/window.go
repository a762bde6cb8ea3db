// Package window classifies the current local time of day against a target time of day
// into the reminder windows used by the scheduler.
package window

import "time"

const (
	MinutesPerDay = 1440
	halfDay       = MinutesPerDay / 2
)

type Window string

const (
	None     Window = "none"
	Before15 Window = "before15"
	Before5  Window = "before5"
	AtTime   Window = "at_time"
	After15  Window = "after15"
)

// MinuteOfDay counts minutes since local midnight.
type MinuteOfDay int

// FromTime returns the minute of day of t in t's own location.
func FromTime(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

func FromHM(hour, minute int) MinuteOfDay {
	return MinuteOfDay(hour*60 + minute)
}

// Offset returns target - current normalized into [-720, 720), so a target just
// past midnight is ahead of a current time just before it.
func Offset(current, target MinuteOfDay) int {
	return Normalize(int(target) - int(current))
}

// Normalize folds a minute difference into [-720, 720).
func Normalize(diff int) int {
	diff %= MinutesPerDay
	if diff < -halfDay {
		diff += MinutesPerDay
	}
	if diff >= halfDay {
		diff -= MinutesPerDay
	}
	return diff
}

// ForOffset maps a signed minute offset (target - now) onto a window. Each band is
// three minutes wide to absorb per-minute polling jitter.
func ForOffset(diff int) Window {
	switch {
	case diff >= 14 && diff <= 16:
		return Before15
	case diff >= 4 && diff <= 6:
		return Before5
	case diff >= -1 && diff <= 1:
		return AtTime
	case diff >= -16 && diff <= -14:
		return After15
	default:
		return None
	}
}

func Classify(current, target MinuteOfDay) Window {
	return ForOffset(Offset(current, target))
}

// ShouldRemindClockOut reports whether current is in the after15 band of scheduledEnd.
func ShouldRemindClockOut(current, scheduledEnd MinuteOfDay) bool {
	return Classify(current, scheduledEnd) == After15
}
