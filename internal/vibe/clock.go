package vibe

import "time"

const secondsPerDay = 86400

// MinuteOfDay converts an epoch timestamp and a fixed UTC offset into the
// local minute-of-day (0-1439) with pure integer arithmetic. No calendar
// lookup, no allocation; the result is identical on every device for the
// same inputs.
func MinuteOfDay(epochSeconds, offsetSeconds int64) int {
	total := (epochSeconds + offsetSeconds) % secondsPerDay
	if total < 0 {
		total += secondsPerDay
	}
	return int(total / 60)
}

// IsWeekend reports whether the timestamp falls on a Saturday or Sunday in
// the zone described by the fixed UTC offset. Only the weekend override
// needs the weekday, so the calendar call stays off the per-minute hot path.
func IsWeekend(epochSeconds, offsetSeconds int64) bool {
	day := time.Unix(epochSeconds+offsetSeconds, 0).UTC().Weekday()
	return day == time.Saturday || day == time.Sunday
}
