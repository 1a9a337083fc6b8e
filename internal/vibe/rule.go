package vibe

// MinutesPerDay is the size of the minute-of-day axis
const MinutesPerDay = 1440

// TimeWindow is a half-open range of minutes-from-midnight [Start, End).
// Windows never wrap: an overnight span is split by Windows() before it
// reaches the compiler, because the lookup table has no wrap-around
// addressing.
type TimeWindow struct {
	Start int
	End   int
}

// Width returns the number of minutes the window covers
func (w TimeWindow) Width() int {
	return w.End - w.Start
}

// Contains reports whether the window covers the given minute-of-day
func (w TimeWindow) Contains(minute int) bool {
	return minute >= w.Start && minute < w.End
}

// Windows builds the window list for a [start, end) span in minutes from
// midnight. A span whose end is numerically at or before its start denotes an
// overnight range and is split into [start, 1440) and [0, end).
func Windows(start, end int) []TimeWindow {
	start = clampMinute(start)
	end = clampMinute(end)

	if end > start {
		return []TimeWindow{{Start: start, End: end}}
	}

	// Overnight split. end == start means a full-day span anchored at start.
	windows := make([]TimeWindow, 0, 2)
	if start < MinutesPerDay {
		windows = append(windows, TimeWindow{Start: start, End: MinutesPerDay})
	}
	if end > 0 {
		windows = append(windows, TimeWindow{Start: 0, End: end})
	}
	return windows
}

// AllDay returns the single window covering every minute
func AllDay() []TimeWindow {
	return []TimeWindow{{Start: 0, End: MinutesPerDay}}
}

func clampMinute(m int) int {
	if m < 0 {
		return 0
	}
	if m > MinutesPerDay {
		return MinutesPerDay
	}
	return m
}

// Rule is one declarative classification rule: when the person's activity
// class is in Activities and the minute-of-day falls inside one of Windows,
// the moment is a candidate for Target with the given base likelihood.
// Priority orders rules in the compiler; at equal priority and likelihood the
// narrower (more specific) rule wins.
type Rule struct {
	Target     Vibe
	Windows    []TimeWindow
	Activities ActivitySet
	Priority   int
	Likelihood float64
}

// Specificity returns the total number of minutes the rule's windows cover.
// Derived from the windows on every call so it can never drift out of sync
// with them.
func (r Rule) Specificity() int {
	total := 0
	for _, w := range r.Windows {
		total += w.Width()
	}
	return total
}
