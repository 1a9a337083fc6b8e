package vibe

// Context carries everything one evaluation needs. It is ephemeral and owned
// by the caller; the engine keeps no state between calls.
type Context struct {
	Activity      ActivityClass
	Minute        int // minute of day, 0-1439
	Confidence    ConfidenceTier
	Speed         float64 // m/s
	Distance      float64 // meters, current segment
	Duration      float64 // seconds, current segment
	Weekend       bool
	PhysicsForced bool
}

// Late-night plausibility window: deep work or exercise between 01:00 and
// 04:59 is rare though possible.
const (
	lateNightStart = 60  // 01:00
	lateNightEnd   = 300 // 05:00, exclusive
)

// Evaluate resolves a context against the compiled table and composes the
// final probability. Pure, allocation-free, and constant-time: one table
// lookup plus fixed arithmetic. It never fails; degenerate inputs still
// produce a defined (vibe, probability) pair.
func (t *LookupTable) Evaluate(ctx Context) (Vibe, float64) {
	entry, ok := t.Lookup(ctx.Activity, ctx.Minute)
	if !ok {
		// Unfilled slot: only reachable with a rule set lacking catch-alls.
		return VibeUnknown, 0.0
	}

	tableProb := entry.Probability()
	confidence := confidenceMultiplier(ctx.Confidence, ctx.PhysicsForced)
	precision := activityPrecision(ctx.Activity)

	stability := 1.0
	if ctx.Duration < 60 {
		stability = 0.7 // transient segment, likely noise
	}

	// Weighted composition rather than multiplicative so several weak
	// signals do not compound into a near-zero probability. Weights always
	// total 10; a low confidence tier shifts weight from the table
	// likelihood onto the confidence term.
	wLikelihood, wConfidence := 3.5, 3.5
	if ctx.Confidence == ConfidenceLow {
		wLikelihood, wConfidence = 2.0, 5.0
	}

	prob := (tableProb*wLikelihood + confidence*wConfidence + precision*2.0 + stability*1.0) / 10.0

	result := entry.Target

	if ctx.Minute >= lateNightStart && ctx.Minute < lateNightEnd {
		switch result {
		case VibeFocus:
			prob *= 0.8
		case VibeEnergetic:
			prob *= 0.9
		}
	}

	// Work-time is not a meaningful label on leisure days.
	if ctx.Weekend && result == VibeFocus {
		result = VibeChill
		prob *= 0.9
	}

	return result, clamp01(prob)
}

func confidenceMultiplier(tier ConfidenceTier, forced bool) float64 {
	if forced {
		// A physics override is trusted fully regardless of what the
		// sensor thought of its own label.
		return 1.0
	}
	switch tier {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.8
	default:
		return 0.5
	}
}

// activityPrecision weights how unambiguous the activity signal itself is.
// Vehicular, cycling and running motion are unmistakable; stationary relies
// almost entirely on time-of-day context.
func activityPrecision(activity ActivityClass) float64 {
	switch activity {
	case ActivityAutomotive, ActivityCycling, ActivityRunning:
		return 1.0
	case ActivityWalking:
		return 0.9
	default:
		return 0.8
	}
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
