package vibe

import (
	"math"
	"testing"
	"time"
)

// evaluateMoment runs the full pipeline the agent uses: physics
// classification, context extraction, table evaluation.
func evaluateMoment(label MotionLabel, tier ConfidenceTier, speed, distance, duration float64, ts time.Time) (Vibe, float64) {
	epoch := ts.Unix()
	class, forced := ClassifyActivity(label, speed, distance, duration)
	ctx := Context{
		Activity:      class,
		Minute:        MinuteOfDay(epoch, 0),
		Confidence:    tier,
		Speed:         speed,
		Distance:      distance,
		Duration:      duration,
		Weekend:       IsWeekend(epoch, 0),
		PhysicsForced: forced,
	}
	return DefaultTable().Evaluate(ctx)
}

func TestEvaluate_NightStillnessIsSleep(t *testing.T) {
	// Stationary, high confidence, 03:00 on a Wednesday.
	ts := time.Date(2024, time.January, 3, 3, 0, 0, 0, time.UTC)
	state, prob := evaluateMoment(MotionStationary, ConfidenceHigh, 0, 0, 3600, ts)

	if state != VibeSleep {
		t.Errorf("expected sleep, got %s", state)
	}
	if prob <= 0.85 {
		t.Errorf("expected probability > 0.85, got %f", prob)
	}
}

func TestEvaluate_MorningDriveIsCommute(t *testing.T) {
	// Automotive, 10 m/s, 08:30 on a Wednesday.
	ts := time.Date(2024, time.January, 3, 8, 30, 0, 0, time.UTC)
	state, prob := evaluateMoment(MotionAutomotive, ConfidenceHigh, 10, 3000, 300, ts)

	if state != VibeCommute {
		t.Errorf("expected commute, got %s", state)
	}
	if prob <= 0.8 {
		t.Errorf("expected probability > 0.8, got %f", prob)
	}
}

func TestEvaluate_MorningRunIsEnergetic(t *testing.T) {
	ts := time.Date(2024, time.January, 3, 6, 30, 0, 0, time.UTC)
	state, _ := evaluateMoment(MotionRunning, ConfidenceHigh, 3.0, 900, 300, ts)

	if state != VibeEnergetic {
		t.Errorf("expected energetic, got %s", state)
	}
}

func TestEvaluate_SundayWalkIsEnergetic(t *testing.T) {
	// A Sunday afternoon walk hits the broad active-movement rule, not
	// focus, so the weekend override must not turn it into chill.
	ts := time.Date(2024, time.January, 7, 14, 0, 0, 0, time.UTC)
	state, _ := evaluateMoment(MotionWalking, ConfidenceHigh, 1.4, 200, 300, ts)

	if state != VibeEnergetic {
		t.Errorf("expected energetic, got %s", state)
	}
}

func TestEvaluate_WeekendOverride(t *testing.T) {
	// Identical desk-hours context, weekday vs Saturday.
	ctx := Context{
		Activity:   ActivityStationary,
		Minute:     14 * 60,
		Confidence: ConfidenceHigh,
		Duration:   1800,
	}

	weekdayState, weekdayProb := DefaultTable().Evaluate(ctx)
	if weekdayState != VibeFocus {
		t.Fatalf("expected focus on a weekday, got %s", weekdayState)
	}

	ctx.Weekend = true
	weekendState, weekendProb := DefaultTable().Evaluate(ctx)
	if weekendState != VibeChill {
		t.Errorf("expected focus to become chill on a weekend, got %s", weekendState)
	}
	if math.Abs(weekendProb-weekdayProb*0.9) > 1e-9 {
		t.Errorf("expected weekend probability %f (0.9 × weekday), got %f", weekdayProb*0.9, weekendProb)
	}
}

func TestEvaluate_LateNightDampening(t *testing.T) {
	table := Compile([]Rule{
		{Target: VibeFocus, Windows: AllDay(), Activities: SetStationary, Priority: 10, Likelihood: 0.9},
		{Target: VibeEnergetic, Windows: AllDay(), Activities: SetRunning, Priority: 10, Likelihood: 0.9},
	})

	base := Context{Confidence: ConfidenceHigh, Duration: 1800}

	// Focus at 02:00 vs noon: ×0.8.
	night, noon := base, base
	night.Activity, night.Minute = ActivityStationary, 2*60
	noon.Activity, noon.Minute = ActivityStationary, 12*60
	_, nightProb := table.Evaluate(night)
	_, noonProb := table.Evaluate(noon)
	if math.Abs(nightProb-noonProb*0.8) > 1e-9 {
		t.Errorf("expected focus dampened to %f at 02:00, got %f", noonProb*0.8, nightProb)
	}

	// Energetic at 03:00 vs noon: ×0.9.
	night.Activity, night.Minute = ActivityRunning, 3*60
	noon.Activity = ActivityRunning
	_, nightProb = table.Evaluate(night)
	_, noonProb = table.Evaluate(noon)
	if math.Abs(nightProb-noonProb*0.9) > 1e-9 {
		t.Errorf("expected energetic dampened to %f at 03:00, got %f", noonProb*0.9, nightProb)
	}

	// The window closes at 05:00.
	day := base
	day.Activity, day.Minute = ActivityStationary, 5*60
	_, dayProb := table.Evaluate(day)
	if math.Abs(dayProb-noonProbFor(table, base)) > 1e-9 {
		t.Errorf("expected no dampening at 05:00, got %f", dayProb)
	}
}

func noonProbFor(table *LookupTable, base Context) float64 {
	base.Activity, base.Minute = ActivityStationary, 12*60
	_, p := table.Evaluate(base)
	return p
}

func TestEvaluate_ConfidenceTiers(t *testing.T) {
	base := Context{Activity: ActivityStationary, Minute: 14 * 60, Duration: 1800}

	probs := make(map[ConfidenceTier]float64)
	for _, tier := range []ConfidenceTier{ConfidenceLow, ConfidenceMedium, ConfidenceHigh} {
		ctx := base
		ctx.Confidence = tier
		_, probs[tier] = DefaultTable().Evaluate(ctx)
	}

	if !(probs[ConfidenceLow] < probs[ConfidenceMedium] && probs[ConfidenceMedium] < probs[ConfidenceHigh]) {
		t.Errorf("expected monotonically increasing probability by tier, got %v", probs)
	}

	// A physics-forced classification restores full trust even at low tier.
	forced := base
	forced.Confidence = ConfidenceLow
	forced.PhysicsForced = true
	_, forcedProb := DefaultTable().Evaluate(forced)
	if forcedProb <= probs[ConfidenceLow] {
		t.Errorf("expected forced low-tier %f to beat unforced %f", forcedProb, probs[ConfidenceLow])
	}
}

func TestEvaluate_ShortSegmentPenalty(t *testing.T) {
	long := Context{Activity: ActivityStationary, Minute: 14 * 60, Confidence: ConfidenceHigh, Duration: 3600}
	short := long
	short.Duration = 30

	_, longProb := DefaultTable().Evaluate(long)
	_, shortProb := DefaultTable().Evaluate(short)
	if shortProb >= longProb {
		t.Errorf("expected short segment %f to score below long segment %f", shortProb, longProb)
	}
}

func TestEvaluate_EmptySlotYieldsUnknown(t *testing.T) {
	table := Compile(nil)
	state, prob := table.Evaluate(Context{Activity: ActivityWalking, Minute: 600})
	if state != VibeUnknown || prob != 0 {
		t.Errorf("expected (unknown, 0) for an empty table, got (%s, %f)", state, prob)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	ctx := Context{Activity: ActivityRunning, Minute: 390, Confidence: ConfidenceMedium, Duration: 300}
	s1, p1 := DefaultTable().Evaluate(ctx)
	s2, p2 := DefaultTable().Evaluate(ctx)
	if s1 != s2 || p1 != p2 {
		t.Errorf("evaluation not reproducible: (%s,%f) vs (%s,%f)", s1, p1, s2, p2)
	}
}
