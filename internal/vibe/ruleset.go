package vibe

import "sync"

// DefaultRules returns the shipped rule set. The set intentionally ends with
// full-day, all-activity catch-alls at minimal priority so that every table
// slot gets filled; total coverage is asserted by tests, not checked at
// runtime.
func DefaultRules() []Rule {
	return []Rule{
		// Overnight stillness is sleep.
		{Target: VibeSleep, Windows: Windows(23*60, 7*60), Activities: SetStationary, Priority: 100, Likelihood: 0.95},

		// Early-day puttering around the home.
		{Target: VibeMorningRoutine, Windows: Windows(7*60, 9*60), Activities: SetStationary | SetWalking, Priority: 90, Likelihood: 0.8},

		// Rush-hour driving.
		{Target: VibeCommute, Windows: Windows(7*60, 9*60+30), Activities: SetAutomotive, Priority: 90, Likelihood: 0.9},
		{Target: VibeCommute, Windows: Windows(16*60+30, 19*60), Activities: SetAutomotive, Priority: 90, Likelihood: 0.9},

		// Desk hours. Stationary only: walking during the day stays with the
		// broader active rule below, which is what keeps a weekend afternoon
		// walk "energetic" instead of tripping the focus→chill override.
		{Target: VibeFocus, Windows: Windows(9*60, 17*60+30), Activities: SetStationary, Priority: 80, Likelihood: 0.85},

		// Deliberate exercise at any hour.
		{Target: VibeEnergetic, Windows: AllDay(), Activities: SetRunning | SetCycling, Priority: 70, Likelihood: 0.85},

		// Daytime walking is active time.
		{Target: VibeEnergetic, Windows: Windows(6*60, 22*60), Activities: SetWalking, Priority: 60, Likelihood: 0.7},

		// Off-peak driving still reads as commute/transit.
		{Target: VibeCommute, Windows: AllDay(), Activities: SetAutomotive, Priority: 50, Likelihood: 0.75},

		// Evening wind-down.
		{Target: VibeChill, Windows: Windows(17*60+30, 23*60), Activities: SetStationary, Priority: 40, Likelihood: 0.75},

		// Catch-all: anything unclaimed is low-confidence chill.
		{Target: VibeChill, Windows: AllDay(), Activities: SetAll, Priority: 0, Likelihood: 0.4},
	}
}

var (
	defaultTableOnce sync.Once
	defaultTable     *LookupTable
)

// DefaultTable returns the process-wide table compiled from DefaultRules.
// Compiled exactly once; the result is immutable and safe for concurrent
// readers.
func DefaultTable() *LookupTable {
	defaultTableOnce.Do(func() {
		defaultTable = Compile(DefaultRules())
	})
	return defaultTable
}
