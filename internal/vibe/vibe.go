package vibe

// Vibe is the semantic day-state the engine resolves a moment into.
type Vibe uint8

const (
	VibeUnknown Vibe = iota
	VibeSleep
	VibeMorningRoutine
	VibeEnergetic
	VibeCommute
	VibeFocus
	VibeChill

	vibeCount = 7
)

// String returns the wire/storage name of the vibe
func (v Vibe) String() string {
	switch v {
	case VibeSleep:
		return "sleep"
	case VibeMorningRoutine:
		return "morningRoutine"
	case VibeEnergetic:
		return "energetic"
	case VibeCommute:
		return "commute"
	case VibeFocus:
		return "focus"
	case VibeChill:
		return "chill"
	default:
		return "unknown"
	}
}

// ParseVibe maps a vibe name back to its enum value. Unrecognized names
// resolve to VibeUnknown.
func ParseVibe(s string) Vibe {
	switch s {
	case "sleep":
		return VibeSleep
	case "morningRoutine":
		return VibeMorningRoutine
	case "energetic":
		return VibeEnergetic
	case "commute":
		return VibeCommute
	case "focus":
		return VibeFocus
	case "chill":
		return VibeChill
	default:
		return VibeUnknown
	}
}

// ActivityClass is the resolved motion category used for table addressing.
// Values are table indices; keep them dense and stable.
type ActivityClass uint8

const (
	ActivityStationary ActivityClass = iota
	ActivityWalking
	ActivityRunning
	ActivityCycling
	ActivityAutomotive

	activityCount = 5
)

// String returns the storage name of the activity class
func (a ActivityClass) String() string {
	switch a {
	case ActivityStationary:
		return "stationary"
	case ActivityWalking:
		return "walking"
	case ActivityRunning:
		return "running"
	case ActivityCycling:
		return "cycling"
	case ActivityAutomotive:
		return "automotive"
	default:
		return "unknown"
	}
}

// ParseActivityClass maps an activity name to its enum value
func ParseActivityClass(s string) (ActivityClass, bool) {
	switch s {
	case "stationary":
		return ActivityStationary, true
	case "walking":
		return ActivityWalking, true
	case "running":
		return ActivityRunning, true
	case "cycling":
		return ActivityCycling, true
	case "automotive":
		return ActivityAutomotive, true
	default:
		return ActivityStationary, false
	}
}

// ActivitySet is a bitset of activity classes a rule applies to
type ActivitySet uint8

const (
	SetStationary ActivitySet = 1 << ActivityStationary
	SetWalking    ActivitySet = 1 << ActivityWalking
	SetRunning    ActivitySet = 1 << ActivityRunning
	SetCycling    ActivitySet = 1 << ActivityCycling
	SetAutomotive ActivitySet = 1 << ActivityAutomotive

	// SetMoving covers every class that implies displacement
	SetMoving = SetWalking | SetRunning | SetCycling | SetAutomotive

	// SetAll covers every activity class
	SetAll = SetStationary | SetMoving
)

// Contains reports whether the set includes the given activity class
func (s ActivitySet) Contains(a ActivityClass) bool {
	return s&(1<<a) != 0
}

// MotionLabel is the raw label reported by the motion sensor stack, before
// physics reclassification.
type MotionLabel uint8

const (
	MotionUnknown MotionLabel = iota
	MotionStationary
	MotionWalking
	MotionRunning
	MotionCycling
	MotionAutomotive
)

// ParseMotionLabel maps a sensor-reported label to its enum value.
// Anything unrecognized is treated as unknown and resolved by speed.
func ParseMotionLabel(s string) MotionLabel {
	switch s {
	case "stationary":
		return MotionStationary
	case "walking":
		return MotionWalking
	case "running":
		return MotionRunning
	case "cycling":
		return MotionCycling
	case "automotive":
		return MotionAutomotive
	default:
		return MotionUnknown
	}
}

// String returns the sensor name of the motion label
func (m MotionLabel) String() string {
	switch m {
	case MotionStationary:
		return "stationary"
	case MotionWalking:
		return "walking"
	case MotionRunning:
		return "running"
	case MotionCycling:
		return "cycling"
	case MotionAutomotive:
		return "automotive"
	default:
		return "unknown"
	}
}

// ConfidenceTier is the sensor-reported confidence in its motion label
type ConfidenceTier uint8

const (
	ConfidenceLow ConfidenceTier = iota
	ConfidenceMedium
	ConfidenceHigh
)

// ParseConfidenceTier maps a tier name to its enum value, defaulting to low
// for anything unrecognized (missing confidence means untrusted)
func ParseConfidenceTier(s string) ConfidenceTier {
	switch s {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// String returns the tier name
func (c ConfidenceTier) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}
