package vibe

// Physics plausibility thresholds, all in m/s except where noted. Elite
// sprinters top out around 12 m/s and no sustained ride exceeds 25 m/s, so
// anything past these bounds is vehicular regardless of the sensor's label.
const (
	speedVehicular     = 20.0
	speedMaxRunning    = 12.0
	speedMaxCycling    = 25.0
	speedWalkingCeil   = 2.5
	speedWalkingFloor  = 0.5
	speedFastUnlabeled = 10.0
	speedPushingBike   = 1.0
	speedJoggingFloor  = 2.0

	noiseDistanceM    = 5.0  // meters
	noiseDurationS    = 10.0 // seconds
	settledDistanceM  = 1.0  // meters
)

// ClassifyActivity resolves a raw motion label plus the segment's speed,
// distance and duration into an ActivityClass. The second return value is
// true when a physics rule overrode the sensor label; the evaluator then
// trusts the classification fully regardless of the sensor's own confidence.
//
// Pure function of its inputs. Every input combination, however degenerate,
// yields a defined class.
func ClassifyActivity(label MotionLabel, speed, distance, duration float64) (ActivityClass, bool) {
	// Implausible speeds are vehicular no matter what the sensor says.
	if speed >= speedVehicular {
		return ActivityAutomotive, true
	}
	if label == MotionRunning && speed > speedMaxRunning {
		return ActivityAutomotive, true
	}
	if label == MotionCycling && speed > speedMaxCycling {
		return ActivityAutomotive, true
	}

	class := refineLabel(label, speed)

	// Movement classes without accumulated displacement are sensor noise.
	if distance < noiseDistanceM && duration > noiseDurationS {
		switch class {
		case ActivityWalking, ActivityRunning, ActivityCycling:
			return ActivityStationary, true
		}
	}
	if distance < settledDistanceM && class != ActivityAutomotive {
		return ActivityStationary, true
	}

	return class, false
}

// refineLabel maps the raw label to a class, correcting the cases where the
// reported speed contradicts it (pushing a bike, jogging slower than a walk,
// walking faster than a run).
func refineLabel(label MotionLabel, speed float64) ActivityClass {
	switch label {
	case MotionCycling:
		if speed > 0 && speed < speedPushingBike {
			return ActivityWalking
		}
		return ActivityCycling
	case MotionRunning:
		if speed > 0 && speed < speedJoggingFloor {
			return ActivityWalking
		}
		return ActivityRunning
	case MotionWalking:
		if speed > speedWalkingCeil {
			return ActivityRunning
		}
		return ActivityWalking
	case MotionAutomotive:
		return ActivityAutomotive
	default:
		// Stationary or unknown labels carry no signal; resolve by speed.
		switch {
		case speed > speedFastUnlabeled:
			return ActivityAutomotive
		case speed > speedWalkingCeil:
			return ActivityRunning
		case speed > speedWalkingFloor:
			return ActivityWalking
		default:
			return ActivityStationary
		}
	}
}
