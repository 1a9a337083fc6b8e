package mqtt

import "fmt"

// TopicRawActivity is the subscription pattern for raw activity samples
// (input from the sensor fusion layer)
const TopicRawActivity = "automation/raw/activity/+"

// RawActivityTopic constructs the raw activity topic for a specific device
// Pattern: automation/raw/activity/{device}
func RawActivityTopic(device string) string {
	return fmt.Sprintf("automation/raw/activity/%s", device)
}

// VibeStatusTopic constructs the resolved vibe topic for a specific device
// Pattern: automation/vibe/{device}
func VibeStatusTopic(device string) string {
	return fmt.Sprintf("automation/vibe/%s", device)
}

// VibeTransitionTopic constructs the vibe transition event topic for a
// specific device
// Pattern: automation/vibe/{device}/transition
func VibeTransitionTopic(device string) string {
	return fmt.Sprintf("automation/vibe/%s/transition", device)
}
