package redis

import "fmt"

// Key construction helpers for vibe platform state

// ActivitySampleKey returns the key for a device's activity sample history
// (sorted set scored by collection time)
// Pattern: sample:activity:{device}
func ActivitySampleKey(device string) string {
	return fmt.Sprintf("sample:activity:%s", device)
}

// VibeStateKey returns the key for a device's current resolved vibe (hash)
// Pattern: vibe:current:{device}
func VibeStateKey(device string) string {
	return fmt.Sprintf("vibe:current:%s", device)
}

// VibeHistoryKey returns the key for a device's resolved vibe history
// (sorted set scored by evaluation time)
// Pattern: vibe:history:{device}
func VibeHistoryKey(device string) string {
	return fmt.Sprintf("vibe:history:%s", device)
}
