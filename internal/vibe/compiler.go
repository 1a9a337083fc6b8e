package vibe

import (
	"math"
	"sort"
)

const (
	// minuteBits sizes the minute axis of the table index. 1440 minutes fit
	// in 11 bits; the activity axis is over-provisioned to 8 rows so the
	// index is a single shift+or.
	minuteBits = 11
	minuteMask = (1 << minuteBits) - 1

	tableSize = 8 << minuteBits // 16384 entries
	indexMask = tableSize - 1
)

// emptyTarget marks a table slot no rule has claimed yet. After compiling a
// rule set with full-day catch-alls, no slot on a real activity row should
// still hold it.
const emptyTarget Vibe = 0xFF

// CompiledEntry is the value stored per table slot: a target vibe and its
// probability quantized to 8 bits (0-255 for 0.0-1.0).
type CompiledEntry struct {
	Target Vibe
	Prob   uint8
}

// Probability dequantizes the entry's 8-bit probability
func (e CompiledEntry) Probability() float64 {
	return float64(e.Prob) / 255.0
}

// LookupTable maps (activity class, minute-of-day) to the best-matching
// rule's compiled entry. Built once by Compile and immutable afterwards, so
// concurrent readers need no locking.
type LookupTable struct {
	entries [tableSize]CompiledEntry
}

func tableIndex(activity ActivityClass, minute int) int {
	return (int(activity)<<minuteBits | (minute & minuteMask)) & indexMask
}

// Lookup returns the compiled entry for the given activity class and
// minute-of-day. The second return value is false when no rule claimed the
// slot. Out-of-range minutes are masked, never trapped.
func (t *LookupTable) Lookup(activity ActivityClass, minute int) (CompiledEntry, bool) {
	entry := t.entries[tableIndex(activity, minute)]
	if entry.Target == emptyTarget {
		return CompiledEntry{Target: VibeUnknown}, false
	}
	return entry, true
}

// Compile flattens an ordered rule set into a lookup table.
//
// Rules are applied highest priority first (likelihood, then narrower
// specificity break ties), and the first rule to reach a slot owns it. Each
// written probability is the rule's base likelihood adjusted for window
// specificity, dampened near window edges, and quantized to 8 bits.
//
// The input slice is not modified and no reference to it is retained; the
// returned table is self-contained and immutable.
func Compile(rules []Rule) *LookupTable {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		if ordered[i].Likelihood != ordered[j].Likelihood {
			return ordered[i].Likelihood > ordered[j].Likelihood
		}
		return ordered[i].Specificity() < ordered[j].Specificity()
	})

	table := &LookupTable{}
	for i := range table.entries {
		table.entries[i].Target = emptyTarget
	}

	for _, rule := range ordered {
		for activity := ActivityClass(0); activity < activityCount; activity++ {
			if !rule.Activities.Contains(activity) {
				continue
			}
			for _, window := range rule.Windows {
				base := rule.Likelihood * specificityFactor(window.Width())
				for minute := window.Start; minute < window.End; minute++ {
					idx := tableIndex(activity, minute)
					if table.entries[idx].Target != emptyTarget {
						continue
					}
					table.entries[idx] = CompiledEntry{
						Target: rule.Target,
						Prob:   quantize(base * edgeFactor(minute, window)),
					}
				}
			}
		}
	}

	return table
}

// specificityFactor adjusts a rule's base likelihood by window width: narrow
// 10-60 minute windows are precise, well-evidenced claims and get a mild
// boost; windows wider than half a day are low-specificity catch-alls and
// get a mild penalty.
func specificityFactor(width int) float64 {
	switch {
	case width >= 10 && width <= 60:
		return 1.1
	case width > 720:
		return 0.9
	default:
		return 1.0
	}
}

// edgeFactor ramps probability from 80% at a window boundary to 100% once
// the minute is min(10% of width, 15 min) inside it. State transitions
// rarely happen exactly on a clock boundary.
func edgeFactor(minute int, window TimeWindow) float64 {
	margin := math.Min(float64(window.Width())*0.10, 15.0)
	if margin <= 0 {
		return 1.0
	}
	dist := float64(min(minute-window.Start, window.End-1-minute))
	if dist >= margin {
		return 1.0
	}
	return 0.8 + 0.2*dist/margin
}

// quantize converts a probability to its 8-bit table representation,
// saturating into [0, 255]
func quantize(p float64) uint8 {
	q := math.Round(math.Min(p, 1.0) * 255.0)
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}
