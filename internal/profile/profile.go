package profile

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/saaga0h/vibe-platform/internal/vibe"
)

// vectorOrder fixes the vector dimension each vibe occupies. Stored vectors
// depend on this order; never reorder without migrating the table.
var vectorOrder = []vibe.Vibe{
	vibe.VibeSleep,
	vibe.VibeMorningRoutine,
	vibe.VibeEnergetic,
	vibe.VibeCommute,
	vibe.VibeFocus,
	vibe.VibeChill,
	vibe.VibeUnknown,
}

// Dimensions is the size of a day profile vector
const Dimensions = 7

// DayProfile summarizes one device-day as the share of labeled samples that
// landed on each vibe. Days with similar rhythms sit close together in
// vector space, which is what SimilarDays exploits.
type DayProfile struct {
	ID        uuid.UUID
	Device    string
	Day       time.Time // local midnight of the profiled day
	Vector    pgvector.Vector
	Samples   int
	CreatedAt time.Time
}

// FromCounts builds a day profile from per-vibe sample counts, keyed by vibe
// name as stored in training labels. Counts for unrecognized names fold into
// the unknown dimension.
func FromCounts(device string, day time.Time, counts map[string]int) *DayProfile {
	dims := make([]float32, Dimensions)
	total := 0
	for _, count := range counts {
		total += count
	}

	if total > 0 {
		for name, count := range counts {
			dims[dimensionFor(vibe.ParseVibe(name))] += float32(count) / float32(total)
		}
	}

	return &DayProfile{
		ID:        uuid.New(),
		Device:    device,
		Day:       day,
		Vector:    pgvector.NewVector(dims),
		Samples:   total,
		CreatedAt: time.Now().UTC(),
	}
}

func dimensionFor(v vibe.Vibe) int {
	for i, candidate := range vectorOrder {
		if candidate == v {
			return i
		}
	}
	return Dimensions - 1 // unknown
}
