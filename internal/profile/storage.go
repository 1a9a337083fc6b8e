package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/saaga0h/vibe-platform/pkg/postgres"
)

// LabelCounter supplies per-vibe sample counts for one device-day.
// moment.LabelStore satisfies it.
type LabelCounter interface {
	VibeMinutesForDay(ctx context.Context, device string, dayStart, dayEnd time.Time) (map[string]int, error)
}

// Storage provides persistent storage for day profiles using
// PostgreSQL + pgvector
type Storage struct {
	pg postgres.Client
}

// NewStorage creates a new profile storage instance
func NewStorage(pg postgres.Client) *Storage {
	return &Storage{pg: pg}
}

// Upsert stores a day profile, replacing any existing profile for the same
// device and day
func (s *Storage) Upsert(ctx context.Context, profile *DayProfile) error {
	query := `
		INSERT INTO day_profiles (
			id, device, day, profile_vector, samples, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (device, day) DO UPDATE SET
			profile_vector = EXCLUDED.profile_vector,
			samples = EXCLUDED.samples,
			created_at = EXCLUDED.created_at
	`

	_, err := s.pg.Exec(ctx, query,
		profile.ID,
		profile.Device,
		profile.Day,
		profile.Vector,
		profile.Samples,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day profile: %w", err)
	}

	return nil
}

// SimilarDay is a stored profile with its cosine distance to the query
// vector
type SimilarDay struct {
	DayProfile
	Distance float64
}

// SimilarDays returns the stored days whose vibe distribution is closest to
// the given vector, nearest first
func (s *Storage) SimilarDays(ctx context.Context, device string, vector pgvector.Vector, limit int) ([]SimilarDay, error) {
	query := `
		SELECT id, device, day, profile_vector, samples, created_at,
		       profile_vector <=> $2 AS distance
		FROM day_profiles
		WHERE device = $1
		ORDER BY profile_vector <=> $2
		LIMIT $3
	`

	rows, err := s.pg.Query(ctx, query, device, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar days: %w", err)
	}
	defer rows.Close()

	var results []SimilarDay
	for rows.Next() {
		var day SimilarDay
		if err := rows.Scan(
			&day.ID,
			&day.Device,
			&day.Day,
			&day.Vector,
			&day.Samples,
			&day.CreatedAt,
			&day.Distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan similar day: %w", err)
		}
		results = append(results, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate similar days: %w", err)
	}

	return results, nil
}

// BuildAndStore builds the profile for one device-day from training labels
// and upserts it
func (s *Storage) BuildAndStore(ctx context.Context, labels LabelCounter, device string, dayStart time.Time) (*DayProfile, error) {
	counts, err := labels.VibeMinutesForDay(ctx, device, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count labels for %s: %w", dayStart.Format("2006-01-02"), err)
	}

	profile := FromCounts(device, dayStart, counts)
	if err := s.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}
