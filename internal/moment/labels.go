package moment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/vibe-platform/internal/daylight"
	"github.com/saaga0h/vibe-platform/internal/vibe"
	"github.com/saaga0h/vibe-platform/pkg/postgres"
)

// TrainingLabel is one exported training row. Vibe and Probability always
// carry the deterministic engine's answer: the engine is the reproducible
// ground-truth labeler the model retrains against. When the learned model
// also answered, its output is recorded alongside in the nullable Model*
// columns so retraining can measure drift against it.
type TrainingLabel struct {
	ID               uuid.UUID
	Device           string
	Timestamp        time.Time
	MinuteOfDay      int
	Weekend          bool
	Motion           string
	Activity         string
	PhysicsForced    bool
	Confidence       string
	Speed            float64
	Distance         float64
	Duration         float64
	Vibe             string
	Probability      float64
	ModelVibe        sql.NullString
	ModelProbability sql.NullFloat64
	SunAltitude      float64
	Daytime          bool
	GoldenHour       bool
	CreatedAt        time.Time
}

// LabelStore provides persistent storage for training labels in PostgreSQL
type LabelStore struct {
	pg postgres.Client
}

// NewLabelStore creates a new label store
func NewLabelStore(pg postgres.Client) *LabelStore {
	return &LabelStore{pg: pg}
}

// BuildLabel assembles a training label from a sample, its evaluation
// context, the engine's resolution, the model's resolution when one was
// obtained (nil otherwise), and the daylight snapshot
func BuildLabel(sample *ActivitySample, ectx vibe.Context, engine Resolution, model *Resolution, sun daylight.Snapshot) TrainingLabel {
	label := TrainingLabel{
		ID:            uuid.New(),
		Device:        sample.Device,
		Timestamp:     sample.Timestamp,
		MinuteOfDay:   ectx.Minute,
		Weekend:       ectx.Weekend,
		Motion:        sample.Motion.String(),
		Activity:      ectx.Activity.String(),
		PhysicsForced: ectx.PhysicsForced,
		Confidence:    sample.Confidence.String(),
		Speed:         sample.Speed,
		Distance:      sample.Distance,
		Duration:      sample.Duration,
		Vibe:          engine.Vibe.String(),
		Probability:   engine.Probability,
		SunAltitude:   sun.SunAltitude,
		Daytime:       sun.Daytime,
		GoldenHour:    sun.GoldenHour,
		CreatedAt:     time.Now().UTC(),
	}
	if model != nil {
		label.ModelVibe = sql.NullString{String: model.Vibe.String(), Valid: true}
		label.ModelProbability = sql.NullFloat64{Float64: model.Probability, Valid: true}
	}
	return label
}

// Insert stores a training label row
func (s *LabelStore) Insert(ctx context.Context, label TrainingLabel) error {
	query := `
		INSERT INTO training_labels (
			id, device, timestamp, minute_of_day, weekend,
			motion, activity, physics_forced, confidence,
			speed, distance, duration,
			vibe, probability, model_vibe, model_probability,
			sun_altitude, daytime, golden_hour, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := s.pg.Exec(ctx, query,
		label.ID,
		label.Device,
		label.Timestamp,
		label.MinuteOfDay,
		label.Weekend,
		label.Motion,
		label.Activity,
		label.PhysicsForced,
		label.Confidence,
		label.Speed,
		label.Distance,
		label.Duration,
		label.Vibe,
		label.Probability,
		label.ModelVibe,
		label.ModelProbability,
		label.SunAltitude,
		label.Daytime,
		label.GoldenHour,
		label.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert training label: %w", err)
	}

	return nil
}

// VibeMinutesForDay returns how many labeled samples landed on each vibe for
// a device during one local day. The profile builder turns these counts into
// a day vector.
func (s *LabelStore) VibeMinutesForDay(ctx context.Context, device string, dayStart, dayEnd time.Time) (map[string]int, error) {
	query := `
		SELECT vibe, COUNT(*)
		FROM training_labels
		WHERE device = $1
		  AND timestamp >= $2
		  AND timestamp < $3
		GROUP BY vibe
	`

	rows, err := s.pg.Query(ctx, query, device, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query vibe counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vibe count: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vibe counts: %w", err)
	}

	return counts, nil
}
