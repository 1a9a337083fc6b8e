package moment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/vibe-platform/internal/vibe"
)

// Processor handles parsing of raw activity sample messages
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

// ActivitySample is one parsed moment of the person's day: the raw motion
// label the sensor stack reported plus the physical measurements of the
// current activity segment.
type ActivitySample struct {
	Device      string
	Motion      vibe.MotionLabel
	Confidence  vibe.ConfidenceTier
	Speed       float64 // m/s
	Distance    float64 // meters, current segment
	Duration    float64 // seconds, current segment
	Timestamp   time.Time
	CollectedAt int64 // Unix milliseconds
}

// rawActivityPayload is the wire shape of an activity sample. Messages are
// wrapped in {"data": {...}} like every raw topic on the platform.
type rawActivityPayload struct {
	Data rawActivityData `json:"data"`
}

type rawActivityData struct {
	Motion     string  `json:"motion"`
	Confidence string  `json:"confidence"`
	Speed      float64 `json:"speed"`
	Distance   float64 `json:"distance"`
	Duration   float64 `json:"duration"`
	Timestamp  string  `json:"timestamp"`
}

// ParseMessage parses an MQTT activity message into a structured sample.
// Topic pattern: automation/raw/activity/{device}
func (p *Processor) ParseMessage(topic string, payload []byte) (*ActivitySample, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return nil, fmt.Errorf("invalid topic format: %s (expected at least 4 parts)", topic)
	}
	device := parts[3]

	var raw rawActivityPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		p.logger.Error("Failed to parse JSON payload", "topic", topic, "error", err)
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	// Sample timestamp defaults to receive time when the producer omits it.
	timestamp := time.Now().UTC()
	if raw.Data.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw.Data.Timestamp)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, raw.Data.Timestamp)
		}
		if err != nil {
			p.logger.Warn("Unparseable sample timestamp, using receive time",
				"topic", topic, "timestamp", raw.Data.Timestamp)
		} else {
			timestamp = parsed.UTC()
		}
	}

	sample := &ActivitySample{
		Device:      device,
		Motion:      vibe.ParseMotionLabel(raw.Data.Motion),
		Confidence:  vibe.ParseConfidenceTier(raw.Data.Confidence),
		Speed:       nonNegative(raw.Data.Speed),
		Distance:    nonNegative(raw.Data.Distance),
		Duration:    nonNegative(raw.Data.Duration),
		Timestamp:   timestamp,
		CollectedAt: time.Now().UnixMilli(),
	}

	p.logger.Debug("Parsed activity sample",
		"device", device,
		"motion", sample.Motion,
		"speed", sample.Speed)

	return sample, nil
}

// nonNegative floors sensor measurements at zero; negative speeds or
// distances are transport glitches, not physics
func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
