package moment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/saaga0h/vibe-platform/pkg/config"
	"github.com/saaga0h/vibe-platform/pkg/redis"
)

const (
	// TTL for hot state in Redis (24 hours)
	sampleDataTTL = 24 * time.Hour

	// Max age for sorted set entries (24 hours in milliseconds)
	maxSampleAge = 24 * 60 * 60 * 1000
)

// Storage handles Redis storage of activity samples and resolved vibes
type Storage struct {
	redis            redis.Client
	maxSampleHistory int
	logger           *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Storage {
	return &Storage{
		redis:            redisClient,
		maxSampleHistory: cfg.MaxSampleHistory,
		logger:           logger,
	}
}

// storedSample is the JSON shape kept in the sample history sorted set
type storedSample struct {
	Timestamp   string  `json:"timestamp"`
	Motion      string  `json:"motion"`
	Confidence  string  `json:"confidence"`
	Speed       float64 `json:"speed"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	CollectedAt int64   `json:"collected_at"`
}

// StoreSample appends an activity sample to the device's history sorted set
// and prunes entries older than the retention window
func (s *Storage) StoreSample(ctx context.Context, sample *ActivitySample) error {
	key := redis.ActivitySampleKey(sample.Device)

	data := storedSample{
		Timestamp:   sample.Timestamp.Format(time.RFC3339Nano),
		Motion:      sample.Motion.String(),
		Confidence:  sample.Confidence.String(),
		Speed:       sample.Speed,
		Distance:    sample.Distance,
		Duration:    sample.Duration,
		CollectedAt: sample.CollectedAt,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal activity sample: %w", err)
	}

	score := float64(sample.CollectedAt)
	if err := s.redis.ZAdd(ctx, key, score, jsonData); err != nil {
		return fmt.Errorf("failed to add sample to sorted set: %w", err)
	}

	// Prune by age, then cap cardinality so a misbehaving producer cannot
	// grow the set without bound inside the retention window.
	cutoff := sample.CollectedAt - maxSampleAge
	if err := s.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("Failed to prune sample history", "device", sample.Device, "error", err)
	}
	if s.maxSampleHistory > 0 {
		if err := s.redis.ZRemRangeByRank(ctx, key, 0, int64(-s.maxSampleHistory-1)); err != nil {
			s.logger.Warn("Failed to cap sample history", "device", sample.Device, "error", err)
		}
	}

	if err := s.redis.Expire(ctx, key, sampleDataTTL); err != nil {
		s.logger.Warn("Failed to refresh sample TTL", "device", sample.Device, "error", err)
	}

	return nil
}

// StoreResolution records the device's current vibe in a hash and appends it
// to the vibe history sorted set
func (s *Storage) StoreResolution(ctx context.Context, device string, res Resolution, at time.Time) error {
	stateKey := redis.VibeStateKey(device)

	fields := map[string]string{
		"vibe":        res.Vibe.String(),
		"probability": strconv.FormatFloat(res.Probability, 'f', 4, 64),
		"source":      res.Source,
		"updated_at":  at.UTC().Format(time.RFC3339Nano),
	}
	for field, value := range fields {
		if err := s.redis.HSet(ctx, stateKey, field, value); err != nil {
			return fmt.Errorf("failed to update vibe state: %w", err)
		}
	}
	if err := s.redis.Expire(ctx, stateKey, sampleDataTTL); err != nil {
		s.logger.Warn("Failed to refresh vibe state TTL", "device", device, "error", err)
	}

	historyKey := redis.VibeHistoryKey(device)
	entry, err := json.Marshal(HistoryEntry{
		Vibe:        res.Vibe.String(),
		Probability: res.Probability,
		Source:      res.Source,
		Timestamp:   at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal vibe history entry: %w", err)
	}

	score := float64(at.UnixMilli())
	if err := s.redis.ZAdd(ctx, historyKey, score, entry); err != nil {
		return fmt.Errorf("failed to append vibe history: %w", err)
	}

	cutoff := at.UnixMilli() - maxSampleAge
	if err := s.redis.ZRemRangeByScore(ctx, historyKey, "-inf", strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("Failed to prune vibe history", "device", device, "error", err)
	}
	if err := s.redis.Expire(ctx, historyKey, sampleDataTTL); err != nil {
		s.logger.Warn("Failed to refresh vibe history TTL", "device", device, "error", err)
	}

	return nil
}

// CurrentVibe returns the device's stored current vibe name. The second
// return value is false when the device has no stored state yet.
func (s *Storage) CurrentVibe(ctx context.Context, device string) (string, bool) {
	name, err := s.redis.HGet(ctx, redis.VibeStateKey(device), "vibe")
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// HistoryEntry is one resolved vibe read back from the history sorted set
type HistoryEntry struct {
	Vibe        string  `json:"vibe"`
	Probability float64 `json:"probability"`
	Source      string  `json:"source"`
	Timestamp   string  `json:"timestamp"`
}

// Time parses the entry's timestamp
func (e HistoryEntry) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// RecentResolutions returns up to limit history entries at or before the
// given time, newest first. Unparseable entries are skipped.
func (s *Storage) RecentResolutions(ctx context.Context, device string, before time.Time, limit int64) ([]HistoryEntry, error) {
	members, err := s.redis.ZRevRangeByScoreWithScores(ctx, redis.VibeHistoryKey(device), float64(before.UnixMilli()), 0, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read vibe history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(members))
	for _, m := range members {
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(m.Member), &entry); err != nil {
			s.logger.Warn("Skipping malformed vibe history entry", "device", device, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
