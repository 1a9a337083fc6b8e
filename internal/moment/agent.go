package moment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saaga0h/vibe-platform/internal/daylight"
	"github.com/saaga0h/vibe-platform/internal/profile"
	"github.com/saaga0h/vibe-platform/internal/vibe"
	"github.com/saaga0h/vibe-platform/pkg/config"
	"github.com/saaga0h/vibe-platform/pkg/mqtt"
	"github.com/saaga0h/vibe-platform/pkg/postgres"
	"github.com/saaga0h/vibe-platform/pkg/redis"
)

// transitionLookback bounds how much vibe history a transition event scans
// to find where the ending vibe began.
const transitionLookback = 50

const secondsPerDay = 86400

// dayProfiler builds and persists one device-day profile. profile.Storage
// implements it.
type dayProfiler interface {
	BuildAndStore(ctx context.Context, labels profile.LabelCounter, device string, dayStart time.Time) (*profile.DayProfile, error)
}

// Agent resolves activity samples into vibes. The learned model answers when
// it can; the deterministic rule engine backstops it and produces every
// training label either way.
type Agent struct {
	mqtt      mqtt.Client
	redis     redis.Client
	cfg       *config.Config
	logger    *slog.Logger
	processor *Processor
	storage   *Storage
	labels    *LabelStore
	profiles  dayProfiler
	table     *vibe.LookupTable

	mu      sync.Mutex
	lastDay map[string]time.Time
}

// NewAgent creates a new vibe agent with the given dependencies. pgClient
// may be nil, which disables training-label export and day profiles.
func NewAgent(
	mqttClient mqtt.Client,
	redisClient redis.Client,
	pgClient postgres.Client,
	cfg *config.Config,
	logger *slog.Logger,
) (*Agent, error) {
	table, err := buildTable(cfg, logger)
	if err != nil {
		return nil, err
	}

	agent := &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		cfg:       cfg,
		logger:    logger,
		processor: NewProcessor(logger),
		storage:   NewStorage(redisClient, cfg, logger),
		table:     table,
		lastDay:   make(map[string]time.Time),
	}
	if pgClient != nil {
		agent.labels = NewLabelStore(pgClient)
		agent.profiles = profile.NewStorage(pgClient)
	}

	return agent, nil
}

// buildTable compiles the rule table once at startup: the configured YAML
// override when present, the shipped rule set otherwise
func buildTable(cfg *config.Config, logger *slog.Logger) (*vibe.LookupTable, error) {
	if cfg.RuleSetPath == "" {
		return vibe.DefaultTable(), nil
	}

	rules, err := vibe.LoadRules(cfg.RuleSetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule set: %w", err)
	}
	logger.Info("Loaded rule set override", "path", cfg.RuleSetPath, "rules", len(rules))
	return vibe.Compile(rules), nil
}

// sampleTopics returns the configured subscription patterns, defaulting to
// the platform's raw activity topic
func (a *Agent) sampleTopics() []string {
	if len(a.cfg.SampleTopics) > 0 {
		return a.cfg.SampleTopics
	}
	return []string{mqtt.TopicRawActivity}
}

// Start connects the agent and begins resolving vibes
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting vibe agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	topics := a.sampleTopics()
	for _, topic := range topics {
		if err := a.mqtt.Subscribe(topic, 1, func(msg mqtt.Message) {
			a.handleMessage(ctx, msg)
		}); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	a.logger.Info("Vibe agent started", "topics", topics)

	<-ctx.Done()
	a.logger.Info("Vibe agent stopping")

	return nil
}

// Stop gracefully stops the vibe agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping vibe agent")

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Vibe agent stopped")
	return nil
}

// handleMessage runs the full pipeline for one activity sample
func (a *Agent) handleMessage(ctx context.Context, msg mqtt.Message) {
	sample, err := a.processor.ParseMessage(msg.Topic(), msg.Payload())
	if err != nil {
		a.logger.Warn("Dropping unparseable activity message", "topic", msg.Topic(), "error", err)
		return
	}

	ectx, engine := a.ResolveSample(sample)
	published, model := a.classify(ctx, sample, ectx, engine)

	previous, hasPrevious := a.storage.CurrentVibe(ctx, sample.Device)

	if err := a.publish(sample.Device, published, sample.Timestamp); err != nil {
		a.logger.Error("Failed to publish vibe status", "device", sample.Device, "error", err)
	}
	if hasPrevious && previous != published.Vibe.String() {
		a.publishTransition(ctx, sample.Device, previous, published, sample.Timestamp)
	}

	if err := a.storage.StoreSample(ctx, sample); err != nil {
		a.logger.Warn("Failed to store activity sample", "device", sample.Device, "error", err)
	}
	if err := a.storage.StoreResolution(ctx, sample.Device, published, sample.Timestamp); err != nil {
		a.logger.Warn("Failed to store vibe resolution", "device", sample.Device, "error", err)
	}

	if a.labels != nil {
		sun := daylight.At(sample.Timestamp, a.cfg.Latitude, a.cfg.Longitude)
		label := BuildLabel(sample, ectx, engine, model, sun)
		if err := a.labels.Insert(ctx, label); err != nil {
			a.logger.Warn("Failed to export training label", "device", sample.Device, "error", err)
		}
	}

	a.rollupOnDayChange(ctx, sample.Device, sample.Timestamp)
}

// ResolveSample runs the deterministic pipeline: physics classification,
// context extraction, table evaluation. Pure and reproducible; this is the
// resolution training labels are built from.
func (a *Agent) ResolveSample(sample *ActivitySample) (vibe.Context, Resolution) {
	epoch := sample.Timestamp.Unix()
	class, forced := vibe.ClassifyActivity(sample.Motion, sample.Speed, sample.Distance, sample.Duration)

	ectx := vibe.Context{
		Activity:      class,
		Minute:        vibe.MinuteOfDay(epoch, a.cfg.UTCOffsetSeconds),
		Confidence:    sample.Confidence,
		Speed:         sample.Speed,
		Distance:      sample.Distance,
		Duration:      sample.Duration,
		Weekend:       vibe.IsWeekend(epoch, a.cfg.UTCOffsetSeconds),
		PhysicsForced: forced,
	}

	state, prob := a.table.Evaluate(ectx)
	return ectx, Resolution{Vibe: state, Probability: prob, Source: "rules"}
}

// classify picks the answer to publish: the learned model when it responds,
// the deterministic engine otherwise. The second return value is the model's
// resolution when one was obtained, nil otherwise.
func (a *Agent) classify(ctx context.Context, sample *ActivitySample, ectx vibe.Context, engine Resolution) (Resolution, *Resolution) {
	if a.cfg.ModelEndpoint == "" {
		return engine, nil
	}

	res, err := ClassifyWithModel(ctx, sample.Device, ectx, a.cfg, a.logger)
	if err != nil {
		a.logger.Warn("Model unavailable, using rule engine",
			"device", sample.Device, "error", err)
		return engine, nil
	}
	return res, &res
}

// vibeStatus is the published wire shape of a resolved vibe
type vibeStatus struct {
	Device      string  `json:"device"`
	Vibe        string  `json:"vibe"`
	Probability float64 `json:"probability"`
	Source      string  `json:"source"`
	Timestamp   string  `json:"timestamp"`
}

func (a *Agent) publish(device string, res Resolution, at time.Time) error {
	payload, err := json.Marshal(vibeStatus{
		Device:      device,
		Vibe:        res.Vibe.String(),
		Probability: res.Probability,
		Source:      res.Source,
		Timestamp:   at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal vibe status: %w", err)
	}

	topic := mqtt.VibeStatusTopic(device)
	if err := a.mqtt.Publish(topic, 1, true, payload); err != nil {
		return fmt.Errorf("failed to publish vibe status: %w", err)
	}

	a.logger.Debug("Published vibe status",
		"device", device, "vibe", res.Vibe, "probability", res.Probability, "source", res.Source)
	return nil
}

// vibeTransition is the published wire shape of a vibe change event
type vibeTransition struct {
	Device          string  `json:"device"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	Probability     float64 `json:"probability"`
	FromDurationSec float64 `json:"from_duration_seconds"`
	Timestamp       string  `json:"timestamp"`
}

// publishTransition emits a change event when the resolved vibe differs from
// the stored one, including how long the ending vibe had held based on the
// stored history.
func (a *Agent) publishTransition(ctx context.Context, device, from string, res Resolution, at time.Time) {
	event := vibeTransition{
		Device:      device,
		From:        from,
		To:          res.Vibe.String(),
		Probability: res.Probability,
		Timestamp:   at.UTC().Format(time.RFC3339Nano),
	}

	// History still holds only the ending vibe's entries at this point; the
	// new resolution is stored after the event is published.
	entries, err := a.storage.RecentResolutions(ctx, device, at, transitionLookback)
	if err != nil {
		a.logger.Warn("Failed to read history for transition", "device", device, "error", err)
	} else {
		if since, ok := streakStart(entries, from); ok {
			event.FromDurationSec = at.Sub(since).Seconds()
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		a.logger.Error("Failed to marshal vibe transition", "device", device, "error", err)
		return
	}
	if err := a.mqtt.Publish(mqtt.VibeTransitionTopic(device), 1, false, payload); err != nil {
		a.logger.Error("Failed to publish vibe transition", "device", device, "error", err)
		return
	}

	a.logger.Info("Vibe transition",
		"device", device, "from", from, "to", event.To, "held_seconds", event.FromDurationSec)
}

// streakStart walks newest-first history entries and returns the timestamp
// of the earliest contiguous entry carrying the given vibe
func streakStart(entries []HistoryEntry, name string) (time.Time, bool) {
	var start time.Time
	found := false
	for _, entry := range entries {
		if entry.Vibe != name {
			break
		}
		ts, err := entry.Time()
		if err != nil {
			break
		}
		start = ts
		found = true
	}
	return start, found
}

// rollupOnDayChange builds the finished day's profile when a device's
// samples cross local midnight. Requires label export; without Postgres
// there is nothing to aggregate.
func (a *Agent) rollupOnDayChange(ctx context.Context, device string, at time.Time) {
	if a.profiles == nil || a.labels == nil {
		return
	}

	day := localDayStart(at.Unix(), a.cfg.UTCOffsetSeconds)

	a.mu.Lock()
	previous, seen := a.lastDay[device]
	a.lastDay[device] = day
	a.mu.Unlock()

	if !seen || !day.After(previous) {
		return
	}

	built, err := a.profiles.BuildAndStore(ctx, a.labels, device, previous)
	if err != nil {
		a.logger.Warn("Failed to build day profile",
			"device", device, "day", previous.Format("2006-01-02"), "error", err)
		return
	}
	a.logger.Info("Built day profile",
		"device", device, "day", previous.Format("2006-01-02"), "samples", built.Samples)
}

// localDayStart returns the UTC instant at which the local day containing
// the timestamp began, under the fixed UTC offset
func localDayStart(epochSeconds, offsetSeconds int64) time.Time {
	local := epochSeconds + offsetSeconds
	day := local / secondsPerDay
	if local < 0 && local%secondsPerDay != 0 {
		day--
	}
	return time.Unix(day*secondsPerDay-offsetSeconds, 0).UTC()
}
