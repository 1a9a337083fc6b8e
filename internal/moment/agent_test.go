package moment

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/saaga0h/vibe-platform/internal/profile"
	"github.com/saaga0h/vibe-platform/internal/vibe"
	"github.com/saaga0h/vibe-platform/pkg/config"
	"github.com/saaga0h/vibe-platform/pkg/mqtt"
)

func newTestAgent(t *testing.T, offset int64) *Agent {
	t.Helper()
	cfg := config.NewConfig()
	cfg.UTCOffsetSeconds = offset
	cfg.ModelEndpoint = "" // deterministic engine only

	agent, err := NewAgent(nil, nil, nil, cfg, testLogger())
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	return agent
}

func TestResolveSample_NightSleep(t *testing.T) {
	agent := newTestAgent(t, 0)

	sample := &ActivitySample{
		Device:     "phone-1",
		Motion:     vibe.MotionStationary,
		Confidence: vibe.ConfidenceHigh,
		Duration:   3600,
		Timestamp:  time.Date(2024, time.January, 3, 3, 0, 0, 0, time.UTC),
	}

	ectx, res := agent.ResolveSample(sample)

	if ectx.Minute != 180 {
		t.Errorf("expected minute 180, got %d", ectx.Minute)
	}
	if res.Vibe != vibe.VibeSleep {
		t.Errorf("expected sleep, got %s", res.Vibe)
	}
	if res.Source != "rules" {
		t.Errorf("expected rules source, got %s", res.Source)
	}
}

func TestResolveSample_OffsetShiftsLocalDay(t *testing.T) {
	// 22:00 UTC with a +5h offset is 03:00 local: sleep, not evening chill.
	agent := newTestAgent(t, 5*3600)

	sample := &ActivitySample{
		Device:     "phone-1",
		Motion:     vibe.MotionStationary,
		Confidence: vibe.ConfidenceHigh,
		Duration:   3600,
		Timestamp:  time.Date(2024, time.January, 2, 22, 0, 0, 0, time.UTC),
	}

	ectx, res := agent.ResolveSample(sample)

	if ectx.Minute != 180 {
		t.Errorf("expected local minute 180, got %d", ectx.Minute)
	}
	if res.Vibe != vibe.VibeSleep {
		t.Errorf("expected sleep at local 03:00, got %s", res.Vibe)
	}
}

func TestResolveSample_PhysicsOverrideFlows(t *testing.T) {
	agent := newTestAgent(t, 0)

	// Sensor says walking at 30 m/s on a weekday morning: forced automotive,
	// commute.
	sample := &ActivitySample{
		Device:     "phone-1",
		Motion:     vibe.MotionWalking,
		Confidence: vibe.ConfidenceLow,
		Speed:      30,
		Distance:   9000,
		Duration:   300,
		Timestamp:  time.Date(2024, time.January, 3, 8, 30, 0, 0, time.UTC),
	}

	ectx, res := agent.ResolveSample(sample)

	if ectx.Activity != vibe.ActivityAutomotive {
		t.Errorf("expected automotive, got %s", ectx.Activity)
	}
	if !ectx.PhysicsForced {
		t.Error("expected physics-forced flag to flow into the context")
	}
	if res.Vibe != vibe.VibeCommute {
		t.Errorf("expected commute, got %s", res.Vibe)
	}
}

func activityMessage(device, motion, timestamp string, speed, distance, duration float64) *fakeMessage {
	payload, _ := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"motion":     motion,
			"confidence": "high",
			"speed":      speed,
			"distance":   distance,
			"duration":   duration,
			"timestamp":  timestamp,
		},
	})
	return &fakeMessage{topic: mqtt.RawActivityTopic(device), payload: payload}
}

func TestHandleMessage_PublishesTransition(t *testing.T) {
	mq := &fakeMQTT{}
	cfg := config.NewConfig()

	agent, err := NewAgent(mq, newFakeRedis(), nil, cfg, testLogger())
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	ctx := context.Background()

	// Asleep since 03:00, then on the road at 08:30.
	agent.handleMessage(ctx, activityMessage("phone-1", "stationary", "2024-01-03T03:00:00Z", 0, 0, 3600))
	agent.handleMessage(ctx, activityMessage("phone-1", "automotive", "2024-01-03T08:30:00Z", 10, 3000, 300))

	statuses := mq.byTopic(mqtt.VibeStatusTopic("phone-1"))
	if len(statuses) != 2 {
		t.Fatalf("expected 2 status messages, got %d", len(statuses))
	}

	transitions := mq.byTopic(mqtt.VibeTransitionTopic("phone-1"))
	if len(transitions) != 1 {
		t.Fatalf("expected 1 transition event, got %d", len(transitions))
	}

	var event struct {
		From            string  `json:"from"`
		To              string  `json:"to"`
		FromDurationSec float64 `json:"from_duration_seconds"`
	}
	if err := json.Unmarshal(transitions[0].Payload, &event); err != nil {
		t.Fatalf("failed to parse transition payload: %v", err)
	}
	if event.From != "sleep" || event.To != "commute" {
		t.Errorf("expected sleep -> commute, got %s -> %s", event.From, event.To)
	}
	if event.FromDurationSec != 19800 {
		t.Errorf("expected 5.5h hold (19800s), got %f", event.FromDurationSec)
	}
}

func TestHandleMessage_NoTransitionWithinSameVibe(t *testing.T) {
	mq := &fakeMQTT{}
	cfg := config.NewConfig()

	agent, err := NewAgent(mq, newFakeRedis(), nil, cfg, testLogger())
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	ctx := context.Background()

	agent.handleMessage(ctx, activityMessage("phone-1", "stationary", "2024-01-03T03:00:00Z", 0, 0, 3600))
	agent.handleMessage(ctx, activityMessage("phone-1", "stationary", "2024-01-03T03:30:00Z", 0, 0, 5400))

	if transitions := mq.byTopic(mqtt.VibeTransitionTopic("phone-1")); len(transitions) != 0 {
		t.Errorf("expected no transition while the vibe holds, got %d", len(transitions))
	}
}

type profilerCall struct {
	device   string
	dayStart time.Time
}

type recordingProfiler struct {
	calls []profilerCall
}

func (r *recordingProfiler) BuildAndStore(ctx context.Context, labels profile.LabelCounter, device string, dayStart time.Time) (*profile.DayProfile, error) {
	r.calls = append(r.calls, profilerCall{device: device, dayStart: dayStart})
	return &profile.DayProfile{Device: device, Day: dayStart, Samples: 42}, nil
}

func TestHandleMessage_DayRolloverBuildsProfile(t *testing.T) {
	pg := &fakePG{}
	cfg := config.NewConfig()

	agent, err := NewAgent(&fakeMQTT{}, newFakeRedis(), pg, cfg, testLogger())
	if err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}
	profiler := &recordingProfiler{}
	agent.profiles = profiler
	ctx := context.Background()

	agent.handleMessage(ctx, activityMessage("phone-1", "stationary", "2024-01-03T23:30:00Z", 0, 0, 3600))
	if len(profiler.calls) != 0 {
		t.Fatalf("expected no profile build before midnight crossing, got %d", len(profiler.calls))
	}

	agent.handleMessage(ctx, activityMessage("phone-1", "stationary", "2024-01-04T00:30:00Z", 0, 0, 5400))
	if len(profiler.calls) != 1 {
		t.Fatalf("expected exactly 1 profile build after midnight crossing, got %d", len(profiler.calls))
	}

	call := profiler.calls[0]
	wantDay := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	if call.device != "phone-1" || !call.dayStart.Equal(wantDay) {
		t.Errorf("expected build for phone-1 on %s, got %s on %s",
			wantDay.Format("2006-01-02"), call.device, call.dayStart.Format("2006-01-02"))
	}

	// Both samples export training labels with null model columns: the model
	// endpoint is unset, so only the engine answered.
	var inserts []execCall
	for _, call := range pg.execs {
		if strings.Contains(call.Query, "training_labels") {
			inserts = append(inserts, call)
		}
	}
	if len(inserts) != 2 {
		t.Fatalf("expected 2 label inserts, got %d", len(inserts))
	}
	modelVibe, ok := inserts[0].Args[14].(sql.NullString)
	if !ok || modelVibe.Valid {
		t.Errorf("expected null model_vibe when the model did not answer, got %v", inserts[0].Args[14])
	}
}

func TestLocalDayStart(t *testing.T) {
	tests := []struct {
		name   string
		at     time.Time
		offset int64
		want   time.Time
	}{
		{
			name:   "utc",
			at:     time.Date(2024, time.January, 3, 23, 30, 0, 0, time.UTC),
			offset: 0,
			want:   time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "positive offset crosses midnight",
			at:     time.Date(2024, time.January, 3, 23, 30, 0, 0, time.UTC),
			offset: 3600,
			want:   time.Date(2024, time.January, 3, 23, 0, 0, 0, time.UTC),
		},
		{
			name:   "negative offset falls back a day",
			at:     time.Date(2024, time.January, 3, 1, 0, 0, 0, time.UTC),
			offset: -2 * 3600,
			want:   time.Date(2024, time.January, 2, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localDayStart(tt.at.Unix(), tt.offset)
			if !got.Equal(tt.want) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
