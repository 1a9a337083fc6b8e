package moment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/saaga0h/vibe-platform/internal/vibe"
	"github.com/saaga0h/vibe-platform/pkg/config"
)

// Resolution is a resolved vibe for one moment, from either the learned
// model or the deterministic rule engine.
type Resolution struct {
	Vibe        vibe.Vibe
	Probability float64
	Source      string // "model" or "rules"
}

// ModelRequest is the feature payload sent to the learned model service
type ModelRequest struct {
	Device        string  `json:"device"`
	Activity      string  `json:"activity"`
	MinuteOfDay   int     `json:"minute_of_day"`
	Weekend       bool    `json:"weekend"`
	Confidence    string  `json:"confidence"`
	Speed         float64 `json:"speed"`
	Distance      float64 `json:"distance"`
	Duration      float64 `json:"duration"`
	PhysicsForced bool    `json:"physics_forced"`
}

// ModelResponse is the learned model's answer
type ModelResponse struct {
	Vibe        string  `json:"vibe"`
	Probability float64 `json:"probability"`
}

// ClassifyWithModel asks the learned model service for a vibe. Any failure
// (transport, status, malformed output, unknown vibe) surfaces as an error
// so the caller falls back to the deterministic engine.
func ClassifyWithModel(
	ctx context.Context,
	device string,
	ectx vibe.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (Resolution, error) {
	req := ModelRequest{
		Device:        device,
		Activity:      ectx.Activity.String(),
		MinuteOfDay:   ectx.Minute,
		Weekend:       ectx.Weekend,
		Confidence:    ectx.Confidence.String(),
		Speed:         ectx.Speed,
		Distance:      ectx.Distance,
		Duration:      ectx.Duration,
		PhysicsForced: ectx.PhysicsForced,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to marshal model request: %w", err)
	}

	timeout := time.Duration(cfg.ModelTimeoutSec) * time.Second
	httpCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(httpCtx, "POST", cfg.ModelEndpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Resolution{}, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Resolution{}, fmt.Errorf("model returned status %d: %s", resp.StatusCode, string(body))
	}

	var modelResp ModelResponse
	if err := json.NewDecoder(resp.Body).Decode(&modelResp); err != nil {
		return Resolution{}, fmt.Errorf("failed to decode model response: %w", err)
	}

	resolved := vibe.ParseVibe(modelResp.Vibe)
	if resolved == vibe.VibeUnknown && modelResp.Vibe != "unknown" {
		logger.Warn("Model returned unrecognized vibe", "device", device, "vibe", modelResp.Vibe)
		return Resolution{}, fmt.Errorf("model returned unrecognized vibe %q", modelResp.Vibe)
	}

	// Clamp probability; the model occasionally overshoots on freshly
	// retrained checkpoints.
	probability := modelResp.Probability
	if probability < 0.01 {
		probability = 0.01
	}
	if probability > 0.99 {
		probability = 0.99
	}

	logger.Debug("Model classification complete",
		"device", device, "vibe", resolved, "probability", probability)

	return Resolution{
		Vibe:        resolved,
		Probability: probability,
		Source:      "model",
	}, nil
}
