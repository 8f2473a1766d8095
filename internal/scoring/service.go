// Package scoring wires the baseline registry to alert emission. Every
// observed sample is scored against its signal's rolling baseline and,
// when the absolute z-score crosses the configured threshold, an alert
// event is published to the queue.
package scoring

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/config"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
	"github.com/driftwatch/driftd/internal/queue"
	"github.com/driftwatch/driftd/internal/utils"
)

// Result is the outcome of scoring one sample
type Result struct {
	Score   float64
	Trend   baseline.Trend
	Alerted bool
	Samples int
}

// Service scores incoming samples and publishes alert events
type Service struct {
	registry  *baseline.Registry
	publisher queue.Publisher
	cfg       config.AlertConfig
	logger    *logging.Logger
}

// NewService creates a scoring service. The publisher may be nil when
// alert emission is disabled.
func NewService(registry *baseline.Registry, publisher queue.Publisher, cfg config.AlertConfig, logger *logging.Logger) *Service {
	return &Service{
		registry:  registry,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Registry returns the underlying baseline registry for read paths
func (s *Service) Registry() *baseline.Registry {
	return s.registry
}

// Observe records a sample for a signal, scores it against the window
// including that sample, and emits an alert when the threshold is crossed.
func (s *Service) Observe(ctx context.Context, signal string, value float64, ts time.Time) (Result, error) {
	score, trend, err := s.registry.ObserveAndScore(signal, value, ts)
	if err != nil {
		return Result{}, err
	}

	count, err := s.registry.SampleCount(signal)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Score:   score,
		Trend:   trend,
		Samples: count,
	}

	if s.shouldAlert(score) {
		result.Alerted = true
		s.publishAlert(ctx, signal, value, score, trend, ts)
	}

	return result, nil
}

func (s *Service) shouldAlert(score float64) bool {
	return s.cfg.Enabled && s.publisher != nil && math.Abs(score) >= s.cfg.Threshold
}

// publishAlert emits an alert event. Publish failures are logged, not
// propagated: the sample is already recorded and the caller's response
// should not depend on queue availability.
func (s *Service) publishAlert(ctx context.Context, signal string, value, score float64, trend baseline.Trend, ts time.Time) {
	event := models.AlertEvent{
		ID:        uuid.New().String(),
		Signal:    signal,
		Value:     value,
		Score:     score,
		Threshold: s.cfg.Threshold,
		Trend:     string(trend),
		Time:      ts,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to encode alert event",
			"signal", signal,
			"error", err,
		)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, s.cfg.Subject, data); err != nil {
		s.logger.Error("Failed to publish alert event",
			"signal", signal,
			"subject", s.cfg.Subject,
			"error", err,
		)
		return
	}

	s.logger.Info("Anomaly alert published",
		"alert_id", event.ID,
		"signal", signal,
		"value", value,
		"score", score,
		"threshold", s.cfg.Threshold,
		"trend", string(trend),
	)
}
