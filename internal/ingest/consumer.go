// Package ingest consumes sample messages from the queue and feeds them
// into the scoring service.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftwatch/driftd/internal/config"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/models"
	"github.com/driftwatch/driftd/internal/queue"
	"github.com/driftwatch/driftd/internal/scoring"
)

// Consumer subscribes to the sample subject and scores every message
type Consumer struct {
	subscriber queue.Subscriber
	scoring    *scoring.Service
	cfg        config.IngestConfig
	logger     *logging.Logger
	clock      func() time.Time
}

// NewConsumer creates a sample consumer
func NewConsumer(subscriber queue.Subscriber, scoringSvc *scoring.Service, cfg config.IngestConfig, logger *logging.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		scoring:    scoringSvc,
		cfg:        cfg,
		logger:     logger,
		clock:      time.Now,
	}
}

// Start subscribes to the configured sample subject
func (c *Consumer) Start() error {
	if err := c.subscriber.Subscribe(c.cfg.Subject, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.Subject, err)
	}

	c.logger.Info("Sample consumer started", "subject", c.cfg.Subject)
	return nil
}

// Stop unsubscribes from the sample subject
func (c *Consumer) Stop() error {
	if err := c.subscriber.Unsubscribe(c.cfg.Subject); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", c.cfg.Subject, err)
	}

	c.logger.Info("Sample consumer stopped", "subject", c.cfg.Subject)
	return nil
}

// handleMessage decodes and scores one sample message. Malformed and
// invalid samples are dropped (returning nil acks the message); retrying
// them would fail identically.
func (c *Consumer) handleMessage(data []byte) error {
	var msg models.SampleMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("Dropping malformed sample message",
			"subject", c.cfg.Subject,
			"error", err,
		)
		return nil
	}

	if msg.Signal == "" {
		c.logger.Warn("Dropping sample without signal name", "subject", c.cfg.Subject)
		return nil
	}

	ts := c.clock()
	if msg.Time != "" {
		parsed, err := time.Parse(time.RFC3339, msg.Time)
		if err != nil {
			c.logger.Warn("Dropping sample with invalid timestamp",
				"signal", msg.Signal,
				"time", msg.Time,
				"error", err,
			)
			return nil
		}
		ts = parsed
	}

	result, err := c.scoring.Observe(context.Background(), msg.Signal, msg.Value, ts)
	if err != nil {
		c.logger.Warn("Dropping invalid sample",
			"signal", msg.Signal,
			"value", msg.Value,
			"error", err,
		)
		return nil
	}

	c.logger.Debug("Sample scored",
		"signal", msg.Signal,
		"value", msg.Value,
		"score", result.Score,
		"trend", string(result.Trend),
		"alerted", result.Alerted,
	)
	return nil
}
