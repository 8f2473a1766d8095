package handlers

import (
	"fmt"
	"time"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/logging"
	"github.com/driftwatch/driftd/internal/scoring"
	"github.com/driftwatch/driftd/internal/snapshot"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	scoring   *scoring.Service
	registry  *baseline.Registry
	snapshots *snapshot.Store
	clock     func() time.Time
}

// New creates a new handler instance. The snapshot store may be nil when
// snapshots are disabled; the admin snapshot endpoint then returns 503.
func New(logger *logging.Logger, scoringSvc *scoring.Service, snapshots *snapshot.Store) *Handler {
	return &Handler{
		logger:    logger,
		scoring:   scoringSvc,
		registry:  scoringSvc.Registry(),
		snapshots: snapshots,
		clock:     time.Now,
	}
}

// parseTimestamp parses an optional RFC3339 timestamp, defaulting to the
// handler clock when empty.
func (h *Handler) parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return h.clock(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: expected RFC3339", value)
	}
	return ts, nil
}
