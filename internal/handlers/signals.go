package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/driftwatch/driftd/internal/baseline"
	"github.com/driftwatch/driftd/internal/middleware"
	"github.com/driftwatch/driftd/internal/models"
	"github.com/driftwatch/driftd/internal/utils"
)

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    middleware.CodeInvalidRequest,
			Message: message,
			Path:    c.Path(),
		},
	})
}

// Observe handles single sample ingestion for a signal
func (h *Handler) Observe(c *fiber.Ctx) error {
	signal := c.Params("signal")

	var req models.ObserveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}

	ts, err := h.parseTimestamp(req.Time)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.scoring.Observe(c.UserContext(), signal, req.Value, ts)
	if err != nil {
		return err
	}

	return c.JSON(models.ObserveResponse{
		Signal:  signal,
		Score:   result.Score,
		Trend:   string(result.Trend),
		Alerted: result.Alerted,
		Samples: result.Samples,
	})
}

// ObserveBatch handles batch sample ingestion across signals
func (h *Handler) ObserveBatch(c *fiber.Ctx) error {
	var req models.BatchObserveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}

	if len(req.Samples) == 0 {
		return badRequest(c, "'samples' must contain at least one sample")
	}

	if len(req.Samples) > utils.MaxBatchSize {
		return badRequest(c, "batch exceeds maximum size of "+strconv.Itoa(utils.MaxBatchSize))
	}

	resp := models.BatchObserveResponse{
		Results: make([]models.ObserveResponse, 0, len(req.Samples)),
	}

	for _, sample := range req.Samples {
		if sample.Signal == "" {
			resp.Rejected++
			continue
		}

		ts, err := h.parseTimestamp(sample.Time)
		if err != nil {
			resp.Rejected++
			continue
		}

		result, err := h.scoring.Observe(c.UserContext(), sample.Signal, sample.Value, ts)
		if err != nil {
			if errors.Is(err, baseline.ErrNonFinite) {
				resp.Rejected++
				continue
			}
			return err
		}

		resp.Accepted++
		resp.Results = append(resp.Results, models.ObserveResponse{
			Signal:  sample.Signal,
			Score:   result.Score,
			Trend:   string(result.Trend),
			Alerted: result.Alerted,
			Samples: result.Samples,
		})
	}

	return c.JSON(resp)
}

// ListSignals returns the tracked signal names
func (h *Handler) ListSignals(c *fiber.Ctx) error {
	signals := h.registry.Signals()
	return c.JSON(models.SignalListResponse{
		Signals: signals,
		Count:   len(signals),
	})
}

// GetBaseline returns the rolling baseline for a signal
func (h *Handler) GetBaseline(c *fiber.Ctx) error {
	signal := c.Params("signal")

	stats, defined, err := h.registry.Stats(signal)
	if err != nil {
		return err
	}

	count, err := h.registry.SampleCount(signal)
	if err != nil {
		return err
	}

	resp := models.BaselineResponse{
		Signal:  signal,
		Samples: count,
	}
	if defined {
		resp.Mean = &stats.Mean
		resp.StdDev = &stats.StdDev
	} else {
		resp.InsufficientData = true
	}

	return c.JSON(resp)
}

// Score returns the z-score of a probe value without recording it
func (h *Handler) Score(c *fiber.Ctx) error {
	signal := c.Params("signal")

	raw := c.Query("value")
	if raw == "" {
		return badRequest(c, "'value' query parameter is required")
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return badRequest(c, "'value' must be a number")
	}

	score, err := h.registry.ZScore(signal, value)
	if err != nil {
		return err
	}

	return c.JSON(models.ScoreResponse{
		Signal: signal,
		Value:  value,
		Score:  score,
	})
}

// GetTrend returns the trend verdict for a signal
func (h *Handler) GetTrend(c *fiber.Ctx) error {
	signal := c.Params("signal")

	trend, err := h.registry.Trend(signal)
	if err != nil {
		return err
	}

	return c.JSON(models.TrendResponse{
		Signal: signal,
		Trend:  string(trend),
	})
}

// GetSeasonalBaseline returns the time-of-week baseline for a signal
func (h *Handler) GetSeasonalBaseline(c *fiber.Ctx) error {
	signal := c.Params("signal")

	ts, err := h.parseTimestamp(c.Query("time"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	stats, defined, err := h.registry.SeasonalBaseline(signal, ts)
	if err != nil {
		return err
	}

	resp := models.SeasonalBaselineResponse{
		Signal: signal,
		Time:   ts.Format(time.RFC3339),
	}
	if defined {
		resp.Mean = &stats.Mean
		resp.StdDev = &stats.StdDev
	} else {
		resp.InsufficientData = true
	}

	return c.JSON(resp)
}

// RefreshSeasonalBaseline recomputes a signal's seasonal buckets
func (h *Handler) RefreshSeasonalBaseline(c *fiber.Ctx) error {
	signal := c.Params("signal")

	if err := h.registry.UpdateSeasonalBaselines(signal); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteSignal removes a signal and its history
func (h *Handler) DeleteSignal(c *fiber.Ctx) error {
	signal := c.Params("signal")

	if !h.registry.Drop(signal) {
		return baseline.ErrUnknownSignal
	}

	h.logger.Info("Signal dropped", "signal", signal)
	return c.SendStatus(fiber.StatusNoContent)
}

// TriggerSnapshot forces an immediate snapshot of all baselines
func (h *Handler) TriggerSnapshot(c *fiber.Ctx) error {
	if h.snapshots == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "snapshots are disabled")
	}

	path, err := h.snapshots.Save(h.registry)
	if err != nil {
		return err
	}

	return c.JSON(models.SnapshotResponse{
		Path:    path,
		Signals: h.registry.Len(),
	})
}
