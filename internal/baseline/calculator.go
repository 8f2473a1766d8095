// Package baseline maintains rolling statistical baselines for metric
// signals and scores new observations against them. A Calculator keeps a
// bounded window of recent samples, computes an IQR-filtered mean and
// population standard deviation, and converts observations into z-scores.
// All insufficient-data conditions degrade to sentinel results rather than
// errors so that a monitoring pipeline never has to handle "no verdict"
// as a failure.
package baseline

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultWindowSize is the default number of samples kept in the
	// rolling window.
	DefaultWindowSize = 100

	// DefaultSeasonalityPeriod is the default cycle length in hours.
	DefaultSeasonalityPeriod = 24

	// iqrMultiplier is the standard Tukey fence multiplier for
	// outlier rejection.
	iqrMultiplier = 1.5

	// minSamplesForStats is the minimum window size before baseline
	// statistics are defined.
	minSamplesForStats = 2

	// trendSampleCount is how many recent samples form each half of the
	// trend comparison.
	trendSampleCount = 10

	// trendUpperBand and trendLowerBand bound the fixed 10% sensitivity
	// band around the older mean.
	trendUpperBand = 1.1
	trendLowerBand = 0.9
)

// ErrNonFinite is returned when a sample value is NaN or infinite.
var ErrNonFinite = errors.New("sample value is not finite")

// Trend describes the direction of the recent window relative to the
// samples before it.
type Trend string

const (
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// Sample is a single observation. Value and timestamp travel together so
// the window cannot drift out of lockstep.
type Sample struct {
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Stats holds the derived baseline statistics for a window.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Clock supplies the current time for AddNow. Injected so tests are
// deterministic.
type Clock func() time.Time

// Calculator maintains a bounded FIFO window of samples and derives
// robust baseline statistics from it on demand.
//
// A Calculator is not safe for concurrent use; callers that share one
// across goroutines must serialize access (Registry does this).
type Calculator struct {
	windowSize        int
	seasonalityPeriod int
	samples           []Sample
	clock             Clock
}

// New creates a Calculator. Non-positive arguments fall back to the
// defaults.
func New(windowSize, seasonalityPeriod int) *Calculator {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if seasonalityPeriod <= 0 {
		seasonalityPeriod = DefaultSeasonalityPeriod
	}
	return &Calculator{
		windowSize:        windowSize,
		seasonalityPeriod: seasonalityPeriod,
		samples:           make([]Sample, 0, windowSize),
		clock:             time.Now,
	}
}

// SetClock replaces the clock used by AddNow.
func (c *Calculator) SetClock(clock Clock) {
	if clock != nil {
		c.clock = clock
	}
}

// Add appends a sample to the window, evicting the oldest sample once the
// window is full. Non-finite values are rejected; timestamps are accepted
// as-is (the window is insertion-ordered, not time-ordered).
func (c *Calculator) Add(value float64, ts time.Time) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrNonFinite
	}

	s := Sample{Value: value, Time: ts}
	if len(c.samples) == c.windowSize {
		copy(c.samples, c.samples[1:])
		c.samples[len(c.samples)-1] = s
		return nil
	}
	c.samples = append(c.samples, s)
	return nil
}

// AddNow appends a sample stamped with the injected clock.
func (c *Calculator) AddNow(value float64) error {
	return c.Add(value, c.clock())
}

// Len returns the current number of samples in the window.
func (c *Calculator) Len() int {
	return len(c.samples)
}

// WindowSize returns the window capacity.
func (c *Calculator) WindowSize() int {
	return c.windowSize
}

// SeasonalityPeriod returns the configured cycle length in hours.
func (c *Calculator) SeasonalityPeriod() int {
	return c.seasonalityPeriod
}

// Samples returns a copy of the current window, oldest first.
func (c *Calculator) Samples() []Sample {
	out := make([]Sample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Stats computes the baseline mean and population standard deviation of
// the current window after IQR outlier rejection. It reports false while
// fewer than two samples are present. If the filter leaves fewer than two
// values (e.g. a near-constant window), the unfiltered statistics of the
// whole window are returned instead, so the result is always defined once
// the window holds two samples.
func (c *Calculator) Stats() (Stats, bool) {
	if len(c.samples) < minSamplesForStats {
		return Stats{}, false
	}

	values := make([]float64, len(c.samples))
	for i, s := range c.samples {
		values[i] = s.Value
	}

	q1, q3 := quartiles(values)
	iqr := q3 - q1
	lower := q1 - iqrMultiplier*iqr
	upper := q3 + iqrMultiplier*iqr

	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lower && v <= upper {
			filtered = append(filtered, v)
		}
	}

	if len(filtered) < minSamplesForStats {
		mean, stdDev := meanStdDev(values)
		return Stats{Mean: mean, StdDev: stdDev}, true
	}

	mean, stdDev := meanStdDev(filtered)
	return Stats{Mean: mean, StdDev: stdDev}, true
}

// ZScore standardizes a value against the current baseline. It returns 0
// when the baseline is undefined or degenerate (stddev of zero), which
// downstream consumers read as "no anomaly signal". The result is
// unclamped and may be negative.
func (c *Calculator) ZScore(value float64) float64 {
	stats, ok := c.Stats()
	if !ok || stats.StdDev == 0 {
		return 0
	}
	return (value - stats.Mean) / stats.StdDev
}

// Trend compares the mean of the last ten samples against the mean of the
// ten samples before them (or everything before the last ten when the
// window is shorter than twenty). Movement beyond the fixed 10% band
// reports increasing or decreasing; anything else, including windows with
// fewer than ten samples, is stable.
func (c *Calculator) Trend() Trend {
	n := len(c.samples)
	if n < trendSampleCount {
		return TrendStable
	}

	recent := c.samples[n-trendSampleCount:]
	var older []Sample
	if n >= 2*trendSampleCount {
		older = c.samples[n-2*trendSampleCount : n-trendSampleCount]
	} else {
		older = c.samples[:n-trendSampleCount]
	}
	if len(older) == 0 {
		return TrendStable
	}

	recentMean := sampleMean(recent)
	olderMean := sampleMean(older)

	switch {
	case recentMean > olderMean*trendUpperBand:
		return TrendIncreasing
	case recentMean < olderMean*trendLowerBand:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func sampleMean(samples []Sample) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.Value
	}
	return sum / float64(len(samples))
}
