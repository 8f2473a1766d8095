package baseline

import (
	"fmt"
	"time"
)

// DefaultSeasonalWindowSize covers one week of hourly samples.
const DefaultSeasonalWindowSize = 168

// seasonalBucket accumulates observations for one day-of-week/hour-of-day
// slot. The values list grows across refreshes without eviction; see the
// package notes on refresh semantics.
type seasonalBucket struct {
	values []float64
	mean   float64
	stdDev float64
}

// SeasonalCalculator extends Calculator with time-of-week aware baselines.
// History is partitioned into day-of-week x hour-of-day buckets (168
// possible slots) so that, say, Tuesdays at 14:00 are compared against
// other Tuesdays at 14:00 rather than a single global baseline.
type SeasonalCalculator struct {
	*Calculator
	buckets map[string]*seasonalBucket
}

// NewSeasonal creates a SeasonalCalculator. A non-positive windowSize
// defaults to one week of hourly samples.
func NewSeasonal(windowSize, seasonalityPeriod int) *SeasonalCalculator {
	if windowSize <= 0 {
		windowSize = DefaultSeasonalWindowSize
	}
	return &SeasonalCalculator{
		Calculator: New(windowSize, seasonalityPeriod),
		buckets:    make(map[string]*seasonalBucket),
	}
}

// seasonalKey builds the bucket key for a timestamp. Weekdays are
// numbered with Monday as 0 to stay compatible with baselines produced by
// the original collector tooling; Go's Sunday-first numbering is shifted.
func seasonalKey(ts time.Time) string {
	weekday := (int(ts.Weekday()) + 6) % 7
	return fmt.Sprintf("%d_%d", weekday, ts.Hour())
}

// SeasonalBaseline returns the stored baseline for the timestamp's
// time-of-week slot. A slot that has never been refreshed falls back to
// the plain rolling baseline so a fresh slot never blocks scoring. The
// stored values may be stale if UpdateSeasonalBaselines has not run
// recently; keeping them fresh is the caller's job.
func (s *SeasonalCalculator) SeasonalBaseline(ts time.Time) (Stats, bool) {
	bucket, ok := s.buckets[seasonalKey(ts)]
	if !ok {
		return s.Stats()
	}
	return Stats{Mean: bucket.mean, StdDev: bucket.stdDev}, true
}

// UpdateSeasonalBaselines folds the current window into the seasonal
// buckets and recomputes each bucket's statistics. It is a no-op until
// the window holds at least two full cycles of data.
//
// Each call appends the entire window again: values already folded in by
// a previous call are re-counted and bucket memory grows without bound.
// This mirrors the deployed behavior of the original calculator and is
// kept for parity; callers that refresh frequently should expect the
// double-counting.
func (s *SeasonalCalculator) UpdateSeasonalBaselines() {
	if s.Len() < s.SeasonalityPeriod()*2 {
		return
	}

	for _, sample := range s.samples {
		key := seasonalKey(sample.Time)
		bucket, ok := s.buckets[key]
		if !ok {
			bucket = &seasonalBucket{}
			s.buckets[key] = bucket
		}
		bucket.values = append(bucket.values, sample.Value)
	}

	for _, bucket := range s.buckets {
		if len(bucket.values) < minSamplesForStats {
			continue
		}
		bucket.mean, bucket.stdDev = meanStdDev(bucket.values)
	}
}

// BucketCount returns the number of populated seasonal slots.
func (s *SeasonalCalculator) BucketCount() int {
	return len(s.buckets)
}
