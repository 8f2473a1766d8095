package baseline

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrUnknownSignal is returned for operations on a signal that has never
// been observed.
var ErrUnknownSignal = errors.New("unknown signal")

// Registry owns one SeasonalCalculator per signal name and serializes all
// access behind a single lock. Calculators themselves carry no internal
// synchronization, so the registry is the required single owner when
// samples arrive from concurrent HTTP handlers and queue consumers.
type Registry struct {
	mu                sync.RWMutex
	calculators       map[string]*SeasonalCalculator
	windowSize        int
	seasonalityPeriod int
}

// SignalState is the exportable state of one signal's window, used by the
// snapshot store. Seasonal buckets are derived state and deliberately not
// exported; they are rebuilt by the next refresh.
type SignalState struct {
	WindowSize        int      `json:"window_size"`
	SeasonalityPeriod int      `json:"seasonality_period"`
	Samples           []Sample `json:"samples"`
}

// NewRegistry creates a Registry whose lazily created calculators use the
// given window size and seasonality period.
func NewRegistry(windowSize, seasonalityPeriod int) *Registry {
	return &Registry{
		calculators:       make(map[string]*SeasonalCalculator),
		windowSize:        windowSize,
		seasonalityPeriod: seasonalityPeriod,
	}
}

// getOrCreate must be called with the write lock held.
func (r *Registry) getOrCreate(signal string) *SeasonalCalculator {
	calc, ok := r.calculators[signal]
	if !ok {
		calc = NewSeasonal(r.windowSize, r.seasonalityPeriod)
		r.calculators[signal] = calc
	}
	return calc
}

// Observe records a sample for a signal, creating its calculator on first
// use.
func (r *Registry) Observe(signal string, value float64, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreate(signal).Add(value, ts)
}

// ObserveAndScore records a sample and returns the z-score and trend of
// the window including that sample, under a single lock acquisition.
func (r *Registry) ObserveAndScore(signal string, value float64, ts time.Time) (float64, Trend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	calc := r.getOrCreate(signal)
	if err := calc.Add(value, ts); err != nil {
		return 0, TrendStable, err
	}
	return calc.ZScore(value), calc.Trend(), nil
}

// Stats returns the rolling baseline for a signal. The bool mirrors
// Calculator.Stats: false means insufficient data, not an error.
func (r *Registry) Stats(signal string) (Stats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.calculators[signal]
	if !ok {
		return Stats{}, false, ErrUnknownSignal
	}
	stats, defined := calc.Stats()
	return stats, defined, nil
}

// ZScore scores a probe value against a signal's baseline without
// recording it.
func (r *Registry) ZScore(signal string, value float64) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.calculators[signal]
	if !ok {
		return 0, ErrUnknownSignal
	}
	return calc.ZScore(value), nil
}

// Trend returns the trend verdict for a signal.
func (r *Registry) Trend(signal string) (Trend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.calculators[signal]
	if !ok {
		return TrendStable, ErrUnknownSignal
	}
	return calc.Trend(), nil
}

// SeasonalBaseline returns the time-of-week baseline for a signal at the
// given timestamp, falling back to the rolling baseline for unseen slots.
func (r *Registry) SeasonalBaseline(signal string, ts time.Time) (Stats, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.calculators[signal]
	if !ok {
		return Stats{}, false, ErrUnknownSignal
	}
	stats, defined := calc.SeasonalBaseline(ts)
	return stats, defined, nil
}

// UpdateSeasonalBaselines refreshes the seasonal buckets for a signal.
func (r *Registry) UpdateSeasonalBaselines(signal string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	calc, ok := r.calculators[signal]
	if !ok {
		return ErrUnknownSignal
	}
	calc.UpdateSeasonalBaselines()
	return nil
}

// SampleCount returns the number of samples in a signal's window.
func (r *Registry) SampleCount(signal string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calc, ok := r.calculators[signal]
	if !ok {
		return 0, ErrUnknownSignal
	}
	return calc.Len(), nil
}

// Signals returns the tracked signal names in sorted order.
func (r *Registry) Signals() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.calculators))
	for name := range r.calculators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of tracked signals.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calculators)
}

// Drop removes a signal and its history. It reports whether the signal
// existed.
func (r *Registry) Drop(signal string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.calculators[signal]
	delete(r.calculators, signal)
	return ok
}

// Export copies the window state of every signal for snapshotting.
func (r *Registry) Export() map[string]SignalState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]SignalState, len(r.calculators))
	for name, calc := range r.calculators {
		out[name] = SignalState{
			WindowSize:        calc.WindowSize(),
			SeasonalityPeriod: calc.SeasonalityPeriod(),
			Samples:           calc.Samples(),
		}
	}
	return out
}

// Import replays exported state into the registry, replacing any existing
// calculators for the imported signals. Samples that fail validation are
// skipped rather than aborting the restore.
func (r *Registry) Import(state map[string]SignalState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, sig := range state {
		calc := NewSeasonal(sig.WindowSize, sig.SeasonalityPeriod)
		for _, sample := range sig.Samples {
			_ = calc.Add(sample.Value, sample.Time)
		}
		r.calculators[name] = calc
	}
}
