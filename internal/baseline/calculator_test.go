package baseline

import (
	"math"
	"testing"
	"time"
)

var testBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fill adds values one minute apart starting at testBase.
func fill(t *testing.T, c *Calculator, values ...float64) {
	t.Helper()
	for i, v := range values {
		if err := c.Add(v, testBase.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Add(%v) returned error: %v", v, err)
		}
	}
}

func TestStats_InsufficientData(t *testing.T) {
	c := New(100, 24)

	if _, ok := c.Stats(); ok {
		t.Error("Expected no stats for empty window")
	}

	fill(t, c, 42)
	if _, ok := c.Stats(); ok {
		t.Error("Expected no stats for single-sample window")
	}

	if z := c.ZScore(1000); z != 0 {
		t.Errorf("Expected z-score 0 with insufficient data, got %v", z)
	}
}

func TestStats_Idempotent(t *testing.T) {
	c := New(100, 24)
	fill(t, c, 10, 20, 30, 40, 50)

	first, ok1 := c.Stats()
	second, ok2 := c.Stats()

	if ok1 != ok2 || first != second {
		t.Errorf("Stats not idempotent: %+v/%v vs %+v/%v", first, ok1, second, ok2)
	}
}

func TestStats_OutlierRejection(t *testing.T) {
	c := New(100, 24)
	values := make([]float64, 0, 50)
	for i := 0; i < 49; i++ {
		values = append(values, 100)
	}
	values = append(values, 1000)
	fill(t, c, values...)

	stats, ok := c.Stats()
	if !ok {
		t.Fatal("Expected stats to be defined")
	}

	// The 1000 outlier must be fenced out, leaving a flat baseline.
	if stats.Mean != 100 {
		t.Errorf("Expected mean 100 with outlier excluded, got %v", stats.Mean)
	}
	if stats.StdDev != 0 {
		t.Errorf("Expected stddev 0 with outlier excluded, got %v", stats.StdDev)
	}
}

func TestStats_MinimalWindow(t *testing.T) {
	// Stats become defined at exactly two samples.
	c := New(100, 24)
	fill(t, c, 0, 100)

	stats, ok := c.Stats()
	if !ok {
		t.Fatal("Expected stats to be defined for a two-sample window")
	}
	if stats.Mean != 50 {
		t.Errorf("Expected mean 50, got %v", stats.Mean)
	}
	if stats.StdDev != 50 {
		t.Errorf("Expected population stddev 50, got %v", stats.StdDev)
	}
}

func TestStats_PopulationStdDev(t *testing.T) {
	c := New(100, 24)
	fill(t, c, 100, 102, 98, 101, 99)

	stats, ok := c.Stats()
	if !ok {
		t.Fatal("Expected stats to be defined")
	}
	if stats.Mean != 100 {
		t.Errorf("Expected mean 100, got %v", stats.Mean)
	}
	// Population stddev: sqrt((0+4+4+1+1)/5) = sqrt(2)
	want := math.Sqrt(2)
	if math.Abs(stats.StdDev-want) > 1e-12 {
		t.Errorf("Expected population stddev %v, got %v", want, stats.StdDev)
	}
}

func TestZScore_AnomalyExceedsThreshold(t *testing.T) {
	c := New(100, 24)
	fill(t, c, 100, 102, 98, 101, 99)

	if z := c.ZScore(150); z <= 2.0 {
		t.Errorf("Expected z-score above 2.0 for probe 150, got %v", z)
	}
}

func TestZScore_DegenerateWindow(t *testing.T) {
	c := New(100, 24)
	fill(t, c, 7, 7, 7, 7, 7)

	stats, ok := c.Stats()
	if !ok {
		t.Fatal("Expected stats to be defined")
	}
	if stats.StdDev != 0 {
		t.Fatalf("Expected stddev 0 for identical values, got %v", stats.StdDev)
	}

	for _, probe := range []float64{7, 0, 1e9, -1e9} {
		if z := c.ZScore(probe); z != 0 {
			t.Errorf("Expected z-score 0 for probe %v against flat window, got %v", probe, z)
		}
	}
}

func TestZScore_BelowBaselineIsNegative(t *testing.T) {
	c := New(100, 24)
	fill(t, c, 100, 102, 98, 101, 99)

	if z := c.ZScore(50); z >= 0 {
		t.Errorf("Expected negative z-score for probe below baseline, got %v", z)
	}
}

func TestAdd_FIFOEviction(t *testing.T) {
	c := New(5, 24)
	fill(t, c, 1, 2, 3, 4, 5, 6)

	if c.Len() != 5 {
		t.Fatalf("Expected window of 5 after 6 inserts, got %d", c.Len())
	}

	samples := c.Samples()
	want := []float64{2, 3, 4, 5, 6}
	for i, s := range samples {
		if s.Value != want[i] {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], s.Value)
		}
	}
}

func TestAdd_RejectsNonFinite(t *testing.T) {
	c := New(100, 24)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := c.Add(v, testBase); err != ErrNonFinite {
			t.Errorf("Add(%v): expected ErrNonFinite, got %v", v, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("Rejected samples must not enter the window, got len %d", c.Len())
	}
}

func TestAddNow_UsesInjectedClock(t *testing.T) {
	c := New(100, 24)
	fixed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return fixed })

	if err := c.AddNow(1.5); err != nil {
		t.Fatalf("AddNow returned error: %v", err)
	}

	samples := c.Samples()
	if len(samples) != 1 || !samples[0].Time.Equal(fixed) {
		t.Errorf("Expected sample stamped %v, got %+v", fixed, samples)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Trend
	}{
		{
			name:   "short window is stable",
			values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
			want:   TrendStable,
		},
		{
			name: "fifteen percent rise is increasing",
			values: []float64{
				100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
				115, 115, 115, 115, 115, 115, 115, 115, 115, 115,
			},
			want: TrendIncreasing,
		},
		{
			name: "five percent rise stays inside the band",
			values: []float64{
				100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
				105, 105, 105, 105, 105, 105, 105, 105, 105, 105,
			},
			want: TrendStable,
		},
		{
			name: "fifteen percent fall is decreasing",
			values: []float64{
				100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
				85, 85, 85, 85, 85, 85, 85, 85, 85, 85,
			},
			want: TrendDecreasing,
		},
		{
			name: "partial older half",
			values: []float64{
				100, 100, 100,
				150, 150, 150, 150, 150, 150, 150, 150, 150, 150,
			},
			want: TrendIncreasing,
		},
		{
			name:   "exactly ten samples has no older half",
			values: []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
			want:   TrendStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(100, 24)
			fill(t, c, tt.values...)
			if got := c.Trend(); got != tt.want {
				t.Errorf("Trend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_DefaultsForNonPositiveArgs(t *testing.T) {
	c := New(0, 0)
	if c.WindowSize() != DefaultWindowSize {
		t.Errorf("Expected default window size %d, got %d", DefaultWindowSize, c.WindowSize())
	}
	if c.SeasonalityPeriod() != DefaultSeasonalityPeriod {
		t.Errorf("Expected default seasonality period %d, got %d", DefaultSeasonalityPeriod, c.SeasonalityPeriod())
	}
}
