package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ObserveResponse represents the scoring result for a recorded sample
type ObserveResponse struct {
	Signal  string  `json:"signal"`
	Score   float64 `json:"score"`
	Trend   string  `json:"trend"`
	Alerted bool    `json:"alerted"`
	Samples int     `json:"samples"`
}

// BatchObserveResponse represents batch observe results
type BatchObserveResponse struct {
	Accepted int               `json:"accepted"`
	Rejected int               `json:"rejected"`
	Results  []ObserveResponse `json:"results,omitempty"`
}

// BaselineResponse represents the rolling baseline for a signal.
// Mean and StdDev are omitted while the window holds fewer than two
// samples; InsufficientData marks that case explicitly.
type BaselineResponse struct {
	Signal           string   `json:"signal"`
	Mean             *float64 `json:"mean,omitempty"`
	StdDev           *float64 `json:"stddev,omitempty"`
	Samples          int      `json:"samples"`
	InsufficientData bool     `json:"insufficient_data,omitempty"`
}

// ScoreResponse represents a read-only z-score probe
type ScoreResponse struct {
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`
	Score  float64 `json:"score"`
}

// TrendResponse represents the trend verdict for a signal
type TrendResponse struct {
	Signal string `json:"signal"`
	Trend  string `json:"trend"`
}

// SeasonalBaselineResponse represents a time-of-week baseline lookup
type SeasonalBaselineResponse struct {
	Signal           string   `json:"signal"`
	Time             string   `json:"time"`
	Mean             *float64 `json:"mean,omitempty"`
	StdDev           *float64 `json:"stddev,omitempty"`
	InsufficientData bool     `json:"insufficient_data,omitempty"`
}

// SignalListResponse represents the list of tracked signals
type SignalListResponse struct {
	Signals []string `json:"signals"`
	Count   int      `json:"count"`
}

// SnapshotResponse represents the result of a forced snapshot
type SnapshotResponse struct {
	Path    string `json:"path"`
	Signals int    `json:"signals"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}
