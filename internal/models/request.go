package models

// ObserveRequest represents a single sample submitted for a signal
type ObserveRequest struct {
	Value float64 `json:"value"`
	Time  string  `json:"time,omitempty"` // RFC3339; server time when empty
}

// BatchSample represents one sample inside a batch observe request
type BatchSample struct {
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`
	Time   string  `json:"time,omitempty"` // RFC3339; server time when empty
}

// BatchObserveRequest represents a batch of samples across signals
type BatchObserveRequest struct {
	Samples []BatchSample `json:"samples"`
}
