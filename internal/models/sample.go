package models

import "time"

// SampleMessage is the wire format for samples arriving over the queue
type SampleMessage struct {
	Signal string  `json:"signal"`
	Value  float64 `json:"value"`
	Time   string  `json:"time,omitempty"` // RFC3339; ingest time when empty
}

// AlertEvent is published when a sample scores past the alert threshold
type AlertEvent struct {
	ID        string    `json:"id"`
	Signal    string    `json:"signal"`
	Value     float64   `json:"value"`
	Score     float64   `json:"score"`
	Threshold float64   `json:"threshold"`
	Trend     string    `json:"trend"`
	Time      time.Time `json:"time"`
}
