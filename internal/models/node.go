package models

import "time"

// Node status constants
const (
	NodeStatusActive   = "active"
	NodeStatusDraining = "draining"
)

// NodeInfo represents a scoring node registered in etcd
type NodeInfo struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Signals   int       `json:"signals"`
	UpdatedAt time.Time `json:"updated_at"`
}
