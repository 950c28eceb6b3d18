package model

import "time"

// HealthStatus represents the health check response of the watch daemon.
// LastPoll is omitted until the first poll cycle completes.
type HealthStatus struct {
	Status   string     `json:"status"`
	Service  string     `json:"service"`
	Version  string     `json:"version"`
	LastPoll *time.Time `json:"last_poll,omitempty"`
}
