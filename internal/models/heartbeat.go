package models

import "time"

// Heartbeat represents the structure for a device heartbeat event.
type Heartbeat struct {
	DeviceID      string    `json:"device_id"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	MemUsedPct    float64   `json:"mem_used_pct"`
}
