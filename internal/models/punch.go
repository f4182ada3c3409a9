package models

import "time"

// Punch directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// PunchRequest is the inbound trigger for a clock action, published by the
// badge reader or kiosk UI.
type PunchRequest struct {
	RequestID   string    `json:"request_id"`
	EmployeeID  string    `json:"employee_id"`
	Direction   string    `json:"direction"`
	RequestedAt time.Time `json:"requested_at"`
}

// PunchEvent is the outbound record of a validated clock action. The backend
// persists it and drives payroll from the Allowed flag.
type PunchEvent struct {
	PunchID    string `json:"punch_id"`
	RequestID  string `json:"request_id"`
	DeviceID   string `json:"device_id"`
	EmployeeID string `json:"employee_id"`
	Direction  string `json:"direction"`

	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	Message string `json:"message"`

	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
	AccuracyMeters  float64 `json:"accuracy_m,omitempty"`
	DistanceMeters  float64 `json:"distance_m,omitempty"`
	SiteID          string  `json:"site_id,omitempty"`
	SiteName        string  `json:"site_name,omitempty"`
	MatchConfidence float64 `json:"match_confidence,omitempty"`

	ValidatedAt time.Time `json:"validated_at"`
}
