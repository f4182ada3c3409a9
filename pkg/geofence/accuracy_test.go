package geofence_test

import (
	"testing"

	"github.com/pontolabs/ponto-agent/pkg/geofence"
	"github.com/stretchr/testify/assert"
)

// TestClassify_Breakpoints tests the exact classification table, including
// the inclusive upper bound of each band.
func TestClassify_Breakpoints(t *testing.T) {
	tests := []struct {
		name       string
		accuracy   float64
		tier       geofence.AccuracyTier
		acceptable bool
		confidence float64
	}{
		{"perfect fix", 0, geofence.TierExcellent, true, 1.0},
		{"excellent boundary", 10, geofence.TierExcellent, true, 1.0},
		{"very good", 10.1, geofence.TierVeryGood, true, 0.9},
		{"very good boundary", 30, geofence.TierVeryGood, true, 0.9},
		{"good boundary", 50, geofence.TierGood, true, 0.8},
		{"acceptable boundary", 100, geofence.TierAcceptable, true, 0.7},
		{"low boundary", 200, geofence.TierLow, true, 0.6},
		{"very low boundary", 500, geofence.TierVeryLow, true, 0.4},
		{"unacceptable", 500.1, geofence.TierUnacceptable, false, 0.2},
		{"far beyond", 600, geofence.TierUnacceptable, false, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geofence.Classify(tt.accuracy)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.acceptable, got.Acceptable)
			assert.Equal(t, tt.confidence, got.Confidence)
		})
	}
}
