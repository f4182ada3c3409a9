package geofence_test

import (
	"context"
	"testing"
	"time"

	"github.com/pontolabs/ponto-agent/pkg/geo"
	"github.com/pontolabs/ponto-agent/pkg/geofence"
	"github.com/pontolabs/ponto-agent/pkg/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// scriptedSource feeds the validator a fixed sequence of acquisition
// results, repeating the last entry.
type scriptedSource struct {
	script []providerStep
	calls  int
}

func (s *scriptedSource) Acquire(ctx context.Context, timeout, maxAge time.Duration) (location.Sample, error) {
	if err := ctx.Err(); err != nil {
		return location.Sample{}, err
	}
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	step := s.script[i]
	return step.sample, step.err
}

func newTestValidator(s geofence.SampleSource) *geofence.Validator {
	v := geofence.NewValidator(s, zerolog.Nop())
	v.RetryDelay = 0 // keep the state machine instant under test
	return v
}

func sampleAt(northMeters, accuracy float64) location.Sample {
	return location.Sample{
		Coordinate:     geo.Coordinate{Latitude: northMeters / metersPerDegreeLat, Longitude: 0},
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now(),
	}
}

// TestValidate_NoSitesConfigured tests the precondition check, which must
// not consume any acquisition attempt.
func TestValidate_NoSitesConfigured(t *testing.T) {
	src := &scriptedSource{script: []providerStep{{sample: sampleAt(0, 10)}}}
	v := newTestValidator(src)

	verdict := v.Validate(context.Background(), nil)

	assert.False(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonNoSitesConfigured, verdict.Reason)
	assert.Equal(t, 0, src.calls)

	inactive := siteAt("hq", 0, 50)
	inactive.Active = false
	verdict = v.Validate(context.Background(), []geofence.Site{inactive})
	assert.Equal(t, geofence.ReasonNoSitesConfigured, verdict.Reason)
	assert.Equal(t, 0, src.calls)
}

// TestValidate_ImmediateAcceptOnPreciseMatch tests the early-exit path: a
// matched sample at ≤30 m accuracy ends validation on the first attempt.
func TestValidate_ImmediateAcceptOnPreciseMatch(t *testing.T) {
	src := &scriptedSource{script: []providerStep{{sample: sampleAt(0, 10)}}}
	v := newTestValidator(src)
	sites := []geofence.Site{siteAt("hq", 0, 50)}

	verdict := v.Validate(context.Background(), sites)

	assert.True(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonMatched, verdict.Reason)
	assert.Equal(t, 1, src.calls)
	assert.NotEmpty(t, verdict.AttemptID)
	assert.Contains(t, verdict.Message, "site hq")
}

// TestValidate_PreciseMatchBoundary tests that exactly 30 m accuracy still
// takes the immediate-accept path.
func TestValidate_PreciseMatchBoundary(t *testing.T) {
	src := &scriptedSource{script: []providerStep{{sample: sampleAt(0, 30)}}}
	v := newTestValidator(src)

	verdict := v.Validate(context.Background(), []geofence.Site{siteAt("hq", 0, 50)})

	assert.True(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonMatched, verdict.Reason)
	assert.Equal(t, 1, src.calls)
}

// TestValidate_PreciseButUnmatchedRunsAllRetries tests a user clearly outside
// the fence: every attempt is spent and the rejection carries the distance
// and nearest-site name for self-correction.
func TestValidate_PreciseButUnmatchedRunsAllRetries(t *testing.T) {
	src := &scriptedSource{script: []providerStep{{sample: sampleAt(5000, 20)}}}
	v := newTestValidator(src)
	sites := []geofence.Site{siteAt("hq", 0, 50)}

	verdict := v.Validate(context.Background(), sites)

	assert.False(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonBestEffortRejected, verdict.Reason)
	assert.Equal(t, 3, src.calls)
	assert.InDelta(t, 5000, verdict.Match.DistanceMeters, 50)
	assert.Contains(t, verdict.Message, "site hq")
	assert.Contains(t, verdict.Message, "5000")
}

// TestValidate_BestEffortAcceptsMatchedImpreciseSample tests that a matched
// sample of 80 m accuracy is not accepted immediately but survives to the
// best-effort accept.
func TestValidate_BestEffortAcceptsMatchedImpreciseSample(t *testing.T) {
	src := &scriptedSource{script: []providerStep{{sample: sampleAt(0, 80)}}}
	v := newTestValidator(src)

	verdict := v.Validate(context.Background(), []geofence.Site{siteAt("hq", 0, 50)})

	assert.True(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonBestEffortAccepted, verdict.Reason)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 80.0, verdict.Sample.AccuracyMeters)
}

// TestValidate_LocationUnavailable tests the terminal verdict when every
// acquisition attempt fails.
func TestValidate_LocationUnavailable(t *testing.T) {
	src := &scriptedSource{script: []providerStep{
		{err: location.NewError(location.ErrTimeout, "nmea read", nil)},
	}}
	v := newTestValidator(src)

	verdict := v.Validate(context.Background(), []geofence.Site{siteAt("hq", 0, 50)})

	assert.False(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonLocationUnavailable, verdict.Reason)
	assert.Equal(t, 3, src.calls)
	assert.Nil(t, verdict.Sample)
	assert.Contains(t, verdict.Message, "GPS")
}

// TestValidate_ExhaustionKeepsBestSampleOutcome tests the fallback beyond the
// best-effort bar: accuracy 150 on every attempt never qualifies for the
// 100 m accept, but the best sample's own match outcome is still reported
// rather than a hard location failure.
func TestValidate_ExhaustionKeepsBestSampleOutcome(t *testing.T) {
	// Unmatched at 150 m accuracy: site 5 km away, adaptive radius 390 m.
	src := &scriptedSource{script: []providerStep{{sample: sampleAt(5000, 150)}}}
	v := newTestValidator(src)
	sites := []geofence.Site{siteAt("hq", 0, 50)}

	verdict := v.Validate(context.Background(), sites)

	assert.False(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonNoMatch, verdict.Reason)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 150.0, verdict.Sample.AccuracyMeters)

	// Matched at 150 m accuracy: 300 m offset falls inside the 390 m
	// adaptive fence, so the poor fix is accepted on exhaustion.
	src = &scriptedSource{script: []providerStep{{sample: sampleAt(300, 150)}}}
	v = newTestValidator(src)

	verdict = v.Validate(context.Background(), sites)

	assert.True(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonMatched, verdict.Reason)
	assert.Contains(t, verdict.Message, "150")
}

// TestValidate_KeepsBestAccuracyAcrossAttempts tests that the retained
// best sample is the most precise one, not the latest.
func TestValidate_KeepsBestAccuracyAcrossAttempts(t *testing.T) {
	src := &scriptedSource{script: []providerStep{
		{sample: sampleAt(0, 90)},
		{sample: sampleAt(0, 60)},
		{sample: sampleAt(0, 95)},
	}}
	v := newTestValidator(src)

	verdict := v.Validate(context.Background(), []geofence.Site{siteAt("hq", 0, 50)})

	assert.True(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonBestEffortAccepted, verdict.Reason)
	assert.Equal(t, 60.0, verdict.Sample.AccuracyMeters)
}

// TestValidate_FailedAttemptsAreSwallowed tests that an acquisition error on
// an early attempt never surfaces when a later attempt succeeds.
func TestValidate_FailedAttemptsAreSwallowed(t *testing.T) {
	src := &scriptedSource{script: []providerStep{
		{err: location.NewError(location.ErrTimeout, "nmea read", nil)},
		{sample: sampleAt(0, 10)},
	}}
	v := newTestValidator(src)

	verdict := v.Validate(context.Background(), []geofence.Site{siteAt("hq", 0, 50)})

	assert.True(t, verdict.Allowed)
	assert.Equal(t, geofence.ReasonMatched, verdict.Reason)
	assert.Equal(t, 2, src.calls)
}
