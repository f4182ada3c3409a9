package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pontolabs/ponto-agent/pkg/location"
	"github.com/rs/zerolog"
)

// Validator policy defaults.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1000 * time.Millisecond

	// DefaultImmediateAccuracyMeters gates the early accept: a matched sample
	// must be at least this precise to end validation on the spot.
	DefaultImmediateAccuracyMeters = 30.0

	// DefaultBestEffortAccuracyMeters gates the fallback accept once retries
	// are exhausted.
	DefaultBestEffortAccuracyMeters = 100.0
)

// Validator decides whether a clock-in/out attempt is permitted. It drives
// repeated acquire+match cycles: a precise matched sample is accepted
// immediately, an imprecise one has to survive to the final attempt, and a
// device that cannot produce a good fix at all falls back to the best sample
// seen rather than blocking the user forever. Each Validate call is
// self-contained; there is no cross-call state.
type Validator struct {
	Source SampleSource

	MaxRetries               int
	RetryDelay               time.Duration
	AcquireTimeout           time.Duration
	ImmediateAccuracyMeters  float64
	BestEffortAccuracyMeters float64

	Logger zerolog.Logger
}

// NewValidator creates a Validator with the standard policy thresholds.
func NewValidator(source SampleSource, logger zerolog.Logger) *Validator {
	return &Validator{
		Source:                   source,
		MaxRetries:               DefaultMaxRetries,
		RetryDelay:               DefaultRetryDelay,
		AcquireTimeout:           DefaultAcquireTimeout,
		ImmediateAccuracyMeters:  DefaultImmediateAccuracyMeters,
		BestEffortAccuracyMeters: DefaultBestEffortAccuracyMeters,
		Logger:                   logger,
	}
}

// attemptOutcome pairs a sample with its match, so the best-effort paths
// return whatever match status the best sample carried.
type attemptOutcome struct {
	sample location.Sample
	match  MatchResult
}

// Validate runs the validation state machine against the given site set and
// returns the final verdict. Acquisition errors from individual attempts are
// swallowed and retried; Validate never fails with an error, only with a
// denying verdict.
func (v *Validator) Validate(ctx context.Context, sites []Site) Verdict {
	attemptID := uuid.New().String()
	logger := v.Logger.With().Str("attempt_id", attemptID).Logger()

	if len(ActiveSites(sites)) == 0 {
		logger.Warn().Msg("Validation refused: no active authorized sites")
		return Verdict{
			AttemptID: attemptID,
			Allowed:   false,
			Reason:    ReasonNoSitesConfigured,
			Message:   "no authorized sites are configured for this device",
		}
	}

	maxRetries := v.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	var best *attemptOutcome

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, v.RetryDelay); err != nil {
				logger.Info().Err(err).Msg("Validation cancelled between attempts")
				break
			}
		}

		sample, err := v.Source.Acquire(ctx, v.AcquireTimeout, 0)
		if err != nil {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", maxRetries).
				Msg("Could not acquire a position fix")
			continue
		}

		match := Match(sample.Coordinate, sites, sample.AccuracyMeters)
		logger.Debug().
			Int("attempt", attempt).
			Float64("accuracy_m", sample.AccuracyMeters).
			Bool("matched", match.Matched).
			Float64("distance_m", match.DistanceMeters).
			Msg("Evaluated position sample")

		if match.Matched && sample.AccuracyMeters <= v.ImmediateAccuracyMeters {
			s, m := sample, match
			return Verdict{
				AttemptID: attemptID,
				Allowed:   true,
				Sample:    &s,
				Match:     &m,
				Reason:    ReasonMatched,
				Message: fmt.Sprintf("location confirmed at %s (GPS precision ±%.0f m)",
					m.Site.Name, s.AccuracyMeters),
			}
		}

		if best == nil || sample.AccuracyMeters < best.sample.AccuracyMeters {
			best = &attemptOutcome{sample: sample, match: match}
		}
	}

	if best == nil {
		logger.Error().Msg("All acquisition attempts failed, no position fix available")
		return Verdict{
			AttemptID: attemptID,
			Allowed:   false,
			Reason:    ReasonLocationUnavailable,
			Message:   "could not determine your location: check that GPS is enabled and location permission is granted",
		}
	}

	if best.sample.AccuracyMeters <= v.BestEffortAccuracyMeters {
		return v.bestEffortVerdict(attemptID, best)
	}
	return v.exhaustedVerdict(attemptID, best)
}

// bestEffortVerdict accepts or rejects on the best sample once its precision
// is at least usable. The verdict inherits whatever match status that sample
// carried.
func (v *Validator) bestEffortVerdict(attemptID string, best *attemptOutcome) Verdict {
	s, m := best.sample, best.match
	if m.Matched {
		return Verdict{
			AttemptID: attemptID,
			Allowed:   true,
			Sample:    &s,
			Match:     &m,
			Reason:    ReasonBestEffortAccepted,
			Message: fmt.Sprintf("location accepted at %s with reduced GPS precision (±%.0f m)",
				m.Site.Name, s.AccuracyMeters),
		}
	}
	return Verdict{
		AttemptID: attemptID,
		Allowed:   false,
		Sample:    &s,
		Match:     &m,
		Reason:    ReasonBestEffortRejected,
		Message:   rejectionMessage(s, m),
	}
}

// exhaustedVerdict reports the best sample's own match outcome when even the
// best-effort precision bar was never reached. A poor fix that still matched
// is preferable to blocking the punch on hardware limitations.
func (v *Validator) exhaustedVerdict(attemptID string, best *attemptOutcome) Verdict {
	s, m := best.sample, best.match
	if m.Matched {
		return Verdict{
			AttemptID: attemptID,
			Allowed:   true,
			Sample:    &s,
			Match:     &m,
			Reason:    ReasonMatched,
			Message: fmt.Sprintf("location matched %s, best GPS precision achieved was ±%.0f m",
				m.Site.Name, s.AccuracyMeters),
		}
	}
	return Verdict{
		AttemptID: attemptID,
		Allowed:   false,
		Sample:    &s,
		Match:     &m,
		Reason:    ReasonNoMatch,
		Message:   rejectionMessage(s, m),
	}
}

// rejectionMessage tells the user how far outside the fence they are, so they
// can move closer and retry.
func rejectionMessage(s location.Sample, m MatchResult) string {
	if m.NearestSite == nil {
		return fmt.Sprintf("location could not be matched to any authorized site (GPS precision ±%.0f m)",
			s.AccuracyMeters)
	}
	return fmt.Sprintf("you are %.0f m from %s, outside the allowed %.0f m radius (GPS precision ±%.0f m)",
		m.DistanceMeters, m.NearestSite.Name, m.EffectiveRadiusMeters, s.AccuracyMeters)
}
