package geofence

import (
	"context"
	"fmt"
	"time"

	"github.com/pontolabs/ponto-agent/pkg/location"
	"github.com/rs/zerolog"
)

// Acquirer defaults.
const (
	DefaultAcquireTimeout    = 15 * time.Second
	DefaultMaxAttempts       = 3
	DefaultAttemptDelay      = 1000 * time.Millisecond
	DefaultMinAccuracyMeters = 50.0
)

// SampleSource is the single-acquisition dependency of the Validator.
type SampleSource interface {
	Acquire(ctx context.Context, timeout, maxAge time.Duration) (location.Sample, error)
}

// Acquirer obtains position samples from a provider with timeout and retry,
// keeping the best (lowest accuracy radius) sample seen. An optional cache
// serves fixes younger than the caller's maxAge without touching the device.
type Acquirer struct {
	Provider location.Provider
	Cache    *location.Cache

	// AttemptDelay separates sequential attempts in AcquireWithRetry. There
	// is no delay before the first attempt.
	AttemptDelay time.Duration

	// MinAccuracyMeters is the early-exit threshold: once a sample is at
	// least this precise, further attempts cannot meaningfully improve it.
	MinAccuracyMeters float64

	Logger zerolog.Logger
}

// NewAcquirer creates an Acquirer with the standard retry tuning.
func NewAcquirer(provider location.Provider, cache *location.Cache, logger zerolog.Logger) *Acquirer {
	return &Acquirer{
		Provider:          provider,
		Cache:             cache,
		AttemptDelay:      DefaultAttemptDelay,
		MinAccuracyMeters: DefaultMinAccuracyMeters,
		Logger:            logger,
	}
}

// Acquire performs one device location request. A zero timeout falls back to
// the 15 s default; maxAge 0 forces a fresh read.
func (a *Acquirer) Acquire(ctx context.Context, timeout, maxAge time.Duration) (location.Sample, error) {
	if timeout <= 0 {
		timeout = DefaultAcquireTimeout
	}

	if a.Cache != nil {
		if sample, ok := a.Cache.Get(maxAge); ok {
			a.Logger.Debug().
				Float64("accuracy_m", sample.AccuracyMeters).
				Msg("Serving cached location fix")
			return sample, nil
		}
	}

	sample, err := a.Provider.RequestLocation(ctx, location.Request{
		HighAccuracy: true,
		Timeout:      timeout,
		MaxAge:       maxAge,
	})
	if err != nil {
		return location.Sample{}, err
	}

	if a.Cache != nil {
		a.Cache.Put(sample)
	}
	return sample, nil
}

// AcquireWithRetry runs up to maxAttempts sequential acquisitions and returns
// the best sample obtained. It exits early once a sample meets the minimum
// accuracy threshold. A sample that never meets the threshold is still
// returned; scoring its usefulness is the classifier's job, not ours. It
// fails only when every attempt failed outright.
func (a *Acquirer) AcquireWithRetry(ctx context.Context, maxAttempts int) (location.Sample, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var best location.Sample
	haveSample := false

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, a.AttemptDelay); err != nil {
				break
			}
		}

		sample, err := a.Acquire(ctx, 0, 0)
		if err != nil {
			a.Logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Msg("Location acquisition attempt failed")
			continue
		}

		if !haveSample || sample.AccuracyMeters < best.AccuracyMeters {
			best = sample
			haveSample = true
		}

		if sample.AccuracyMeters <= a.MinAccuracyMeters {
			a.Logger.Debug().
				Float64("accuracy_m", sample.AccuracyMeters).
				Int("attempt", attempt).
				Msg("Acquired precise fix, stopping retries")
			return sample, nil
		}
	}

	if !haveSample {
		return location.Sample{}, location.NewError(location.ErrUnavailable, "acquire",
			fmt.Errorf("unable to acquire location after %d attempts", maxAttempts))
	}

	a.Logger.Debug().
		Float64("accuracy_m", best.AccuracyMeters).
		Msg("Returning best sample below target accuracy")
	return best, nil
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
