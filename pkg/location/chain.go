package location

import (
	"context"
	"errors"
)

// FallbackChain tries providers in order and returns the first successful
// sample. Order expresses preference: GPS hardware first, network geolocation
// next, coarse GeoIP last.
type FallbackChain struct {
	providers []Provider
}

// NewFallbackChain creates a chain over the given providers.
func NewFallbackChain(providers ...Provider) *FallbackChain {
	return &FallbackChain{providers: providers}
}

// RequestLocation walks the chain until a provider answers. Permission
// failures abort immediately: retrying a lower-priority provider cannot fix a
// platform-level denial.
func (c *FallbackChain) RequestLocation(ctx context.Context, req Request) (Sample, error) {
	if len(c.providers) == 0 {
		return Sample{}, NewError(ErrUnavailable, "chain", errors.New("no providers configured"))
	}

	var lastErr error
	for _, p := range c.providers {
		sample, err := p.RequestLocation(ctx, req)
		if err == nil {
			return sample, nil
		}
		lastErr = err

		var locErr *Error
		if errors.As(err, &locErr) && locErr.Kind == ErrPermissionDenied {
			return Sample{}, err
		}
		if ctx.Err() != nil {
			return Sample{}, NewError(ErrTimeout, "chain", ctx.Err())
		}
	}

	return Sample{}, NewError(ErrUnavailable, "chain", lastErr)
}

// Close closes every provider in the chain, reporting the first failure.
func (c *FallbackChain) Close() error {
	var firstErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
