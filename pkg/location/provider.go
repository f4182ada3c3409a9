package location

import "context"

// Provider interface defines the methods for location providers.
type Provider interface {
	// RequestLocation performs one position query bounded by req.Timeout.
	// The returned sample passes Sample.Validate; failures are *Error values.
	RequestLocation(ctx context.Context, req Request) (Sample, error)

	// Close releases any resources held by the provider.
	Close() error
}
