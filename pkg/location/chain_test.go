package location_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pontolabs/ponto-agent/pkg/geo"
	"github.com/pontolabs/ponto-agent/pkg/location"
	"github.com/stretchr/testify/assert"
)

// fakeProvider is a scripted provider for chain tests.
type fakeProvider struct {
	sample location.Sample
	err    error
	calls  int
	closed bool
}

func (f *fakeProvider) RequestLocation(ctx context.Context, req location.Request) (location.Sample, error) {
	f.calls++
	if f.err != nil {
		return location.Sample{}, f.err
	}
	return f.sample, nil
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

// TestFallbackChain_FirstProviderWins tests that later providers are not
// consulted once one answers.
func TestFallbackChain_FirstProviderWins(t *testing.T) {
	gps := &fakeProvider{sample: location.Sample{
		Coordinate:     geo.Coordinate{Latitude: 1, Longitude: 2},
		AccuracyMeters: 8,
	}}
	network := &fakeProvider{sample: location.Sample{AccuracyMeters: 500}}

	chain := location.NewFallbackChain(gps, network)
	got, err := chain.RequestLocation(context.Background(), location.Request{})

	assert.NoError(t, err)
	assert.Equal(t, 8.0, got.AccuracyMeters)
	assert.Equal(t, 0, network.calls)
}

// TestFallbackChain_FallsThroughOnFailure tests the second provider is used
// when the first fails.
func TestFallbackChain_FallsThroughOnFailure(t *testing.T) {
	gps := &fakeProvider{err: location.NewError(location.ErrUnavailable, "nmea open", errors.New("no such device"))}
	network := &fakeProvider{sample: location.Sample{AccuracyMeters: 120}}

	chain := location.NewFallbackChain(gps, network)
	got, err := chain.RequestLocation(context.Background(), location.Request{})

	assert.NoError(t, err)
	assert.Equal(t, 120.0, got.AccuracyMeters)
	assert.Equal(t, 1, gps.calls)
}

// TestFallbackChain_AllFail tests a typed unavailable error when the whole
// chain fails.
func TestFallbackChain_AllFail(t *testing.T) {
	a := &fakeProvider{err: location.NewError(location.ErrTimeout, "nmea read", nil)}
	b := &fakeProvider{err: location.NewError(location.ErrUnavailable, "geoip lookup", nil)}

	chain := location.NewFallbackChain(a, b)
	_, err := chain.RequestLocation(context.Background(), location.Request{})

	var locErr *location.Error
	assert.ErrorAs(t, err, &locErr)
	assert.Equal(t, location.ErrUnavailable, locErr.Kind)
}

// TestFallbackChain_PermissionDeniedAborts tests that a denial stops the chain.
func TestFallbackChain_PermissionDeniedAborts(t *testing.T) {
	a := &fakeProvider{err: location.NewError(location.ErrPermissionDenied, "platform", nil)}
	b := &fakeProvider{sample: location.Sample{AccuracyMeters: 50}}

	chain := location.NewFallbackChain(a, b)
	_, err := chain.RequestLocation(context.Background(), location.Request{})

	var locErr *location.Error
	assert.ErrorAs(t, err, &locErr)
	assert.Equal(t, location.ErrPermissionDenied, locErr.Kind)
	assert.Equal(t, 0, b.calls)
}

// TestFallbackChain_Close tests that Close reaches every provider.
func TestFallbackChain_Close(t *testing.T) {
	a := &fakeProvider{}
	b := &fakeProvider{}

	chain := location.NewFallbackChain(a, b)
	assert.NoError(t, chain.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
