package location

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/pontolabs/ponto-agent/pkg/geo"
)

// GeoIPProvider produces a coarse, last-resort fix from a local MaxMind City
// database. Accuracy is kilometre-scale, so samples from this provider are
// classified far below the precise-fix thresholds and can only ever feed the
// diagnostic/best-effort paths of the validator.
type GeoIPProvider struct {
	db       *geoip2.Reader
	publicIP net.IP
}

// NewGeoIPProvider opens the MaxMind database at dbPath and resolves lookups
// for the device's public egress IP.
func NewGeoIPProvider(dbPath, publicIP string) (*GeoIPProvider, error) {
	ip := net.ParseIP(publicIP)
	if ip == nil {
		return nil, fmt.Errorf("invalid public IP %q", publicIP)
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}

	return &GeoIPProvider{db: db, publicIP: ip}, nil
}

// RequestLocation looks up the configured IP in the local database.
func (p *GeoIPProvider) RequestLocation(ctx context.Context, req Request) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, NewError(ErrTimeout, "geoip lookup", err)
	}

	record, err := p.db.City(p.publicIP)
	if err != nil {
		return Sample{}, NewError(ErrUnavailable, "geoip lookup", err)
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 && record.Location.AccuracyRadius == 0 {
		return Sample{}, NewError(ErrUnavailable, "geoip lookup", errors.New("no location data for IP"))
	}

	sample := Sample{
		Coordinate: geo.Coordinate{
			Latitude:  record.Location.Latitude,
			Longitude: record.Location.Longitude,
		},
		// MaxMind reports accuracy in kilometres.
		AccuracyMeters: float64(record.Location.AccuracyRadius) * 1000,
		CapturedAt:     time.Now(),
	}
	if err := sample.Validate(); err != nil {
		return Sample{}, NewError(ErrUnavailable, "geoip lookup", err)
	}
	return sample, nil
}

// Close releases the memory-mapped database.
func (p *GeoIPProvider) Close() error {
	return p.db.Close()
}
