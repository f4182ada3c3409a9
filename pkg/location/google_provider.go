package location

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pontolabs/ponto-agent/pkg/geo"
	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider resolves a position through the Google Maps
// Geolocation API using nearby WiFi access points and the caller's IP.
// It is the network fallback for devices without a GPS receiver.
type GoogleGeolocationProvider struct {
	client *maps.Client
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{client: c}, nil
}

// RequestLocation sends a geolocation request with whatever WiFi context is
// available. A failed WiFi scan is not fatal; the API still answers from IP.
func (g *GoogleGeolocationProvider) RequestLocation(ctx context.Context, req Request) (Sample, error) {
	req = req.Normalize()

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	wifiAPs, err := scanWiFiAccessPoints(ctx)
	if err != nil {
		wifiAPs = nil
	}

	resp, err := g.client.Geolocate(ctx, &maps.GeolocationRequest{
		ConsiderIP:       true,
		WiFiAccessPoints: wifiAPs,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Sample{}, NewError(ErrTimeout, "google geolocate", err)
		}
		return Sample{}, NewError(ErrUnavailable, "google geolocate", err)
	}

	sample := Sample{
		Coordinate: geo.Coordinate{
			Latitude:  resp.Location.Lat,
			Longitude: resp.Location.Lng,
		},
		AccuracyMeters: resp.Accuracy,
		CapturedAt:     time.Now(),
	}
	if err := sample.Validate(); err != nil {
		return Sample{}, NewError(ErrUnavailable, "google geolocate", err)
	}
	return sample, nil
}

// Close is a no-op; the maps client holds no persistent connection state.
func (g *GoogleGeolocationProvider) Close() error {
	return nil
}

// scanWiFiAccessPoints retrieves nearby WiFi access points using nmcli.
func scanWiFiAccessPoints(ctx context.Context) ([]maps.WiFiAccessPoint, error) {
	if _, err := exec.LookPath("nmcli"); err != nil {
		return nil, fmt.Errorf("nmcli not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run nmcli: %w", err)
	}

	var wifiAPs []maps.WiFiAccessPoint
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ":")
		if len(parts) != 2 {
			continue
		}
		macAddress := strings.TrimSpace(parts[0])
		if !isValidMAC(macAddress) {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		wifiAPs = append(wifiAPs, maps.WiFiAccessPoint{
			MACAddress:     macAddress,
			SignalStrength: float64(signal),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan nmcli output: %w", err)
	}

	return wifiAPs, nil
}

// isValidMAC checks if the MAC address is in a valid format (e.g., "00:14:22:01:23:45").
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseInt(part, 16, 16); err != nil {
			return false
		}
	}
	return true
}
