package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/pontolabs/ponto-agent/pkg/geo"
	"github.com/tarm/serial"
)

// hUEREMeters converts HDOP into an approximate horizontal error radius.
// 5 m is the usual user-equivalent range error for consumer GPS receivers.
const hUEREMeters = 5.0

// NMEASerialProvider retrieves fixes from a GPS receiver connected over a
// serial port, parsing GGA sentences.
type NMEASerialProvider struct {
	port     string // serial port to which the GPS receiver is connected
	baudRate int    // baud rate for the serial communication
}

// NewNMEASerialProvider creates a provider for the given port and baud rate.
func NewNMEASerialProvider(port string, baudRate int) *NMEASerialProvider {
	return &NMEASerialProvider{
		port:     port,
		baudRate: baudRate,
	}
}

// RequestLocation reads NMEA sentences until a valid GGA fix arrives or the
// request times out.
func (p *NMEASerialProvider) RequestLocation(ctx context.Context, req Request) (Sample, error) {
	req = req.Normalize()

	c := &serial.Config{Name: p.port, Baud: p.baudRate, ReadTimeout: time.Second}
	s, err := serial.OpenPort(c)
	if err != nil {
		return Sample{}, NewError(ErrUnavailable, "nmea open", err)
	}
	defer s.Close()

	deadline := time.Now().Add(req.Timeout)
	reader := bufio.NewReader(s)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return Sample{}, NewError(ErrTimeout, "nmea read", ctx.Err())
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				continue // read timeout slice, keep polling until the deadline
			}
			return Sample{}, NewError(ErrUnavailable, "nmea read", err)
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$GPGGA") && !strings.HasPrefix(line, "$GNGGA") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue // corrupted sentence, wait for the next one
		}

		gga, ok := sentence.(nmea.GGA)
		if !ok || gga.FixQuality == nmea.Invalid {
			continue
		}

		sample := Sample{
			Coordinate: geo.Coordinate{
				Latitude:  gga.Latitude,
				Longitude: gga.Longitude,
			},
			AccuracyMeters: gga.HDOP * hUEREMeters,
			CapturedAt:     time.Now(),
		}
		if err := sample.Validate(); err != nil {
			continue
		}
		return sample, nil
	}

	return Sample{}, NewError(ErrTimeout, "nmea read", errors.New("no valid GGA sentence before deadline"))
}

// Close is a no-op; the port is opened per request.
func (p *NMEASerialProvider) Close() error {
	return nil
}
