package location

import (
	"fmt"
	"time"

	"github.com/pontolabs/ponto-agent/pkg/geo"
)

// Default request parameters applied when the caller leaves them zero.
const (
	DefaultTimeout = 15 * time.Second
	DefaultMaxAge  = 0 * time.Second
)

// Sample is a single position fix reported by a provider.
type Sample struct {
	Coordinate     geo.Coordinate
	AccuracyMeters float64
	CapturedAt     time.Time
}

// Request describes a single location acquisition.
type Request struct {
	HighAccuracy bool
	Timeout      time.Duration // bound on the device query, DefaultTimeout if zero
	MaxAge       time.Duration // oldest acceptable cached fix, 0 forces a fresh read
}

// Normalize returns a copy of the request with defaults applied.
func (r Request) Normalize() Request {
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.MaxAge < 0 {
		r.MaxAge = DefaultMaxAge
	}
	return r
}

// Validate rejects malformed provider output at the boundary, so the
// validation engine only ever sees well-formed samples.
func (s Sample) Validate() error {
	if !s.Coordinate.IsValid() {
		return fmt.Errorf("sample has invalid coordinate %+v", s.Coordinate)
	}
	if s.AccuracyMeters < 0 {
		return fmt.Errorf("sample has negative accuracy %f", s.AccuracyMeters)
	}
	return nil
}

// ErrorKind categorizes provider failures.
type ErrorKind int

const (
	// ErrPermissionDenied means the platform refused access to the position source.
	ErrPermissionDenied ErrorKind = iota
	// ErrUnavailable means no provider could produce a fix.
	ErrUnavailable
	// ErrTimeout means the provider did not answer within the request timeout.
	ErrTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrPermissionDenied:
		return "permission denied"
	case ErrUnavailable:
		return "unavailable"
	case ErrTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by providers and the acquirer.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("location %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a typed location error.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
