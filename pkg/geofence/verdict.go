package geofence

import "github.com/pontolabs/ponto-agent/pkg/location"

// ReasonCode explains why a validation verdict allowed or denied the punch.
type ReasonCode string

const (
	// ReasonMatched means the sample fell inside a site's adaptive radius.
	ReasonMatched ReasonCode = "matched"
	// ReasonNoMatch means no site contained the best sample obtained.
	ReasonNoMatch ReasonCode = "no_match"
	// ReasonBestEffortAccepted means a matched sample of merely usable
	// precision was accepted after retries were exhausted.
	ReasonBestEffortAccepted ReasonCode = "best_effort_accepted"
	// ReasonBestEffortRejected means even the best-effort fallback found the
	// device outside every site.
	ReasonBestEffortRejected ReasonCode = "best_effort_rejected"
	// ReasonNoSitesConfigured means no active authorized site exists.
	ReasonNoSitesConfigured ReasonCode = "no_sites_configured"
	// ReasonLocationUnavailable means no position fix could be acquired at all.
	ReasonLocationUnavailable ReasonCode = "location_unavailable"
)

// Verdict is the final outcome of one validation attempt. It is constructed
// once and never mutated after return; the caller uses Allowed to permit or
// deny the clock action and Message for user display.
type Verdict struct {
	// AttemptID correlates the verdict with logs and published punch events.
	AttemptID string

	Allowed bool
	Sample  *location.Sample
	Match   *MatchResult
	Reason  ReasonCode
	Message string
}
