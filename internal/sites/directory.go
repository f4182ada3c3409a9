// Package sites supplies the authorized clock-in sites the validation engine
// matches against. Sites are administered elsewhere; every implementation
// here is read-only.
package sites

import (
	"context"

	"github.com/pontolabs/ponto-agent/pkg/geofence"
)

// Directory is the source of authorized sites for validation. Implementations
// return every site, inactive ones included, in a stable order: matching is
// first-fit, so order is part of the observable behavior, and the engine's
// activity filter keeps an empty directory distinguishable from an all-inactive
// one.
type Directory interface {
	Sites(ctx context.Context) ([]geofence.Site, error)
}
