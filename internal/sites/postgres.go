package sites

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pontolabs/ponto-agent/pkg/geo"
	"github.com/pontolabs/ponto-agent/pkg/geofence"
)

// PostgresDirectory reads authorized sites from the attendance backend's
// database. The table is owned by the admin application; this side only
// selects.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory wraps an existing connection pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// Sites loads all sites ordered by id, so matching order stays stable
// between refreshes. Inactive sites are included and filtered by the engine,
// keeping the diagnostic "no configured sites" case distinguishable from an
// empty table.
func (d *PostgresDirectory) Sites(ctx context.Context) ([]geofence.Site, error) {
	const q = `
	SELECT id::text, name, latitude, longitude, radius_m, active
	FROM authorized_sites
	ORDER BY id
	`

	rows, err := d.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorized sites: %w", err)
	}
	defer rows.Close()

	var sites []geofence.Site
	for rows.Next() {
		var (
			s        geofence.Site
			lat, lng float64
		)
		if err := rows.Scan(&s.ID, &s.Name, &lat, &lng, &s.NominalRadiusMeters, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan authorized site: %w", err)
		}

		s.Coordinate = geo.Coordinate{Latitude: lat, Longitude: lng}
		if !s.Coordinate.IsValid() {
			return nil, fmt.Errorf("site %q has invalid coordinates (%f, %f)", s.ID, lat, lng)
		}
		if s.NominalRadiusMeters < 0 {
			s.NominalRadiusMeters = 0
		}
		sites = append(sites, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read authorized sites: %w", err)
	}
	return sites, nil
}
