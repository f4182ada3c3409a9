package sites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStaticDirectory_PreservesOrder tests that configured order survives,
// since first-fit matching depends on it.
func TestStaticDirectory_PreservesOrder(t *testing.T) {
	d, err := NewStaticDirectory([]StaticSite{
		{ID: "b", Name: "Branch", Lat: 1, Lng: 2, RadiusM: 50, Active: true},
		{ID: "a", Name: "Annex", Lat: 3, Lng: 4, RadiusM: 80, Active: true},
	})
	assert.NoError(t, err)

	sites, err := d.Sites(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "b", sites[0].ID)
	assert.Equal(t, "a", sites[1].ID)
}

// TestStaticDirectory_IncludesInactiveSites tests that disabled entries are
// still returned; the engine filters them, keeping an empty directory
// distinguishable from an all-inactive one.
func TestStaticDirectory_IncludesInactiveSites(t *testing.T) {
	d, err := NewStaticDirectory([]StaticSite{
		{ID: "hq", Name: "Headquarters", Lat: 0, Lng: 0, RadiusM: 50, Active: true},
		{ID: "old", Name: "Old Office", Lat: 1, Lng: 1, RadiusM: 50, Active: false},
	})
	assert.NoError(t, err)

	sites, err := d.Sites(context.Background())
	assert.NoError(t, err)
	assert.Len(t, sites, 2)
	assert.False(t, sites[1].Active)
}

// TestStaticDirectory_RejectsInvalidCoordinates tests config validation.
func TestStaticDirectory_RejectsInvalidCoordinates(t *testing.T) {
	_, err := NewStaticDirectory([]StaticSite{
		{ID: "bad", Lat: 123, Lng: 0, RadiusM: 50, Active: true},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

// TestStaticDirectory_ClampsNegativeRadius tests the radius floor at zero.
func TestStaticDirectory_ClampsNegativeRadius(t *testing.T) {
	d, err := NewStaticDirectory([]StaticSite{
		{ID: "hq", Lat: 0, Lng: 0, RadiusM: -10, Active: true},
	})
	assert.NoError(t, err)

	sites, err := d.Sites(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0.0, sites[0].NominalRadiusMeters)
}
