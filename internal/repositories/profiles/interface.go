// Package profiles persists the last-synced user profile. The cache holds
// at most one profile, keyed by id and overwritten on conflict.
package profiles

import (
	"context"

	"github.com/NatsuCamellia/cool-tracker/internal/models"
)

type Repository interface {
	// Save upserts the profile by id.
	Save(ctx context.Context, p *models.Profile) error

	// Get returns the cached profile, or nil when none is stored.
	Get(ctx context.Context) (*models.Profile, error)

	// Clear removes all profile rows.
	Clear(ctx context.Context) error
}
