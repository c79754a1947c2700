package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/planify/booking-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresLocationRepository_GetByID(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresLocationRepository(pool)
	locationID := createTestLocation(t, pool)
	ctx := context.Background()

	loc, err := repo.GetByID(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, locationID, loc.ID)
	assert.Equal(t, int64(5000), loc.PricePerHourCents)
	assert.True(t, loc.Active)

	_, err = repo.GetByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestPostgresLocationRepository_ListActive(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresLocationRepository(pool)
	locationID := createTestLocation(t, pool)
	ctx := context.Background()

	// Deactivated locations drop out of the catalog.
	inactiveID := createTestLocation(t, pool)
	_, err := pool.Exec(ctx, `UPDATE locations SET active = FALSE WHERE id = $1`, inactiveID)
	require.NoError(t, err)

	locations, err := repo.ListActive(ctx)
	require.NoError(t, err)

	ids := make(map[string]bool, len(locations))
	for _, l := range locations {
		ids[l.ID] = true
	}
	assert.True(t, ids[locationID])
	assert.False(t, ids[inactiveID])
}
