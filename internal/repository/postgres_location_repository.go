package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const locationColumns = `id, name, address, capacity, price_per_hour_cents, active`

// PostgresLocationRepository implements LocationRepository using PostgreSQL.
// The booking core only reads from this table.
type PostgresLocationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresLocationRepository creates a new PostgresLocationRepository
func NewPostgresLocationRepository(pool *pgxpool.Pool) *PostgresLocationRepository {
	return &PostgresLocationRepository{pool: pool}
}

// GetByID retrieves a location by its ID
func (r *PostgresLocationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.location.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("location_id", id))

	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`

	location := &domain.Location{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&location.ID,
		&location.Name,
		&location.Address,
		&location.Capacity,
		&location.PricePerHourCents,
		&location.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrLocationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return location, nil
}

// ListActive returns all active locations ordered by name
func (r *PostgresLocationRepository) ListActive(ctx context.Context) ([]*domain.Location, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.location.list_active")
	defer span.End()

	query := `SELECT ` + locationColumns + ` FROM locations WHERE active ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		location := &domain.Location{}
		if err := rows.Scan(
			&location.ID,
			&location.Name,
			&location.Address,
			&location.Capacity,
			&location.PricePerHourCents,
			&location.Active,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read locations: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(locations)))
	span.SetStatus(codes.Ok, "")
	return locations, nil
}
