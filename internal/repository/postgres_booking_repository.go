package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/planify/booking-service/internal/domain"
	"github.com/planify/booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// pgcode for exclusion_violation, raised by the bookings_no_overlap
// constraint when a racing insert wins.
const pgExclusionViolation = "23P01"

const bookingColumns = `
	id, location_id, event_id, organization_id,
	start_time, end_time, status, total_amount_cents, currency,
	created_at, updated_at
`

// PostgresBookingRepository implements BookingRepository using PostgreSQL
// with pgxpool. The bookings table carries a partial exclusion constraint
// over (location_id, time range) for live statuses, so the insert itself is
// the last line of defense against a double booking.
type PostgresBookingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingRepository creates a new PostgresBookingRepository
func NewPostgresBookingRepository(pool *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{pool: pool}
}

// CreateIfAvailable inserts a booking inside a single transaction together
// with the conflict re-check. A lost race surfaces either through the
// re-check or through the exclusion constraint; both paths report the
// conflicting ids instead of an error.
func (r *PostgresBookingRepository) CreateIfAvailable(ctx context.Context, booking *domain.Booking) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.create_if_available")
	defer span.End()

	span.SetAttributes(
		attribute.String("location_id", booking.LocationID),
		attribute.String("event_id", booking.EventID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	conflicts, err := queryConflictingIDs(ctx, tx, booking.LocationID, booking.StartTime, booking.EndTime, domain.LiveStatuses(), true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(conflicts) > 0 {
		span.SetAttributes(attribute.Int("conflict_count", len(conflicts)))
		span.SetStatus(codes.Ok, "")
		return conflicts, nil
	}

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.Exec(ctx, query,
		booking.ID,
		booking.LocationID,
		booking.EventID,
		booking.OrganizationID,
		booking.StartTime,
		booking.EndTime,
		booking.Status.String(),
		booking.TotalAmountCents,
		booking.Currency,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return r.conflictsAfterLostRace(ctx, booking)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return r.conflictsAfterLostRace(ctx, booking)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	span.SetAttributes(attribute.String("booking_id", booking.ID))
	span.SetStatus(codes.Ok, "")
	return nil, nil
}

// conflictsAfterLostRace looks up the winners after the exclusion constraint
// rejected our insert, so the caller can report them.
func (r *PostgresBookingRepository) conflictsAfterLostRace(ctx context.Context, booking *domain.Booking) ([]string, error) {
	conflicts, err := queryConflictingIDs(ctx, r.pool, booking.LocationID, booking.StartTime, booking.EndTime, domain.LiveStatuses(), false)
	if err != nil || len(conflicts) == 0 {
		return nil, domain.ErrBookingConflict
	}
	return conflicts, nil
}

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", id))

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// UpdateStatus sets the booking status and refreshes updated_at
func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, updatedAt time.Time) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("booking_id", id),
		attribute.String("status", status.String()),
	)

	query := `
		UPDATE bookings SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id, status.String(), updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrBookingNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return booking, nil
}

// FindConflictingIDs returns ids of bookings overlapping [start, end) in any
// of the given statuses
func (r *PostgresBookingRepository) FindConflictingIDs(ctx context.Context, locationID string, start, end time.Time, statuses []domain.BookingStatus) ([]string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.booking.find_conflicts")
	defer span.End()

	span.SetAttributes(attribute.String("location_id", locationID))

	conflicts, err := queryConflictingIDs(ctx, r.pool, locationID, start, end, statuses, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("conflict_count", len(conflicts)))
	span.SetStatus(codes.Ok, "")
	return conflicts, nil
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryConflictingIDs implements the strict half-open overlap predicate:
// a stored booking conflicts iff start_time < $end AND end_time > $start.
// Adjacent windows never conflict. forUpdate locks the matched rows for the
// duration of the surrounding transaction.
func queryConflictingIDs(ctx context.Context, q querier, locationID string, start, end time.Time, statuses []domain.BookingStatus, forUpdate bool) ([]string, error) {
	query := `
		SELECT id FROM bookings
		WHERE location_id = $1
		  AND status = ANY($2)
		  AND start_time < $4
		  AND end_time > $3
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = s.String()
	}

	rows, err := q.Query(ctx, query, locationID, statusStrings, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicting bookings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conflicting booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conflicting bookings: %w", err)
	}

	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	booking := &domain.Booking{}
	var status string

	err := row.Scan(
		&booking.ID,
		&booking.LocationID,
		&booking.EventID,
		&booking.OrganizationID,
		&booking.StartTime,
		&booking.EndTime,
		&status,
		&booking.TotalAmountCents,
		&booking.Currency,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Status = domain.BookingStatus(status)
	return booking, nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}
