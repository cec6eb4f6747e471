package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cabanas/internal/domain"
	"cabanas/internal/models"

	"github.com/jackc/pgx/v5"
)

const bookingColumns = `reference, cabin_id, cabin_name, user_id, check_in, check_out, guests,
		name, email, phone, special_requests, nights, price, subtotal, taxes, total,
		status, created_at`

// overlapCondition selects bookings intersecting [$3, $4).
const overlapCondition = `(
		(check_in <= $3 AND check_out > $3)
		OR (check_in > $3 AND check_in < $4)
		OR (check_in >= $3 AND check_out <= $4)
	)`

func (s *Store) FindOverlapping(ctx context.Context, cabinID string, checkIn, checkOut time.Time, statuses []string) ([]*models.Booking, error) {
	return findOverlapping(ctx, s.pool, cabinID, checkIn, checkOut, statuses)
}

func findOverlapping(ctx context.Context, q querier, cabinID string, checkIn, checkOut time.Time, statuses []string) ([]*models.Booking, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	rows, err := q.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE cabin_id = $1 AND status = ANY($2) AND `+overlapCondition+`
		ORDER BY check_in
	`, cabinID, statuses, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", classify(err))
	}
	return collectBookings(rows)
}

func (s *Store) CheckAvailability(ctx context.Context, cabinID string, checkIn, checkOut time.Time) (bool, error) {
	if _, err := s.GetCabin(ctx, cabinID); err != nil {
		return false, err
	}
	overlapping, err := s.FindOverlapping(ctx, cabinID, checkIn, checkOut, models.ActiveStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return len(overlapping) == 0, nil
}

// CreateBookingWithLock re-checks and inserts in one SERIALIZABLE transaction. The
// exclusion constraint rejects anything the check misses.
func (s *Store) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cabin, err := getCabin(ctx, tx, booking.CabinID)
	if err != nil {
		return err
	}

	overlapping, err := findOverlapping(ctx, tx, booking.CabinID, booking.CheckIn, booking.CheckOut, models.ActiveStatuses)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return domain.ErrNotAvailable
	}

	if booking.Status == "" {
		booking.Status = models.StatusConfirmed
	}
	booking.CabinName = cabin.Name

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		RETURNING created_at
	`,
		booking.ID, booking.CabinID, booking.CabinName, booking.UserID,
		booking.CheckIn, booking.CheckOut, booking.Guests,
		booking.Name, booking.Email, booking.Phone, booking.SpecialRequests,
		booking.Nights, booking.Price, booking.Subtotal, booking.Taxes, booking.Total,
		booking.Status,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", classify(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit booking: %w", classify(err))
	}
	booking.CreatedAt = createdAt
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (s *Store) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE user_id = $1
		ORDER BY check_in DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", classify(err))
	}
	return collectBookings(rows)
}

func (s *Store) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings WHERE check_in <= $1 AND check_out >= $2
		ORDER BY check_in, cabin_id
	`, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", classify(err))
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", classify(err))
	}
	return bookings, nil
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.CabinID, &b.CabinName, &b.UserID, &b.CheckIn, &b.CheckOut, &b.Guests,
		&b.Name, &b.Email, &b.Phone, &b.SpecialRequests, &b.Nights, &b.Price, &b.Subtotal,
		&b.Taxes, &b.Total, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", classify(err))
	}
	b.CheckIn = b.CheckIn.UTC()
	b.CheckOut = b.CheckOut.UTC()
	return &b, nil
}
