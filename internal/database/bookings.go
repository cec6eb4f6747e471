package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cabanas/internal/models"
)

const bookingColumns = `reference, cabin_id, cabin_name, user_id, check_in, check_out, guests,
                 name, email, phone, special_requests, nights, price, subtotal, taxes, total,
                 status, created_at`

// overlapCondition выбирает брони, пересекающие полуинтервал [in, out).
// Аргументы: in, in, in, out, in, out.
const overlapCondition = `(
        (check_in <= ? AND check_out > ?)
        OR (check_in > ? AND check_in < ?)
        OR (check_in >= ? AND check_out <= ?)
    )`

// FindOverlapping возвращает брони кабины, пересекающие [checkIn, checkOut),
// со статусом из statuses.
func (db *DB) FindOverlapping(ctx context.Context, cabinID string, checkIn, checkOut time.Time, statuses []string) ([]*models.Booking, error) {
	return findOverlapping(ctx, db, cabinID, checkIn, checkOut, statuses)
}

func findOverlapping(ctx context.Context, q querier, cabinID string, checkIn, checkOut time.Time, statuses []string) ([]*models.Booking, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	in, out := checkIn.Format(models.DateLayout), checkOut.Format(models.DateLayout)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `SELECT ` + bookingColumns + `
              FROM bookings
              WHERE cabin_id = ? AND status IN (` + placeholders + `) AND ` + overlapCondition + `
              ORDER BY check_in ASC`

	args := make([]interface{}, 0, len(statuses)+7)
	args = append(args, cabinID)
	for _, s := range statuses {
		args = append(args, s)
	}
	args = append(args, in, in, in, out, in, out)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", classify(err))
	}
	defer rows.Close()
	return scanBookings(rows)
}

// CheckAvailability сообщает, свободна ли кабина на [checkIn, checkOut).
func (db *DB) CheckAvailability(ctx context.Context, cabinID string, checkIn, checkOut time.Time) (bool, error) {
	if _, err := db.GetCabin(ctx, cabinID); err != nil {
		return false, err
	}

	overlapping, err := db.FindOverlapping(ctx, cabinID, checkIn, checkOut, models.ActiveStatuses)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	return len(overlapping) == 0, nil
}

// CreateBookingWithLock повторно проверяет доступность и создает бронь в одной
// immediate-транзакции. booking.ID должен уже содержать новый номер брони.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Кабина должна существовать
	cabin, err := getCabin(ctx, tx, booking.CabinID)
	if err != nil {
		return err
	}

	// 2. Проверка доступности внутри транзакции
	overlapping, err := findOverlapping(ctx, tx, booking.CabinID, booking.CheckIn, booking.CheckOut, models.ActiveStatuses)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return ErrNotAvailable
	}

	// 3. Создание брони
	if booking.Status == "" {
		booking.Status = models.StatusConfirmed
	}
	booking.CabinName = cabin.Name
	now := time.Now()

	query := `INSERT INTO bookings (` + bookingColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		booking.ID,
		booking.CabinID,
		booking.CabinName,
		booking.UserID,
		booking.CheckIn.Format(models.DateLayout),
		booking.CheckOut.Format(models.DateLayout),
		booking.Guests,
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.SpecialRequests,
		booking.Nights,
		booking.Price,
		booking.Subtotal,
		booking.Taxes,
		booking.Total,
		booking.Status,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", classify(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", classify(err))
	}
	booking.CreatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// GetUserBookings возвращает брони пользователя, сначала поздние заезды.
func (db *DB) GetUserBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
              FROM bookings WHERE user_id = ?
              ORDER BY check_in DESC, created_at DESC`
	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", classify(err))
	}
	defer rows.Close()
	return scanBookings(rows)
}

// GetBookingsByDateRange возвращает брони, затрагивающие [start, end] включительно.
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
              FROM bookings WHERE check_in <= ? AND check_out >= ?
              ORDER BY check_in ASC, cabin_id ASC`
	rows, err := db.QueryContext(ctx, query, end.Format(models.DateLayout), start.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", classify(err))
	}
	defer rows.Close()
	return scanBookings(rows)
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
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

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut string
	err := row.Scan(
		&b.ID, &b.CabinID, &b.CabinName, &b.UserID, &checkIn, &checkOut, &b.Guests,
		&b.Name, &b.Email, &b.Phone, &b.SpecialRequests, &b.Nights, &b.Price, &b.Subtotal,
		&b.Taxes, &b.Total, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", classify(err))
	}

	if b.CheckIn, err = time.Parse(models.DateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("failed to parse check-in %s: %w", checkIn, err)
	}
	if b.CheckOut, err = time.Parse(models.DateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("failed to parse check-out %s: %w", checkOut, err)
	}
	return &b, nil
}
