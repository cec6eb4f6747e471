package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cabanas/internal/models"
)

const cabinColumns = `id, name, description, price, max_guests, amenities, images, sort_order, created_at, updated_at`

// UpsertCabin inserts a cabin or refreshes its catalog fields. Used by seeding only.
func (db *DB) UpsertCabin(ctx context.Context, cabin *models.Cabin) error {
	amenities, err := json.Marshal(nonNil(cabin.Amenities))
	if err != nil {
		return fmt.Errorf("failed to marshal amenities: %w", err)
	}
	images, err := json.Marshal(nonNil(cabin.Images))
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	now := time.Now()
	query := `INSERT INTO cabins (` + cabinColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  description = excluded.description,
                  price = excluded.price,
                  max_guests = excluded.max_guests,
                  amenities = excluded.amenities,
                  images = excluded.images,
                  sort_order = excluded.sort_order,
                  updated_at = excluded.updated_at`
	_, err = db.ExecContext(ctx, query,
		cabin.ID,
		cabin.Name,
		cabin.Description,
		cabin.Price,
		cabin.MaxGuests,
		string(amenities),
		string(images),
		cabin.SortOrder,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cabin %s: %w", cabin.ID, classify(err))
	}
	if cabin.CreatedAt.IsZero() {
		cabin.CreatedAt = now
	}
	cabin.UpdatedAt = now
	return nil
}

func (db *DB) ListCabins(ctx context.Context) ([]*models.Cabin, error) {
	query := `SELECT ` + cabinColumns + ` FROM cabins ORDER BY sort_order ASC, id ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cabins: %w", classify(err))
	}
	defer rows.Close()

	var cabins []*models.Cabin
	for rows.Next() {
		cabin, err := scanCabin(rows)
		if err != nil {
			return nil, err
		}
		cabins = append(cabins, cabin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cabins: %w", classify(err))
	}
	return cabins, nil
}

func (db *DB) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	return getCabin(ctx, db, id)
}

func getCabin(ctx context.Context, q querier, id string) (*models.Cabin, error) {
	query := `SELECT ` + cabinColumns + ` FROM cabins WHERE id = ?`
	cabin, err := scanCabin(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCabinNotFound
	}
	if err != nil {
		return nil, err
	}
	return cabin, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func scanCabin(row rowScanner) (*models.Cabin, error) {
	var c models.Cabin
	var amenities, images string
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Price, &c.MaxGuests,
		&amenities, &images, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cabin: %w", classify(err))
	}
	if err := json.Unmarshal([]byte(amenities), &c.Amenities); err != nil {
		return nil, fmt.Errorf("failed to parse amenities of cabin %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(images), &c.Images); err != nil {
		return nil, fmt.Errorf("failed to parse images of cabin %s: %w", c.ID, err)
	}
	return &c, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
