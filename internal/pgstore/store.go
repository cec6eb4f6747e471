// Package pgstore keeps the catalog and reservations in PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cabanas/internal/domain"
	"cabanas/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var _ domain.Repository = (*Store)(nil)

// Store implements domain.Repository on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func New(ctx context.Context, dsn string, logger *zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &Store{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Msg("PostgreSQL store initialized")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const cabinColumns = `id, name, description, price, max_guests, amenities, images, sort_order, created_at, updated_at`

func (s *Store) UpsertCabin(ctx context.Context, cabin *models.Cabin) error {
	now := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cabins (`+cabinColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			max_guests = EXCLUDED.max_guests,
			amenities = EXCLUDED.amenities,
			images = EXCLUDED.images,
			sort_order = EXCLUDED.sort_order,
			updated_at = EXCLUDED.updated_at
	`,
		cabin.ID, cabin.Name, cabin.Description, cabin.Price, cabin.MaxGuests,
		nonNil(cabin.Amenities), nonNil(cabin.Images), cabin.SortOrder, now,
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

func (s *Store) ListCabins(ctx context.Context) ([]*models.Cabin, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+cabinColumns+` FROM cabins ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cabins: %w", classify(err))
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

func (s *Store) GetCabin(ctx context.Context, id string) (*models.Cabin, error) {
	return getCabin(ctx, s.pool, id)
}

func getCabin(ctx context.Context, q querier, id string) (*models.Cabin, error) {
	cabin, err := scanCabin(q.QueryRow(ctx, `SELECT `+cabinColumns+` FROM cabins WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCabinNotFound
	}
	return cabin, err
}

func scanCabin(row pgx.Row) (*models.Cabin, error) {
	var c models.Cabin
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Price, &c.MaxGuests,
		&c.Amenities, &c.Images, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cabin: %w", classify(err))
	}
	return &c, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
