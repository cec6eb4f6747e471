package pgstore

// migrations run in order on startup; each statement is idempotent.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS cabins (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       BIGINT NOT NULL CHECK (price > 0),
		max_guests  INTEGER NOT NULL CHECK (max_guests >= 1),
		amenities   TEXT[] NOT NULL DEFAULT '{}',
		images      TEXT[] NOT NULL DEFAULT '{}',
		sort_order  BIGINT NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		row_id           BIGSERIAL PRIMARY KEY,
		reference        TEXT NOT NULL UNIQUE,
		cabin_id         TEXT NOT NULL REFERENCES cabins(id),
		cabin_name       TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		check_in         DATE NOT NULL,
		check_out        DATE NOT NULL,
		guests           INTEGER NOT NULL CHECK (guests >= 1),
		name             TEXT NOT NULL,
		email            TEXT NOT NULL,
		phone            TEXT NOT NULL,
		special_requests TEXT NOT NULL DEFAULT '',
		nights           INTEGER NOT NULL CHECK (nights >= 1),
		price            BIGINT NOT NULL,
		subtotal         BIGINT NOT NULL,
		taxes            BIGINT NOT NULL,
		total            BIGINT NOT NULL,
		status           TEXT NOT NULL CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'COMPLETED')),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (check_in < check_out),
		CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
			cabin_id WITH =,
			daterange(check_in, check_out, '[)') WITH &&
		) WHERE (status IN ('CONFIRMED', 'PENDING'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, check_in DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_dates ON bookings(check_in, check_out)`,
}
