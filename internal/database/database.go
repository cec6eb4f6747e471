package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // драйвер sqlite3
	"github.com/rs/zerolog"
)

// DB хранит каталог и брони в SQLite.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

// NewDB открывает и мигрирует базу по пути path. ":memory:" поддерживается для тестов.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	inMemory := path == ":memory:"
	if !inMemory {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// каждое соединение с :memory: это отдельная база
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Info().Str("path", path).Msg("Database initialized")

	return &DB{DB: sqlDB, path: path, logger: logger}, nil
}

// dsn строит строку подключения. Транзакции начинаются с BEGIN IMMEDIATE, поэтому
// пишущие берут блокировку до чтения доступности.
func dsn(path string) string {
	params := "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
	if path == ":memory:" {
		return "file::memory:?" + params
	}
	return fmt.Sprintf("file:%s?%s&_journal_mode=WAL", path, params)
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS cabins (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            price INTEGER NOT NULL CHECK (price > 0),
            max_guests INTEGER NOT NULL CHECK (max_guests >= 1),
            amenities TEXT NOT NULL DEFAULT '[]',
            images TEXT NOT NULL DEFAULT '[]',
            sort_order INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            row_id INTEGER PRIMARY KEY AUTOINCREMENT,
            reference TEXT NOT NULL UNIQUE,
            cabin_id TEXT NOT NULL REFERENCES cabins(id),
            cabin_name TEXT NOT NULL,
            user_id TEXT NOT NULL,
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            guests INTEGER NOT NULL CHECK (guests >= 1),
            name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            special_requests TEXT NOT NULL DEFAULT '',
            nights INTEGER NOT NULL CHECK (nights >= 1),
            price INTEGER NOT NULL,
            subtotal INTEGER NOT NULL,
            taxes INTEGER NOT NULL,
            total INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'CONFIRMED',
            created_at DATETIME NOT NULL,
            CHECK (check_in < check_out)
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_cabin_dates ON bookings(cabin_id, check_in, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,

		// Последний рубеж: пересекающиеся активные брони не попадут в таблицу
		`CREATE TRIGGER IF NOT EXISTS bookings_no_overlap
         BEFORE INSERT ON bookings
         WHEN NEW.status IN ('CONFIRMED', 'PENDING')
         BEGIN
             SELECT RAISE(ABORT, '` + overlapMessage + `')
             WHERE EXISTS (
                 SELECT 1 FROM bookings
                 WHERE cabin_id = NEW.cabin_id
                   AND status IN ('CONFIRMED', 'PENDING')
                   AND check_in < NEW.check_out
                   AND NEW.check_in < check_out
             );
         END`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Path возвращает путь к файлу базы.
func (db *DB) Path() string {
	return db.path
}
