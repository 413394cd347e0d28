package store

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens and verifies a PostgreSQL connection.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		brand        TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		image_url    TEXT NOT NULL DEFAULT '',
		weight       TEXT NOT NULL DEFAULT '',
		price        INTEGER NOT NULL CHECK (price >= 0),
		price_info   TEXT NOT NULL DEFAULT '',
		flavor       TEXT NOT NULL DEFAULT '',
		ingredients  TEXT[] NOT NULL DEFAULT '{}',
		benefits     TEXT[] NOT NULL DEFAULT '{}',
		description  TEXT NOT NULL DEFAULT '',
		stock        INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		is_featured  BOOLEAN NOT NULL DEFAULT FALSE,
		tags         TEXT[] NOT NULL DEFAULT '{}',
		rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
		num_reviews  INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id          TEXT PRIMARY KEY,
		product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		user_id     TEXT NOT NULL,
		user_name   TEXT NOT NULL DEFAULT '',
		rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (product_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		items         JSONB NOT NULL,
		shipping_info JSONB NOT NULL DEFAULT '{}',
		total         INTEGER NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		mobile        TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables if they do not exist yet.
func EnsureSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
