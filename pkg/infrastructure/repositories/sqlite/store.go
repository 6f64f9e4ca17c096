package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists tenant catalogs in a single SQLite database. Every table is keyed by
// tenant so one file can hold several tenants side by side.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			abbreviation TEXT NOT NULL,
			kind TEXT NOT NULL,
			to_base_ratio REAL NOT NULL,
			system TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (tenant, id)
		);`,
		`CREATE TABLE IF NOT EXISTS unit_conversions (
			tenant TEXT NOT NULL,
			from_unit TEXT NOT NULL,
			to_unit TEXT NOT NULL,
			factor REAL NOT NULL,
			PRIMARY KEY (tenant, from_unit, to_unit)
		);`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			price_per_base_unit TEXT NOT NULL,
			unit TEXT NOT NULL,
			yield_percent REAL NOT NULL,
			active INTEGER NOT NULL,
			PRIMARY KEY (tenant, id)
		);`,
		`CREATE TABLE IF NOT EXISTS recipes (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			yield_qty REAL NOT NULL,
			yield_unit TEXT NOT NULL,
			computed_cost TEXT NOT NULL,
			is_sub_recipe INTEGER NOT NULL,
			is_placeholder INTEGER NOT NULL,
			PRIMARY KEY (tenant, id)
		);`,
		`CREATE TABLE IF NOT EXISTS recipe_components (
			tenant TEXT NOT NULL,
			recipe_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			component_type TEXT NOT NULL,
			component_id TEXT NOT NULL,
			quantity REAL NOT NULL,
			unit TEXT NOT NULL,
			PRIMARY KEY (tenant, recipe_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			recipe_id TEXT,
			serving_qty REAL NOT NULL,
			serving_unit TEXT NOT NULL,
			PRIMARY KEY (tenant, id),
			UNIQUE (tenant, sku)
		);`,
		`CREATE TABLE IF NOT EXISTS sales_lines (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			store_id TEXT NOT NULL,
			sku TEXT NOT NULL,
			quantity REAL NOT NULL,
			sold_at TEXT NOT NULL,
			PRIMARY KEY (tenant, id)
		);`,
		`CREATE TABLE IF NOT EXISTS inventory_counts (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			store_id TEXT NOT NULL,
			taken_at TEXT NOT NULL,
			PRIMARY KEY (tenant, id)
		);`,
		`CREATE TABLE IF NOT EXISTS inventory_count_lines (
			tenant TEXT NOT NULL,
			count_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			quantity REAL NOT NULL,
			PRIMARY KEY (tenant, count_id, item_id)
		);`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			tenant TEXT NOT NULL,
			id TEXT NOT NULL,
			store_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			quantity REAL NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (tenant, id)
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// tenantTables lists tables in an order safe for deletes
var tenantTables = []string{
	"stock_movements",
	"inventory_count_lines",
	"inventory_counts",
	"sales_lines",
	"menu_items",
	"recipe_components",
	"recipes",
	"inventory_items",
	"unit_conversions",
	"units",
}

// withTx runs fn in a transaction, rolling back on any error
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rollbackErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
