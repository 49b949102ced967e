package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/drawsync/pipeline/internal/config"
)

// DB holds the pipeline's two independently sized connection pools: a
// small one for the single-writer ingest path and a larger one for the
// read API and stats engines, both built from the same DSN.
type DB struct {
	Write *bun.DB
	Read  *bun.DB
}

// NewDB opens both pools. Each is a distinct *sql.DB/connector pair
// against the same Postgres instance, sized and timed out from
// config.DatabaseConfig, following the connector/bun wiring in
// bun_store.go's NewBunStore.
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	write, err := openPool(cfg, cfg.WritePoolMax)
	if err != nil {
		return nil, fmt.Errorf("open write pool: %w", err)
	}

	read, err := openPool(cfg, cfg.ReadPoolMax)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read pool: %w", err)
	}

	return &DB{Write: write, Read: read}, nil
}

func openPool(cfg config.DatabaseConfig, maxOpen int) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.URL)))
	sqldb.SetMaxOpenConns(maxOpen)
	sqldb.SetMaxIdleConns(maxOpen)
	sqldb.SetConnMaxIdleTime(cfg.MaxIdleTime)
	sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)

	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Close closes both pools, write first so in-flight commits drain
// before the larger read pool is torn down.
func (d *DB) Close() error {
	writeErr := d.Write.Close()
	readErr := d.Read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// NewMigrationDB opens a single small pool for the migrate CLI, which
// never needs the runtime's split read/write sizing.
func NewMigrationDB(dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(5)

	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Ping checks both pools.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Write.PingContext(ctx); err != nil {
		return fmt.Errorf("write pool: %w", err)
	}
	if err := d.Read.PingContext(ctx); err != nil {
		return fmt.Errorf("read pool: %w", err)
	}
	return nil
}
