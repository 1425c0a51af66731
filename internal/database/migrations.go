package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"github.com/liver-predict/migrations"
)

// MigrationsTable records which prediction history schema version is applied.
const MigrationsTable = "prediction_schema_migrations"

// SchemaVersion describes the migration state of the history schema.
type SchemaVersion struct {
	Current uint
	Latest  uint
	Dirty   bool
}

// Pending reports whether the database is behind the embedded schema.
func (v SchemaVersion) Pending() bool {
	return v.Current < v.Latest
}

// MigrationRunner applies the embedded prediction history schema through a
// single connection borrowed from the pool. Closing it returns the
// connection and leaves the pool open.
type MigrationRunner struct {
	migrate *migrate.Migrate
	sqlDB   *sql.DB
	latest  uint
	log     *logrus.Logger
}

// NewMigrationRunner prepares the embedded migrations against db.
func NewMigrationRunner(ctx context.Context, db *DB, logger *logrus.Logger) (*MigrationRunner, error) {
	src, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	latest, err := lastVersion(src)
	if err != nil {
		src.Close()
		return nil, err
	}

	sqlDB := db.SQL()
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		src.Close()
		sqlDB.Close()
		return nil, fmt.Errorf("acquiring migration connection: %w", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{
		MigrationsTable: MigrationsTable,
	})
	if err != nil {
		conn.Close()
		src.Close()
		sqlDB.Close()
		return nil, fmt.Errorf("preparing migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		driver.Close()
		src.Close()
		sqlDB.Close()
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}

	return &MigrationRunner{migrate: m, sqlDB: sqlDB, latest: latest, log: logger}, nil
}

// lastVersion walks the source to the newest migration it embeds.
func lastVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no embedded migrations: %w", err)
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			return version, nil
		}
		version = next
	}
}

// Version reports the applied and newest schema versions. A database with no
// migrations applied is at version 0.
func (mr *MigrationRunner) Version() (SchemaVersion, error) {
	current, dirty, err := mr.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{Latest: mr.latest}, nil
	}
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("reading schema version: %w", err)
	}
	return SchemaVersion{Current: current, Latest: mr.latest, Dirty: dirty}, nil
}

// Up brings the history schema to the newest embedded version. A dirty
// schema is refused; it needs manual repair.
func (mr *MigrationRunner) Up() error {
	before, err := mr.Version()
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("prediction history schema is dirty at version %d", before.Current)
	}
	if !before.Pending() {
		mr.log.WithField("version", before.Current).Debug("Prediction history schema is current")
		return nil
	}

	if err := mr.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating prediction history schema: %w", err)
	}

	mr.log.WithFields(logrus.Fields{
		"from": before.Current,
		"to":   mr.latest,
	}).Info("Prediction history schema migrated")
	return nil
}

// Close returns the borrowed connection and releases the embedded source.
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	return errors.Join(sourceErr, dbErr, mr.sqlDB.Close())
}

// Migrate applies any pending history migrations to db.
func Migrate(ctx context.Context, db *DB, logger *logrus.Logger) error {
	runner, err := NewMigrationRunner(ctx, db, logger)
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up()
}
