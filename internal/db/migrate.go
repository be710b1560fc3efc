// Package db opens the database, applies the schema and seeds baseline data.
package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/bookbuddy/internal/config"
	"github.com/diewo77/bookbuddy/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MigrationsDir is the golang-migrate source used when MIGRATIONS=1.
var MigrationsDir = "file://migrations"

// Connect opens the configured database, retrying while it comes up.
func Connect(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	dsn := cfg.DSN()
	if !cfg.IsSQLite() {
		dsn = NormalizeDSN(dsn)
	}
	if dsn == "" {
		return nil, errors.New("database DSN is empty, check DATABASE_DSN or DB_* settings")
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	retries := max(cfg.Retries, 1)
	var db *gorm.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dialector(cfg, dsn), gcfg)
		if err == nil {
			break
		}
		log.WithError(err).WithField("attempt", i+1).Warn("retrying database connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.WithField("dsn", MaskDSN(dsn)).WithField("driver", db.Dialector.Name()).Info("database connected")
	return db, nil
}

func dialector(cfg config.DatabaseConfig, dsn string) gorm.Dialector {
	if cfg.IsSQLite() {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

// Migrate applies the schema. With useSQL the versioned files under
// MigrationsDir are applied through golang-migrate (Postgres only); otherwise
// gorm AutoMigrate is used.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, useSQL bool) error {
	if useSQL && !cfg.IsSQLite() {
		if err := runSQLMigrations(ToURLDSN(NormalizeDSN(cfg.DSN()))); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else if err := AutoMigrate(db); err != nil {
		return err
	}
	for _, table := range []string{"users", "books", "loans", "notifications"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates or updates every model table.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New(MigrationsDir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
