package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/bookbuddy/internal/config"
	"github.com/diewo77/bookbuddy/internal/db"
	"github.com/diewo77/bookbuddy/internal/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	log := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stdout)

	dbConn, err := db.Connect(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	seedOpts := db.SeedOptions{
		AdminEmail:     cfg.App.AdminEmail,
		AdminPassword:  cfg.App.AdminPassword,
		BorrowingLimit: cfg.Library.DefaultBorrowingLimit,
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.Database, true); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Info("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Info("Seeding completed successfully")
		return
	}

	// MIGRATIONS=true applies the versioned SQL files; otherwise the schema is
	// kept in step with the models.
	if err := db.Migrate(dbConn, cfg.Database, cfg.App.Migrations); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if cfg.App.Seed || cfg.App.Dev() {
		if err := db.Seed(dbConn, seedOpts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	app, err := NewApp(dbConn, cfg, log)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":   cfg.Server.Port,
			"env":    cfg.App.Env,
			"driver": cfg.Database.Driver,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server stopped gracefully")
}
