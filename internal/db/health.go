package db

import (
	"context"
	"database/sql"
	"time"
)

// Ping checks connectivity with a short deadline.
func Ping(ctx context.Context, sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
