// Package dbtest opens migrated SQLite databases and inserts fixtures for
// tests of the packages built on gorm.
package dbtest

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/db"
	"github.com/diewo77/bookbuddy/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a private in-memory database with every table migrated. The
// pool is limited to one connection so the shared-cache database never sees
// table-level lock errors.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, seq.Add(1))
	d := open(t, dsn)
	sqlDB, err := d.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	return d
}

// OpenFile returns a file-backed database in t.TempDir() with immediate
// transactions, for tests that exercise concurrent writers.
func OpenFile(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookbuddy.db")
	return open(t, "file:"+path+"?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on")
}

func open(t testing.TB, dsn string) *gorm.DB {
	t.Helper()
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return d
}

// Password is the clear-text password of every fixture user.
const Password = "secret123"

var passwordHash = sync.OnceValues(func() (string, error) {
	return auth.HashPassword(Password)
})

func hashedPassword(t testing.TB) string {
	h, err := passwordHash()
	if err != nil {
		t.Fatal(err)
	}
	return h
}

// User inserts a user with the given role and borrowing limit.
func User(t testing.TB, d *gorm.DB, email string, role gate.Role, limit int) *models.User {
	t.Helper()
	u := &models.User{
		Email:          email,
		Name:           strings.Split(email, "@")[0],
		PasswordHash:   hashedPassword(t),
		Role:           role,
		BorrowingLimit: limit,
	}
	if err := d.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// Book inserts a fully available book with default pricing from price.
func Book(t testing.TB, d *gorm.DB, title string, copies int, price float64) *models.Book {
	t.Helper()
	b := &models.Book{
		Title:           title,
		Author:          "Author of " + title,
		ISBN:            fmt.Sprintf("978%010d", seq.Add(1)),
		TotalCopies:     copies,
		AvailableCopies: copies,
		Price:           price,
	}
	if err := d.Create(b).Error; err != nil {
		t.Fatalf("create book %s: %v", title, err)
	}
	return b
}

// Reload fetches the current row for a fixture.
func Reload[T any](t testing.TB, d *gorm.DB, id uint) *T {
	t.Helper()
	var v T
	if err := d.Unscoped().First(&v, id).Error; err != nil {
		t.Fatalf("reload %T %d: %v", v, id, err)
	}
	return &v
}
