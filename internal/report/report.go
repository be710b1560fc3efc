// Package report runs the read-side listings that join loans, books and
// users. Queries are built with goqu and scanned with sqlx, sharing the
// connection pool gorm opened.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/doug-martin/goqu/v9"
	// Dialects used to render queries for the two supported databases.
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

var ErrBuildingQuery = errors.New("building report query failed")

// Reporter runs listing queries.
type Reporter struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// New returns a Reporter over db. dialect is "postgres" or "sqlite3".
func New(db *sqlx.DB, dialect string) *Reporter {
	return &Reporter{db: db, dialect: goqu.Dialect(dialect)}
}

// FromGorm wraps the connection pool of a gorm handle.
func FromGorm(g *gorm.DB) (*Reporter, error) {
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	driver := "postgres"
	if g.Dialector.Name() == "sqlite" {
		driver = "sqlite3"
	}
	return New(sqlx.NewDb(sqlDB, driver), driver), nil
}

// LoanRow is a loan with the title of its book and the name and email of its
// borrower.
type LoanRow struct {
	ID         uint              `db:"id" json:"id"`
	UserID     uint              `db:"user_id" json:"userId"`
	BookID     uint              `db:"book_id" json:"bookId"`
	Status     models.LoanStatus `db:"status" json:"status"`
	BorrowedAt time.Time         `db:"borrowed_at" json:"borrowDate"`
	DueAt      time.Time         `db:"due_at" json:"dueDate"`
	ReturnedAt *time.Time        `db:"returned_at" json:"returnDate"`
	PaidAmount float64           `db:"paid_amount" json:"borrowingCost"`
	PeriodDays int               `db:"period_days" json:"borrowingPeriodDays"`
	Fine       float64           `db:"fine" json:"fine"`
	BookTitle  string            `db:"book_title" json:"bookTitle"`
	UserName   string            `db:"user_name" json:"userName"`
	UserEmail  string            `db:"user_email" json:"userEmail"`
}

// LoanFilter narrows ListLoans. Zero fields match everything.
type LoanFilter struct {
	UserID uint
	Status models.LoanStatus
}

// ListLoans returns loans newest first.
func (r *Reporter) ListLoans(ctx context.Context, f LoanFilter) ([]LoanRow, error) {
	ds := r.dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("l.user_id")))).
		Select(
			"l.id", "l.user_id", "l.book_id", "l.status", "l.borrowed_at", "l.due_at",
			"l.returned_at", "l.paid_amount", "l.period_days", "l.fine",
			goqu.I("b.title").As("book_title"),
			goqu.I("u.name").As("user_name"),
			goqu.I("u.email").As("user_email"),
		).
		Order(goqu.I("l.borrowed_at").Desc(), goqu.I("l.id").Desc()).
		Prepared(true)

	var where []exp.Expression
	if f.UserID != 0 {
		where = append(where, goqu.I("l.user_id").Eq(f.UserID))
	}
	if f.Status != "" {
		where = append(where, goqu.I("l.status").Eq(string(f.Status)))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}

	rows := []LoanRow{}
	if err := r.selectInto(ctx, ds, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UserRow is an account with the number of books it currently has out.
type UserRow struct {
	ID             uint      `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	Role           gate.Role `db:"role" json:"role"`
	BorrowingLimit int       `db:"borrowing_limit" json:"borrowingLimit"`
	Fines          float64   `db:"fines" json:"fines"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	ActiveLoans    int64     `db:"active_loans" json:"activeLoans"`
}

// UserFilter narrows ListUsers. Search matches name or email.
type UserFilter struct {
	Role   gate.Role
	Search string
}

// ListUsers returns accounts newest first.
func (r *Reporter) ListUsers(ctx context.Context, f UserFilter) ([]UserRow, error) {
	active := goqu.L(
		"(SELECT COUNT(*) FROM loans WHERE loans.user_id = u.id AND loans.status = ?)",
		string(models.LoanBorrowed),
	)
	ds := r.dialect.From(goqu.T("users").As("u")).
		Select(
			"u.id", "u.email", "u.name", "u.role", "u.borrowing_limit", "u.fines", "u.created_at",
			active.As("active_loans"),
		).
		Order(goqu.I("u.created_at").Desc(), goqu.I("u.id").Desc()).
		Prepared(true)

	var where []exp.Expression
	if f.Role != "" {
		where = append(where, goqu.I("u.role").Eq(string(f.Role)))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		where = append(where, goqu.Or(
			goqu.Func("LOWER", goqu.I("u.name")).Like(like),
			goqu.Func("LOWER", goqu.I("u.email")).Like(like),
		))
	}
	if len(where) > 0 {
		ds = ds.Where(where...)
	}

	rows := []UserRow{}
	if err := r.selectInto(ctx, ds, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Reporter) selectInto(ctx context.Context, ds *goqu.SelectDataset, dest any) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQuery, err)
	}
	if err := r.db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("report query: %w", err)
	}
	return nil
}
