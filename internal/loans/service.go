package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/bookbuddy/internal/apperr"
	"github.com/diewo77/bookbuddy/internal/logging"
	"github.com/diewo77/bookbuddy/internal/metrics"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/store"
	"github.com/diewo77/bookbuddy/validation"
	"github.com/sirupsen/logrus"
)

// DefaultHoldDays is how long a reservation stays due.
const DefaultHoldDays = 3

// Clock returns the current time.
type Clock func() time.Time

// Service runs loan transitions against a Store.
type Service struct {
	store    store.Store
	fines    FinePolicy
	holdDays int
	now      Clock
	log      logrus.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(c Clock) Option { return func(s *Service) { s.now = c } }

// WithLogger sets the logger transitions are reported to.
func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

// WithHoldDays sets how many days a reservation is held.
func WithHoldDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.holdDays = days
		}
	}
}

// NewService builds the engine.
func NewService(st store.Store, fines FinePolicy, opts ...Option) *Service {
	s := &Service{
		store:    st,
		fines:    fines,
		holdDays: DefaultHoldDays,
		now:      time.Now,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock is the engine time; loan timestamps are stored in UTC.
func (s *Service) clock() time.Time { return s.now().UTC() }

// BorrowInput is a request to take a copy home for PeriodDays at Cost.
type BorrowInput struct {
	UserID     uint
	BookID     uint
	PeriodDays int
	Cost       float64
}

func (in BorrowInput) Validate() error {
	v := validation.Violations{}
	validation.PositiveID("userId", in.UserID, v)
	validation.PositiveID("bookId", in.BookID, v)
	validation.MinInt("periodDays", in.PeriodDays, 1, v)
	validation.NonNegativeFloat("cost", in.Cost, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

// ReserveInput is a request to queue for a book.
type ReserveInput struct {
	UserID uint
	BookID uint
}

func (in ReserveInput) Validate() error {
	v := validation.Violations{}
	validation.PositiveID("userId", in.UserID, v)
	validation.PositiveID("bookId", in.BookID, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

// ReturnResult is the outcome of a return.
type ReturnResult struct {
	LoanID uint    `json:"loanId"`
	Fine   float64 `json:"fine"`
}

// BorrowBook lends a copy to the user, fulfilling their reservation when
// they hold one, and returns the loan id.
func (s *Service) BorrowBook(ctx context.Context, in BorrowInput) (uint, error) {
	var loanID uint
	err := in.Validate()
	if err == nil {
		err = s.store.Transaction(ctx, func(tx store.Store) error {
			id, err := s.borrow(ctx, tx, in)
			loanID = id
			return err
		})
	}
	s.record(ctx, "borrow", logrus.Fields{"user_id": in.UserID, "book_id": in.BookID, "loan_id": loanID}, err)
	if err != nil {
		return 0, err
	}
	return loanID, nil
}

func (s *Service) borrow(ctx context.Context, tx store.Store, in BorrowInput) (uint, error) {
	now := s.clock()
	if _, err := s.checkEligibility(ctx, tx, in.UserID, now); err != nil {
		return 0, err
	}
	book, err := tx.Books().GetForUpdate(ctx, in.BookID)
	if err != nil {
		return 0, err
	}
	if _, ok := book.EffectivePricing().Match(in.PeriodDays, in.Cost); !ok {
		return 0, ErrInvalidPricingTier
	}

	reservation, err := tx.Loans().Find(ctx, in.UserID, book.ID, models.LoanReserved)
	if err != nil && !errors.Is(err, store.ErrLoanNotFound) {
		return 0, err
	}
	queued, err := tx.Loans().CountForBook(ctx, book.ID, models.LoanReserved)
	if err != nil {
		return 0, err
	}
	avail := availability{Available: book.AvailableCopies, Reserved: queued, HolderReserved: reservation != nil}
	if err := avail.decide(); err != nil {
		return 0, err
	}
	if _, err := tx.Loans().Find(ctx, in.UserID, book.ID, models.LoanBorrowed); err == nil {
		return 0, ErrAlreadyBorrowed
	} else if !errors.Is(err, store.ErrLoanNotFound) {
		return 0, err
	}

	due := now.AddDate(0, 0, in.PeriodDays)
	loan := reservation
	if loan == nil {
		loan = &models.Loan{UserID: in.UserID, BookID: book.ID}
	}
	loan.Status = models.LoanBorrowed
	loan.BorrowedAt = now
	loan.DueAt = due
	loan.PaidAmount = RoundCents(in.Cost)
	loan.PeriodDays = in.PeriodDays
	if loan.ID == 0 {
		err = tx.Loans().Create(ctx, loan)
	} else {
		err = tx.Loans().Save(ctx, loan)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Books().AdjustAvailable(ctx, book.ID, -1); err != nil {
		if errors.Is(err, store.ErrCopiesOutOfRange) {
			return 0, ErrNoCopiesAvailable
		}
		return 0, err
	}

	msg := fmt.Sprintf(`You have borrowed "%s" for %d days. Due date: %s. Payment: $%.2f`,
		book.Title, in.PeriodDays, due.Format(time.DateOnly), in.Cost)
	if _, err := tx.Notifications().Append(ctx, in.UserID, msg); err != nil {
		return 0, err
	}
	return loan.ID, nil
}

// checkEligibility locks the user row and applies Decide.
func (s *Service) checkEligibility(ctx context.Context, tx store.Store, userID uint, now time.Time) (*models.User, error) {
	user, err := tx.Users().GetForUpdate(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, Eligibility{}.Decide()
	}
	if err != nil {
		return nil, err
	}
	overdue, err := tx.Loans().CountOverdue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	active, err := tx.Loans().CountBorrowed(ctx, userID)
	if err != nil {
		return nil, err
	}
	e := Eligibility{UserFound: true, Overdue: overdue, Active: active, Limit: user.BorrowingLimit}
	return user, e.Decide()
}

// ReserveBook queues the user for a book. Reservations take no stock and do
// not check overdue loans or the borrowing limit; borrowing does.
func (s *Service) ReserveBook(ctx context.Context, in ReserveInput) (uint, error) {
	var loanID uint
	err := in.Validate()
	if err == nil {
		err = s.store.Transaction(ctx, func(tx store.Store) error {
			id, err := s.reserve(ctx, tx, in)
			loanID = id
			return err
		})
	}
	s.record(ctx, "reserve", logrus.Fields{"user_id": in.UserID, "book_id": in.BookID, "loan_id": loanID}, err)
	if err != nil {
		return 0, err
	}
	return loanID, nil
}

func (s *Service) reserve(ctx context.Context, tx store.Store, in ReserveInput) (uint, error) {
	if _, err := tx.Users().GetForUpdate(ctx, in.UserID); err != nil {
		return 0, err
	}
	book, err := tx.Books().GetForUpdate(ctx, in.BookID)
	if err != nil {
		return 0, err
	}
	for _, st := range []models.LoanStatus{models.LoanBorrowed, models.LoanReserved} {
		_, err := tx.Loans().Find(ctx, in.UserID, book.ID, st)
		if err == nil {
			return 0, ErrAlreadyHeld
		}
		if !errors.Is(err, store.ErrLoanNotFound) {
			return 0, err
		}
	}

	now := s.clock()
	loan := &models.Loan{
		UserID:     in.UserID,
		BookID:     book.ID,
		Status:     models.LoanReserved,
		BorrowedAt: now,
		DueAt:      now.AddDate(0, 0, s.holdDays),
	}
	if err := tx.Loans().Create(ctx, loan); err != nil {
		return 0, err
	}
	if _, err := tx.Notifications().Append(ctx, in.UserID, fmt.Sprintf(`You have reserved "%s".`, book.Title)); err != nil {
		return 0, err
	}
	return loan.ID, nil
}

// ReturnBook closes a borrowed loan, puts the copy back on the shelf and
// charges the overdue fine to the borrower's balance. Returning a reservation
// cancels it.
func (s *Service) ReturnBook(ctx context.Context, loanID uint) (ReturnResult, error) {
	res := ReturnResult{LoanID: loanID}
	fields := logrus.Fields{"loan_id": loanID}
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		fine, err := s.giveBack(ctx, tx, loanID, fields)
		res.Fine = fine
		return err
	})
	s.record(ctx, "return", fields, err)
	if err != nil {
		return ReturnResult{}, err
	}
	if res.Fine > 0 {
		metrics.FinesAssessed.Observe(res.Fine)
	}
	return res, nil
}

func (s *Service) giveBack(ctx context.Context, tx store.Store, loanID uint, fields logrus.Fields) (float64, error) {
	loan, err := tx.Loans().GetForUpdate(ctx, loanID)
	if err != nil {
		return 0, err
	}
	fields["user_id"], fields["book_id"] = loan.UserID, loan.BookID
	now := s.clock()
	switch loan.Status {
	case models.LoanReturned:
		return 0, ErrAlreadyReturned
	case models.LoanReserved:
		// A reservation never took a copy off the shelf, so closing it
		// leaves stock and fines alone.
		loan.Status = models.LoanReturned
		loan.ReturnedAt = &now
		loan.Fine = 0
		fields["cancelled"] = true
		return 0, tx.Loans().Save(ctx, loan)
	}
	if _, err := tx.Users().GetForUpdate(ctx, loan.UserID); err != nil {
		return 0, err
	}
	book, err := tx.Books().GetForUpdate(ctx, loan.BookID)
	if err != nil {
		return 0, err
	}

	fine := s.fines.Assess(loan.DueAt, now)
	loan.Status = models.LoanReturned
	loan.ReturnedAt = &now
	loan.Fine = fine
	if err := tx.Loans().Save(ctx, loan); err != nil {
		return 0, err
	}
	if err := tx.Books().AdjustAvailable(ctx, book.ID, 1); err != nil {
		return 0, fmt.Errorf("return loan %d: restock book %d: %w", loan.ID, book.ID, err)
	}
	if fine == 0 {
		return 0, nil
	}
	if err := tx.Users().AddFine(ctx, loan.UserID, fine); err != nil {
		return 0, err
	}
	msg := fmt.Sprintf(`You returned "%s" but it was overdue. Estimated Fine: $%.2f`, book.Title, fine)
	if _, err := tx.Notifications().Append(ctx, loan.UserID, msg); err != nil {
		return 0, err
	}
	return fine, nil
}

// Get returns a loan by id.
func (s *Service) Get(ctx context.Context, loanID uint) (*models.Loan, error) {
	return s.store.Loans().Get(ctx, loanID)
}

// OutstandingFines is the user's balance plus the accruing fines of their
// overdue borrowed loans.
func (s *Service) OutstandingFines(ctx context.Context, user *models.User) (float64, error) {
	open, err := s.store.Loans().ListOpenBorrowed(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	return s.fines.Outstanding(user.Fines, open, s.clock()), nil
}

func (s *Service) record(ctx context.Context, op string, fields logrus.Fields, err error) {
	entry := s.log.WithFields(fields).WithField("op", op)
	if rid := logging.RequestID(ctx); rid != "" {
		entry = entry.WithField("request_id", rid)
	}
	if err == nil {
		metrics.RecordLoanOp(op, "ok")
		entry.WithField("outcome", "ok").Info("loan transition")
		return
	}
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		metrics.RecordLoanOp(op, "internal")
		entry.WithField("outcome", "internal").WithError(err).Error("loan transition failed")
		return
	}
	metrics.RecordLoanOp(op, e.Code)
	entry.WithField("outcome", e.Code).Info("loan transition rejected")
}
