package loans

import "github.com/diewo77/bookbuddy/internal/apperr"

var (
	ErrOverdueBlock       = apperr.New(apperr.KindBusinessRule, "overdue_block", "You have overdue books. Please return them first.")
	ErrLimitReached       = apperr.New(apperr.KindBusinessRule, "limit_reached", "You have reached your borrowing limit.")
	ErrNoCopiesAvailable  = apperr.New(apperr.KindBusinessRule, "no_copies_available", "No copies available")
	ErrReservedForOthers  = apperr.New(apperr.KindBusinessRule, "reserved_for_others", "Book is reserved for other users")
	ErrAlreadyBorrowed    = apperr.New(apperr.KindBusinessRule, "already_borrowed", "You already have this book borrowed")
	ErrAlreadyHeld        = apperr.New(apperr.KindBusinessRule, "already_held", "You already have this book borrowed or reserved")
	ErrAlreadyReturned    = apperr.New(apperr.KindBusinessRule, "already_returned", "Book already returned")
	ErrInvalidPricingTier = apperr.New(apperr.KindValidation, "invalid_pricing_tier", "Borrowing period and cost do not match a pricing option for this book")
)
