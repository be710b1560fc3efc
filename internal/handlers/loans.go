package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/apperr"
	"github.com/diewo77/bookbuddy/internal/loans"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/policy"
	"github.com/diewo77/bookbuddy/internal/report"
)

var (
	errNotYourLoan   = apperr.New(apperr.KindForbidden, "not_loan_owner", "You can only return your own loans")
	errInvalidStatus = apperr.New(apperr.KindValidation, "invalid_status", "Invalid loan status")
)

type LoanHandler struct {
	engine  *loans.Service
	reports *report.Reporter
	gate    *policy.AuthGate
}

func NewLoanHandler(engine *loans.Service, reports *report.Reporter, ag *policy.AuthGate) *LoanHandler {
	return &LoanHandler{engine: engine, reports: reports, gate: ag}
}

type borrowRequest struct {
	BookID     uint    `json:"bookId"`
	PeriodDays int     `json:"periodDays"`
	Cost       float64 `json:"cost"`
}

type reserveRequest struct {
	BookID uint `json:"bookId"`
}

type returnRequest struct {
	LoanID uint `json:"loanId"`
}

func (h *LoanHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	id, err := h.engine.BorrowBook(r.Context(), loans.BorrowInput{
		UserID:     currentUser(r),
		BookID:     req.BookID,
		PeriodDays: req.PeriodDays,
		Cost:       req.Cost,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "loanId": id})
}

func (h *LoanHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	id, err := h.engine.ReserveBook(r.Context(), loans.ReserveInput{UserID: currentUser(r), BookID: req.BookID})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"success": true, "reservationId": id})
}

// Return lets owners return their loans; staff may return anyone's.
func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if req.LoanID == 0 {
		httpx.Error(w, r, apperr.Invalid(map[string]string{"loanId": "required"}))
		return
	}
	loan, err := h.engine.Get(r.Context(), req.LoanID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.gate.Authorize(r.Context(), gate.ActionReturn, policy.ResourceLoan, loan); err != nil {
		if errors.Is(err, gate.ErrForbidden) {
			err = errNotYourLoan
		}
		httpx.Error(w, r, err)
		return
	}
	res, err := h.engine.ReturnBook(r.Context(), loan.ID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "loanId": res.LoanID, "fine": res.Fine})
}

// Mine lists the caller's loans, newest first.
func (h *LoanHandler) Mine(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.ListLoans(r.Context(), report.LoanFilter{UserID: currentUser(r)})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

// List is the staff view over every loan, filtered by ?status= and ?userId=.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	var f report.LoanFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		st, ok := models.ParseLoanStatus(s)
		if !ok {
			httpx.Error(w, r, errInvalidStatus)
			return
		}
		f.Status = st
	}
	if s := q.Get("userId"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil || n == 0 {
			httpx.Error(w, r, errInvalidID)
			return
		}
		f.UserID = uint(n)
	}
	rows, err := h.reports.ListLoans(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}
