package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/dbtest"
	"github.com/diewo77/bookbuddy/internal/loans"
	"github.com/diewo77/bookbuddy/internal/policy"
	"github.com/diewo77/bookbuddy/internal/report"
	"github.com/diewo77/bookbuddy/internal/services"
	"github.com/diewo77/bookbuddy/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathID(t *testing.T) {
	for _, tt := range []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.raw)
		got, err := pathID(req, "id")
		if !tt.ok {
			assert.ErrorIs(t, err, errInvalidID, tt.raw)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestBookRequest_AcceptsBothCopyFields(t *testing.T) {
	two, three := 2, 3

	in := bookRequest{TotalCopies: 4, CopiesAvailable: &two}.input()
	require.NotNil(t, in.AvailableCopies)
	assert.Equal(t, 2, *in.AvailableCopies)

	in = bookRequest{TotalCopies: 4, AvailableCopies: &three, CopiesAvailable: &two}.input()
	assert.Equal(t, 3, *in.AvailableCopies)

	in = bookRequest{TotalCopies: 4}.input()
	assert.Nil(t, in.AvailableCopies)
}

func TestBookCreate_DecodesCopiesAvailable(t *testing.T) {
	d := dbtest.Open(t)
	h := NewBookHandler(services.NewCatalogService(store.New(d)))

	body := `{"title":"Emma","author":"Jane Austen","isbn":"9780141439587","totalCopies":4,"copiesAvailable":1,"price":1.5}`
	rr := httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"copiesAvailable":1`)
	assert.Contains(t, rr.Body.String(), `"label":"1 Week"`)

	rr = httptest.NewRecorder()
	h.Create(rr, httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(`{"title":`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoanReturn_StaffMayReturnForMembers(t *testing.T) {
	d := dbtest.Open(t)
	st := store.New(d)
	rep, err := report.FromGorm(d)
	require.NoError(t, err)
	engine := loans.NewService(st, loans.FinePolicy{PerDay: loans.DefaultFinePerDay})
	ag := policy.NewAuthGate(policy.NewDBRoleResolver(st.Users()), time.Minute)
	h := NewLoanHandler(engine, rep, ag)

	member := dbtest.User(t, d, "member@example.com", gate.RoleUser, 5)
	manager := dbtest.User(t, d, "manager@example.com", gate.RoleManager, 5)
	b := dbtest.Book(t, d, "Dune", 1, 2)
	loanID, err := engine.BorrowBook(context.Background(), loans.BorrowInput{UserID: member.ID, BookID: b.ID, PeriodDays: 7, Cost: 2})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/loans/return", strings.NewReader(`{"loanId":`+itoa(loanID)+`}`))
	req = req.WithContext(auth.WithUserID(req.Context(), manager.ID))
	rr := httptest.NewRecorder()
	h.Return(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"success":true`)

	req = httptest.NewRequest(http.MethodPost, "/api/loans/return", strings.NewReader(`{}`))
	req = req.WithContext(auth.WithUserID(req.Context(), member.ID))
	rr = httptest.NewRecorder()
	h.Return(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/loans?status=lost", nil)
	rr = httptest.NewRecorder()
	h.List(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func itoa(n uint) string { return strconv.FormatUint(uint64(n), 10) }
