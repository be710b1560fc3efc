package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diewo77/bookbuddy/auth"
	"github.com/diewo77/bookbuddy/gate"
	"github.com/diewo77/bookbuddy/internal/apperr"
	"github.com/diewo77/bookbuddy/internal/loans"
	"github.com/diewo77/bookbuddy/internal/models"
	"github.com/diewo77/bookbuddy/internal/report"
	"github.com/diewo77/bookbuddy/internal/store"
	"github.com/diewo77/bookbuddy/validation"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid_credentials", "Invalid email or password")
	ErrInvalidRole        = apperr.New(apperr.KindValidation, "invalid_role", "Invalid role")
)

const minPasswordLength = 6

// RoleInvalidator drops cached roles after a change.
type RoleInvalidator interface {
	InvalidateUser(userID uint)
}

// Profile is the account as shown to clients. Fines is the live figure: the
// stored balance plus what open overdue loans have accrued so far.
type Profile struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           gate.Role `json:"role"`
	BorrowingLimit int       `json:"borrowingLimit"`
	Fines          float64   `json:"fines"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      *Profile  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (in RegisterInput) Validate() error {
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	validation.MinLength("password", in.Password, minPasswordLength, v)
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (in ProfileInput) Validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

// AccountService covers registration, login and profile maintenance.
type AccountService struct {
	store        store.Store
	tokens       *auth.Tokens
	engine       *loans.Service
	reports      *report.Reporter
	roles        RoleInvalidator
	defaultLimit int
}

func NewAccountService(st store.Store, tokens *auth.Tokens, engine *loans.Service, reports *report.Reporter, roles RoleInvalidator, defaultLimit int) *AccountService {
	return &AccountService{
		store:        st,
		tokens:       tokens,
		engine:       engine,
		reports:      reports,
		roles:        roles,
		defaultLimit: defaultLimit,
	}
}

// Register creates a member account and signs the user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:          in.Email,
		Name:           strings.TrimSpace(in.Name),
		PasswordHash:   hash,
		Role:           gate.RoleUser,
		BorrowingLimit: s.defaultLimit,
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	return s.signIn(ctx, u)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.store.Users().GetByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(ctx, u)
}

func (s *AccountService) signIn(ctx context.Context, u *models.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, err
	}
	p, err := s.profileOf(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: p, Token: token, ExpiresAt: exp}, nil
}

// Profile returns the account with its live fine figure.
func (s *AccountService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, u)
}

func (s *AccountService) profileOf(ctx context.Context, u *models.User) (*Profile, error) {
	fines, err := s.engine.OutstandingFines(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		BorrowingLimit: u.BorrowingLimit,
		Fines:          fines,
		CreatedAt:      u.CreatedAt,
	}, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.store.Users().UpdateProfile(ctx, userID, in.Name, in.Email)
	if err != nil {
		return nil, err
	}
	return s.profileOf(ctx, u)
}

// PayFine lowers the stored balance by amount, never below zero.
func (s *AccountService) PayFine(ctx context.Context, userID uint, amount float64) (*Profile, error) {
	v := validation.Violations{}
	validation.PositiveFloat("amount", amount, v)
	if !v.Empty() {
		return nil, apperr.Invalid(v)
	}
	if err := s.store.Users().ReduceFine(ctx, userID, loans.RoundCents(amount)); err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

func (s *AccountService) ClearFine(ctx context.Context, userID uint) (*Profile, error) {
	if err := s.store.Users().ClearFine(ctx, userID); err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

// UpdateRole changes a user's role and drops their cached role.
func (s *AccountService) UpdateRole(ctx context.Context, userID uint, role string) (*Profile, error) {
	r, err := gate.ParseRole(role)
	if err != nil {
		return nil, ErrInvalidRole
	}
	u, err := s.store.Users().UpdateRole(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	if s.roles != nil {
		s.roles.InvalidateUser(userID)
	}
	return s.profileOf(ctx, u)
}

// List returns accounts filtered by role and a name/email search.
func (s *AccountService) List(ctx context.Context, role, search string) ([]report.UserRow, error) {
	f := report.UserFilter{Search: search}
	if strings.TrimSpace(role) != "" {
		r, err := gate.ParseRole(role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		f.Role = r
	}
	return s.reports.ListUsers(ctx, f)
}
