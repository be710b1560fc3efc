package handlers

import (
	"net/http"

	"github.com/diewo77/bookbuddy/httpx"
	"github.com/diewo77/bookbuddy/internal/services"
)

type AuthHandler struct {
	accounts *services.AccountService
}

func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type authResponse struct {
	Success bool `json:"success"`
	*services.AuthResult
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, authResponse{Success: true, AuthResult: res})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, authResponse{Success: true, AuthResult: res})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.accounts.Profile(r.Context(), currentUser(r))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
