package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/squeak-be/internal/http/respond"
	"github.com/hongminglow/squeak-be/internal/models/dto"
	"github.com/hongminglow/squeak-be/internal/service"
)

// AuthHandler owns the register and login endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		respond.Error(w, registerStatus(err), service.MessageOf(err))
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	res, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, statusFor(err, true), service.MessageOf(err))
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		User:     res.User,
		Token:    res.Token,
		Status:   http.StatusOK,
		Message:  "logged in",
		LoggedIn: true,
	})
}

// registerStatus keeps register's public contract: a duplicate account is
// reported as 500 with the "user already exists" message.
func registerStatus(err error) int {
	if service.KindOf(err) == service.KindConflict {
		return http.StatusInternalServerError
	}
	return statusFor(err, false)
}
