package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/http/respond"
	"github.com/hongminglow/squeak-be/internal/models"
	"github.com/hongminglow/squeak-be/internal/models/dto"
	"github.com/hongminglow/squeak-be/internal/service"
)

// UserHandler serves user reads and self-service mutations.
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler constructs the handler.
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Register attaches user routes to the router.
func (h *UserHandler) Register(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

// handleList serves GET /api/users, filtered by ?user={username} when given.
func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		users []models.PublicUser
		err   error
	)
	if username := r.URL.Query().Get("user"); username != "" {
		users, err = h.accounts.FindUsersByUsername(r.Context(), username)
	} else {
		users, err = h.accounts.ListUsers(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := decodeOptional(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.UserID != "" && !auth.OwnsResource(principal.UserID, req.UserID) {
		respond.Error(w, http.StatusUnauthorized, "you can only update your account")
		return
	}

	user, err := h.accounts.UpdateUser(r.Context(), principal, chi.URLParam(r, "id"), models.UserUpdate{
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req dto.DeleteUserRequest
	if err := decodeOptional(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.UserID != "" && !auth.OwnsResource(principal.UserID, req.UserID) {
		respond.Error(w, http.StatusUnauthorized, "you can delete only your account")
		return
	}

	res, err := h.accounts.DeleteUser(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.DeleteUserResponse{
		Message:      "user has been deleted",
		PostsDeleted: res.PostsDeleted,
	})
}

// requirePrincipal writes a 401 and returns false when the request carries
// no authenticated principal.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return principal, ok
}
