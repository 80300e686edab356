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

// PostHandler serves the post feed and owner-only post mutations.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler constructs the handler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// Register attaches post routes to the router.
func (h *PostHandler) Register(r chi.Router) {
	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *PostHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		posts []models.Post
		err   error
	)
	if username := r.URL.Query().Get("user"); username != "" {
		posts, err = h.posts.ListPostsByUsername(r.Context(), username)
	} else {
		posts, err = h.posts.ListPosts(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, posts)
}

func (h *PostHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

func (h *PostHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req dto.CreatePostRequest
	if err := decodeOptional(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	post, err := h.posts.CreatePost(r.Context(), principal, service.CreatePostInput{
		Title:    req.Title,
		Desc:     req.Desc,
		Username: req.Username,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

func (h *PostHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req dto.DeletePostRequest
	if err := decodeOptional(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	id := chi.URLParam(r, "id")
	if req.Username != "" {
		// A missing post is reported before any ownership claim is judged.
		if _, err := h.posts.GetPost(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		if !auth.OwnsResource(principal.Username, req.Username) {
			respond.Error(w, http.StatusUnauthorized, "you can delete only your post")
			return
		}
	}

	if err := h.posts.DeletePost(r.Context(), principal, id); err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "post has been deleted"})
}
