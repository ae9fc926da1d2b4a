package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
)

type PostHandler struct {
	postService *service.PostService
	logger      *zap.Logger
}

func NewPostHandler(postService *service.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger,
	}
}

// Create godoc
// @Summary Create post
// @Description Share a new content link with the organization
// @Tags Posts
// @Accept json
// @Produce json
// @Param request body domain.CreatePostRequest true "Post data"
// @Success 201 {object} domain.PostDTO
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts [post]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	post, err := h.postService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create post", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create post")
		return
	}

	respondJSON(w, http.StatusCreated, post)
}

// GetByID godoc
// @Summary Get post by ID
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID" format(uuid)
// @Success 200 {object} domain.PostDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts/{id} [get]
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	post, err := h.postService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Post not found")
			return
		}
		h.logger.Error("failed to get post", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get post")
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Update godoc
// @Summary Update post
// @Description Update a post. Only the author or an admin may update.
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID" format(uuid)
// @Param request body domain.UpdatePostRequest true "Post data"
// @Success 200 {object} domain.PostDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts/{id} [patch]
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	var req domain.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	post, err := h.postService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrPermissionDenied):
			respondWithError(w, http.StatusForbidden, "Only the author may update this post")
		case errors.Is(err, service.ErrInvalidInput):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("failed to update post", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to update post")
		}
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Delete godoc
// @Summary Delete post
// @Description Soft-delete a post. Only the author or an admin may delete.
// @Tags Posts
// @Param id path string true "Post ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	if err := h.postService.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrPermissionDenied):
			respondWithError(w, http.StatusForbidden, "Only the author may delete this post")
		default:
			h.logger.Error("failed to delete post", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to delete post")
		}
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}

// Vote godoc
// @Summary Vote on post
// @Description Record the caller's upvote on a post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID" format(uuid)
// @Success 200 {object} domain.PostDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts/{id}/vote [post]
func (h *PostHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	post, err := h.postService.Vote(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrAlreadyVoted):
			respondWithError(w, http.StatusConflict, "Post already voted")
		default:
			h.logger.Error("failed to vote on post", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to vote on post")
		}
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Unvote godoc
// @Summary Remove vote from post
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID" format(uuid)
// @Success 200 {object} domain.PostDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts/{id}/vote [delete]
func (h *PostHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid post ID format")
		return
	}

	post, err := h.postService.Unvote(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrNotVoted):
			respondWithError(w, http.StatusConflict, "Post not voted")
		default:
			h.logger.Error("failed to remove vote", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to remove vote")
		}
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// ListMine godoc
// @Summary List own posts
// @Description List the caller's posts, newest first
// @Tags Posts
// @Produce json
// @Success 200 {array} domain.PostDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /posts/mine [get]
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())

	posts, err := h.postService.ListByAuthor(r.Context(), userCtx.ObjectID)
	if err != nil {
		h.logger.Error("failed to list own posts", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list posts")
		return
	}

	respondJSON(w, http.StatusOK, posts)
}
