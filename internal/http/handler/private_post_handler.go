package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
)

type PrivatePostHandler struct {
	privatePostService *service.PrivatePostService
	logger             *zap.Logger
}

func NewPrivatePostHandler(privatePostService *service.PrivatePostService, logger *zap.Logger) *PrivatePostHandler {
	return &PrivatePostHandler{
		privatePostService: privatePostService,
		logger:             logger,
	}
}

// Save godoc
// @Summary Save post to private list
// @Tags PrivatePosts
// @Accept json
// @Produce json
// @Param request body domain.SavePrivatePostRequest true "Post to save"
// @Success 201 {object} domain.PrivatePostDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /privateposts [post]
func (h *PrivatePostHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req domain.SavePrivatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	privatePost, err := h.privatePostService.Save(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Post not found")
		case errors.Is(err, service.ErrAlreadySaved):
			respondWithError(w, http.StatusConflict, "Post already in private list")
		default:
			h.logger.Error("failed to save private post", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to save private post")
		}
		return
	}

	respondJSON(w, http.StatusCreated, privatePost)
}

// List godoc
// @Summary List private posts
// @Description List the caller's private reading list, newest-saved first
// @Tags PrivatePosts
// @Produce json
// @Success 200 {array} domain.PrivatePostDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /privateposts [get]
func (h *PrivatePostHandler) List(w http.ResponseWriter, r *http.Request) {
	privatePosts, err := h.privatePostService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list private posts", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list private posts")
		return
	}

	respondJSON(w, http.StatusOK, privatePosts)
}

// Delete godoc
// @Summary Remove post from private list
// @Tags PrivatePosts
// @Param id path string true "Private post ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /privateposts/{id} [delete]
func (h *PrivatePostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid private post ID format")
		return
	}

	if err := h.privatePostService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Private post not found")
			return
		}
		h.logger.Error("failed to delete private post", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete private post")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
