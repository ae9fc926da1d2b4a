package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
)

type TeamHandler struct {
	teamSettingService *service.TeamSettingService
	logger             *zap.Logger
}

func NewTeamHandler(teamSettingService *service.TeamSettingService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamSettingService: teamSettingService,
		logger:             logger,
	}
}

// GetTags godoc
// @Summary Get team tags
// @Tags Teams
// @Produce json
// @Param teamId path string true "Team ID"
// @Success 200 {object} domain.TeamTagDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /teams/{teamId}/tags [get]
func (h *TeamHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")

	tags, err := h.teamSettingService.GetTags(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotConfigured) {
			respondWithError(w, http.StatusNotFound, "Team has no tag configuration")
			return
		}
		h.logger.Error("failed to get team tags", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get team tags")
		return
	}

	respondJSON(w, http.StatusOK, tags)
}

// UpdateTags godoc
// @Summary Update team tags
// @Description Replace the team's configured content tags
// @Tags Teams
// @Accept json
// @Produce json
// @Param teamId path string true "Team ID"
// @Param request body domain.UpdateTeamTagRequest true "Tag configuration"
// @Success 200 {object} domain.TeamTagDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /teams/{teamId}/tags [put]
func (h *TeamHandler) UpdateTags(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")

	var req domain.UpdateTeamTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	tags, err := h.teamSettingService.UpdateTags(r.Context(), teamID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update team tags", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update team tags")
		return
	}

	respondJSON(w, http.StatusOK, tags)
}

// GetPreference godoc
// @Summary Get team digest preference
// @Tags Teams
// @Produce json
// @Param teamId path string true "Team ID"
// @Success 200 {object} domain.TeamPreferenceDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /teams/{teamId}/preference [get]
func (h *TeamHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")

	pref, err := h.teamSettingService.GetPreference(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, service.ErrTeamNotConfigured) {
			respondWithError(w, http.StatusNotFound, "Team has no digest preference")
			return
		}
		h.logger.Error("failed to get team preference", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get team preference")
		return
	}

	respondJSON(w, http.StatusOK, pref)
}

// UpdatePreference godoc
// @Summary Update team digest preference
// @Description Replace the team's digest frequency and tags
// @Tags Teams
// @Accept json
// @Produce json
// @Param teamId path string true "Team ID"
// @Param request body domain.UpdateTeamPreferenceRequest true "Digest preference"
// @Success 200 {object} domain.TeamPreferenceDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /teams/{teamId}/preference [put]
func (h *TeamHandler) UpdatePreference(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")

	var req domain.UpdateTeamPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	pref, err := h.teamSettingService.UpdatePreference(r.Context(), teamID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update team preference", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update team preference")
		return
	}

	respondJSON(w, http.StatusOK, pref)
}
