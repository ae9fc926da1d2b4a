package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
	logger      *zap.Logger
}

func NewFeedHandler(feedService *service.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// splitParam splits a comma-separated query value, dropping empties
func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSort(value string) repository.PostSort {
	if value == string(repository.PostSortPopularity) {
		return repository.PostSortPopularity
	}
	return repository.PostSortNewest
}

// Discover godoc
// @Summary Discover feed
// @Description Paginated feed of shared posts with optional filters
// @Tags Feed
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 50)" default(20)
// @Param search query string false "Search in post titles"
// @Param types query string false "Comma-separated post types"
// @Param tags query string false "Comma-separated tags (contains any)"
// @Param authors query string false "Comma-separated author names"
// @Param sortBy query string false "Sort option" Enums(newest, popularity)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PostDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /feed [get]
func (h *FeedHandler) Discover(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	filter := repository.PostFilter{
		Search:  r.URL.Query().Get("search"),
		Types:   splitParam(r.URL.Query().Get("types")),
		Tags:    splitParam(r.URL.Query().Get("tags")),
		Authors: splitParam(r.URL.Query().Get("authors")),
		Sort:    parseSort(r.URL.Query().Get("sortBy")),
	}

	result, err := h.feedService.Discover(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("failed to render discover feed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load feed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// TeamFeed godoc
// @Summary Team feed
// @Description Discover feed narrowed to the team's configured tags
// @Tags Feed
// @Produce json
// @Param teamId path string true "Team ID"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 50)" default(20)
// @Param sortBy query string false "Sort option" Enums(newest, popularity)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PostDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /feed/team/{teamId} [get]
func (h *FeedHandler) TeamFeed(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamId")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	sortBy := parseSort(r.URL.Query().Get("sortBy"))

	result, err := h.feedService.TeamFeed(r.Context(), teamID, sortBy, page, pageSize)
	if err != nil {
		h.logger.Error("failed to render team feed",
			zap.String("team_id", teamID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load team feed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Filters godoc
// @Summary Feed filter metadata
// @Description Unique tags, authors and types for the feed filter dropdowns
// @Tags Feed
// @Produce json
// @Success 200 {object} domain.FeedFiltersDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /feed/filters [get]
func (h *FeedHandler) Filters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.feedService.Filters(r.Context())
	if err != nil {
		h.logger.Error("failed to collect feed filters", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to load filters")
		return
	}

	respondJSON(w, http.StatusOK, filters)
}
