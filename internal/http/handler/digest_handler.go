package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
)

// DigestHandler exposes digest delivery history and a manual trigger for
// admin API key callers.
type DigestHandler struct {
	digestService *service.DigestService
	logger        *zap.Logger
}

func NewDigestHandler(digestService *service.DigestService, logger *zap.Logger) *DigestHandler {
	return &DigestHandler{
		digestService: digestService,
		logger:        logger,
	}
}

// ListLogs godoc
// @Summary List digest delivery logs
// @Description Recent digest delivery records, optionally scoped to one team. Admin only.
// @Tags Digests
// @Produce json
// @Param teamId query string false "Filter by team ID"
// @Param limit query int false "Maximum records" default(50)
// @Success 200 {array} domain.DigestLogDTO
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /digests/logs [get]
func (h *DigestHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())
	if !userCtx.IsAdmin {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, err := h.digestService.ListLogs(r.Context(), r.URL.Query().Get("teamId"), limit)
	if err != nil {
		h.logger.Error("failed to list digest logs", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list digest logs")
		return
	}

	respondJSON(w, http.StatusOK, logs)
}

// Trigger godoc
// @Summary Trigger a digest run
// @Description Run the digest batch for one frequency immediately. Admin only.
// @Tags Digests
// @Produce json
// @Param frequency query string true "Digest frequency" Enums(weekly, monthly)
// @Success 200 {object} map[string]int
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /digests/run [post]
func (h *DigestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	userCtx := auth.MustFromContext(r.Context())
	if !userCtx.IsAdmin {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}

	frequency := r.URL.Query().Get("frequency")
	if !domain.IsValidDigestFrequency(frequency) {
		respondWithError(w, http.StatusBadRequest, "frequency must be weekly or monthly")
		return
	}

	sent, failed, skipped, err := h.digestService.SendDigests(r.Context(), domain.DigestFrequency(frequency))
	if err != nil {
		h.logger.Error("manual digest run failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Digest run failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{
		"sent":    sent,
		"failed":  failed,
		"skipped": skipped,
	})
}
