package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/bot"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
)

// BotHandler receives Bot Framework activities on the /api/messages
// webhook. Requests are authenticated against the Bot Connector's signing
// keys, not the app's Azure AD tenant.
type BotHandler struct {
	botService    *service.BotService
	authenticator *bot.Authenticator
	logger        *zap.Logger
}

func NewBotHandler(botService *service.BotService, authenticator *bot.Authenticator, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		botService:    botService,
		authenticator: authenticator,
		logger:        logger,
	}
}

// Messages handles one inbound activity. Invoke activities get their
// response in the HTTP body; everything else is acknowledged with 200 and
// answered through the connector.
func (h *BotHandler) Messages(w http.ResponseWriter, r *http.Request) {
	if err := h.authenticator.ValidateAuthHeader(r.Header.Get("Authorization")); err != nil {
		h.logger.Warn("bot webhook authentication failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err))
		respondWithError(w, http.StatusUnauthorized, "Invalid connector token")
		return
	}

	var activity domain.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid activity payload")
		return
	}

	if err := h.authenticator.ValidateTenant(&activity); err != nil {
		h.logger.Warn("bot activity rejected",
			zap.String("activity_type", activity.Type),
			zap.Error(err))
		respondWithError(w, http.StatusForbidden, "Activity tenant not allowed")
		return
	}

	response, err := h.botService.HandleActivity(r.Context(), &activity)
	if err != nil {
		h.logger.Error("failed to handle bot activity",
			zap.String("activity_type", activity.Type),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to handle activity")
		return
	}

	if response != nil {
		respondJSON(w, http.StatusOK, response)
		return
	}
	w.WriteHeader(http.StatusOK)
}
