package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/bot"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/handler"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/testutil"
)

func createBotHandler(t *testing.T, db *gorm.DB) *handler.BotHandler {
	// Empty app id disables webhook token validation (emulator mode)
	return createBotHandlerWithConfig(t, db, &config.BotConfig{})
}

func createBotHandlerWithConfig(t *testing.T, db *gorm.DB, cfg *config.BotConfig) *handler.BotHandler {
	t.Helper()
	logger := zap.NewNop()
	meService := service.NewMessagingExtensionService(repository.NewPostRepository(db), logger)
	botService := service.NewBotService(
		repository.NewTeamRepository(db),
		repository.NewTeamTagRepository(db),
		repository.NewTeamPreferenceRepository(db),
		meService,
		&stubConnector{},
		logger,
	)

	authenticator := bot.NewAuthenticator(cfg)
	return handler.NewBotHandler(botService, authenticator, logger)
}

func TestBotHandler_Messages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createBotHandler(t, db)

	t.Run("malformed payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader([]byte("{nope")))
		rr := httptest.NewRecorder()

		h.Messages(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("install is acknowledged with empty body", func(t *testing.T) {
		botID := "28:bot-app-id"
		activity := domain.Activity{
			Type:         domain.ActivityTypeConversationUpdate,
			ServiceURL:   "https://smba.trafficmanager.net/emea/",
			Recipient:    &domain.ChannelAccount{ID: botID},
			From:         &domain.ChannelAccount{ID: "29:user", Name: "Installer", AadObjectID: uuid.NewString()},
			Conversation: &domain.ConversationInfo{ID: "conversation-id"},
			MembersAdded: []domain.ChannelAccount{{ID: botID}},
			ChannelData: &domain.TeamsChannelData{
				Team:   &domain.TeamInfo{ID: "19:engineering@thread.tacv2", Name: "Engineering"},
				Tenant: &domain.TenantInfo{ID: "tenant-1"},
			},
		}
		body, _ := json.Marshal(activity)

		req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Messages(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Body.String())

		team, err := repository.NewTeamRepository(db).GetByTeamID(req.Context(), "19:engineering@thread.tacv2")
		require.NoError(t, err)
		assert.Equal(t, "Engineering", team.Name)
	})

	t.Run("messaging extension query gets a body", func(t *testing.T) {
		testutil.CreateTestPost(t, db, uuid.NewString(), "Searchable Go Post", domain.PostTypeArticle, "go")

		activity := domain.Activity{
			Type: domain.ActivityTypeInvoke,
			Name: domain.InvokeNameMessagingExtensionQuery,
			Value: &domain.MessagingExtensionValue{
				Parameters: []domain.MessagingExtensionParameter{{Name: "searchQuery", Value: "searchable"}},
			},
		}
		body, _ := json.Marshal(activity)

		req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		h.Messages(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp domain.MessagingExtensionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "result", resp.ComposeExtension.Type)
		require.Len(t, resp.ComposeExtension.Attachments, 1)
	})
}

func TestBotHandler_TenantRestriction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createBotHandlerWithConfig(t, db, &config.BotConfig{TenantId: "tenant-1"})

	postActivity := func(tenantID string) *httptest.ResponseRecorder {
		activity := domain.Activity{
			Type:         domain.ActivityTypeMessage,
			Text:         "help",
			ServiceURL:   "https://smba.trafficmanager.net/emea/",
			Conversation: &domain.ConversationInfo{ID: "personal-chat"},
		}
		if tenantID != "" {
			activity.ChannelData = &domain.TeamsChannelData{Tenant: &domain.TenantInfo{ID: tenantID}}
		}
		body, _ := json.Marshal(activity)

		req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		h.Messages(rr, req)
		return rr
	}

	t.Run("configured tenant is accepted", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, postActivity("tenant-1").Code)
	})

	t.Run("foreign tenant is rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, postActivity("tenant-2").Code)
	})

	t.Run("activity without tenant data is rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, postActivity("").Code)
	})
}
