package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/handler"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/storage"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/testutil"
)

// stubConnector records nothing and always succeeds; the digest handler
// tests only care about HTTP semantics, not delivery
type stubConnector struct{}

func (c *stubConnector) SendToConversation(_ context.Context, _ string, _ string, _ *domain.Activity) error {
	return nil
}

func createDigestHandler(t *testing.T, db *gorm.DB) *handler.DigestHandler {
	logger := zap.NewNop()
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	digestService := service.NewDigestService(
		repository.NewPostRepository(db),
		repository.NewTeamPreferenceRepository(db),
		repository.NewDigestLogRepository(db),
		&stubConnector{},
		archive,
		&config.DigestConfig{MaxPostsPerDigest: 15},
		logger,
	)
	return handler.NewDigestHandler(digestService, logger)
}

func TestDigestHandler_ListLogs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createDigestHandler(t, db)

	sentAt := time.Now()
	log := &domain.DigestLog{
		TeamID:    "19:team@thread.tacv2",
		Frequency: domain.DigestFrequencyWeekly,
		PostCount: 3,
		Status:    domain.DigestStatusSent,
		SentAt:    &sentAt,
	}
	require.NoError(t, db.Create(log).Error)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/digests/logs", nil)
		req = req.WithContext(requestContext("user-1", "Ada Lovelace"))
		rr := httptest.NewRecorder()

		h.ListLogs(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin lists logs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/digests/logs", nil)
		req = req.WithContext(adminRequestContext())
		rr := httptest.NewRecorder()

		h.ListLogs(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result []domain.DigestLogDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		require.Len(t, result, 1)
		assert.Equal(t, "19:team@thread.tacv2", result[0].TeamID)
		assert.Equal(t, "sent", result[0].Status)
	})

	t.Run("team filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/digests/logs?teamId=19:other@thread.tacv2", nil)
		req = req.WithContext(adminRequestContext())
		rr := httptest.NewRecorder()

		h.ListLogs(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result []domain.DigestLogDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Empty(t, result)
	})
}

func TestDigestHandler_Trigger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createDigestHandler(t, db)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/digests/run?frequency=weekly", nil)
		req = req.WithContext(requestContext("user-1", "Ada Lovelace"))
		rr := httptest.NewRecorder()

		h.Trigger(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("invalid frequency", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/digests/run?frequency=daily", nil)
		req = req.WithContext(adminRequestContext())
		rr := httptest.NewRecorder()

		h.Trigger(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("runs the batch", func(t *testing.T) {
		// One subscribed team with a matching recent post
		teamRepo := repository.NewTeamRepository(db)
		require.NoError(t, teamRepo.Upsert(context.Background(), &domain.Team{
			TeamID:     "19:go-team@thread.tacv2",
			Name:       "Go Team",
			ServiceURL: "https://smba.trafficmanager.net/emea/",
		}))
		prefRepo := repository.NewTeamPreferenceRepository(db)
		require.NoError(t, prefRepo.Upsert(context.Background(), &domain.TeamPreference{
			TeamID:          "19:go-team@thread.tacv2",
			DigestFrequency: domain.DigestFrequencyWeekly,
			Tags:            "go",
			ServiceURL:      "https://smba.trafficmanager.net/emea/",
			ConversationID:  "19:go-team@thread.tacv2",
		}))
		testutil.CreateTestPost(t, db, "author-1", "Fresh Go Post", domain.PostTypeArticle, "go")

		req := httptest.NewRequest(http.MethodPost, "/digests/run?frequency=weekly", nil)
		req = req.WithContext(adminRequestContext())
		rr := httptest.NewRecorder()

		h.Trigger(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result map[string]int
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, 1, result["sent"])
		assert.Equal(t, 0, result["failed"])
		assert.Equal(t, 0, result["skipped"])
	})
}
