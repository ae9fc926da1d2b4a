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

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/handler"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/testutil"
)

func createPrivatePostHandler(t *testing.T, db *gorm.DB) *handler.PrivatePostHandler {
	logger := zap.NewNop()
	privatePostRepo := repository.NewPrivatePostRepository(db)
	postRepo := repository.NewPostRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	privatePostService := service.NewPrivatePostService(privatePostRepo, postRepo, voteRepo, logger)
	return handler.NewPrivatePostHandler(privatePostService, logger)
}

func TestPrivatePostHandler_Save(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPrivatePostHandler(t, db)
	ctx := requestContext("user-1", "Ada Lovelace")

	post := testutil.CreateTestPost(t, db, "author-1", "Worth reading", domain.PostTypeArticle)

	t.Run("saves a post", func(t *testing.T) {
		body, _ := json.Marshal(domain.SavePrivatePostRequest{PostID: post.ID})
		req := httptest.NewRequest(http.MethodPost, "/privateposts", bytes.NewReader(body))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Save(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var result domain.PrivatePostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, post.ID, result.Post.ID)
		assert.Equal(t, "Worth reading", result.Post.Title)
	})

	t.Run("second save conflicts", func(t *testing.T) {
		body, _ := json.Marshal(domain.SavePrivatePostRequest{PostID: post.ID})
		req := httptest.NewRequest(http.MethodPost, "/privateposts", bytes.NewReader(body))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Save(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		body, _ := json.Marshal(domain.SavePrivatePostRequest{PostID: uuid.New()})
		req := httptest.NewRequest(http.MethodPost, "/privateposts", bytes.NewReader(body))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Save(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/privateposts", bytes.NewReader([]byte("nope")))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Save(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPrivatePostHandler_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPrivatePostHandler(t, db)
	ctx := requestContext("user-1", "Ada Lovelace")

	post := testutil.CreateTestPost(t, db, "author-1", "Saved", domain.PostTypeArticle)

	body, _ := json.Marshal(domain.SavePrivatePostRequest{PostID: post.ID})
	req := httptest.NewRequest(http.MethodPost, "/privateposts", bytes.NewReader(body))
	req = req.WithContext(ctx)
	h.Save(httptest.NewRecorder(), req)

	t.Run("owner sees the saved post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/privateposts", nil)
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.List(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result []domain.PrivatePostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		require.Len(t, result, 1)
		assert.Equal(t, "Saved", result[0].Post.Title)
	})

	t.Run("other user sees an empty list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/privateposts", nil)
		req = req.WithContext(requestContext("user-2", "Grace Hopper"))
		rr := httptest.NewRecorder()

		h.List(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result []domain.PrivatePostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Empty(t, result)
	})
}

func TestPrivatePostHandler_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPrivatePostHandler(t, db)
	ctx := requestContext("user-1", "Ada Lovelace")

	post := testutil.CreateTestPost(t, db, "author-1", "Saved", domain.PostTypeArticle)

	body, _ := json.Marshal(domain.SavePrivatePostRequest{PostID: post.ID})
	saveReq := httptest.NewRequest(http.MethodPost, "/privateposts", bytes.NewReader(body))
	saveReq = saveReq.WithContext(ctx)
	saveRR := httptest.NewRecorder()
	h.Save(saveRR, saveReq)

	var saved domain.PrivatePostDTO
	require.NoError(t, json.Unmarshal(saveRR.Body.Bytes(), &saved))

	t.Run("invalid id format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/privateposts/not-a-uuid", nil)
		req = req.WithContext(withURLParam(ctx, "id", "not-a-uuid"))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/privateposts/"+saved.ID.String(), nil)
		req = req.WithContext(withURLParam(requestContext("user-2", "Grace Hopper"), "id", saved.ID.String()))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/privateposts/"+saved.ID.String(), nil)
		req = req.WithContext(withURLParam(ctx, "id", saved.ID.String()))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/privateposts/"+saved.ID.String(), nil)
		req = req.WithContext(withURLParam(ctx, "id", saved.ID.String()))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
