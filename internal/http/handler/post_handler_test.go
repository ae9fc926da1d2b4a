package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/http/handler"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/testutil"
)

func createPostHandler(t *testing.T, db *gorm.DB) *handler.PostHandler {
	logger := zap.NewNop()
	postRepo := repository.NewPostRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	postService := service.NewPostService(postRepo, voteRepo, nil, logger)
	return handler.NewPostHandler(postService, logger)
}

func requestContext(objectID string, name string) context.Context {
	userCtx := &auth.UserContext{
		ObjectID:    objectID,
		DisplayName: name,
		Email:       "test@example.com",
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func adminRequestContext() context.Context {
	userCtx := &auth.UserContext{
		ObjectID:    "00000000-0000-0000-0000-000000000000",
		DisplayName: "System",
		IsAdmin:     true,
	}
	return auth.WithUserContext(context.Background(), userCtx)
}

func withURLParam(ctx context.Context, key string, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func TestPostHandler_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPostHandler(t, db)
	ctx := requestContext("user-1", "Ada Lovelace")

	t.Run("creates a post", func(t *testing.T) {
		body, _ := json.Marshal(domain.CreatePostRequest{
			Title:       "Go Concurrency Patterns",
			Description: "Pipelines and cancellation",
			ContentURL:  "https://example.com/go-concurrency",
			Type:        "article",
			Tags:        []string{"go", "concurrency"},
		})

		req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var result domain.PostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, "Go Concurrency Patterns", result.Title)
		assert.Equal(t, "Ada Lovelace", result.CreatedByName)
		assert.Equal(t, []string{"go", "concurrency"}, result.Tags)
		assert.NotEqual(t, uuid.Nil, result.ID)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader([]byte("{not json")))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects missing fields with field errors", func(t *testing.T) {
		body, _ := json.Marshal(domain.CreatePostRequest{
			Title: "No URL or type",
		})

		req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var apiErr domain.APIError
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "contentUrl")
		assert.Contains(t, apiErr.Errors, "type")
	})

	t.Run("rejects invalid post type", func(t *testing.T) {
		body, _ := json.Marshal(domain.CreatePostRequest{
			Title:       "Bad type",
			Description: "desc",
			ContentURL:  "https://example.com/x",
			Type:        "magazine",
		})

		req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
		req = req.WithContext(ctx)
		rr := httptest.NewRecorder()

		h.Create(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPostHandler_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPostHandler(t, db)
	ctx := requestContext("user-1", "Ada Lovelace")

	post := testutil.CreateTestPost(t, db, "user-1", "Findable", domain.PostTypeArticle, "go")

	t.Run("returns the post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/"+post.ID.String(), nil)
		req = req.WithContext(withURLParam(ctx, "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.GetByID(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, post.ID, result.ID)
		assert.Equal(t, "Findable", result.Title)
	})

	t.Run("invalid id format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts/not-a-uuid", nil)
		req = req.WithContext(withURLParam(ctx, "id", "not-a-uuid"))
		rr := httptest.NewRecorder()

		h.GetByID(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/posts/"+id, nil)
		req = req.WithContext(withURLParam(ctx, "id", id))
		rr := httptest.NewRecorder()

		h.GetByID(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPostHandler_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPostHandler(t, db)

	post := testutil.CreateTestPost(t, db, "author-1", "Original", domain.PostTypeArticle, "go")

	update := domain.UpdatePostRequest{
		Title:       "Updated Title",
		Description: "Updated description",
		ContentURL:  "https://example.com/updated",
		Type:        "blog",
		Tags:        []string{"go"},
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		body, _ := json.Marshal(update)
		req := httptest.NewRequest(http.MethodPatch, "/posts/"+post.ID.String(), bytes.NewReader(body))
		req = req.WithContext(withURLParam(requestContext("someone-else", "Mallory"), "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Update(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("author updates own post", func(t *testing.T) {
		body, _ := json.Marshal(update)
		req := httptest.NewRequest(http.MethodPatch, "/posts/"+post.ID.String(), bytes.NewReader(body))
		req = req.WithContext(withURLParam(requestContext("author-1", "Ada Lovelace"), "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Update(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, "Updated Title", result.Title)
		assert.Equal(t, domain.PostTypeBlog, result.Type)
	})

	t.Run("unknown post", func(t *testing.T) {
		id := uuid.New().String()
		body, _ := json.Marshal(update)
		req := httptest.NewRequest(http.MethodPatch, "/posts/"+id, bytes.NewReader(body))
		req = req.WithContext(withURLParam(requestContext("author-1", "Ada Lovelace"), "id", id))
		rr := httptest.NewRecorder()

		h.Update(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPostHandler_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPostHandler(t, db)

	t.Run("stranger is forbidden", func(t *testing.T) {
		post := testutil.CreateTestPost(t, db, "author-1", "Keep me", domain.PostTypeArticle)

		req := httptest.NewRequest(http.MethodDelete, "/posts/"+post.ID.String(), nil)
		req = req.WithContext(withURLParam(requestContext("someone-else", "Mallory"), "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("author deletes own post", func(t *testing.T) {
		post := testutil.CreateTestPost(t, db, "author-1", "Remove me", domain.PostTypeArticle)

		req := httptest.NewRequest(http.MethodDelete, "/posts/"+post.ID.String(), nil)
		req = req.WithContext(withURLParam(requestContext("author-1", "Ada Lovelace"), "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)

		// Deleted post is no longer retrievable
		req = httptest.NewRequest(http.MethodGet, "/posts/"+post.ID.String(), nil)
		req = req.WithContext(withURLParam(requestContext("author-1", "Ada Lovelace"), "id", post.ID.String()))
		rr = httptest.NewRecorder()
		h.GetByID(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("admin deletes any post", func(t *testing.T) {
		post := testutil.CreateTestPost(t, db, "author-1", "Moderated", domain.PostTypeArticle)

		req := httptest.NewRequest(http.MethodDelete, "/posts/"+post.ID.String(), nil)
		req = req.WithContext(withURLParam(adminRequestContext(), "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Delete(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestPostHandler_VoteAndUnvote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPostHandler(t, db)
	ctx := requestContext("voter-1", "Grace Hopper")

	post := testutil.CreateTestPost(t, db, "author-1", "Votable", domain.PostTypeArticle)

	t.Run("vote succeeds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts/"+post.ID.String()+"/vote", nil)
		req = req.WithContext(withURLParam(ctx, "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Vote(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, 1, result.TotalVotes)
		assert.True(t, result.IsVotedByUser)
	})

	t.Run("second vote conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/posts/"+post.ID.String()+"/vote", nil)
		req = req.WithContext(withURLParam(ctx, "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Vote(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unvote succeeds", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/posts/"+post.ID.String()+"/vote", nil)
		req = req.WithContext(withURLParam(ctx, "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Unvote(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var result domain.PostDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, 0, result.TotalVotes)
		assert.False(t, result.IsVotedByUser)
	})

	t.Run("unvote without vote conflicts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/posts/"+post.ID.String()+"/vote", nil)
		req = req.WithContext(withURLParam(ctx, "id", post.ID.String()))
		rr := httptest.NewRecorder()

		h.Unvote(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("vote on unknown post", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodPost, "/posts/"+id+"/vote", nil)
		req = req.WithContext(withURLParam(ctx, "id", id))
		rr := httptest.NewRecorder()

		h.Vote(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPostHandler_ListMine(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := createPostHandler(t, db)

	testutil.CreateTestPost(t, db, "user-1", "Mine 1", domain.PostTypeArticle)
	testutil.CreateTestPost(t, db, "user-1", "Mine 2", domain.PostTypeBlog)
	testutil.CreateTestPost(t, db, "user-2", "Not mine", domain.PostTypeArticle)

	req := httptest.NewRequest(http.MethodGet, "/posts/mine", nil)
	req = req.WithContext(requestContext("user-1", "Ada Lovelace"))
	rr := httptest.NewRecorder()

	h.ListMine(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var result []domain.PostDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Len(t, result, 2)
	for _, post := range result {
		assert.Equal(t, "user-1", post.CreatedByID)
	}
}
