package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/service"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/testutil"
)

// userContext builds an authenticated context for service tests
func userContext(objectID, name string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		ObjectID:    objectID,
		DisplayName: name,
	})
}

// adminContext builds a context authenticated with the admin API key
func adminContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		ObjectID:    "00000000-0000-0000-0000-000000000000",
		DisplayName: "System",
		IsAdmin:     true,
	})
}

func newPostService(db *gorm.DB) *service.PostService {
	return service.NewPostService(
		repository.NewPostRepository(db),
		repository.NewVoteRepository(db),
		nil,
		zap.NewNop(),
	)
}

func validCreateRequest() *domain.CreatePostRequest {
	return &domain.CreatePostRequest{
		Title:       "Go Concurrency Patterns",
		Description: "Pipelines, fan-out and cancellation",
		ContentURL:  "https://example.com/concurrency",
		Type:        string(domain.PostTypeArticle),
		Tags:        []string{"go", "concurrency"},
	}
}

func TestPostService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPostService(db)
	ctx := userContext(uuid.NewString(), "Ada Lovelace")

	t.Run("create post successfully", func(t *testing.T) {
		dto, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, dto.ID)
		assert.Equal(t, "Go Concurrency Patterns", dto.Title)
		assert.Equal(t, domain.PostTypeArticle, dto.Type)
		assert.Equal(t, []string{"go", "concurrency"}, dto.Tags)
		assert.Equal(t, "Ada Lovelace", dto.CreatedByName)
		assert.Zero(t, dto.TotalVotes)
		assert.False(t, dto.IsVotedByUser)
	})

	t.Run("tags are trimmed and deduplicated case-insensitively", func(t *testing.T) {
		req := validCreateRequest()
		req.Tags = []string{" Go ", "go", "", "Testing"}

		dto, err := svc.Create(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"Go", "Testing"}, dto.Tags)
	})

	t.Run("too many tags rejected", func(t *testing.T) {
		req := validCreateRequest()
		req.Tags = []string{"a", "b", "c", "d", "e", "f"}

		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("tag with separator rejected", func(t *testing.T) {
		req := validCreateRequest()
		req.Tags = []string{"go;redis"}

		_, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestPostService_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPostService(db)
	ctx := userContext(uuid.NewString(), "Ada")

	created, err := svc.Create(ctx, validCreateRequest())
	require.NoError(t, err)

	t.Run("get existing post", func(t *testing.T) {
		dto, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Title, dto.Title)
	})

	t.Run("get unknown post", func(t *testing.T) {
		_, err := svc.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestPostService_UpdatePermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPostService(db)

	authorCtx := userContext(uuid.NewString(), "Author")
	created, err := svc.Create(authorCtx, validCreateRequest())
	require.NoError(t, err)

	update := &domain.UpdatePostRequest{
		Title:       "Updated Title",
		Description: "Updated description",
		ContentURL:  "https://example.com/updated",
		Type:        string(domain.PostTypeBlog),
		Tags:        []string{"updated"},
	}

	t.Run("another user may not update", func(t *testing.T) {
		_, err := svc.Update(userContext(uuid.NewString(), "Stranger"), created.ID, update)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("author may update", func(t *testing.T) {
		dto, err := svc.Update(authorCtx, created.ID, update)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", dto.Title)
		assert.Equal(t, domain.PostTypeBlog, dto.Type)
		// Authorship never changes on update
		assert.Equal(t, created.CreatedByID, dto.CreatedByID)
	})

	t.Run("admin may update any post", func(t *testing.T) {
		dto, err := svc.Update(adminContext(), created.ID, update)
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", dto.Title)
	})
}

func TestPostService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPostService(db)

	authorCtx := userContext(uuid.NewString(), "Author")
	created, err := svc.Create(authorCtx, validCreateRequest())
	require.NoError(t, err)

	t.Run("another user may not delete", func(t *testing.T) {
		err := svc.Delete(userContext(uuid.NewString(), "Stranger"), created.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("author may delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(authorCtx, created.ID))

		_, err := svc.GetByID(authorCtx, created.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("deleting again reports not found", func(t *testing.T) {
		err := svc.Delete(authorCtx, created.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestPostService_VoteAndUnvote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPostService(db)

	authorCtx := userContext(uuid.NewString(), "Author")
	created, err := svc.Create(authorCtx, validCreateRequest())
	require.NoError(t, err)

	voterCtx := userContext(uuid.NewString(), "Voter")

	t.Run("vote bumps the counter and flags the caller", func(t *testing.T) {
		dto, err := svc.Vote(voterCtx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, dto.TotalVotes)
		assert.True(t, dto.IsVotedByUser)
	})

	t.Run("double vote rejected", func(t *testing.T) {
		_, err := svc.Vote(voterCtx, created.ID)
		assert.ErrorIs(t, err, service.ErrAlreadyVoted)
	})

	t.Run("counter survives a reread", func(t *testing.T) {
		dto, err := svc.GetByID(voterCtx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, dto.TotalVotes)
		assert.True(t, dto.IsVotedByUser)
	})

	t.Run("unvote restores the counter", func(t *testing.T) {
		dto, err := svc.Unvote(voterCtx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, dto.TotalVotes)
		assert.False(t, dto.IsVotedByUser)
	})

	t.Run("unvote without a vote rejected", func(t *testing.T) {
		_, err := svc.Unvote(voterCtx, created.ID)
		assert.ErrorIs(t, err, service.ErrNotVoted)
	})

	t.Run("vote on unknown post", func(t *testing.T) {
		_, err := svc.Vote(voterCtx, uuid.New())
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestPostService_ListByAuthor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newPostService(db)

	author := uuid.NewString()
	authorCtx := userContext(author, "Author")
	created, err := svc.Create(authorCtx, validCreateRequest())
	require.NoError(t, err)

	otherCtx := userContext(uuid.NewString(), "Other")
	_, err = svc.Create(otherCtx, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Vote(authorCtx, created.ID)
	require.NoError(t, err)

	posts, err := svc.ListByAuthor(authorCtx, author)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, created.ID, posts[0].ID)
	assert.True(t, posts[0].IsVotedByUser)
}
