package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/testutil"
)

func createPostAt(t *testing.T, db *gorm.DB, title string, votes int, createdAt time.Time, tags ...string) *domain.Post {
	t.Helper()
	post := &domain.Post{
		BaseModel:         domain.BaseModel{CreatedAt: createdAt, UpdatedAt: createdAt},
		Title:             title,
		Description:       "Description for " + title,
		ContentURL:        "https://example.com/post",
		Type:              domain.PostTypeArticle,
		Tags:              domain.JoinTags(tags),
		CreatedByName:     "Test User",
		CreatedByObjectID: uuid.NewString(),
		TotalVotes:        votes,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestPostRepository_CreateAndGetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	post := &domain.Post{
		Title:             "Go Generics Deep Dive",
		Description:       "A walkthrough of type parameters",
		ContentURL:        "https://example.com/generics",
		Type:              domain.PostTypeArticle,
		Tags:              "go;generics",
		CreatedByName:     "Ada",
		CreatedByObjectID: uuid.NewString(),
	}
	err := repo.Create(context.Background(), post)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, post.ID)

	t.Run("get existing post", func(t *testing.T) {
		found, err := repo.GetByID(context.Background(), post.ID)
		assert.NoError(t, err)
		assert.Equal(t, post.Title, found.Title)
		assert.Equal(t, []string{"go", "generics"}, found.TagList())
	})

	t.Run("get non-existent post", func(t *testing.T) {
		_, err := repo.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestPostRepository_SoftDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	post := testutil.CreateTestPost(t, db, uuid.NewString(), "Removable", domain.PostTypeBlog)

	err := repo.SoftDelete(context.Background(), post.ID)
	assert.NoError(t, err)

	t.Run("removed post is no longer readable", func(t *testing.T) {
		_, err := repo.GetByID(context.Background(), post.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("row survives for referential integrity", func(t *testing.T) {
		var raw domain.Post
		require.NoError(t, db.First(&raw, "id = ?", post.ID).Error)
		assert.True(t, raw.IsRemoved)
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		err := repo.SoftDelete(context.Background(), post.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestPostRepository_IncrementTotalVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	post := testutil.CreateTestPost(t, db, uuid.NewString(), "Votable", domain.PostTypeVideo)

	require.NoError(t, repo.IncrementTotalVotes(context.Background(), post.ID, 1))
	require.NoError(t, repo.IncrementTotalVotes(context.Background(), post.ID, 1))

	found, err := repo.GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.TotalVotes)

	t.Run("counter clamps at zero", func(t *testing.T) {
		require.NoError(t, repo.IncrementTotalVotes(context.Background(), post.ID, -5))
		found, err := repo.GetByID(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.TotalVotes)
	})

	t.Run("unknown post reports not found", func(t *testing.T) {
		err := repo.IncrementTotalVotes(context.Background(), uuid.New(), 1)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestPostRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := createPostAt(t, db, "Kubernetes Networking", 5, base, "kubernetes", "networking")
	middle := createPostAt(t, db, "Go Error Handling", 9, base.Add(time.Hour), "go")
	newest := createPostAt(t, db, "Redis Caching Patterns", 2, base.Add(2*time.Hour), "redis", "caching")

	removed := createPostAt(t, db, "Removed Post", 0, base.Add(3*time.Hour))
	require.NoError(t, repo.SoftDelete(context.Background(), removed.ID))

	t.Run("default sort is newest first", func(t *testing.T) {
		posts, total, err := repo.List(context.Background(), repository.PostFilter{}, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, posts, 3)
		assert.Equal(t, newest.ID, posts[0].ID)
		assert.Equal(t, oldest.ID, posts[2].ID)
	})

	t.Run("popularity sort orders by votes", func(t *testing.T) {
		posts, _, err := repo.List(context.Background(), repository.PostFilter{Sort: repository.PostSortPopularity}, 1, 10)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, middle.ID, posts[0].ID)
		assert.Equal(t, oldest.ID, posts[1].ID)
		assert.Equal(t, newest.ID, posts[2].ID)
	})

	t.Run("search matches title case-insensitively", func(t *testing.T) {
		posts, total, err := repo.List(context.Background(), repository.PostFilter{Search: "ERROR"}, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, posts, 1)
		assert.Equal(t, middle.ID, posts[0].ID)
	})

	t.Run("tag filter is contains-any", func(t *testing.T) {
		posts, _, err := repo.List(context.Background(), repository.PostFilter{Tags: []string{"networking", "caching"}}, 1, 10)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newest.ID, posts[0].ID)
		assert.Equal(t, oldest.ID, posts[1].ID)
	})

	t.Run("pagination returns the unpaged total", func(t *testing.T) {
		posts, total, err := repo.List(context.Background(), repository.PostFilter{}, 2, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, posts, 1)
		assert.Equal(t, oldest.ID, posts[0].ID)
	})

	t.Run("type filter", func(t *testing.T) {
		posts, _, err := repo.List(context.Background(), repository.PostFilter{Types: []string{string(domain.PostTypeArticle)}}, 1, 10)
		require.NoError(t, err)
		assert.Len(t, posts, 3)

		posts, _, err = repo.List(context.Background(), repository.PostFilter{Types: []string{string(domain.PostTypeBook)}}, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("tag filter matches whole tags only", func(t *testing.T) {
		createPostAt(t, db, "Django Admin Tips", 1, base.Add(4*time.Hour), "django")
		createPostAt(t, db, "Golang Weekly Picks", 1, base.Add(5*time.Hour), "golang")

		posts, _, err := repo.List(context.Background(), repository.PostFilter{Tags: []string{"go"}}, 1, 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, middle.ID, posts[0].ID)
	})

	t.Run("search can widen to tags", func(t *testing.T) {
		tagged := createPostAt(t, db, "Unrelated Title", 0, base.Add(6*time.Hour), "terraform")

		posts, _, err := repo.List(context.Background(), repository.PostFilter{Search: "terraform"}, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, posts)

		posts, _, err = repo.List(context.Background(), repository.PostFilter{Search: "terraform", SearchTags: true}, 1, 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, tagged.ID, posts[0].ID)
	})
}

func TestPostRepository_ListByAuthor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	author := uuid.NewString()
	mine := testutil.CreateTestPost(t, db, author, "Mine", domain.PostTypeBlog)
	testutil.CreateTestPost(t, db, uuid.NewString(), "Someone Else's", domain.PostTypeBlog)

	removed := testutil.CreateTestPost(t, db, author, "Mine Removed", domain.PostTypeBlog)
	require.NoError(t, repo.SoftDelete(context.Background(), removed.ID))

	posts, err := repo.ListByAuthor(context.Background(), author)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, mine.ID, posts[0].ID)
}

func TestPostRepository_ListCreatedBetween(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	inWindow := createPostAt(t, db, "This Week", 0, now.Add(-2*24*time.Hour))
	createPostAt(t, db, "Last Month", 0, now.Add(-20*24*time.Hour))

	posts, err := repo.ListCreatedBetween(context.Background(), now.Add(-7*24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, inWindow.ID, posts[0].ID)
}

func TestPostRepository_FilterMetadata(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPostRepository(db)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	createPostAt(t, db, "Tagged", 0, base, "go", "testing")
	createPostAt(t, db, "Also Tagged", 0, base.Add(time.Minute), "redis")
	createPostAt(t, db, "Untagged", 0, base.Add(2*time.Minute))

	t.Run("tag columns exclude empty", func(t *testing.T) {
		columns, err := repo.AllTagColumns(context.Background())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"go;testing", "redis"}, columns)
	})

	t.Run("authors are distinct and sorted", func(t *testing.T) {
		authors, err := repo.DistinctAuthors(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Test User"}, authors)
	})
}
