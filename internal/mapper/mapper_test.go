package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/mapper"
)

func TestToPostDTO(t *testing.T) {
	createdAt := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	post := &domain.Post{
		BaseModel:         domain.BaseModel{ID: uuid.New(), CreatedAt: createdAt, UpdatedAt: createdAt},
		Title:             "Go Profiling",
		Description:       "pprof in production",
		ContentURL:        "https://example.com/pprof",
		Type:              domain.PostTypeArticle,
		Tags:              "go;profiling",
		CreatedByName:     "Ada",
		CreatedByObjectID: "object-id",
		TotalVotes:        3,
	}

	dto := mapper.ToPostDTO(post, true)
	assert.Equal(t, post.ID, dto.ID)
	assert.Equal(t, "Go Profiling", dto.Title)
	assert.Equal(t, []string{"go", "profiling"}, dto.Tags)
	assert.Equal(t, "object-id", dto.CreatedByID)
	assert.Equal(t, 3, dto.TotalVotes)
	assert.True(t, dto.IsVotedByUser)
	assert.Equal(t, "2026-03-09T10:30:00Z", dto.CreatedAt)
}

func TestToPrivatePostDTO(t *testing.T) {
	post := &domain.Post{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Title:     "Saved",
	}
	privatePost := &domain.PrivatePost{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		PostID:    post.ID,
		Post:      post,
	}

	dto := mapper.ToPrivatePostDTO(privatePost, false)
	assert.Equal(t, privatePost.ID, dto.ID)
	assert.Equal(t, post.ID, dto.Post.ID)
	assert.Equal(t, "Saved", dto.Post.Title)

	t.Run("missing post preload leaves the post zero", func(t *testing.T) {
		dto := mapper.ToPrivatePostDTO(&domain.PrivatePost{}, false)
		assert.Equal(t, uuid.Nil, dto.Post.ID)
	})
}

func TestToDigestLogDTO(t *testing.T) {
	sentAt := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	log := &domain.DigestLog{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		TeamID:    "19:team@thread.tacv2",
		Frequency: domain.DigestFrequencyWeekly,
		PostCount: 5,
		Status:    domain.DigestStatusSent,
		SentAt:    &sentAt,
	}

	dto := mapper.ToDigestLogDTO(log)
	assert.Equal(t, "weekly", dto.Frequency)
	assert.Equal(t, "sent", dto.Status)
	assert.Equal(t, "2026-03-09T10:00:00Z", dto.SentAt)

	t.Run("unsent log has no sent timestamp", func(t *testing.T) {
		log.SentAt = nil
		log.Status = domain.DigestStatusSkipped
		dto := mapper.ToDigestLogDTO(log)
		assert.Empty(t, dto.SentAt)
	})
}
