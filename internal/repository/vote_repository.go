package repository

import (
	"context"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func (r *VoteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

// Delete removes a user's vote on a post. Returns gorm.ErrRecordNotFound
// if no such vote exists.
func (r *VoteRepository) Delete(ctx context.Context, postID uuid.UUID, userObjectID string) error {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_object_id = ?", postID, userObjectID).
		Delete(&domain.Vote{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *VoteRepository) Exists(ctx context.Context, postID uuid.UUID, userObjectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("post_id = ? AND user_object_id = ?", postID, userObjectID).
		Count(&count).Error
	return count > 0, err
}

// PostIDsVotedByUser returns the set of post ids the user has voted on,
// restricted to the given candidates. Used to flag isVotedByUser on feeds
// without a query per post.
func (r *VoteRepository) PostIDsVotedByUser(ctx context.Context, userObjectID string, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	voted := make(map[uuid.UUID]bool)
	if len(postIDs) == 0 {
		return voted, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Vote{}).
		Where("user_object_id = ? AND post_id IN ?", userObjectID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}
