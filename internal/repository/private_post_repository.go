package repository

import (
	"context"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PrivatePostRepository struct {
	db *gorm.DB
}

func NewPrivatePostRepository(db *gorm.DB) *PrivatePostRepository {
	return &PrivatePostRepository{db: db}
}

func (r *PrivatePostRepository) Create(ctx context.Context, privatePost *domain.PrivatePost) error {
	return r.db.WithContext(ctx).Create(privatePost).Error
}

func (r *PrivatePostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PrivatePost, error) {
	var privatePost domain.PrivatePost
	err := r.db.WithContext(ctx).
		Preload("Post").
		First(&privatePost, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &privatePost, nil
}

// ListByUser returns the user's saved posts newest-saved first, with the
// underlying post preloaded
func (r *PrivatePostRepository) ListByUser(ctx context.Context, userObjectID string) ([]domain.PrivatePost, error) {
	var privatePosts []domain.PrivatePost
	err := r.db.WithContext(ctx).
		Preload("Post").
		Where("user_object_id = ?", userObjectID).
		Order("created_at DESC").
		Find(&privatePosts).Error
	return privatePosts, err
}

func (r *PrivatePostRepository) Exists(ctx context.Context, postID uuid.UUID, userObjectID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PrivatePost{}).
		Where("post_id = ? AND user_object_id = ?", postID, userObjectID).
		Count(&count).Error
	return count > 0, err
}

func (r *PrivatePostRepository) Delete(ctx context.Context, id uuid.UUID, userObjectID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_object_id = ?", id, userObjectID).
		Delete(&domain.PrivatePost{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
