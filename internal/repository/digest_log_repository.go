package repository

import (
	"context"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"gorm.io/gorm"
)

type DigestLogRepository struct {
	db *gorm.DB
}

func NewDigestLogRepository(db *gorm.DB) *DigestLogRepository {
	return &DigestLogRepository{db: db}
}

func (r *DigestLogRepository) Create(ctx context.Context, log *domain.DigestLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByTeam returns the delivery history for one team, newest first
func (r *DigestLogRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]domain.DigestLog, error) {
	var logs []domain.DigestLog
	query := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&logs).Error
	return logs, err
}

// ListRecent returns the most recent delivery records across all teams
func (r *DigestLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.DigestLog, error) {
	var logs []domain.DigestLog
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&logs).Error
	return logs, err
}
