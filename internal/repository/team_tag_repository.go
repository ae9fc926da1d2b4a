package repository

import (
	"context"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamTagRepository struct {
	db *gorm.DB
}

func NewTeamTagRepository(db *gorm.DB) *TeamTagRepository {
	return &TeamTagRepository{db: db}
}

// Upsert inserts or replaces the team's tag configuration
func (r *TeamTagRepository) Upsert(ctx context.Context, teamTag *domain.TeamTag) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tags", "updated_by_name", "updated_by_object_id", "updated_at"}),
		}).
		Create(teamTag).Error
}

func (r *TeamTagRepository) GetByTeamID(ctx context.Context, teamID string) (*domain.TeamTag, error) {
	var teamTag domain.TeamTag
	err := r.db.WithContext(ctx).First(&teamTag, "team_id = ?", teamID).Error
	if err != nil {
		return nil, err
	}
	return &teamTag, nil
}

func (r *TeamTagRepository) Delete(ctx context.Context, teamID string) error {
	return r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&domain.TeamTag{}).Error
}
