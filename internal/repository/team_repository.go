package repository

import (
	"context"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Upsert records a bot installation, refreshing the service URL if the
// team record already exists (service URLs can change between regions)
func (r *TeamRepository) Upsert(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "service_url", "tenant_id",
				"installed_by_name", "installed_by_object_id", "updated_at",
			}),
		}).
		Create(team).Error
}

func (r *TeamRepository) GetByTeamID(ctx context.Context, teamID string) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).First(&team, "team_id = ?", teamID).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	err := r.db.WithContext(ctx).Order("team_id").Find(&teams).Error
	return teams, err
}

// Delete removes the team record on bot uninstall
func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	return r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&domain.Team{}).Error
}
