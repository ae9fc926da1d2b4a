package repository

import (
	"context"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamPreferenceRepository struct {
	db *gorm.DB
}

func NewTeamPreferenceRepository(db *gorm.DB) *TeamPreferenceRepository {
	return &TeamPreferenceRepository{db: db}
}

// Upsert inserts or replaces the team's digest preference
func (r *TeamPreferenceRepository) Upsert(ctx context.Context, pref *domain.TeamPreference) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"digest_frequency", "tags", "service_url", "conversation_id",
				"updated_by_name", "updated_by_object_id", "updated_at",
			}),
		}).
		Create(pref).Error
}

func (r *TeamPreferenceRepository) GetByTeamID(ctx context.Context, teamID string) (*domain.TeamPreference, error) {
	var pref domain.TeamPreference
	err := r.db.WithContext(ctx).First(&pref, "team_id = ?", teamID).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// ListByFrequency returns every team preference with the given digest
// frequency; the digest dispatcher iterates this set
func (r *TeamPreferenceRepository) ListByFrequency(ctx context.Context, frequency domain.DigestFrequency) ([]domain.TeamPreference, error) {
	var prefs []domain.TeamPreference
	err := r.db.WithContext(ctx).
		Where("digest_frequency = ?", frequency).
		Order("team_id").
		Find(&prefs).Error
	return prefs, err
}

func (r *TeamPreferenceRepository) Delete(ctx context.Context, teamID string) error {
	return r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Delete(&domain.TeamPreference{}).Error
}
