package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/mapper"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
)

// TeamSettingService manages a team's tag configuration and digest
// preference. Delivery coordinates on the preference are copied from the
// bot install record so the digest dispatcher never has to join.
type TeamSettingService struct {
	teamTagRepo  *repository.TeamTagRepository
	teamPrefRepo *repository.TeamPreferenceRepository
	teamRepo     *repository.TeamRepository
	logger       *zap.Logger
}

func NewTeamSettingService(
	teamTagRepo *repository.TeamTagRepository,
	teamPrefRepo *repository.TeamPreferenceRepository,
	teamRepo *repository.TeamRepository,
	logger *zap.Logger,
) *TeamSettingService {
	return &TeamSettingService{
		teamTagRepo:  teamTagRepo,
		teamPrefRepo: teamPrefRepo,
		teamRepo:     teamRepo,
		logger:       logger,
	}
}

// GetTags returns the team's configured tags, or ErrTeamNotConfigured
func (s *TeamSettingService) GetTags(ctx context.Context, teamID string) (*domain.TeamTagDTO, error) {
	teamTag, err := s.teamTagRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotConfigured
		}
		return nil, fmt.Errorf("failed to get team tags: %w", err)
	}

	dto := mapper.ToTeamTagDTO(teamTag)
	return &dto, nil
}

// UpdateTags replaces the team's tag configuration
func (s *TeamSettingService) UpdateTags(ctx context.Context, teamID string, req *domain.UpdateTeamTagRequest) (*domain.TeamTagDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	teamTag := &domain.TeamTag{
		TeamID:            teamID,
		Tags:              domain.JoinTags(tags),
		UpdatedByName:     userCtx.DisplayName,
		UpdatedByObjectID: userCtx.ObjectID,
	}
	if err := s.teamTagRepo.Upsert(ctx, teamTag); err != nil {
		return nil, fmt.Errorf("failed to update team tags: %w", err)
	}

	s.logger.Info("team tags updated",
		zap.String("team_id", teamID),
		zap.Int("tag_count", len(tags)),
		zap.String("updated_by", userCtx.ObjectID))

	dto := mapper.ToTeamTagDTO(teamTag)
	return &dto, nil
}

// GetPreference returns the team's digest preference, or ErrTeamNotConfigured
func (s *TeamSettingService) GetPreference(ctx context.Context, teamID string) (*domain.TeamPreferenceDTO, error) {
	pref, err := s.teamPrefRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotConfigured
		}
		return nil, fmt.Errorf("failed to get team preference: %w", err)
	}

	dto := mapper.ToTeamPreferenceDTO(pref)
	return &dto, nil
}

// UpdatePreference replaces the team's digest preference. The delivery
// coordinates are refreshed from the bot install record when present; a
// preference saved before the bot is installed stays undeliverable and
// the digest run records it as skipped.
func (s *TeamSettingService) UpdatePreference(ctx context.Context, teamID string, req *domain.UpdateTeamPreferenceRequest) (*domain.TeamPreferenceDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	if !domain.IsValidDigestFrequency(req.DigestFrequency) {
		return nil, fmt.Errorf("%w: unknown digest frequency %q", ErrInvalidInput, req.DigestFrequency)
	}

	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	pref := &domain.TeamPreference{
		TeamID:            teamID,
		DigestFrequency:   domain.DigestFrequency(req.DigestFrequency),
		Tags:              domain.JoinTags(tags),
		UpdatedByName:     userCtx.DisplayName,
		UpdatedByObjectID: userCtx.ObjectID,
	}

	team, err := s.teamRepo.GetByTeamID(ctx, teamID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get team record: %w", err)
	}
	if team != nil {
		pref.ServiceURL = team.ServiceURL
		pref.ConversationID = team.TeamID
	}

	if err := s.teamPrefRepo.Upsert(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to update team preference: %w", err)
	}

	s.logger.Info("team preference updated",
		zap.String("team_id", teamID),
		zap.String("frequency", req.DigestFrequency),
		zap.String("updated_by", userCtx.ObjectID))

	dto := mapper.ToTeamPreferenceDTO(pref)
	return &dto, nil
}
