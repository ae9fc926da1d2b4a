package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/bot"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
)

// BotService handles inbound Bot Framework activities: install and
// uninstall bookkeeping, the help reply, and compose extension queries.
type BotService struct {
	teamRepo     *repository.TeamRepository
	teamTagRepo  *repository.TeamTagRepository
	teamPrefRepo *repository.TeamPreferenceRepository
	meService    *MessagingExtensionService
	connector    bot.Connector
	logger       *zap.Logger
}

func NewBotService(
	teamRepo *repository.TeamRepository,
	teamTagRepo *repository.TeamTagRepository,
	teamPrefRepo *repository.TeamPreferenceRepository,
	meService *MessagingExtensionService,
	connector bot.Connector,
	logger *zap.Logger,
) *BotService {
	return &BotService{
		teamRepo:     teamRepo,
		teamTagRepo:  teamTagRepo,
		teamPrefRepo: teamPrefRepo,
		meService:    meService,
		connector:    connector,
		logger:       logger,
	}
}

// HandleActivity dispatches one inbound activity. The returned response
// is non-nil only for invoke activities; everything else is answered out
// of band through the connector.
func (s *BotService) HandleActivity(ctx context.Context, activity *domain.Activity) (*domain.MessagingExtensionResponse, error) {
	switch activity.Type {
	case domain.ActivityTypeConversationUpdate:
		return nil, s.handleConversationUpdate(ctx, activity)
	case domain.ActivityTypeMessage:
		return nil, s.handleMessage(ctx, activity)
	case domain.ActivityTypeInvoke:
		if activity.Name == domain.InvokeNameMessagingExtensionQuery {
			return s.meService.Query(ctx, activity.Value)
		}
		s.logger.Debug("ignoring unsupported invoke", zap.String("name", activity.Name))
		return nil, nil
	default:
		s.logger.Debug("ignoring activity", zap.String("type", activity.Type))
		return nil, nil
	}
}

// handleConversationUpdate records bot installs and removes team state on
// uninstall
func (s *BotService) handleConversationUpdate(ctx context.Context, activity *domain.Activity) error {
	botID := ""
	if activity.Recipient != nil {
		botID = activity.Recipient.ID
	}

	teamID := teamIDFromActivity(activity)
	if teamID == "" {
		return nil
	}

	for _, member := range activity.MembersAdded {
		if member.ID != botID {
			continue
		}

		team := &domain.Team{
			TeamID:     teamID,
			ServiceURL: activity.ServiceURL,
		}
		if activity.ChannelData != nil && activity.ChannelData.Team != nil {
			team.Name = activity.ChannelData.Team.Name
		}
		if activity.ChannelData != nil && activity.ChannelData.Tenant != nil {
			team.TenantID = activity.ChannelData.Tenant.ID
		}
		if activity.From != nil {
			team.InstalledByName = activity.From.Name
			team.InstalledByObjectID = activity.From.AadObjectID
		}

		if err := s.teamRepo.Upsert(ctx, team); err != nil {
			return fmt.Errorf("failed to record bot install: %w", err)
		}

		s.logger.Info("bot installed in team", zap.String("team_id", teamID))

		// A digest preference saved before the bot was installed has no
		// delivery coordinates yet; fill them in now
		if pref, err := s.teamPrefRepo.GetByTeamID(ctx, teamID); err == nil {
			if pref.ServiceURL == "" || pref.ConversationID == "" {
				pref.ServiceURL = activity.ServiceURL
				pref.ConversationID = teamID
				if err := s.teamPrefRepo.Upsert(ctx, pref); err != nil {
					s.logger.Warn("failed to backfill digest delivery coordinates",
						zap.String("team_id", teamID), zap.Error(err))
				}
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed to load team preference on install",
				zap.String("team_id", teamID), zap.Error(err))
		}

		welcome := bot.NewCardActivity(bot.NewWelcomeCard())
		if err := s.sendReply(ctx, activity, welcome); err != nil {
			// Install bookkeeping succeeded; a lost welcome card is not fatal
			s.logger.Warn("failed to send welcome card",
				zap.String("team_id", teamID), zap.Error(err))
		}
		return nil
	}

	for _, member := range activity.MembersRemoved {
		if member.ID != botID {
			continue
		}

		if err := s.teamRepo.Delete(ctx, teamID); err != nil {
			return fmt.Errorf("failed to remove team record: %w", err)
		}
		if err := s.teamTagRepo.Delete(ctx, teamID); err != nil {
			s.logger.Warn("failed to remove team tags on uninstall",
				zap.String("team_id", teamID), zap.Error(err))
		}
		if err := s.teamPrefRepo.Delete(ctx, teamID); err != nil {
			s.logger.Warn("failed to remove team preference on uninstall",
				zap.String("team_id", teamID), zap.Error(err))
		}

		s.logger.Info("bot removed from team", zap.String("team_id", teamID))
		return nil
	}

	return nil
}

// handleMessage replies to any direct message with the help card
func (s *BotService) handleMessage(ctx context.Context, activity *domain.Activity) error {
	help := bot.NewCardActivity(bot.NewHelpCard())
	if err := s.sendReply(ctx, activity, help); err != nil {
		return fmt.Errorf("failed to send help card: %w", err)
	}
	return nil
}

func (s *BotService) sendReply(ctx context.Context, inbound *domain.Activity, reply *domain.Activity) error {
	if inbound.ServiceURL == "" || inbound.Conversation == nil || inbound.Conversation.ID == "" {
		return fmt.Errorf("activity carries no conversation to reply to")
	}
	return s.connector.SendToConversation(ctx, inbound.ServiceURL, inbound.Conversation.ID, reply)
}

// teamIDFromActivity prefers the Teams channel data team id and falls
// back to the conversation id for personal scope
func teamIDFromActivity(activity *domain.Activity) string {
	if activity.ChannelData != nil && activity.ChannelData.Team != nil && activity.ChannelData.Team.ID != "" {
		return activity.ChannelData.Team.ID
	}
	if activity.Conversation != nil {
		return activity.Conversation.ID
	}
	return ""
}
