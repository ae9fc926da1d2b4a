package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/bot"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/mapper"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/storage"
)

const (
	weeklyWindow  = 7 * 24 * time.Hour
	monthlyWindow = 30 * 24 * time.Hour
)

// DigestService builds and delivers the periodic digest card for every
// team subscribed at a given frequency. Each delivery outcome is recorded
// in digest_logs and the sent card is archived.
type DigestService struct {
	postRepo      *repository.PostRepository
	teamPrefRepo  *repository.TeamPreferenceRepository
	digestLogRepo *repository.DigestLogRepository
	connector     bot.Connector
	archive       storage.Storage
	cfg           *config.DigestConfig
	logger        *zap.Logger
	now           func() time.Time
}

func NewDigestService(
	postRepo *repository.PostRepository,
	teamPrefRepo *repository.TeamPreferenceRepository,
	digestLogRepo *repository.DigestLogRepository,
	connector bot.Connector,
	archive storage.Storage,
	cfg *config.DigestConfig,
	logger *zap.Logger,
) *DigestService {
	return &DigestService{
		postRepo:      postRepo,
		teamPrefRepo:  teamPrefRepo,
		digestLogRepo: digestLogRepo,
		connector:     connector,
		archive:       archive,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// SendDigests runs one digest batch for the given frequency. A failure
// for one team never aborts the batch; the per-team outcome lands in
// digest_logs either way.
func (s *DigestService) SendDigests(ctx context.Context, frequency domain.DigestFrequency) (sent int, failed int, skipped int, err error) {
	window := weeklyWindow
	if frequency == domain.DigestFrequencyMonthly {
		window = monthlyWindow
	}

	prefs, err := s.teamPrefRepo.ListByFrequency(ctx, frequency)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to list team preferences: %w", err)
	}
	if len(prefs) == 0 {
		return 0, 0, 0, nil
	}

	runTime := s.now()
	posts, err := s.postRepo.ListCreatedBetween(ctx, runTime.Add(-window), runTime)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to list posts for digest window: %w", err)
	}

	for i := range prefs {
		pref := &prefs[i]
		outcome := s.sendToTeam(ctx, pref, frequency, posts, runTime)
		switch outcome {
		case domain.DigestStatusSent:
			sent++
		case domain.DigestStatusFailed:
			failed++
		default:
			skipped++
		}
	}

	return sent, failed, skipped, nil
}

// sendToTeam builds and delivers one team's digest and records the outcome
func (s *DigestService) sendToTeam(ctx context.Context, pref *domain.TeamPreference, frequency domain.DigestFrequency, posts []domain.Post, runTime time.Time) domain.DigestStatus {
	teamTags := pref.TagList()
	if len(teamTags) == 0 {
		s.recordOutcome(ctx, pref.TeamID, frequency, 0, domain.DigestStatusSkipped, "no digest tags configured for team", nil)
		return domain.DigestStatusSkipped
	}

	matching := selectDigestPosts(posts, teamTags, s.cfg.MaxPostsPerDigest)

	if len(matching) == 0 {
		s.recordOutcome(ctx, pref.TeamID, frequency, 0, domain.DigestStatusSkipped, "no posts matched the team's tags", nil)
		return domain.DigestStatusSkipped
	}

	if pref.ServiceURL == "" || pref.ConversationID == "" {
		s.recordOutcome(ctx, pref.TeamID, frequency, len(matching), domain.DigestStatusSkipped, "bot not installed in team", nil)
		return domain.DigestStatusSkipped
	}

	card := bot.NewDigestCard(frequency, matching)
	activity := bot.NewCardActivity(card)

	if err := s.connector.SendToConversation(ctx, pref.ServiceURL, pref.ConversationID, activity); err != nil {
		s.logger.Error("digest delivery failed",
			zap.String("team_id", pref.TeamID),
			zap.String("frequency", string(frequency)),
			zap.Error(err))
		s.recordOutcome(ctx, pref.TeamID, frequency, len(matching), domain.DigestStatusFailed, err.Error(), nil)
		return domain.DigestStatusFailed
	}

	s.archiveCard(ctx, pref.TeamID, frequency, card, runTime)

	sentAt := s.now()
	s.recordOutcome(ctx, pref.TeamID, frequency, len(matching), domain.DigestStatusSent, "", &sentAt)

	s.logger.Info("digest sent",
		zap.String("team_id", pref.TeamID),
		zap.String("frequency", string(frequency)),
		zap.Int("post_count", len(matching)))

	return domain.DigestStatusSent
}

// selectDigestPosts filters the window's posts to the team's tags and
// returns the top posts by vote count. Tag matching is case-insensitive.
// A team with no tags configured matches nothing; the caller skips it.
func selectDigestPosts(posts []domain.Post, teamTags []string, max int) []domain.Post {
	if len(teamTags) == 0 {
		return nil
	}

	tagSet := make(map[string]bool, len(teamTags))
	for _, tag := range teamTags {
		tagSet[strings.ToLower(tag)] = true
	}

	matching := make([]domain.Post, 0, len(posts))
	for _, post := range posts {
		for _, tag := range post.TagList() {
			if tagSet[strings.ToLower(tag)] {
				matching = append(matching, post)
				break
			}
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		if matching[i].TotalVotes != matching[j].TotalVotes {
			return matching[i].TotalVotes > matching[j].TotalVotes
		}
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	if max > 0 && len(matching) > max {
		matching = matching[:max]
	}
	return matching
}

// archiveCard stores the sent card JSON. Archive failures are logged but
// never fail the delivery, the card already reached the team.
func (s *DigestService) archiveCard(ctx context.Context, teamID string, frequency domain.DigestFrequency, card *domain.AdaptiveCard, runTime time.Time) {
	if s.archive == nil {
		return
	}

	payload, err := json.Marshal(card)
	if err != nil {
		s.logger.Warn("failed to marshal digest card for archive",
			zap.String("team_id", teamID), zap.Error(err))
		return
	}

	path := storage.DigestArchivePath(teamID, string(frequency), runTime.Format("2006-01-02"))
	if _, err := s.archive.Save(ctx, path, "application/json", bytes.NewReader(payload)); err != nil {
		s.logger.Warn("failed to archive digest card",
			zap.String("team_id", teamID),
			zap.String("path", path),
			zap.Error(err))
	}
}

// recordOutcome writes the digest_logs row for one delivery attempt
func (s *DigestService) recordOutcome(ctx context.Context, teamID string, frequency domain.DigestFrequency, postCount int, status domain.DigestStatus, errMsg string, sentAt *time.Time) {
	log := &domain.DigestLog{
		TeamID:    teamID,
		Frequency: frequency,
		PostCount: postCount,
		Status:    status,
		Error:     errMsg,
		SentAt:    sentAt,
	}
	if err := s.digestLogRepo.Create(ctx, log); err != nil {
		s.logger.Error("failed to record digest outcome",
			zap.String("team_id", teamID),
			zap.Error(err))
	}
}

// ListLogs returns recent digest delivery records, optionally scoped to
// one team. Used by the admin endpoint.
func (s *DigestService) ListLogs(ctx context.Context, teamID string, limit int) ([]domain.DigestLogDTO, error) {
	var (
		logs []domain.DigestLog
		err  error
	)
	if teamID != "" {
		logs, err = s.digestLogRepo.ListByTeam(ctx, teamID, limit)
	} else {
		logs, err = s.digestLogRepo.ListRecent(ctx, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list digest logs: %w", err)
	}

	dtos := make([]domain.DigestLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToDigestLogDTO(&logs[i])
	}
	return dtos, nil
}
