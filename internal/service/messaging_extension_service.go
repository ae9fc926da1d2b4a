package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/bot"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
)

// meMaxResults caps the attachments returned for one compose extension
// query; the Teams client never renders more than this
const meMaxResults = 25

// MessagingExtensionService answers compose extension search queries with
// post card attachments.
type MessagingExtensionService struct {
	postRepo *repository.PostRepository
	logger   *zap.Logger
}

func NewMessagingExtensionService(postRepo *repository.PostRepository, logger *zap.Logger) *MessagingExtensionService {
	return &MessagingExtensionService{
		postRepo: postRepo,
		logger:   logger,
	}
}

// Query resolves a compose extension search into a result list. An empty
// search term returns the most recent posts.
func (s *MessagingExtensionService) Query(ctx context.Context, value *domain.MessagingExtensionValue) (*domain.MessagingExtensionResponse, error) {
	search := ""
	count := meMaxResults
	page := 1

	if value != nil {
		for _, param := range value.Parameters {
			// "initialRun" arrives as a parameter named initialRun; any
			// other parameter carries the typed search text
			if param.Name != "initialRun" {
				search = param.Value
			}
		}
		if opts := value.QueryOptions; opts != nil {
			if opts.Count > 0 && opts.Count < count {
				count = opts.Count
			}
			if opts.Skip > 0 && count > 0 {
				page = opts.Skip/count + 1
			}
		}
	}

	// Compose extension search is free text over both title and tags
	filter := repository.PostFilter{
		Search:     search,
		SearchTags: true,
		Sort:       repository.PostSortNewest,
	}

	posts, _, err := s.postRepo.List(ctx, filter, page, count)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	attachments := make([]domain.Attachment, len(posts))
	for i := range posts {
		attachments[i] = bot.NewPostAttachment(&posts[i])
	}

	s.logger.Debug("messaging extension query",
		zap.String("search", search),
		zap.Int("results", len(attachments)))

	return &domain.MessagingExtensionResponse{
		ComposeExtension: &domain.MessagingExtensionResult{
			Type:             "result",
			AttachmentLayout: "list",
			Attachments:      attachments,
		},
	}, nil
}
