package bot

import (
	"fmt"
	"strings"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
)

// NewWelcomeCard builds the card sent when the bot is added to a team
func NewWelcomeCard() *domain.AdaptiveCard {
	return &domain.AdaptiveCard{
		Schema:  domain.AdaptiveCardSchema,
		Type:    "AdaptiveCard",
		Version: domain.AdaptiveCardVersion,
		Body: []interface{}{
			domain.TextBlock{
				Type:   "TextBlock",
				Text:   "Share Now is here!",
				Size:   "Large",
				Weight: "Bolder",
			},
			domain.TextBlock{
				Type: "TextBlock",
				Text: "Share articles, blogs, podcasts, videos and books with your colleagues, vote on the best ones, and get a periodic digest of posts matching this team's tags.",
				Wrap: true,
			},
			domain.TextBlock{
				Type:     "TextBlock",
				Text:     "Set up your team's tags and digest preference to start receiving summaries.",
				Wrap:     true,
				IsSubtle: true,
			},
		},
	}
}

// NewHelpCard builds the reply to any message sent directly to the bot
func NewHelpCard() *domain.AdaptiveCard {
	return &domain.AdaptiveCard{
		Schema:  domain.AdaptiveCardSchema,
		Type:    "AdaptiveCard",
		Version: domain.AdaptiveCardVersion,
		Body: []interface{}{
			domain.TextBlock{
				Type:   "TextBlock",
				Text:   "Here's what I can do",
				Weight: "Bolder",
			},
			domain.TextBlock{
				Type: "TextBlock",
				Text: "Use the Share Now tab to post and discover content. Use the messaging extension to search posts and share them in a conversation. Configure team tags to receive weekly or monthly digests.",
				Wrap: true,
			},
		},
	}
}

// NewDigestCard builds the periodic digest card for a team. Posts are
// expected to be pre-sorted by vote count, already capped to the digest
// maximum.
func NewDigestCard(frequency domain.DigestFrequency, posts []domain.Post) *domain.AdaptiveCard {
	title := "Weekly digest"
	if frequency == domain.DigestFrequencyMonthly {
		title = "Monthly digest"
	}

	body := []interface{}{
		domain.TextBlock{
			Type:   "TextBlock",
			Text:   title,
			Size:   "Large",
			Weight: "Bolder",
		},
		domain.TextBlock{
			Type:     "TextBlock",
			Text:     fmt.Sprintf("Top %d posts matching your team's tags", len(posts)),
			IsSubtle: true,
		},
	}

	for _, post := range posts {
		body = append(body, domain.TextBlock{
			Type:    "TextBlock",
			Text:    fmt.Sprintf("[%s](%s)", post.Title, post.ContentURL),
			Wrap:    true,
			Spacing: "Medium",
		})
		body = append(body, domain.TextBlock{
			Type:     "TextBlock",
			Text:     fmt.Sprintf("%s · %d votes · shared by %s", post.Type, post.TotalVotes, post.CreatedByName),
			IsSubtle: true,
			Spacing:  "None",
		})
	}

	return &domain.AdaptiveCard{
		Schema:  domain.AdaptiveCardSchema,
		Type:    "AdaptiveCard",
		Version: domain.AdaptiveCardVersion,
		Body:    body,
	}
}

// NewCardActivity wraps an Adaptive Card in a message activity
func NewCardActivity(card *domain.AdaptiveCard) *domain.Activity {
	return &domain.Activity{
		Type: domain.ActivityTypeMessage,
		Attachments: []domain.Attachment{
			{
				ContentType: domain.AdaptiveCardContentType,
				Content:     card,
			},
		},
	}
}

// NewPostAttachment builds a messaging extension result attachment for a
// post: an Adaptive Card content plus a thumbnail preview
func NewPostAttachment(post *domain.Post) domain.Attachment {
	card := &domain.AdaptiveCard{
		Schema:  domain.AdaptiveCardSchema,
		Type:    "AdaptiveCard",
		Version: domain.AdaptiveCardVersion,
		Body: []interface{}{
			domain.TextBlock{
				Type:   "TextBlock",
				Text:   post.Title,
				Weight: "Bolder",
				Wrap:   true,
			},
			domain.TextBlock{
				Type: "TextBlock",
				Text: post.Description,
				Wrap: true,
			},
			domain.TextBlock{
				Type:     "TextBlock",
				Text:     fmt.Sprintf("%s · %d votes · shared by %s", post.Type, post.TotalVotes, post.CreatedByName),
				IsSubtle: true,
			},
		},
		Actions: []interface{}{
			domain.OpenURLAction{
				Type:  "Action.OpenUrl",
				Title: "Open",
				URL:   post.ContentURL,
			},
		},
	}

	subtitle := strings.Join(post.TagList(), ", ")
	return domain.Attachment{
		ContentType: domain.AdaptiveCardContentType,
		Content:     card,
		Preview: &domain.Attachment{
			ContentType: domain.ThumbnailCardContentType,
			Content: domain.ThumbnailCard{
				Title:    post.Title,
				Subtitle: subtitle,
				Text:     post.CreatedByName,
			},
		},
	}
}
