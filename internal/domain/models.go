package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the caller has not set one
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// PostType classifies the kind of content a post links to
type PostType string

const (
	PostTypeArticle PostType = "article"
	PostTypeBlog    PostType = "blog"
	PostTypePodcast PostType = "podcast"
	PostTypeVideo   PostType = "video"
	PostTypeBook    PostType = "book"
)

// ValidPostTypes lists all accepted post type values
var ValidPostTypes = []PostType{
	PostTypeArticle,
	PostTypeBlog,
	PostTypePodcast,
	PostTypeVideo,
	PostTypeBook,
}

// IsValidPostType checks whether the given string is an accepted post type
func IsValidPostType(t string) bool {
	for _, pt := range ValidPostTypes {
		if string(pt) == t {
			return true
		}
	}
	return false
}

// TagSeparator joins the tag list into the single stored column value
const TagSeparator = ";"

// MaxTagsPerEntity is the maximum number of tags on a post or team configuration
const MaxTagsPerEntity = 5

// Post represents a shared content link
type Post struct {
	BaseModel
	Title             string   `gorm:"type:varchar(100);not null"`
	Description       string   `gorm:"type:varchar(500);not null"`
	ContentURL        string   `gorm:"type:varchar(500);not null;column:content_url"`
	Type              PostType `gorm:"type:varchar(20);not null;index"`
	Tags              string   `gorm:"type:varchar(200);index"`
	CreatedByName     string   `gorm:"type:varchar(100);not null;column:created_by_name"`
	CreatedByObjectID string   `gorm:"type:varchar(50);not null;index;column:created_by_object_id"`
	TotalVotes        int      `gorm:"not null;default:0;column:total_votes"`
	IsRemoved         bool     `gorm:"not null;default:false;index;column:is_removed"`
	Votes             []Vote   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
}

// TagList splits the stored tag column into individual trimmed tags
func (p *Post) TagList() []string {
	return SplitTags(p.Tags)
}

// SplitTags splits a semicolon-separated tag string, dropping empty entries
func SplitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	parts := strings.Split(tags, TagSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// JoinTags joins individual tags into the stored column format
func JoinTags(tags []string) string {
	return strings.Join(tags, TagSeparator)
}

// Vote records a single user's upvote on a post
type Vote struct {
	BaseModel
	PostID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_post_user;column:post_id"`
	UserObjectID string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_votes_post_user;column:user_object_id"`
}

// PrivatePost is a post saved to a user's private reading list
type PrivatePost struct {
	BaseModel
	PostID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_private_posts_post_user;column:post_id"`
	UserObjectID  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_private_posts_post_user;column:user_object_id"`
	CreatedByName string    `gorm:"type:varchar(100);column:created_by_name"`
	Post          *Post     `gorm:"foreignKey:PostID"`
}

// TeamTag holds the content tags a team has configured for its discover feed
type TeamTag struct {
	TeamID            string    `gorm:"type:varchar(100);primaryKey;column:team_id"`
	Tags              string    `gorm:"type:varchar(200)"`
	UpdatedByName     string    `gorm:"type:varchar(100);column:updated_by_name"`
	UpdatedByObjectID string    `gorm:"type:varchar(50);column:updated_by_object_id"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TagList splits the stored tag column into individual trimmed tags
func (t *TeamTag) TagList() []string {
	return SplitTags(t.Tags)
}

// DigestFrequency is how often a team receives its digest notification
type DigestFrequency string

const (
	DigestFrequencyWeekly  DigestFrequency = "weekly"
	DigestFrequencyMonthly DigestFrequency = "monthly"
)

// IsValidDigestFrequency checks whether the given string is an accepted frequency
func IsValidDigestFrequency(f string) bool {
	return f == string(DigestFrequencyWeekly) || f == string(DigestFrequencyMonthly)
}

// TeamPreference stores a team's digest configuration together with the
// conversation coordinates needed to deliver the digest card.
type TeamPreference struct {
	TeamID            string          `gorm:"type:varchar(100);primaryKey;column:team_id"`
	DigestFrequency   DigestFrequency `gorm:"type:varchar(20);not null;index;column:digest_frequency"`
	Tags              string          `gorm:"type:varchar(200)"`
	ServiceURL        string          `gorm:"type:varchar(500);column:service_url"`
	ConversationID    string          `gorm:"type:varchar(200);column:conversation_id"`
	UpdatedByName     string          `gorm:"type:varchar(100);column:updated_by_name"`
	UpdatedByObjectID string          `gorm:"type:varchar(50);column:updated_by_object_id"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TagList splits the stored tag column into individual trimmed tags
func (t *TeamPreference) TagList() []string {
	return SplitTags(t.Tags)
}

// Team records a Teams channel where the bot is installed. It is written by
// the bot webhook on conversationUpdate and read by the digest dispatcher.
type Team struct {
	TeamID              string    `gorm:"type:varchar(100);primaryKey;column:team_id"`
	Name                string    `gorm:"type:varchar(200)"`
	ServiceURL          string    `gorm:"type:varchar(500);not null;column:service_url"`
	TenantID            string    `gorm:"type:varchar(50);column:tenant_id"`
	InstalledByName     string    `gorm:"type:varchar(100);column:installed_by_name"`
	InstalledByObjectID string    `gorm:"type:varchar(50);column:installed_by_object_id"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// DigestStatus is the outcome of a single digest delivery attempt
type DigestStatus string

const (
	DigestStatusSent    DigestStatus = "sent"
	DigestStatusFailed  DigestStatus = "failed"
	DigestStatusSkipped DigestStatus = "skipped"
)

// DigestLog records the outcome of one digest delivery to one team
type DigestLog struct {
	BaseModel
	TeamID    string          `gorm:"type:varchar(100);not null;index;column:team_id"`
	Frequency DigestFrequency `gorm:"type:varchar(20);not null"`
	PostCount int             `gorm:"not null;default:0;column:post_count"`
	Status    DigestStatus    `gorm:"type:varchar(20);not null"`
	Error     string          `gorm:"type:varchar(500)"`
	SentAt    *time.Time      `gorm:"column:sent_at"`
}
