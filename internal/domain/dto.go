package domain

import (
	"github.com/google/uuid"
)

// PostDTO is the API representation of a shared post
type PostDTO struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ContentURL    string    `json:"contentUrl"`
	Type          PostType  `json:"type"`
	Tags          []string  `json:"tags"`
	CreatedByName string    `json:"createdByName"`
	CreatedByID   string    `json:"createdByObjectId"`
	// AuthorDepartment is filled from the org directory when enabled
	AuthorDepartment string `json:"authorDepartment,omitempty"`
	TotalVotes       int    `json:"totalVotes"`
	IsVotedByUser    bool   `json:"isVotedByUser"`
	CreatedAt        string `json:"createdAt"` // ISO 8601
	UpdatedAt        string `json:"updatedAt"` // ISO 8601
}

// CreatePostRequest is the payload for creating a post
type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=500"`
	ContentURL  string   `json:"contentUrl" validate:"required,url,max=500"`
	Type        string   `json:"type" validate:"required,oneof=article blog podcast video book"`
	Tags        []string `json:"tags" validate:"max=5,dive,required,max=20"`
}

// UpdatePostRequest is the payload for updating a post
type UpdatePostRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=500"`
	ContentURL  string   `json:"contentUrl" validate:"required,url,max=500"`
	Type        string   `json:"type" validate:"required,oneof=article blog podcast video book"`
	Tags        []string `json:"tags" validate:"max=5,dive,required,max=20"`
}

// PrivatePostDTO is the API representation of a saved private post
type PrivatePostDTO struct {
	ID        uuid.UUID `json:"id"`
	Post      PostDTO   `json:"post"`
	CreatedAt string    `json:"createdAt"` // ISO 8601
}

// SavePrivatePostRequest is the payload for saving a post to the private list
type SavePrivatePostRequest struct {
	PostID uuid.UUID `json:"postId" validate:"required"`
}

// TeamTagDTO is the API representation of a team's configured tags
type TeamTagDTO struct {
	TeamID        string   `json:"teamId"`
	Tags          []string `json:"tags"`
	UpdatedByName string   `json:"updatedByName,omitempty"`
	UpdatedAt     string   `json:"updatedAt,omitempty"` // ISO 8601
}

// UpdateTeamTagRequest is the payload for configuring a team's tags
type UpdateTeamTagRequest struct {
	Tags []string `json:"tags" validate:"max=5,dive,required,max=20"`
}

// TeamPreferenceDTO is the API representation of a team's digest preference
type TeamPreferenceDTO struct {
	TeamID          string   `json:"teamId"`
	DigestFrequency string   `json:"digestFrequency"`
	Tags            []string `json:"tags"`
	UpdatedByName   string   `json:"updatedByName,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"` // ISO 8601
}

// UpdateTeamPreferenceRequest is the payload for configuring a team's digest
type UpdateTeamPreferenceRequest struct {
	DigestFrequency string   `json:"digestFrequency" validate:"required,oneof=weekly monthly"`
	Tags            []string `json:"tags" validate:"max=5,dive,required,max=20"`
}

// FeedFiltersDTO carries the unique filter values for the discover feed UI
type FeedFiltersDTO struct {
	Tags    []string `json:"tags"`
	Authors []string `json:"authors"`
	Types   []string `json:"types"`
}

// PaginatedResponse wraps list responses with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// DigestLogDTO is the API representation of a digest delivery record
type DigestLogDTO struct {
	ID        uuid.UUID `json:"id"`
	TeamID    string    `json:"teamId"`
	Frequency string    `json:"frequency"`
	PostCount int       `json:"postCount"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	SentAt    string    `json:"sentAt,omitempty"` // ISO 8601
}
