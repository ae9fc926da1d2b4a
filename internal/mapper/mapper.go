package mapper

import (
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
)

const iso8601 = "2006-01-02T15:04:05Z"

// ToPostDTO converts Post to PostDTO; votedByUser is resolved per caller
func ToPostDTO(post *domain.Post, votedByUser bool) domain.PostDTO {
	return domain.PostDTO{
		ID:            post.ID,
		Title:         post.Title,
		Description:   post.Description,
		ContentURL:    post.ContentURL,
		Type:          post.Type,
		Tags:          post.TagList(),
		CreatedByName: post.CreatedByName,
		CreatedByID:   post.CreatedByObjectID,
		TotalVotes:    post.TotalVotes,
		IsVotedByUser: votedByUser,
		CreatedAt:     post.CreatedAt.Format(iso8601),
		UpdatedAt:     post.UpdatedAt.Format(iso8601),
	}
}

// ToPrivatePostDTO converts PrivatePost (with Post preloaded) to its DTO
func ToPrivatePostDTO(privatePost *domain.PrivatePost, votedByUser bool) domain.PrivatePostDTO {
	dto := domain.PrivatePostDTO{
		ID:        privatePost.ID,
		CreatedAt: privatePost.CreatedAt.Format(iso8601),
	}
	if privatePost.Post != nil {
		dto.Post = ToPostDTO(privatePost.Post, votedByUser)
	}
	return dto
}

// ToTeamTagDTO converts TeamTag to TeamTagDTO
func ToTeamTagDTO(teamTag *domain.TeamTag) domain.TeamTagDTO {
	return domain.TeamTagDTO{
		TeamID:        teamTag.TeamID,
		Tags:          teamTag.TagList(),
		UpdatedByName: teamTag.UpdatedByName,
		UpdatedAt:     teamTag.UpdatedAt.Format(iso8601),
	}
}

// ToTeamPreferenceDTO converts TeamPreference to TeamPreferenceDTO
func ToTeamPreferenceDTO(pref *domain.TeamPreference) domain.TeamPreferenceDTO {
	return domain.TeamPreferenceDTO{
		TeamID:          pref.TeamID,
		DigestFrequency: string(pref.DigestFrequency),
		Tags:            pref.TagList(),
		UpdatedByName:   pref.UpdatedByName,
		UpdatedAt:       pref.UpdatedAt.Format(iso8601),
	}
}

// ToDigestLogDTO converts DigestLog to DigestLogDTO
func ToDigestLogDTO(log *domain.DigestLog) domain.DigestLogDTO {
	dto := domain.DigestLogDTO{
		ID:        log.ID,
		TeamID:    log.TeamID,
		Frequency: string(log.Frequency),
		PostCount: log.PostCount,
		Status:    string(log.Status),
		Error:     log.Error,
	}
	if log.SentAt != nil {
		dto.SentAt = log.SentAt.Format(iso8601)
	}
	return dto
}
