package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/cache"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/mapper"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
)

// PostService implements post CRUD and voting. The vote counter on posts
// is denormalized; vote mutations keep it consistent with compensating
// writes rather than cross-table transactions.
type PostService struct {
	postRepo  *repository.PostRepository
	voteRepo  *repository.VoteRepository
	feedCache *cache.FeedCache
	logger    *zap.Logger
}

func NewPostService(
	postRepo *repository.PostRepository,
	voteRepo *repository.VoteRepository,
	feedCache *cache.FeedCache,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		postRepo:  postRepo,
		voteRepo:  voteRepo,
		feedCache: feedCache,
		logger:    logger,
	}
}

// normalizeTags trims, drops empties and case-insensitive duplicates, and
// caps the list at the per-entity maximum
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.TrimSpace(tag)
		if t == "" {
			continue
		}
		if strings.Contains(t, domain.TagSeparator) {
			return nil, fmt.Errorf("%w: tag %q contains reserved separator", ErrInvalidInput, t)
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	if len(out) > domain.MaxTagsPerEntity {
		return nil, fmt.Errorf("%w: at most %d tags allowed", ErrInvalidInput, domain.MaxTagsPerEntity)
	}
	return out, nil
}

func (s *PostService) Create(ctx context.Context, req *domain.CreatePostRequest) (*domain.PostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Title:             req.Title,
		Description:       req.Description,
		ContentURL:        req.ContentURL,
		Type:              domain.PostType(req.Type),
		Tags:              domain.JoinTags(tags),
		CreatedByName:     userCtx.DisplayName,
		CreatedByObjectID: userCtx.ObjectID,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.feedCache.Invalidate(ctx)

	s.logger.Info("post created",
		zap.String("post_id", post.ID.String()),
		zap.String("type", string(post.Type)),
		zap.String("created_by", userCtx.ObjectID))

	dto := mapper.ToPostDTO(post, false)
	return &dto, nil
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PostDTO, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	voted := false
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx.ObjectID != "" {
		voted, err = s.voteRepo.Exists(ctx, post.ID, userCtx.ObjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to check vote: %w", err)
		}
	}

	dto := mapper.ToPostDTO(post, voted)
	return &dto, nil
}

// Update replaces the editable fields of a post. Only the author (or an
// admin API key caller) may update; authorship fields never change.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePostRequest) (*domain.PostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if !userCtx.CanModifyPost(post.CreatedByObjectID) {
		return nil, ErrPermissionDenied
	}

	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Description = req.Description
	post.ContentURL = req.ContentURL
	post.Type = domain.PostType(req.Type)
	post.Tags = domain.JoinTags(tags)

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.feedCache.Invalidate(ctx)

	voted, err := s.voteRepo.Exists(ctx, post.ID, userCtx.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check vote: %w", err)
	}

	dto := mapper.ToPostDTO(post, voted)
	return &dto, nil
}

// Delete soft-deletes a post. The row and its votes stay for digest and
// audit history; the post just disappears from every feed.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx := auth.MustFromContext(ctx)

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get post: %w", err)
	}

	if !userCtx.CanModifyPost(post.CreatedByObjectID) {
		return ErrPermissionDenied
	}

	if err := s.postRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.feedCache.Invalidate(ctx)

	s.logger.Info("post removed",
		zap.String("post_id", id.String()),
		zap.String("removed_by", userCtx.ObjectID))

	return nil
}

// Vote records the caller's upvote and bumps the denormalized counter.
// If the counter update fails the vote row is deleted again so the two
// never drift apart.
func (s *PostService) Vote(ctx context.Context, postID uuid.UUID) (*domain.PostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	voted, err := s.voteRepo.Exists(ctx, postID, userCtx.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check vote: %w", err)
	}
	if voted {
		return nil, ErrAlreadyVoted
	}

	vote := &domain.Vote{
		PostID:       postID,
		UserObjectID: userCtx.ObjectID,
	}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		return nil, fmt.Errorf("failed to create vote: %w", err)
	}

	if err := s.postRepo.IncrementTotalVotes(ctx, postID, 1); err != nil {
		// Compensate: remove the vote row so the counter stays truthful
		if delErr := s.voteRepo.Delete(ctx, postID, userCtx.ObjectID); delErr != nil {
			s.logger.Error("failed to compensate vote after counter update failure",
				zap.String("post_id", postID.String()),
				zap.String("user", userCtx.ObjectID),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to update vote count: %w", err)
	}

	s.feedCache.Invalidate(ctx)

	post.TotalVotes++
	dto := mapper.ToPostDTO(post, true)
	return &dto, nil
}

// Unvote removes the caller's vote and decrements the counter. If the
// counter update fails the vote row is restored.
func (s *PostService) Unvote(ctx context.Context, postID uuid.UUID) (*domain.PostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	if err := s.voteRepo.Delete(ctx, postID, userCtx.ObjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotVoted
		}
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}

	if err := s.postRepo.IncrementTotalVotes(ctx, postID, -1); err != nil {
		vote := &domain.Vote{PostID: postID, UserObjectID: userCtx.ObjectID}
		if createErr := s.voteRepo.Create(ctx, vote); createErr != nil {
			s.logger.Error("failed to restore vote after counter update failure",
				zap.String("post_id", postID.String()),
				zap.String("user", userCtx.ObjectID),
				zap.Error(createErr))
		}
		return nil, fmt.Errorf("failed to update vote count: %w", err)
	}

	s.feedCache.Invalidate(ctx)

	if post.TotalVotes > 0 {
		post.TotalVotes--
	}
	dto := mapper.ToPostDTO(post, false)
	return &dto, nil
}

// ListByAuthor returns the caller's own posts, newest first
func (s *PostService) ListByAuthor(ctx context.Context, objectID string) ([]domain.PostDTO, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, objectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}

	return s.toDTOs(ctx, posts)
}

// toDTOs maps posts to DTOs, resolving the caller's voted flags in bulk
func (s *PostService) toDTOs(ctx context.Context, posts []domain.Post) ([]domain.PostDTO, error) {
	ids := make([]uuid.UUID, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	voted := map[uuid.UUID]bool{}
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx.ObjectID != "" {
		var err error
		voted, err = s.voteRepo.PostIDsVotedByUser(ctx, userCtx.ObjectID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve votes: %w", err)
		}
	}

	dtos := make([]domain.PostDTO, len(posts))
	for i := range posts {
		dtos[i] = mapper.ToPostDTO(&posts[i], voted[posts[i].ID])
	}
	return dtos, nil
}
