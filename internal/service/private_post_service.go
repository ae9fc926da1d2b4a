package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/mapper"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
)

// PrivatePostService manages a user's private reading list. Entries are
// scoped to the caller's AAD object id in every operation.
type PrivatePostService struct {
	privatePostRepo *repository.PrivatePostRepository
	postRepo        *repository.PostRepository
	voteRepo        *repository.VoteRepository
	logger          *zap.Logger
}

func NewPrivatePostService(
	privatePostRepo *repository.PrivatePostRepository,
	postRepo *repository.PostRepository,
	voteRepo *repository.VoteRepository,
	logger *zap.Logger,
) *PrivatePostService {
	return &PrivatePostService{
		privatePostRepo: privatePostRepo,
		postRepo:        postRepo,
		voteRepo:        voteRepo,
		logger:          logger,
	}
}

// Save adds a post to the caller's private list
func (s *PrivatePostService) Save(ctx context.Context, req *domain.SavePrivatePostRequest) (*domain.PrivatePostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	post, err := s.postRepo.GetByID(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	saved, err := s.privatePostRepo.Exists(ctx, req.PostID, userCtx.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check private list: %w", err)
	}
	if saved {
		return nil, ErrAlreadySaved
	}

	privatePost := &domain.PrivatePost{
		PostID:        req.PostID,
		UserObjectID:  userCtx.ObjectID,
		CreatedByName: userCtx.DisplayName,
	}
	if err := s.privatePostRepo.Create(ctx, privatePost); err != nil {
		return nil, fmt.Errorf("failed to save private post: %w", err)
	}

	voted, err := s.voteRepo.Exists(ctx, post.ID, userCtx.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check vote: %w", err)
	}

	privatePost.Post = post
	dto := mapper.ToPrivatePostDTO(privatePost, voted)
	return &dto, nil
}

// List returns the caller's private list, newest-saved first. Entries
// whose underlying post was removed are filtered out.
func (s *PrivatePostService) List(ctx context.Context) ([]domain.PrivatePostDTO, error) {
	userCtx := auth.MustFromContext(ctx)

	privatePosts, err := s.privatePostRepo.ListByUser(ctx, userCtx.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list private posts: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(privatePosts))
	for _, pp := range privatePosts {
		if pp.Post != nil && !pp.Post.IsRemoved {
			ids = append(ids, pp.PostID)
		}
	}

	voted, err := s.voteRepo.PostIDsVotedByUser(ctx, userCtx.ObjectID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve votes: %w", err)
	}

	dtos := make([]domain.PrivatePostDTO, 0, len(privatePosts))
	for i := range privatePosts {
		pp := &privatePosts[i]
		if pp.Post == nil || pp.Post.IsRemoved {
			continue
		}
		dtos = append(dtos, mapper.ToPrivatePostDTO(pp, voted[pp.PostID]))
	}
	return dtos, nil
}

// Delete removes an entry from the caller's private list. The underlying
// post is untouched.
func (s *PrivatePostService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx := auth.MustFromContext(ctx)

	if err := s.privatePostRepo.Delete(ctx, id, userCtx.ObjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete private post: %w", err)
	}

	return nil
}
