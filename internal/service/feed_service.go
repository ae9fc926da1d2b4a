package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/auth"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/cache"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/directory"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/mapper"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// FeedService renders the discover feed, the per-team tag-filtered feed,
// and the filter metadata the tab UI offers. Unfiltered leading pages are
// served from the Redis cache when it is enabled.
type FeedService struct {
	postRepo    *repository.PostRepository
	voteRepo    *repository.VoteRepository
	teamTagRepo *repository.TeamTagRepository
	feedCache   *cache.FeedCache
	directory   *directory.Client
	logger      *zap.Logger
}

func NewFeedService(
	postRepo *repository.PostRepository,
	voteRepo *repository.VoteRepository,
	teamTagRepo *repository.TeamTagRepository,
	feedCache *cache.FeedCache,
	directoryClient *directory.Client,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		voteRepo:    voteRepo,
		teamTagRepo: teamTagRepo,
		feedCache:   feedCache,
		directory:   directoryClient,
		logger:      logger,
	}
}

func clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// Discover returns the filtered discover feed. Only unfiltered leading
// pages hit the cache; cached pages carry no per-user voted flags, so the
// voted flags are resolved after the cache read.
func (s *FeedService) Discover(ctx context.Context, filter repository.PostFilter, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPaging(page, pageSize)
	if filter.Sort == "" {
		filter.Sort = repository.PostSortNewest
	}

	cacheable := filter.Search == "" &&
		len(filter.Types) == 0 && len(filter.Tags) == 0 && len(filter.Authors) == 0 &&
		s.feedCache.Cacheable(string(filter.Sort), page, pageSize)

	if cacheable {
		if cached, ok := s.feedCache.GetPage(ctx, string(filter.Sort), page, pageSize); ok {
			s.applyVotedFlags(ctx, cached)
			return cached, nil
		}
	}

	posts, total, err := s.postRepo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	dtos := make([]domain.PostDTO, len(posts))
	for i := range posts {
		dtos[i] = mapper.ToPostDTO(&posts[i], false)
	}
	s.enrichFromDirectory(ctx, dtos)

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	if cacheable {
		// Cached without voted flags; they are per-user
		s.feedCache.SetPage(ctx, string(filter.Sort), page, pageSize, response)
	}

	s.applyVotedFlags(ctx, response)
	return response, nil
}

// TeamFeed returns the discover feed narrowed to the team's configured
// tags. A team with no configuration gets the unfiltered feed.
func (s *FeedService) TeamFeed(ctx context.Context, teamID string, sortBy repository.PostSort, page, pageSize int) (*domain.PaginatedResponse, error) {
	filter := repository.PostFilter{Sort: sortBy}

	teamTag, err := s.teamTagRepo.GetByTeamID(ctx, teamID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get team tags: %w", err)
	}
	if teamTag != nil {
		filter.Tags = teamTag.TagList()
	}

	return s.Discover(ctx, filter, page, pageSize)
}

// Filters returns the unique tag, author and type values across live
// posts, for the tab's filter dropdowns.
func (s *FeedService) Filters(ctx context.Context) (*domain.FeedFiltersDTO, error) {
	tagColumns, err := s.postRepo.AllTagColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect tags: %w", err)
	}

	seen := make(map[string]string)
	for _, column := range tagColumns {
		for _, tag := range domain.SplitTags(column) {
			key := strings.ToLower(tag)
			if _, ok := seen[key]; !ok {
				seen[key] = tag
			}
		}
	}
	tags := make([]string, 0, len(seen))
	for _, tag := range seen {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})

	authors, err := s.postRepo.DistinctAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect authors: %w", err)
	}

	types := make([]string, len(domain.ValidPostTypes))
	for i, t := range domain.ValidPostTypes {
		types[i] = string(t)
	}

	return &domain.FeedFiltersDTO{
		Tags:    tags,
		Authors: authors,
		Types:   types,
	}, nil
}

// applyVotedFlags fills IsVotedByUser on a rendered page for the caller
func (s *FeedService) applyVotedFlags(ctx context.Context, response *domain.PaginatedResponse) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || userCtx.ObjectID == "" {
		return
	}

	dtos, ok := response.Data.([]domain.PostDTO)
	if !ok || len(dtos) == 0 {
		return
	}

	ids := make([]uuid.UUID, len(dtos))
	for i := range dtos {
		ids[i] = dtos[i].ID
	}

	voted, err := s.voteRepo.PostIDsVotedByUser(ctx, userCtx.ObjectID, ids)
	if err != nil {
		s.logger.Warn("failed to resolve voted flags", zap.Error(err))
		return
	}

	for i := range dtos {
		dtos[i].IsVotedByUser = voted[dtos[i].ID]
	}
	response.Data = dtos
}

// enrichFromDirectory fills author departments from the org directory.
// Failures are logged and the feed is served without enrichment.
func (s *FeedService) enrichFromDirectory(ctx context.Context, dtos []domain.PostDTO) {
	if s.directory == nil || !s.directory.IsEnabled() || len(dtos) == 0 {
		return
	}

	ids := make([]string, 0, len(dtos))
	seen := make(map[string]bool, len(dtos))
	for _, dto := range dtos {
		if dto.CreatedByID != "" && !seen[dto.CreatedByID] {
			seen[dto.CreatedByID] = true
			ids = append(ids, dto.CreatedByID)
		}
	}

	employees, err := s.directory.GetEmployeesByObjectIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("directory enrichment failed", zap.Error(err))
		return
	}

	for i := range dtos {
		if emp, ok := employees[dtos[i].CreatedByID]; ok {
			dtos[i].AuthorDepartment = emp.Department
		}
	}
}
