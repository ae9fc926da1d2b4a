package repository

import (
	"context"
	"strings"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostSort selects the ordering of post listings
type PostSort string

const (
	PostSortNewest     PostSort = "newest"
	PostSortPopularity PostSort = "popularity"
)

// PostFilter narrows post listings. Zero values mean "no filtering" for
// that dimension. Tag matching is a contains-any over the stored
// semicolon-separated column. SearchTags widens Search to also match
// inside the tags column, used by the compose extension query.
type PostFilter struct {
	Search     string
	SearchTags bool
	Types      []string
	Tags       []string
	Authors    []string
	Sort       PostSort
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID returns a post that has not been soft-deleted
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).
		First(&post, "id = ? AND is_removed = ?", id, false).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// SoftDelete marks a post removed without deleting the row, so votes and
// digest history keep referential integrity
func (r *PostRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ? AND is_removed = ?", id, false).
		Update("is_removed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementTotalVotes adjusts the denormalized vote counter by delta.
// Negative counters are clamped to zero.
func (r *PostRepository) IncrementTotalVotes(ctx context.Context, id uuid.UUID, delta int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("id = ?", id).
		Update("total_votes", gorm.Expr("CASE WHEN total_votes + ? < 0 THEN 0 ELSE total_votes + ? END", delta, delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns filtered, sorted, paginated posts plus the unpaged total
func (r *PostRepository) List(ctx context.Context, filter PostFilter, page, pageSize int) ([]domain.Post, int64, error) {
	query := r.applyFilter(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Sort == PostSortPopularity {
		query = query.Order("total_votes DESC").Order("created_at DESC")
	} else {
		query = query.Order("created_at DESC")
	}

	var posts []domain.Post
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&posts).Error
	return posts, total, err
}

// ListByAuthor returns all live posts created by the given AAD object id
func (r *PostRepository) ListByAuthor(ctx context.Context, objectID string) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Where("created_by_object_id = ? AND is_removed = ?", objectID, false).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// ListCreatedBetween returns live posts created in (from, to], newest first.
// Used by the digest dispatcher.
func (r *PostRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Where("is_removed = ? AND created_at > ? AND created_at <= ?", false, from, to).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// DistinctAuthors returns the unique author display names across live posts
func (r *PostRepository) DistinctAuthors(ctx context.Context) ([]string, error) {
	var authors []string
	err := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("is_removed = ?", false).
		Distinct("created_by_name").
		Order("created_by_name").
		Pluck("created_by_name", &authors).Error
	return authors, err
}

// AllTagColumns returns the raw tag column of every live post; the service
// splits and dedupes them for the filter metadata endpoint
func (r *PostRepository) AllTagColumns(ctx context.Context) ([]string, error) {
	var tags []string
	err := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("is_removed = ? AND tags <> ''", false).
		Pluck("tags", &tags).Error
	return tags, err
}

func (r *PostRepository) applyFilter(ctx context.Context, filter PostFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&domain.Post{}).
		Where("is_removed = ?", false)

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		if filter.SearchTags {
			query = query.Where("LOWER(title) LIKE ? OR LOWER(tags) LIKE ?", pattern, pattern)
		} else {
			query = query.Where("LOWER(title) LIKE ?", pattern)
		}
	}

	if len(filter.Types) > 0 {
		query = query.Where("type IN ?", filter.Types)
	}

	if len(filter.Authors) > 0 {
		query = query.Where("created_by_name IN ?", filter.Authors)
	}

	if len(filter.Tags) > 0 {
		// contains-any over the semicolon-separated column. Surrounding
		// the column with separators anchors each match to a whole tag,
		// so "go" never matches "django" or "golang".
		tagQuery := r.db.Session(&gorm.Session{NewDB: true})
		for i, tag := range filter.Tags {
			pattern := "%;" + strings.ToLower(tag) + ";%"
			if i == 0 {
				tagQuery = tagQuery.Where("';' || LOWER(tags) || ';' LIKE ?", pattern)
			} else {
				tagQuery = tagQuery.Or("';' || LOWER(tags) || ';' LIKE ?", pattern)
			}
		}
		query = query.Where(tagQuery)
	}

	return query
}
