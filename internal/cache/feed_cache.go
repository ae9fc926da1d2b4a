// Package cache provides the Redis-backed feed cache. Only the leading
// pages of the unfiltered discover feed are cached; any post or vote
// mutation invalidates the whole feed keyspace.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const feedKeyPrefix = "feed:discover"

// FeedCache caches rendered discover feed pages in Redis
type FeedCache struct {
	client   *redis.Client
	ttl      time.Duration
	maxPages int
	logger   *zap.Logger
}

// NewFeedCache creates a feed cache from configuration. Returns nil when
// caching is disabled; callers treat a nil cache as a pass-through.
func NewFeedCache(cfg *config.CacheConfig, logger *zap.Logger) (*FeedCache, error) {
	if !cfg.Enabled {
		logger.Info("feed cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("feed cache initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", cfg.FeedTTLDuration()),
		zap.Int("max_pages", cfg.FeedPages),
	)

	return &FeedCache{
		client:   client,
		ttl:      cfg.FeedTTLDuration(),
		maxPages: cfg.FeedPages,
		logger:   logger,
	}, nil
}

// NewFeedCacheWithClient builds a cache around an existing client (tests)
func NewFeedCacheWithClient(client *redis.Client, ttl time.Duration, maxPages int, logger *zap.Logger) *FeedCache {
	return &FeedCache{client: client, ttl: ttl, maxPages: maxPages, logger: logger}
}

// Cacheable reports whether the given feed page is eligible for caching
func (c *FeedCache) Cacheable(sort string, page, pageSize int) bool {
	if c == nil {
		return false
	}
	return page >= 1 && page <= c.maxPages
}

func feedKey(sort string, page, pageSize int) string {
	return fmt.Sprintf("%s:%s:%d:%d", feedKeyPrefix, sort, page, pageSize)
}

// GetPage returns a cached feed page, or ok=false on miss or error.
// Cache errors are logged and treated as misses.
func (c *FeedCache) GetPage(ctx context.Context, sort string, page, pageSize int) (*domain.PaginatedResponse, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, feedKey(sort, page, pageSize)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("feed cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var cached struct {
		Data       []domain.PostDTO `json:"data"`
		Total      int64            `json:"total"`
		Page       int              `json:"page"`
		PageSize   int              `json:"pageSize"`
		TotalPages int              `json:"totalPages"`
	}
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &domain.PaginatedResponse{
		Data:       cached.Data,
		Total:      cached.Total,
		Page:       cached.Page,
		PageSize:   cached.PageSize,
		TotalPages: cached.TotalPages,
	}, true
}

// SetPage stores a feed page. Write failures are logged, never propagated.
func (c *FeedCache) SetPage(ctx context.Context, sort string, page, pageSize int, response *domain.PaginatedResponse) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, feedKey(sort, page, pageSize), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("feed cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached feed page. Called after any post or vote
// mutation so stale vote counts never outlive the mutation by more than
// one request.
func (c *FeedCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, feedKeyPrefix+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("feed cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}

// Close releases the underlying Redis connection
func (c *FeedCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
