package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quran-quiz-service/internal/domain"
)

// PageLoader fetches page content from the backing text API.
type PageLoader interface {
	Page(ctx context.Context, page int) ([]domain.Verse, error)
}

// PageCache caches page verses in Redis (one JSON value per page) and falls
// back to the loader on cache miss.
type PageCache struct {
	client *redis.Client
	loader PageLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewPageCache(client *redis.Client, loader PageLoader, ttl time.Duration) *PageCache {
	return &PageCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PageCache) Page(ctx context.Context, page int) ([]domain.Verse, error) {
	key := c.key(page)

	if verses, ok := c.fromCache(ctx, key); ok {
		return verses, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if verses, ok := c.fromCache(ctx, key); ok {
			return verses, nil
		}

		verses, err := c.loader.Page(ctx, page)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(verses); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return verses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Verse), nil
}

func (c *PageCache) fromCache(ctx context.Context, key string) ([]domain.Verse, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var verses []domain.Verse
	if err := json.Unmarshal(raw, &verses); err != nil || len(verses) == 0 {
		return nil, false
	}
	return verses, true
}

func (c *PageCache) key(page int) string {
	return fmt.Sprintf("page:%d:verses", page)
}

func (c *PageCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
