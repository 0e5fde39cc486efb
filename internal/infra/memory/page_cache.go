package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quran-quiz-service/internal/domain"
)

// PageLoader fetches page content from the backing text API.
type PageLoader interface {
	Page(ctx context.Context, page int) ([]domain.Verse, error)
}

// PageCache caches page verses with TTL to avoid repeated API hits.
type PageCache struct {
	loader PageLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedPage
}

type cachedPage struct {
	verses    []domain.Verse
	expiresAt time.Time
}

func NewPageCache(loader PageLoader, ttl time.Duration) *PageCache {
	return &PageCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedPage),
	}
}

func (c *PageCache) Page(ctx context.Context, page int) ([]domain.Verse, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[page]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.verses, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(cacheKey(page), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[page]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.verses, nil
		}
		c.mu.RUnlock()

		verses, err := c.loader.Page(ctx, page)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[page] = cachedPage{verses: verses, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return verses, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Verse), nil
}

func (c *PageCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func cacheKey(page int) string {
	return "page:" + strconv.Itoa(page)
}

// StaticPageSource serves verses from an in-memory map (tests/demos).
type StaticPageSource struct {
	pages map[int][]domain.Verse
}

func NewStaticPageSource(pages map[int][]domain.Verse) *StaticPageSource {
	return &StaticPageSource{pages: pages}
}

func (s *StaticPageSource) Page(_ context.Context, page int) ([]domain.Verse, error) {
	if verses, ok := s.pages[page]; ok {
		return verses, nil
	}
	return nil, domain.ErrContentUnavailable
}
