package exercise

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	domain "gymdesk/internal/domain/exercise"
)

// CachedStore is a read-through cache over a Store. GetByID hits are
// served from an LRU; writes and deletes evict so readers never see a
// stale exercise. List always goes to the underlying store.
type CachedStore struct {
	inner Store
	cache *lru.Cache[string, domain.Exercise]
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps a Store with an LRU of the given size.
// PRE: size > 0
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, domain.Exercise](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

// GetByID returns a cached exercise, loading on miss.
// POST: A successful load populates the cache
func (c *CachedStore) GetByID(ctx context.Context, id string) (domain.Exercise, error) {
	if entity, ok := c.cache.Get(id); ok {
		return entity, nil
	}
	entity, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return domain.Exercise{}, err
	}
	c.cache.Add(id, entity)
	return entity, nil
}

// Save writes through and evicts the cached entry.
// POST: Next GetByID reloads from the underlying store
func (c *CachedStore) Save(ctx context.Context, entity domain.Exercise) error {
	if err := c.inner.Save(ctx, entity); err != nil {
		return err
	}
	c.cache.Remove(entity.ID)
	return nil
}

// Delete removes the exercise and evicts the cached entry.
func (c *CachedStore) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.cache.Remove(id)
	return nil
}

// List delegates to the underlying store.
func (c *CachedStore) List(ctx context.Context, filter ListFilter) ([]domain.Exercise, error) {
	return c.inner.List(ctx, filter)
}
