package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/d3fig/pkg/cache"
)

// CachedStore serves Get from a cache before asking the wrapped store.
// Writes go to the store first and then drop the cached copy.
type CachedStore struct {
	Store
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// WithCache wraps st with a read-through cache. A nil keyer uses the default
// keyer; a zero ttl uses cache.DocumentTTL.
func WithCache(st Store, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *CachedStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl == 0 {
		ttl = cache.DocumentTTL
	}
	return &CachedStore{Store: st, cache: c, keyer: keyer, ttl: ttl}
}

func (s *CachedStore) Get(ctx context.Context, id string) (*Record, error) {
	key := s.keyer.DocumentKey(id)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var rec Record
		if json.Unmarshal(data, &rec) == nil && rec.Document != nil {
			return &rec, nil
		}
	}

	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(rec); err == nil {
		_ = s.cache.Set(ctx, key, data, s.ttl)
	}
	return rec, nil
}

func (s *CachedStore) Put(ctx context.Context, rec *Record) error {
	if err := s.Store.Put(ctx, rec); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.keyer.DocumentKey(rec.ID))
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.keyer.DocumentKey(id))
}

// Close closes the wrapped store and the cache.
func (s *CachedStore) Close() error {
	err := s.Store.Close()
	if cerr := s.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
