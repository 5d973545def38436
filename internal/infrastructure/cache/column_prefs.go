package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crm/backend/internal/domain/listview"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ColumnPreferenceCache is a read-through cache in front of a column
// preference repository. Cache failures are logged and never fail a request.
type ColumnPreferenceCache struct {
	next   listview.ColumnPreferenceRepository
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewColumnPreferenceCache wraps next with store
func NewColumnPreferenceCache(next listview.ColumnPreferenceRepository, store Store, ttl time.Duration, logger *zap.Logger) *ColumnPreferenceCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ColumnPreferenceCache{next: next, store: store, ttl: ttl, logger: logger.Named("column_prefs_cache")}
}

// cachedState is the cached form; Found distinguishes "no stored layout"
// from a cache miss
type cachedState struct {
	Found bool                 `json:"found"`
	State listview.ColumnState `json:"state"`
}

func prefKey(userID uuid.UUID, key string) string {
	return "colprefs:" + userID.String() + ":" + key
}

// Find returns the stored layout, consulting the cache first
func (c *ColumnPreferenceCache) Find(ctx context.Context, userID uuid.UUID, key string) (listview.ColumnState, bool, error) {
	ck := prefKey(userID, key)
	if raw, ok, err := c.store.Get(ctx, ck); err != nil {
		c.logger.Warn("cache read failed", zap.String("key", ck), zap.Error(err))
	} else if ok {
		var cached cachedState
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached.State, cached.Found, nil
		}
		c.logger.Warn("discarding corrupt cache entry", zap.String("key", ck))
	}

	state, found, err := c.next.Find(ctx, userID, key)
	if err != nil {
		return listview.ColumnState{}, false, err
	}
	c.put(ctx, ck, cachedState{Found: found, State: state})
	return state, found, nil
}

// Save writes through and refreshes the cache
func (c *ColumnPreferenceCache) Save(ctx context.Context, userID uuid.UUID, key string, state listview.ColumnState) error {
	if err := c.next.Save(ctx, userID, key, state); err != nil {
		return err
	}
	c.put(ctx, prefKey(userID, key), cachedState{Found: true, State: state})
	return nil
}

// Delete removes the layout and its cache entry
func (c *ColumnPreferenceCache) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	if err := c.next.Delete(ctx, userID, key); err != nil {
		return err
	}
	ck := prefKey(userID, key)
	if err := c.store.Delete(ctx, ck); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", ck), zap.Error(err))
	}
	return nil
}

func (c *ColumnPreferenceCache) put(ctx context.Context, key string, value cachedState) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

var _ listview.ColumnPreferenceRepository = (*ColumnPreferenceCache)(nil)
