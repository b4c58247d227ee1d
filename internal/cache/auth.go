package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfdesk/shelfdesk/internal/model"
)

// authTTL bounds how long a revoked key keeps working through the cache.
const authTTL = 5 * time.Minute

func authKey(digest string) string {
	return keyspace + "auth:" + digest
}

// GetAuthContext returns the caller cached under digest. A miss or an
// unreadable entry yields nil, nil.
func (c *Cache) GetAuthContext(ctx context.Context, digest string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authKey(digest)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auth context: %w", err)
	}

	var authCtx model.AuthContext
	if err := json.Unmarshal(data, &authCtx); err != nil {
		_ = c.client.Del(ctx, authKey(digest)).Err()
		return nil, nil
	}
	return &authCtx, nil
}

// SetAuthContext caches a resolved API key caller under digest.
func (c *Cache) SetAuthContext(ctx context.Context, digest string, authCtx *model.AuthContext) error {
	data, err := json.Marshal(authCtx)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}
	return c.client.Set(ctx, authKey(digest), data, authTTL).Err()
}
