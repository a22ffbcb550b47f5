package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2003-eng/healthcare-backend/internal/adapters/cache"
	"github.com/pavi2003-eng/healthcare-backend/internal/domain/providers"
	redisclient "github.com/pavi2003-eng/healthcare-backend/internal/infrastructure/clients/redis"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, providers.CacheProvider) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, cache.NewRedisAdapter(redisclient.NewClientFromRedis(rdb), nil)
}

func TestRedisAdapter_GetSet(t *testing.T) {
	mr, adapter := setupCache(t)
	ctx := context.Background()

	_, err := adapter.Get(ctx, "dashboard:snapshot")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, "dashboard:snapshot", []byte(`{"ok":true}`), 30))
	got, err := adapter.Get(ctx, "dashboard:snapshot")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))

	mr.FastForward(31 * time.Second)
	_, err = adapter.Get(ctx, "dashboard:snapshot")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_DeletePattern(t *testing.T) {
	mr, adapter := setupCache(t)
	ctx := context.Background()

	for _, key := range []string{"dashboard:snapshot", "dashboard:high-risk", "analytics:summary"} {
		require.NoError(t, adapter.Set(ctx, key, []byte("x"), 60))
	}

	require.NoError(t, adapter.DeletePattern(ctx, "dashboard:*"))

	assert.False(t, mr.Exists("dashboard:snapshot"))
	assert.False(t, mr.Exists("dashboard:high-risk"))
	assert.True(t, mr.Exists("analytics:summary"))
}
