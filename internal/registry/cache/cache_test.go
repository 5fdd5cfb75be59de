package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
)

var owner = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func newPolicy(t *testing.T, id domain.PolicyID) *models.Policy {
	t.Helper()
	p, err := models.NewPolicy(id, owner, 1000, 20, time.Hour, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}

// scriptedRedis answers Set and Del with configured results and records the
// keys it deleted.
type scriptedRedis struct {
	redis.Cmdable
	setErr  error
	deleted []string
}

func (r *scriptedRedis) Set(ctx context.Context, _ string, _ any, _ time.Duration) *redis.StatusCmd {
	if err := ctx.Err(); err != nil {
		return redis.NewStatusResult("", err)
	}
	return redis.NewStatusResult("OK", r.setErr)
}

func (r *scriptedRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.deleted = append(r.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisCacheSet(t *testing.T) {
	ctx := context.Background()

	t.Run("failed write invalidates the shared copy", func(t *testing.T) {
		client := &scriptedRedis{setErr: errors.New("connection reset")}
		c := NewRedisCache(client, time.Minute, nil)
		c.Set(ctx, newPolicy(t, 7))
		assert.Equal(t, []string{policyKey(7)}, client.deleted)
	})

	t.Run("successful write keeps the key", func(t *testing.T) {
		client := &scriptedRedis{}
		c := NewRedisCache(client, time.Minute, nil)
		c.Set(ctx, newPolicy(t, 7))
		assert.Empty(t, client.deleted)
	})

	t.Run("cancelled request still updates the cache", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		client := &scriptedRedis{}
		c := NewRedisCache(client, time.Minute, nil)
		c.Set(cancelled, newPolicy(t, 7))
		assert.Empty(t, client.deleted)
	})
}

func TestLRU(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit", func(t *testing.T) {
		c := NewLRU(8, time.Minute)
		_, ok := c.Get(ctx, 1)
		assert.False(t, ok)

		c.Add(ctx, newPolicy(t, 1))
		p, ok := c.Get(ctx, 1)
		require.True(t, ok)
		assert.Equal(t, domain.PolicyID(1), p.ID)
	})

	t.Run("add never overwrites, set does", func(t *testing.T) {
		c := NewLRU(8, time.Minute)
		cancelled := newPolicy(t, 2)
		_, err := cancelled.Cancel(time.Now())
		require.NoError(t, err)

		c.Set(ctx, cancelled)
		c.Add(ctx, newPolicy(t, 2))
		p, ok := c.Get(ctx, 2)
		require.True(t, ok)
		assert.False(t, p.Active, "stale active copy must not replace the cancelled one")

		c.Set(ctx, newPolicy(t, 2))
		p, _ = c.Get(ctx, 2)
		assert.True(t, p.Active)
	})

	t.Run("returned policies are copies", func(t *testing.T) {
		c := NewLRU(8, time.Minute)
		c.Add(ctx, newPolicy(t, 3))
		p, _ := c.Get(ctx, 3)
		p.Active = false
		again, _ := c.Get(ctx, 3)
		assert.True(t, again.Active)
	})

	t.Run("evicts beyond size", func(t *testing.T) {
		c := NewLRU(2, time.Minute)
		for id := domain.PolicyID(1); id <= 3; id++ {
			c.Add(ctx, newPolicy(t, id))
		}
		assert.Equal(t, 2, c.Len())
		_, ok := c.Get(ctx, 1)
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		c := NewLRU(2, 20*time.Millisecond)
		c.Add(ctx, newPolicy(t, 1))
		assert.Eventually(t, func() bool {
			_, ok := c.Get(ctx, 1)
			return !ok
		}, time.Second, 10*time.Millisecond)
	})
}

func TestTiered(t *testing.T) {
	ctx := context.Background()
	local := NewLRU(8, time.Minute)
	shared := NewLRU(8, time.Minute)
	tiered := NewTiered(local, shared)

	t.Run("shared hit backfills local", func(t *testing.T) {
		shared.Add(ctx, newPolicy(t, 1))
		p, ok := tiered.Get(ctx, 1)
		require.True(t, ok)
		assert.Equal(t, domain.PolicyID(1), p.ID)

		_, ok = local.Get(ctx, 1)
		assert.True(t, ok)
	})

	t.Run("set writes through both layers", func(t *testing.T) {
		p := newPolicy(t, 2)
		_, err := p.Cancel(time.Now())
		require.NoError(t, err)
		tiered.Set(ctx, p)

		fromLocal, ok := local.Get(ctx, 2)
		require.True(t, ok)
		assert.False(t, fromLocal.Active)
		fromShared, ok := shared.Get(ctx, 2)
		require.True(t, ok)
		assert.False(t, fromShared.Active)
	})

	t.Run("miss in both", func(t *testing.T) {
		_, ok := tiered.Get(ctx, 99)
		assert.False(t, ok)
	})
}
