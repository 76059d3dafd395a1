package caching

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRedis answers commands in-process and records their arguments.
// INCR-style commands count up, boolean commands succeed.
type scriptedRedis struct {
	mu    sync.Mutex
	calls [][]interface{}
	count int64
}

func (h *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.answer(cmd)
		return nil
	}
}

func (h *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			h.answer(cmd)
		}
		return nil
	}
}

func (h *scriptedRedis) answer(cmd redis.Cmder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, cmd.Args())
	switch c := cmd.(type) {
	case *redis.IntCmd:
		h.count++
		c.SetVal(h.count)
	case *redis.BoolCmd:
		c.SetVal(true)
	}
}

func (h *scriptedRedis) named(name string) [][]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out [][]interface{}
	for _, args := range h.calls {
		if len(args) > 0 && strings.EqualFold(args[0].(string), name) {
			out = append(out, args)
		}
	}
	return out
}

func newScriptedCache(namespace string) (*redisCacheService, *scriptedRedis) {
	hook := &scriptedRedis{}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(hook)
	return &redisCacheService{
		client: client,
		prefix: namespacedPrefix(namespace),
		logger: slog.New(slog.DiscardHandler),
	}, hook
}

func TestAssetKey(t *testing.T) {
	r, _ := newScriptedCache("")
	a := r.assetKey("https://cdn.example.com/red.png")
	b := r.assetKey("https://cdn.example.com/red.png")
	c := r.assetKey("https://cdn.example.com/blue.png")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "catalogsync:asset:"))
	assert.Len(t, strings.TrimPrefix(a, "catalogsync:asset:"), 64)
}

func TestLockKey(t *testing.T) {
	r, _ := newScriptedCache("")
	assert.Equal(t, "catalogsync:lock:attribute-sync", r.lockKey("attribute-sync"))
}

func TestNamespacedKeys(t *testing.T) {
	eu, _ := newScriptedCache("db.internal:5432/catalog_eu")
	us, _ := newScriptedCache("db.internal:5432/catalog_us")
	url := "https://cdn.example.com/red.png"

	assert.NotEqual(t, eu.assetKey(url), us.assetKey(url))
	assert.NotEqual(t, eu.lockKey("attribute-sync"), us.lockKey("attribute-sync"))
	assert.Equal(t, "catalogsync:db.internal:5432/catalog_eu:lock:attribute-sync", eu.lockKey("attribute-sync"))
	assert.True(t, strings.HasPrefix(eu.rateLimitKey("auth:10.0.0.1"), "catalogsync:db.internal:5432/catalog_eu:ratelimit:"))
}

func TestIsRateLimited_ArmsExpiryEveryCall(t *testing.T) {
	r, hook := newScriptedCache("shop")
	ctx := context.Background()

	var limited []bool
	for i := 0; i < 3; i++ {
		ok, err := r.IsRateLimited(ctx, "auth:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		limited = append(limited, ok)
	}

	assert.Equal(t, []bool{false, false, true}, limited)

	expires := hook.named("expire")
	require.Len(t, expires, 3)
	for _, args := range expires {
		assert.Equal(t, []interface{}{"expire", "catalogsync:shop:ratelimit:auth:10.0.0.1", int64(60), "NX"}, args)
	}
}
