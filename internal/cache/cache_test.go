package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache 测试内存缓存的基本功能
func TestMemoryCache(t *testing.T) {
	config := Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	}
	cache, err := NewMemoryCache(config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	t.Run("set and get", func(t *testing.T) {
		err := cache.Set("key1", "value1", 0) // 使用默认TTL
		assert.NoError(t, err)

		val, found, err := cache.Get("key1")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "value1", val)
	})

	t.Run("missing key", func(t *testing.T) {
		val, found, err := cache.Get("non-existent")
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, val)
	})

	t.Run("expiry", func(t *testing.T) {
		err := cache.Set("expire-soon", "temp", time.Millisecond*100)
		assert.NoError(t, err)

		time.Sleep(time.Millisecond * 300)

		_, found, err := cache.Get("expire-soon")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set("to-delete", "v", 0))
		require.NoError(t, cache.Delete("to-delete"))

		_, found, err := cache.Get("to-delete")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, cache.Set("key2", "value2", 0))
		require.NoError(t, cache.Clear())

		_, found, err := cache.Get("key2")
		assert.NoError(t, err)
		assert.False(t, found)
	})
}

// TestRedisCache 测试Redis缓存
// 使用miniredis模拟Redis服务器
func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	config := Config{
		Type:       "redis",
		RedisAddr:  mr.Addr(),
		DefaultTTL: time.Second * 2,
	}

	cache, err := NewRedisCache(config)
	require.NoError(t, err)
	require.NotNil(t, cache)

	t.Run("set and get", func(t *testing.T) {
		err := cache.Set("redis-key1", "redis-value1", 0)
		assert.NoError(t, err)

		val, found, err := cache.Get("redis-key1")
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "redis-value1", val)
	})

	t.Run("missing key", func(t *testing.T) {
		val, found, err := cache.Get("redis-non-existent")
		assert.NoError(t, err)
		assert.False(t, found)
		assert.Empty(t, val)
	})

	t.Run("expiry", func(t *testing.T) {
		require.NoError(t, cache.Set("redis-expire", "v", time.Second))

		// miniredis需要手动推进时间
		mr.FastForward(time.Second * 2)

		_, found, err := cache.Get("redis-expire")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, cache.Set("redis-to-delete", "v", 0))
		require.NoError(t, cache.Delete("redis-to-delete"))

		_, found, err := cache.Get("redis-to-delete")
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewRedisCache(Config{Type: "redis", RedisAddr: "localhost:1"})
		assert.Error(t, err, "无法连接Redis时应创建失败")
	})
}

// TestCacheFactory 测试缓存工厂函数
func TestCacheFactory(t *testing.T) {
	// 内存缓存创建
	memCache, err := NewCache(DefaultConfig())
	assert.NoError(t, err)
	assert.NotNil(t, memCache)

	// Redis缓存创建
	mr := miniredis.RunT(t)
	redisCache, err := NewCache(Config{Type: "redis", RedisAddr: mr.Addr()})
	assert.NoError(t, err)
	assert.NotNil(t, redisCache)

	// 未知缓存类型应回退到内存缓存
	unknownCache, err := NewCache(Config{Type: "unknown-type"})
	assert.NoError(t, err)
	assert.NotNil(t, unknownCache)
}

// TestGenerateCacheKey 测试缓存键生成
func TestGenerateCacheKey(t *testing.T) {
	assert.Equal(t, "prefix", GenerateCacheKey("prefix"))
	assert.Equal(t, "prefix:part1", GenerateCacheKey("prefix", "part1"))
	assert.Equal(t, "prefix:part1:part2:part3",
		GenerateCacheKey("prefix", "part1", "part2", "part3"))
}

// TestAnswerKey 测试回答缓存键
func TestAnswerKey(t *testing.T) {
	key1 := AnswerKey("session-1", "问题一")
	key2 := AnswerKey("session-1", "问题二")
	key3 := AnswerKey("session-2", "问题一")

	// 同会话同问题应生成相同键
	assert.Equal(t, key1, AnswerKey("session-1", "问题一"))

	// 不同问题或不同会话应生成不同键
	assert.NotEqual(t, key1, key2)
	assert.NotEqual(t, key1, key3)

	assert.Contains(t, key1, "answer:session-1:")
}
