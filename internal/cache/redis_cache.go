package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redis连接探测超时
const redisPingTimeout = 5 * time.Second

// RedisCache 基于Redis的缓存，供多实例部署共享回答缓存
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建一个新的Redis缓存，连接不可用时直接报错
func NewRedisCache(config Config) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.RedisAddr, err)
	}

	return &RedisCache{client: client}, nil
}

// Get 获取缓存内容，键不存在时返回found=false而不是错误
func (r *RedisCache) Get(key string) (string, bool, error) {
	value, err := r.client.Get(context.Background(), key).Result()
	switch {
	case err == nil:
		return value, true, nil
	case err == redis.Nil:
		return "", false, nil
	default:
		return "", false, err
	}
}

// Set 设置缓存内容，ttl为0表示不过期
func (r *RedisCache) Set(key string, value string, ttl time.Duration) error {
	return r.client.Set(context.Background(), key, value, ttl).Err()
}

// Delete 删除缓存项
func (r *RedisCache) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

// Clear 清空当前Redis数据库，谨慎使用
func (r *RedisCache) Clear() error {
	return r.client.FlushDB(context.Background()).Err()
}

// 在包初始化时注册Redis缓存
func init() {
	RegisterCache("redis", NewRedisCache)
}
