package redis

import (
	"context"
	"fmt"
	"time"

	"country_facts/backend/go/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewClient 根据配置创建 Redis 客户端，并通过 Ping 确认连接可用。
// 调用方负责在退出时关闭客户端。
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(Options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}
	return rdb, nil
}

// Options 将配置转换为 go-redis 的连接选项。
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	}
}
