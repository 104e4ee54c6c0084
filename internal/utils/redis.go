package utils

import (
	"livecam-geo/internal/config"
	"livecam-geo/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按配置打开 Redis 客户端
// 约束：未启用时返回 nil，调用方据此跳过缓存
func OpenRedis(c config.Redis) *redis.Client {
	if !c.Enable || c.Addr == "" {
		return nil
	}
	logger.L().Debug("redis_config", "addr", c.Addr, "db", c.DB)
	return redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Pass, DB: c.DB})
}
