package pipeline

import (
	"context"
	"errors"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
)

// ErrKeysExhausted：存活校验整轮没有任何成功调用，且所有密钥连续配额失败
var ErrKeysExhausted = errors.New("all developer keys exhausted")

// errPoolExhausted：预算内所有密钥都已配额失败；由调用方按本阶段策略处理
var errPoolExhausted = errors.New("credential budget exhausted")

// 文档注释：以当前密钥调用，配额失败时轮换并重试同一条目
// 返回：call 的非配额结果（含 nil）；预算耗尽时返回 errPoolExhausted。
// 约束：成功与否都不会自动 Refill，由调用方决定预算是按条目还是按阶段计。
func withRotation(ctx context.Context, b *keypool.Budget, phase string, call func(key string) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := call(b.Key())
		if !errors.Is(err, keypool.ErrQuotaExceeded) {
			return err
		}
		metrics.KeyRotationsTotal.WithLabelValues(phase).Inc()
		if !b.Spend() {
			logger.L().Warn("keys_exhausted", "phase", phase)
			return errPoolExhausted
		}
		logger.L().Info("key_rotated", "phase", phase)
	}
}
