package pipeline

import (
	"context"
	"errors"
	"fmt"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/keypool"
	"livecam-geo/internal/logger"
	"livecam-geo/internal/metrics"
)

// Validator：对快照中每个条目做一次存活确认，未确认即删除
type Validator struct {
	Live LivenessChecker
	Keys *keypool.Pool
	// Progress：每处理多少条输出一次进度日志；<=0 取 100
	Progress int
}

type ValidateStats struct {
	Checked     int
	Kept        int
	NotLive     int
	Failed      int
	Unconfirmed int
}

// 文档注释：存活校验（回收）
// 背景：直播结束或视频删除后坐标失效，只有明确确认 live 的条目才保留（fail-closed）。
// 约束：
//   - 每个条目恰好检查一次，顺序无关；
//   - 配额失败轮换密钥重试同一条目；成功调用后预算清零；
//   - 密钥全部连续失败时：本轮尚无任何成功调用则返回 ErrKeysExhausted，否则该条目按未确认删除。
func (v *Validator) Run(ctx context.Context, ls *dataset.LocationStore) (ValidateStats, error) {
	var st ValidateStats
	ids := ls.IDs()
	total := len(ids)
	every := v.Progress
	if every <= 0 {
		every = 100
	}
	budget := v.Keys.Budget()
	confirmed := false
	for i, id := range ids {
		var live bool
		err := withRotation(ctx, budget, "validate", func(key string) error {
			var err error
			live, err = v.Live.IsLive(ctx, id, key)
			return err
		})
		switch {
		case errors.Is(err, errPoolExhausted):
			if !confirmed {
				logger.L().Error("validate_abort", "policy", validatePolicy.String(), "checked", st.Checked)
				return st, fmt.Errorf("validate %s: %w", id, ErrKeysExhausted)
			}
			budget.Refill()
			ls.Delete(id)
			st.Unconfirmed++
			metrics.RemovedTotal.WithLabelValues("unconfirmed").Inc()
		case ctx.Err() != nil:
			return st, ctx.Err()
		case err != nil:
			budget.Refill()
			ls.Delete(id)
			st.Failed++
			metrics.RemovedTotal.WithLabelValues("error").Inc()
			logger.L().Debug("validate_error", "id", id, "err", err)
		default:
			budget.Refill()
			confirmed = true
			if live {
				st.Kept++
			} else {
				ls.Delete(id)
				st.NotLive++
				metrics.RemovedTotal.WithLabelValues("not_live").Inc()
			}
		}
		st.Checked++
		if (i+1)%every == 0 || i+1 == total {
			logger.L().Info("validate_progress", "checked", i+1, "total", total, "kept", st.Kept)
		}
	}
	logger.L().Info("validate_done", "kept", st.Kept, "not_live", st.NotLive, "failed", st.Failed, "unconfirmed", st.Unconfirmed)
	return st, nil
}
