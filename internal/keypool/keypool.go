// 包 keypool：数据源密钥池与轮换游标
//
// 密钥池在进程启动时由配置初始化一次，由管道驱动持有并显式传给各阶段；游标只前进（取模回绕），
// 各阶段开始时游标停在上一阶段留下的位置，不能假设从 0 开始。
//
// 配额耗尽的处理策略按阶段固定：
//   - Abort：整次运行失败（存活校验在整轮没有任何成功调用时）
//   - StopPhase：提前结束当前阶段，保留已得结果（搜索发现）
//   - FallThrough：放弃当前条目在本层的尝试，交给下一层（元数据解析）
package keypool

import (
	"errors"
	"strings"
)

// ErrQuotaExceeded：当前密钥配额耗尽或被限流；数据源客户端以 %w 包装返回
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrEmpty：密钥池不能为空
var ErrEmpty = errors.New("keypool: no credentials")

type Policy int

const (
	Abort Policy = iota
	StopPhase
	FallThrough
)

func (p Policy) String() string {
	switch p {
	case Abort:
		return "abort"
	case StopPhase:
		return "stop_phase"
	case FallThrough:
		return "fall_through"
	}
	return "unknown"
}

// Pool：有序密钥序列与游标；单线程使用，不加锁
type Pool struct {
	keys   []string
	cursor int
}

// New：构造密钥池，忽略空白项
func New(keys []string) (*Pool, error) {
	var out []string
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return &Pool{keys: out}, nil
}

func (p *Pool) Key() string { return p.keys[p.cursor] }
func (p *Pool) Len() int    { return len(p.keys) }
func (p *Pool) Cursor() int { return p.cursor }

// Rotate：游标前进一位并回绕，返回新的当前密钥；除游标外无其它副作用
func (p *Pool) Rotate() string {
	p.cursor = (p.cursor + 1) % len(p.keys)
	return p.keys[p.cursor]
}

// Budget：一次性轮换计数器
// 背景：同一批密钥在一次运行内配额不会恢复，轮换满 Len() 次即视为全部耗尽，不再回绕重试。
type Budget struct {
	pool  *Pool
	spent int
}

func (p *Pool) Budget() *Budget { return &Budget{pool: p} }

func (b *Budget) Key() string { return b.pool.Key() }

// Spend：记录一次配额失败并轮换到下一把密钥；返回 false 表示池内密钥已全部失败
func (b *Budget) Spend() bool {
	b.spent++
	b.pool.Rotate()
	return b.spent < b.pool.Len()
}

// Refill：成功调用后清零，用于"连续失败"语义
func (b *Budget) Refill() { b.spent = 0 }

func (b *Budget) Exhausted() bool { return b.spent >= b.pool.Len() }
