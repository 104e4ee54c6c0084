package pipeline

import (
	"errors"
	"fmt"
)

// ErrShrinkage：最终条数不足上一份快照的一半，拒绝覆盖
var ErrShrinkage = errors.New("new count of locations is too small")

// Check：final < previous/2（整数除法）时返回 ErrShrinkage
func Check(previous, final int) error {
	if final < previous/2 {
		return fmt.Errorf("%w: %d < %d / 2", ErrShrinkage, final, previous)
	}
	return nil
}
