// 包 geocode：地址文本 → 坐标的正向地理编码
package geocode

import (
	"context"
	"livecam-geo/internal/geo"
)

// Geocoder：ok=false 表示无匹配（不是错误）；配额耗尽时错误包装 keypool.ErrQuotaExceeded
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coord, bool, error)
}
