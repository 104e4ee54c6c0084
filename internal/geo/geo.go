// 包 geo：WGS84 坐标与合法性判定
package geo

import (
	"strconv"

	"github.com/golang/geo/s2"
)

// Coord：纬度/经度（度）
// 约束：(0,0) 为"未解析"哨兵值，永远不能入库
type Coord struct {
	Lat float64
	Lng float64
}

func (c Coord) IsSentinel() bool { return c.Lat == 0 && c.Lng == 0 }

// Valid：非哨兵且落在合法经纬度范围内
func (c Coord) Valid() bool {
	if c.IsSentinel() {
		return false
	}
	return s2.LatLngFromDegrees(c.Lat, c.Lng).IsValid()
}

func (c Coord) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
