// 包 dataset：位置快照与 ID 集合的内存结构及其 gzip 持久化格式
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"livecam-geo/internal/geo"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrBadRow：快照行无法解析或坐标非法；上一份快照整体作废
var ErrBadRow = errors.New("bad snapshot row")

// LocationStore：视频 ID → 坐标
// 约束：只保存合法非哨兵坐标；由管道驱动独占，不做并发保护
type LocationStore struct {
	m map[string]geo.Coord
}

func NewLocationStore() *LocationStore {
	return &LocationStore{m: make(map[string]geo.Coord)}
}

func (s *LocationStore) Len() int { return len(s.m) }

func (s *LocationStore) Has(id string) bool {
	_, ok := s.m[id]
	return ok
}

func (s *LocationStore) Get(id string) (geo.Coord, bool) {
	c, ok := s.m[id]
	return c, ok
}

// Put：写入坐标；哨兵或越界坐标被拒绝
func (s *LocationStore) Put(id string, c geo.Coord) error {
	if id == "" {
		return errors.New("empty id")
	}
	if !c.Valid() {
		return fmt.Errorf("invalid coordinate %s for %s", c, id)
	}
	s.m[id] = c
	return nil
}

func (s *LocationStore) Delete(id string) { delete(s.m, id) }

// IDs：当前键的快照（按字典序），遍历期间可安全删除
func (s *LocationStore) IDs() []string {
	out := make([]string, 0, len(s.m))
	for id := range s.m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// 文档注释：读取 gzip 压缩的快照
// 背景：行格式为 lat,lng,id，无表头；与写出格式一致。
// 约束：任一行缺列、数值非法或坐标为哨兵/越界都返回 ErrBadRow，不做部分加载。
func Load(r io.Reader) (*LocationStore, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer zr.Close()
	cr := csv.NewReader(zr)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	s := NewLocationStore()
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: lat: %v", ErrBadRow, line, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: lng: %v", ErrBadRow, line, err)
		}
		if err := s.Put(strings.TrimSpace(rec[2]), geo.Coord{Lat: lat, Lng: lng}); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}
	}
	return s, nil
}

// Save：按 ID 排序写出 lat,lng,id 行，无表头
func Save(w io.Writer, s *LocationStore) error {
	zw := gzip.NewWriter(w)
	cw := csv.NewWriter(zw)
	for _, id := range s.IDs() {
		c := s.m[id]
		row := []string{
			strconv.FormatFloat(c.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.Lng, 'f', -1, 64),
			id,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return zw.Close()
}
