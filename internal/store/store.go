// 包 store: 位置快照的 PostgreSQL 镜像，供在线服务按 ID/网格查询
package store

import (
	"context"
	"database/sql"
	"fmt"
	"livecam-geo/internal/dataset"
	"livecam-geo/internal/logger"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Row: 镜像表的一行
type Row struct {
	ID      string
	Lat     float64
	Lng     float64
	Geohash string
}

// Rows: 按 ID 顺序把快照展开为镜像行，geohash 取完整 12 位精度
func Rows(ls *dataset.LocationStore) []Row {
	ids := ls.IDs()
	out := make([]Row, 0, len(ids))
	for _, id := range ids {
		c, _ := ls.Get(id)
		out = append(out, Row{ID: id, Lat: c.Lat, Lng: c.Lng, Geohash: geohash.Encode(c.Lat, c.Lng)})
	}
	return out
}

// 文档注释：用当前快照整体替换镜像表
// 背景：镜像只反映最近一次成功写出的 geo.csv.gz，不保留历史。
// 约束：单事务内 DELETE + INSERT，失败回滚，读者不会看到半张表。
func (s *Store) ReplaceLocations(ctx context.Context, ls *dataset.LocationStore) error {
	rows := Rows(ls)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM _livecam_geo`); err != nil {
		return fmt.Errorf("clear mirror: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO _livecam_geo(id, lat, lng, geohash, updated_at) VALUES($1,$2,$3,$4,now())`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.ID, r.Lat, r.Lng, r.Geohash); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Info("mirror_replaced", "rows", len(rows))
	return nil
}

// RunStats: 单次运行的计数
type RunStats struct {
	RunID       string
	Full        bool
	Previous    int
	Validated   int
	Candidates  int
	Resolved    int
	Blacklisted int
	Final       int
}

// RecordRun: 追加一条运行记录；同一 run_id 重复写入时覆盖
func (s *Store) RecordRun(ctx context.Context, r RunStats) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _livecam_runs(run_id, full_run, previous, validated, candidates, resolved, blacklisted, final)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (run_id) DO UPDATE SET full_run=EXCLUDED.full_run, previous=EXCLUDED.previous, validated=EXCLUDED.validated,
            candidates=EXCLUDED.candidates, resolved=EXCLUDED.resolved, blacklisted=EXCLUDED.blacklisted, final=EXCLUDED.final, finished_at=now()`,
		r.RunID, r.Full, r.Previous, r.Validated, r.Candidates, r.Resolved, r.Blacklisted, r.Final)
	logger.L().Debug("run_recorded", "run_id", r.RunID, "err", err)
	return err
}

// Count: 镜像表当前行数
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM _livecam_geo`).Scan(&n)
	return n, err
}
