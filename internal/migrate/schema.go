package migrate

import (
	"context"
	"database/sql"
	"livecam-geo/internal/logger"
)

// 背景：首次运行自动创建镜像表与索引，供下游按地理网格检索摄像头
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _livecam_geo (
            id TEXT PRIMARY KEY,
            lat DOUBLE PRECISION NOT NULL,
            lng DOUBLE PRECISION NOT NULL,
            geohash TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_livecam_geo_geohash ON _livecam_geo(geohash)`,
		`CREATE TABLE IF NOT EXISTS _livecam_runs (
            run_id TEXT PRIMARY KEY,
            full_run BOOLEAN NOT NULL,
            previous INT NOT NULL,
            validated INT NOT NULL,
            candidates INT NOT NULL,
            resolved INT NOT NULL,
            blacklisted INT NOT NULL,
            final INT NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
