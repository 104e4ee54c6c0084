package utils

import (
	"database/sql"
	"livecam-geo/internal/config"

	_ "github.com/lib/pq"
)

// OpenPostgres：按配置打开连接池；批处理只需少量连接
func OpenPostgres(c config.Postgres) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.DSN())
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := c.MaxOpenConns, c.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 4
	}
	if maxIdle <= 0 {
		maxIdle = 2
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}
