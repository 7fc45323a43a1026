package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/vatpac-net/ingestd/internal/config"
)

// DB is the sqlx handle used for schema bootstrap, the health check, and the
// hand-written SQL repositories (queries, occupancy, transceiver, controller
// archive, summary). Kept alongside the GORM handle (orm.go) the same way
// the teacher runs both an sqlx pool and a GORM pool against the same
// database: GORM serves the Write Batcher's upserts and the airport
// reference-data repository.
var DB *sqlx.DB

// InitPostgres opens the sqlx connection pool, retrying briefly to ride out
// a database container that is still starting up.
func InitPostgres(cfg *config.Config) error {
	var err error
	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", cfg.PostgresDSN())
		if err == nil {
			DB.SetMaxOpenConns(16)
			DB.SetMaxIdleConns(8)
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}
