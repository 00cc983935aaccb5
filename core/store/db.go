package store

import (
	"database/sql"
	"flag"
	"strings"

	"bantay-pod/config"
	"bantay-pod/core/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// NewDB opens the configured database. Production runs on postgres via the
// pgx stdlib driver; a file-backed sqlite database is used when db_path is
// set or inside the go test runtime.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	if cfg.DBPath != "" || driver == "sqlite" || isTestRuntime() {
		path := cfg.DBPath
		if path == "" {
			path = "data/bantay.db"
		}
		if logger != nil {
			logger.Printf("opening sqlite database at %s", path)
		}
		db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		return db, nil
	}
	if logger != nil {
		logger.Printf("opening postgres database")
	}
	return sql.Open("pgx", cfg.DBURL)
}

func isTestRuntime() bool {
	return flag.Lookup("test.v") != nil
}
