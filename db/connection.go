// Package db opens and migrates tenant stores.
//
// Embedded stores are SQLite files opened with session PRAGMAs applied
// exactly once per handle. Networked stores are MySQL endpoints; they get
// no PRAGMAs and no migrations (schema is managed server-side).
package db

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/burrowcms/burrow/errors"
)

// SQLiteBusyTimeoutMS is the per-handle busy timeout applied at open.
const SQLiteBusyTimeoutMS = 5000

// Open opens a SQLite store at the specified path with session settings.
// If logger is provided, logs store operations; otherwise operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening tenant store", "path", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}

	// WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}

	if logger != nil {
		logger.Infow("Tenant store opened",
			"path", path,
			"wal_mode", true,
			"foreign_keys", true,
		)
	}

	return db, nil
}

// OpenMySQL opens a networked store using the given DSN.
// The connection is verified with a ping so a bad endpoint fails at open,
// not on first query.
func OpenMySQL(dsn string, logger *zap.SugaredLogger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open networked store")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping networked store")
	}

	if logger != nil {
		logger.Infow("Networked store opened")
	}

	return db, nil
}
