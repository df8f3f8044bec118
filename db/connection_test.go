package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/burrowcms/burrow/errors"
)

func TestOpen(t *testing.T) {
	t.Run("opens store successfully", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "tenant-alpha.db")

		db, err := Open(dbPath, nil)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify WAL mode enabled
		var journalMode string
		err = db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
		require.NoError(t, err)
		assert.Equal(t, "wal", journalMode)

		// Verify foreign keys enabled
		var foreignKeys int
		err = db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
		require.NoError(t, err)
		assert.Equal(t, 1, foreignKeys)

		// Verify busy timeout set
		var busyTimeout int
		err = db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout)
		require.NoError(t, err)
		assert.Equal(t, SQLiteBusyTimeoutMS, busyTimeout)
	})

	t.Run("returns error for unusable path", func(t *testing.T) {
		invalidPath := "/invalid/nonexistent/path/tenant-x.db"

		db, err := Open(invalidPath, nil)

		// If Open() succeeds (lazy connection on some platforms), Ping() will fail
		if err == nil && db != nil {
			err = db.Ping()
			db.Close()
		}

		assert.Error(t, err)
	})

	t.Run("creates store file if it doesn't exist", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "tenant-new.db")

		_, err := os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		db, err := Open(dbPath, nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})
}

func TestOpen_WithLogger(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tenant-logged.db")

	logger := zaptest.NewLogger(t).Sugar()
	db, err := Open(dbPath, logger)
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()
}

func TestIsDatabaseClosed(t *testing.T) {
	t.Run("detects closed handle errors", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "tenant-closing.db")
		db, err := Open(dbPath, nil)
		require.NoError(t, err)
		db.Close()

		_, err = db.Exec("PRAGMA journal_mode")
		require.Error(t, err)
		assert.True(t, IsDatabaseClosed(err))
	})

	t.Run("wrapped sentinel is detected", func(t *testing.T) {
		err := errors.Wrap(ErrDatabaseClosed, "query posts")
		assert.True(t, IsDatabaseClosed(err))
	})

	t.Run("nil and unrelated errors are not closed", func(t *testing.T) {
		assert.False(t, IsDatabaseClosed(nil))
		assert.False(t, IsDatabaseClosed(errors.New("disk full")))
	})
}
