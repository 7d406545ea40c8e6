package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// IsRemote returns true if the path refers to a libsql server rather than a
// local sqlite file.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "libsql://") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "wss://")
}

// OpenDB opens a local sqlite file (or `:memory:`) or a remote libsql
// database and applies the given schema.
//
// the schema should only contain `CREATE ... IF NOT EXISTS` statements since
// it is applied on every open.
func OpenDB(schema, path string) (*sql.DB, error) {
	if path == "" {
		return nil, wrapOpenDB(fmt.Errorf("a path was not specified"))
	}

	var db *sql.DB
	var err error
	if IsRemote(path) {
		db, err = sql.Open("libsql", path)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
	} else {
		if path != ":memory:" {
			err = os.MkdirAll(filepath.Dir(path), 0777)
			if err != nil {
				return nil, wrapOpenDB(err)
			}
		}
		db, err = sql.Open("sqlite", path)
		if err != nil {
			return nil, wrapOpenDB(err)
		}

		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, wrapOpenDB(err)
		}
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return db, nil
}
