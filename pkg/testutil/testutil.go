package testutil

import (
	"database/sql"
	"gradewatch/pkg/sqliteutil"
	"testing"
)

// SetupDB opens an in-memory sqlite database with the given schema applied,
// the database is closed when the test finishes.
func SetupDB(t testing.TB, schema string) *sql.DB {
	t.Helper()

	db, err := sqliteutil.OpenDB(schema, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
