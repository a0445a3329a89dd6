package storage

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:" and limit the pool to a single connection, as
// each in-memory connection gets its own database.
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS scorer_storage (
    fingerprint TEXT PRIMARY KEY,
    kind        TEXT NOT NULL,
    points      BLOB NOT NULL,
    "index"     BLOB NOT NULL,
    created_at  INTEGER NOT NULL
);
`

// EnsureSchema creates the snapshot table in the provided database if it
// does not already exist. A row holds one built snapshot: the normalized
// point set, the serialized index tagged with its kind, and the fingerprint
// of the source data it was built from.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(snapshotSchema)
	return err
}
