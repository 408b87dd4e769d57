// Package database opens the project's SQLite database and keeps its
// schema current.
//
// The database backs the default persistence slot and the commit history.
// It is opened with WAL mode and a busy timeout so the autosaver never trips
// over a reader, and the pool is capped at a single connection because
// SQLite has one writer.
//
// Schema changes live as pairs of .up.sql/.down.sql files in the top-level
// migrations package, which embeds them and registers the result in
// Source. Migrate applies whatever is pending; Rollback reverts the newest
// step and exists for development.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
