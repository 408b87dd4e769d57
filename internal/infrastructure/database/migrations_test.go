package database

import (
	"context"
	"embed"
	"testing"
	"testing/fstest"
	"time"
)

//go:embed testdata/*.sql
var testMigrations embed.FS

// withSource points the package at the embedded test migrations for the
// duration of a test.
func withSource(t *testing.T, dir string) {
	t.Helper()
	origSource, origDir := Source, SourceDir
	t.Cleanup(func() {
		Source, SourceDir = origSource, origDir
	})
	Source, SourceDir = testMigrations, dir
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master query error = %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	withSource(t, "testdata")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"test_items", "test_tags"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s not created", table)
		}
	}

	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied = %d, pending = %d; want 2, 0", len(applied), len(pending))
	}
	if applied[0].Version != "20260101_000000" || applied[0].AppliedAt.IsZero() {
		t.Errorf("applied[0] = %+v", applied[0])
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestRollback(t *testing.T) {
	withSource(t, "testdata")
	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if tableExists(t, db, "test_tags") {
		t.Error("test_tags still exists after rollback")
	}
	if !tableExists(t, db, "test_items") {
		t.Error("earlier migration was rolled back too")
	}

	_, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "create_tags" {
		t.Errorf("pending = %+v, want create_tags", pending)
	}
}

func TestMigrate_NoSource(t *testing.T) {
	origSource := Source
	t.Cleanup(func() { Source = origSource })
	Source = nil

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Errorf("Migrate() with no source error = %v", err)
	}
	if err := db.Rollback(ctx); err != nil {
		t.Errorf("Rollback() with nothing applied error = %v", err)
	}
}

func TestMigrate_FailureKeepsEarlierSteps(t *testing.T) {
	origSource, origDir := Source, SourceDir
	t.Cleanup(func() { Source, SourceDir = origSource, origDir })
	Source = fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok_table (id INTEGER);")},
		"20260102_000000_broken.up.sql": {Data: []byte("CREATE TABLE broken (;")},
	}
	SourceDir = "."

	db := openTestDB(t)
	defer db.Close() //nolint:errcheck // Test cleanup
	ctx := context.Background()

	if err := db.Migrate(ctx); err == nil {
		t.Fatal("Migrate() error = nil, want failure on broken migration")
	}
	if !tableExists(t, db, "ok_table") {
		t.Error("first migration not kept")
	}
	applied, pending, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 1 {
		t.Errorf("applied = %d, pending = %d; want 1, 1", len(applied), len(pending))
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOk      bool
	}{
		{"20261015_120000_slots.up.sql", "20261015_120000", "slots", true, true},
		{"20261015_120000_slots.down.sql", "20261015_120000", "slots", false, true},
		{"20261015_120000_add_slot_size.up.sql", "20261015_120000", "add_slot_size", true, true},
		{"readme.txt", "", "", false, false},
		{"20261015_120000_slots.sql", "", "", false, false},
		{"invalid.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)", version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}
