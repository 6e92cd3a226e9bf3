package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "client.db")

	db, cache, err := InitDatabase(ctx, path)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	defer db.Close()

	if cache == nil {
		t.Fatalf("expected a session cache")
	}
	for _, name := range []string{"goose_db_version", "metadata"} {
		if !tableExists(t, db, name) {
			t.Fatalf("expected table %q to exist after migrations", name)
		}
	}
}

func TestInitDatabase_SessionSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	db, cache, err := InitDatabase(ctx, path)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	want := SavedSession{RefreshToken: "R1", IdentityID: "u1", Email: "a@b.com"}
	if err := cache.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = db.Close()

	db, cache, err = InitDatabase(ctx, path)
	if err != nil {
		t.Fatalf("second InitDatabase error: %v", err)
	}
	defer db.Close()

	got, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load after clear: %v", err)
	}
	if got != (SavedSession{}) {
		t.Fatalf("expected empty session after Clear, got %+v", got)
	}
}
