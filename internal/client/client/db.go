package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/linkedcommunity/internal/client/migrations"
	"github.com/dmitrijs2005/linkedcommunity/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/linkedcommunity/internal/filex"

	_ "modernc.org/sqlite"
)

// InitDatabase opens (creating if needed) the local SQLite database at path,
// applies migrations and returns the session cache built on top of it.
func InitDatabase(ctx context.Context, path string) (*sql.DB, *SessionCache, error) {
	clean, err := filex.EnsureDir(path)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("sqlite", clean)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", clean, err)
	}

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, NewSessionCache(metadata.NewSQLiteRepository(db)), nil
}
