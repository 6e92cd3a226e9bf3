// Package metadata stores small key/value settings in the client's local
// SQLite database. The session cache lives here.
package metadata

import (
	"context"
)

// Repository is a string key/value store. Get returns ("", nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
}
