// Package builtin provides the stock bulk action handlers and a catalog that
// resolves them by name.
package builtin

import (
	"context"

	"github.com/morezero/bulk-actions/pkg/db"
)

// Store is the persistence the built-in handlers need. *db.Repository
// implements it.
type Store interface {
	GetObjects(ctx context.Context, objectType string, ids []int) (map[int]*db.Object, error)
	SetMeta(ctx context.Context, objectType string, ids []int, key, value string) (int64, error)
	DeleteMeta(ctx context.Context, objectType string, ids []int, key string) (int64, error)
	EnqueueMail(ctx context.Context, m *db.Mail) (int64, error)
}

var _ Store = (*db.Repository)(nil)
