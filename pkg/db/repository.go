package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides database access for bulk action handlers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =========================================================================
// OBJECT OPERATIONS
// =========================================================================

// UpsertObject inserts or replaces an object.
func (r *Repository) UpsertObject(ctx context.Context, o *Object) error {
	slog.Debug(fmt.Sprintf("%s - UpsertObject type=%s id=%d", repoLogPrefix, o.Type, o.ID))

	_, err := r.pool.Exec(ctx,
		`INSERT INTO objects (object_type, id, subtype, status, mime_type, email, title)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (object_type, id) DO UPDATE SET
		   subtype = EXCLUDED.subtype, status = EXCLUDED.status, mime_type = EXCLUDED.mime_type,
		   email = EXCLUDED.email, title = EXCLUDED.title, modified = now()`,
		o.Type, o.ID, o.Subtype, o.Status, o.MimeType, o.Email, o.Title)
	if err != nil {
		return fmt.Errorf("%s - UpsertObject: %w", repoLogPrefix, err)
	}
	return nil
}

// GetObject finds one object; it returns nil when none exists.
func (r *Repository) GetObject(ctx context.Context, objectType string, id int) (*Object, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT object_type, id, subtype, status, mime_type, email, title, created, modified
		 FROM objects WHERE object_type = $1 AND id = $2`, objectType, id)

	var o Object
	err := row.Scan(&o.Type, &o.ID, &o.Subtype, &o.Status, &o.MimeType, &o.Email, &o.Title, &o.Created, &o.Modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - GetObject: %w", repoLogPrefix, err)
	}
	return &o, nil
}

// GetObjects loads the objects of one type with the given ids, keyed by id.
// Missing ids are absent from the map.
func (r *Repository) GetObjects(ctx context.Context, objectType string, ids []int) (map[int]*Object, error) {
	out := make(map[int]*Object, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT object_type, id, subtype, status, mime_type, email, title, created, modified
		 FROM objects WHERE object_type = $1 AND id = ANY($2)`, objectType, toInt64s(ids))
	if err != nil {
		return nil, fmt.Errorf("%s - GetObjects: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o Object
		if err := rows.Scan(&o.Type, &o.ID, &o.Subtype, &o.Status, &o.MimeType, &o.Email, &o.Title, &o.Created, &o.Modified); err != nil {
			return nil, fmt.Errorf("%s - GetObjects scan: %w", repoLogPrefix, err)
		}
		obj := o
		out[o.ID] = &obj
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - GetObjects rows: %w", repoLogPrefix, err)
	}
	return out, nil
}

// =========================================================================
// META OPERATIONS
// =========================================================================

// SetMeta writes key=value for every id, replacing existing values. Duplicate
// ids are written once. It returns the number of distinct ids written.
func (r *Repository) SetMeta(ctx context.Context, objectType string, ids []int, key, value string) (int64, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	slog.Debug(fmt.Sprintf("%s - SetMeta type=%s key=%s ids=%d", repoLogPrefix, objectType, key, len(ids)))

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO object_meta (object_type, object_id, meta_key, meta_value)
		 SELECT $1, id, $3, $4 FROM unnest($2::bigint[]) AS id
		 ON CONFLICT (object_type, object_id, meta_key) DO UPDATE SET
		   meta_value = EXCLUDED.meta_value, modified = now()`,
		objectType, toInt64s(ids), key, value)
	if err != nil {
		return 0, fmt.Errorf("%s - SetMeta: %w", repoLogPrefix, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteMeta removes key from every id and returns how many rows were removed.
func (r *Repository) DeleteMeta(ctx context.Context, objectType string, ids []int, key string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	slog.Debug(fmt.Sprintf("%s - DeleteMeta type=%s key=%s ids=%d", repoLogPrefix, objectType, key, len(ids)))

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM object_meta WHERE object_type = $1 AND object_id = ANY($2) AND meta_key = $3`,
		objectType, toInt64s(ids), key)
	if err != nil {
		return 0, fmt.Errorf("%s - DeleteMeta: %w", repoLogPrefix, err)
	}
	return tag.RowsAffected(), nil
}

// GetMeta reads one meta value; ok is false when it is not set.
func (r *Repository) GetMeta(ctx context.Context, objectType string, id int, key string) (value string, ok bool, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT meta_value FROM object_meta WHERE object_type = $1 AND object_id = $2 AND meta_key = $3`,
		objectType, id, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s - GetMeta: %w", repoLogPrefix, err)
	}
	return value, true, nil
}

// =========================================================================
// MAIL OUTBOX
// =========================================================================

// EnqueueMail queues a message and returns its outbox id.
func (r *Repository) EnqueueMail(ctx context.Context, m *Mail) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO mail_outbox (recipient, subject, body, object_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		m.Recipient, m.Subject, m.Body, m.ObjectID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s - EnqueueMail: %w", repoLogPrefix, err)
	}
	return id, nil
}

// PendingMail lists unsent outbox messages, oldest first.
func (r *Repository) PendingMail(ctx context.Context, limit int) ([]Mail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, recipient, subject, body, object_id, created, sent
		 FROM mail_outbox WHERE sent IS NULL ORDER BY created, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s - PendingMail: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []Mail
	for rows.Next() {
		var m Mail
		if err := rows.Scan(&m.ID, &m.Recipient, &m.Subject, &m.Body, &m.ObjectID, &m.Created, &m.Sent); err != nil {
			return nil, fmt.Errorf("%s - PendingMail scan: %w", repoLogPrefix, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// =========================================================================
// HELPERS
// =========================================================================

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func distinct(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
