// Package postgres stores records as JSONB rows in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tidwall/sjson"

	"intake/internal/submission/models"
	"intake/internal/submission/ports"
	"intake/internal/submission/store"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/platform/sentinel"
	txcontext "intake/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Postgres error codes treated as optimistic conflicts.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Store implements ports.Store. The version column is authoritative; the
// version inside the JSON body is overwritten on load.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

type Option func(*Store)

func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const schema = `
CREATE TABLE IF NOT EXISTS resources (
	resource_type TEXT NOT NULL,
	id            TEXT NOT NULL,
	version       BIGINT NOT NULL,
	last_updated  TIMESTAMPTZ NOT NULL,
	body          JSONB NOT NULL,
	PRIMARY KEY (resource_type, id)
);
CREATE INDEX IF NOT EXISTS resources_body_idx ON resources USING GIN (body jsonb_path_ops);
CREATE INDEX IF NOT EXISTS resources_updated_idx ON resources (resource_type, last_updated DESC);
`

// Migrate creates the resources table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate resources: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads one record. Inside a transaction the row is locked until commit.
func (s *Store) Load(ctx context.Context, t models.ResourceType, id string) (models.Resource, error) {
	query := `SELECT body, version FROM resources WHERE resource_type = $1 AND id = $2`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	var (
		body    []byte
		version int64
	)
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, string(t), id).Scan(&body, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", t, id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load %s/%s: %w", t, id, translate(err))
	}
	return decodeRow(body, version)
}

func decodeRow(body []byte, version int64) (models.Resource, error) {
	r, err := models.Decode(body)
	if err != nil {
		return nil, err
	}
	r.Metadata().Version = version
	return r, nil
}

// Upsert writes the record; see ports.Store for the version contract.
func (s *Store) Upsert(ctx context.Context, r models.Resource) error {
	if r.ResourceType() == "" || r.ResourceID() == "" {
		return fmt.Errorf("upsert: record type and id are required")
	}
	body, err := models.Encode(r)
	if err != nil {
		return err
	}
	exec := txcontext.ExecutorFor(ctx, s.db)
	meta := r.Metadata()
	lastUpdated := meta.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = time.Now()
	}

	var version int64
	if meta.Version == 0 {
		err = exec.QueryRowContext(ctx, `
			INSERT INTO resources (resource_type, id, version, last_updated, body)
			VALUES ($1, $2, 1, $3, $4)
			ON CONFLICT (resource_type, id) DO UPDATE SET
				version = resources.version + 1,
				last_updated = EXCLUDED.last_updated,
				body = EXCLUDED.body
			RETURNING version
		`, string(r.ResourceType()), r.ResourceID(), lastUpdated, body).Scan(&version)
	} else {
		err = exec.QueryRowContext(ctx, `
			UPDATE resources
			SET version = version + 1, last_updated = $3, body = $4
			WHERE resource_type = $1 AND id = $2 AND version = $5
			RETURNING version
		`, string(r.ResourceType()), r.ResourceID(), lastUpdated, body, meta.Version).Scan(&version)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s at version %d: %w", r.AsReference(), meta.Version, sentinel.ErrConflict)
		}
		return fmt.Errorf("upsert %s: %w", r.AsReference(), translate(err))
	}
	meta.Version = version
	return nil
}

// Search pushes type, tag, template and linkage filters into SQL through JSONB
// containment; subject matching happens on the decoded records since each
// kind names its subject field differently.
func (s *Store) Search(ctx context.Context, q ports.Query) ([]models.Resource, error) {
	containment, err := containmentDoc(q)
	if err != nil {
		return nil, err
	}
	var (
		clauses []string
		args    []any
	)
	if q.Type != "" {
		args = append(args, string(q.Type))
		clauses = append(clauses, fmt.Sprintf("resource_type = $%d", len(args)))
	}
	if containment != "" {
		args = append(args, containment)
		clauses = append(clauses, fmt.Sprintf("body @> $%d::jsonb", len(args)))
	}
	query := `SELECT body, version FROM resources`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY last_updated DESC, resource_type, id`

	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search resources: %w", translate(err))
	}
	defer rows.Close()

	var out []models.Resource
	for rows.Next() {
		var (
			body    []byte
			version int64
		)
		if err := rows.Scan(&body, &version); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		r, err := decodeRow(body, version)
		if err != nil {
			return nil, err
		}
		if store.Matches(r, q) {
			out = append(out, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return store.SortAndLimit(out, q.Limit), nil
}

func containmentDoc(q ports.Query) (string, error) {
	doc := ""
	var err error
	set := func(path string, v any) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, v)
	}
	if q.Tag != nil {
		set("meta.tags.0.system", q.Tag.System)
		set("meta.tags.0.code", q.Tag.Code)
	}
	if !q.Template.IsZero() {
		set("template", string(q.Template))
	}
	if q.Linkage != nil {
		set("links.0.code", q.Linkage.Code)
		set("links.0.target", string(q.Linkage.Target))
	}
	if err != nil {
		return "", fmt.Errorf("build search document: %w", err)
	}
	return doc, nil
}

// RunInTx opens a database transaction carried in ctx. A nested call joins
// the enclosing transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", translate(err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", translate(err))
	}
	return nil
}

// translate maps Postgres contention errors onto sentinel.ErrConflict.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w", pgErr.Message, sentinel.ErrConflict)
		}
	}
	return err
}
