// Package tenantstore implements tenant.Store on Postgres.
//
// Reads always filter soft-deleted rows; deletion is a deleted_at stamp and
// nothing is ever removed. Transport and server failures surface as
// tenant.ErrStoreUnavailable so the resolver can map them to a 503 instead
// of confusing them with an absent tenant.
package tenantstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/followupbot/tenantkit/pkg/pg"
	"github.com/followupbot/tenantkit/pkg/tenant"
)

const tableName = "tenants"

// DefaultQueryTimeout bounds each store query so a slow database cannot
// starve the request pool.
const DefaultQueryTimeout = time.Second

var tenantColumns = []string{
	"id", "workspace_id", "name", "domain", "plan_tier", "status",
	"trial_ends_at", "created_at", "updated_at", "deleted_at",
}

// Store is a Postgres-backed tenant.Store.
type Store struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithQueryTimeout overrides the per-query deadline.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// New creates a Store over an established connection pool.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:         pool,
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByWorkspaceID returns the single non-deleted tenant for a workspace.
func (s *Store) GetByWorkspaceID(ctx context.Context, workspaceID string) (*tenant.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query, args, err := sq.Select(tenantColumns...).
		From(tableName).
		Where(sq.Eq{"workspace_id": workspaceID, "deleted_at": nil}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tenant query: %w", err)
	}

	var t tenant.Tenant
	row := s.pool.QueryRow(ctx, query, args...)
	err = row.Scan(&t.ID, &t.WorkspaceID, &t.Name, &t.Domain, &t.PlanTier,
		&t.Status, &t.TrialEndsAt, &t.CreatedAt, &t.UpdatedAt, &t.DeletedAt)
	switch {
	case err == nil:
		return &t, nil
	case pg.IsNotFoundError(err):
		return nil, tenant.ErrTenantNotFound
	default:
		return nil, errors.Join(tenant.ErrStoreUnavailable, err)
	}
}

// Create inserts a new tenant row. The partial unique index on workspace_id
// (non-deleted rows only) makes concurrent provisioning race-safe: the loser
// gets ErrTenantExists and re-reads the winner.
func (s *Store) Create(ctx context.Context, t *tenant.Tenant) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query, args, err := sq.Insert(tableName).
		Columns("id", "workspace_id", "name", "domain", "plan_tier", "status",
			"trial_ends_at", "created_at", "updated_at").
		Values(t.ID, t.WorkspaceID, t.Name, t.Domain, t.PlanTier, t.Status,
			t.TrialEndsAt, t.CreatedAt, t.UpdatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build tenant insert: %w", err)
	}

	switch _, err := s.pool.Exec(ctx, query, args...); {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyError(err):
		return tenant.ErrTenantExists
	default:
		return errors.Join(tenant.ErrStoreUnavailable, err)
	}
}

// UpdateStatus transitions the subscription state of a non-deleted tenant.
func (s *Store) UpdateStatus(ctx context.Context, workspaceID string, status tenant.Status) error {
	return s.update(ctx, workspaceID, sq.Eq{"status": status})
}

// SoftDelete marks the tenant deleted. The row stays; resolution and scoped
// queries stop seeing it immediately.
func (s *Store) SoftDelete(ctx context.Context, workspaceID string) error {
	return s.update(ctx, workspaceID, sq.Eq{"deleted_at": time.Now()})
}

func (s *Store) update(ctx context.Context, workspaceID string, set sq.Eq) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	b := sq.Update(tableName).
		Where(sq.Eq{"workspace_id": workspaceID, "deleted_at": nil}).
		Set("updated_at", time.Now()).
		PlaceholderFormat(sq.Dollar)
	for col, val := range set {
		b = b.Set(col, val)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build tenant update: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return errors.Join(tenant.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
