package scoped

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/followupbot/tenantkit/pkg/tenant"
)

// Record is the capability a type needs to participate in tenant isolation:
// it must expose which tenant owns it. The method replaces the duck-typed
// "has a tenant_id attribute" convention with something the compiler checks.
type Record interface {
	GetTenantID() uuid.UUID
}

// Querier is the subset of pgx that accessors execute against. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so scoped operations compose with
// transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Fields is the column set for an insert or update.
type Fields map[string]any

// Accessor is the sole sanctioned data-access path for records of type T.
// Every query it produces is pre-filtered to the tenant bound to the calling
// context, and every record it creates is stamped with that tenant's ID, so
// an unfiltered cross-tenant query is structurally impossible for code that
// stays on this path.
type Accessor[T Record] struct {
	db          Querier
	table       string
	tenantCol   string
	deletedCol  string
	softDeletes bool
	log         *slog.Logger
}

// AccessorOption configures an Accessor.
type AccessorOption func(*accessorConfig)

type accessorConfig struct {
	tenantCol   string
	deletedCol  string
	softDeletes bool
	log         *slog.Logger
}

// WithTenantColumn overrides the tenant identifier column (default tenant_id).
func WithTenantColumn(col string) AccessorOption {
	return func(c *accessorConfig) {
		if col != "" {
			c.tenantCol = col
		}
	}
}

// WithoutSoftDeletes disables the deleted_at filter for tables that do not
// soft-delete.
func WithoutSoftDeletes() AccessorOption {
	return func(c *accessorConfig) { c.softDeletes = false }
}

// WithSoftDeleteColumn overrides the soft-delete marker column (default
// deleted_at).
func WithSoftDeleteColumn(col string) AccessorOption {
	return func(c *accessorConfig) {
		if col != "" {
			c.deletedCol = col
		}
	}
}

// WithLogger sets the logger used for security events.
func WithLogger(log *slog.Logger) AccessorOption {
	return func(c *accessorConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// NewAccessor creates an accessor for records of type T stored in table.
func NewAccessor[T Record](db Querier, table string, opts ...AccessorOption) (*Accessor[T], error) {
	if table == "" {
		return nil, ErrMissingTable
	}
	cfg := &accessorConfig{
		tenantCol:   "tenant_id",
		deletedCol:  "deleted_at",
		softDeletes: true,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Accessor[T]{
		db:          db,
		table:       table,
		tenantCol:   cfg.tenantCol,
		deletedCol:  cfg.deletedCol,
		softDeletes: cfg.softDeletes,
		log:         cfg.log,
	}, nil
}

// Query returns a SELECT builder already filtered to the bound tenant's
// records, excluding soft-deleted rows. Additional predicates AND on top;
// there is no way to widen the filter back out through this type.
func (a *Accessor[T]) Query(ctx context.Context, columns ...string) (sq.SelectBuilder, error) {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return sq.SelectBuilder{}, err
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	b := sq.Select(columns...).
		From(a.table).
		Where(sq.Eq{a.tenantCol: tenantID}).
		PlaceholderFormat(sq.Dollar)
	if a.softDeletes {
		b = b.Where(sq.Eq{a.deletedCol: nil})
	}
	return b, nil
}

// Update returns an UPDATE builder restricted to the bound tenant's rows.
// Exec re-asserts the tenant filter at execution time, so the restriction
// survives even a builder that was modified in between.
func (a *Accessor[T]) Update(ctx context.Context) (sq.UpdateBuilder, error) {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return sq.UpdateBuilder{}, err
	}
	b := sq.Update(a.table).
		Where(sq.Eq{a.tenantCol: tenantID}).
		PlaceholderFormat(sq.Dollar)
	return b, nil
}

// Create inserts a row built from fields, forcibly stamping the tenant
// column with the bound tenant's ID. A caller-supplied value for that column
// is discarded, not validated: the context is the only authority on tenant
// identity. Returns the new row's id.
func (a *Accessor[T]) Create(ctx context.Context, fields Fields) (uuid.UUID, error) {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return uuid.UUID{}, err
	}

	if supplied, ok := fields[a.tenantCol]; ok && supplied != tenantID {
		a.log.WarnContext(ctx, "caller-supplied tenant id overridden on create",
			"table", a.table, "supplied", supplied, "bound", tenantID)
	}

	cols := make([]string, 0, len(fields)+1)
	vals := make([]any, 0, len(fields)+1)
	for col, val := range fields {
		if col == a.tenantCol {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, val)
	}
	cols = append(cols, a.tenantCol)
	vals = append(vals, tenantID)

	query, args, err := sq.Insert(a.table).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("build insert for %s: %w", a.table, err)
	}

	var id uuid.UUID
	if err := a.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("insert into %s: %w", a.table, err)
	}
	return id, nil
}

// All executes a builder produced by Query and collects the rows with scan.
func (a *Accessor[T]) All(ctx context.Context, b sq.SelectBuilder, scan pgx.RowToFunc[T]) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query for %s: %w", a.table, err)
	}
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", a.table, err)
	}
	return pgx.CollectRows(rows, scan)
}

// One executes a builder produced by Query expecting a single row.
func (a *Accessor[T]) One(ctx context.Context, b sq.SelectBuilder, scan pgx.RowToFunc[T]) (T, error) {
	var zero T
	query, args, err := b.ToSql()
	if err != nil {
		return zero, fmt.Errorf("build query for %s: %w", a.table, err)
	}
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("query %s: %w", a.table, err)
	}
	return pgx.CollectOneRow(rows, scan)
}

// Exec executes a builder produced by Update.
func (a *Accessor[T]) Exec(ctx context.Context, b sq.UpdateBuilder) (int64, error) {
	// Re-assert the tenant filter: even if the builder was tampered with,
	// the executed statement only touches the bound tenant's rows.
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return 0, err
	}
	query, args, err := b.Where(sq.Eq{a.tenantCol: tenantID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update for %s: %w", a.table, err)
	}
	tag, err := a.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", a.table, err)
	}
	return tag.RowsAffected(), nil
}

// VerifyOwnership reports whether rec belongs to the bound tenant. Use it
// for records that arrived by some other path, typically a foreign-key join.
func (a *Accessor[T]) VerifyOwnership(ctx context.Context, rec Record) bool {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return false
	}
	return rec.GetTenantID() == tenantID
}

// VerifyOwnershipOrFail is VerifyOwnership that returns ErrCrossTenantAccess
// on mismatch, logging the attempt as a security event first.
func (a *Accessor[T]) VerifyOwnershipOrFail(ctx context.Context, rec Record) error {
	tenantID, err := tenant.CurrentID(ctx)
	if err != nil {
		return err
	}
	if owner := rec.GetTenantID(); owner != tenantID {
		a.log.ErrorContext(ctx, "cross-tenant access attempt",
			"table", a.table, "record_tenant", owner, "bound_tenant", tenantID)
		return fmt.Errorf("%w: record belongs to %s, context bound to %s",
			ErrCrossTenantAccess, owner, tenantID)
	}
	return nil
}
