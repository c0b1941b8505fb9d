package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultTrialPeriod is granted to auto-provisioned tenants.
const DefaultTrialPeriod = 14 * 24 * time.Hour

// Resolver turns a Slack workspace ID into a fully loaded, usable Tenant.
// Lookups consult the cache first, then the store; fresh records are cached
// on the way out. Every returned tenant has passed the usability check:
// "found" and "usable" are different things, and the resolver never conflates
// them.
type Resolver struct {
	store         Store
	cache         Cache
	cacheTTL      time.Duration
	autoProvision bool
	trialPeriod   time.Duration
	now           func() time.Time
	log           *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache replaces the default in-memory cache. Pass NewRedisCache for
// multi-instance deployments, NewNoopCache to disable caching.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithCacheTTL overrides the freshness window for cached tenants.
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithAutoProvision enables creating a trial tenant on the first webhook from
// an unknown workspace. Off by default: production installs go through the
// OAuth flow, which calls ProvisionIfAbsent explicitly.
func WithAutoProvision(enabled bool) ResolverOption {
	return func(r *Resolver) { r.autoProvision = enabled }
}

// WithTrialPeriod sets the trial length for provisioned tenants.
func WithTrialPeriod(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.trialPeriod = d
		}
	}
}

// WithResolverClock substitutes the time source, for tests.
func WithResolverClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	if store == nil {
		panic("tenant: NewResolver requires a store")
	}
	r := &Resolver{
		store:       store,
		cacheTTL:    DefaultCacheTTL,
		trialPeriod: DefaultTrialPeriod,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	// The in-memory default owns a janitor goroutine, so it is only built
	// when no cache was supplied.
	if r.cache == nil {
		r.cache = NewMemoryCache()
	}
	return r
}

// Resolve returns the usable tenant for workspaceID.
//
// Cache hits are still subject to the usability check: a tenant suspended
// less than one TTL ago may be served from cache, and must be rejected here
// rather than trusted because it was cached while permissive.
func (r *Resolver) Resolve(ctx context.Context, workspaceID string) (*Tenant, error) {
	if cached, ok := r.cache.Get(ctx, workspaceID); ok {
		if err := r.usable(cached); err != nil {
			return nil, err
		}
		return cached, nil
	}

	t, err := r.store.GetByWorkspaceID(ctx, workspaceID)
	switch {
	case err == nil:
		// Fresh record: cache before the usability check so a suspended
		// tenant doesn't hit the store on every retry.
		r.cache.Set(ctx, workspaceID, t, r.cacheTTL)
		if err := r.usable(t); err != nil {
			return nil, err
		}
		return t, nil

	case errors.Is(err, ErrTenantNotFound):
		if !r.autoProvision {
			return nil, err
		}
		r.log.InfoContext(ctx, "auto-provisioning tenant for unknown workspace",
			"workspace_id", workspaceID)
		return r.ProvisionIfAbsent(ctx, workspaceID, workspaceID)

	default:
		return nil, err
	}
}

// ProvisionIfAbsent returns the existing tenant for workspaceID or creates a
// new one in trial state. It is idempotent: two concurrent calls for the same
// workspace converge on a single record, with the loser of the insert race
// re-reading the winner's row. The usability check is deliberately skipped;
// installation flows need the record regardless of subscription state.
func (r *Resolver) ProvisionIfAbsent(ctx context.Context, workspaceID, name string) (*Tenant, error) {
	existing, err := r.store.GetByWorkspaceID(ctx, workspaceID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	now := r.now()
	trialEnd := now.Add(r.trialPeriod)
	t := &Tenant{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Name:        name,
		PlanTier:    "free",
		Status:      StatusTrial,
		TrialEndsAt: &trialEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	switch err := r.store.Create(ctx, t); {
	case err == nil:
		r.log.InfoContext(ctx, "tenant provisioned",
			"workspace_id", workspaceID, "tenant_id", t.ID, "trial_ends_at", trialEnd)
		return t, nil
	case errors.Is(err, ErrTenantExists):
		// Lost the race; the winner's record is authoritative.
		return r.store.GetByWorkspaceID(ctx, workspaceID)
	default:
		return nil, err
	}
}

// SetStatus transitions the tenant's subscription state in the store and
// invalidates the cache entry, so the change is visible immediately rather
// than after the TTL lapses.
func (r *Resolver) SetStatus(ctx context.Context, workspaceID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid tenant status %q", status)
	}
	if err := r.store.UpdateStatus(ctx, workspaceID, status); err != nil {
		return err
	}
	r.cache.Delete(ctx, workspaceID)
	r.log.InfoContext(ctx, "tenant status changed",
		"workspace_id", workspaceID, "status", status)
	return nil
}

// Invalidate drops the cached entry for workspaceID. Call it after any
// out-of-band mutation of the tenant record.
func (r *Resolver) Invalidate(ctx context.Context, workspaceID string) {
	r.cache.Delete(ctx, workspaceID)
}

// InvalidateAll drops every cached tenant.
func (r *Resolver) InvalidateAll(ctx context.Context) {
	r.cache.DeleteAll(ctx)
}

func (r *Resolver) usable(t *Tenant) error {
	if t.DeletedAt != nil {
		// Soft-deleted rows normally never reach here (the store filters
		// them), but a stale cache entry can.
		return ErrTenantNotFound
	}
	if !t.Usable(r.now()) {
		return fmt.Errorf("%w: workspace %s status %s", ErrTenantSuspended, t.WorkspaceID, t.Status)
	}
	return nil
}
