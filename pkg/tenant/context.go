package tenant

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/followupbot/tenantkit/pkg/requestid"
)

// contextKey is a private type so no other package can forge or shadow the
// binding.
type contextKey struct{}

// Binding is the per-request carrier of the resolved tenant. It is immutable
// after construction: once a request is bound, it refers to the same tenant
// until the request ends. For work that outlives the request, capture the
// Binding and re-attach it inside the new goroutine; context values are never
// inherited across concurrency boundaries implicitly.
type Binding struct {
	Tenant    *Tenant
	BoundAt   time.Time
	RequestID string
}

// Attach re-binds a captured Binding onto a fresh context. This is the
// sanctioned way to carry tenant identity into background work:
//
//	b, _ := tenant.CurrentBinding(r.Context())
//	go func() {
//		ctx := b.Attach(context.Background())
//		// scoped operations work here
//	}()
func (b Binding) Attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// Bind associates the resolved tenant with the request context. It is called
// exactly once per request, after resolution and before the handler runs.
// Panics on a nil tenant: binding nothing is always a bug.
func Bind(ctx context.Context, t *Tenant) context.Context {
	if t == nil {
		panic("tenant: Bind called with nil tenant")
	}
	return Binding{
		Tenant:    t,
		BoundAt:   time.Now(),
		RequestID: requestid.FromContext(ctx),
	}.Attach(ctx)
}

// Current returns the tenant bound to ctx, or ErrNoContextBound outside a
// bound scope.
func Current(ctx context.Context) (*Tenant, error) {
	b, ok := ctx.Value(contextKey{}).(Binding)
	if !ok || b.Tenant == nil {
		return nil, ErrNoContextBound
	}
	return b.Tenant, nil
}

// CurrentID returns just the bound tenant's ID, for query filters.
func CurrentID(ctx context.Context) (uuid.UUID, error) {
	t, err := Current(ctx)
	if err != nil {
		return uuid.UUID{}, err
	}
	return t.ID, nil
}

// CurrentBinding returns the full binding, including when it was established
// and the originating request ID.
func CurrentBinding(ctx context.Context) (Binding, bool) {
	b, ok := ctx.Value(contextKey{}).(Binding)
	return b, ok && b.Tenant != nil
}

// MustCurrent returns the bound tenant or panics. A missing binding here is
// not recoverable: it means a code path skipped the middleware or a
// background task did not re-bind, and it should fail loudly instead of
// silently operating without isolation.
func MustCurrent(ctx context.Context) *Tenant {
	t, err := Current(ctx)
	if err != nil {
		panic(err)
	}
	return t
}

// LoggerExtractor feeds the bound tenant ID into the logger's context
// decorator so every log line inside a request carries it.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if t, err := Current(ctx); err == nil {
			return slog.String("tenant_id", t.ID.String()), true
		}
		return slog.Attr{}, false
	}
}
