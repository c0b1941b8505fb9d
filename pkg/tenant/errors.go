package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no non-deleted tenant matches the
	// workspace ID. For webhooks this usually means the app is not installed.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantSuspended is returned when a tenant exists but its
	// subscription is not usable (suspended, cancelled or expired trial).
	ErrTenantSuspended = errors.New("tenant subscription is not usable")

	// ErrTenantExists is returned by Store.Create when a non-deleted tenant
	// with the same workspace ID already exists.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrStoreUnavailable is returned when the persistent store cannot be
	// reached. Unlike cache failures it is terminal for the request.
	ErrStoreUnavailable = errors.New("tenant store unavailable")

	// ErrNoContextBound is returned when tenant-scoped code runs outside a
	// bound scope. This is a programmer error, not a runtime condition: some
	// code path (typically a background task) forgot to re-bind.
	ErrNoContextBound = errors.New("no tenant bound to context")
)
