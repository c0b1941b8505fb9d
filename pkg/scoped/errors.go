package scoped

import "errors"

var (
	// ErrCrossTenantAccess is returned when a record belonging to another
	// tenant is presented to an accessor. This is a security event, not a
	// not-found: it means some code path obtained a record outside the
	// scoped query, and it must propagate out of business error handling
	// untouched.
	ErrCrossTenantAccess = errors.New("cross-tenant access denied")

	// ErrMissingTable is returned when an accessor is built without a table.
	ErrMissingTable = errors.New("scoped accessor requires a table name")
)
