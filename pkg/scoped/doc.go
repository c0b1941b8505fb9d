// Package scoped provides the sole sanctioned data-access path for
// tenant-owned records.
//
// The single most dangerous bug class in a multi-tenant system is a query
// that forgets its tenant_id predicate and silently returns every tenant's
// data. This package closes that class structurally instead of by per-call
// discipline: an Accessor derives the tenant filter from the request's bound
// context, applies it to every SELECT and UPDATE it builds, stamps it onto
// every INSERT, and offers no operation that skips it.
//
//	acc, err := scoped.NewAccessor[MeetingSession](pool, "meeting_sessions")
//
//	q, err := acc.Query(ctx, "id", "title")          // WHERE tenant_id = $1 AND deleted_at IS NULL
//	q = q.Where(sq.Gt{"created_at": lastWeek})       // caller predicates AND on top
//	sessions, err := acc.All(ctx, q, scanSession)
//
// Records obtained by any other path (a join, a foreign key walk, a cache)
// must pass VerifyOwnershipOrFail before use; a mismatch is
// ErrCrossTenantAccess, which is a security event and must not be absorbed
// by ordinary error handling.
//
// Every operation requires a tenant bound to ctx and fails with
// tenant.ErrNoContextBound otherwise - loudly, because an unbound scoped
// call is a forgotten re-bind, not a user condition.
package scoped
