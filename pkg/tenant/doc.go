// Package tenant binds every inbound webhook request to exactly one verified
// Slack workspace for the request's entire lifetime.
//
// The package is built from four pieces, leaf first:
//
//  1. Cache - a TTL-bounded front for the Store (Redis-backed for
//     multi-instance deployments, in-memory for single-node and tests).
//     The cache is a performance optimization only: every failure inside it
//     degrades to a miss, never to a request error.
//  2. Store - the persistent source of tenant records, implemented by
//     pkg/tenantstore on Postgres.
//  3. Resolver - turns a workspace ID into a usable Tenant via cache then
//     store, rejecting soft-deleted, suspended, cancelled and expired-trial
//     tenants, optionally auto-provisioning unknown workspaces into trial.
//  4. Middleware - the request lifecycle orchestrator: verify the Slack
//     signature, extract the workspace ID, resolve, bind, run the handler.
//
// # Context binding
//
// The resolved tenant travels in the request's context.Context under a
// private key - an explicit, per-request value rather than anything
// process-wide, so two concurrent requests can never observe each other's
// tenant:
//
//	t, err := tenant.Current(r.Context())
//
// Work that outlives the request must capture the binding and re-attach it;
// nothing is inherited across goroutine boundaries implicitly:
//
//	b, _ := tenant.CurrentBinding(r.Context())
//	go func() {
//		ctx := b.Attach(context.Background())
//		// tenant-scoped operations are valid here
//	}()
//
// # Wiring
//
//	auth := slackwebhook.NewAuthenticator(cfg.SigningSecret)
//	resolver := tenant.NewResolver(store,
//		tenant.WithCache(tenant.NewRedisCache(redisClient)),
//	)
//	router.Use(tenant.Middleware(auth, resolver,
//		tenant.WithSkipPaths("/health", "/ready"),
//	))
//
// Failure responses carry machine-readable codes (MISSING_TENANT_ID,
// INVALID_SIGNATURE, TENANT_NOT_FOUND, TENANT_SUSPENDED, STORE_UNAVAILABLE)
// so the calling platform can show a useful message without this service
// leaking why verification failed.
package tenant
