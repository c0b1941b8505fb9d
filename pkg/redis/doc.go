// Package redis establishes the connection to the shared Redis server that
// backs the tenant cache. Connect retries on startup; Healthcheck plugs into
// readiness probes. Configuration comes from environment variables via the
// Config struct tags.
package redis
