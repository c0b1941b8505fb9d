package tenant

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/followupbot/tenantkit/pkg/requestid"
	"github.com/followupbot/tenantkit/pkg/slackwebhook"
)

// DefaultMaxBodyBytes caps request bodies read for verification.
const DefaultMaxBodyBytes int64 = 1 << 20

// Middleware is the request lifecycle orchestrator. For every non-whitelisted
// request it runs, strictly in order: authenticate the Slack signature,
// extract the workspace ID, resolve the tenant, bind it to the request
// context, then invoke the handler. Each stage either advances or terminates
// the request with the matching client-visible code; later stages never run
// after a failure.
//
// The binding lives in the request's context.Context, so it cannot leak into
// another request even when goroutines are reused, and it is released on
// every exit path, including handler panics and host timeouts.
func Middleware(auth *slackwebhook.Authenticator, resolver *Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		skipPaths: map[string]struct{}{
			"/health":      {},
			"/ready":       {},
			"/metrics":     {},
			"/favicon.ico": {},
		},
		skipPrefixes: []string{"/static/", "/assets/"},
		errorHandler: defaultErrorHandler,
		log:          slog.Default(),
		now:          time.Now,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipped(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			// The signature covers the raw body, so it is read once here and
			// restored for the handler.
			body, err := io.ReadAll(io.LimitReader(r.Body, cfg.maxBodyBytes))
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if err := auth.VerifyRequest(r, body, cfg.now()); err != nil {
				// Security-relevant: log everything about the request except
				// its secrets, then answer with the opaque 403.
				cfg.log.WarnContext(r.Context(), "webhook authentication failed",
					securityAttrs(r, err)...)
				cfg.errorHandler(w, r, err)
				return
			}

			workspaceID, err := slackwebhook.ExtractWorkspaceID(r.Header.Get("Content-Type"), body)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			t, err := resolver.Resolve(r.Context(), workspaceID)
			if err != nil {
				cfg.log.InfoContext(r.Context(), "tenant resolution failed",
					"workspace_id", workspaceID, "error", err)
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := Bind(r.Context(), t)

			// A panicking handler still closes the bound scope; the panic is
			// logged with its tenant attribution and re-raised for the host
			// recoverer. Isolation failures must never be swallowed here.
			defer func() {
				if rec := recover(); rec != nil {
					cfg.log.ErrorContext(ctx, "handler panicked inside tenant scope",
						"tenant_id", t.ID, "workspace_id", t.WorkspaceID, "panic", rec)
					panic(rec)
				}
			}()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBound guards routes that must only run inside a bound tenant scope.
// Hitting it unbound is a programmer error (a route mounted outside the
// Middleware chain), reported as a plain 500.
func RequireBound(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := Current(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, CodeInternalError,
				"no tenant bound to request")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *config) skipped(path string) bool {
	if _, ok := c.skipPaths[path]; ok {
		return true
	}
	for _, prefix := range c.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func securityAttrs(r *http.Request, err error) []any {
	return []any{
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"request_id", requestid.FromContext(r.Context()),
		"error", err,
	}
}
