package tenant

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/followupbot/tenantkit/pkg/slackwebhook"
)

// ErrorHandler renders a failed lifecycle stage to the client. The default
// writes a JSON body with a machine-readable code; hosts embedding the
// middleware in a non-JSON surface can replace it.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// config holds middleware configuration.
type config struct {
	skipPaths    map[string]struct{}
	skipPrefixes []string
	errorHandler ErrorHandler
	log          *slog.Logger
	now          func() time.Time
	maxBodyBytes int64
}

// Option configures the middleware.
type Option func(*config)

// WithSkipPaths whitelists exact request paths that bypass the lifecycle
// entirely (health probes, metrics). They are served with no authentication
// and no tenant binding.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.skipPaths[p] = struct{}{}
		}
	}
}

// WithSkipPathPrefixes whitelists path prefixes, typically static assets.
func WithSkipPathPrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.skipPrefixes = append(c.skipPrefixes, prefixes...)
	}
}

// WithErrorHandler replaces the default JSON error writer.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithLogger sets the middleware logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock substitutes the time source used for signature verification,
// for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxBodyBytes caps how much of the request body is read for signature
// verification. Slack payloads are small; the default of 1 MiB is generous.
func WithMaxBodyBytes(n int64) Option {
	return func(c *config) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// Machine-readable error codes returned to the calling platform.
const (
	CodeMissingTenantID  = "MISSING_TENANT_ID"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeTenantNotFound   = "TENANT_NOT_FOUND"
	CodeTenantSuspended  = "TENANT_SUSPENDED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: message}})
}

// defaultErrorHandler maps lifecycle failures to client-visible responses.
// Authentication failures are deliberately collapsed into one opaque 403 so
// the response cannot be used as an oracle for which check failed.
func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, slackwebhook.ErrMissingWorkspaceID):
		writeError(w, http.StatusBadRequest, CodeMissingTenantID,
			"could not determine workspace from request")
	case errors.Is(err, slackwebhook.ErrUnauthenticated):
		writeError(w, http.StatusForbidden, CodeInvalidSignature,
			"request signature could not be verified")
	case errors.Is(err, ErrTenantNotFound):
		writeError(w, http.StatusForbidden, CodeTenantNotFound,
			"app is not installed for this workspace")
	case errors.Is(err, ErrTenantSuspended):
		writeError(w, http.StatusForbidden, CodeTenantSuspended,
			"workspace subscription is not active")
	case errors.Is(err, ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, CodeStoreUnavailable,
			"temporary backend outage, retry later")
	default:
		writeError(w, http.StatusInternalServerError, CodeInternalError,
			"internal error")
	}
}
