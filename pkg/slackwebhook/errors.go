package slackwebhook

import "errors"

// Verification failures all wrap ErrUnauthenticated so the HTTP boundary can
// return a single opaque response without revealing which check failed.
// The specific causes remain visible to errors.Is for internal logging.
var (
	// ErrUnauthenticated is the umbrella identity for every verification failure.
	ErrUnauthenticated = errors.New("slack request is not authenticated")

	// ErrStaleRequest is returned when the request timestamp falls outside
	// the allowed window. This is the replay-attack defense.
	ErrStaleRequest = errors.New("slack request timestamp outside allowed window")

	// ErrSignatureMismatch is returned when the recomputed signature does not
	// match the one provided by the request.
	ErrSignatureMismatch = errors.New("slack signature mismatch")

	// ErrMalformedSignatureHeader is returned when the signature or timestamp
	// header cannot be parsed.
	ErrMalformedSignatureHeader = errors.New("malformed slack signature header")

	// ErrMissingWorkspaceID is returned when no workspace identifier can be
	// extracted from any known request shape.
	ErrMissingWorkspaceID = errors.New("no workspace id in slack payload")

	// ErrEmptySigningSecret is returned when an Authenticator is constructed
	// without a secret.
	ErrEmptySigningSecret = errors.New("slack signing secret is required")
)
