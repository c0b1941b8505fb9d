package slackwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names defined by the Slack platform.
const (
	SignatureHeader = "X-Slack-Signature"
	TimestampHeader = "X-Slack-Request-Timestamp"
)

const (
	// signatureVersion is the fixed version prefix Slack prepends to both
	// the signed base string and the signature header.
	signatureVersion = "v0"

	// DefaultMaxSkew is the default replay window for request timestamps.
	DefaultMaxSkew = 5 * time.Minute
)

// Authenticator verifies Slack request signatures. It is stateless and safe
// for concurrent use.
type Authenticator struct {
	secret  []byte
	maxSkew time.Duration
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithMaxSkew overrides the allowed distance between the request timestamp
// and the verification time. Non-positive values are ignored.
func WithMaxSkew(d time.Duration) AuthenticatorOption {
	return func(a *Authenticator) {
		if d > 0 {
			a.maxSkew = d
		}
	}
}

// NewAuthenticator creates an Authenticator for the given signing secret.
// Panics on an empty secret: a service without its signing secret must not
// start, silently accepting unverifiable requests would be worse.
func NewAuthenticator(secret string, opts ...AuthenticatorOption) *Authenticator {
	if secret == "" {
		panic(ErrEmptySigningSecret)
	}
	a := &Authenticator{
		secret:  []byte(secret),
		maxSkew: DefaultMaxSkew,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Verify checks that signature was produced by Slack for the given timestamp
// and raw body. The timestamp window is checked first so replayed requests
// are rejected without any HMAC computation. Every failure wraps
// ErrUnauthenticated; the joined cause is for logging only.
//
// body must be the raw, unparsed request body. Re-serializing a parsed
// payload is a correctness bug: field order is not stable across encoders.
func (a *Authenticator) Verify(timestamp string, body []byte, signature string, now time.Time) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.Join(ErrUnauthenticated, ErrMalformedSignatureHeader, err)
	}

	if skew := now.Sub(time.Unix(ts, 0)); skew > a.maxSkew || skew < -a.maxSkew {
		return errors.Join(ErrUnauthenticated, ErrStaleRequest)
	}

	if !strings.HasPrefix(signature, signatureVersion+"=") {
		return errors.Join(ErrUnauthenticated, ErrMalformedSignatureHeader)
	}

	expected := a.sign(timestamp, body)

	// hmac.Equal is constant-time, which keeps the comparison itself from
	// leaking how many leading bytes matched.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.Join(ErrUnauthenticated, ErrSignatureMismatch)
	}

	return nil
}

// VerifyRequest reads the signature headers from r and verifies them against
// body. Missing headers are treated as a malformed signature.
func (a *Authenticator) VerifyRequest(r *http.Request, body []byte, now time.Time) error {
	timestamp := r.Header.Get(TimestampHeader)
	signature := r.Header.Get(SignatureHeader)
	if timestamp == "" || signature == "" {
		return errors.Join(ErrUnauthenticated, ErrMalformedSignatureHeader)
	}
	return a.Verify(timestamp, body, signature, now)
}

func (a *Authenticator) sign(timestamp string, body []byte) string {
	h := hmac.New(sha256.New, a.secret)
	h.Write([]byte(signatureVersion))
	h.Write([]byte(":"))
	h.Write([]byte(timestamp))
	h.Write([]byte(":"))
	h.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(h.Sum(nil))
}

// Sign computes the signature Slack would produce for the given timestamp and
// body. Exposed for tests and for local tooling that simulates Slack traffic.
func (a *Authenticator) Sign(timestamp string, body []byte) string {
	return a.sign(timestamp, body)
}
