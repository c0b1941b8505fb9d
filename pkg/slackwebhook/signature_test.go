package slackwebhook_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/followupbot/tenantkit/pkg/slackwebhook"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func signedArgs(t *testing.T, auth *slackwebhook.Authenticator, now time.Time, body string) (timestamp, signature string) {
	t.Helper()
	timestamp = strconv.FormatInt(now.Unix(), 10)
	return timestamp, auth.Sign(timestamp, []byte(body))
}

func TestNewAuthenticator(t *testing.T) {
	t.Parallel()

	t.Run("panics on empty secret", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			slackwebhook.NewAuthenticator("")
		})
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	auth := slackwebhook.NewAuthenticator(testSecret)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	body := "token=xyz&team_id=T0001&command=%2Ffollowup"

	t.Run("accepts valid signature", func(t *testing.T) {
		t.Parallel()

		timestamp, signature := signedArgs(t, auth, now, body)
		require.NoError(t, auth.Verify(timestamp, []byte(body), signature, now))
	})

	t.Run("rejects tampered body", func(t *testing.T) {
		t.Parallel()

		timestamp, signature := signedArgs(t, auth, now, body)
		err := auth.Verify(timestamp, []byte(body+"&injected=1"), signature, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, slackwebhook.ErrUnauthenticated)
		assert.ErrorIs(t, err, slackwebhook.ErrSignatureMismatch)
	})

	t.Run("rejects signature from a different secret", func(t *testing.T) {
		t.Parallel()

		other := slackwebhook.NewAuthenticator("another-secret")
		timestamp, signature := signedArgs(t, other, now, body)
		err := auth.Verify(timestamp, []byte(body), signature, now)
		assert.ErrorIs(t, err, slackwebhook.ErrSignatureMismatch)
	})

	t.Run("accepts timestamp at window boundary", func(t *testing.T) {
		t.Parallel()

		sent := now.Add(-slackwebhook.DefaultMaxSkew)
		timestamp, signature := signedArgs(t, auth, sent, body)
		require.NoError(t, auth.Verify(timestamp, []byte(body), signature, now))
	})

	t.Run("rejects timestamp one second past the window", func(t *testing.T) {
		t.Parallel()

		sent := now.Add(-slackwebhook.DefaultMaxSkew - time.Second)
		timestamp, signature := signedArgs(t, auth, sent, body)
		err := auth.Verify(timestamp, []byte(body), signature, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, slackwebhook.ErrUnauthenticated)
		assert.ErrorIs(t, err, slackwebhook.ErrStaleRequest)
	})

	t.Run("rejects timestamp too far in the future", func(t *testing.T) {
		t.Parallel()

		sent := now.Add(slackwebhook.DefaultMaxSkew + time.Second)
		timestamp, signature := signedArgs(t, auth, sent, body)
		err := auth.Verify(timestamp, []byte(body), signature, now)
		assert.ErrorIs(t, err, slackwebhook.ErrStaleRequest)
	})

	t.Run("rejects valid signature replayed after the window", func(t *testing.T) {
		t.Parallel()

		timestamp, signature := signedArgs(t, auth, now, body)
		replayedAt := now.Add(10 * time.Minute)
		err := auth.Verify(timestamp, []byte(body), signature, replayedAt)
		assert.ErrorIs(t, err, slackwebhook.ErrStaleRequest)
	})

	t.Run("rejects non-numeric timestamp", func(t *testing.T) {
		t.Parallel()

		err := auth.Verify("not-a-timestamp", []byte(body), "v0=deadbeef", now)
		require.Error(t, err)
		assert.ErrorIs(t, err, slackwebhook.ErrMalformedSignatureHeader)
	})

	t.Run("rejects signature without version prefix", func(t *testing.T) {
		t.Parallel()

		timestamp := strconv.FormatInt(now.Unix(), 10)
		err := auth.Verify(timestamp, []byte(body), "deadbeef", now)
		assert.ErrorIs(t, err, slackwebhook.ErrMalformedSignatureHeader)
	})

	t.Run("respects custom skew window", func(t *testing.T) {
		t.Parallel()

		strict := slackwebhook.NewAuthenticator(testSecret, slackwebhook.WithMaxSkew(time.Minute))
		sent := now.Add(-2 * time.Minute)
		timestamp, signature := signedArgs(t, strict, sent, body)
		assert.ErrorIs(t, strict.Verify(timestamp, []byte(body), signature, now), slackwebhook.ErrStaleRequest)
	})
}

func TestVerifyRequest(t *testing.T) {
	t.Parallel()

	auth := slackwebhook.NewAuthenticator(testSecret)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	body := "token=xyz&team_id=T0001"

	t.Run("accepts signed request", func(t *testing.T) {
		t.Parallel()

		timestamp, signature := signedArgs(t, auth, now, body)
		r := httptest.NewRequest(http.MethodPost, "/slack/commands", nil)
		r.Header.Set(slackwebhook.TimestampHeader, timestamp)
		r.Header.Set(slackwebhook.SignatureHeader, signature)

		require.NoError(t, auth.VerifyRequest(r, []byte(body), now))
	})

	t.Run("rejects missing headers", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodPost, "/slack/commands", nil)
		err := auth.VerifyRequest(r, []byte(body), now)
		require.Error(t, err)
		assert.ErrorIs(t, err, slackwebhook.ErrUnauthenticated)
		assert.ErrorIs(t, err, slackwebhook.ErrMalformedSignatureHeader)
	})
}
