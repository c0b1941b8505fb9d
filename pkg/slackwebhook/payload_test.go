package slackwebhook_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/followupbot/tenantkit/pkg/slackwebhook"
)

const (
	formContentType = "application/x-www-form-urlencoded"
	jsonContentType = "application/json"
)

func TestExtractWorkspaceID(t *testing.T) {
	t.Parallel()

	t.Run("slash command form field", func(t *testing.T) {
		t.Parallel()

		body := "token=xyz&team_id=T0001&team_domain=acme&command=%2Ffollowup&text=list"
		id, err := slackwebhook.ExtractWorkspaceID(formContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0001", id)
	})

	t.Run("interaction payload field", func(t *testing.T) {
		t.Parallel()

		payload := `{"type":"block_actions","team":{"id":"T0002","domain":"acme"},"actions":[]}`
		body := "payload=" + url.QueryEscape(payload)
		id, err := slackwebhook.ExtractWorkspaceID(formContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0002", id)
	})

	t.Run("events envelope team_id", func(t *testing.T) {
		t.Parallel()

		body := `{"token":"xyz","team_id":"T0003","type":"event_callback","event":{"type":"message"}}`
		id, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0003", id)
	})

	t.Run("events envelope nested team object", func(t *testing.T) {
		t.Parallel()

		body := `{"type":"event_callback","team":{"id":"T0004"}}`
		id, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0004", id)
	})

	t.Run("events envelope authorizations fallback", func(t *testing.T) {
		t.Parallel()

		body := `{"type":"event_callback","authorizations":[{"team_id":"T0005","user_id":"U1"}]}`
		id, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0005", id)
	})

	t.Run("events envelope event.team fallback", func(t *testing.T) {
		t.Parallel()

		body := `{"type":"event_callback","event":{"type":"reaction_added","team":"T0006"}}`
		id, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0006", id)
	})

	t.Run("top-level team_id wins over fallbacks", func(t *testing.T) {
		t.Parallel()

		body := `{"team_id":"T0007","team":{"id":"T9999"},"event":{"team":"T8888"}}`
		id, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(body))
		require.NoError(t, err)
		assert.Equal(t, "T0007", id)
	})

	t.Run("content type with charset parameter", func(t *testing.T) {
		t.Parallel()

		id, err := slackwebhook.ExtractWorkspaceID("application/json; charset=utf-8", []byte(`{"team_id":"T0008"}`))
		require.NoError(t, err)
		assert.Equal(t, "T0008", id)
	})

	t.Run("missing workspace id in form", func(t *testing.T) {
		t.Parallel()

		_, err := slackwebhook.ExtractWorkspaceID(formContentType, []byte("token=xyz&command=%2Ffollowup"))
		assert.ErrorIs(t, err, slackwebhook.ErrMissingWorkspaceID)
	})

	t.Run("missing workspace id in json", func(t *testing.T) {
		t.Parallel()

		_, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(`{"type":"url_verification"}`))
		assert.ErrorIs(t, err, slackwebhook.ErrMissingWorkspaceID)
	})

	t.Run("malformed json body", func(t *testing.T) {
		t.Parallel()

		_, err := slackwebhook.ExtractWorkspaceID(jsonContentType, []byte(`{"team_id":`))
		assert.ErrorIs(t, err, slackwebhook.ErrMissingWorkspaceID)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		t.Parallel()

		_, err := slackwebhook.ExtractWorkspaceID("text/plain", []byte("team_id=T0001"))
		assert.ErrorIs(t, err, slackwebhook.ErrMissingWorkspaceID)
	})
}
