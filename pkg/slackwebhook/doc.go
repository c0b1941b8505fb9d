// Package slackwebhook verifies that inbound webhook requests genuinely
// originate from Slack and extracts the workspace identifier they carry.
//
// Verification follows Slack's signing protocol: the signature header holds
// "v0=" plus hex(HMAC-SHA256(secret, "v0:<timestamp>:<raw body>")). The raw,
// unparsed body is signed, so callers must verify before decoding the
// payload. A bounded timestamp window rejects replayed requests before any
// HMAC work is done.
//
// # Usage
//
//	auth := slackwebhook.NewAuthenticator(signingSecret)
//
//	if err := auth.VerifyRequest(r, body, time.Now()); err != nil {
//		// Respond 403. errors.Is(err, slackwebhook.ErrUnauthenticated)
//		// is true for every verification failure; the joined cause
//		// (stale, mismatch, malformed) is available for logging only.
//	}
//
//	workspaceID, err := slackwebhook.ExtractWorkspaceID(r.Header.Get("Content-Type"), body)
//
// ExtractWorkspaceID understands the three shapes Slack delivers: slash
// commands (form field team_id), interactive components (form field payload
// holding a JSON document with team.id), and Events API envelopes (top-level
// team_id with several documented fallbacks).
package slackwebhook
