package slackwebhook

import (
	"encoding/json"
	"net/url"
	"strings"
)

// envelope covers every location Slack is known to place the workspace
// identifier across slash commands, interactions and Events API payloads.
type envelope struct {
	TeamID string `json:"team_id"`
	Team   *struct {
		ID string `json:"id"`
	} `json:"team"`
	Authorizations []struct {
		TeamID string `json:"team_id"`
	} `json:"authorizations"`
	Event *struct {
		Team string `json:"team"`
	} `json:"event"`
}

func (e envelope) workspaceID() string {
	switch {
	case e.TeamID != "":
		return e.TeamID
	case e.Team != nil && e.Team.ID != "":
		return e.Team.ID
	case len(e.Authorizations) > 0 && e.Authorizations[0].TeamID != "":
		return e.Authorizations[0].TeamID
	case e.Event != nil && e.Event.Team != "":
		return e.Event.Team
	default:
		return ""
	}
}

// ExtractWorkspaceID pulls the Slack workspace (team) identifier out of a raw
// request body. contentType selects the parsing strategy:
//
//   - application/x-www-form-urlencoded: slash commands carry team_id as a
//     form field; interactive components carry a payload field whose value is
//     a JSON document with team.id.
//   - application/json: Events API envelopes carry team_id at the top level,
//     with team.id, authorizations[0].team_id and event.team as fallbacks.
//
// Returns ErrMissingWorkspaceID when no identifier is present in any known
// location. The body is never mutated.
func ExtractWorkspaceID(contentType string, body []byte) (string, error) {
	switch {
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		return extractFromForm(body)
	case strings.Contains(contentType, "application/json"):
		return extractFromJSON(body)
	default:
		return "", ErrMissingWorkspaceID
	}
}

func extractFromForm(body []byte) (string, error) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return "", ErrMissingWorkspaceID
	}

	// Slash commands put the identifier directly in the form.
	if id := form.Get("team_id"); id != "" {
		return id, nil
	}

	// Interactive components wrap the whole event in a single JSON field.
	if payload := form.Get("payload"); payload != "" {
		return extractFromJSON([]byte(payload))
	}

	return "", ErrMissingWorkspaceID
}

func extractFromJSON(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ErrMissingWorkspaceID
	}
	if id := env.workspaceID(); id != "" {
		return id, nil
	}
	return "", ErrMissingWorkspaceID
}
