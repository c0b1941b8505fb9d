package meeting

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/followupbot/tenantkit/pkg/logger"
	"github.com/followupbot/tenantkit/pkg/scoped"
	"github.com/followupbot/tenantkit/pkg/tenant"
)

const sessionsTable = "meeting_sessions"

// Handler serves the Slack-facing endpoints of the meeting module. All
// database access goes through a tenant-scoped accessor, so the handler
// itself never touches tenant IDs.
type Handler struct {
	sessions *scoped.Accessor[Session]
	log      *slog.Logger
}

// NewHandler builds a meeting handler backed by db. The handler expects to
// run behind the tenant middleware; requests without a bound tenant fail
// with an internal error.
func NewHandler(db scoped.Querier, log *slog.Logger) (*Handler, error) {
	sessions, err := scoped.NewAccessor[Session](db, sessionsTable, scoped.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{sessions: sessions, log: log}, nil
}

// Router mounts the Slack webhook endpoints.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/commands", h.handleSlashCommand)
	r.Post("/events", h.handleEvent)
	r.Post("/interactions", h.handleInteraction)
	return r
}

// handleSlashCommand serves the /followup slash command. Supported forms:
//
//	/followup note <title>  records a new session
//	/followup list          lists recent sessions for the workspace
func (h *Handler) handleSlashCommand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed command payload", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.PostFormValue("text"))
	channelID := r.PostFormValue("channel_id")

	sub, rest, _ := strings.Cut(text, " ")
	switch sub {
	case "note":
		title := strings.TrimSpace(rest)
		if title == "" {
			respondEphemeral(w, "Usage: /followup note <title>")
			return
		}
		id, err := h.sessions.Create(r.Context(), scoped.Fields{
			"channel_id": channelID,
			"title":      title,
			"notes":      "",
		})
		if err != nil {
			h.serveError(w, r, err)
			return
		}
		h.log.InfoContext(r.Context(), "meeting session recorded", slog.String("session_id", id.String()))
		respondEphemeral(w, "Recorded follow-up: "+title)
	case "list":
		q, err := h.sessions.Query(r.Context(), "id", "tenant_id", "channel_id", "title", "notes", "created_at", "updated_at", "deleted_at")
		if err != nil {
			h.serveError(w, r, err)
			return
		}
		sessions, err := h.sessions.All(r.Context(), q.OrderBy("created_at DESC").Limit(10), pgx.RowToStructByName[Session])
		if err != nil {
			h.serveError(w, r, err)
			return
		}
		if len(sessions) == 0 {
			respondEphemeral(w, "No follow-ups recorded yet.")
			return
		}
		var b strings.Builder
		b.WriteString("Recent follow-ups:\n")
		for _, s := range sessions {
			b.WriteString("• " + s.Title + "\n")
		}
		respondEphemeral(w, b.String())
	default:
		respondEphemeral(w, "Unknown subcommand. Try /followup note <title> or /followup list.")
	}
}

// handleEvent acknowledges Events API deliveries. Slack retries on anything
// but a prompt 200, so the body is acked before any processing happens.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	var envelope struct {
		Type  string `json:"type"`
		Event struct {
			Type    string `json:"type"`
			Channel string `json:"channel"`
		} `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	h.log.InfoContext(r.Context(), "slack event received",
		slog.String("event_type", envelope.Event.Type),
		slog.String("channel", envelope.Event.Channel))
	w.WriteHeader(http.StatusOK)
}

// handleInteraction acknowledges block actions and other interactive
// payloads. Slack sends these as a form with a single JSON payload field.
func (h *Handler) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed interaction payload", http.StatusBadRequest)
		return
	}

	var payload struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &payload); err != nil {
		http.Error(w, "malformed interaction payload", http.StatusBadRequest)
		return
	}

	h.log.InfoContext(r.Context(), "slack interaction received", slog.String("interaction_type", payload.Type))
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) serveError(w http.ResponseWriter, r *http.Request, err error) {
	binding, _ := tenant.CurrentBinding(r.Context())
	h.log.ErrorContext(r.Context(), "meeting handler failed",
		logger.Error(err),
		logger.RequestID(binding.RequestID))
	respondEphemeral(w, "Something went wrong. Please try again.")
}

// respondEphemeral writes a Slack message visible only to the invoking user.
func respondEphemeral(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
}
