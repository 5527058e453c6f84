package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"mentorhub/pkg/auth"
	"mentorhub/pkg/logger"
	"mentorhub/pkg/models"
	"mentorhub/pkg/relay"
	"mentorhub/pkg/telemetry"
	"mentorhub/pkg/utils"
)

type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

// RegisterChat wires the streaming chat endpoint. It sits behind the
// entitlement gate: visitors without an active subscription or free-access
// claim are redirected before any upstream call is made.
func RegisterChat(r *mux.Router, d Deps) {
	h := auth.RequireEntitled(d.Provider)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handleChatStream(w, req, d)
	}))
	r.Handle("/chat/stream", h).Methods(http.MethodPost)
}

func handleChatStream(w http.ResponseWriter, r *http.Request, d Deps) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Messages) == 0 {
		utils.JSONError(w, http.StatusBadRequest, "messages is required")
		return
	}
	for _, m := range body.Messages {
		if !models.ValidRole(m.Role) {
			utils.JSONError(w, http.StatusBadRequest, "invalid message role")
			return
		}
	}

	msgs := make([]models.Message, 0, len(body.Messages)+1)
	if d.SystemPrompt != "" {
		msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: d.SystemPrompt})
	}
	msgs = append(msgs, body.Messages...)

	sse, err := relay.NewSSEWriter(w)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	frags, errs := d.Streamer.Stream(ctx, msgs)

	id := auth.IdentityFromContext(ctx)
	logger.Info("chat_stream_open", "uid", id.UID, "messages", len(body.Messages))

	for {
		select {
		case <-ctx.Done():
			logger.Info("chat_stream_client_gone", "uid", id.UID)
			return
		case err := <-errs:
			telemetry.CountStreamFailure()
			if !sse.Started() {
				// Nothing sent yet, a plain error response is still
				// possible.
				utils.JSONError(w, http.StatusBadGateway, "upstream unavailable")
				return
			}
			logger.Warn("chat_stream_interrupted", "uid", id.UID, "error", err)
			_ = sse.WriteError("stream interrupted")
			_ = sse.WriteDone()
			return
		case frag, ok := <-frags:
			if !ok {
				// A terminal error and channel close can race; prefer
				// reporting the error.
				select {
				case err := <-errs:
					telemetry.CountStreamFailure()
					if !sse.Started() {
						utils.JSONError(w, http.StatusBadGateway, "upstream unavailable")
						return
					}
					logger.Warn("chat_stream_interrupted", "uid", id.UID, "error", err)
					_ = sse.WriteError("stream interrupted")
				default:
					logger.Info("chat_stream_done", "uid", id.UID)
				}
				_ = sse.WriteDone()
				return
			}
			if err := sse.WriteFragment(frag); err != nil {
				logger.Warn("chat_stream_write_failed", "uid", id.UID, "error", err)
				return
			}
			telemetry.CountFragment()
		}
	}
}
