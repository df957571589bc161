package message

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"MarketChat/entity"
	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
)

type ListResponse struct {
	response.Response
	Messages []entity.Message `json:"messages"`
}

// List returns the most recent window of messages in ascending timestamp
// order. The window size defaults when ?limit= is absent.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := chi.URLParam(r, "conversation_id")
		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
			return
		}

		conv, err := handler.GetConversation(r.Context(), conversationID)
		if err != nil {
			errors.Fail(w, r, err)
			return
		}
		if !conv.HasParticipant(user.Username) {
			errors.Fail(w, r, entity.Unauthorized("not a conversation participant"))
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid limit"))
				return
			}
			limit = parsed
		}

		messages, err := handler.ListMessages(r.Context(), conversationID, limit)
		if err != nil {
			log.Error("list messages failed",
				slog.String("conversation_id", conversationID),
				sl.Err(err),
			)
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, ListResponse{
			Response: response.OK(),
			Messages: messages,
		})
	}
}
