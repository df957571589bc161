package conversation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"MarketChat/entity"
	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
)

type ListResponse struct {
	response.Response
	Conversations []entity.Conversation `json:"conversations"`
}

// List returns the caller's visible conversations, newest activity first.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
			return
		}

		conversations, err := handler.ListConversations(r.Context(), user.Username)
		if err != nil {
			log.Error("list conversations failed", sl.Err(err))
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, ListResponse{
			Response:      response.OK(),
			Conversations: conversations,
		})
	}
}
