package conversation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"MarketChat/entity"
	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
)

type GetResponse struct {
	response.Response
	Conversation *entity.Conversation `json:"conversation"`
}

// Get returns one conversation document. Only participants may read it.
func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversation_id")
		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
			return
		}

		conv, err := handler.GetConversation(r.Context(), id)
		if err != nil {
			log.Error("get conversation failed",
				slog.String("conversation_id", id),
				sl.Err(err),
			)
			errors.Fail(w, r, err)
			return
		}
		if !conv.HasParticipant(user.Username) {
			errors.Fail(w, r, entity.Unauthorized("not a conversation participant"))
			return
		}

		render.JSON(w, r, GetResponse{
			Response:     response.OK(),
			Conversation: conv,
		})
	}
}
