package conversation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
)

// Delete hides the conversation from the caller's list. History and the
// other participants' view are untouched.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "conversation_id")
		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
			return
		}

		if err := handler.DeleteConversation(r.Context(), id, user.Username); err != nil {
			log.Error("delete conversation failed",
				slog.String("conversation_id", id),
				sl.Err(err),
			)
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, response.OK())
	}
}
