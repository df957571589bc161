package conversation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
	"MarketChat/internal/lib/validate"
	"MarketChat/internal/service/chat"
)

type ResolveRequest struct {
	Participants        []string          `json:"participants" validate:"required,min=2"`
	BusinessContextID   string            `json:"business_context_id"`
	BusinessContextName string            `json:"business_context_name"`
	DisplayNames        map[string]string `json:"display_names"`
	PhotoURLs           map[string]string `json:"photo_urls"`
}

type ResolveResponse struct {
	response.Response
	ConversationID string `json:"conversation_id"`
}

// Resolve finds or creates the conversation for a participant set and
// optional business context. The authenticated caller must be the first
// participant.
func Resolve(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		user := cont.GetUser(r.Context())
		if user == nil || user.Username != req.Participants[0] {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("caller must be the first participant"))
			return
		}

		id, err := handler.Resolve(r.Context(), chat.ResolveInput{
			Participants:        req.Participants,
			BusinessContextID:   req.BusinessContextID,
			BusinessContextName: req.BusinessContextName,
			DisplayNames:        req.DisplayNames,
			PhotoURLs:           req.PhotoURLs,
		})
		if err != nil {
			log.Error("resolve conversation failed", sl.Err(err))
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, ResolveResponse{
			Response:       response.OK(),
			ConversationID: id,
		})
	}
}
