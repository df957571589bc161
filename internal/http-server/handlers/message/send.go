package message

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"MarketChat/entity"
	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/lib/api/cont"
	"MarketChat/internal/lib/api/response"
	"MarketChat/internal/lib/sl"
	"MarketChat/internal/service/chat"
)

type SendRequest struct {
	MessageID   string               `json:"message_id"`
	Text        string               `json:"text"`
	ImageURL    string               `json:"image_url"`
	Type        string               `json:"type"`
	ReplyTo     *entity.ReplyContext `json:"reply_to"`
	SenderName  string               `json:"sender_name"`
	SenderPhoto string               `json:"sender_photo"`
}

type SendResponse struct {
	response.Response
	Message *entity.Message `json:"message"`
}

// Send dispatches a message into the conversation. Retries may carry the
// same message_id; a retry of a committed send returns the stored message
// without moving counters again.
func Send(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := chi.URLParam(r, "conversation_id")
		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthenticated"))
			return
		}

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}

		msg, err := handler.Send(r.Context(), chat.SendInput{
			ConversationID: conversationID,
			SenderID:       user.Username,
			MessageID:      req.MessageID,
			Text:           req.Text,
			ImageURL:       req.ImageURL,
			Type:           req.Type,
			ReplyTo:        req.ReplyTo,
			SenderName:     req.SenderName,
			SenderPhoto:    req.SenderPhoto,
		})
		if err != nil {
			log.Error("send message failed",
				slog.String("conversation_id", conversationID),
				sl.Err(err),
			)
			errors.Fail(w, r, err)
			return
		}

		render.JSON(w, r, SendResponse{
			Response: response.OK(),
			Message:  msg,
		})
	}
}
