package chat

import (
	"context"
	"log/slog"
	"strings"

	"MarketChat/entity"
)

// SendInput carries an outgoing message. MessageID may be set by callers
// retrying a failed attempt; it keys the idempotency check, so a retry of
// an attempt that actually committed does not double-count unread
// increments. When empty a fresh id is assigned.
type SendInput struct {
	ConversationID string
	SenderID       string
	MessageID      string
	Text           string
	ImageURL       string
	Type           string
	ReplyTo        *entity.ReplyContext
	SenderName     string
	SenderPhoto    string
}

// Send validates and persists an outgoing message. The repository applies
// the message insert and every denormalized conversation update in one
// transaction; on failure nothing is visible and no counter moves, so
// callers may retry with the same MessageID. Preconditions are checked in
// order, each a distinct failure: conversation exists, sender is a member,
// content is non-empty, image url is well-formed.
func (s *Service) Send(ctx context.Context, in SendInput) (*entity.Message, error) {
	if in.ConversationID == "" {
		return nil, entity.InvalidInput("conversation id required")
	}
	if in.SenderID == "" {
		return nil, entity.InvalidInput("sender id required")
	}

	conv, err := s.repository.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(in.SenderID) {
		return nil, entity.Unauthorized("sender is not a conversation participant")
	}
	if strings.TrimSpace(in.Text) == "" && in.ImageURL == "" {
		return nil, entity.InvalidInput("message content required")
	}
	if !entity.ValidImageURL(in.ImageURL) {
		return nil, entity.InvalidInput("malformed image url")
	}

	msgType, err := resolveType(in)
	if err != nil {
		return nil, err
	}

	id := in.MessageID
	if id == "" {
		id = entity.NewMessageID()
	}

	msg := &entity.Message{
		ID:             id,
		ConversationID: in.ConversationID,
		Text:           strings.TrimSpace(in.Text),
		ImageURL:       in.ImageURL,
		SenderID:       in.SenderID,
		SenderName:     in.SenderName,
		SenderPhoto:    in.SenderPhoto,
		Type:           msgType,
		ReplyTo:        in.ReplyTo,
	}

	saved, err := s.repository.SaveMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.log.With(
		slog.String("conversation_id", saved.ConversationID),
		slog.String("message_id", saved.ID),
		slog.String("type", saved.Type),
	).Debug("message dispatched")

	return saved, nil
}

func resolveType(in SendInput) (string, error) {
	switch in.Type {
	case entity.TypeText, entity.TypeImage, entity.TypeSystem:
		return in.Type, nil
	case "":
		if strings.TrimSpace(in.Text) == "" && in.ImageURL != "" {
			return entity.TypeImage, nil
		}
		return entity.TypeText, nil
	default:
		return "", entity.InvalidInput("unknown message type")
	}
}
