package chat

import (
	"context"
	"fmt"
	"log/slog"

	"MarketChat/entity"
)

// MarkRead acknowledges every unread message not sent by the reader and
// zeroes the reader's unread counter, atomically. With nothing unread it
// succeeds without writing, so redundant calls are harmless.
func (s *Service) MarkRead(ctx context.Context, conversationID, readerID string) error {
	if conversationID == "" {
		return entity.InvalidInput("conversation id required")
	}
	if readerID == "" {
		return entity.InvalidInput("reader id required")
	}

	conv, err := s.repository.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(readerID) {
		return entity.Unauthorized("reader is not a conversation participant")
	}

	marked, err := s.repository.MarkMessagesRead(ctx, conversationID, readerID)
	if err != nil {
		return err
	}
	if marked > 0 {
		s.log.With(
			slog.String("conversation_id", conversationID),
			slog.String("reader", readerID),
			slog.Int64("marked", marked),
		).Debug("messages marked read")
	}

	return nil
}

// DeleteConversation hides the conversation from the actor's list without
// touching the other participants' view or the message history. Any new
// message into the conversation clears the flag again.
func (s *Service) DeleteConversation(ctx context.Context, conversationID, actorID string) error {
	if conversationID == "" {
		return entity.InvalidInput("conversation id required")
	}
	if actorID == "" {
		return entity.InvalidInput("actor id required")
	}

	conv, err := s.repository.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(actorID) {
		return entity.Unauthorized("actor is not a conversation participant")
	}

	return s.repository.UpdateConversationFields(ctx, conversationID, map[string]any{
		fmt.Sprintf("deleted_for.%s", actorID): true,
	})
}
