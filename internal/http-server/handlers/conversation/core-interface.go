package conversation

import (
	"context"

	"MarketChat/entity"
	"MarketChat/internal/service/chat"
)

type Core interface {
	Resolve(ctx context.Context, in chat.ResolveInput) (string, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]entity.Conversation, error)
	MarkRead(ctx context.Context, conversationID, readerID string) error
	DeleteConversation(ctx context.Context, conversationID, actorID string) error
}
