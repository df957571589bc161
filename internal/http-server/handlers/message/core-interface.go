package message

import (
	"context"

	"MarketChat/entity"
	"MarketChat/internal/service/chat"
)

type Core interface {
	Send(ctx context.Context, in chat.SendInput) (*entity.Message, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error)
}
