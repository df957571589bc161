package core

import (
	"context"

	"MarketChat/entity"
	"MarketChat/internal/service/chat"
)

func (c *Core) Resolve(ctx context.Context, in chat.ResolveInput) (string, error) {
	return c.chat.Resolve(ctx, in)
}

func (c *Core) Send(ctx context.Context, in chat.SendInput) (*entity.Message, error) {
	return c.chat.Send(ctx, in)
}

func (c *Core) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	return c.chat.GetConversation(ctx, id)
}

func (c *Core) ListConversations(ctx context.Context, userID string) ([]entity.Conversation, error) {
	return c.chat.ListConversations(ctx, userID)
}

func (c *Core) ListMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error) {
	return c.chat.ListMessages(ctx, conversationID, limit)
}

func (c *Core) MarkRead(ctx context.Context, conversationID, readerID string) error {
	return c.chat.MarkRead(ctx, conversationID, readerID)
}

func (c *Core) DeleteConversation(ctx context.Context, conversationID, actorID string) error {
	return c.chat.DeleteConversation(ctx, conversationID, actorID)
}
