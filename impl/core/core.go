// Package core composes the services behind the HTTP and websocket
// surfaces. Handlers depend on Core, never on the services directly.
package core

import (
	"context"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"MarketChat/entity"
	"MarketChat/internal/lib/sl"
	"MarketChat/internal/service/attach"
	"MarketChat/internal/service/chat"
)

type ChatService interface {
	Resolve(ctx context.Context, in chat.ResolveInput) (string, error)
	Send(ctx context.Context, in chat.SendInput) (*entity.Message, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]entity.Conversation, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) error
	DeleteConversation(ctx context.Context, conversationID, actorID string) error
}

type AuthService interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
	IssueKey(username string) (string, error)
}

type FileRepository interface {
	DownloadAttachment(fileID primitive.ObjectID) (string, entity.FileMetadata, io.ReadCloser, error)
}

type Core struct {
	chat  ChatService
	auth  AuthService
	store attach.Store
	files FileRepository
	log   *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetChatService(chatService ChatService) {
	c.chat = chatService
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetAttachStore(store attach.Store) {
	c.store = store
}

func (c *Core) SetFileRepository(files FileRepository) {
	c.files = files
}

func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.auth == nil {
		return nil, entity.Unauthorized("authentication not configured")
	}
	return c.auth.AuthenticateByToken(token)
}

func (c *Core) GenerateApiKey(username string) (string, error) {
	return c.auth.IssueKey(username)
}
