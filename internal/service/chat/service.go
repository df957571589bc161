// Package chat implements the conversation and messaging core: race-safe
// conversation resolution, transactional message dispatch, read-state
// tracking and live subscription fan-out.
package chat

import (
	"context"
	"log/slog"
	"sort"

	"MarketChat/entity"
	"MarketChat/internal/lib/instant"
	"MarketChat/internal/lib/sl"
)

// DefaultWindowSize is the message window used when a caller passes no
// explicit size.
const DefaultWindowSize = 50

// ChangeFeed is a push stream of change notifications for watched
// documents. The payload is irrelevant to this layer: every event triggers
// a fresh read through the repository.
type ChangeFeed interface {
	Next(ctx context.Context) bool
	Err() error
	Close()
}

// Repository is the store adapter the service runs against. All
// multi-document mutations of conversation state are transactional inside
// the adapter; this layer never does an unguarded read-then-write of
// unread counters or soft-delete flags.
type Repository interface {
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	ListConversationsForParticipant(ctx context.Context, userID string) ([]entity.Conversation, error)
	FindConversation(ctx context.Context, participants []string, businessContextID string) (*entity.Conversation, error)
	FindOrCreateConversation(ctx context.Context, conv *entity.Conversation) (*entity.ResolveOutcome, error)
	UpdateConversationFields(ctx context.Context, id string, fields map[string]any) error

	SaveMessage(ctx context.Context, msg *entity.Message) (*entity.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error)

	WatchConversation(ctx context.Context, id string) (ChangeFeed, error)
	WatchMessages(ctx context.Context, conversationID string) (ChangeFeed, error)
	WatchUserConversations(ctx context.Context, userID string) (ChangeFeed, error)
}

type Service struct {
	repository Repository
	log        *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	return &Service{
		log: logger.With(sl.Module("chat-service")),
	}
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

// GetConversation is the one-shot read used for initial page loads before
// a subscription attaches.
func (s *Service) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	if id == "" {
		return nil, entity.InvalidInput("conversation id required")
	}
	conv, err := s.repository.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalizeConversation(conv), nil
}

// ListMessages returns the most recent limit messages in ascending
// timestamp order.
func (s *Service) ListMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error) {
	if conversationID == "" {
		return nil, entity.InvalidInput("conversation id required")
	}
	if limit <= 0 {
		limit = DefaultWindowSize
	}
	messages, err := s.repository.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	return normalizeMessages(messages), nil
}

// ListConversations returns the user's conversation list, newest activity
// first, with soft-deleted entries hidden.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]entity.Conversation, error) {
	if userID == "" {
		return nil, entity.InvalidInput("user id required")
	}
	all, err := s.repository.ListConversationsForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return visibleConversations(all, userID), nil
}

// normalizeConversation funnels every stored timestamp through the
// canonical instant type before the document leaves the subsystem.
func normalizeConversation(conv *entity.Conversation) *entity.Conversation {
	conv.CreatedAt = instant.Normalize(conv.CreatedAt)
	conv.UpdatedAt = instant.Normalize(conv.UpdatedAt)
	if conv.LastMessage != nil {
		conv.LastMessage.Timestamp = instant.Normalize(conv.LastMessage.Timestamp)
	}
	if conv.UnreadCounts == nil {
		conv.UnreadCounts = map[string]int{}
	}
	if conv.DeletedFor == nil {
		conv.DeletedFor = map[string]bool{}
	}
	return conv
}

// normalizeMessages normalizes timestamps and sorts ascending. The store
// may deliver the window in any order; display order is a correctness
// requirement, so the final sort happens here on the store-assigned
// timestamp.
func normalizeMessages(messages []entity.Message) []entity.Message {
	for i := range messages {
		messages[i].Timestamp = instant.Normalize(messages[i].Timestamp)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages
}

// visibleConversations filters out entries soft-deleted for the viewer and
// keeps the newest-first ordering.
func visibleConversations(all []entity.Conversation, viewerID string) []entity.Conversation {
	visible := make([]entity.Conversation, 0, len(all))
	for i := range all {
		if all[i].DeletedForUser(viewerID) {
			continue
		}
		visible = append(visible, *normalizeConversation(&all[i]))
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].UpdatedAt.After(visible[j].UpdatedAt)
	})
	return visible
}
