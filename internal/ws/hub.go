package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"MarketChat/entity"
	"MarketChat/internal/service/chat"
)

// ChatService is the subscription surface the websocket bridge exposes to
// connected clients.
type ChatService interface {
	SubscribeUserConversations(userID string, onUpdate func([]entity.Conversation), onError func(error)) chat.Unsubscribe
	SubscribeMessages(conversationID string, windowSize int, onUpdate func([]entity.Message), onError func(error)) chat.Unsubscribe
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	MarkRead(ctx context.Context, conversationID, readerID string) error
}

// Event is a server-to-client websocket frame.
type Event struct {
	Type           string `json:"type"` // "conversation_list", "messages", "error"
	ConversationID string `json:"conversation_id,omitempty"`
	Data           any    `json:"data,omitempty"`
}

// Hub maintains the set of connected clients. Each client carries its own
// live subscriptions; the hub only tracks membership and tears clients
// down on disconnect.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	chat       ChatService
	log        *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(chatService ChatService, log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		chat:       chatService,
		log:        log,
	}
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			client.attachList()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.teardown()
				client.closeSend()
			}
			h.mu.Unlock()
		}
	}
}

// clientEvent is an incoming websocket frame from a client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type conversationRef struct {
	ConversationID string `json:"conversation_id"`
	Window         int    `json:"window,omitempty"`
}

// handleClientMessage parses and dispatches one incoming frame.
func (h *Hub) handleClientMessage(c *Client, raw []byte) {
	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.Warn("failed to parse client ws message", slog.String("error", err.Error()))
		return
	}

	var ref conversationRef
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &ref); err != nil {
			h.log.Warn("failed to parse ws event data", slog.String("error", err.Error()))
			return
		}
	}
	if ref.ConversationID == "" {
		return
	}

	switch event.Type {
	case "subscribe_messages":
		c.attachMessages(ref.ConversationID, ref.Window)
	case "unsubscribe_messages":
		c.detachMessages(ref.ConversationID)
	case "mark_read":
		if err := h.chat.MarkRead(context.Background(), ref.ConversationID, c.userID); err != nil {
			h.log.Error("ws mark_read failed",
				slog.String("user_id", c.userID),
				slog.String("conversation_id", ref.ConversationID),
				slog.String("error", err.Error()),
			)
			c.sendEvent(Event{Type: "error", ConversationID: ref.ConversationID, Data: entity.KindOf(err).String()})
		}
	}
}
