package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"MarketChat/entity"
	"MarketChat/internal/service/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single authenticated websocket connection. It owns
// one conversation-list subscription plus any message-window
// subscriptions the peer attached; all of them are cancelled on
// disconnect.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	mu        sync.Mutex
	listUnsub chat.Unsubscribe
	msgUnsubs map[string]chat.Unsubscribe

	sendMu     sync.Mutex
	sendClosed bool
}

// sendEvent queues one frame for writePump. Subscription callbacks keep
// running on their own goroutines for a moment after unregister, so the
// closed flag and the send must share one critical section with
// closeSend; a bare channel send could hit a closed channel and panic.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow consumer; drop the frame rather than block the fan-out.
	}
}

// closeSend closes the outbound channel exactly once, after which
// sendEvent becomes a no-op.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	c.sendClosed = true
	close(c.send)
}

// attachList opens the user's conversation-list subscription.
func (c *Client) attachList() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listUnsub != nil {
		return
	}
	c.listUnsub = c.hub.chat.SubscribeUserConversations(c.userID,
		func(conversations []entity.Conversation) {
			c.sendEvent(Event{Type: "conversation_list", Data: conversations})
		},
		func(err error) {
			c.sendEvent(Event{Type: "error", Data: entity.KindOf(err).String()})
		},
	)
}

// attachMessages opens a message-window subscription after verifying the
// user is a participant of the conversation.
func (c *Client) attachMessages(conversationID string, window int) {
	conv, err := c.hub.chat.GetConversation(context.Background(), conversationID)
	if err != nil {
		c.sendEvent(Event{Type: "error", ConversationID: conversationID, Data: entity.KindOf(err).String()})
		return
	}
	if !conv.HasParticipant(c.userID) {
		c.sendEvent(Event{Type: "error", ConversationID: conversationID, Data: entity.KindUnauthorized.String()})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.msgUnsubs[conversationID]; ok {
		return
	}
	c.msgUnsubs[conversationID] = c.hub.chat.SubscribeMessages(conversationID, window,
		func(messages []entity.Message) {
			c.sendEvent(Event{Type: "messages", ConversationID: conversationID, Data: messages})
		},
		func(err error) {
			c.sendEvent(Event{Type: "error", ConversationID: conversationID, Data: entity.KindOf(err).String()})
		},
	)
}

// detachMessages closes one message-window subscription.
func (c *Client) detachMessages(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if unsub, ok := c.msgUnsubs[conversationID]; ok {
		unsub()
		delete(c.msgUnsubs, conversationID)
	}
}

// teardown cancels every live subscription. Called by the hub on
// disconnect.
func (c *Client) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listUnsub != nil {
		c.listUnsub()
		c.listUnsub = nil
	}
	for id, unsub := range c.msgUnsubs {
		unsub()
		delete(c.msgUnsubs, id)
	}
}

// readPump pumps messages from the websocket connection to the hub.
// It handles ping/pong keepalive and detects disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.hub.handleClientMessage(c, raw)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Authenticator validates a token and returns the user it belongs to.
type Authenticator interface {
	AuthenticateByToken(token string) (*entity.UserAuth, error)
}

// ServeWs handles websocket upgrade requests.
func ServeWs(hub *Hub, auth Authenticator, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	user, err := auth.AuthenticateByToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		userID:    user.Username,
		msgUnsubs: make(map[string]chat.Unsubscribe),
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
