package ws

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketChat/entity"
	"MarketChat/internal/service/chat"
)

type fakeChatService struct {
	conv *entity.Conversation
}

func (f *fakeChatService) SubscribeUserConversations(_ string, _ func([]entity.Conversation), _ func(error)) chat.Unsubscribe {
	return func() {}
}

func (f *fakeChatService) SubscribeMessages(_ string, _ int, _ func([]entity.Message), _ func(error)) chat.Unsubscribe {
	return func() {}
}

func (f *fakeChatService) GetConversation(_ context.Context, id string) (*entity.Conversation, error) {
	if f.conv == nil {
		return nil, entity.NotFound("conversation " + id)
	}
	return f.conv, nil
}

func (f *fakeChatService) MarkRead(context.Context, string, string) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:       hub,
		send:      make(chan []byte, 4),
		userID:    "alice",
		msgUnsubs: map[string]chat.Unsubscribe{},
	}
}

func TestSendEventAfterUnregisterDoesNotPanic(t *testing.T) {
	hub := NewHub(&fakeChatService{}, discardLogger())
	go hub.Run()

	client := newTestClient(hub)
	hub.register <- client
	hub.unregister <- client

	// Wait for the hub to process the unregister and close the channel.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-client.send:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	// A subscription callback can still be mid-flight when the hub tears
	// the client down; its delivery must be dropped, not crash.
	assert.NotPanics(t, func() {
		client.sendEvent(Event{Type: "messages", ConversationID: "c1"})
	})
}

func TestSendEventDropsWhenBufferFull(t *testing.T) {
	client := newTestClient(NewHub(&fakeChatService{}, discardLogger()))

	assert.NotPanics(t, func() {
		for i := 0; i < cap(client.send)+3; i++ {
			client.sendEvent(Event{Type: "messages"})
		}
	})
	assert.Len(t, client.send, cap(client.send))
}
