package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketChat/entity"
)

func setupConversation(t *testing.T, svc *Service, participants ...string) string {
	t.Helper()
	id, err := svc.Resolve(context.Background(), ResolveInput{Participants: participants})
	require.NoError(t, err)
	return id
}

func TestSendPreconditions(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	convID := setupConversation(t, svc, "alice", "bob")

	tests := []struct {
		name string
		in   SendInput
		want error
	}{
		{
			name: "missing conversation id",
			in:   SendInput{SenderID: "alice", Text: "hi"},
			want: entity.ErrInvalidInput,
		},
		{
			name: "unknown conversation",
			in:   SendInput{ConversationID: "nope", SenderID: "alice", Text: "hi"},
			want: entity.ErrNotFound,
		},
		{
			name: "sender not a participant",
			in:   SendInput{ConversationID: convID, SenderID: "mallory", Text: "hi"},
			want: entity.ErrUnauthorized,
		},
		{
			name: "empty content",
			in:   SendInput{ConversationID: convID, SenderID: "alice", Text: "   "},
			want: entity.ErrInvalidInput,
		},
		{
			name: "malformed image url",
			in:   SendInput{ConversationID: convID, SenderID: "alice", ImageURL: "not-a-url"},
			want: entity.ErrInvalidInput,
		},
		{
			name: "unknown type",
			in:   SendInput{ConversationID: convID, SenderID: "alice", Text: "hi", Type: "video"},
			want: entity.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := svc.Send(context.Background(), tt.in)
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSendUpdatesConversation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	convID := setupConversation(t, svc, "alice", "bob", "carol")

	msg, err := svc.Send(ctx, SendInput{
		ConversationID: convID,
		SenderID:       "alice",
		Text:           "hi",
		SenderName:     "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, msg.Status)
	assert.Equal(t, entity.TypeText, msg.Type)
	assert.False(t, msg.Read)
	assert.False(t, msg.Timestamp.IsZero(), "timestamp is store-assigned")

	conv, err := svc.GetConversation(ctx, convID)
	require.NoError(t, err)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "hi", conv.LastMessage.Text)
	assert.Equal(t, "alice", conv.LastMessage.SenderID)
	assert.Equal(t, 0, conv.UnreadCounts["alice"], "sender counter resets")
	assert.Equal(t, 1, conv.UnreadCounts["bob"])
	assert.Equal(t, 1, conv.UnreadCounts["carol"])
	assert.Equal(t, msg.Timestamp, conv.UpdatedAt)
}

func TestSendImageOnly(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()
	convID := setupConversation(t, svc, "alice", "bob")

	msg, err := svc.Send(ctx, SendInput{
		ConversationID: convID,
		SenderID:       "alice",
		ImageURL:       "https://cdn.example.com/photo.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TypeImage, msg.Type)

	conv, err := svc.GetConversation(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, entity.ImagePlaceholder, conv.LastMessage.Text)
}

func TestSendResurrectsSoftDeleted(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()
	convID := setupConversation(t, svc, "alice", "bob")

	require.NoError(t, svc.DeleteConversation(ctx, convID, "bob"))

	lists, err := svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, lists, "soft-deleted conversation hidden from bob")

	_, err = svc.Send(ctx, SendInput{ConversationID: convID, SenderID: "alice", Text: "you there?"})
	require.NoError(t, err)

	lists, err = svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, lists, 1, "new message resurfaces the conversation")
	assert.False(t, lists[0].DeletedFor["bob"])
	assert.Equal(t, 1, lists[0].UnreadCounts["bob"])
}

func TestSendIdempotentRetry(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	convID := setupConversation(t, svc, "alice", "bob")

	id := entity.NewMessageID()
	first, err := svc.Send(ctx, SendInput{ConversationID: convID, MessageID: id, SenderID: "alice", Text: "hi"})
	require.NoError(t, err)

	// Retry of an attempt that actually committed: same id, no double count.
	second, err := svc.Send(ctx, SendInput{ConversationID: convID, MessageID: id, SenderID: "alice", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Timestamp, second.Timestamp)

	conv, err := svc.GetConversation(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, 1, conv.UnreadCounts["bob"], "retried send must not double-count")

	messages, err := svc.ListMessages(ctx, convID, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestUnreadCountsTrackForeignSends(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()
	convID := setupConversation(t, svc, "alice", "bob")

	for i := 0; i < 3; i++ {
		_, err := svc.Send(ctx, SendInput{ConversationID: convID, SenderID: "alice", Text: "ping"})
		require.NoError(t, err)
	}
	_, err := svc.Send(ctx, SendInput{ConversationID: convID, SenderID: "bob", Text: "pong"})
	require.NoError(t, err)

	conv, err := svc.GetConversation(ctx, convID)
	require.NoError(t, err)
	// Three from alice unread by bob, one from bob unread by alice.
	assert.Equal(t, 3, conv.UnreadCounts["bob"])
	assert.Equal(t, 1, conv.UnreadCounts["alice"])
}

func TestSendReplyContext(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()
	convID := setupConversation(t, svc, "alice", "bob")

	original, err := svc.Send(ctx, SendInput{ConversationID: convID, SenderID: "alice", Text: "offer still up?"})
	require.NoError(t, err)

	reply, err := svc.Send(ctx, SendInput{
		ConversationID: convID,
		SenderID:       "bob",
		Text:           "yes",
		ReplyTo: &entity.ReplyContext{
			MessageID: original.ID,
			Text:      original.Text,
			SenderID:  original.SenderID,
			Type:      original.Type,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, original.ID, reply.ReplyTo.MessageID)
	assert.Equal(t, "offer still up?", reply.ReplyTo.Text)
}
