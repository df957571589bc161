package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChangeFeed wraps a change stream together with the connection backing
// it. The connection is held for the lifetime of the feed and released on
// Close, the same way GridFS download streams keep theirs.
type ChangeFeed struct {
	stream     *mongo.ChangeStream
	disconnect func()
}

// Next blocks until the next change event, a stream error or context
// cancellation. It reports false on error; Err distinguishes a cancelled
// feed from a broken one.
func (f *ChangeFeed) Next(ctx context.Context) bool {
	return f.stream.Next(ctx)
}

// Err returns the terminal stream error, nil after clean cancellation.
func (f *ChangeFeed) Err() error {
	return f.stream.Err()
}

// Close stops the stream and releases the underlying connection. Safe to
// call more than once.
func (f *ChangeFeed) Close() {
	_ = f.stream.Close(context.Background())
	if f.disconnect != nil {
		f.disconnect()
		f.disconnect = nil
	}
}

func (m *MongoDB) watch(ctx context.Context, collectionName string, match bson.D) (*ChangeFeed, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}

	collection := connection.Database(m.database).Collection(collectionName)

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := collection.Watch(ctx, pipeline, opts)
	if err != nil {
		m.disconnect(connection)
		return nil, m.mapError(fmt.Errorf("mongodb watch %s: %w", collectionName, err))
	}

	return &ChangeFeed{
		stream:     stream,
		disconnect: func() { m.disconnect(connection) },
	}, nil
}

// WatchConversation streams change events for a single conversation
// document.
func (m *MongoDB) WatchConversation(ctx context.Context, id string) (*ChangeFeed, error) {
	return m.watch(ctx, conversationsCollection, bson.D{
		{Key: "fullDocument._id", Value: id},
	})
}

// WatchMessages streams change events for the messages of one conversation.
func (m *MongoDB) WatchMessages(ctx context.Context, conversationID string) (*ChangeFeed, error) {
	return m.watch(ctx, messagesCollection, bson.D{
		{Key: "fullDocument.conversation_id", Value: conversationID},
	})
}

// WatchUserConversations streams change events for every conversation the
// user participates in.
func (m *MongoDB) WatchUserConversations(ctx context.Context, userID string) (*ChangeFeed, error) {
	return m.watch(ctx, conversationsCollection, bson.D{
		{Key: "fullDocument.participants", Value: userID},
	})
}
