package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the indexes backing the dedup search, the
// conversation list ordering and the unread scans. Called once at startup.
func (m *MongoDB) EnsureIndexes() error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	db := connection.Database(m.database)

	conversationIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "business_context_id", Value: 1}}},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
	}
	if _, err := db.Collection(conversationsCollection).Indexes().CreateMany(m.ctx, conversationIndexes); err != nil {
		return fmt.Errorf("mongodb create conversation indexes: %w", err)
	}

	messageIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "read", Value: 1}, {Key: "sender_id", Value: 1}}},
	}
	if _, err := db.Collection(messagesCollection).Indexes().CreateMany(m.ctx, messageIndexes); err != nil {
		return fmt.Errorf("mongodb create message indexes: %w", err)
	}

	return nil
}
