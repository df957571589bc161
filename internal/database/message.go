package repository

import (
	"MarketChat/entity"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SaveMessage persists a message and maintains the parent conversation's
// denormalized state in one transaction: last-message summary, unread
// counter increments for everyone but the sender, a zeroed sender counter,
// cleared soft-delete flags and a fresh updated_at. The message id is
// pre-assigned by the caller; if a retried attempt finds the id already
// stored, the previous result is returned and no counter moves twice.
func (m *MongoDB) SaveMessage(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	result, err := m.withTransaction(ctx, func(sess mongo.SessionContext, db *mongo.Database) (any, error) {
		messages := db.Collection(messagesCollection)
		conversations := db.Collection(conversationsCollection)

		var stored entity.Message
		err := messages.FindOne(sess, bson.D{{Key: "_id", Value: msg.ID}}).Decode(&stored)
		if err == nil {
			// Retry of an attempt that already committed.
			return &stored, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongodb check message id: %w", err)
		}

		var conv entity.Conversation
		err = conversations.FindOne(sess, bson.D{{Key: "_id", Value: msg.ConversationID}}).Decode(&conv)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, entity.NotFound(fmt.Sprintf("conversation %s", msg.ConversationID))
			}
			return nil, fmt.Errorf("mongodb load conversation: %w", err)
		}

		// Commit-time stamp, never the client clock.
		now := time.Now().UTC()
		msg.Timestamp = now
		msg.Status = entity.StatusSent
		msg.Read = false

		if _, err := messages.InsertOne(sess, msg); err != nil {
			return nil, fmt.Errorf("mongodb insert message: %w", err)
		}

		set := bson.D{
			{Key: "last_message", Value: entity.LastMessage{
				Text:      msg.SummaryText(),
				SenderID:  msg.SenderID,
				Timestamp: now,
			}},
			{Key: "updated_at", Value: now},
			{Key: fmt.Sprintf("unread_counts.%s", msg.SenderID), Value: 0},
		}
		inc := bson.D{}
		for _, p := range conv.Participants {
			set = append(set, bson.E{Key: fmt.Sprintf("deleted_for.%s", p), Value: false})
			if p != msg.SenderID {
				inc = append(inc, bson.E{Key: fmt.Sprintf("unread_counts.%s", p), Value: 1})
			}
		}
		update := bson.D{{Key: "$set", Value: set}}
		if len(inc) > 0 {
			update = append(update, bson.E{Key: "$inc", Value: inc})
		}

		if _, err := conversations.UpdateOne(sess, bson.D{{Key: "_id", Value: msg.ConversationID}}, update); err != nil {
			return nil, fmt.Errorf("mongodb update conversation summary: %w", err)
		}

		return msg, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*entity.Message), nil
}

// ListMessages returns the most recent limit messages of a conversation,
// newest first as stored. Callers needing display order sort ascending by
// the store-assigned timestamp.
func (m *MongoDB) ListMessages(ctx context.Context, conversationID string, limit int) ([]entity.Message, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(messagesCollection)

	filter := bson.D{{Key: "conversation_id", Value: conversationID}}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, m.mapError(fmt.Errorf("mongodb find messages: %w", err))
	}
	defer cursor.Close(ctx)

	var messages []entity.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, m.mapError(fmt.Errorf("mongodb decode messages: %w", err))
	}

	return messages, nil
}

// MarkMessagesRead flips every unread foreign message of the conversation
// to read and zeroes the reader's unread counter, in one transaction. When
// nothing is unread it commits no writes and reports zero. Safe to call
// redundantly.
func (m *MongoDB) MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	result, err := m.withTransaction(ctx, func(sess mongo.SessionContext, db *mongo.Database) (any, error) {
		messages := db.Collection(messagesCollection)
		conversations := db.Collection(conversationsCollection)

		filter := bson.D{
			{Key: "conversation_id", Value: conversationID},
			{Key: "read", Value: false},
			{Key: "sender_id", Value: bson.D{{Key: "$ne", Value: readerID}}},
		}

		unread, err := messages.CountDocuments(sess, filter)
		if err != nil {
			return nil, fmt.Errorf("mongodb count unread: %w", err)
		}
		if unread == 0 {
			return int64(0), nil
		}

		update := bson.D{{Key: "$set", Value: bson.D{
			{Key: "read", Value: true},
			{Key: "status", Value: entity.StatusRead},
		}}}
		if _, err := messages.UpdateMany(sess, filter, update); err != nil {
			return nil, fmt.Errorf("mongodb mark messages read: %w", err)
		}

		counterPath := fmt.Sprintf("unread_counts.%s", readerID)
		res, err := conversations.UpdateOne(sess,
			bson.D{{Key: "_id", Value: conversationID}},
			bson.D{{Key: "$set", Value: bson.D{{Key: counterPath, Value: 0}}}})
		if err != nil {
			return nil, fmt.Errorf("mongodb zero unread counter: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, entity.NotFound(fmt.Sprintf("conversation %s", conversationID))
		}

		return unread, nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}
