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

// GetConversation loads one conversation by id.
func (m *MongoDB) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	var conv entity.Conversation
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.NotFound(fmt.Sprintf("conversation %s", id))
		}
		return nil, m.mapError(fmt.Errorf("mongodb find conversation: %w", err))
	}

	return &conv, nil
}

// ListConversationsForParticipant returns every conversation the user is a
// member of, newest activity first. Soft-deleted entries are included; the
// subscription layer filters them per viewer.
func (m *MongoDB) ListConversationsForParticipant(ctx context.Context, userID string) ([]entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	filter := bson.D{{Key: "participants", Value: userID}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, m.mapError(fmt.Errorf("mongodb find conversations: %w", err))
	}
	defer cursor.Close(ctx)

	var conversations []entity.Conversation
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, m.mapError(fmt.Errorf("mongodb decode conversations: %w", err))
	}

	return conversations, nil
}

// exactMatchFilter matches a conversation by its exact participant set and
// business context. An empty context matches only conversations with no
// context at all.
func exactMatchFilter(participants []string, businessContextID string) bson.D {
	filter := bson.D{
		{Key: "participants", Value: bson.D{{Key: "$all", Value: participants}, {Key: "$size", Value: len(participants)}}},
	}
	if businessContextID == "" {
		filter = append(filter, bson.E{Key: "business_context_id", Value: bson.D{{Key: "$exists", Value: false}}})
	} else {
		filter = append(filter, bson.E{Key: "business_context_id", Value: businessContextID})
	}
	return filter
}

// FindConversation looks up an existing conversation for the exact
// participant set and business context. Returns nil when none exists.
func (m *MongoDB) FindConversation(ctx context.Context, participants []string, businessContextID string) (*entity.Conversation, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	var conv entity.Conversation
	err = collection.FindOne(ctx, exactMatchFilter(participants, businessContextID)).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, m.mapError(fmt.Errorf("mongodb find conversation by members: %w", err))
	}

	return &conv, nil
}

// FindOrCreateConversation inserts the conversation unless one with the
// same participant set and business context already exists. The existence
// check re-runs inside the transaction, so two near-simultaneous resolve
// calls converge on a single document: the loser observes the winner's
// insert and returns it instead of creating a duplicate.
func (m *MongoDB) FindOrCreateConversation(ctx context.Context, conv *entity.Conversation) (*entity.ResolveOutcome, error) {
	result, err := m.withTransaction(ctx, func(sess mongo.SessionContext, db *mongo.Database) (any, error) {
		collection := db.Collection(conversationsCollection)

		var existing entity.Conversation
		err := collection.FindOne(sess, exactMatchFilter(conv.Participants, conv.BusinessContextID)).Decode(&existing)
		if err == nil {
			return &entity.ResolveOutcome{Conversation: &existing, Created: false}, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mongodb recheck conversation: %w", err)
		}

		if _, err := collection.InsertOne(sess, conv); err != nil {
			return nil, fmt.Errorf("mongodb insert conversation: %w", err)
		}
		return &entity.ResolveOutcome{Conversation: conv, Created: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*entity.ResolveOutcome), nil
}

// UpdateConversationFields applies a field-path merge to one conversation
// and advances updated_at. Only the named paths change; the rest of the
// document is untouched.
func (m *MongoDB) UpdateConversationFields(ctx context.Context, id string, fields map[string]any) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(conversationsCollection)

	set := bson.D{}
	for path, value := range fields {
		set = append(set, bson.E{Key: path, Value: value})
	}
	if _, ok := fields["updated_at"]; !ok {
		set = append(set, bson.E{Key: "updated_at", Value: time.Now().UTC()})
	}

	result, err := collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return m.mapError(fmt.Errorf("mongodb update conversation: %w", err))
	}
	if result.MatchedCount == 0 {
		return entity.NotFound(fmt.Sprintf("conversation %s", id))
	}

	return nil
}
