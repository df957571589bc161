package repository

import (
	"MarketChat/entity"
	"MarketChat/internal/config"
	"MarketChat/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	apiKeysCollection       = "api-keys"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		log:           logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, entity.Unavailable(fmt.Errorf("mongodb connect: %w", err))
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// mapError translates driver errors into the service taxonomy. Transient
// transaction errors surface as Conflict only after the driver's own retry
// budget is exhausted.
func (m *MongoDB) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.NotFound("document not found")
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return entity.Unavailable(err)
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.HasErrorLabel("UnknownTransactionCommitResult") {
			return entity.Conflict(err)
		}
	}
	return entity.Unknown(err)
}

// withTransaction runs fn inside a causally consistent session transaction.
// Reads inside fn observe the session's own writes, and the driver retries
// the whole body on transient write conflicts before the error is surfaced
// as Conflict. All multi-document mutations of conversation state go
// through here; unguarded read-then-write of unread counters or
// soft-delete flags is not allowed anywhere above this layer.
func (m *MongoDB) withTransaction(ctx context.Context, fn func(sess mongo.SessionContext, db *mongo.Database) (any, error)) (any, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	session, err := connection.StartSession()
	if err != nil {
		return nil, m.mapError(fmt.Errorf("mongodb start session: %w", err))
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	db := connection.Database(m.database)
	result, err := session.WithTransaction(ctx, func(sess mongo.SessionContext) (any, error) {
		return fn(sess, db)
	}, txnOpts)
	if err != nil {
		return nil, m.mapError(err)
	}
	return result, nil
}
