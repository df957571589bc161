package main

import (
	"MarketChat/impl/core"
	"MarketChat/internal/config"
	repository "MarketChat/internal/database"
	"MarketChat/internal/http-server/api"
	"MarketChat/internal/lib/logger"
	"MarketChat/internal/lib/sl"
	"MarketChat/internal/service/attach"
	"MarketChat/internal/service/auth"
	"MarketChat/internal/service/chat"
	"MarketChat/internal/ws"
	"context"
	"flag"
	"log/slog"
)

// storeFeeds narrows the mongo repository to the chat service's
// Repository interface: the concrete change feed type becomes the
// interface the service watches.
type storeFeeds struct {
	*repository.MongoDB
}

func (s storeFeeds) WatchConversation(ctx context.Context, id string) (chat.ChangeFeed, error) {
	feed, err := s.MongoDB.WatchConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func (s storeFeeds) WatchMessages(ctx context.Context, conversationID string) (chat.ChangeFeed, error) {
	feed, err := s.MongoDB.WatchMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func (s storeFeeds) WatchUserConversations(ctx context.Context, userID string) (chat.ChangeFeed, error) {
	feed, err := s.MongoDB.WatchUserConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	return feed, nil
}

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	if conf.Telegram.Enabled {
		alertBot, err := logger.NewAlertBot(conf.Telegram.ApiKey, conf.Telegram.AdminId)
		if err != nil {
			lg.Error("failed to initialize telegram alerts", sl.Err(err))
		} else {
			lg = logger.SetupTelegramHandler(lg, alertBot, slog.LevelError)
			lg.Info("telegram alerts initialized")
		}
	}

	lg.Info("starting marketchat", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	handler := core.New(lg)

	chatService := chat.NewService(lg)
	authService := auth.NewAuthService(lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}
	if db != nil {
		if err := db.EnsureIndexes(); err != nil {
			lg.With(sl.Err(err)).Error("ensure indexes")
		}
		chatService.SetRepository(storeFeeds{db})
		authService.SetRepository(db)
		handler.SetFileRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	store, err := attach.NewStore(conf, db, lg)
	if err != nil {
		lg.With(sl.Err(err)).Error("attachment store")
	}
	if store != nil {
		handler.SetAttachStore(store)
		lg.With(
			slog.String("backend", conf.Storage.Backend),
		).Info("attachment store initialized")
	}

	handler.SetChatService(chatService)
	handler.SetAuthService(authService)

	hub := ws.NewHub(chatService, lg)
	go hub.Run()

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
