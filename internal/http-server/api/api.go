package api

import (
	"MarketChat/internal/config"
	"MarketChat/internal/http-server/handlers/attachment"
	"MarketChat/internal/http-server/handlers/conversation"
	"MarketChat/internal/http-server/handlers/errors"
	"MarketChat/internal/http-server/handlers/file"
	"MarketChat/internal/http-server/handlers/key"
	"MarketChat/internal/http-server/handlers/message"
	"MarketChat/internal/http-server/middleware/authenticate"
	"MarketChat/internal/http-server/middleware/timeout"
	"MarketChat/internal/lib/sl"
	"MarketChat/internal/ws"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net"
	"net/http"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	conversation.Core
	message.Core
	attachment.Core
	file.Core
	key.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Group(func(private chi.Router) {
		private.Use(timeout.Timeout(15))
		private.Use(render.SetContentType(render.ContentTypeJSON))
		private.Use(authenticate.New(log, handler))

		private.Route("/api/v1", func(v1 chi.Router) {
			v1.Route("/conversations", func(r chi.Router) {
				r.Post("/", conversation.Resolve(log, handler))
				r.Get("/", conversation.List(log, handler))
				r.Route("/{conversation_id}", func(r chi.Router) {
					r.Get("/", conversation.Get(log, handler))
					r.Delete("/", conversation.Delete(log, handler))
					r.Post("/read", conversation.MarkRead(log, handler))
					r.Get("/messages", message.List(log, handler))
					r.Post("/messages", message.Send(log, handler))
				})
			})
			v1.Route("/attachments", func(r chi.Router) {
				r.Post("/", attachment.Upload(log, handler))
			})
			v1.Route("/key", func(r chi.Router) {
				r.Post("/new", key.Generate(log, handler))
			})
		})
	})

	// Signed download links and the websocket carry their own auth.
	router.Get("/files/{file_id}", file.Download(log, handler, conf.Files.Secret))
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, handler, log, w, r)
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
