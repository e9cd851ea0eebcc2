package auction_page

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"aptos-nft-auction/logger"
)

type Server struct {
	httpServer *http.Server
	logger     logger.Logger
}

func NewRouter(handlers *Handlers, baseLogger logger.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)

	r.Get("/", handlers.HandleIndex)
	r.Get("/healthz", HandleHealth)
	r.Get("/api/auctions", handlers.HandleAPIAuctions)

	r.Route("/wallet", func(r chi.Router) {
		r.Post("/connect", handlers.HandleConnect)
		r.Post("/disconnect", handlers.HandleDisconnect)
	})

	r.Route("/auctions", func(r chi.Router) {
		r.Post("/", handlers.HandleListForAuction)
		r.Post("/{auctionID}/bid", handlers.HandleBid)
		r.Post("/{auctionID}/finalize", handlers.HandleFinalize)
	})
	return r
}

func NewServer(port string, handlers *Handlers, baseLogger logger.Logger) *Server {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: NewRouter(handlers, baseLogger),
	}
	return &Server{
		httpServer: srv,
		logger:     baseLogger.WithFields(logger.Fields{"component": "HTTPServer"}),
	}
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start blocks until the server stops. A graceful Stop returns nil.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logger.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return errors.Wrap(err, "could not start server")
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server", nil)
	return s.httpServer.Shutdown(ctx)
}
