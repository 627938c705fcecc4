// Package server exposes the gateway's public HTTP API.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/storebridge/market-gateway/internal/config"
	"github.com/storebridge/market-gateway/pkg/logging"
)

// Server wraps the Fiber app and its configuration.
type Server struct {
	app    *fiber.App
	cfg    config.Server
	logger zerolog.Logger
}

// New builds the HTTP server and registers routes.
func New(cfg config.Server, gw Gateway) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "market-gateway",
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		IdleTimeout:  cfg.IdleTimeout(),
	})

	app.Use(recover.New())

	s := &Server{
		app:    app,
		cfg:    cfg,
		logger: logging.NewLogger("server"),
	}
	s.registerRoutes(gw)

	return s
}

// App returns the underlying Fiber app (for tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Str("address", s.cfg.Address).Msg("HTTP server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.cfg.Address)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes(gw Gateway) {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	api := s.app.Group("/api")
	api.Get("/products", s.handleSearch(gw))
	api.Get("/products/:id", s.handleProduct(gw))
}
