package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/metrics"
	"github.com/information-sharing-networks/zypp-relay/internal/server/handlers"
	"github.com/information-sharing-networks/zypp-relay/internal/server/middleware"
	"github.com/information-sharing-networks/zypp-relay/internal/store"
	"github.com/information-sharing-networks/zypp-relay/internal/version"
)

type Server struct {
	config  *config.ServerEnvironment
	logger  *slog.Logger
	router  *chi.Mux
	store   store.Store
	metrics *metrics.Metrics
	profile config.NetworkProfile

	builder   *ledger.Builder
	submitter *ledger.Submitter
	query     *ledger.QueryClient
}

// NewServer wires the ledger components to network and registers the routes.
func NewServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	records store.Store,
	network ledger.Network,
	profile config.NetworkProfile,
	m *metrics.Metrics,
) *Server {
	confirmer := ledger.NewConfirmer(network, logger, cfg.ConfirmTimeout, cfg.ConfirmPollInterval)

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
		store:   records,
		metrics: m,
		profile: profile,
		builder: ledger.NewBuilder(network),
		submitter: ledger.NewSubmitter(network, confirmer, logger,
			ledger.WithRetryDelay(cfg.RelayRetryDelay),
			ledger.WithAttemptTimeout(cfg.RPCTimeout),
			ledger.WithRelayObserver(m),
		),
		query: ledger.NewQueryClient(network, confirmer, logger, profile.Faucet),
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// Router returns the configured handler (used by tests).
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.CORS(s.config.Environment, s.config.AllowedOrigins))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.HandleHealth(s.store, s.config.DatabasePingTimeout))
	s.router.Get("/version", handlers.HandleVersion(version.Get()))
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/mobile", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
		r.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))

		// submit and airdrop wait for confirmation and are bounded per relay attempt and by CONFIRM_TIMEOUT
		r.Post("/transaction/submit", handlers.HandleSubmitTransaction(s.submitter, s.store, s.metrics, s.profile))
		r.Post("/airdrop", handlers.HandleAirdrop(s.query, s.profile))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestDeadline(s.config.RPCTimeout))

			r.Post("/transaction/create", handlers.HandleCreateTransaction(s.builder))
			r.Get("/transaction/{signature}/status", handlers.HandleTransactionStatus(s.query, s.store, s.profile))
			r.Get("/balance/{publicKey}", handlers.HandleBalance(s.query))
			r.Get("/connection", handlers.HandleConnection(s.query, s.profile))
		})

		r.Post("/envelopes/verify", handlers.HandleVerifyEnvelope(s.store, s.metrics))
	})
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("network", string(s.profile.Cluster)),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// StoreShutdown closes the record store.
func (s *Server) StoreShutdown() {
	if s.store != nil {
		s.store.Close()
		s.logger.Info("record store closed")
	}
}
