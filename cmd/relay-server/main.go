package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/ledger"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/metrics"
	"github.com/information-sharing-networks/zypp-relay/internal/server"
	"github.com/information-sharing-networks/zypp-relay/internal/store"
	"github.com/information-sharing-networks/zypp-relay/internal/version"
	"github.com/spf13/cobra"
)

//	@title			relay-server
//	@description	relay-server is a gateway between mobile wallets and the ledger network.
//	@description
//	@description	Clients ask the gateway to build unsigned transfers, sign them on the device and send them
//	@description	back to be relayed. The gateway never holds signer keys.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description	- `502` Ledger network unavailable
//	@description
//	@description	Error bodies carry an `errors[].errorCode`: 7000-7999 for technical errors and 8000-8999 for
//	@description	functional errors. Individual endpoints document their specific errors.
//	@description
//	@description	## Request Limits
//	@description	The /api/mobile routes are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 1MB
//	@description
//	@description	Check the X-Max-Request-Size response header for the configured limit.
//	@description
//	@description	## Submitting transactions
//	@description	A failed submit does not mean the transaction did not land. Before building a new transaction
//	@description	for the same transfer, query /api/mobile/transaction/{signature}/status.
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Transactions
//	@tag.description	Build, relay and query transfers

//	@tag.name			Accounts
//	@tag.description	Balances, faucet credit and network status

//	@tag.name			Envelopes
//	@tag.description	Package envelope verification

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, version, metrics)

func main() {
	cmd := &cobra.Command{
		Use:   "relay-server",
		Short: "Transfer relay gateway",
		Long:  `relay-server builds unsigned transfers, relays client-signed transactions to the ledger network and verifies package envelopes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	profile, err := config.LoadNetworkProfile(&cfg.LedgerEnvironment)
	if err != nil {
		appLogger.Error("Failed to load network profile", slog.String("error", err.Error()))
		os.Exit(1)
	}

	storeKind := "memory"
	if cfg.DatabaseURL != "" {
		storeKind = "postgres"
	}

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("NETWORK", string(profile.Cluster)),
		slog.String("RPC_ENDPOINT", profile.RPCEndpoint),
		slog.Bool("FAUCET", profile.Faucet),
		slog.String("STORE", storeKind),
		slog.Duration("CONFIRM_TIMEOUT", cfg.ConfirmTimeout),
		slog.Int("RATE_LIMIT_RPS", int(cfg.RateLimitRPS)),
	)

	records, err := openStore(cfg)
	if err != nil {
		appLogger.Error("Failed to open record store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	network := ledger.NewRPCNetwork(profile.RPCEndpoint)
	defer func() { _ = network.Close() }()

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(cfg, appLogger, records, network, *profile, metrics.New())
	defer srv.StoreShutdown()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}

// openStore returns the Postgres store (migrated to the latest schema) when DATABASE_URL is set
// and the in-memory store otherwise.
func openStore(cfg *config.ServerEnvironment) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return store.NewMemoryStore(cfg.ReplayWindow), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer cancel()

	pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConnections,
		MinConns:       cfg.DBMinConnections,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}
