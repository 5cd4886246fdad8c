//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// Each test creates an empty temporary database, the server applies the migrations when
// it opens the store, and the database is dropped after the test.
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration
//

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/information-sharing-networks/zypp-relay/internal/config"
	"github.com/information-sharing-networks/zypp-relay/internal/logger"
	"github.com/information-sharing-networks/zypp-relay/internal/metrics"
	"github.com/information-sharing-networks/zypp-relay/internal/server"
	"github.com/information-sharing-networks/zypp-relay/internal/store"
)

// testEnv provides access to the test db, fake network and server for integration tests
type testEnv struct {
	baseURL  string
	cfg      *config.ServerEnvironment
	records  *store.PostgresStore
	network  *fakeNetwork
	shutdown func()
}

// startInProcessServer starts the relay server in-process for testing
func startInProcessServer(t *testing.T) *testEnv {
	t.Helper()

	testEnv := &testEnv{network: newFakeNetwork()}

	t.Log("Starting in-process server...")

	var (
		ctx         = context.Background()
		host        = "localhost"
		port        = findFreePort(t)
		environment = "test"
		logLevelEnv = "none"
	)

	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		logLevelEnv = "debug"
	}

	testDatabaseURL := setupTestDatabase(t)

	// Set environment variables before calling NewServerConfig
	testEnvVars := map[string]string{
		"HOST":                  host,
		"PORT":                  fmt.Sprintf("%d", port),
		"ENVIRONMENT":           environment,
		"LOG_LEVEL":             logLevelEnv,
		"DATABASE_URL":          testDatabaseURL,
		"NETWORK":               "devnet",
		"RATE_LIMIT_RPS":        "0",
		"RELAY_RETRY_DELAY":     "10ms",
		"CONFIRM_TIMEOUT":       "2s",
		"CONFIRM_POLL_INTERVAL": "10ms",
	}

	// Save original env vars and set test values
	originalEnvVars := make(map[string]string)
	for key, value := range testEnvVars {
		originalEnvVars[key] = os.Getenv(key)
		os.Setenv(key, value)
	}

	// Restore original environment variables when test completes
	t.Cleanup(func() {
		for key, original := range originalEnvVars {
			if original != "" {
				os.Setenv(key, original)
			} else {
				os.Unsetenv(key)
			}
		}
	})

	cfg, err := config.NewServerConfig()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	profile, err := config.LoadNetworkProfile(&cfg.LedgerEnvironment)
	if err != nil {
		t.Fatalf("Failed to load network profile: %v", err)
	}

	records, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConnections,
		MinConns:       cfg.DBMinConnections,
		ConnectTimeout: cfg.DBConnectTimeout,
	})
	if err != nil {
		t.Fatalf("Failed to open record store: %v", err)
	}
	if err := records.Migrate(ctx); err != nil {
		t.Fatalf("Failed to apply database migrations: %v", err)
	}
	testEnv.records = records

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), environment)

	serverInstance := server.NewServer(cfg, appLogger, records, testEnv.network, *profile, metrics.New())

	// Create a cancellable context for server shutdown
	serverCtx, serverCancel := context.WithCancel(ctx)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := serverInstance.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	testEnv.shutdown = func() {
		t.Log("Stopping server...")

		serverCancel()

		select {
		case err := <-serverDone:
			if err != nil {
				t.Logf("Server shutdown with error: %v", err)
			} else {
				t.Log("Server shut down gracefully")
			}
		case <-time.After(5 * time.Second):
			t.Log("Server shutdown timeout")
		}

		serverInstance.StoreShutdown()
	}
	t.Cleanup(testEnv.shutdown)

	testEnv.baseURL = fmt.Sprintf("http://localhost:%d", port)
	testEnv.cfg = cfg

	if !waitForServer(t, testEnv.baseURL+"/health", 30*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}

	t.Logf("Server started at %s", testEnv.baseURL)
	return testEnv
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// Test database configuration

type databaseConfig struct {
	userAndPassword string
	dbname          string
	host            string
	port            int
}

func (d *databaseConfig) connectionURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
		d.userAndPassword, d.host, d.port, d.dbname)
}

func (d *databaseConfig) WithDatabase(dbname string) *databaseConfig {
	return &databaseConfig{
		userAndPassword: d.userAndPassword,
		host:            d.host,
		port:            d.port,
		dbname:          dbname,
	}
}

func localDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "relay-dev",
		dbname:          "tmp_relay_integration_test",
		host:            "localhost",
		port:            15433,
	}
}

func ciDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "postgres:postgres",
		dbname:          "tmp_relay_integration_test",
		host:            "localhost",
		port:            5432,
	}
}

// setupTestDatabase creates an empty test db and returns its connection URL.
// the function auto-detects if it is running in CI (github actions) and uses the appropriate database config
func setupTestDatabase(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	config := *localDatabaseConfig()
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		config = *ciDatabaseConfig()
	}

	// the pool on the postgres database stays open until the test database is dropped
	postgresConnectionURL := config.WithDatabase("postgres").connectionURL()
	postgresPool, err := pgxpool.New(ctx, postgresConnectionURL)
	if err != nil {
		t.Fatalf("Unable to create postgres connection pool: %v", err)
	}
	if err := postgresPool.Ping(ctx); err != nil {
		postgresPool.Close()
		t.Skipf("PostgreSQL server not available at %s: %v", postgresConnectionURL, err)
	}

	if _, err := postgresPool.Exec(ctx, "DROP DATABASE IF EXISTS "+config.dbname); err != nil {
		t.Fatalf("DROP DATABASE IF EXISTS Failed : %v", err)
	}
	if _, err := postgresPool.Exec(ctx, "CREATE DATABASE "+config.dbname); err != nil {
		t.Fatalf("CREATE DATABASE Failed : %v", err)
	}

	// cleanups run last-in first-out: the server and store are closed before the drop
	t.Cleanup(func() {
		defer postgresPool.Close()
		if _, err := postgresPool.Exec(ctx, "DROP DATABASE IF EXISTS "+config.dbname+" WITH (FORCE)"); err != nil {
			t.Errorf("Failed to drop test database: %v", err)
		}
	})

	t.Logf("Database ready: %s", config.dbname)
	return config.connectionURL()
}
