package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// LedgerEnvironment holds the settings shared by the server and the CLI for talking to the ledger network.
type LedgerEnvironment struct {
	Environment string `env:"ENVIRONMENT,default=dev"`
	LogLevel    string `env:"LOG_LEVEL,default=debug"`

	// Network selects the network profile (mainnet, devnet, testnet or localnet)
	Network string `env:"NETWORK,default=devnet"`

	// RPCEndpoint overrides the profile's RPC endpoint
	RPCEndpoint string `env:"RPC_ENDPOINT"`

	// NetworksFile is an optional YAML file of network profiles merged over the built-in ones
	NetworksFile string `env:"NETWORKS_FILE"`

	RPCTimeout          time.Duration `env:"RPC_TIMEOUT,default=30s"`
	RelayRetryDelay     time.Duration `env:"RELAY_RETRY_DELAY,default=500ms"`
	ConfirmTimeout      time.Duration `env:"CONFIRM_TIMEOUT,default=60s"`
	ConfirmPollInterval time.Duration `env:"CONFIRM_POLL_INTERVAL,default=1s"`
}

// Environment variables with defaults
type ServerEnvironment struct {
	LedgerEnvironment

	// http server settings
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=90s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// database settings. An empty DATABASE_URL selects the in-memory store
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// ReplayWindow is how long the in-memory store remembers envelope ids and submissions
	ReplayWindow time.Duration `env:"REPLAY_WINDOW,default=24h"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if _, err := env.UnmarshalFromEnviron(&cfg.LedgerEnvironment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewLedgerConfig loads only the ledger settings (used by the CLI).
func NewLedgerConfig() (*LedgerEnvironment, error) {
	var cfg LedgerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateLedgerConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if err := validateLedgerConfig(&cfg.LedgerEnvironment); err != nil {
		return err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if cfg.MaxRequestSize < 1 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be at least 1")
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.ReplayWindow <= 0 {
		return fmt.Errorf("REPLAY_WINDOW must be greater than 0")
	}

	return nil
}

func validateLedgerConfig(cfg *LedgerEnvironment) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if _, ok := defaultProfiles[cfg.Network]; !ok {
		return fmt.Errorf("invalid NETWORK: %s", cfg.Network)
	}
	if cfg.RPCTimeout <= 0 {
		return fmt.Errorf("RPC_TIMEOUT must be greater than 0")
	}
	if cfg.ConfirmPollInterval <= 0 || cfg.ConfirmTimeout <= cfg.ConfirmPollInterval {
		return fmt.Errorf("CONFIRM_TIMEOUT (%s) must be greater than CONFIRM_POLL_INTERVAL (%s)",
			cfg.ConfirmTimeout, cfg.ConfirmPollInterval)
	}
	if cfg.RelayRetryDelay < 0 {
		return fmt.Errorf("RELAY_RETRY_DELAY must not be negative")
	}
	return nil
}
