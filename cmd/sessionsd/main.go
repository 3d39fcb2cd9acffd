package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"sessionsledger/config"
	"sessionsledger/core"
	"sessionsledger/core/events"
	"sessionsledger/native/oracle"
	"sessionsledger/observability/logging"
	"sessionsledger/rpc"
	"sessionsledger/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SESSIONS_ENV"))
	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("sessionsd", env, "info").Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup("sessionsd", env, cfg.LogLevel)

	owner, err := cfg.Owner()
	if err != nil {
		logger.Error("Failed to decode owner address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.String("dir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger := core.NewLedger(db, owner)
	ledger.SetEmitter(events.LogEmitter{Logger: logger})
	if endpoint := strings.TrimSpace(cfg.Oracle.Endpoint); endpoint != "" {
		feed := oracle.NewHTTPClient(&http.Client{Timeout: 10 * time.Second}, endpoint, cfg.Oracle.Pair)
		maxAge := time.Duration(cfg.Oracle.MaxAgeSeconds) * time.Second
		ledger.SetOracle(oracle.NewFreshnessClient(feed, maxAge))
		logger.Info("price oracle enabled", slog.String("endpoint", endpoint), slog.String("pair", cfg.Oracle.Pair))
	}

	server := rpc.NewServer(ledger, logger)
	if secret := strings.TrimSpace(cfg.Auth.JWTSecret); secret != "" {
		server.SetAuthenticator(rpc.NewAuthenticator(rpc.AuthConfig{
			HMACSecret: secret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		}))
		logger.Info("JWT authentication enabled")
	}

	logger.Info("ledger initialised",
		slog.String("network", cfg.NetworkName),
		slog.String("owner", cfg.OwnerAddress),
	)

	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
