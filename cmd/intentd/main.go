package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quietloop/intentd/internal/api"
	"github.com/quietloop/intentd/internal/config"
	"github.com/quietloop/intentd/internal/database"
	"github.com/quietloop/intentd/internal/logging"
	"github.com/quietloop/intentd/internal/settings"
	"github.com/quietloop/intentd/internal/version"
	"github.com/quietloop/intentd/internal/watcher"
	"github.com/quietloop/intentd/internal/webhook"
)

func main() {
	// Handle subcommands before starting the server
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hash-token":
			if err := hashToken(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// hashToken prints a bcrypt hash of the given token for use as
// auth.token_hash in the config file.
func hashToken(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: intentd hash-token <token>")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing token: %w", err)
	}
	fmt.Println(string(hash))
	return nil
}

func run() error {
	// Load configuration
	configPath := os.Getenv("INTENTD_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up structured logging via the logging Manager
	logManager, logger := logging.NewManager(loggingConfig(cfg))
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	// Initialize webhook services
	configStore := webhook.NewConfigStore(settings.NewSQLStore(db))
	deliverer := webhook.NewDeliverer(logger)
	notifier := webhook.NewNotifier(configStore, deliverer, logger)
	history := webhook.NewHistory(db)
	notifier.SetHistory(history)

	logger.Info("starting intentd",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	// Set up HTTP router
	router := api.NewRouter(api.RouterDeps{
		ConfigStore: configStore,
		Notifier:    notifier,
		History:     history,
		Logger:      logger,
		BasePath:    cfg.Server.BasePath,
		TokenHash:   cfg.Auth.TokenHash,
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Watch the config file so logging changes apply without a restart
	configWatcher := watcher.NewService(configPath, func(next *config.Config) {
		logManager.Reconfigure(loggingConfig(next))
	}, logger)
	go configWatcher.Start(ctx)

	// Prune the delivery log hourly
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := history.Prune(ctx, 0); err != nil {
					logger.Error("delivery log prune failed", "error", err)
				}
			}
		}
	}()

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	}
}
