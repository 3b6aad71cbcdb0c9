package main

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/media"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/time/rate"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run keeps every defer (database, index, sequence) executed before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load(".env")
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Storage (Badger + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		go database.StartDebugServer(db, config.DebugPort, endpoint, internal.InspectMapper)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	messageRepository, err := storage.NewMessageRepository(db, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("message repository: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()
	userRepository := storage.NewUserRepository(db)
	postRepository := storage.NewPostRepository(db, blugeWriter, logger)

	mediaStore, err := media.NewStore(logger, config.MediaDir, config.MediaBaseURL, config.MaxUploadBytes)
	if err != nil {
		return exitRuntime, fmt.Errorf("media store: %w", err)
	}

	// 3. Moderation
	censor, err := buildCensor(config, charReplacement, logger)
	if err != nil {
		return exitConfig, err
	}

	// 4. Real-time core
	metrics := observability.NewMetrics()
	registry := runtime.NewRegistry()
	connections := runtime.NewConnectionSet()
	router := runtime.NewRouter(logger, registry, messageRepository, connections, censor, metrics)
	lifecycle := runtime.NewLifecycle(logger, router, connections, metrics, config.InboundBufferSize)

	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	realtime := ws.NewServer(logger, lifecycle, tokens, metrics, ws.Options{
		AllowedOrigins: config.Origins(),
		MaxMessageSize: config.MaxMessageSize,
		SendBufferSize: config.SendBufferSize,
		RateLimit:      rate.Limit(config.RateLimitRPS),
		RateBurst:      config.RateLimitBurst,
		RequireToken:   config.RequireWSToken,
	})

	// 5. REST collaborators
	api := httpapi.NewAPI(logger,
		services.NewAuthService(userRepository, tokens),
		services.NewMessageService(messageRepository, router),
		services.NewPostService(logger, postRepository, mediaStore, censor),
		tokens, metrics,
		httpapi.Options{AllowedOrigins: config.Origins(), MaxUploadBytes: config.MaxUploadBytes},
	)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           api.Handler(realtime, mediaStore.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Supervised background workers
	sup := workers.NewSupervisor(logger, metrics, config.RestartInterval)
	healthServer := server.NewHealthServer(logger, fmt.Sprintf("%s:%d", config.Host, config.GRPCHealthPort))
	sup.Add(
		workers.NewHealthMonitoringWorker(logger, registry, metrics, config.MetricInterval),
		healthServer,
	)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		sup.Run(ctx)
	}()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
	}

	// 9. Graceful Shutdown: stop accepting, say goodbye to sockets, let sessions drain.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	realtime.Close()
	lifecycle.Wait()
	stop()
	sup.Stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	if runErr != nil {
		return exitRuntime, runErr
	}
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// buildCensor returns nil when moderation is disabled, the router then stores content as is.
func buildCensor(config internal.Config, charReplacement rune, logger *slog.Logger) (contract.Censor, error) {
	if !config.ModerationEnabled {
		logger.Info("Moderation disabled")
		return nil, nil
	}
	data, err := moderation.NewEmbeddedLoader().LoadAll("censored")
	if err != nil {
		return nil, fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.NewModerator(data.Words, charReplacement, logger)
	if err != nil {
		return nil, fmt.Errorf("moderator init failed: %w", err)
	}
	logger.Info("Moderation enabled", "words", len(data.Words), "languages", data.Languages)
	return moderator, nil
}
