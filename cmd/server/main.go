package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"github.com/swizkhalifaa/Distributed-System-Project-C/dispatch"
	"github.com/swizkhalifaa/Distributed-System-Project-C/gateway"
	"github.com/swizkhalifaa/Distributed-System-Project-C/internal"
	"github.com/swizkhalifaa/Distributed-System-Project-C/moderation"
	"github.com/swizkhalifaa/Distributed-System-Project-C/repositories"
	"github.com/swizkhalifaa/Distributed-System-Project-C/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup (database close,
// gateway drain) always executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := newLogger(config.LogLevel)

	censorRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Chat core wiring
	moderator, err := moderation.NewModerator(internal.CensoredWords(config.ModerationWords), censorRune)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	registry := dispatch.NewRegistry()
	dispatcher := dispatch.NewDispatcher(registry, log)

	identity := services.NewIdentityService(repositories.NewUserRepository(db), log)
	sessions := services.NewSessionService(repositories.NewSessionRepository(db), log)
	messages := services.NewMessageService(repositories.NewMessageRepository(db, log), config.MaxContentLength)
	chat := services.NewChatService(identity, sessions, messages, moderator, dispatcher, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Gateway
	server, err := gateway.NewServer(gateway.ServerConfig{
		Host:                 config.Host,
		Port:                 config.Port,
		ConnectionBufferSize: config.ConnectionBufferSize,
		AdminSecret:          []byte(config.AdminTokenSecret),
		Registry:             registry,
		Chat:                 chat,
		Log:                  log,
	})
	if err != nil {
		return err
	}

	errChan := server.Start(ctx)

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 6. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn("Gateway did not stop cleanly", "err", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
