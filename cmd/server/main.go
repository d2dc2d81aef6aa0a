package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-hub/auth"
	hubhttp "chat-hub/infrastructure/http"
	"chat-hub/infrastructure/ws"
	"chat-hub/internal"
	"chat-hub/live"
	"chat-hub/moderation"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
	"chat-hub/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before exit.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	indexWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = indexWriter.Close()
	}()

	// 3. Repositories
	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	requests := repositories.NewRequestRepository(db)
	messages := repositories.NewMessageRepository(db, log)
	otps := repositories.NewOTPRepository(db, config.OTPTTL)
	index := repositories.NewMessageIndex(indexWriter, log)

	// 4. Moderation
	words, err := moderation.LoadDefaultWords()
	if err != nil {
		return fmt.Errorf("word list loading failed: %w", err)
	}
	log.Info("Moderation word list loaded",
		"words", len(words.Words), "languages", words.Languages)
	replacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(words.Words, replacement)
	if err != nil {
		return fmt.Errorf("moderator creation failed: %w", err)
	}

	// 5. Services
	tokens := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	otpSender := services.NewDevOTPSender(otps, log)
	authService := services.NewAuthService(users, otpSender, tokens, log)
	channelService := services.NewChannelService(channels, requests, log)
	profileService := services.NewProfileService(users, config.UploadDir, log)

	// 6. Live subsystem
	registry := live.NewRegistry()
	rooms := live.NewRooms()
	limiter := live.NewLimiter(config.MinMessageInterval)
	presenceWrites := make(chan live.PresenceWrite, config.PresenceBufferSize)
	presence := live.NewPresence(log, registry, presenceWrites)
	pipeline := live.NewPipeline(log, registry, rooms, channelService,
		messages, index, moderator, config.EnforceMembership)
	hub := live.NewHub(log, registry, rooms, presence, limiter, pipeline, channelService)
	chatService := services.NewChatService(pipeline, messages, index, log)

	// 7. Background workers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewPresenceWriter(users, presenceWrites, log),
		workers.NewTelemetry(log, config.TelemetryInterval, func() workers.LiveStats {
			return workers.LiveStats{
				Connections: registry.Count(),
				OnlineUsers: len(registry.OnlineUsers()),
			}
		}),
	)
	sup.Run(ctx)
	defer sup.Stop()

	if config.DebugPort > 0 {
		internal.StartDebugServer(log, db, config.DebugPort, func() map[string]any {
			return map[string]any{
				"connections": registry.Count(),
				"online":      len(registry.OnlineUsers()),
			}
		})
	}

	// 8. HTTP surface
	liveHandler := ws.NewHandler(log, hub, tokens, config.ConnectionBufferSize)
	router := hubhttp.NewRouter(hubhttp.RouterDeps{
		Log:       log,
		Tokens:    tokens,
		Auth:      hubhttp.NewAuthHandler(authService, log),
		Channels:  hubhttp.NewChannelHandler(channelService, log),
		Messages:  hubhttp.NewMessageHandler(chatService, log),
		Profiles:  hubhttp.NewProfileHandler(profileService, config.MaxUploadBytes, log),
		Live:      liveHandler,
		UploadDir: config.UploadDir,
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
