package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordwebs/internal/config"
	"wordwebs/internal/discord"
	"wordwebs/internal/handlers"
	"wordwebs/internal/security"
	"wordwebs/internal/service"
	"wordwebs/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx := context.Background()

	// Initialize store (dynamo for production, sqlite for local work)
	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	log.Printf("Store ready (backend: %s)", cfg.StoreBackend)

	// Discord clients
	oauthClient := discord.NewOAuthClient(cfg)

	var messenger service.StateMessenger
	if cfg.DiscordBotToken != "" {
		bot, err := discord.NewBot(cfg.DiscordBotToken, cfg.DiscordClientID)
		if err != nil {
			log.Fatalf("Failed to create discord bot: %v", err)
		}
		messenger = bot
	} else {
		log.Println("DISCORD_BOT_TOKEN not set, game-state messages disabled")
	}

	// Services and handlers
	gameService := service.NewGameService(st, messenger)
	gameHandler := handlers.NewGameHandler(gameService)
	oauthHandler := handlers.NewOAuthHandler(oauthClient)

	// 10 OAuth calls per minute per IP
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(oauthClient, limiter)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", gameHandler.Health)
	mux.HandleFunc("GET /daily-puzzle", gameHandler.DailyPuzzle)
	mux.HandleFunc("POST /submit-guess", middleware.RequireAuth(gameHandler.SubmitGuess))
	mux.HandleFunc("GET /session", middleware.RequireAuth(gameHandler.Session))
	mux.HandleFunc("GET /leaderboard", gameHandler.Leaderboard)
	mux.HandleFunc("GET /player-stats", middleware.RequireAuth(gameHandler.PlayerStats))

	mux.HandleFunc("POST /discord-oauth/token", middleware.RateLimit(oauthHandler.Token))
	mux.HandleFunc("POST /discord-oauth/refresh", middleware.RateLimit(oauthHandler.Refresh))
	mux.HandleFunc("GET /discord-oauth/verify", middleware.RateLimit(oauthHandler.Verify))

	mux.HandleFunc("POST /channels/register", middleware.RequireAuth(gameHandler.RegisterChannel))
	mux.HandleFunc("POST /themes/suggest", middleware.RequireAuth(gameHandler.SuggestTheme))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
