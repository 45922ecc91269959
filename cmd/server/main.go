package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/config"
	"yt-subtracker/internal/db"
	"yt-subtracker/internal/handlers"
	"yt-subtracker/internal/middleware"
	"yt-subtracker/internal/reconcile"
	"yt-subtracker/internal/youtube"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err := db.Migrate(context.Background(), db.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer client.Close()

	sessions := auth.NewSessions(
		auth.OAuthConfig(cfg.YouTubeClientID, cfg.YouTubeClientSecret, auth.RedirectURL(cfg.OAuthCallbackPort)),
		auth.NewTokenStorage(cfg.TokenDir),
	)
	channels := db.NewChannelRepository(db.DB)

	deps := handlers.Deps{
		Channels:   channels,
		Reconciler: reconcile.New(channels),
		Enqueuer:   client,
		Session: func(ctx context.Context) (handlers.RemoteAPI, error) {
			c, err := sessions.Client(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		BaseURL:         cfg.BaseURL,
		OwnerTelegramID: cfg.OwnerTelegramID,
	}
	if cfg.YouTubeAPIKey != "" {
		deps.Public = func(ctx context.Context) (handlers.RemoteAPI, error) {
			svc, err := auth.APIKeyService(ctx, cfg.YouTubeAPIKey)
			if err != nil {
				return nil, err
			}
			return youtube.NewClient(svc), nil
		}
	}
	h := handlers.New(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelegramBotToken != "" {
		go func() {
			if err := h.StartTelegramBot(ctx, cfg.TelegramBotToken); err != nil {
				log.Printf("Telegram bot stopped: %v", err)
			}
		}()
	}

	srv := newServer(cfg, h)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting server on %s (commit: %s)\n", srv.Addr, CommitSHA)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// newServer wires the API behind Telegram auth and per-user rate limiting.
func newServer(cfg *config.Config, h *handlers.Handlers) *http.Server {
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	router := handlers.NewRouter(h,
		middleware.Auth(cfg.TelegramBotToken, cfg.OwnerTelegramID),
		limiter.Middleware,
	)
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
