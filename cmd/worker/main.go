package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/config"
	"yt-subtracker/internal/db"
	"yt-subtracker/internal/reconcile"
	"yt-subtracker/internal/worker"
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

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 1, // syncs must not overlap
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			RetryDelayFunc: retryDelay,
		},
	)

	sessions := auth.NewSessions(
		auth.OAuthConfig(cfg.YouTubeClientID, cfg.YouTubeClientSecret, auth.RedirectURL(cfg.OAuthCallbackPort)),
		auth.NewTokenStorage(cfg.TokenDir),
	)
	channels := db.NewChannelRepository(db.DB)

	taskHandler := worker.NewTaskHandler(worker.Deps{
		Enqueuer:   client,
		Reconciler: reconcile.New(channels),
		Channels:   channels,
		Session: func(ctx context.Context) (reconcile.Remote, error) {
			c, err := sessions.Client(ctx)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Uploads: func(ctx context.Context) (reconcile.UploadsLister, error) {
			c, err := sessions.Reader(ctx, cfg.YouTubeAPIKey)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		UploadsPageLimit: cfg.UploadsPageLimit,
		DefaultWatchPrio: cfg.DefaultWatchPrio,
	})

	mux := asynq.NewServeMux()
	taskHandler.Register(mux)

	log.Printf("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}

// retryDelay backs off exponentially: 5min, 10min, 20min, ... up to 24h.
func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	delay := 5 * time.Minute
	maxDelay := 24 * time.Hour

	for i := 0; i < n; i++ {
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
			break
		}
	}

	log.Printf("Task %s failed %d times, retrying in %v", task.Type(), n+1, delay)
	return delay
}
