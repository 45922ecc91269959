package main

import (
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"yt-subtracker/internal/config"
	"yt-subtracker/pkg/tasks"
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

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{},
	)

	if err := tasks.RegisterPeriodic(scheduler, cfg.SyncSchedule); err != nil {
		log.Fatalf("could not register tasks: %v", err)
	}

	log.Printf("Scheduler starting (commit: %s, schedule: %s)", CommitSHA, cfg.SyncSchedule)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
