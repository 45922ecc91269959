// Command cli queries and maintains the local subscription cache.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/config"
	"yt-subtracker/internal/db"
	"yt-subtracker/internal/reconcile"
	"yt-subtracker/internal/youtube"
)

var version = "0.1.0"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := newRootCmd(newApp(cfg)).Execute(); err != nil {
		os.Exit(1)
	}
}

// app opens the database and the YouTube session on first use, so commands
// that need neither run without them.
type app struct {
	cfg      *config.Config
	sessions *auth.Sessions
	channels *db.ChannelRepository
}

func newApp(cfg *config.Config) *app {
	return &app{
		cfg: cfg,
		sessions: auth.NewSessions(
			auth.OAuthConfig(cfg.YouTubeClientID, cfg.YouTubeClientSecret, auth.RedirectURL(cfg.OAuthCallbackPort)),
			auth.NewTokenStorage(cfg.TokenDir),
		),
	}
}

func (a *app) store(ctx context.Context) (*db.ChannelRepository, error) {
	if a.channels != nil {
		return a.channels, nil
	}
	conn, err := db.Connect(a.cfg.DatabaseDriver, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		return nil, err
	}
	db.DB = conn
	a.channels = db.NewChannelRepository(conn)
	return a.channels, nil
}

// reader is the YouTube client for reads that do not need the user's account.
func (a *app) reader(ctx context.Context) (*youtube.Client, error) {
	c, err := a.sessions.Reader(ctx, a.cfg.YouTubeAPIKey)
	if err != nil {
		return nil, fmt.Errorf("%w (run the auth command or set YOUTUBE_API_KEY)", err)
	}
	return c, nil
}

// uploadListers returns the clients refresh rotates through: n API-key
// clients when n > 0, otherwise the single session reader.
func (a *app) uploadListers(ctx context.Context, n int) ([]reconcile.UploadsLister, error) {
	if n < 0 {
		return nil, fmt.Errorf("--api-clients must be non-negative")
	}
	if n == 0 {
		c, err := a.reader(ctx)
		if err != nil {
			return nil, err
		}
		return []reconcile.UploadsLister{c}, nil
	}

	services, err := auth.APIKeyServices(ctx, a.cfg.YouTubeAPIKey, n)
	if err != nil {
		return nil, err
	}
	listers := make([]reconcile.UploadsLister, 0, len(services))
	for _, svc := range services {
		listers = append(listers, youtube.NewClient(svc))
	}
	return listers, nil
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "yt-subtracker",
		Short:         "Track YouTube subscriptions and uploads",
		Long:          "yt-subtracker mirrors your YouTube subscriptions and their uploads into a local database.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.SetVersionTemplate("yt-subtracker version {{.Version}}\n")

	rootCmd.AddCommand(
		newAuthCmd(a),
		newSyncCmd(a),
		newSubscriptionsCmd(a),
		newChannelCmd(a),
		newPlaylistItemsCmd(a),
		newVideoInfoCmd(a),
		newRefreshCmd(a),
		newVideosCmd(a),
		newUpdateWatchPrioCmd(a),
		newSetWatchedDayCmd(a),
		newDownloadCmd(),
	)

	return rootCmd
}
