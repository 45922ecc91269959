package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/db"
	"yt-subtracker/internal/display"
	"yt-subtracker/internal/models"
	"yt-subtracker/internal/reconcile"
	"yt-subtracker/internal/youtube"
)

func newAuthCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to your YouTube account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.YouTubeClientID == "" || a.cfg.YouTubeClientSecret == "" {
				return fmt.Errorf("missing credentials: set YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET")
			}
			sessions := auth.NewSessions(
				auth.OAuthConfig(a.cfg.YouTubeClientID, a.cfg.YouTubeClientSecret, auth.RedirectURL(port)),
				auth.NewTokenStorage(a.cfg.TokenDir),
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			callback := auth.NewCallbackServer(fmt.Sprintf("localhost:%d", port))
			err := sessions.Login(ctx, callback, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser to authorize:\n%s\n", url)
				fmt.Fprintln(cmd.OutOrStdout(), "Waiting for authorization...")
			})
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to: %s\n", a.cfg.TokenDir)
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", a.cfg.OAuthCallbackPort, "Port for OAuth callback server")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror your YouTube subscriptions into the local cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			channels, err := a.store(ctx)
			if err != nil {
				return err
			}

			var remote reconcile.Remote
			client, err := a.sessions.Client(ctx)
			switch {
			case err == nil:
				remote = client
			case !errors.Is(err, auth.ErrTokenNotFound):
				return err
			}

			synced, err := reconcile.New(channels).Sync(ctx, remote)
			if errors.Is(err, youtube.ErrNoSession) {
				return fmt.Errorf("%w: run the auth command first", err)
			}
			if err != nil {
				return err
			}

			display.Channels(cmd.OutOrStdout(), synced)
			fmt.Fprintf(cmd.OutOrStdout(), "%d subscriptions synced.\n", len(synced))
			return nil
		},
	}
}

func newSubscriptionsCmd(a *app) *cobra.Command {
	var table bool

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List cached subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			channels, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			list, err := channels.List(cmd.Context())
			if err != nil {
				return err
			}
			if table {
				return display.ChannelTable(cmd.OutOrStdout(), list)
			}
			display.Channels(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&table, "table", false, "Show uploads playlist and subscription state as a table")
	return cmd
}

func newChannelCmd(a *app) *cobra.Command {
	var q youtube.ChannelQuery
	var add bool

	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Look up a channel on YouTube",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.reader(cmd.Context())
			if err != nil {
				return err
			}
			ch, err := client.Channel(cmd.Context(), q)
			if err != nil {
				return err
			}
			if add {
				channels, err := a.store(cmd.Context())
				if err != nil {
					return err
				}
				if ch, err = channels.Add(cmd.Context(), *ch); err != nil {
					return err
				}
			}
			return display.ChannelTable(cmd.OutOrStdout(), []models.Channel{*ch})
		},
	}

	cmd.Flags().StringVar(&q.ID, "id", "", "Channel id")
	cmd.Flags().StringVar(&q.Username, "username", "", "Legacy channel username")
	cmd.Flags().BoolVar(&add, "add", false, "Pin the channel in the local cache")
	cmd.MarkFlagsMutuallyExclusive("id", "username")
	cmd.MarkFlagsOneRequired("id", "username")
	return cmd
}

func newPlaylistItemsCmd(a *app) *cobra.Command {
	var pages int
	var urlOnly bool

	cmd := &cobra.Command{
		Use:   "playlist-items <playlist-id>",
		Short: "List the videos of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pages < 0 {
				return fmt.Errorf("--pages must be non-negative")
			}
			client, err := a.reader(cmd.Context())
			if err != nil {
				return err
			}
			videos, err := client.PlaylistItems(cmd.Context(), args[0], pages)
			if err != nil {
				return err
			}
			if urlOnly {
				display.VideoURLs(cmd.OutOrStdout(), videos)
				return nil
			}
			display.Videos(cmd.OutOrStdout(), videos)
			return nil
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to fetch (0 = all)")
	cmd.Flags().BoolVar(&urlOnly, "url-only", false, "Print watch URLs only")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	var apiClients int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch new uploads of every cached channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			listers, err := a.uploadListers(ctx, apiClients)
			if err != nil {
				return err
			}
			channels, err := a.store(ctx)
			if err != nil {
				return err
			}
			list, err := channels.List(ctx)
			if err != nil {
				return err
			}

			total := 0
			for i, ch := range list {
				lister := listers[i%len(listers)]
				added, err := reconcile.RefreshUploads(ctx, lister, ch, a.cfg.UploadsPageLimit, a.cfg.DefaultWatchPrio)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", ch.ID, err)
					continue
				}
				total += len(added)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d new videos from %d channels.\n", total, len(list))
			return nil
		},
	}

	cmd.Flags().IntVar(&apiClients, "api-clients", 0, "Rotate channels over this many YOUTUBE_API_KEY clients instead of the login session")
	return cmd
}

func newVideoInfoCmd(a *app) *cobra.Command {
	var urlOnly bool

	cmd := &cobra.Command{
		Use:   "video-info <video-id>...",
		Short: "Look up videos on YouTube",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.reader(cmd.Context())
			if err != nil {
				return err
			}
			videos, err := client.Videos(cmd.Context(), args)
			if err != nil {
				return err
			}
			if urlOnly {
				display.VideoURLs(cmd.OutOrStdout(), videos)
				return nil
			}
			display.Videos(cmd.OutOrStdout(), videos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&urlOnly, "url-only", false, "Print watch URLs only")
	return cmd
}

func newVideosCmd(a *app) *cobra.Command {
	var watched, discarded, downloaded, paths bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List cached videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ""
			switch {
			case watched:
				filter = db.FilterWatched
			case discarded:
				filter = db.FilterDiscarded
			case downloaded:
				filter = db.FilterDownloaded
			}
			if _, err := a.store(cmd.Context()); err != nil {
				return err
			}
			videos, err := db.GetVideos(filter)
			if err != nil {
				return err
			}
			if paths {
				display.VideoPaths(cmd.OutOrStdout(), videos)
				return nil
			}
			display.Videos(cmd.OutOrStdout(), videos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watched, "watched", false, "Only watched videos with a local file")
	cmd.Flags().BoolVar(&discarded, "discarded", false, "Only discarded videos with a local file")
	cmd.Flags().BoolVar(&downloaded, "downloaded", false, "Only downloaded videos with a local file")
	cmd.Flags().BoolVar(&paths, "paths", false, "Print local file paths only")
	cmd.MarkFlagsMutuallyExclusive("watched", "discarded", "downloaded")
	return cmd
}

func newUpdateWatchPrioCmd(a *app) *cobra.Command {
	var prio int

	cmd := &cobra.Command{
		Use:   "update-watch-prio",
		Short: "Set the watch priority of every cached video",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.store(cmd.Context()); err != nil {
				return err
			}
			n, err := db.SetWatchPrioAll(prio)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d videos.\n", n)
			return nil
		},
	}

	cmd.Flags().IntVar(&prio, "prio", a.cfg.DefaultWatchPrio, "Watch priority to set")
	return cmd
}

// maxWatchedDays bounds set-watched-day so the cutoff stays a sane date.
const maxWatchedDays = 365 * 1000

// watchedCutoff parses a day count and returns the instant that many days
// before now.
func watchedCutoff(now time.Time, arg string) (time.Time, error) {
	days, err := strconv.Atoi(arg)
	if err != nil || days < 0 || days > maxWatchedDays {
		return time.Time{}, fmt.Errorf("days must be a non-negative integer up to %d, got %q", maxWatchedDays, arg)
	}
	return now.AddDate(0, 0, -days), nil
}

func newSetWatchedDayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-watched-day <days>",
		Short: "Mark videos older than the given number of days as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := watchedCutoff(time.Now().UTC(), args[0])
			if err != nil {
				return err
			}
			if _, err := a.store(cmd.Context()); err != nil {
				return err
			}
			n, err := db.MarkWatchedBefore(cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d videos as watched.\n", n)
			return nil
		},
	}
}

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <video-id>",
		Short: "Download a video (not implemented)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return youtube.Download(cmd.Context(), args[0])
		},
	}
}
