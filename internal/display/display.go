// Package display formats cached channels and videos for the terminal.
package display

import (
	"fmt"
	"io"
	"text/tabwriter"

	"yt-subtracker/internal/models"
)

const dateLayout = "2006-01-02"

// Channels writes one "[id]    title" line per channel. Pinned channels are
// marked.
func Channels(w io.Writer, channels []models.Channel) {
	if len(channels) == 0 {
		fmt.Fprintln(w, "No subscriptions.")
		return
	}
	for _, ch := range channels {
		line := fmt.Sprintf("[%s]    %s", ch.ID, ch.Title)
		if ch.SubscribedOverride {
			line += " [Subscription override]"
		}
		fmt.Fprintln(w, line)
	}
}

// ChannelTable writes the channels as aligned columns.
func ChannelTable(w io.Writer, channels []models.Channel) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tUPLOADS\tSUBSCRIBED")
	for _, ch := range channels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", ch.ID, ch.Title, ch.UploadsPlaylistID, ch.Subscribed)
	}
	return tw.Flush()
}

// Videos writes one line per video with its publish date and kind.
func Videos(w io.Writer, videos []models.Video) {
	if len(videos) == 0 {
		fmt.Fprintln(w, "No videos.")
		return
	}
	for _, v := range videos {
		date := "----------"
		if v.PublishedAt != nil {
			date = v.PublishedAt.Format(dateLayout)
		}
		line := fmt.Sprintf("[%s] %s  %s", v.ID, date, v.Title)
		if v.Kind != "" && v.Kind != models.KindVOD {
			line += " (" + v.Kind + ")"
		}
		fmt.Fprintln(w, line)
	}
}

// VideoURLs writes only the watch URL of each video.
func VideoURLs(w io.Writer, videos []models.Video) {
	for _, v := range videos {
		fmt.Fprintln(w, v.URL())
	}
}

// VideoPaths writes the local file path of each video that has one.
func VideoPaths(w io.Writer, videos []models.Video) {
	for _, v := range videos {
		if v.VidPath != nil {
			fmt.Fprintln(w, *v.VidPath)
		}
	}
}
