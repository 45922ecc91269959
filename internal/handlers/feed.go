package handlers

import (
	"log"
	"net/http"

	"yt-subtracker/internal/db"
	"yt-subtracker/internal/feed"
)

func (h *Handlers) GetSubfeed(w http.ResponseWriter, r *http.Request) {
	videos, err := db.GetRecentVideos(h.deps.FeedLimit)
	if err != nil {
		log.Printf("Error getting videos: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rss, err := feed.GenerateSubfeed(videos, h.deps.BaseURL)
	if err != nil {
		log.Printf("Error generating RSS: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}
