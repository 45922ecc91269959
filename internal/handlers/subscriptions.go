package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"yt-subtracker/internal/db"
	"yt-subtracker/internal/models"
	"yt-subtracker/internal/youtube"
	"yt-subtracker/pkg/tasks"
)

func (h *Handlers) GetLocalSubscriptions(w http.ResponseWriter, r *http.Request) {
	channels, err := h.deps.Channels.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// PostLocalSubscription looks a channel up on YouTube and adds it to the
// cache with the local override set.
func (h *Handlers) PostLocalSubscription(w http.ResponseWriter, r *http.Request) {
	q := youtube.ChannelQuery{ID: r.URL.Query().Get("id"), Username: r.URL.Query().Get("username")}
	if (q.ID == "") == (q.Username == "") {
		writeError(w, youtube.ErrInvalidQuery)
		return
	}

	remote, err := h.reader(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ch, err := remote.Channel(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	stored, err := h.deps.Channels.Add(r.Context(), *ch)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := tasks.NewRefreshUploadsTask(stored.ID)
	if err != nil {
		log.Printf("Error creating task: %v", err)
	} else if h.asynqClient != nil {
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("Error enqueuing task: %v", err)
		}
	}

	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handlers) GetLocalVideos(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	switch filter {
	case "", db.FilterWatched, db.FilterDiscarded, db.FilterDownloaded:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "filter must be one of watched, discarded, downloaded"})
		return
	}

	videos, err := db.GetVideos(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

type syncResponse struct {
	TaskID   string      `json:"task_id,omitempty"`
	Channels interface{} `json:"channels,omitempty"`
}

// PostSync reconciles the cache with YouTube. With async=1 it only queues
// the sync task.
func (h *Handlers) PostSync(w http.ResponseWriter, r *http.Request) {
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		task, err := tasks.NewSyncSubscriptionsTask()
		if err != nil {
			writeError(w, err)
			return
		}
		info, err := h.asynqClient.Enqueue(task)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, syncResponse{TaskID: info.ID})
		return
	}

	// Without a session remote stays nil and Sync reports ErrNoSession.
	remote, err := h.session(r.Context())
	if err != nil && !errors.Is(err, youtube.ErrNoSession) {
		writeError(w, err)
		return
	}

	channels, err := h.deps.Reconciler.Sync(r.Context(), remote)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Channels: channels})
}

func (h *Handlers) GetRemoteSubscriptions(w http.ResponseWriter, r *http.Request) {
	remote, err := h.session(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	subs, err := remote.SubscriptionsWithContentDetails(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handlers) GetRemoteChannel(w http.ResponseWriter, r *http.Request) {
	q := youtube.ChannelQuery{ID: r.URL.Query().Get("id"), Username: r.URL.Query().Get("username")}
	remote, err := h.reader(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	ch, err := remote.Channel(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func pagesParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("pages")
	if raw == "" {
		return 1, true
	}
	pages, err := strconv.Atoi(raw)
	if err != nil || pages < 0 {
		return 0, false
	}
	return pages, true
}

func (h *Handlers) GetPlaylistItems(w http.ResponseWriter, r *http.Request) {
	pages, ok := pagesParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pages must be a non-negative integer"})
		return
	}
	remote, err := h.reader(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	videos, err := remote.PlaylistItems(r.Context(), mux.Vars(r)["id"], pages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *Handlers) GetSearch(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel_id")
	if channelID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "channel_id is required"})
		return
	}
	pages, ok := pagesParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "pages must be a non-negative integer"})
		return
	}
	remote, err := h.reader(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	videos, err := remote.SearchUploads(r.Context(), channelID, pages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// maxVideoIDs caps one /remote/videos request.
const maxVideoIDs = 200

// GetRemoteVideos returns video snippets for ids given as repeated or
// comma-separated id parameters.
func (h *Handlers) GetRemoteVideos(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, raw := range r.URL.Query()["id"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 || len(ids) > maxVideoIDs {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("between 1 and %d video ids are required", maxVideoIDs)})
		return
	}

	remote, err := h.reader(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	videos, err := remote.Videos(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *Handlers) PostDownload(w http.ResponseWriter, r *http.Request) {
	writeError(w, youtube.Download(r.Context(), mux.Vars(r)["id"]))
}
