package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"

	"yt-subtracker/internal/auth"
	"yt-subtracker/internal/models"
	"yt-subtracker/internal/reconcile"
	"yt-subtracker/internal/youtube"
	"yt-subtracker/pkg/tasks"
)

// RemoteAPI is the YouTube surface the HTTP API exposes.
type RemoteAPI interface {
	reconcile.Remote
	Channel(ctx context.Context, q youtube.ChannelQuery) (*models.Channel, error)
	SubscriptionsWithContentDetails(ctx context.Context) ([]youtube.SubscriptionDetails, error)
	PlaylistItems(ctx context.Context, playlistID string, pageLimit int) ([]models.Video, error)
	SearchUploads(ctx context.Context, channelID string, pageLimit int) ([]models.Video, error)
	Videos(ctx context.Context, ids []string) ([]models.Video, error)
}

// ChannelStore is the channel cache as the handlers use it.
type ChannelStore interface {
	List(ctx context.Context) ([]models.Channel, error)
	Add(ctx context.Context, ch models.Channel) (*models.Channel, error)
}

type Deps struct {
	Channels   ChannelStore
	Reconciler *reconcile.Reconciler
	Enqueuer   tasks.TaskEnqueuer
	// Session opens the user's OAuth session. Public, when set, is used for
	// reads of public data while no session exists.
	Session   func(ctx context.Context) (RemoteAPI, error)
	Public    func(ctx context.Context) (RemoteAPI, error)
	BaseURL   string
	FeedLimit int
	// OwnerTelegramID restricts the bot to one user when not zero.
	OwnerTelegramID int64
}

type Handlers struct {
	asynqClient tasks.TaskEnqueuer
	deps        Deps
}

func New(deps Deps) *Handlers {
	if deps.FeedLimit == 0 {
		deps.FeedLimit = 50
	}
	return &Handlers{asynqClient: deps.Enqueuer, deps: deps}
}

// NewRouter mounts the API. protect wraps every route except the RSS feed.
func NewRouter(h *Handlers, protect ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/subfeed.rss", h.GetSubfeed).Methods(http.MethodGet)

	private := api.NewRoute().Subrouter()
	private.Use(protect...)
	private.HandleFunc("/local/subscriptions", h.GetLocalSubscriptions).Methods(http.MethodGet)
	private.HandleFunc("/local/subscriptions", h.PostLocalSubscription).Methods(http.MethodPost)
	private.HandleFunc("/local/videos", h.GetLocalVideos).Methods(http.MethodGet)
	private.HandleFunc("/remote/subscriptions/sync", h.PostSync).Methods(http.MethodPost)
	private.HandleFunc("/remote/subscriptions", h.GetRemoteSubscriptions).Methods(http.MethodGet)
	private.HandleFunc("/remote/channel", h.GetRemoteChannel).Methods(http.MethodGet)
	private.HandleFunc("/remote/playlist/{id}/items", h.GetPlaylistItems).Methods(http.MethodGet)
	private.HandleFunc("/remote/search", h.GetSearch).Methods(http.MethodGet)
	private.HandleFunc("/remote/videos", h.GetRemoteVideos).Methods(http.MethodGet)
	private.HandleFunc("/download/{id}", h.PostDownload).Methods(http.MethodPost)
	return r
}

// session returns the OAuth remote, or nil when the user has not logged in.
func (h *Handlers) session(ctx context.Context) (RemoteAPI, error) {
	remote, err := h.deps.Session(ctx)
	if errors.Is(err, auth.ErrTokenNotFound) {
		return nil, youtube.ErrNoSession
	}
	return remote, err
}

// reader prefers the OAuth session and falls back to the public API.
func (h *Handlers) reader(ctx context.Context) (RemoteAPI, error) {
	remote, err := h.session(ctx)
	if errors.Is(err, youtube.ErrNoSession) && h.deps.Public != nil {
		return h.deps.Public(ctx)
	}
	return remote, err
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"
	switch {
	case errors.Is(err, youtube.ErrNoSession):
		status, msg = http.StatusPreconditionFailed, err.Error()
	case errors.Is(err, youtube.ErrInvalidQuery):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, youtube.ErrChannelNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, youtube.ErrNotImplemented):
		status, msg = http.StatusNotImplemented, err.Error()
	case errors.Is(err, asynq.ErrDuplicateTask):
		status, msg = http.StatusConflict, "a sync is already queued"
	default:
		log.Printf("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
