package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	youtubev3 "google.golang.org/api/youtube/v3"
)

var ErrStateMismatch = errors.New("oauth state mismatch")

// OAuthConfig returns the Google OAuth client configuration with read-only
// YouTube access.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtubev3.YoutubeReadonlyScope},
	}
}

// Flow runs the authorization code grant.
type Flow struct {
	config *oauth2.Config
}

func NewFlow(config *oauth2.Config) *Flow {
	return &Flow{config: config}
}

// AuthURL asks for offline access so the grant includes a refresh token.
func (f *Flow) AuthURL(state string) string {
	return f.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

type callbackResult struct {
	code string
	err  error
}

// CallbackServer receives the OAuth redirect on a loopback address.
type CallbackServer struct {
	addr     string
	listener net.Listener
}

func NewCallbackServer(addr string) *CallbackServer {
	return &CallbackServer{addr: addr}
}

// Listen binds the server address. Wait calls it when needed.
func (s *CallbackServer) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen for oauth callback: %w", err)
	}
	s.listener = ln
	return nil
}

// Addr is the bound address, or the configured one before Listen.
func (s *CallbackServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Wait serves /callback until a request carrying state arrives and returns
// its authorization code. Requests with another state are rejected and
// waiting continues.
func (s *CallbackServer) Wait(ctx context.Context, state string) (string, error) {
	if err := s.Listen(); err != nil {
		return "", err
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, ErrStateMismatch.Error(), http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
			sendResult(results, callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		sendResult(results, callbackResult{code: code})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("OAuth callback server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.listener = nil
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for oauth callback: %w", ctx.Err())
	}
}

func sendResult(ch chan<- callbackResult, res callbackResult) {
	select {
	case ch <- res:
	default:
	}
}
