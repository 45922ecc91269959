// Package auth manages the OAuth session used to call the YouTube API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	youtubev3 "google.golang.org/api/youtube/v3"

	"yt-subtracker/internal/youtube"
)

// TokenName is the storage name of the user's YouTube token.
const TokenName = "youtube"

// Sessions builds authenticated YouTube services from stored tokens.
type Sessions struct {
	config  *oauth2.Config
	storage *TokenStorage
}

func NewSessions(config *oauth2.Config, storage *TokenStorage) *Sessions {
	return &Sessions{config: config, storage: storage}
}

// Service returns an OAuth YouTube service. Tokens refreshed while it is in
// use are written back to storage. ErrTokenNotFound means the user has not
// logged in yet.
func (s *Sessions) Service(ctx context.Context) (*youtubev3.Service, error) {
	token, err := s.storage.Load(TokenName)
	if err != nil {
		return nil, err
	}
	src := &persistingTokenSource{
		name:    TokenName,
		storage: s.storage,
		base:    oauth2.ReuseTokenSource(token, s.config.TokenSource(ctx, token)),
		last:    token.AccessToken,
	}
	svc, err := youtubev3.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

// Client wraps Service in a youtube.Client.
func (s *Sessions) Client(ctx context.Context) (*youtube.Client, error) {
	svc, err := s.Service(ctx)
	if err != nil {
		return nil, err
	}
	return youtube.NewClient(svc), nil
}

// Reader returns the OAuth client, or a public API-key client when the user
// has not logged in and apiKey is set.
func (s *Sessions) Reader(ctx context.Context, apiKey string) (*youtube.Client, error) {
	client, err := s.Client(ctx)
	if errors.Is(err, ErrTokenNotFound) && apiKey != "" {
		svc, err := APIKeyService(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return youtube.NewClient(svc), nil
	}
	return client, err
}

// RedirectURL is the loopback callback address for the given port.
func RedirectURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/callback", port)
}

// Login runs the browser authorization flow and stores the resulting token.
// prompt is handed the URL the user has to open.
func (s *Sessions) Login(ctx context.Context, callback *CallbackServer, prompt func(url string)) error {
	state := uuid.NewString()
	flow := NewFlow(s.config)

	if err := callback.Listen(); err != nil {
		return err
	}
	prompt(flow.AuthURL(state))

	code, err := callback.Wait(ctx, state)
	if err != nil {
		return err
	}
	token, err := flow.Exchange(ctx, code)
	if err != nil {
		return err
	}
	if err := s.storage.Save(TokenName, token); err != nil {
		return err
	}
	log.Println("YouTube authorization stored")
	return nil
}

type persistingTokenSource struct {
	name    string
	storage *TokenStorage
	base    oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		if err := p.storage.Save(p.name, token); err != nil {
			log.Printf("Error saving refreshed token: %v", err)
		} else {
			p.last = token.AccessToken
		}
	}
	return token, nil
}

// APIKeyService returns a YouTube service authenticated with an API key. It
// can read public data only.
func APIKeyService(ctx context.Context, key string) (*youtubev3.Service, error) {
	if key == "" {
		return nil, fmt.Errorf("youtube api key is not set")
	}
	svc, err := youtubev3.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

// APIKeyServices builds n API-key services one after another.
func APIKeyServices(ctx context.Context, key string, n int) ([]*youtubev3.Service, error) {
	services := make([]*youtubev3.Service, 0, n)
	for i := 0; i < n; i++ {
		svc, err := APIKeyService(ctx, key)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}
