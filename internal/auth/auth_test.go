package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenStorageRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	storage := NewTokenStorage(dir)

	_, err := storage.Load(TokenName)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, storage.Save(TokenName, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}))

	info, err := os.Stat(filepath.Join(dir, "youtube_token.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := storage.Load(TokenName)
	require.NoError(t, err)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, expiry.Equal(token.Expiry))
}

func TestSessionsServiceWithoutToken(t *testing.T) {
	sessions := NewSessions(OAuthConfig("id", "secret", "http://localhost/callback"), NewTokenStorage(t.TempDir()))

	_, err := sessions.Client(context.Background())
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthURLRequestsOfflineAccess(t *testing.T) {
	flow := NewFlow(OAuthConfig("client-id", "secret", "http://localhost:8085/callback"))

	u, err := url.Parse(flow.AuthURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Contains(t, q.Get("scope"), "youtube.readonly")
}

func newTokenEndpoint(t *testing.T, access string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  access,
			"refresh_token": "refresh-" + r.FormValue("grant_type"),
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFlowExchange(t *testing.T) {
	srv := newTokenEndpoint(t, "new-access")
	config := OAuthConfig("id", "secret", "http://localhost/callback")
	config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}

	token, err := NewFlow(config).Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token.AccessToken)
	assert.Equal(t, "refresh-authorization_code", token.RefreshToken)
}

func TestPersistingTokenSourceSavesRefreshedToken(t *testing.T) {
	srv := newTokenEndpoint(t, "refreshed-access")
	config := OAuthConfig("id", "secret", "http://localhost/callback")
	config.Endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token"}
	storage := NewTokenStorage(t.TempDir())

	expired := &oauth2.Token{AccessToken: "stale", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)}
	src := &persistingTokenSource{
		name:    TokenName,
		storage: storage,
		base:    oauth2.ReuseTokenSource(expired, config.TokenSource(context.Background(), expired)),
		last:    expired.AccessToken,
	}

	token, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", token.AccessToken)

	stored, err := storage.Load(TokenName)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", stored.AccessToken)
}

func TestCallbackServerReceivesCode(t *testing.T) {
	server := NewCallbackServer("127.0.0.1:0")
	require.NoError(t, server.Listen())
	base := "http://" + server.Addr() + "/callback"

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := server.Wait(context.Background(), "good-state")
		done <- result{code, err}
	}()

	resp, err := http.Get(base + "?code=abc&state=bad-state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(base + "?code=abc&state=good-state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, "abc", res.code)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for callback")
	}
}

func TestCallbackServerHonoursContext(t *testing.T) {
	server := NewCallbackServer("127.0.0.1:0")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := server.Wait(ctx, "state")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAPIKeyServices(t *testing.T) {
	_, err := APIKeyServices(context.Background(), "", 2)
	assert.Error(t, err)

	services, err := APIKeyServices(context.Background(), "key", 3)
	require.NoError(t, err)
	assert.Len(t, services, 3)
}

func TestSessionsReaderFallsBackToAPIKey(t *testing.T) {
	sessions := NewSessions(OAuthConfig("id", "secret", RedirectURL(8085)), NewTokenStorage(t.TempDir()))

	_, err := sessions.Reader(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	client, err := sessions.Reader(context.Background(), "api-key")
	require.NoError(t, err)
	assert.NotNil(t, client)
}
