package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "12345:dummy-token"

// signInitData builds init data the way Telegram signs it for a Mini App.
func signInitData(t *testing.T, userJSON, botToken string) string {
	t.Helper()
	values := url.Values{}
	values.Set("query_id", "AAHdF614AAAAAN0Xrhom_pA")
	values.Set("user", userJSON)
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))

	pairs := make([]string, 0, len(values))
	for k, v := range values {
		pairs = append(pairs, k+"="+v[0])
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	sig := hmac.New(sha256.New, secret.Sum(nil))
	sig.Write([]byte(strings.Join(pairs, "\n")))
	values.Set("hash", hex.EncodeToString(sig.Sum(nil)))
	return values.Encode()
}

func TestAuth(t *testing.T) {
	validInitData := signInitData(t, `{"id":123,"first_name":"Test","username":"testuser"}`, testBotToken)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, int64(123), user.ID)
		assert.Equal(t, "testuser", user.Username)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		header   string
		botToken string
		ownerID  int64
		want     int
	}{
		{name: "valid auth data", header: "tma " + validInitData, botToken: testBotToken, want: http.StatusOK},
		{name: "owner matches", header: "tma " + validInitData, botToken: testBotToken, ownerID: 123, want: http.StatusOK},
		{name: "not the owner", header: "tma " + validInitData, botToken: testBotToken, ownerID: 999, want: http.StatusForbidden},
		{name: "no authorization header", botToken: testBotToken, want: http.StatusUnauthorized},
		{name: "invalid authorization header format", header: "Bearer " + validInitData, botToken: testBotToken, want: http.StatusUnauthorized},
		{name: "signed with another token", header: "tma " + validInitData, botToken: "other:token", want: http.StatusUnauthorized},
		{name: "bot token not configured", header: "tma " + validInitData, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			Auth(tt.botToken, tt.ownerID)(okHandler).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiterMiddleware(0.001, 2)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1000"))
}
