package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

type contextKey string

// UserContextKey is the key for the Telegram user in the context.
const UserContextKey = contextKey("user")

// UserFromContext returns the Telegram user set by Auth.
func UserFromContext(ctx context.Context) (*initdata.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*initdata.User)
	return user, ok
}

// Auth validates the Telegram Mini App initData sent as
// "Authorization: tma <initData>". When ownerID is not zero only that
// Telegram user is let through.
func Auth(botToken string, ownerID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "tma" {
				http.Error(w, "Authorization header format must be 'tma <initData>'", http.StatusUnauthorized)
				return
			}

			if botToken == "" {
				log.Println("TELEGRAM_BOT_TOKEN is not set")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			initData := parts[1]
			if err := initdata.Validate(initData, botToken, 0); err != nil {
				log.Printf("Invalid init data: %v", err)
				http.Error(w, "Invalid init data", http.StatusUnauthorized)
				return
			}

			data, err := initdata.Parse(initData)
			if err != nil {
				log.Printf("Error parsing init data: %v", err)
				http.Error(w, "Error parsing init data", http.StatusBadRequest)
				return
			}

			if ownerID != 0 && data.User.ID != ownerID {
				log.Printf("Rejected Telegram user %d: not the owner", data.User.ID)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			user := data.User
			ctx := context.WithValue(r.Context(), UserContextKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
