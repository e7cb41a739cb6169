package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/8Gelos8/tournament-manager-online/internal/config"
	"github.com/8Gelos8/tournament-manager-online/internal/httputil"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

type ContextKey string

const UserIDKey ContextKey = "userID"

// SessionUserIDKey is where the session keeps the logged in user.
const SessionUserIDKey = "userID"

// InitAuth registers the OAuth providers that have credentials configured.
func InitAuth(cfg *config.Config) {
	var providers []goth.Provider
	if cfg.Discord.Enabled() {
		providers = append(providers, discord.New(cfg.Discord.Key, cfg.Discord.Secret, cfg.Discord.CallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if cfg.Google.Enabled() {
		providers = append(providers, google.New(cfg.Google.Key, cfg.Google.Secret, cfg.Google.CallbackURL, "email", "profile"))
	}
	if len(providers) == 0 {
		slog.Warn("No OAuth providers configured, only guest login is available")
		return
	}
	goth.UseProviders(providers...)
}

// RequireAuth guards the HTML pages and sends anonymous visitors to the login page.
func RequireAuth(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return authenticate(sessionManager, userStore, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}

// RequireAPIAuth is RequireAuth for the JSON API, answering 401 instead of redirecting.
func RequireAPIAuth(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return authenticate(sessionManager, userStore, func(w http.ResponseWriter, r *http.Request) {
		httputil.Unauthorized(w, "login required")
	})
}

func authenticate(sessionManager *scs.SessionManager, userStore *store.UserStore, reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userIDStr := sessionManager.GetString(r.Context(), SessionUserIDKey)
			if userIDStr == "" {
				reject(w, r)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionUserIDKey)
				reject(w, r)
				return
			}

			ctx := WithUserID(r.Context(), userID)

			// Add the user to context so that we can easily get it whenever we want
			user, err := userStore.GetUser(ctx, userID)
			if err == nil {
				ctx = context.WithValue(ctx, users.UserKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	val := ctx.Value(users.UserKey)
	if val == nil {
		return nil
	}
	user, ok := val.(*users.User)
	if !ok {
		return nil
	}
	return user
}
