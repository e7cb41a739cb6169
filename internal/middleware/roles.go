package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"slices"

	"github.com/8Gelos8/tournament-manager-online/internal/httputil"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const RoleKey ContextKey = "tournamentRole"

type RoleResolver interface {
	// RoleFor returns an empty role when the user has none in the tournament.
	RoleFor(ctx context.Context, tournamentID, userID uuid.UUID) (users.TournamentRole, error)
}

// TournamentIDFunc finds the tournament a request is about.
type TournamentIDFunc func(r *http.Request) (uuid.UUID, error)

func TournamentFromURL(param string) TournamentIDFunc {
	return func(r *http.Request) (uuid.UUID, error) {
		return uuid.Parse(chi.URLParam(r, param))
	}
}

// TournamentFromCategory resolves the tournament through the category in the URL.
func TournamentFromCategory(param string, lookup func(ctx context.Context, categoryID uuid.UUID) (uuid.UUID, error)) TournamentIDFunc {
	return func(r *http.Request) (uuid.UUID, error) {
		categoryID, err := uuid.Parse(chi.URLParam(r, param))
		if err != nil {
			return uuid.Nil, err
		}
		return lookup(r.Context(), categoryID)
	}
}

// RequireTournamentRole lets the request through when the user holds one of the allowed
// roles in the tournament. With no roles listed any role will do.
func RequireTournamentRole(resolver RoleResolver, tournamentID TournamentIDFunc, allowed ...users.TournamentRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				httputil.Unauthorized(w, "login required")
				return
			}

			id, err := tournamentID(r)
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Not found", err)
				return
			}
			if err != nil {
				httputil.BadRequest(w, "Invalid ID", err)
				return
			}

			role, err := resolver.RoleFor(r.Context(), id, userID)
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "Tournament not found", err)
				return
			}
			if err != nil {
				httputil.InternalServerError(w, "Failed to resolve tournament role", err)
				return
			}

			if role == "" || (len(allowed) > 0 && !slices.Contains(allowed, role)) {
				httputil.Forbidden(w, "your role in this tournament does not allow this")
				return
			}

			ctx := context.WithValue(r.Context(), RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRoleFromContext(ctx context.Context) users.TournamentRole {
	role, _ := ctx.Value(RoleKey).(users.TournamentRole)
	return role
}
