package users

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const UserKey ContextKey = "user"

// GuestID is the shared account behind "continue as guest". It is seeded by the first migration.
var GuestID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	Provider   *string   `db:"provider" json:"provider,omitempty"`
	ProviderID *string   `db:"provider_id" json:"-"`
	AvatarURL  *string   `db:"avatar_url" json:"avatarUrl,omitempty"`
}

// TournamentRole is what a user may do inside one tournament.
type TournamentRole string

const (
	RoleTournamentAdmin TournamentRole = "TOURNAMENT_ADMIN"
	RoleJudge           TournamentRole = "JUDGE"
	RoleCoach           TournamentRole = "COACH"
	RoleViewer          TournamentRole = "VIEWER"
)

func (r TournamentRole) Valid() bool {
	switch r {
	case RoleTournamentAdmin, RoleJudge, RoleCoach, RoleViewer:
		return true
	}
	return false
}

type RoleGrant struct {
	TournamentID uuid.UUID      `db:"tournament_id" json:"tournamentId"`
	UserID       uuid.UUID      `db:"user_id" json:"userId"`
	Role         TournamentRole `db:"role" json:"role"`
}
