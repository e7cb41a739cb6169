package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/8Gelos8/tournament-manager-online/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
)

type UserService struct {
	db          *sqlx.DB
	store       *store.UserStore
	tournaments *store.TournamentStore
}

func NewUserService(db *sqlx.DB, store *store.UserStore, tournaments *store.TournamentStore) *UserService {
	return &UserService{db: db, store: store, tournaments: tournaments}
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != displayName(gothUser) {
			user.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			user.Username = displayName(gothUser)
			if err := s.store.UpdateUserNameAndAvatar(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   displayName(gothUser),
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}

// Discord fills NickName, Google only Name
func displayName(u goth.User) string {
	if u.NickName != "" {
		return u.NickName
	}
	return u.Name
}

func (s *UserService) EnsureGuestUser(ctx context.Context) (*users.User, error) {
	user, err := s.store.GetUser(ctx, users.GuestID)
	if err == nil {
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		guestUser := &users.User{
			ID:       users.GuestID,
			Email:    "guest@tatami.local",
			Username: "Guest User",
		}
		err := s.store.CreateUser(ctx, guestUser)
		return guestUser, err
	}
	return nil, err
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.store.GetUser(ctx, id)
}

// GrantRole gives a user a role in a tournament, replacing any role they had.
func (s *UserService) GrantRole(ctx context.Context, grant users.RoleGrant) error {
	if !grant.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", bracket.ErrValidation, grant.Role)
	}
	if _, err := s.store.GetUser(ctx, grant.UserID); err != nil {
		return err
	}
	if _, err := s.tournaments.GetTournament(ctx, grant.TournamentID); err != nil {
		return err
	}
	return s.tournaments.SetRole(ctx, grant)
}

func (s *UserService) Roles(ctx context.Context, tournamentID uuid.UUID) ([]users.RoleGrant, error) {
	return s.tournaments.GetRoles(ctx, tournamentID)
}

// RoleFor resolves what the user may do in a tournament. The owner is always its admin.
// An empty role means none.
func (s *UserService) RoleFor(ctx context.Context, tournamentID, userID uuid.UUID) (users.TournamentRole, error) {
	tournament, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return "", err
	}
	if tournament.OwnerID == userID {
		return users.RoleTournamentAdmin, nil
	}

	role, err := s.tournaments.GetRole(ctx, tournamentID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return role, err
}
