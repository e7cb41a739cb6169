package store

import (
	"context"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	transitionColumns = "tournament_id, from_status, to_status, override, reason, at"
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, owner_id, name, location, description, start_date, end_date, status, bracket_type, tatami_count, max_participants_per_bracket, created_at)
        VALUES (:id, :owner_id, :name, :location, :description, :start_date, :end_date, :status, :bracket_type, :tatami_count, :max_participants_per_bracket, :created_at)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := sqlx.GetContext(ctx, q, &tournament, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

// GetTournamentsForUser lists tournaments the user owns or holds a role in, newest first.
func (s *TournamentStore) GetTournamentsForUser(ctx context.Context, userID uuid.UUID) ([]bracket.Tournament, error) {
	tournaments := []bracket.Tournament{}
	err := s.db.SelectContext(ctx, &tournaments, `SELECT * FROM tournaments
		WHERE owner_id = ? OR id IN (SELECT tournament_id FROM tournament_roles WHERE user_id = ?)
		ORDER BY created_at DESC`, userID, userID)
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

func (s *TournamentStore) UpdateTatamiCountTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, count int) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET tatami_count = ? WHERE id = ?", count, id)
	return err
}

func (s *TournamentStore) CreateTransition(ctx context.Context, tx *sqlx.Tx, transition *bracket.Transition) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournament_transitions (`+transitionColumns+`)
		VALUES (:tournament_id, :from_status, :to_status, :override, :reason, :at)`, transition)
	return err
}

func (s *TournamentStore) GetTransitions(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Transition, error) {
	transitions := []bracket.Transition{}
	err := s.db.SelectContext(ctx, &transitions, "SELECT "+transitionColumns+" FROM tournament_transitions WHERE tournament_id = ? ORDER BY id ASC", tournamentID)
	return transitions, err
}

func (s *TournamentStore) SetRole(ctx context.Context, grant users.RoleGrant) error {
	return setRole(ctx, s.db, grant)
}

func (s *TournamentStore) SetRoleTx(ctx context.Context, tx *sqlx.Tx, grant users.RoleGrant) error {
	return setRole(ctx, tx, grant)
}

func setRole(ctx context.Context, e sqlx.ExtContext, grant users.RoleGrant) error {
	_, err := sqlx.NamedExecContext(ctx, e, `INSERT INTO tournament_roles (tournament_id, user_id, role)
		VALUES (:tournament_id, :user_id, :role)
		ON CONFLICT (tournament_id, user_id) DO UPDATE SET role = excluded.role`, grant)
	return err
}

// GetRole returns sql.ErrNoRows when the user has no role in the tournament.
func (s *TournamentStore) GetRole(ctx context.Context, tournamentID, userID uuid.UUID) (users.TournamentRole, error) {
	var role users.TournamentRole
	err := s.db.GetContext(ctx, &role, "SELECT role FROM tournament_roles WHERE tournament_id = ? AND user_id = ?", tournamentID, userID)
	return role, err
}

func (s *TournamentStore) GetRoles(ctx context.Context, tournamentID uuid.UUID) ([]users.RoleGrant, error) {
	grants := []users.RoleGrant{}
	err := s.db.SelectContext(ctx, &grants, "SELECT tournament_id, user_id, role FROM tournament_roles WHERE tournament_id = ? ORDER BY role, user_id", tournamentID)
	return grants, err
}
