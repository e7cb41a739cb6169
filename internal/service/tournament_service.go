package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/live"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	"github.com/8Gelos8/tournament-manager-online/internal/schedule"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentService struct {
	db         *sqlx.DB
	store      *store.TournamentStore
	categories *store.CategoryStore
	locks      *CategoryLocks
	notifier   Notifier
	now        func() time.Time
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, categories *store.CategoryStore, locks *CategoryLocks, notifier Notifier) *TournamentService {
	return &TournamentService{
		db:         db,
		store:      store,
		categories: categories,
		locks:      locks,
		notifier:   orNop(notifier),
		now:        time.Now,
	}
}

type CreateTournamentInput struct {
	Name                      string              `json:"name"`
	Location                  string              `json:"location"`
	Description               string              `json:"description"`
	StartDate                 time.Time           `json:"date"`
	EndDate                   time.Time           `json:"endDate"`
	BracketType               bracket.BracketType `json:"bracketType"`
	TatamiCount               int                 `json:"tatamiCount"`
	MaxParticipantsPerBracket *int                `json:"maxParticipantsPerBracket"`
}

func (in *CreateTournamentInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: tournament name is required", bracket.ErrValidation)
	}
	if in.BracketType == "" {
		in.BracketType = bracket.SingleElimination
	}
	if !in.BracketType.Valid() {
		return fmt.Errorf("%w: unknown bracket type %q", bracket.ErrValidation, in.BracketType)
	}
	if in.TatamiCount < 1 {
		return fmt.Errorf("%w: a tournament needs at least one tatami", bracket.ErrValidation)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", bracket.ErrValidation)
	}
	if in.EndDate.IsZero() {
		in.EndDate = in.StartDate
	}
	if in.EndDate.Before(in.StartDate) {
		return fmt.Errorf("%w: tournament ends before it starts", bracket.ErrValidation)
	}
	if in.MaxParticipantsPerBracket != nil && *in.MaxParticipantsPerBracket < 2 {
		return fmt.Errorf("%w: max participants per bracket must be at least 2", bracket.ErrValidation)
	}
	return nil
}

// CreateTournament stores a new PLANNED tournament owned by the user in the context, who
// also becomes its admin.
func (s *TournamentService) CreateTournament(ctx context.Context, in CreateTournamentInput) (*bracket.Tournament, error) {
	ownerID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	tournament := &bracket.Tournament{
		ID:                        uuid.New(),
		OwnerID:                   ownerID,
		Name:                      in.Name,
		Location:                  strings.TrimSpace(in.Location),
		Description:               strings.TrimSpace(in.Description),
		StartDate:                 in.StartDate,
		EndDate:                   in.EndDate,
		Status:                    bracket.TournamentPlanned,
		BracketType:               in.BracketType,
		TatamiCount:               in.TatamiCount,
		MaxParticipantsPerBracket: in.MaxParticipantsPerBracket,
		CreatedAt:                 s.now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	grant := users.RoleGrant{TournamentID: tournament.ID, UserID: ownerID, Role: users.RoleTournamentAdmin}
	if err := s.store.SetRoleTx(ctx, tx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant owner role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Tournament created", "tournamentID", tournament.ID, "ownerID", ownerID, "name", tournament.Name)
	return tournament, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return s.store.GetTournament(ctx, id)
}

func (s *TournamentService) GetTournamentsForUser(ctx context.Context) ([]bracket.Tournament, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("user ID not found in the context")
	}
	return s.store.GetTournamentsForUser(ctx, userID)
}

func (s *TournamentService) GetTransitions(ctx context.Context, id uuid.UUID) ([]bracket.Transition, error) {
	return s.store.GetTransitions(ctx, id)
}

// AdvanceStatus moves the tournament one step through its lifecycle.
func (s *TournamentService) AdvanceStatus(ctx context.Context, id uuid.UUID, to bracket.TournamentStatus) (*bracket.Tournament, error) {
	return s.transition(ctx, id, func(t bracket.Tournament, categories []bracket.Category) (bracket.Tournament, bracket.Transition, error) {
		return bracket.Advance(t, to, categories, s.now().UTC())
	})
}

// ForceComplete closes a live tournament even though some categories are still running.
func (s *TournamentService) ForceComplete(ctx context.Context, id uuid.UUID, reason string) (*bracket.Tournament, error) {
	return s.transition(ctx, id, func(t bracket.Tournament, _ []bracket.Category) (bracket.Tournament, bracket.Transition, error) {
		return bracket.ForceComplete(t, reason, s.now().UTC())
	})
}

type transitionFunc func(bracket.Tournament, []bracket.Category) (bracket.Tournament, bracket.Transition, error)

func (s *TournamentService) transition(ctx context.Context, id uuid.UUID, apply transitionFunc) (*bracket.Tournament, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.store.GetTournamentTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.GetCategoriesByTournamentTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	next, tr, err := apply(*current, categories)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, id, next.Status); err != nil {
		return nil, fmt.Errorf("failed to update tournament status: %w", err)
	}
	if err := s.store.CreateTransition(ctx, tx, &tr); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	userID, _ := middleware.GetUserIDFromContext(ctx)
	if tr.Override {
		open := 0
		for _, c := range categories {
			if !c.Completed() {
				open++
			}
		}
		slog.Warn("Tournament force completed", "tournamentID", id, "userID", userID, "override", true, "reason", tr.Reason, "openCategories", open)
	} else {
		slog.Info("Tournament status changed", "tournamentID", id, "userID", userID, "from", tr.From, "to", tr.To)
	}

	s.notifier.Publish(id, live.MessageTournamentUpdated, next)
	return &next, nil
}

// AssignTatamis spreads the tournament's categories over tatamiCount tatamis and stores the
// new tatami count.
func (s *TournamentService) AssignTatamis(ctx context.Context, id uuid.UUID, tatamiCount int) ([]schedule.Assignment, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status == bracket.TournamentCompleted {
		return nil, fmt.Errorf("%w: tournament %q is completed", bracket.ErrInvalidTournamentState, tournament.Name)
	}

	categories, err := s.categories.GetCategoriesByTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	unlock := s.locks.LockAll(ids)
	defer unlock()

	assignments, err := schedule.AssignTatamis(categories, tatamiCount)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, a := range assignments {
		tatami := a.Tatami
		if err := s.categories.UpdateTatamiTx(ctx, tx, a.CategoryID, &tatami); err != nil {
			return nil, fmt.Errorf("failed to assign tatami: %w", err)
		}
	}
	if err := s.store.UpdateTatamiCountTx(ctx, tx, id, tatamiCount); err != nil {
		return nil, fmt.Errorf("failed to update tatami count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Tatamis assigned", "tournamentID", id, "tatamis", tatamiCount, "categories", len(assignments))
	s.notifier.Publish(id, live.MessageTournamentUpdated, assignments)
	return assignments, nil
}

// FightQueue lists the fights that can start right now on one tatami.
func (s *TournamentService) FightQueue(ctx context.Context, id uuid.UUID, tatami int) ([]schedule.QueuedFight, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tatami < 1 || tatami > tournament.TatamiCount {
		return nil, fmt.Errorf("%w: tournament has tatamis 1 to %d, got %d", bracket.ErrValidation, tournament.TatamiCount, tatami)
	}

	categories, err := s.categories.GetCategoriesByTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	return schedule.FightQueue(categories, tatami), nil
}
