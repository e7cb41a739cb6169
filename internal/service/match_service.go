package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/live"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	categories  *store.CategoryStore
	locks       *CategoryLocks
	notifier    Notifier
}

func NewMatchService(db *sqlx.DB, tournaments *store.TournamentStore, categories *store.CategoryStore, locks *CategoryLocks, notifier Notifier) *MatchService {
	return &MatchService{
		db:          db,
		tournaments: tournaments,
		categories:  categories,
		locks:       locks,
		notifier:    orNop(notifier),
	}
}

// ReportResult records the winner of a match and moves them on through the bracket.
func (s *MatchService) ReportResult(ctx context.Context, categoryID, matchID uuid.UUID, res bracket.Result) (*bracket.Category, error) {
	if res.Score1 < 0 || res.Score2 < 0 {
		return nil, fmt.Errorf("%w: scores cannot be negative", bracket.ErrValidation)
	}

	updated, err := s.update(ctx, categoryID, func(c bracket.Category) (bracket.Category, error) {
		return bracket.ReportResult(c, matchID, res)
	})
	if err != nil {
		return nil, err
	}

	userID, _ := middleware.GetUserIDFromContext(ctx)
	slog.Info("Match result reported", "categoryID", categoryID, "matchID", matchID, "winnerID", res.Winner, "forfeit", res.Forfeit, "userID", userID)
	if updated.Completed() {
		slog.Info("Category completed", "tournamentID", updated.TournamentID, "categoryID", categoryID, "title", updated.Title)
	}
	return updated, nil
}

// Retract clears a reported result and everything that depended on it.
func (s *MatchService) Retract(ctx context.Context, categoryID, matchID uuid.UUID) (*bracket.Category, error) {
	updated, err := s.update(ctx, categoryID, func(c bracket.Category) (bracket.Category, error) {
		return bracket.Retract(c, matchID)
	})
	if err != nil {
		return nil, err
	}

	userID, _ := middleware.GetUserIDFromContext(ctx)
	slog.Warn("Match result retracted", "categoryID", categoryID, "matchID", matchID, "userID", userID)
	return updated, nil
}

func (s *MatchService) Playable(ctx context.Context, categoryID uuid.UUID) ([]bracket.Match, error) {
	c, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	matches := bracket.Playable(*c)
	if matches == nil {
		matches = []bracket.Match{}
	}
	return matches, nil
}

// update runs one engine step on a category under its lock. Nothing is stored unless the
// step succeeds, and the hub only hears about committed changes.
func (s *MatchService) update(ctx context.Context, categoryID uuid.UUID, step func(bracket.Category) (bracket.Category, error)) (*bracket.Category, error) {
	unlock := s.locks.Lock(categoryID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.categories.GetCategoryTx(ctx, tx, categoryID)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, current.TournamentID)
	if err != nil {
		return nil, err
	}
	if err := bracket.RequireLive(*tournament); err != nil {
		return nil, err
	}

	updated, err := step(*current)
	if err != nil {
		return nil, err
	}

	if err := s.categories.ReplaceCategory(ctx, tx, &updated); err != nil {
		return nil, fmt.Errorf("failed to store category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.notifier.Publish(updated.TournamentID, live.MessageCategoryUpdated, updated)
	return &updated, nil
}
