package store

import (
	"context"
	"fmt"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CategoryStore persists whole category snapshots. A category is written as one row plus
// its participant snapshots, rounds and matches, and always read back the same way.
type CategoryStore struct {
	db *sqlx.DB
}

func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

type categoryRow struct {
	bracket.CategoryDefinition
	TournamentID    uuid.UUID              `db:"tournament_id"`
	Position        int                    `db:"position"`
	Built           bool                   `db:"built"`
	BronzeMatch     bool                   `db:"bronze_match"`
	Status          bracket.CategoryStatus `db:"status"`
	Tatami          *int                   `db:"tatami"`
	NextFightNumber int                    `db:"next_fight_number"`
}

type participantRow struct {
	CategoryID uuid.UUID `db:"category_id"`
	Seed       int       `db:"seed"`
	bracket.Participant
}

type roundRow struct {
	CategoryID uuid.UUID  `db:"category_id"`
	RoundIndex int        `db:"round_index"`
	Name       string     `db:"name"`
	RestingID  *uuid.UUID `db:"resting_participant_id"`
}

type matchRow struct {
	ID           uuid.UUID         `db:"id"`
	CategoryID   uuid.UUID         `db:"category_id"`
	RoundIndex   int               `db:"round_index"`
	MatchOrder   int               `db:"match_order"`
	Player1State bracket.SlotState `db:"player1_state"`
	Player1ID    *uuid.UUID        `db:"player1_id"`
	Player2State bracket.SlotState `db:"player2_state"`
	Player2ID    *uuid.UUID        `db:"player2_id"`
	Winner       bracket.Side      `db:"winner"`
	Score1       int               `db:"score1"`
	Score2       int               `db:"score2"`
	Forfeit      bool              `db:"forfeit"`
	NextRound    *int              `db:"next_round"`
	NextOrder    *int              `db:"next_order"`
	NextSide     *bracket.Side     `db:"next_side"`
	LoserRound   *int              `db:"loser_round"`
	LoserOrder   *int              `db:"loser_order"`
	LoserSide    *bracket.Side     `db:"loser_side"`
	Label        string            `db:"label"`
	FightNumber  int               `db:"fight_number"`
}

const (
	insertCategoryQuery = `INSERT INTO categories (id, tournament_id, position, title, gender, min_age, max_age, min_weight, max_weight, bracket_type, built, bronze_match, status, tatami, next_fight_number)
		VALUES (:id, :tournament_id, :position, :title, :gender, :min_age, :max_age, :min_weight, :max_weight, :bracket_type, :built, :bronze_match, :status, :tatami, :next_fight_number)`
	updateCategoryQuery = `UPDATE categories SET
		built = :built,
		bronze_match = :bronze_match,
		status = :status,
		tatami = :tatami,
		next_fight_number = :next_fight_number
		WHERE id = :id`
	insertParticipantsQuery = `INSERT INTO category_participants (category_id, seed, participant_id, name, club, coach, club_logo, weight, age, birth_date, gender, rank, original_athlete_id)
		VALUES (:category_id, :seed, :participant_id, :name, :club, :coach, :club_logo, :weight, :age, :birth_date, :gender, :rank, :original_athlete_id)`
	insertRoundsQuery = `INSERT INTO category_rounds (category_id, round_index, name, resting_participant_id)
		VALUES (:category_id, :round_index, :name, :resting_participant_id)`
	insertMatchesQuery = `INSERT INTO matches (id, category_id, round_index, match_order, player1_state, player1_id, player2_state, player2_id, winner, score1, score2, forfeit, next_round, next_order, next_side, loser_round, loser_order, loser_side, label, fight_number)
		VALUES (:id, :category_id, :round_index, :match_order, :player1_state, :player1_id, :player2_state, :player2_id, :winner, :score1, :score2, :forfeit, :next_round, :next_order, :next_side, :loser_round, :loser_order, :loser_side, :label, :fight_number)`
)

// CreateCategories inserts new categories after the ones the tournament already has,
// keeping their order for later listing.
func (s *CategoryStore) CreateCategories(ctx context.Context, tx *sqlx.Tx, categories []bracket.Category) error {
	if len(categories) == 0 {
		return nil
	}

	var next int
	if err := tx.GetContext(ctx, &next, "SELECT COALESCE(MAX(position) + 1, 0) FROM categories WHERE tournament_id = ?", categories[0].TournamentID); err != nil {
		return fmt.Errorf("failed to read category positions: %w", err)
	}

	for i := range categories {
		row := toCategoryRow(&categories[i], next+i)
		if _, err := tx.NamedExecContext(ctx, insertCategoryQuery, row); err != nil {
			return fmt.Errorf("failed to insert category %q: %w", categories[i].Title, err)
		}
		if err := insertChildren(ctx, tx, &categories[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceCategory overwrites the stored snapshot of an existing category.
func (s *CategoryStore) ReplaceCategory(ctx context.Context, tx *sqlx.Tx, c *bracket.Category) error {
	res, err := tx.NamedExecContext(ctx, updateCategoryQuery, toCategoryRow(c, 0))
	if err != nil {
		return fmt.Errorf("failed to update category %q: %w", c.Title, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update category %q: not stored", c.Title)
	}

	for _, table := range []string{"matches", "category_rounds", "category_participants"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE category_id = ?", c.ID); err != nil {
			return fmt.Errorf("failed to clear %s of category %q: %w", table, c.Title, err)
		}
	}
	return insertChildren(ctx, tx, c)
}

func (s *CategoryStore) UpdateTatamiTx(ctx context.Context, tx *sqlx.Tx, categoryID uuid.UUID, tatami *int) error {
	_, err := tx.ExecContext(ctx, "UPDATE categories SET tatami = ? WHERE id = ?", tatami, categoryID)
	return err
}

func (s *CategoryStore) GetCategory(ctx context.Context, id uuid.UUID) (*bracket.Category, error) {
	return getCategory(ctx, s.db, id)
}

func (s *CategoryStore) GetCategoryTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Category, error) {
	return getCategory(ctx, tx, id)
}

func (s *CategoryStore) GetCategoriesByTournament(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Category, error) {
	return getCategoriesByTournament(ctx, s.db, tournamentID)
}

func (s *CategoryStore) GetCategoriesByTournamentTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Category, error) {
	return getCategoriesByTournament(ctx, tx, tournamentID)
}

func (s *CategoryStore) GetTournamentID(ctx context.Context, categoryID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.GetContext(ctx, &id, "SELECT tournament_id FROM categories WHERE id = ?", categoryID)
	return id, err
}

func getCategory(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Category, error) {
	var row categoryRow
	if err := sqlx.GetContext(ctx, q, &row, "SELECT * FROM categories WHERE id = ?", id); err != nil {
		return nil, err
	}
	c, err := loadCategory(ctx, q, row)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func getCategoriesByTournament(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Category, error) {
	var rows []categoryRow
	if err := sqlx.SelectContext(ctx, q, &rows, "SELECT * FROM categories WHERE tournament_id = ? ORDER BY position ASC", tournamentID); err != nil {
		return nil, err
	}

	categories := make([]bracket.Category, 0, len(rows))
	for _, row := range rows {
		c, err := loadCategory(ctx, q, row)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func toCategoryRow(c *bracket.Category, position int) categoryRow {
	return categoryRow{
		CategoryDefinition: c.CategoryDefinition,
		TournamentID:       c.TournamentID,
		Position:           position,
		Built:              c.Built,
		BronzeMatch:        c.BronzeMatch,
		Status:             c.Status,
		Tatami:             c.Tatami,
		NextFightNumber:    c.NextFightNumber,
	}
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, c *bracket.Category) error {
	if len(c.Participants) > 0 {
		rows := make([]participantRow, len(c.Participants))
		for i, p := range c.Participants {
			rows[i] = participantRow{CategoryID: c.ID, Seed: i, Participant: p}
		}
		if _, err := tx.NamedExecContext(ctx, insertParticipantsQuery, rows); err != nil {
			return fmt.Errorf("failed to insert participants of category %q: %w", c.Title, err)
		}
	}

	if len(c.Rounds) == 0 {
		return nil
	}

	rounds := make([]roundRow, len(c.Rounds))
	var matches []matchRow
	for r, round := range c.Rounds {
		rounds[r] = roundRow{CategoryID: c.ID, RoundIndex: r, Name: round.Name}
		if round.Resting != nil {
			id := round.Resting.ID
			rounds[r].RestingID = &id
		}
		for _, m := range round.Matches {
			matches = append(matches, toMatchRow(c.ID, m))
		}
	}

	if _, err := tx.NamedExecContext(ctx, insertRoundsQuery, rounds); err != nil {
		return fmt.Errorf("failed to insert rounds of category %q: %w", c.Title, err)
	}
	if len(matches) > 0 {
		if _, err := tx.NamedExecContext(ctx, insertMatchesQuery, matches); err != nil {
			return fmt.Errorf("failed to insert matches of category %q: %w", c.Title, err)
		}
	}
	return nil
}

func toMatchRow(categoryID uuid.UUID, m bracket.Match) matchRow {
	row := matchRow{
		ID:           m.ID,
		CategoryID:   categoryID,
		RoundIndex:   m.RoundIndex,
		MatchOrder:   m.Order,
		Player1State: m.Player1.State,
		Player2State: m.Player2.State,
		Winner:       m.Winner,
		Score1:       m.Score1,
		Score2:       m.Score2,
		Forfeit:      m.Forfeit,
		Label:        m.Label,
		FightNumber:  m.FightNumber,
	}
	if m.Player1.Filled() {
		id := m.Player1.Participant.ID
		row.Player1ID = &id
	}
	if m.Player2.Filled() {
		id := m.Player2.Participant.ID
		row.Player2ID = &id
	}
	if m.Next != nil {
		row.NextRound, row.NextOrder, row.NextSide = &m.Next.Round, &m.Next.Order, &m.Next.Side
	}
	if m.Loser != nil {
		row.LoserRound, row.LoserOrder, row.LoserSide = &m.Loser.Round, &m.Loser.Order, &m.Loser.Side
	}
	return row
}

func loadCategory(ctx context.Context, q sqlx.QueryerContext, row categoryRow) (bracket.Category, error) {
	c := bracket.Category{
		CategoryDefinition: row.CategoryDefinition,
		TournamentID:       row.TournamentID,
		Participants:       []bracket.Participant{},
		Built:              row.Built,
		BronzeMatch:        row.BronzeMatch,
		Status:             row.Status,
		Tatami:             row.Tatami,
		NextFightNumber:    row.NextFightNumber,
	}

	var participants []participantRow
	if err := sqlx.SelectContext(ctx, q, &participants, "SELECT * FROM category_participants WHERE category_id = ? ORDER BY seed ASC", c.ID); err != nil {
		return c, fmt.Errorf("failed to load participants of category %q: %w", c.Title, err)
	}
	byID := make(map[uuid.UUID]bracket.Participant, len(participants))
	for _, p := range participants {
		c.Participants = append(c.Participants, p.Participant)
		byID[p.ID] = p.Participant
	}

	slot := func(state bracket.SlotState, id *uuid.UUID) (bracket.Slot, error) {
		if state != bracket.SlotFilled {
			return bracket.Slot{State: state}, nil
		}
		if id == nil {
			return bracket.Slot{}, fmt.Errorf("category %q has a filled slot without a participant", c.Title)
		}
		p, ok := byID[*id]
		if !ok {
			return bracket.Slot{}, fmt.Errorf("category %q references unknown participant %s", c.Title, id)
		}
		return bracket.FilledSlot(p), nil
	}

	var rounds []roundRow
	if err := sqlx.SelectContext(ctx, q, &rounds, "SELECT * FROM category_rounds WHERE category_id = ? ORDER BY round_index ASC", c.ID); err != nil {
		return c, fmt.Errorf("failed to load rounds of category %q: %w", c.Title, err)
	}
	if c.Built {
		c.Rounds = make([]bracket.MatchRound, len(rounds))
	}
	for _, r := range rounds {
		if r.RoundIndex < 0 || r.RoundIndex >= len(c.Rounds) {
			return c, fmt.Errorf("category %q has round %d out of range", c.Title, r.RoundIndex)
		}
		round := bracket.MatchRound{Name: r.Name, Matches: []bracket.Match{}}
		if r.RestingID != nil {
			if p, ok := byID[*r.RestingID]; ok {
				round.Resting = &p
			}
		}
		c.Rounds[r.RoundIndex] = round
	}

	var matches []matchRow
	if err := sqlx.SelectContext(ctx, q, &matches, "SELECT * FROM matches WHERE category_id = ? ORDER BY round_index ASC, match_order ASC", c.ID); err != nil {
		return c, fmt.Errorf("failed to load matches of category %q: %w", c.Title, err)
	}
	for _, row := range matches {
		if row.RoundIndex < 0 || row.RoundIndex >= len(c.Rounds) {
			return c, fmt.Errorf("match %s of category %q has no round", row.ID, c.Title)
		}
		p1, err := slot(row.Player1State, row.Player1ID)
		if err != nil {
			return c, err
		}
		p2, err := slot(row.Player2State, row.Player2ID)
		if err != nil {
			return c, err
		}

		m := bracket.Match{
			ID:          row.ID,
			RoundIndex:  row.RoundIndex,
			Order:       row.MatchOrder,
			Player1:     p1,
			Player2:     p2,
			Winner:      row.Winner,
			Score1:      row.Score1,
			Score2:      row.Score2,
			Forfeit:     row.Forfeit,
			Label:       row.Label,
			FightNumber: row.FightNumber,
		}
		if row.NextRound != nil && row.NextOrder != nil && row.NextSide != nil {
			m.Next = &bracket.MatchRef{Round: *row.NextRound, Order: *row.NextOrder, Side: *row.NextSide}
		}
		if row.LoserRound != nil && row.LoserOrder != nil && row.LoserSide != nil {
			m.Loser = &bracket.MatchRef{Round: *row.LoserRound, Order: *row.LoserOrder, Side: *row.LoserSide}
		}
		c.Rounds[row.RoundIndex].Matches = append(c.Rounds[row.RoundIndex].Matches, m)
	}

	if c.Completed() {
		podium, err := bracket.Podium(c)
		if err != nil {
			return c, err
		}
		c.Podium = podium
	}
	return c, nil
}
