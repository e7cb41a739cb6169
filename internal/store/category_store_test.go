package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategory(t *testing.T, tournamentID uuid.UUID, title string, n int, bracketType bracket.BracketType) bracket.Category {
	t.Helper()
	c := bracket.NewCategory(tournamentID, bracket.CategoryDefinition{
		Title:       title,
		Gender:      bracket.Female,
		MinAge:      16,
		MaxAge:      21,
		MinWeight:   48.5,
		MaxWeight:   55,
		BracketType: bracketType,
	})
	born := time.Date(2006, 3, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		athlete := uuid.New()
		c.Participants = append(c.Participants, bracket.Participant{
			ID:                uuid.New(),
			Name:              fmt.Sprintf("Athlete %d", i+1),
			Club:              "Kyokushin Dojo",
			Coach:             utils.StringOrNil("Coach Sato"),
			Weight:            50 + float64(i)/2,
			Age:               18,
			BirthDate:         &born,
			Gender:            bracket.Female,
			Rank:              utils.Ptr("2 kyu"),
			OriginalAthleteID: &athlete,
		})
	}
	return c
}

func saveCategories(t *testing.T, database *sqlx.DB, categories ...bracket.Category) {
	t.Helper()
	tx, err := database.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, NewCategoryStore(database).CreateCategories(context.Background(), tx, categories))
	require.NoError(t, tx.Commit())
}

// normalize strips the monotonic clock reading so snapshots compare by value
func normalize(c bracket.Category) bracket.Category {
	for i := range c.Participants {
		if c.Participants[i].BirthDate != nil {
			d := c.Participants[i].BirthDate.UTC()
			c.Participants[i].BirthDate = &d
		}
	}
	for r := range c.Rounds {
		for m := range c.Rounds[r].Matches {
			for _, s := range []*bracket.Slot{&c.Rounds[r].Matches[m].Player1, &c.Rounds[r].Matches[m].Player2} {
				if s.Participant.BirthDate != nil {
					d := s.Participant.BirthDate.UTC()
					s.Participant.BirthDate = &d
				}
			}
		}
		if rest := c.Rounds[r].Resting; rest != nil && rest.BirthDate != nil {
			d := rest.BirthDate.UTC()
			rest.BirthDate = &d
		}
	}
	for i := range c.Podium {
		if c.Podium[i].Participant.BirthDate != nil {
			d := c.Podium[i].Participant.BirthDate.UTC()
			c.Podium[i].Participant.BirthDate = &d
		}
	}
	return c
}

func TestCategoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tournament := newTournament()
	insertTournament(t, db, tournament)

	pending := newCategory(t, tournament.ID, "Girls -55kg", 3, bracket.SingleElimination)

	withBronze, err := bracket.Build(newCategory(t, tournament.ID, "Women -52kg", 6, bracket.SingleElimination), bracket.BuildOptions{BronzeMatch: true})
	require.NoError(t, err)
	first := bracket.Playable(withBronze)[0]
	withBronze, err = bracket.ReportResult(withBronze, first.ID, bracket.Result{Winner: first.Player2.Participant.ID, Score1: 1, Score2: 3})
	require.NoError(t, err)
	withBronze.Tatami = utils.Ptr(2)

	roundRobin, err := bracket.Build(newCategory(t, tournament.ID, "Women -48kg", 5, bracket.RoundRobin), bracket.BuildOptions{})
	require.NoError(t, err)

	single, err := bracket.Build(newCategory(t, tournament.ID, "Women +70kg", 1, bracket.SingleElimination), bracket.BuildOptions{})
	require.NoError(t, err)

	saveCategories(t, db, pending, withBronze, roundRobin, single)

	store := NewCategoryStore(db)
	for _, want := range []bracket.Category{pending, withBronze, roundRobin, single} {
		t.Run(want.Title, func(t *testing.T) {
			got, err := store.GetCategory(context.Background(), want.ID)
			require.NoError(t, err)
			assert.Equal(t, normalize(want), normalize(*got))
		})
	}

	all, err := store.GetCategoriesByTournament(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"Girls -55kg", "Women -52kg", "Women -48kg", "Women +70kg"},
		[]string{all[0].Title, all[1].Title, all[2].Title, all[3].Title})

	tournamentID, err := store.GetTournamentID(context.Background(), roundRobin.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, tournamentID)

	_, err = store.GetCategory(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReplaceCategory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	tournament := newTournament()
	insertTournament(t, db, tournament)

	c := newCategory(t, tournament.ID, "Women -52kg", 4, bracket.SingleElimination)
	saveCategories(t, db, c)

	store := NewCategoryStore(db)
	built, err := bracket.Build(c, bracket.BuildOptions{})
	require.NoError(t, err)
	for !built.Completed() {
		m := bracket.Playable(built)[0]
		built, err = bracket.ReportResult(built, m.ID, bracket.Result{Winner: m.Player1.Participant.ID, Score1: 2})
		require.NoError(t, err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceCategory(ctx, tx, &built))
	require.NoError(t, store.UpdateTatamiTx(ctx, tx, built.ID, utils.Ptr(1)))
	require.NoError(t, tx.Commit())

	got, err := store.GetCategory(ctx, built.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed())
	assert.Equal(t, built.Podium[0].Participant.ID, got.Podium[0].Participant.ID)
	assert.Len(t, got.Podium, 4)
	require.NotNil(t, got.Tatami)
	assert.Equal(t, 1, *got.Tatami)

	built.Tatami = utils.Ptr(1)
	assert.Equal(t, normalize(built), normalize(*got))

	// Replacing something never stored is an error, not a silent insert
	missing := newCategory(t, tournament.ID, "Ghost", 2, bracket.SingleElimination)
	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	assert.Error(t, store.ReplaceCategory(ctx, tx, &missing))
}
