package service

import (
	"sync"
	"testing"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/live"
	"github.com/8Gelos8/tournament-manager-online/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportResultFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := guestContext()
	tournament := env.createTournament(t, ctx, nil)
	env.goLive(t, ctx, tournament.ID)
	categories := env.partition(t, ctx, tournament.ID)
	menID := categories["Men -70kg"].ID

	_, err := env.categories.Build(ctx, menID, BuildRequest{BronzeMatch: utils.Ptr(true)})
	require.NoError(t, err)

	completed := env.playOut(t, ctx, menID)
	require.Len(t, completed.Podium, 3)
	for i, place := range completed.Podium {
		assert.Equal(t, i+1, place.Place)
	}

	podium, err := env.categories.Podium(ctx, menID)
	require.NoError(t, err)
	assert.Equal(t, completed.Podium, podium)

	// One message for the build, one per reported fight
	fights := 0
	for _, m := range completed.AllMatches() {
		if m.State() == bracket.MatchDecided {
			fights++
		}
	}
	assert.Equal(t, fights+1, env.notifier.count(live.MessageCategoryUpdated))

	_, err = env.matches.ReportResult(ctx, menID, completed.Rounds[0].Matches[0].ID, bracket.Result{})
	assert.ErrorIs(t, err, bracket.ErrCategoryAlreadyComplete)
}

func TestReportResultErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := guestContext()
	tournament := env.createTournament(t, ctx, nil)
	env.goLive(t, ctx, tournament.ID)
	categories := env.partition(t, ctx, tournament.ID)
	heavyID := categories["Men +70kg"].ID

	_, err := env.matches.ReportResult(ctx, heavyID, uuid.New(), bracket.Result{})
	assert.ErrorIs(t, err, bracket.ErrNotBuilt)

	_, err = env.categories.Build(ctx, heavyID, BuildRequest{})
	require.NoError(t, err)
	playable, err := env.matches.Playable(ctx, heavyID)
	require.NoError(t, err)
	require.Len(t, playable, 1)
	final := playable[0]

	_, err = env.matches.ReportResult(ctx, heavyID, uuid.New(), bracket.Result{Winner: final.Player1.Participant.ID})
	assert.ErrorIs(t, err, bracket.ErrUnknownMatch)

	_, err = env.matches.ReportResult(ctx, heavyID, final.ID, bracket.Result{Winner: uuid.New()})
	assert.ErrorIs(t, err, bracket.ErrInvalidWinner)

	_, err = env.matches.ReportResult(ctx, heavyID, final.ID, bracket.Result{Winner: final.Player1.Participant.ID, Score1: -1})
	assert.ErrorIs(t, err, bracket.ErrValidation)

	// Failed reports leave the stored bracket alone
	stored, err := env.categories.GetCategory(ctx, heavyID)
	require.NoError(t, err)
	m, ok := stored.FindMatch(final.ID)
	require.True(t, ok)
	assert.Equal(t, bracket.MatchPlayable, m.State())

	_, err = env.tournaments.ForceComplete(ctx, tournament.ID, "power cut")
	require.NoError(t, err)
	_, err = env.matches.ReportResult(ctx, heavyID, final.ID, bracket.Result{Winner: final.Player2.Participant.ID, Score2: 2})
	assert.ErrorIs(t, err, bracket.ErrInvalidTournamentState)
}

func TestRetract(t *testing.T) {
	env := newTestEnv(t)
	ctx := guestContext()
	tournament := env.createTournament(t, ctx, nil)
	env.goLive(t, ctx, tournament.ID)
	categories := env.partition(t, ctx, tournament.ID)
	menID := categories["Men -70kg"].ID

	built, err := env.categories.Build(ctx, menID, BuildRequest{})
	require.NoError(t, err)

	playable, err := env.matches.Playable(ctx, menID)
	require.NoError(t, err)
	require.NotEmpty(t, playable)
	first := playable[0]

	_, err = env.matches.Retract(ctx, menID, first.ID)
	assert.ErrorIs(t, err, bracket.ErrMatchNotDecided)

	for _, m := range built.Rounds[0].Matches {
		if m.IsBye() {
			_, err = env.matches.Retract(ctx, menID, m.ID)
			assert.ErrorIs(t, err, bracket.ErrByeMatch)
			break
		}
	}

	_, err = env.matches.ReportResult(ctx, menID, first.ID, bracket.Result{Winner: first.Player2.Participant.ID, Score2: 5})
	require.NoError(t, err)

	retracted, err := env.matches.Retract(ctx, menID, first.ID)
	require.NoError(t, err)
	m, ok := retracted.FindMatch(first.ID)
	require.True(t, ok)
	assert.Equal(t, bracket.MatchPlayable, m.State())
	assert.Equal(t, first.FightNumber, m.FightNumber, "fight numbers survive a retraction")

	if first.Next != nil {
		next := retracted.Match(*first.Next)
		require.NotNil(t, next)
		assert.False(t, next.Slot(first.Next.Side).Filled(), "the winner is taken back out of the next match")
	}

	_, err = env.matches.Retract(ctx, menID, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrUnknownMatch)
}

func TestConcurrentReportsOnOneMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := guestContext()
	tournament := env.createTournament(t, ctx, nil)
	env.goLive(t, ctx, tournament.ID)
	categories := env.partition(t, ctx, tournament.ID)
	menID := categories["Men -70kg"].ID

	_, err := env.categories.Build(ctx, menID, BuildRequest{})
	require.NoError(t, err)
	playable, err := env.matches.Playable(ctx, menID)
	require.NoError(t, err)
	require.NotEmpty(t, playable)
	target := playable[0]

	winners := []uuid.UUID{target.Player1.Participant.ID, target.Player2.Participant.ID}
	errs := make([]error, len(winners))
	var wg sync.WaitGroup
	for i, winner := range winners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.matches.ReportResult(ctx, menID, target.ID, bracket.Result{Winner: winner, Score1: 1, Score2: 1})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, bracket.ErrMatchAlreadyDecided)
	}
	assert.Equal(t, 1, succeeded)

	stored, err := env.categories.GetCategory(ctx, menID)
	require.NoError(t, err)
	m, ok := stored.FindMatch(target.ID)
	require.True(t, ok)
	assert.Equal(t, bracket.MatchDecided, m.State())
}

func TestConcurrentReportsAcrossCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := guestContext()
	tournament := env.createTournament(t, ctx, nil)
	env.goLive(t, ctx, tournament.ID)
	categories := env.partition(t, ctx, tournament.ID)

	_, err := env.categories.BuildAll(ctx, tournament.ID, BuildRequest{})
	require.NoError(t, err)

	errs := make(chan error, len(categories))
	var wg sync.WaitGroup
	for _, c := range categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- playToEnd(env, c.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_, err = env.tournaments.AdvanceStatus(ctx, tournament.ID, bracket.TournamentCompleted)
	assert.NoError(t, err)
}

func playToEnd(env *testEnv, categoryID uuid.UUID) error {
	ctx := guestContext()
	for {
		playable, err := env.matches.Playable(ctx, categoryID)
		if err != nil || len(playable) == 0 {
			return err
		}
		m := playable[0]
		if _, err := env.matches.ReportResult(ctx, categoryID, m.ID, bracket.Result{Winner: m.Player2.Participant.ID, Score2: 2}); err != nil {
			return err
		}
	}
}
