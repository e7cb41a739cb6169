package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/db"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// Each new connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	err = db.RunMigrations(database.DB, "file://../../migrations")
	require.NoError(t, err, "Failed to apply migrations")

	return database
}

type published struct {
	tournamentID uuid.UUID
	messageType  string
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []published
}

func (n *recordingNotifier) Publish(tournamentID uuid.UUID, messageType string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, published{tournamentID: tournamentID, messageType: messageType})
}

func (n *recordingNotifier) count(messageType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, m := range n.messages {
		if m.messageType == messageType {
			total++
		}
	}
	return total
}

type testEnv struct {
	db          *sqlx.DB
	tournaments *TournamentService
	categories  *CategoryService
	matches     *MatchService
	users       *UserService
	notifier    *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	tournamentStore := store.NewTournamentStore(database)
	categoryStore := store.NewCategoryStore(database)
	userStore := store.NewUserStore(database)
	locks := NewCategoryLocks()
	notifier := &recordingNotifier{}

	return &testEnv{
		db:          database,
		tournaments: NewTournamentService(database, tournamentStore, categoryStore, locks, notifier),
		categories:  NewCategoryService(database, tournamentStore, categoryStore, locks, notifier, BuildRequest{Seeding: bracket.SeedingStandard}),
		matches:     NewMatchService(database, tournamentStore, categoryStore, locks, notifier),
		users:       NewUserService(database, userStore, tournamentStore),
		notifier:    notifier,
	}
}

func guestContext() context.Context {
	return middleware.WithUserID(context.Background(), users.GuestID)
}

var tournamentStart = time.Date(2026, 5, 16, 9, 0, 0, 0, time.UTC)

func (e *testEnv) createTournament(t *testing.T, ctx context.Context, maxPerBracket *int) *bracket.Tournament {
	t.Helper()
	tournament, err := e.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name:                      "Spring Cup",
		Location:                  "Osaka",
		StartDate:                 tournamentStart,
		TatamiCount:               2,
		MaxParticipantsPerBracket: maxPerBracket,
	})
	require.NoError(t, err)
	return tournament
}

func (e *testEnv) goLive(t *testing.T, ctx context.Context, id uuid.UUID) {
	t.Helper()
	_, err := e.tournaments.AdvanceStatus(ctx, id, bracket.TournamentPendingApproval)
	require.NoError(t, err)
	_, err = e.tournaments.AdvanceStatus(ctx, id, bracket.TournamentLive)
	require.NoError(t, err)
}

func athlete(name, club string, gender bracket.Gender, age int, weight float64) bracket.Participant {
	return bracket.Participant{Name: name, Club: club, Gender: gender, Age: age, Weight: weight}
}

func aikoBirthDate() *time.Time {
	d := time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

// sampleRoster gives five men under 70kg, two over, two women and one veteran no category admits.
func sampleRoster() []bracket.Participant {
	aiko := athlete("Aiko Tanaka", "Sakura Dojo", bracket.Female, 0, 55)
	aiko.BirthDate = aikoBirthDate()
	return []bracket.Participant{
		athlete("Kenji Sato", "Sakura Dojo", bracket.Male, 22, 62),
		athlete("Taro Suzuki", "Kanto Kai", bracket.Male, 24, 65),
		athlete("Hiro Ito", "Kanto Kai", bracket.Male, 19, 68),
		athlete("Sota Kato", "Osaka Budokan", bracket.Male, 30, 69.5),
		athlete("Ren Yamada", "Sakura Dojo", bracket.Male, 27, 70),
		athlete("Daichi Mori", "Osaka Budokan", bracket.Male, 25, 80),
		athlete("Yuto Abe", "Kanto Kai", bracket.Male, 21, 90),
		aiko,
		athlete("Yui Ogawa", "Kanto Kai", bracket.Female, 20, 58),
		athlete("Masao Kimura", "Osaka Budokan", bracket.Male, 52, 75),
	}
}

func sampleDefinitions() []bracket.CategoryDefinition {
	return []bracket.CategoryDefinition{
		{Title: "Men -70kg", Gender: bracket.Male, MinAge: 18, MaxAge: 35, MinWeight: 60, MaxWeight: 70},
		{Title: "Men +70kg", Gender: bracket.Male, MinAge: 18, MaxAge: 35, MinWeight: 70.1, MaxWeight: 120},
		{Title: "Women", Gender: bracket.Female, MinAge: 18, MaxAge: 35, MinWeight: 40, MaxWeight: 90},
		{Title: "Men Lightweight", Gender: bracket.Male, MinAge: 18, MaxAge: 35, MinWeight: 55, MaxWeight: 65, BracketType: bracket.RoundRobin},
	}
}

func (e *testEnv) partition(t *testing.T, ctx context.Context, tournamentID uuid.UUID) map[string]bracket.Category {
	t.Helper()
	outcome, err := e.categories.PartitionRoster(ctx, tournamentID, PartitionInput{
		Roster:      sampleRoster(),
		Definitions: sampleDefinitions(),
	})
	require.NoError(t, err)

	byTitle := make(map[string]bracket.Category, len(outcome.Categories))
	for _, c := range outcome.Categories {
		byTitle[c.Title] = c
	}
	return byTitle
}

// playOut reports the first playable match until the category completes, Player1 always winning.
func (e *testEnv) playOut(t *testing.T, ctx context.Context, categoryID uuid.UUID) *bracket.Category {
	t.Helper()
	for {
		playable, err := e.matches.Playable(ctx, categoryID)
		require.NoError(t, err)
		if len(playable) == 0 {
			break
		}
		m := playable[0]
		_, err = e.matches.ReportResult(ctx, categoryID, m.ID, bracket.Result{Winner: m.Player1.Participant.ID, Score1: 3, Score2: 1})
		require.NoError(t, err)
	}
	c, err := e.categories.GetCategory(ctx, categoryID)
	require.NoError(t, err)
	require.True(t, c.Completed())
	return c
}
