package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/live"
	"github.com/8Gelos8/tournament-manager-online/internal/schedule"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/sync/errgroup"
)

type CategoryService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	store       *store.CategoryStore
	locks       *CategoryLocks
	notifier    Notifier
	defaults    BuildRequest
	rng         func() *rand.Rand
}

func NewCategoryService(db *sqlx.DB, tournaments *store.TournamentStore, store *store.CategoryStore, locks *CategoryLocks, notifier Notifier, defaults BuildRequest) *CategoryService {
	return &CategoryService{
		db:          db,
		tournaments: tournaments,
		store:       store,
		locks:       locks,
		notifier:    orNop(notifier),
		defaults:    defaults,
		rng: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
}

// BuildRequest carries the bracket options of a build. Unset fields fall back to the
// service defaults.
type BuildRequest struct {
	Seeding     bracket.Seeding `json:"seeding,omitempty"`
	BronzeMatch *bool           `json:"bronzeMatch,omitempty"`
	// Shuffle randomises the seed order before building.
	Shuffle bool `json:"shuffle,omitempty"`
}

func (s *CategoryService) options(req BuildRequest) (bracket.BuildOptions, error) {
	opts := bracket.BuildOptions{Seeding: req.Seeding}
	if opts.Seeding == "" {
		opts.Seeding = s.defaults.Seeding
	}
	switch opts.Seeding {
	case "", bracket.SeedingStandard, bracket.SeedingSequential:
	default:
		return opts, fmt.Errorf("%w: unknown seeding %q", bracket.ErrValidation, opts.Seeding)
	}
	if req.BronzeMatch != nil {
		opts.BronzeMatch = *req.BronzeMatch
	} else if s.defaults.BronzeMatch != nil {
		opts.BronzeMatch = *s.defaults.BronzeMatch
	}
	return opts, nil
}

func (s *CategoryService) build(c bracket.Category, req BuildRequest, opts bracket.BuildOptions) (bracket.Category, error) {
	if req.Shuffle {
		shuffled, err := bracket.Shuffle(c, s.rng())
		if err != nil {
			return bracket.Category{}, err
		}
		c = shuffled
	}
	return bracket.Build(c, opts)
}

type PartitionInput struct {
	Roster []bracket.Participant `json:"roster"`
	// RosterCSV is appended to Roster, see ParseRoster for the format.
	RosterCSV   string                       `json:"rosterCsv,omitempty"`
	Definitions []bracket.CategoryDefinition `json:"categories"`
}

type PartitionOutcome struct {
	Categories []bracket.Category    `json:"categories"`
	Unassigned []bracket.Participant `json:"unassigned"`
	// Overlaps are pairs of category titles that can admit the same participant.
	Overlaps [][2]string `json:"overlaps,omitempty"`
	// Empty lists the titles of definitions no participant matched. They are not stored.
	Empty []string `json:"empty,omitempty"`
}

// PartitionRoster splits a roster into the given categories and stores the ones with
// participants, unbuilt. An empty category could never be built or completed.
func (s *CategoryService) PartitionRoster(ctx context.Context, tournamentID uuid.UUID, in PartitionInput) (*PartitionOutcome, error) {
	tournament, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == bracket.TournamentCompleted {
		return nil, fmt.Errorf("%w: tournament %q is completed", bracket.ErrInvalidTournamentState, tournament.Name)
	}
	if len(in.Definitions) == 0 {
		return nil, fmt.Errorf("%w: at least one category definition is required", bracket.ErrValidation)
	}

	entries := in.Roster
	if strings.TrimSpace(in.RosterCSV) != "" {
		parsed, err := ParseRoster(strings.NewReader(in.RosterCSV))
		if err != nil {
			return nil, err
		}
		entries = append(append([]bracket.Participant(nil), entries...), parsed...)
	}

	roster := make([]bracket.Participant, len(entries))
	for i, p := range entries {
		if roster[i], err = prepareParticipant(p, tournament.StartDate); err != nil {
			return nil, err
		}
	}

	result, err := bracket.Partition(tournamentID, roster, in.Definitions, tournament.BracketType)
	if err != nil {
		return nil, err
	}

	if limit := tournament.MaxParticipantsPerBracket; limit != nil {
		for _, c := range result.Categories {
			if len(c.Participants) > *limit {
				return nil, fmt.Errorf("%w: category %q has %d participants, the limit is %d", bracket.ErrValidation, c.Title, len(c.Participants), *limit)
			}
		}
	}

	var categories []bracket.Category
	var empty []string
	for _, c := range result.Categories {
		if len(c.Participants) == 0 {
			empty = append(empty, c.Title)
			continue
		}
		categories = append(categories, c)
	}
	if categories == nil {
		categories = []bracket.Category{}
	}

	overlaps := bracket.Overlaps(in.Definitions)
	for _, pair := range overlaps {
		slog.Warn("Overlapping categories", "tournamentID", tournamentID, "first", pair[0], "second", pair[1])
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateCategories(ctx, tx, categories); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Roster partitioned", "tournamentID", tournamentID, "categories", len(categories), "empty", len(empty), "unassigned", len(result.Unassigned))
	s.notifier.Publish(tournamentID, live.MessageTournamentUpdated, categories)

	unassigned := result.Unassigned
	if unassigned == nil {
		unassigned = []bracket.Participant{}
	}
	return &PartitionOutcome{Categories: categories, Unassigned: unassigned, Overlaps: overlaps, Empty: empty}, nil
}

func prepareParticipant(p bracket.Participant, on time.Time) (bracket.Participant, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Club = strings.TrimSpace(p.Club)
	if p.Name == "" {
		return p, fmt.Errorf("%w: participant name is required", bracket.ErrValidation)
	}
	if !p.Gender.Valid() {
		return p, fmt.Errorf("%w: participant %q has invalid gender %q", bracket.ErrValidation, p.Name, p.Gender)
	}
	if p.Weight <= 0 {
		return p, fmt.Errorf("%w: participant %q has no weight", bracket.ErrValidation, p.Name)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.BirthDate != nil && p.Age == 0 {
		p.Age = ageOn(*p.BirthDate, on)
	}
	if p.Age <= 0 {
		return p, fmt.Errorf("%w: participant %q needs an age or a birth date", bracket.ErrValidation, p.Name)
	}
	return p, nil
}

// ageOn is the age in full years on the given day.
func ageOn(birth, on time.Time) int {
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}

// Build generates the bracket of one category of a live tournament.
func (s *CategoryService) Build(ctx context.Context, categoryID uuid.UUID, req BuildRequest) (*bracket.Category, error) {
	opts, err := s.options(req)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(categoryID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := s.store.GetCategoryTx(ctx, tx, categoryID)
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

	built, err := s.build(*current, req, opts)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceCategory(ctx, tx, &built); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Category built", "tournamentID", built.TournamentID, "categoryID", built.ID, "participants", len(built.Participants), "bracketType", built.BracketType)
	s.notifier.Publish(built.TournamentID, live.MessageCategoryUpdated, built)
	return &built, nil
}

// BuildAll builds every unbuilt category of a live tournament, one goroutine per category,
// and stores them together.
func (s *CategoryService) BuildAll(ctx context.Context, tournamentID uuid.UUID, req BuildRequest) ([]bracket.Category, error) {
	opts, err := s.options(req)
	if err != nil {
		return nil, err
	}

	tournament, err := s.tournaments.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := bracket.RequireLive(*tournament); err != nil {
		return nil, err
	}

	listed, err := s.store.GetCategoriesByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(listed))
	for i, c := range listed {
		ids[i] = c.ID
	}
	unlock := s.locks.LockAll(ids)
	defer unlock()

	// Reload under the locks, someone may have built a category in between
	categories, err := s.store.GetCategoriesByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	pending := pendingIn(categories, ids)
	if len(pending) == 0 {
		return []bracket.Category{}, nil
	}

	built := make([]bracket.Category, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.build(pending[i], req, opts)
			if err != nil {
				return fmt.Errorf("category %q: %w", pending[i].Title, err)
			}
			built[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The status may have moved on while the brackets were generated
	current, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := bracket.RequireLive(*current); err != nil {
		return nil, err
	}

	for i := range built {
		if err := s.store.ReplaceCategory(ctx, tx, &built[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Categories built", "tournamentID", tournamentID, "built", len(built))
	for _, c := range built {
		s.notifier.Publish(tournamentID, live.MessageCategoryUpdated, c)
	}
	return built, nil
}

// pendingIn keeps the unbuilt categories whose ids were locked. A category added after
// the locks were taken is left for the next call.
func pendingIn(categories []bracket.Category, ids []uuid.UUID) []bracket.Category {
	locked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		locked[id] = true
	}
	var pending []bracket.Category
	for _, c := range categories {
		if !c.Built && locked[c.ID] {
			pending = append(pending, c)
		}
	}
	return pending
}

func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*bracket.Category, error) {
	return s.store.GetCategory(ctx, id)
}

func (s *CategoryService) GetCategories(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Category, error) {
	return s.store.GetCategoriesByTournament(ctx, tournamentID)
}

func (s *CategoryService) Standings(ctx context.Context, id uuid.UUID) ([]bracket.Standing, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return bracket.Standings(*c)
}

func (s *CategoryService) Podium(ctx context.Context, id uuid.UUID) ([]bracket.Placement, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return bracket.Podium(*c)
}

// Timetable estimates the fights of a category from the start of the tournament.
func (s *CategoryService) Timetable(ctx context.Context, id uuid.UUID, settings schedule.FightSettings) ([]schedule.ScheduledFight, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament, err := s.tournaments.GetTournament(ctx, c.TournamentID)
	if err != nil {
		return nil, err
	}
	return schedule.Timetable(*c, tournament.StartDate, settings)
}

type ParticipantHit struct {
	Participant   bracket.Participant `json:"participant"`
	CategoryID    uuid.UUID           `json:"categoryId"`
	CategoryTitle string              `json:"categoryTitle"`
	Distance      int                 `json:"distance"`
}

// SearchParticipants fuzzy matches the query against participant names and clubs across
// every category of the tournament. Closest matches come first.
func (s *CategoryService) SearchParticipants(ctx context.Context, tournamentID uuid.UUID, query string) ([]ParticipantHit, error) {
	categories, err := s.store.GetCategoriesByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	var all []ParticipantHit
	for _, c := range categories {
		for _, p := range c.Participants {
			all = append(all, ParticipantHit{Participant: p, CategoryID: c.ID, CategoryTitle: c.Title})
		}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return all, nil
	}

	names := make([]string, len(all))
	clubs := make([]string, len(all))
	for i, h := range all {
		names[i] = h.Participant.Name
		clubs[i] = h.Participant.Club
	}

	best := map[int]int{}
	for _, ranks := range []fuzzy.Ranks{fuzzy.RankFindFold(query, names), fuzzy.RankFindFold(query, clubs)} {
		for _, r := range ranks {
			if d, ok := best[r.OriginalIndex]; !ok || r.Distance < d {
				best[r.OriginalIndex] = r.Distance
			}
		}
	}

	hits := make([]ParticipantHit, 0, len(best))
	for idx, distance := range best {
		h := all[idx]
		h.Distance = distance
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		if hits[i].Participant.Name != hits[j].Participant.Name {
			return hits[i].Participant.Name < hits[j].Participant.Name
		}
		return hits[i].CategoryTitle < hits[j].CategoryTitle
	})
	return hits, nil
}
