package bracket

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

type Seeding string

const (
	// SeedingStandard treats participant order as seed rank: 1 vs N, 2 vs N-1, and the two
	// top seeds can only meet in the final. Byes go to the top seeds.
	SeedingStandard Seeding = "standard"
	// SeedingSequential pairs 1v2, 3v4, ... and hands byes to the last participants.
	SeedingSequential Seeding = "sequential"
)

type BuildOptions struct {
	Seeding Seeding
	// BronzeMatch adds a third place match fed by the semifinal losers. Needs at least 4 participants.
	BronzeMatch bool
}

const (
	LabelFinal        = "Final"
	LabelSemifinal    = "Semifinal"
	LabelQuarterfinal = "Quarterfinal"
	LabelBronze       = "Bronze"
)

// Build generates the rounds of a category and returns the new snapshot. The given
// category is never modified.
func Build(cat Category, opts BuildOptions) (Category, error) {
	if cat.Built {
		return Category{}, fmt.Errorf("%w: %q", ErrAlreadyBuilt, cat.Title)
	}
	if len(cat.Participants) == 0 {
		return Category{}, fmt.Errorf("%w: %q", ErrInsufficientParticipants, cat.Title)
	}
	if !cat.BracketType.Valid() {
		return Category{}, fmt.Errorf("%w: category %q has unknown bracket type %q", ErrValidation, cat.Title, cat.BracketType)
	}
	if err := ValidateRoster(cat.Participants); err != nil {
		return Category{}, fmt.Errorf("category %q: %w", cat.Title, err)
	}
	if opts.Seeding == "" {
		opts.Seeding = SeedingStandard
	}

	out := cat.Clone()
	out.Built = true
	out.Rounds = []MatchRound{}
	if out.NextFightNumber < 1 {
		out.NextFightNumber = 1
	}

	// A lone participant wins without fighting
	if len(out.Participants) == 1 {
		out.Status = CategoryCompleted
		out.Podium = []Placement{{Place: 1, Participant: out.Participants[0]}}
		return out, nil
	}

	switch out.BracketType {
	case SingleElimination:
		out.BronzeMatch = opts.BronzeMatch && len(out.Participants) >= 4
		if err := buildSingleElimination(&out, opts.Seeding); err != nil {
			return Category{}, err
		}
	case RoundRobin:
		out.BronzeMatch = false
		buildRoundRobin(&out)
	}

	return out, nil
}

// Shuffle randomises the seed order of a category that has not been built yet.
func Shuffle(cat Category, rng *rand.Rand) (Category, error) {
	if cat.Built {
		return Category{}, fmt.Errorf("%w: %q", ErrAlreadyBuilt, cat.Title)
	}
	out := cat.Clone()
	rng.Shuffle(len(out.Participants), func(i, j int) {
		out.Participants[i], out.Participants[j] = out.Participants[j], out.Participants[i]
	})
	return out, nil
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// standardPairs returns the round 1 pairings as zero based seed indexes. Any index that
// is not below the participant count is a bye.
func standardPairs(bracketSize int) [][2]int {
	if bracketSize == 0 {
		return [][2]int{}
	}

	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}

	return pairs
}

func sequentialPairs(count, bracketSize int) [][2]int {
	pairs := make([][2]int, 0, bracketSize/2)
	fights := count - bracketSize/2
	for i := 0; i < fights; i++ {
		pairs = append(pairs, [2]int{2 * i, 2*i + 1})
	}
	for idx := 2 * fights; idx < count; idx++ {
		pairs = append(pairs, [2]int{idx, count})
	}
	return pairs
}

func roundLabel(matchesInRound int) string {
	switch matchesInRound {
	case 1:
		return LabelFinal
	case 2:
		return LabelSemifinal
	case 4:
		return LabelQuarterfinal
	}
	return fmt.Sprintf("Round of %d", matchesInRound*2)
}

func buildSingleElimination(c *Category, seeding Seeding) error {
	n := len(c.Participants)
	bracketSize := calcBracketSize(n)
	totalRounds := int(math.Log2(float64(bracketSize)))

	// With a bronze match the last round holds [bronze, final]
	finalOrder := 0
	if c.BronzeMatch {
		finalOrder = 1
	}

	c.Rounds = make([]MatchRound, totalRounds)
	for r := 0; r < totalRounds; r++ {
		matchesInRound := bracketSize >> (r + 1)
		label := roundLabel(matchesInRound)
		round := MatchRound{Name: label, Matches: make([]Match, 0, matchesInRound+1)}

		if r == totalRounds-1 && c.BronzeMatch {
			round.Matches = append(round.Matches, Match{
				ID:         uuid.New(),
				RoundIndex: r,
				Order:      0,
				Player1:    EmptySlot(),
				Player2:    EmptySlot(),
				Label:      LabelBronze,
			})
		}

		for i := 0; i < matchesInRound; i++ {
			m := Match{
				ID:         uuid.New(),
				RoundIndex: r,
				Order:      len(round.Matches),
				Player1:    EmptySlot(),
				Player2:    EmptySlot(),
				Label:      label,
			}

			if r < totalRounds-1 {
				next := MatchRef{Round: r + 1, Order: i / 2, Side: Side1}
				if i%2 != 0 {
					next.Side = Side2
				}
				if r == totalRounds-2 {
					next.Order = finalOrder
					if c.BronzeMatch {
						m.Loser = &MatchRef{Round: r + 1, Order: 0, Side: next.Side}
					}
				}
				m.Next = &next
			}

			round.Matches = append(round.Matches, m)
		}
		c.Rounds[r] = round
	}

	var pairs [][2]int
	switch seeding {
	case SeedingSequential:
		pairs = sequentialPairs(n, bracketSize)
	case SeedingStandard:
		pairs = standardPairs(bracketSize)
	default:
		return fmt.Errorf("%w: unknown seeding %q", ErrValidation, seeding)
	}

	first := c.Rounds[0].Matches
	for i, pair := range pairs {
		m := &first[i]
		m.Player1 = seedSlot(c.Participants, pair[0])
		m.Player2 = seedSlot(c.Participants, pair[1])

		// Byes are decided on the spot and their winner moves on
		if m.Player2.State == SlotBye {
			m.Winner = Side1
			if m.Next != nil {
				if err := c.place(*m.Next, m.Player1.Participant); err != nil {
					return err
				}
			}
		}
	}

	c.assignFightNumbers()
	return nil
}

func seedSlot(participants []Participant, idx int) Slot {
	if idx < len(participants) {
		return FilledSlot(participants[idx])
	}
	return ByeSlot()
}

// buildRoundRobin schedules every pair once with the circle method. An odd field gets a
// phantom entrant and whoever draws it rests for that round.
func buildRoundRobin(c *Category) {
	players := make([]int, len(c.Participants))
	for i := range players {
		players[i] = i
	}
	if len(players)%2 != 0 {
		players = append(players, -1)
	}

	n := len(players)
	numRounds := n - 1
	half := n / 2

	c.Rounds = make([]MatchRound, 0, numRounds)
	for r := 0; r < numRounds; r++ {
		round := MatchRound{Name: fmt.Sprintf("Round %d", r+1), Matches: make([]Match, 0, half)}
		for i := 0; i < half; i++ {
			a, b := players[i], players[n-1-i]
			if a < 0 || b < 0 {
				resting := c.Participants[max(a, b)]
				round.Resting = &resting
				continue
			}
			round.Matches = append(round.Matches, Match{
				ID:         uuid.New(),
				RoundIndex: r,
				Order:      len(round.Matches),
				Player1:    FilledSlot(c.Participants[a]),
				Player2:    FilledSlot(c.Participants[b]),
				Label:      round.Name,
			})
		}
		c.Rounds = append(c.Rounds, round)

		// Rotate players (keep the first one fixed)
		players = append([]int{players[0]}, append([]int{players[n-1]}, players[1:n-1]...)...)
	}

	c.assignFightNumbers()
}

// assignFightNumbers numbers every playable match that has no number yet, in bracket order.
func (c *Category) assignFightNumbers() {
	for _, m := range c.AllMatches() {
		if m.State() == MatchPlayable && m.FightNumber == 0 {
			m.FightNumber = c.NextFightNumber
			c.NextFightNumber++
		}
	}
}
