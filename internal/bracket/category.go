package bracket

import (
	"github.com/google/uuid"
)

type CategoryStatus string

const (
	CategoryPending   CategoryStatus = "PENDING"
	CategoryCompleted CategoryStatus = "COMPLETED"
)

// CategoryDefinition holds the eligibility bounds of a category. Bounds are inclusive.
type CategoryDefinition struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Gender      Gender      `db:"gender" json:"gender"`
	MinAge      int         `db:"min_age" json:"minAge"`
	MaxAge      int         `db:"max_age" json:"maxAge"`
	MinWeight   float64     `db:"min_weight" json:"minWeight"`
	MaxWeight   float64     `db:"max_weight" json:"maxWeight"`
	BracketType BracketType `db:"bracket_type" json:"bracketType,omitempty"`
}

func (d CategoryDefinition) Admits(p Participant) bool {
	return p.Gender == d.Gender &&
		d.MinAge <= p.Age && p.Age <= d.MaxAge &&
		d.MinWeight <= p.Weight && p.Weight <= d.MaxWeight
}

type Placement struct {
	Place       int         `json:"place"`
	Participant Participant `json:"participant"`
}

type Category struct {
	CategoryDefinition
	TournamentID uuid.UUID `json:"tournamentId"`

	// Order is seed order
	Participants []Participant `json:"participants"`

	Built       bool           `json:"built"`
	BronzeMatch bool           `json:"bronzeMatch"`
	Rounds      []MatchRound   `json:"rounds,omitempty"`
	Status      CategoryStatus `json:"status"`
	Podium      []Placement    `json:"podium,omitempty"`
	Tatami      *int           `json:"tatami,omitempty"`

	// NextFightNumber is handed to the next match that becomes playable.
	NextFightNumber int `json:"nextFightNumber"`
}

func NewCategory(tournamentID uuid.UUID, def CategoryDefinition) Category {
	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	return Category{
		CategoryDefinition: def,
		TournamentID:       tournamentID,
		Participants:       []Participant{},
		Status:             CategoryPending,
		NextFightNumber:    1,
	}
}

func (c *Category) Completed() bool {
	return c.Status == CategoryCompleted
}

// Match returns a pointer into the category's own rounds.
func (c *Category) Match(ref MatchRef) *Match {
	if ref.Round < 0 || ref.Round >= len(c.Rounds) {
		return nil
	}
	matches := c.Rounds[ref.Round].Matches
	if ref.Order < 0 || ref.Order >= len(matches) {
		return nil
	}
	return &matches[ref.Order]
}

func (c *Category) FindMatch(id uuid.UUID) (*Match, bool) {
	for r := range c.Rounds {
		for i := range c.Rounds[r].Matches {
			if c.Rounds[r].Matches[i].ID == id {
				return &c.Rounds[r].Matches[i], true
			}
		}
	}
	return nil, false
}

// AllMatches walks the rounds in order.
func (c *Category) AllMatches() []*Match {
	var out []*Match
	for r := range c.Rounds {
		for i := range c.Rounds[r].Matches {
			out = append(out, &c.Rounds[r].Matches[i])
		}
	}
	return out
}

// Clone deep copies everything the engine mutates, so a failed operation leaves the
// caller's snapshot untouched.
func (c Category) Clone() Category {
	out := c
	out.Participants = append([]Participant(nil), c.Participants...)
	if c.Podium != nil {
		out.Podium = append([]Placement(nil), c.Podium...)
	}
	if c.Tatami != nil {
		t := *c.Tatami
		out.Tatami = &t
	}
	if c.Rounds != nil {
		out.Rounds = make([]MatchRound, len(c.Rounds))
		for r, round := range c.Rounds {
			nr := MatchRound{Name: round.Name}
			if round.Resting != nil {
				p := *round.Resting
				nr.Resting = &p
			}
			nr.Matches = make([]Match, len(round.Matches))
			for i, m := range round.Matches {
				if m.Next != nil {
					next := *m.Next
					m.Next = &next
				}
				if m.Loser != nil {
					loser := *m.Loser
					m.Loser = &loser
				}
				nr.Matches[i] = m
			}
			out.Rounds[r] = nr
		}
	}
	return out
}
