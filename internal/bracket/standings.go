package bracket

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type Standing struct {
	Participant  Participant `json:"participant"`
	Played       int         `json:"played"`
	Wins         int         `json:"wins"`
	Losses       int         `json:"losses"`
	ScoreFor     int         `json:"scoreFor"`
	ScoreAgainst int         `json:"scoreAgainst"`
	HeadToHead   int         `json:"headToHead"`
	Place        int         `json:"place"`
}

func (s Standing) ScoreDifference() int {
	return s.ScoreFor - s.ScoreAgainst
}

// Standings ranks a round robin category by wins. Participants level on wins are split by
// the wins they took from each other, then by score difference. Whoever is still level
// shares the place; nothing is broken arbitrarily.
func Standings(cat Category) ([]Standing, error) {
	if cat.BracketType != RoundRobin {
		return nil, fmt.Errorf("%w: standings are only kept for round robin categories", ErrValidation)
	}
	if !cat.Built {
		return nil, fmt.Errorf("%w: %q", ErrNotBuilt, cat.Title)
	}
	return computeStandings(&cat), nil
}

func computeStandings(c *Category) []Standing {
	rows := make([]Standing, len(c.Participants))
	index := make(map[uuid.UUID]int, len(c.Participants))
	for i, p := range c.Participants {
		rows[i] = Standing{Participant: p}
		index[p.ID] = i
	}

	decided := make([]*Match, 0)
	for _, m := range c.AllMatches() {
		if m.State() != MatchDecided {
			continue
		}
		decided = append(decided, m)

		p1, p2 := index[m.Player1.Participant.ID], index[m.Player2.Participant.ID]
		rows[p1].Played++
		rows[p2].Played++
		rows[p1].ScoreFor += m.Score1
		rows[p1].ScoreAgainst += m.Score2
		rows[p2].ScoreFor += m.Score2
		rows[p2].ScoreAgainst += m.Score1
		if m.Winner == Side1 {
			rows[p1].Wins++
			rows[p2].Losses++
		} else {
			rows[p2].Wins++
			rows[p1].Losses++
		}
	}

	// Head to head only counts matches between participants level on wins
	for _, m := range decided {
		p1, p2 := index[m.Player1.Participant.ID], index[m.Player2.Participant.ID]
		if rows[p1].Wins != rows[p2].Wins {
			continue
		}
		if m.Winner == Side1 {
			rows[p1].HeadToHead++
		} else {
			rows[p2].HeadToHead++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return standingLess(rows[i], rows[j])
	})

	for i := range rows {
		if i > 0 && !standingLess(rows[i-1], rows[i]) {
			rows[i].Place = rows[i-1].Place
			continue
		}
		rows[i].Place = i + 1
	}
	return rows
}

// standingLess reports whether a ranks strictly above b.
func standingLess(a, b Standing) bool {
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	if a.HeadToHead != b.HeadToHead {
		return a.HeadToHead > b.HeadToHead
	}
	return a.ScoreDifference() > b.ScoreDifference()
}
