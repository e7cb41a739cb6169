package views

import (
	"sort"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
)

type RoundView struct {
	Name    string
	Matches []bracket.Match
	Resting *bracket.Participant
}

// BracketData is a category laid out for the bracket page. In single elimination the
// bronze match is pulled out of the last round so the tree only holds the path to the final.
type BracketData struct {
	Rounds      []RoundView
	Bronze      *bracket.Match
	RoundRobin  bool
	Standings   []bracket.Standing
	Podium      []bracket.Placement
	NextFight   *bracket.Match
	PlayedCount int
	TotalCount  int
}

func PrepareBracketData(c bracket.Category) BracketData {
	data := BracketData{
		RoundRobin: c.BracketType == bracket.RoundRobin,
		Podium:     c.Podium,
	}

	for _, round := range c.Rounds {
		rv := RoundView{Name: round.Name, Resting: round.Resting}
		for _, m := range round.Matches {
			if m.Label == bracket.LabelBronze {
				bronze := m
				data.Bronze = &bronze
				continue
			}
			rv.Matches = append(rv.Matches, m)
		}
		sort.Slice(rv.Matches, func(i, j int) bool {
			return rv.Matches[i].Order < rv.Matches[j].Order
		})
		data.Rounds = append(data.Rounds, rv)
	}

	for _, m := range c.AllMatches() {
		switch m.State() {
		case bracket.MatchBye:
			continue
		case bracket.MatchDecided:
			data.PlayedCount++
		}
		data.TotalCount++
	}

	if playable := bracket.Playable(c); len(playable) > 0 {
		data.NextFight = &playable[0]
	}

	if data.RoundRobin && c.Built {
		// Standings can only fail for unbuilt or elimination categories, both excluded above
		data.Standings, _ = bracket.Standings(c)
	}
	return data
}
