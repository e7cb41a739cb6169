package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/google/uuid"
)

type FightSettings struct {
	DefaultDuration time.Duration `json:"defaultDuration"`
	RestPeriod      time.Duration `json:"restPeriod"`
}

type Assignment struct {
	CategoryID     uuid.UUID `json:"categoryId"`
	Tatami         int       `json:"tatami"`
	ExpectedFights int       `json:"expectedFights"`
}

type ScheduledFight struct {
	MatchID     uuid.UUID          `json:"matchId"`
	FightNumber int                `json:"fightNumber"`
	Label       string             `json:"label"`
	State       bracket.MatchState `json:"state"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
}

type QueuedFight struct {
	CategoryID    uuid.UUID     `json:"categoryId"`
	CategoryTitle string        `json:"categoryTitle"`
	Match         bracket.Match `json:"match"`
}

// ExpectedFights counts the fights a category will need once built, byes excluded.
func ExpectedFights(c bracket.Category) int {
	n := len(c.Participants)
	if n < 2 {
		return 0
	}
	if c.BracketType == bracket.RoundRobin {
		return n * (n - 1) / 2
	}
	fights := n - 1
	if c.BronzeMatch && n >= 4 {
		fights++
	}
	return fights
}

// AssignTatamis spreads categories over tatamis 1..tatamiCount, biggest categories first,
// each going to the least loaded tatami. Input order is the tie break between categories.
func AssignTatamis(categories []bracket.Category, tatamiCount int) ([]Assignment, error) {
	if tatamiCount < 1 {
		return nil, fmt.Errorf("%w: tatami count must be at least 1, got %d", bracket.ErrValidation, tatamiCount)
	}

	order := make([]int, len(categories))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ExpectedFights(categories[order[a]]) > ExpectedFights(categories[order[b]])
	})

	load := make([]int, tatamiCount)
	assignments := make([]Assignment, len(categories))
	for _, idx := range order {
		target := 0
		for t := 1; t < tatamiCount; t++ {
			if load[t] < load[target] {
				target = t
			}
		}
		fights := ExpectedFights(categories[idx])
		load[target] += fights
		assignments[idx] = Assignment{
			CategoryID:     categories[idx].ID,
			Tatami:         target + 1,
			ExpectedFights: fights,
		}
	}
	return assignments, nil
}

// Timetable estimates when each numbered fight of a category starts, fights running back
// to back on one tatami from start.
func Timetable(c bracket.Category, start time.Time, settings FightSettings) ([]ScheduledFight, error) {
	if settings.DefaultDuration <= 0 {
		return nil, fmt.Errorf("%w: fight duration must be positive", bracket.ErrValidation)
	}
	if settings.RestPeriod < 0 {
		return nil, fmt.Errorf("%w: rest period cannot be negative", bracket.ErrValidation)
	}
	if !c.Built {
		return nil, fmt.Errorf("%w: %q", bracket.ErrNotBuilt, c.Title)
	}

	var numbered []*bracket.Match
	for _, m := range c.AllMatches() {
		if m.FightNumber > 0 {
			numbered = append(numbered, m)
		}
	}
	sort.Slice(numbered, func(i, j int) bool {
		return numbered[i].FightNumber < numbered[j].FightNumber
	})

	slot := settings.DefaultDuration + settings.RestPeriod
	fights := make([]ScheduledFight, 0, len(numbered))
	for i, m := range numbered {
		begin := start.Add(time.Duration(i) * slot)
		fights = append(fights, ScheduledFight{
			MatchID:     m.ID,
			FightNumber: m.FightNumber,
			Label:       m.Label,
			State:       m.State(),
			Start:       begin,
			End:         begin.Add(settings.DefaultDuration),
		})
	}
	return fights, nil
}

// FightQueue lists what can be fought on a tatami right now. Categories are called in the
// order given, each in its own fight number order.
func FightQueue(categories []bracket.Category, tatami int) []QueuedFight {
	var queue []QueuedFight
	for _, c := range categories {
		if c.Tatami == nil || *c.Tatami != tatami || c.Completed() {
			continue
		}
		for _, m := range bracket.Playable(c) {
			queue = append(queue, QueuedFight{
				CategoryID:    c.ID,
				CategoryTitle: c.Title,
				Match:         m,
			})
		}
	}
	return queue
}
