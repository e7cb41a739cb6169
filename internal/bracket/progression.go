package bracket

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type Result struct {
	Winner  uuid.UUID `json:"winnerId"`
	Score1  int       `json:"score1"`
	Score2  int       `json:"score2"`
	Forfeit bool      `json:"forfeit"`
}

// ReportResult records the winner of a playable match and returns the new snapshot.
// In single elimination the winner moves into the slot the match feeds (and the loser into
// the bronze match, when there is one). The category completes, and gets its podium, when
// its last match is decided. Results are final once reported; use Retract to correct one.
//
// The snapshot passed in is never touched, so a failed call changes nothing.
func ReportResult(cat Category, matchID uuid.UUID, res Result) (Category, error) {
	if !cat.Built {
		return Category{}, fmt.Errorf("%w: %q", ErrNotBuilt, cat.Title)
	}
	if cat.Completed() {
		return Category{}, fmt.Errorf("%w: %q", ErrCategoryAlreadyComplete, cat.Title)
	}

	out := cat.Clone()
	m, ok := out.FindMatch(matchID)
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrUnknownMatch, matchID)
	}

	switch m.State() {
	case MatchBye, MatchDecided:
		return Category{}, fmt.Errorf("%w: %s", ErrMatchAlreadyDecided, matchID)
	case MatchWaiting:
		return Category{}, fmt.Errorf("%w: match %s is still waiting for its players", ErrInvalidWinner, matchID)
	}

	side := m.SideOf(res.Winner)
	if side == SideNone {
		return Category{}, fmt.Errorf("%w: %s does not play in match %s", ErrInvalidWinner, res.Winner, matchID)
	}

	m.Winner = side
	m.Score1 = res.Score1
	m.Score2 = res.Score2
	m.Forfeit = res.Forfeit

	winner, _ := m.WinnerParticipant()
	loser, _ := m.LoserParticipant()
	if m.Next != nil {
		if err := out.place(*m.Next, winner); err != nil {
			return Category{}, err
		}
	}
	if m.Loser != nil {
		if err := out.place(*m.Loser, loser); err != nil {
			return Category{}, err
		}
	}

	out.assignFightNumbers()

	if out.finished() {
		out.Status = CategoryCompleted
		out.Podium = computePodium(&out)
	}

	return out, nil
}

// Retract clears the result of a decided match together with every downstream result
// that depended on it. Completed categories are final and cannot be retracted.
// Fight numbers already handed out are kept.
func Retract(cat Category, matchID uuid.UUID) (Category, error) {
	if !cat.Built {
		return Category{}, fmt.Errorf("%w: %q", ErrNotBuilt, cat.Title)
	}
	if cat.Completed() {
		return Category{}, fmt.Errorf("%w: %q", ErrCategoryAlreadyComplete, cat.Title)
	}

	out := cat.Clone()
	m, ok := out.FindMatch(matchID)
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrUnknownMatch, matchID)
	}
	if m.IsBye() {
		return Category{}, fmt.Errorf("%w: %s", ErrByeMatch, matchID)
	}
	if !m.Decided() {
		return Category{}, fmt.Errorf("%w: %s", ErrMatchNotDecided, matchID)
	}

	out.retract(m)
	return out, nil
}

// Playable lists the matches that can be fought right now, in fight order.
func Playable(cat Category) []Match {
	var out []Match
	for _, m := range cat.AllMatches() {
		if m.State() == MatchPlayable {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FightNumber < out[j].FightNumber
	})
	return out
}

// place fills the slot a match feeds. The slot must still be empty, anything else means
// the bracket was corrupted outside the engine.
func (c *Category) place(ref MatchRef, p Participant) error {
	target := c.Match(ref)
	if target == nil {
		return fmt.Errorf("%w: feed points at missing match round %d order %d", ErrUnknownMatch, ref.Round, ref.Order)
	}
	slot := target.Slot(ref.Side)
	if slot == nil || slot.State != SlotEmpty {
		return fmt.Errorf("%w: slot %d of match %s is not empty", ErrMatchAlreadyDecided, ref.Side, target.ID)
	}
	*slot = FilledSlot(p)
	return nil
}

func (c *Category) retract(m *Match) {
	if m.Next != nil {
		c.clearSlot(*m.Next)
	}
	if m.Loser != nil {
		c.clearSlot(*m.Loser)
	}
	m.Winner = SideNone
	m.Score1 = 0
	m.Score2 = 0
	m.Forfeit = false
}

func (c *Category) clearSlot(ref MatchRef) {
	target := c.Match(ref)
	if target == nil {
		return
	}
	if target.Decided() && !target.IsBye() {
		c.retract(target)
	}
	if s := target.Slot(ref.Side); s != nil {
		*s = EmptySlot()
	}
}

func (c *Category) finished() bool {
	if len(c.Rounds) == 0 {
		return len(c.Participants) == 1
	}
	switch c.BracketType {
	case SingleElimination:
		final, bronze := c.eliminationFinals()
		if final == nil || !final.Decided() {
			return false
		}
		return bronze == nil || bronze.Decided()
	default:
		for _, m := range c.AllMatches() {
			if !m.Decided() {
				return false
			}
		}
		return true
	}
}

// eliminationFinals finds the final and, when the category has one, the bronze match.
// The bronze match is whatever the semifinal loser feeds point at.
func (c *Category) eliminationFinals() (final, bronze *Match) {
	if len(c.Rounds) == 0 {
		return nil, nil
	}
	bronzeOrder := -1
	if len(c.Rounds) >= 2 {
		for _, m := range c.Rounds[len(c.Rounds)-2].Matches {
			if m.Loser != nil {
				bronzeOrder = m.Loser.Order
				break
			}
		}
	}
	last := c.Rounds[len(c.Rounds)-1].Matches
	for i := range last {
		if i == bronzeOrder {
			bronze = &last[i]
		} else if final == nil {
			final = &last[i]
		}
	}
	return final, bronze
}
