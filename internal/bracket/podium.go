package bracket

import "fmt"

// Podium returns the final placements of a completed category. It only reads the
// category, so calling it again on the same snapshot gives the same answer.
func Podium(cat Category) ([]Placement, error) {
	if !cat.Completed() {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotComplete, cat.Title)
	}
	return computePodium(&cat), nil
}

func computePodium(c *Category) []Placement {
	if len(c.Rounds) == 0 {
		if len(c.Participants) == 1 {
			return []Placement{{Place: 1, Participant: c.Participants[0]}}
		}
		return nil
	}

	if c.BracketType == RoundRobin {
		var podium []Placement
		for _, s := range computeStandings(c) {
			if s.Place > 3 {
				break
			}
			podium = append(podium, Placement{Place: s.Place, Participant: s.Participant})
		}
		return podium
	}

	final, bronze := c.eliminationFinals()
	if final == nil {
		return nil
	}
	var podium []Placement
	if w, ok := final.WinnerParticipant(); ok {
		podium = append(podium, Placement{Place: 1, Participant: w})
	}
	if l, ok := final.LoserParticipant(); ok {
		podium = append(podium, Placement{Place: 2, Participant: l})
	}

	if bronze != nil && bronze.Decided() {
		if w, ok := bronze.WinnerParticipant(); ok {
			podium = append(podium, Placement{Place: 3, Participant: w})
		}
		return podium
	}

	// Without a bronze match both semifinal losers share third
	if len(c.Rounds) >= 2 {
		for _, semi := range c.Rounds[len(c.Rounds)-2].Matches {
			if l, ok := semi.LoserParticipant(); ok {
				podium = append(podium, Placement{Place: 3, Participant: l})
			}
		}
	}
	return podium
}
