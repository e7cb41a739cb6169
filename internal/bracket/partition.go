package bracket

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type PartitionResult struct {
	Categories []Category
	// Unassigned participants matched no definition; the caller decides what to do with them.
	Unassigned []Participant
}

func ValidateDefinition(def CategoryDefinition) error {
	if strings.TrimSpace(def.Title) == "" {
		return fmt.Errorf("%w: category title is required", ErrValidation)
	}
	if !def.Gender.Valid() {
		return fmt.Errorf("%w: category %q has invalid gender %q", ErrValidation, def.Title, def.Gender)
	}
	if def.MinAge > def.MaxAge {
		return fmt.Errorf("%w: category %q min age %d is above max age %d", ErrValidation, def.Title, def.MinAge, def.MaxAge)
	}
	if def.MinWeight > def.MaxWeight {
		return fmt.Errorf("%w: category %q min weight %.1f is above max weight %.1f", ErrValidation, def.Title, def.MinWeight, def.MaxWeight)
	}
	if def.BracketType != "" && !def.BracketType.Valid() {
		return fmt.Errorf("%w: category %q has unknown bracket type %q", ErrValidation, def.Title, def.BracketType)
	}
	return nil
}

// ValidateRoster rejects participants without an id and ids used twice. Matches tell
// the two sides apart by participant id, so a duplicate would credit the wrong athlete.
func ValidateRoster(roster []Participant) error {
	seen := make(map[uuid.UUID]string, len(roster))
	for _, p := range roster {
		if p.ID == uuid.Nil {
			return fmt.Errorf("%w: participant %q has no id", ErrValidation, p.Name)
		}
		if other, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: participants %q and %q share id %s", ErrValidation, other, p.Name, p.ID)
		}
		seen[p.ID] = p.Name
	}
	return nil
}

// Partition places every participant into each category whose bounds admit them.
// Categories are allowed to overlap: a participant admitted by two definitions appears in
// both, on purpose. Roster order is kept inside each category and becomes the seed order.
// Categories without their own bracket type take defaultType.
func Partition(tournamentID uuid.UUID, roster []Participant, defs []CategoryDefinition, defaultType BracketType) (*PartitionResult, error) {
	for _, def := range defs {
		if err := ValidateDefinition(def); err != nil {
			return nil, err
		}
	}
	if err := ValidateRoster(roster); err != nil {
		return nil, err
	}

	categories := make([]Category, len(defs))
	for i, def := range defs {
		if def.BracketType == "" {
			def.BracketType = defaultType
		}
		categories[i] = NewCategory(tournamentID, def)
	}

	var unassigned []Participant
	for _, p := range roster {
		placed := false
		for i := range categories {
			if categories[i].Admits(p) {
				categories[i].Participants = append(categories[i].Participants, p)
				placed = true
			}
		}
		if !placed {
			unassigned = append(unassigned, p)
		}
	}

	return &PartitionResult{Categories: categories, Unassigned: unassigned}, nil
}

// Overlaps lists pairs of definitions that can admit the same participant. It is only a
// hint for organisers, overlapping categories are legal.
func Overlaps(defs []CategoryDefinition) [][2]string {
	var out [][2]string
	for i := 0; i < len(defs); i++ {
		for j := i + 1; j < len(defs); j++ {
			a, b := defs[i], defs[j]
			if a.Gender != b.Gender {
				continue
			}
			if a.MinAge > b.MaxAge || b.MinAge > a.MaxAge {
				continue
			}
			if a.MinWeight > b.MaxWeight || b.MinWeight > a.MaxWeight {
				continue
			}
			out = append(out, [2]string{a.Title, b.Title})
		}
	}
	return out
}
