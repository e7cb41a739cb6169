package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// Participant is a snapshot of an athlete taken when they were placed into a category.
// Later edits to the athlete record never reach a participant already in a bracket.
type Participant struct {
	ID                uuid.UUID  `db:"participant_id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Club              string     `db:"club" json:"club"`
	Coach             *string    `db:"coach" json:"coach,omitempty"`
	ClubLogo          *string    `db:"club_logo" json:"clubLogo,omitempty"`
	Weight            float64    `db:"weight" json:"weight"`
	Age               int        `db:"age" json:"age"`
	BirthDate         *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	Gender            Gender     `db:"gender" json:"gender"`
	Rank              *string    `db:"rank" json:"rank,omitempty"`
	OriginalAthleteID *uuid.UUID `db:"original_athlete_id" json:"originalAthleteId,omitempty"`
}
