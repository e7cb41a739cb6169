package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentPlanned         TournamentStatus = "PLANNED"
	TournamentPendingApproval TournamentStatus = "PENDING_APPROVAL"
	TournamentLive            TournamentStatus = "LIVE"
	TournamentCompleted       TournamentStatus = "COMPLETED"
)

type BracketType string

const (
	SingleElimination BracketType = "SINGLE_ELIMINATION"
	RoundRobin        BracketType = "ROUND_ROBIN"
)

func (b BracketType) Valid() bool {
	return b == SingleElimination || b == RoundRobin
}

type Tournament struct {
	ID                        uuid.UUID        `db:"id" json:"id"`
	OwnerID                   uuid.UUID        `db:"owner_id" json:"ownerId"`
	Name                      string           `db:"name" json:"name"`
	Location                  string           `db:"location" json:"location"`
	Description               string           `db:"description" json:"description"`
	StartDate                 time.Time        `db:"start_date" json:"date"`
	EndDate                   time.Time        `db:"end_date" json:"endDate"`
	Status                    TournamentStatus `db:"status" json:"status"`
	BracketType               BracketType      `db:"bracket_type" json:"bracketType"`
	TatamiCount               int              `db:"tatami_count" json:"tatamiCount"`
	MaxParticipantsPerBracket *int             `db:"max_participants_per_bracket" json:"maxParticipantsPerBracket,omitempty"`
	CreatedAt                 time.Time        `db:"created_at" json:"createdAt"`
}

// Transition is the audit record of a tournament status change.
type Transition struct {
	TournamentID uuid.UUID        `db:"tournament_id" json:"tournamentId"`
	From         TournamentStatus `db:"from_status" json:"from"`
	To           TournamentStatus `db:"to_status" json:"to"`
	Override     bool             `db:"override" json:"override"`
	Reason       string           `db:"reason" json:"reason,omitempty"`
	At           time.Time        `db:"at" json:"at"`
}
