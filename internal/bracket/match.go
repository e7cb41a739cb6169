package bracket

import (
	"github.com/google/uuid"
)

type SlotState string

const (
	// SlotEmpty waits for the winner (or loser) of a feeder match.
	SlotEmpty SlotState = "empty"
	// SlotBye will never receive an opponent.
	SlotBye    SlotState = "bye"
	SlotFilled SlotState = "filled"
)

// Slot is one side of a match. The participant is only meaningful when State is SlotFilled.
type Slot struct {
	State       SlotState   `json:"state"`
	Participant Participant `json:"participant"`
}

func EmptySlot() Slot {
	return Slot{State: SlotEmpty}
}

func ByeSlot() Slot {
	return Slot{State: SlotBye}
}

func FilledSlot(p Participant) Slot {
	return Slot{State: SlotFilled, Participant: p}
}

func (s Slot) Filled() bool {
	return s.State == SlotFilled
}

type Side int

const (
	SideNone Side = 0
	Side1    Side = 1
	Side2    Side = 2
)

func (s Side) Other() Side {
	switch s {
	case Side1:
		return Side2
	case Side2:
		return Side1
	}
	return SideNone
}

// MatchRef addresses one slot of a match in the same category by position, so that
// references can never dangle outside the category's own match set.
type MatchRef struct {
	Round int  `json:"round"`
	Order int  `json:"order"`
	Side  Side `json:"side"`
}

type MatchState string

const (
	MatchWaiting  MatchState = "waiting"
	MatchBye      MatchState = "bye"
	MatchPlayable MatchState = "playable"
	MatchDecided  MatchState = "decided"
)

type Match struct {
	ID uuid.UUID `json:"id"`

	// Position in the category, both zero based
	RoundIndex int `json:"roundIndex"`
	Order      int `json:"order"`

	Player1 Slot `json:"player1"`
	Player2 Slot `json:"player2"`

	Winner  Side `json:"winner"`
	Score1  int  `json:"score1"`
	Score2  int  `json:"score2"`
	Forfeit bool `json:"forfeit"`

	// Next receives the winner, nil for the final and for round robin matches.
	Next *MatchRef `json:"next,omitempty"`
	// Loser receives the loser, only set on semifinals feeding a bronze match.
	Loser *MatchRef `json:"loser,omitempty"`

	Label       string `json:"label"`
	FightNumber int    `json:"fightNumber,omitempty"`
}

func (m *Match) Slot(side Side) *Slot {
	switch side {
	case Side1:
		return &m.Player1
	case Side2:
		return &m.Player2
	}
	return nil
}

func (m *Match) IsBye() bool {
	return m.Player1.State == SlotBye || m.Player2.State == SlotBye
}

func (m *Match) State() MatchState {
	switch {
	case m.IsBye():
		return MatchBye
	case m.Winner != SideNone:
		return MatchDecided
	case m.Player1.Filled() && m.Player2.Filled():
		return MatchPlayable
	}
	return MatchWaiting
}

// Decided reports whether the match has a winner, either reported or by bye.
func (m *Match) Decided() bool {
	return m.Winner != SideNone
}

// SideOf returns the side the participant plays on, or SideNone.
func (m *Match) SideOf(participantID uuid.UUID) Side {
	if m.Player1.Filled() && m.Player1.Participant.ID == participantID {
		return Side1
	}
	if m.Player2.Filled() && m.Player2.Participant.ID == participantID {
		return Side2
	}
	return SideNone
}

func (m *Match) WinnerParticipant() (Participant, bool) {
	if m.Winner == SideNone {
		return Participant{}, false
	}
	s := m.Slot(m.Winner)
	if !s.Filled() {
		return Participant{}, false
	}
	return s.Participant, true
}

func (m *Match) LoserParticipant() (Participant, bool) {
	if m.Winner == SideNone {
		return Participant{}, false
	}
	s := m.Slot(m.Winner.Other())
	if !s.Filled() {
		return Participant{}, false
	}
	return s.Participant, true
}

type MatchRound struct {
	Name    string  `json:"roundName"`
	Matches []Match `json:"matches"`
	// Resting sits out this round of an odd sized round robin.
	Resting *Participant `json:"resting,omitempty"`
}
