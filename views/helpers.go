package views

import (
	"context"
	"fmt"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/a-h/templ"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

// SlotName is what a bracket cell shows for one side of a match.
func SlotName(s bracket.Slot) string {
	switch s.State {
	case bracket.SlotFilled:
		if s.Participant.Club != "" {
			return s.Participant.Name + " (" + s.Participant.Club + ")"
		}
		return s.Participant.Name
	case bracket.SlotBye:
		return "bye"
	}
	return "TBD"
}

func MatchClass(m bracket.Match) string {
	return "match match-" + string(m.State())
}

func SideClass(m bracket.Match, side bracket.Side) string {
	if m.Winner == side {
		return "slot winner"
	}
	return "slot"
}

func Score(m bracket.Match) string {
	if !m.Decided() || m.IsBye() {
		return ""
	}
	if m.Forfeit {
		return "forfeit"
	}
	return fmt.Sprintf("%d : %d", m.Score1, m.Score2)
}

func esc(s string) string {
	return templ.EscapeString(s)
}
