package bracket

import (
	"fmt"
	"strings"
	"time"
)

var allowedTransitions = map[TournamentStatus]TournamentStatus{
	TournamentPlanned:         TournamentPendingApproval,
	TournamentPendingApproval: TournamentLive,
	TournamentLive:            TournamentCompleted,
}

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentPlanned, TournamentPendingApproval, TournamentLive, TournamentCompleted:
		return true
	}
	return false
}

// RequireLive guards every category level operation: brackets are only built and results
// only reported while the tournament is live.
func RequireLive(t Tournament) error {
	if t.Status != TournamentLive {
		return fmt.Errorf("%w: tournament %q is %s, not %s", ErrInvalidTournamentState, t.Name, t.Status, TournamentLive)
	}
	return nil
}

// Advance moves the tournament one step forward. Completing needs every category completed.
func Advance(t Tournament, to TournamentStatus, categories []Category, now time.Time) (Tournament, Transition, error) {
	next, ok := allowedTransitions[t.Status]
	if !ok || next != to {
		return Tournament{}, Transition{}, fmt.Errorf("%w: cannot move tournament %q from %s to %s", ErrInvalidTournamentState, t.Name, t.Status, to)
	}

	if to == TournamentCompleted {
		open := 0
		for _, c := range categories {
			if !c.Completed() {
				open++
			}
		}
		if open > 0 {
			return Tournament{}, Transition{}, fmt.Errorf("%w: %d of %d still running", ErrCategoriesIncomplete, open, len(categories))
		}
	}

	tr := Transition{TournamentID: t.ID, From: t.Status, To: to, At: now}
	t.Status = to
	return t, tr, nil
}

// ForceComplete closes a live tournament regardless of its categories. The transition is
// flagged as an override and must be kept apart from normal ones.
func ForceComplete(t Tournament, reason string, now time.Time) (Tournament, Transition, error) {
	if t.Status != TournamentLive {
		return Tournament{}, Transition{}, fmt.Errorf("%w: only a live tournament can be force closed, %q is %s", ErrInvalidTournamentState, t.Name, t.Status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Tournament{}, Transition{}, fmt.Errorf("%w: override reason is required", ErrValidation)
	}

	tr := Transition{TournamentID: t.ID, From: t.Status, To: TournamentCompleted, Override: true, Reason: reason, At: now}
	t.Status = TournamentCompleted
	return t, tr, nil
}
