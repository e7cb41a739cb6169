package bracket

import "errors"

var (
	ErrValidation               = errors.New("validation failed")
	ErrInsufficientParticipants = errors.New("category has no participants")
	ErrUnknownMatch             = errors.New("match not found in category")
	ErrMatchAlreadyDecided      = errors.New("match is already decided")
	ErrInvalidWinner            = errors.New("winner is not part of this match")
	ErrCategoryAlreadyComplete  = errors.New("category is already complete")
	ErrInvalidTournamentState   = errors.New("operation not allowed in current tournament state")

	ErrAlreadyBuilt         = errors.New("category bracket is already built")
	ErrNotBuilt             = errors.New("category bracket is not built")
	ErrCategoryNotComplete  = errors.New("category is not complete")
	ErrCategoriesIncomplete = errors.New("tournament has categories that are not complete")
	ErrMatchNotDecided      = errors.New("match has no result to retract")
	ErrByeMatch             = errors.New("bye matches have no result to retract")
)
