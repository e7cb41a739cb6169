package httputil

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func Conflict(w http.ResponseWriter, msg string) {
	slog.Warn("conflict", "message", msg)
	http.Error(w, msg, http.StatusConflict)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusUnauthorized)
}

func Forbidden(w http.ResponseWriter, msg string) {
	slog.Warn("forbidden", "message", msg)
	http.Error(w, msg, http.StatusForbidden)
}

func TooManyRequests(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusTooManyRequests)
}

// StatusFor maps domain errors onto HTTP status codes. Anything unknown is a 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, bracket.ErrValidation),
		errors.Is(err, bracket.ErrInsufficientParticipants),
		errors.Is(err, bracket.ErrInvalidWinner):
		return http.StatusBadRequest
	case errors.Is(err, bracket.ErrUnknownMatch),
		errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrMatchAlreadyDecided),
		errors.Is(err, bracket.ErrCategoryAlreadyComplete),
		errors.Is(err, bracket.ErrInvalidTournamentState),
		errors.Is(err, bracket.ErrAlreadyBuilt),
		errors.Is(err, bracket.ErrNotBuilt),
		errors.Is(err, bracket.ErrCategoryNotComplete),
		errors.Is(err, bracket.ErrCategoriesIncomplete),
		errors.Is(err, bracket.ErrMatchNotDecided),
		errors.Is(err, bracket.ErrByeMatch):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// EngineError answers a failed service call with the status its error maps to.
func EngineError(w http.ResponseWriter, msg string, err error) {
	switch StatusFor(err) {
	case http.StatusBadRequest:
		BadRequest(w, err.Error(), err)
	case http.StatusNotFound:
		if errors.Is(err, sql.ErrNoRows) {
			NotFound(w, "Not found", err)
		} else {
			NotFound(w, err.Error(), err)
		}
	case http.StatusConflict:
		Conflict(w, err.Error())
	default:
		InternalServerError(w, msg, err)
	}
}
