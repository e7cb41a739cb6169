package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
)

const maxBodySize = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// DecodeJSON reads a JSON request body into v. Decoding problems wrap bracket.ErrValidation
// so they answer 400 through EngineError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body larger than %d bytes", bracket.ErrValidation, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", bracket.ErrValidation, err)
	}
	return nil
}
