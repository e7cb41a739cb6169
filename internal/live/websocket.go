package live

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// OriginChecker accepts requests without an Origin header, from the server's own host, or
// from one of the listed origins. A "*" entry does not widen it: sessions ride on cookies,
// so a wildcard would let any page subscribe as the logged in user.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     OriginChecker(allowedOrigins),
	}
}

// ServeTournament upgrades the request and subscribes the connection to the tournament's room.
func (h *Hub) ServeTournament(w http.ResponseWriter, r *http.Request, tournamentID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		slog.Warn("Failed to upgrade websocket", "tournamentID", tournamentID, "error", err)
		return
	}

	client := NewClient(h, conn, TournamentRoom(tournamentID))
	if !h.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
