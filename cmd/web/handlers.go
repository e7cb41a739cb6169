package main

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/8Gelos8/tournament-manager-online/internal/httputil"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	"github.com/8Gelos8/tournament-manager-online/internal/service"
	"github.com/8Gelos8/tournament-manager-online/internal/storage"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/8Gelos8/tournament-manager-online/views"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

func urlID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

// Auth

func (app *application) loginPage(w http.ResponseWriter, r *http.Request) {
	views.Render(w, r, views.LoginPage(app.providers))
}

func (app *application) beginAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothic.BeginAuthHandler(w, r)
}

func (app *application) completeAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := app.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := app.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessions.Put(r.Context(), middleware.SessionUserIDKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureGuestUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessions.Put(r.Context(), middleware.SessionUserIDKey, user.ID.String())
	http.Redirect(w, r, "/", http.StatusFound)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessions.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to log out", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (app *application) me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetAuthenticatedUser(r.Context())
	if user == nil {
		httputil.Unauthorized(w, "login required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HTML pages

func (app *application) indexPage(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournaments", err)
		return
	}
	views.Render(w, r, views.Index(tournaments))
}

func (app *application) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	tournament, err := app.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		httputil.EngineError(w, "Failed to get tournament", err)
		return
	}
	categories, err := app.categories.GetCategories(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get categories", err)
		return
	}
	views.Render(w, r, views.TournamentPage(*tournament, categories))
}

func (app *application) bracketPage(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	categoryID, err := urlID(r, "categoryID")
	if err != nil {
		httputil.BadRequest(w, "Invalid category ID", err)
		return
	}

	tournament, err := app.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		httputil.EngineError(w, "Failed to get tournament", err)
		return
	}
	category, err := app.categories.GetCategory(r.Context(), categoryID)
	if err != nil {
		httputil.EngineError(w, "Failed to get category", err)
		return
	}
	if category.TournamentID != tournament.ID {
		httputil.NotFound(w, "Category not found", nil)
		return
	}
	views.Render(w, r, views.BracketPage(*tournament, *category))
}

func (app *application) serveLive(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httputil.BadRequest(w, "Invalid tournament ID", err)
		return
	}
	app.hub.ServeTournament(w, r, id)
}

// Tournaments

func (app *application) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.GetTournamentsForUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to get tournaments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var in service.CreateTournamentInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}
	if in.TatamiCount == 0 {
		in.TatamiCount = app.defaultTatamis
	}

	tournament, err := app.tournaments.CreateTournament(r.Context(), in)
	if err != nil {
		httputil.EngineError(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tournament)
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	tournament, err := app.tournaments.GetTournament(r.Context(), id)
	if err != nil {
		httputil.EngineError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (app *application) getTransitions(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	transitions, err := app.tournaments.GetTransitions(r.Context(), id)
	if err != nil {
		httputil.EngineError(w, "Failed to get transitions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, transitions)
}

func (app *application) advanceStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	var body struct {
		Status bracket.TournamentStatus `json:"status"`
	}
	if err := httputil.DecodeJSON(w, r, &body); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}
	if !body.Status.Valid() {
		httputil.BadRequest(w, "Unknown status "+strconv.Quote(string(body.Status)), nil)
		return
	}

	tournament, err := app.tournaments.AdvanceStatus(r.Context(), id, body.Status)
	if err != nil {
		httputil.EngineError(w, "Failed to change tournament status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (app *application) forceComplete(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	var body struct {
		Reason string `json:"reason"`
	}
	if err := httputil.DecodeJSON(w, r, &body); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}

	tournament, err := app.tournaments.ForceComplete(r.Context(), id, body.Reason)
	if err != nil {
		httputil.EngineError(w, "Failed to force complete tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (app *application) assignTatamis(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	var body struct {
		Count int `json:"count"`
	}
	if err := httputil.DecodeJSON(w, r, &body); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}

	assignments, err := app.tournaments.AssignTatamis(r.Context(), id, body.Count)
	if err != nil {
		httputil.EngineError(w, "Failed to assign tatamis", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assignments)
}

func (app *application) fightQueue(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	tatami, err := strconv.Atoi(chi.URLParam(r, "tatami"))
	if err != nil {
		httputil.BadRequest(w, "Invalid tatami", err)
		return
	}

	queue, err := app.tournaments.FightQueue(r.Context(), id, tatami)
	if err != nil {
		httputil.EngineError(w, "Failed to get fight queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, queue)
}

func (app *application) listRoles(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	grants, err := app.users.Roles(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get roles", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grants)
}

func (app *application) grantRole(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	var grant users.RoleGrant
	if err := httputil.DecodeJSON(w, r, &grant); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}
	grant.TournamentID = id

	if err := app.users.GrantRole(r.Context(), grant); err != nil {
		httputil.EngineError(w, "Failed to grant role", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grant)
}

// Categories

func (app *application) listCategories(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	categories, err := app.categories.GetCategories(r.Context(), id)
	if err != nil {
		httputil.InternalServerError(w, "Failed to get categories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

func (app *application) partitionRoster(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	var in service.PartitionInput
	if err := httputil.DecodeJSON(w, r, &in); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}

	outcome, err := app.categories.PartitionRoster(r.Context(), id, in)
	if err != nil {
		httputil.EngineError(w, "Failed to partition roster", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, outcome)
}

// decodeBuildRequest accepts an empty body as the default options.
func decodeBuildRequest(w http.ResponseWriter, r *http.Request) (service.BuildRequest, error) {
	var req service.BuildRequest
	if r.ContentLength == 0 {
		return req, nil
	}
	err := httputil.DecodeJSON(w, r, &req)
	return req, err
}

func (app *application) buildAll(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	req, err := decodeBuildRequest(w, r)
	if err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}

	built, err := app.categories.BuildAll(r.Context(), id, req)
	if err != nil {
		httputil.EngineError(w, "Failed to build categories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, built)
}

func (app *application) buildCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	req, err := decodeBuildRequest(w, r)
	if err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}

	built, err := app.categories.Build(r.Context(), categoryID, req)
	if err != nil {
		httputil.EngineError(w, "Failed to build category", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, built)
}

func (app *application) getCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	category, err := app.categories.GetCategory(r.Context(), categoryID)
	if err != nil {
		httputil.EngineError(w, "Failed to get category", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, category)
}

func (app *application) standings(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	standings, err := app.categories.Standings(r.Context(), categoryID)
	if err != nil {
		httputil.EngineError(w, "Failed to get standings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, standings)
}

func (app *application) podium(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	podium, err := app.categories.Podium(r.Context(), categoryID)
	if err != nil {
		httputil.EngineError(w, "Failed to get podium", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, podium)
}

func (app *application) timetable(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	settings := app.fights
	for param, target := range map[string]*time.Duration{"duration": &settings.DefaultDuration, "rest": &settings.RestPeriod} {
		if v := r.URL.Query().Get(param); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				httputil.BadRequest(w, "Invalid "+param, err)
				return
			}
			*target = d
		}
	}

	fights, err := app.categories.Timetable(r.Context(), categoryID, settings)
	if err != nil {
		httputil.EngineError(w, "Failed to get timetable", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fights)
}

func (app *application) searchParticipants(w http.ResponseWriter, r *http.Request) {
	id, _ := urlID(r, "id")
	hits, err := app.categories.SearchParticipants(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		httputil.InternalServerError(w, "Failed to search participants", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hits)
}

// Matches

func (app *application) playable(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	matches, err := app.matches.Playable(r.Context(), categoryID)
	if err != nil {
		httputil.EngineError(w, "Failed to get playable matches", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, matches)
}

func (app *application) reportResult(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	matchID, err := urlID(r, "matchID")
	if err != nil {
		httputil.BadRequest(w, "Invalid match ID", err)
		return
	}
	var res bracket.Result
	if err := httputil.DecodeJSON(w, r, &res); err != nil {
		httputil.EngineError(w, "Invalid request", err)
		return
	}

	category, err := app.matches.ReportResult(r.Context(), categoryID, matchID, res)
	if err != nil {
		httputil.EngineError(w, "Failed to report result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, category)
}

func (app *application) retract(w http.ResponseWriter, r *http.Request) {
	categoryID, _ := urlID(r, "categoryID")
	matchID, err := urlID(r, "matchID")
	if err != nil {
		httputil.BadRequest(w, "Invalid match ID", err)
		return
	}

	category, err := app.matches.Retract(r.Context(), categoryID, matchID)
	if err != nil {
		httputil.EngineError(w, "Failed to retract result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, category)
}

// Club logos

func (app *application) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if app.uploader == nil {
		http.Error(w, "logo uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxLogoSize+(64<<10))
	if err := r.ParseMultipartForm(storage.MaxLogoSize); err != nil {
		httputil.BadRequest(w, "Invalid upload", err)
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		httputil.BadRequest(w, "Missing logo file", err)
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		httputil.InternalServerError(w, "Failed to read logo", err)
		return
	}
	head = head[:n]

	key, contentType, err := storage.LogoKey(head, header.Size)
	if err != nil {
		httputil.EngineError(w, "Invalid logo", err)
		return
	}

	result, err := app.uploader.Upload(r.Context(), key, contentType, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		httputil.InternalServerError(w, "Failed to upload logo", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}
