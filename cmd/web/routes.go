package main

import (
	"net/http"

	"github.com/8Gelos8/tournament-manager-online/internal/config"
	"github.com/8Gelos8/tournament-manager-online/internal/live"
	"github.com/8Gelos8/tournament-manager-online/internal/middleware"
	"github.com/8Gelos8/tournament-manager-online/internal/schedule"
	"github.com/8Gelos8/tournament-manager-online/internal/service"
	"github.com/8Gelos8/tournament-manager-online/internal/storage"
	"github.com/8Gelos8/tournament-manager-online/internal/store"
	users "github.com/8Gelos8/tournament-manager-online/internal/user"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type application struct {
	sessions    *scs.SessionManager
	userStore   *store.UserStore
	categoryIDs *store.CategoryStore

	tournaments *service.TournamentService
	categories  *service.CategoryService
	matches     *service.MatchService
	users       *service.UserService

	hub      *live.Hub
	uploader storage.FileUploader

	fights         schedule.FightSettings
	defaultTatamis int
	providers      []string
}

func newRouter(app *application, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(app.sessions.LoadAndSave)

	limiter := middleware.NewRateLimiter(cfg.WriteRateLimit, 0)

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	r.Get("/login", app.loginPage)
	r.Get("/auth/{provider}", app.beginAuth)
	r.Get("/auth/{provider}/callback", app.completeAuth)
	r.Post("/auth/guest", app.guestLogin)
	r.Post("/logout", app.logout)

	byTournament := middleware.TournamentFromURL("id")
	byCategory := middleware.TournamentFromCategory("categoryID", app.categoryIDs.GetTournamentID)
	anyRole := func(idFunc middleware.TournamentIDFunc) func(http.Handler) http.Handler {
		return middleware.RequireTournamentRole(app.users, idFunc)
	}
	admin := func(idFunc middleware.TournamentIDFunc) func(http.Handler) http.Handler {
		return middleware.RequireTournamentRole(app.users, idFunc, users.RoleTournamentAdmin)
	}
	judge := middleware.RequireTournamentRole(app.users, byCategory, users.RoleTournamentAdmin, users.RoleJudge)

	// HTML pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(app.sessions, app.userStore))

		r.Get("/", app.indexPage)
		r.With(anyRole(byTournament)).Get("/tournaments/{id}", app.tournamentPage)
		r.With(anyRole(byTournament)).Get("/tournaments/{id}/categories/{categoryID}", app.bracketPage)
	})

	r.With(middleware.RequireAPIAuth(app.sessions, app.userStore), anyRole(byTournament)).
		Get("/ws/tournaments/{id}", app.serveLive)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAPIAuth(app.sessions, app.userStore))

		r.Get("/me", app.me)
		r.Get("/tournaments", app.listTournaments)
		r.With(limiter.Limit).Post("/tournaments", app.createTournament)
		r.With(limiter.Limit).Post("/clubs/logo", app.uploadLogo)

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(anyRole(byTournament))
				r.Get("/", app.getTournament)
				r.Get("/transitions", app.getTransitions)
				r.Get("/categories", app.listCategories)
				r.Get("/participants", app.searchParticipants)
				r.Get("/tatamis/{tatami}/queue", app.fightQueue)
			})

			r.Group(func(r chi.Router) {
				r.Use(admin(byTournament))
				r.Get("/roles", app.listRoles)
				r.Group(func(r chi.Router) {
					r.Use(limiter.Limit)
					r.Post("/status", app.advanceStatus)
					r.Post("/force-complete", app.forceComplete)
					r.Post("/categories", app.partitionRoster)
					r.Post("/build", app.buildAll)
					r.Post("/tatamis", app.assignTatamis)
					r.Post("/roles", app.grantRole)
				})
			})
		})

		r.Route("/categories/{categoryID}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(anyRole(byCategory))
				r.Get("/", app.getCategory)
				r.Get("/standings", app.standings)
				r.Get("/podium", app.podium)
				r.Get("/timetable", app.timetable)
				r.Get("/playable", app.playable)
			})

			r.With(admin(byCategory), limiter.Limit).Post("/build", app.buildCategory)

			r.Group(func(r chi.Router) {
				r.Use(judge, limiter.Limit)
				r.Post("/matches/{matchID}/result", app.reportResult)
				r.Post("/matches/{matchID}/retract", app.retract)
			})
		})
	})

	return r
}
