package main

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/suntennis/tournament-site/internal/config"
	"github.com/suntennis/tournament-site/internal/live"
	"github.com/suntennis/tournament-site/internal/middleware"
	"github.com/suntennis/tournament-site/internal/service"
	"github.com/suntennis/tournament-site/internal/standings"
	"github.com/suntennis/tournament-site/internal/store"
)

type application struct {
	cfg       *config.Config
	sessions  *scs.SessionManager
	hub       *live.Hub
	policy    standings.Policy
	providers []string

	userStore   *store.UserStore
	users       *service.UserService
	tournaments *service.TournamentService
	generation  *service.GenerationService
	teams       *service.TeamService
	matches     *service.MatchService
}

func newApplication(cfg *config.Config, database *sqlx.DB, sessions *scs.SessionManager, hub *live.Hub, policy standings.Policy, providers []string) *application {
	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)

	return &application{
		cfg:         cfg,
		sessions:    sessions,
		hub:         hub,
		policy:      policy,
		providers:   providers,
		userStore:   userStore,
		users:       service.NewUserService(userStore, cfg.AdminEmails),
		tournaments: service.NewTournamentService(database, tournamentStore, cfg.BaseSlug, cfg.SiteName),
		generation:  service.NewGenerationService(database, tournamentStore),
		teams:       service.NewTeamService(tournamentStore),
		matches:     service.NewMatchService(database, tournamentStore),
	}
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Read-only JSON for other front ends; no session needed
	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: app.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/tournaments/{slug}", app.apiTournament)
	})

	r.Get("/ws/tournaments/{slug}", app.serveLive)

	r.Group(func(r chi.Router) {
		r.Use(app.sessions.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessions, app.userStore))

		r.Get("/", app.home)
		r.Get("/program", app.program)
		r.Get("/tournament", app.tournament)

		r.Get("/login", app.loginPage)
		r.Post("/login", app.login)
		r.Get("/register", app.registerPage)
		r.Post("/register", app.register)
		r.Post("/logout", app.logout)
		r.Get("/auth/{provider}", app.beginOAuth)
		r.Get("/auth/{provider}/callback", app.completeOAuth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/dashboard", app.dashboard)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/", app.adminConsole)
			r.Post("/settings", app.adminSaveSettings)
			r.Post("/teams", app.adminAddTeam)
			r.Post("/teams/{id}", app.adminRenameTeam)
			r.Post("/groups/slots", app.adminGenerateGroupSlots)
			r.Post("/groups/matches", app.adminGenerateGroupMatches)
			r.Post("/elimination/slots", app.adminGenerateEliminationSlots)
			r.Post("/elimination/matches", app.adminGenerateEliminationMatches)
			r.Post("/matches", app.adminAddMatch)
			r.Post("/matches/delete-all", app.adminDeleteAllMatches)
			r.Post("/matches/{id}", app.adminSaveMatch)
			r.Post("/matches/{id}/delete", app.adminDeleteMatch)
		})
	})

	return r
}
