package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/httputil"
	"github.com/suntennis/tournament-site/internal/service"
	"github.com/suntennis/tournament-site/internal/standings"
	"github.com/suntennis/tournament-site/views"
)

const flashKey = "flash"

func (app *application) layout(r *http.Request, title, category string) views.Layout {
	return views.Layout{
		Title:      title,
		SiteName:   app.cfg.SiteName,
		Categories: app.cfg.Categories,
		Category:   category,
		Location:   app.cfg.Location,
		Notice:     app.sessions.PopString(r.Context(), flashKey),
	}
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	tournaments, err := app.tournaments.ListTournaments(r.Context(), app.cfg.Categories)
	if err != nil {
		httputil.FromError(w, "Failed to list tournaments", err)
		return
	}
	bySlug := make(map[string]*bracket.Tournament, len(tournaments))
	for i := range tournaments {
		bySlug[tournaments[i].Slug] = &tournaments[i]
	}

	entries := make([]views.CategoryEntry, 0, len(app.cfg.Categories))
	for _, category := range app.cfg.Categories {
		slug, err := app.tournaments.Slug(category)
		if err != nil {
			httputil.FromError(w, "Invalid category", err)
			return
		}
		entries = append(entries, views.CategoryEntry{Category: category, Tournament: bySlug[slug]})
	}

	views.Render(w, r, views.HomePage(views.HomeData{Layout: app.layout(r, "", ""), Entries: entries}))
}

func (app *application) program(w http.ResponseWriter, r *http.Request) {
	entries, err := app.tournaments.Program(r.Context(), app.cfg.Categories)
	if err != nil {
		httputil.FromError(w, "Failed to load the program", err)
		return
	}
	views.Render(w, r, views.ProgramPage(views.ProgramData{Layout: app.layout(r, "Program", ""), Entries: entries}))
}

func (app *application) tournament(w http.ResponseWriter, r *http.Request) {
	category := app.category(r)
	tournament, err := app.tournaments.FindTournament(r.Context(), category)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httputil.NotFound(w, "This tournament does not exist yet.", err)
			return
		}
		httputil.FromError(w, "Failed to get tournament", err)
		return
	}

	snapshot, err := app.tournaments.LoadSnapshot(r.Context(), tournament)
	if err != nil {
		httputil.FromError(w, "Failed to load tournament", err)
		return
	}

	data := views.NewTournamentData(app.layout(r, tournament.Name, category), snapshot, app.policy)
	views.Render(w, r, views.TournamentPage(data))
}

type groupJSON struct {
	Name      string          `json:"name"`
	Standings []standingJSON  `json:"standings"`
	Matches   []bracket.Match `json:"matches"`
}

type standingJSON struct {
	Rank   int          `json:"rank"`
	Team   bracket.Team `json:"team"`
	Label  string       `json:"label"`
	Wins   int          `json:"wins"`
	Played int          `json:"played"`
}

type roundJSON struct {
	Round   int             `json:"round"`
	Label   string          `json:"label"`
	Matches []bracket.Match `json:"matches"`
}

type tournamentJSON struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Teams      []bracket.Team      `json:"teams"`
	Matches    []bracket.Match     `json:"matches"`
	Groups     []groupJSON         `json:"groups,omitempty"`
	Rounds     []roundJSON         `json:"rounds,omitempty"`
}

func toStandingsJSON(list []standings.Standing) []standingJSON {
	out := make([]standingJSON, 0, len(list))
	for _, s := range list {
		out = append(out, standingJSON{Rank: s.Rank, Team: s.Team, Label: s.Team.Label(), Wins: s.Wins, Played: s.Played})
	}
	return out
}

func (app *application) apiTournament(w http.ResponseWriter, r *http.Request) {
	tournament, err := app.tournaments.FindBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.FromError(w, "Failed to get tournament", err)
		return
	}
	snapshot, err := app.tournaments.LoadSnapshot(r.Context(), tournament)
	if err != nil {
		httputil.FromError(w, "Failed to load tournament", err)
		return
	}

	body := tournamentJSON{
		Tournament: snapshot.Tournament,
		Teams:      snapshot.Teams,
		Matches:    snapshot.Matches,
	}
	for _, g := range views.PrepareGroupData(snapshot.Teams, snapshot.Matches, app.policy) {
		body.Groups = append(body.Groups, groupJSON{Name: g.Name, Standings: toStandingsJSON(g.Standings), Matches: g.Matches})
	}
	for _, round := range views.PrepareBracketData(snapshot.Matches) {
		body.Rounds = append(body.Rounds, roundJSON{Round: round.Round, Label: round.Label, Matches: round.Matches})
	}
	httputil.JSON(w, http.StatusOK, body)
}

func (app *application) serveLive(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, err := app.tournaments.FindBySlug(r.Context(), slug); err != nil {
		httputil.FromError(w, "Failed to get tournament", err)
		return
	}
	app.hub.ServeWs(w, r, slug)
}

// category reads ?cat= (or the form field of the same name), defaulting to
// the first configured category.
func (app *application) category(r *http.Request) string {
	if category := r.FormValue("cat"); category != "" {
		return category
	}
	return app.cfg.Categories[0]
}
