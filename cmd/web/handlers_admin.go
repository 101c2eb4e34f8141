package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/httputil"
	"github.com/suntennis/tournament-site/internal/service"
	"github.com/suntennis/tournament-site/internal/utils"
	"github.com/suntennis/tournament-site/views"
)

// adminTournament resolves the category of an admin request, creating its
// tournament on first use.
func (app *application) adminTournament(w http.ResponseWriter, r *http.Request) (*bracket.Tournament, bool) {
	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return nil, false
	}
	tournament, err := app.tournaments.EnsureTournament(r.Context(), app.category(r))
	if err != nil {
		httputil.FromError(w, "Failed to load tournament", err)
		return nil, false
	}
	return tournament, true
}

func (app *application) redirectAdmin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/admin?cat="+url.QueryEscape(app.category(r)), http.StatusSeeOther)
}

// changed announces a successful mutation to the operator and to live viewers.
func (app *application) changed(w http.ResponseWriter, r *http.Request, tournament *bracket.Tournament, subject, notice string) {
	app.hub.Publish(tournament.Slug, subject)
	if notice != "" {
		app.sessions.Put(r.Context(), flashKey, notice)
	}
	app.redirectAdmin(w, r)
}

// rejected shows validation failures on the console; anything else is a
// server error.
func (app *application) rejected(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		app.sessions.Put(r.Context(), flashKey, validation.Message)
		app.redirectAdmin(w, r)
		return
	}
	httputil.FromError(w, msg, err)
}

func formInt(r *http.Request, key string) (int, error) {
	value := strings.TrimSpace(r.PostForm.Get(key))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &service.ValidationError{Message: key + " must be a whole number"}
	}
	return n, nil
}

// parseLocalTime reads a datetime-local value given in the site's timezone
// and returns it in UTC. Blank means unscheduled.
func parseLocalTime(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(views.InputTimeLayout, value, loc)
	if err != nil {
		return nil, &service.ValidationError{Message: "invalid date and time: " + value}
	}
	return utils.Ptr(t.UTC()), nil
}

func formUUID(r *http.Request, key string) (*uuid.UUID, error) {
	id, err := utils.UUIDOrNil(r.PostForm.Get(key))
	if err != nil {
		return nil, &service.ValidationError{Message: "invalid " + key}
	}
	return id, nil
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func (app *application) adminConsole(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	snapshot, err := app.tournaments.LoadSnapshot(r.Context(), tournament)
	if err != nil {
		httputil.FromError(w, "Failed to load tournament", err)
		return
	}

	layout := app.layout(r, "Admin", app.category(r))
	views.Render(w, r, views.AdminPage(views.NewAdminData(layout, snapshot)))
}

func (app *application) adminSaveSettings(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}

	settings := service.Settings{Format: bracket.Format(r.PostForm.Get("format"))}
	var err error
	if settings.BracketSize, err = formInt(r, "bracket_size"); err != nil {
		app.rejected(w, r, "Invalid settings", err)
		return
	}
	if settings.GroupCount, err = formInt(r, "group_count"); err != nil {
		app.rejected(w, r, "Invalid settings", err)
		return
	}
	if settings.GroupSize, err = formInt(r, "group_size"); err != nil {
		app.rejected(w, r, "Invalid settings", err)
		return
	}

	if _, err := app.tournaments.UpdateSettings(r.Context(), tournament.ID, settings); err != nil {
		app.rejected(w, r, "Failed to save settings", err)
		return
	}
	app.changed(w, r, tournament, "settings", "Settings saved.")
}

func (app *application) adminAddTeam(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	if _, err := app.teams.AddTeam(r.Context(), tournament.ID, r.PostForm.Get("player1"), r.PostForm.Get("player2")); err != nil {
		app.rejected(w, r, "Failed to add team", err)
		return
	}
	app.changed(w, r, tournament, "teams", "")
}

func (app *application) adminRenameTeam(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	teamID, err := pathUUID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid team ID", err)
		return
	}
	if err := app.teams.RenameTeam(r.Context(), tournament.ID, teamID, r.PostForm.Get("name")); err != nil {
		app.rejected(w, r, "Failed to save team name", err)
		return
	}
	app.changed(w, r, tournament, "teams", "")
}

func (app *application) adminGenerateGroupSlots(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	groupCount, err := formInt(r, "group_count")
	if err != nil {
		app.rejected(w, r, "Invalid group settings", err)
		return
	}
	groupSize, err := formInt(r, "group_size")
	if err != nil {
		app.rejected(w, r, "Invalid group settings", err)
		return
	}

	if _, err := app.generation.GenerateGroupSlots(r.Context(), tournament.ID, groupCount, groupSize); err != nil {
		app.rejected(w, r, "Failed to generate group slots", err)
		return
	}
	app.changed(w, r, tournament, "teams", "Group slots generated. Fill in the team names.")
}

func (app *application) adminGenerateGroupMatches(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	if _, err := app.generation.GenerateGroupMatches(r.Context(), tournament.ID); err != nil {
		app.rejected(w, r, "Failed to generate group matches", err)
		return
	}
	app.changed(w, r, tournament, "matches", "Group matches generated.")
}

func (app *application) adminGenerateEliminationSlots(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	bracketSize, err := formInt(r, "bracket_size")
	if err != nil {
		app.rejected(w, r, "Invalid bracket size", err)
		return
	}

	if _, err := app.generation.GenerateEliminationSlots(r.Context(), tournament.ID, bracketSize); err != nil {
		app.rejected(w, r, "Failed to generate bracket slots", err)
		return
	}
	app.changed(w, r, tournament, "teams", "Bracket slots generated. Fill in the names of the seeds.")
}

func (app *application) adminGenerateEliminationMatches(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	if _, err := app.generation.GenerateEliminationMatches(r.Context(), tournament.ID); err != nil {
		app.rejected(w, r, "Failed to generate bracket matches", err)
		return
	}
	app.changed(w, r, tournament, "matches", "Matches generated for every round.")
}

func (app *application) adminAddMatch(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}

	input := service.MatchInput{
		GroupName: utils.StringOrNil(r.PostForm.Get("group_name")),
		Court:     utils.StringOrNil(r.PostForm.Get("court")),
	}
	if round := strings.TrimSpace(r.PostForm.Get("round")); round != "" {
		n, err := formInt(r, "round")
		if err != nil {
			app.rejected(w, r, "Invalid match", err)
			return
		}
		input.Round = n
	}

	team1, err := formUUID(r, "team1_id")
	if err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}
	team2, err := formUUID(r, "team2_id")
	if err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}
	input.Team1ID = utils.OrZero(team1)
	input.Team2ID = utils.OrZero(team2)

	if input.ScheduledAt, err = parseLocalTime(r.PostForm.Get("scheduled_at"), app.cfg.Location); err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}

	if _, err := app.matches.AddMatch(r.Context(), tournament.ID, input); err != nil {
		app.rejected(w, r, "Failed to add match", err)
		return
	}
	app.changed(w, r, tournament, "matches", "")
}

func (app *application) adminSaveMatch(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	matchID, err := pathUUID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid match ID", err)
		return
	}

	var patch service.MatchPatch
	if patch.Team1ID, err = formUUID(r, "team1_id"); err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}
	if patch.Team2ID, err = formUUID(r, "team2_id"); err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}
	if patch.WinnerID, err = formUUID(r, "winner_id"); err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}
	if patch.ScheduledAt, err = parseLocalTime(r.PostForm.Get("scheduled_at"), app.cfg.Location); err != nil {
		app.rejected(w, r, "Invalid match", err)
		return
	}
	patch.Court = utils.StringOrNil(r.PostForm.Get("court"))
	patch.Score = utils.StringOrNil(r.PostForm.Get("score"))

	if _, err := app.matches.SaveMatch(r.Context(), tournament.ID, matchID, patch); err != nil {
		app.rejected(w, r, "Failed to save match", err)
		return
	}
	app.changed(w, r, tournament, "matches", "")
}

func (app *application) adminDeleteMatch(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	matchID, err := pathUUID(r)
	if err != nil {
		httputil.BadRequest(w, "Invalid match ID", err)
		return
	}
	if err := app.matches.DeleteMatch(r.Context(), tournament.ID, matchID); err != nil {
		app.rejected(w, r, "Failed to delete match", err)
		return
	}
	app.changed(w, r, tournament, "matches", "")
}

func (app *application) adminDeleteAllMatches(w http.ResponseWriter, r *http.Request) {
	tournament, ok := app.adminTournament(w, r)
	if !ok {
		return
	}
	if err := app.matches.DeleteAllMatches(r.Context(), tournament.ID); err != nil {
		app.rejected(w, r, "Failed to delete matches", err)
		return
	}
	app.changed(w, r, tournament, "matches", "All matches deleted.")
}
