package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/service"
	"github.com/suntennis/tournament-site/internal/standings"
	users "github.com/suntennis/tournament-site/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"home", "program", "tournament", "admin", "login", "register", "dashboard"} {
		pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html"))
	}
}

func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// Layout is the part of every page that comes from the site configuration.
type Layout struct {
	Title      string
	SiteName   string
	Categories []string
	Category   string
	Location   *time.Location
	Notice     string
}

type viewModel struct {
	User *users.User
	Page any
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		return t.ExecuteTemplate(w, "layout", viewModel{User: GetUser(ctx), Page: data})
	})
}

type CategoryEntry struct {
	Category   string
	Tournament *bracket.Tournament
}

type HomeData struct {
	Layout
	Entries []CategoryEntry
}

func HomePage(data HomeData) templ.Component {
	return page("home", data)
}

type ProgramData struct {
	Layout
	Entries []service.ProgramEntry
}

func ProgramPage(data ProgramData) templ.Component {
	return page("program", data)
}

type TournamentData struct {
	Layout
	Tournament *bracket.Tournament
	Teams      TeamLookup
	Groups     []GroupData
	Rounds     []BracketRound
	Schedule   []bracket.Match
}

func (d TournamentData) IsGroups() bool {
	return d.Tournament.Format == bracket.GroupsFormat
}

// NewTournamentData lays a snapshot out for the public tournament page.
func NewTournamentData(layout Layout, snapshot *service.Snapshot, policy standings.Policy) TournamentData {
	data := TournamentData{
		Layout:     layout,
		Tournament: snapshot.Tournament,
		Teams:      NewTeamLookup(snapshot.Teams),
		Schedule:   PrepareSchedule(snapshot.Matches),
	}
	if data.IsGroups() {
		data.Groups = PrepareGroupData(snapshot.Teams, snapshot.Matches, policy)
	} else {
		data.Rounds = PrepareBracketData(snapshot.Matches)
	}
	return data
}

func TournamentPage(data TournamentData) templ.Component {
	return page("tournament", data)
}

type AdminData struct {
	Layout
	Tournament       *bracket.Tournament
	Teams            TeamLookup
	AllTeams         []bracket.Team
	GroupTeams       []bracket.Team
	EliminationTeams []bracket.Team
	Matches          []bracket.Match
	BracketSizes     []int
}

func NewAdminData(layout Layout, snapshot *service.Snapshot) AdminData {
	return AdminData{
		Layout:           layout,
		Tournament:       snapshot.Tournament,
		Teams:            NewTeamLookup(snapshot.Teams),
		AllTeams:         snapshot.Teams,
		GroupTeams:       snapshot.GroupTeams(),
		EliminationTeams: snapshot.EliminationTeams(),
		Matches:          snapshot.Matches,
		BracketSizes:     []int{2, 4, 8, 16, 32, 64},
	}
}

func AdminPage(data AdminData) templ.Component {
	return page("admin", data)
}

type AuthData struct {
	Layout
	Email     string
	Error     string
	Providers []string
}

func LoginPage(data AuthData) templ.Component {
	return page("login", data)
}

func RegisterPage(data AuthData) templ.Component {
	return page("register", data)
}

type DashboardData struct {
	Layout
	Account *users.User
}

func DashboardPage(data DashboardData) templ.Component {
	return page("dashboard", data)
}
