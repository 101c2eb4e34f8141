package views

import (
	"context"
	"html/template"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/middleware"
	users "github.com/suntennis/tournament-site/internal/user"
)

const (
	displayTimeLayout = "2006-01-02 15:04"
	// Value format of <input type="datetime-local">
	InputTimeLayout = "2006-01-02T15:04"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}

// TeamLookup resolves team references to display names.
type TeamLookup map[uuid.UUID]*bracket.Team

func NewTeamLookup(teams []bracket.Team) TeamLookup {
	lookup := make(TeamLookup, len(teams))
	for i := range teams {
		lookup[teams[i].ID] = &teams[i]
	}
	return lookup
}

func (l TeamLookup) Label(id *uuid.UUID) string {
	if id == nil {
		return bracket.PlaceholderName
	}
	return bracket.LabelOf(l[*id])
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "—"
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayTimeLayout)
}

func inputTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(InputTimeLayout)
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func sameID(a *uuid.UUID, b uuid.UUID) bool {
	return a != nil && *a == b
}

// matchTag says which part of the tournament a match belongs to.
func matchTag(m bracket.Match) string {
	switch {
	case !m.IsBracketMatch():
		return "Group " + m.Group()
	case m.Round > 0:
		return "Round " + strconv.Itoa(m.Round)
	}
	return "Match"
}

var funcs = template.FuncMap{
	"formatTime": formatTime,
	"inputTime":  inputTime,
	"orDefault":  orDefault,
	"idString":   idString,
	"sameID":     sameID,
	"matchTag":   matchTag,
	"label":      bracket.LabelOf,
	"isWinner": func(m bracket.Match, id *uuid.UUID) bool {
		return m.IsWinner(id)
	},
}
