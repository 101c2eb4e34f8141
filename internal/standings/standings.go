// Package standings ranks the teams of a group from recorded match results.
// The ranking rule is a Policy so the site can switch from the plain win count
// to a tennis-style tiebreak without touching the renderer.
package standings

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/score"
)

type Standing struct {
	Team      bracket.Team
	Rank      int
	Wins      int
	Played    int
	SetsWon   int
	SetsLost  int
	GamesWon  int
	GamesLost int
}

func (s Standing) SetDiff() int  { return s.SetsWon - s.SetsLost }
func (s Standing) GameDiff() int { return s.GamesWon - s.GamesLost }

type Policy interface {
	Name() string
	// Rank returns one standing per team, best first, with 1-based ranks.
	Rank(teams []bracket.Team, matches []bracket.Match) []Standing
}

// ByWins orders by number of wins only. Ties keep the order the teams were
// passed in.
type ByWins struct{}

func (ByWins) Name() string { return "wins" }

func (ByWins) Rank(teams []bracket.Team, matches []bracket.Match) []Standing {
	table := tally(teams, matches)
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Wins > table[j].Wins
	})
	return assignRanks(table)
}

// BySets breaks win ties on set difference, then game difference, read from
// the score text. Unreadable scores count for wins only.
type BySets struct{}

func (BySets) Name() string { return "sets" }

func (BySets) Rank(teams []bracket.Team, matches []bracket.Match) []Standing {
	table := tally(teams, matches)
	sort.SliceStable(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.SetDiff() != b.SetDiff() {
			return a.SetDiff() > b.SetDiff()
		}
		return a.GameDiff() > b.GameDiff()
	})
	return assignRanks(table)
}

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "wins":
		return ByWins{}, nil
	case "sets":
		return BySets{}, nil
	}
	return nil, fmt.Errorf("unknown standings policy %q", name)
}

// ForGroup ranks the teams of one group using only that group's matches.
func ForGroup(policy Policy, groupName string, teams []bracket.Team, matches []bracket.Match) []Standing {
	var groupTeams []bracket.Team
	for _, t := range teams {
		if t.Group() == groupName && t.IsGroupTeam() {
			groupTeams = append(groupTeams, t)
		}
	}
	var groupMatches []bracket.Match
	for _, m := range matches {
		if m.Group() == groupName && !m.IsBracketMatch() {
			groupMatches = append(groupMatches, m)
		}
	}
	return policy.Rank(groupTeams, groupMatches)
}

func tally(teams []bracket.Team, matches []bracket.Match) []Standing {
	table := make([]Standing, len(teams))
	index := make(map[uuid.UUID]*Standing, len(teams))
	for i, t := range teams {
		table[i] = Standing{Team: t}
		index[t.ID] = &table[i]
	}

	for _, m := range matches {
		if m.WinnerID == nil {
			continue
		}
		if winner, ok := index[*m.WinnerID]; ok {
			winner.Wins++
		}

		var home, away *Standing
		if m.Team1ID != nil {
			home = index[*m.Team1ID]
		}
		if m.Team2ID != nil {
			away = index[*m.Team2ID]
		}
		if home != nil {
			home.Played++
		}
		if away != nil {
			away.Played++
		}

		if m.Score == nil || home == nil || away == nil {
			continue
		}
		line, err := score.Parse(*m.Score)
		if err != nil {
			continue
		}
		s1, s2 := line.SetsWon()
		g1, g2 := line.Games()
		home.SetsWon += s1
		home.SetsLost += s2
		home.GamesWon += g1
		home.GamesLost += g2
		away.SetsWon += s2
		away.SetsLost += s1
		away.GamesWon += g2
		away.GamesLost += g1
	}
	return table
}

func assignRanks(table []Standing) []Standing {
	for i := range table {
		table[i].Rank = i + 1
	}
	return table
}
