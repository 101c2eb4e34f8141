package views

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/standings"
)

type GroupData struct {
	Name      string
	Standings []standings.Standing
	Matches   []bracket.Match
}

// PrepareGroupData partitions the group matches by group name, sorted by name,
// and ranks each group. Groups without matches are not shown.
func PrepareGroupData(teams []bracket.Team, matches []bracket.Match, policy standings.Policy) []GroupData {
	teamByID := make(map[uuid.UUID]bracket.Team, len(teams))
	for _, t := range teams {
		teamByID[t.ID] = t
	}

	byGroup := make(map[string][]bracket.Match)
	var names []string
	for _, m := range matches {
		if m.IsBracketMatch() {
			continue
		}
		name := m.Group()
		if _, exists := byGroup[name]; !exists {
			names = append(names, name)
		}
		byGroup[name] = append(byGroup[name], m)
	}
	sort.Strings(names)

	groups := make([]GroupData, 0, len(names))
	for _, name := range names {
		groupMatches := byGroup[name]
		groups = append(groups, GroupData{
			Name:      name,
			Standings: policy.Rank(groupMembers(groupMatches, teamByID), groupMatches),
			Matches:   groupMatches,
		})
	}
	return groups
}

// groupMembers lists the teams that play in the group's matches, in order of
// appearance. A slot that has no match yet is not part of the table.
func groupMembers(matches []bracket.Match, teamByID map[uuid.UUID]bracket.Team) []bracket.Team {
	seen := make(map[uuid.UUID]bool)
	var members []bracket.Team
	for _, m := range matches {
		for _, id := range []*uuid.UUID{m.Team1ID, m.Team2ID} {
			if id == nil || seen[*id] {
				continue
			}
			if t, ok := teamByID[*id]; ok {
				members = append(members, t)
				seen[*id] = true
			}
		}
	}
	return members
}

type BracketRound struct {
	Round   int
	Label   string
	Matches []bracket.Match
}

// PrepareBracketData groups the bracket matches into rounds, ascending, each
// ordered by position. Matches with a group label are left out.
func PrepareBracketData(matches []bracket.Match) []BracketRound {
	rounds := make(map[int][]bracket.Match)
	var roundNums []int
	for _, m := range matches {
		if !m.IsBracketMatch() {
			continue
		}
		round := m.Round
		if round < 1 {
			round = 1
		}
		if _, exists := rounds[round]; !exists {
			roundNums = append(roundNums, round)
		}
		rounds[round] = append(rounds[round], m)
	}
	sort.Ints(roundNums)

	data := make([]BracketRound, 0, len(roundNums))
	for _, r := range roundNums {
		list := rounds[r]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Position < list[j].Position
		})
		data = append(data, BracketRound{Round: r, Label: RoundLabel(r, len(list)), Matches: list})
	}
	return data
}

// RoundLabel names a round from how many matches it has. A first round of one
// or two matches is labelled by count too, so a four team bracket opens with
// "Semifinals".
func RoundLabel(round, count int) string {
	switch {
	case count == 1 && round > 1:
		return "Final"
	case count == 2:
		return "Semifinals"
	case count == 4:
		return "Quarterfinals"
	}
	return fmt.Sprintf("Round %d", round)
}

// PrepareSchedule orders matches by kickoff; unscheduled matches come first.
func PrepareSchedule(matches []bracket.Match) []bracket.Match {
	ordered := make([]bracket.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].ScheduledAt, ordered[j].ScheduledAt
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return ordered
}
