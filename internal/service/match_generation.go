package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/utils"
)

// BuildGroupMatches pairs every two teams of each group once. Groups keep the
// order they are first seen in, teams inside a group are ordered by row. The
// position counter runs across all groups.
func BuildGroupMatches(tournamentID uuid.UUID, teams []bracket.Team) ([]bracket.Match, error) {
	var order []string
	byGroup := make(map[string][]bracket.Team)
	for _, t := range teams {
		if !t.IsGroupTeam() {
			continue
		}
		name := t.Group()
		if _, seen := byGroup[name]; !seen {
			order = append(order, name)
		}
		byGroup[name] = append(byGroup[name], t)
	}

	if len(order) == 0 {
		return nil, invalid("there are no teams assigned to groups")
	}

	var matches []bracket.Match
	position := 1
	for _, name := range order {
		list := byGroup[name]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Index() < list[j].Index()
		})

		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				matches = append(matches, bracket.Match{
					ID:           uuid.New(),
					TournamentID: tournamentID,
					GroupName:    utils.Ptr(name),
					Round:        1,
					Position:     position,
					Team1ID:      utils.Ptr(list[i].ID),
					Team2ID:      utils.Ptr(list[j].ID),
				})
				position++
			}
		}
	}

	if len(matches) == 0 {
		return nil, invalid("could not generate matches: too few teams in the groups")
	}
	return matches, nil
}

// BuildEliminationMatches pairs consecutive seeds in round 1 and lays out empty
// matches for every later round. A missing second seed leaves team 2 empty
// (a bye); no walkover winner is recorded.
func BuildEliminationMatches(tournamentID uuid.UUID, teams []bracket.Team) ([]bracket.Match, error) {
	var seeded []bracket.Team
	for _, t := range teams {
		if !t.IsGroupTeam() {
			seeded = append(seeded, t)
		}
	}

	n := len(seeded)
	if n == 0 {
		return nil, invalid("there are no elimination teams; generate the bracket slots first")
	}
	// Seeds can change between slot generation and now, so check again
	if n < 2 || !bracket.IsPowerOfTwo(n) {
		return nil, invalid("the number of elimination teams must be a power of two (4, 8, 16...), got %d", n)
	}

	sort.SliceStable(seeded, func(i, j int) bool {
		return seeded[i].Index() < seeded[j].Index()
	})

	matches := make([]bracket.Match, 0, n-1)
	position := 1
	for i := 0; i < n; i += 2 {
		m := bracket.Match{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Round:        1,
			Position:     position,
			Team1ID:      utils.Ptr(seeded[i].ID),
		}
		if i+1 < n {
			m.Team2ID = utils.Ptr(seeded[i+1].ID)
		}
		matches = append(matches, m)
		position++
	}

	totalRounds := bracket.Log2(n)
	for round := 2; round <= totalRounds; round++ {
		for pos := 1; pos <= n>>round; pos++ {
			matches = append(matches, bracket.Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Round:        round,
				Position:     pos,
			})
		}
	}

	return matches, nil
}

// NextSlot is where the winner of a bracket match plays next: positions 2k-1
// and 2k of a round feed position k of the following round, the odd one as
// team 1 and the even one as team 2.
func NextSlot(round, position int) (nextRound, nextPosition, slot int) {
	slot = 2
	if position%2 == 1 {
		slot = 1
	}
	return round + 1, (position + 1) / 2, slot
}

// GenerateGroupMatches replaces the group matches with a full round-robin.
func (s *GenerationService) GenerateGroupMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams, err := s.store.GetTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := BuildGroupMatches(tournamentID, teams)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteGroupMatches(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, err
	}

	return matches, tx.Commit()
}

// GenerateEliminationMatches replaces the bracket matches with a fresh bracket
// built from the current seeds.
func (s *GenerationService) GenerateEliminationMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams, err := s.store.GetTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := BuildEliminationMatches(tournamentID, teams)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteEliminationMatches(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, err
	}

	return matches, tx.Commit()
}
