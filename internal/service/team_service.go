package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/store"
)

type TeamService struct {
	store *store.TournamentStore
}

func NewTeamService(store *store.TournamentStore) *TeamService {
	return &TeamService{store: store}
}

// AddTeam registers a team outside any group. At least one player is required.
func (s *TeamService) AddTeam(ctx context.Context, tournamentID uuid.UUID, player1, player2 string) (*bracket.Team, error) {
	player1 = strings.TrimSpace(player1)
	player2 = strings.TrimSpace(player2)
	if player1 == "" && player2 == "" {
		return nil, invalid("enter at least one player name")
	}

	team := bracket.Team{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Player1:      player1,
		Player2:      player2,
	}
	if err := s.store.CreateTeams(ctx, s.store.DB(), []bracket.Team{team}); err != nil {
		return nil, err
	}
	return &team, nil
}

// RenameTeam fills in the name of a slot of the tournament.
func (s *TeamService) RenameTeam(ctx context.Context, tournamentID, teamID uuid.UUID, name string) error {
	if err := s.store.UpdateTeamName(ctx, tournamentID, teamID, strings.TrimSpace(name)); err != nil {
		return notFound(err, "team")
	}
	return nil
}
