package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/store"
	"github.com/suntennis/tournament-site/internal/utils"
)

type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore) *MatchService {
	return &MatchService{db: db, store: store}
}

// MatchInput is a match added by hand from the admin console.
type MatchInput struct {
	GroupName   *string
	Round       int
	Team1ID     uuid.UUID
	Team2ID     uuid.UUID
	ScheduledAt *time.Time
	Court       *string
}

// MatchPatch is the editable part of a match. Nil team and winner fields clear
// the reference.
type MatchPatch struct {
	Team1ID     *uuid.UUID
	Team2ID     *uuid.UUID
	ScheduledAt *time.Time
	Court       *string
	Score       *string
	WinnerID    *uuid.UUID
}

func (p MatchPatch) Validate() error {
	if p.Team1ID != nil && utils.SameUUID(p.Team1ID, p.Team2ID) {
		return invalid("a team cannot play against itself")
	}
	if p.WinnerID != nil && !utils.SameUUID(p.WinnerID, p.Team1ID) && !utils.SameUUID(p.WinnerID, p.Team2ID) {
		return invalid("the winner must be one of the two teams")
	}
	return nil
}

// AddMatch appends a match after the existing ones of the tournament.
func (s *MatchService) AddMatch(ctx context.Context, tournamentID uuid.UUID, input MatchInput) (*bracket.Match, error) {
	if input.Team1ID == uuid.Nil || input.Team2ID == uuid.Nil {
		return nil, invalid("choose both teams")
	}
	if input.Team1ID == input.Team2ID {
		return nil, invalid("choose two different teams")
	}
	if input.Round < 1 {
		input.Round = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	teams, err := s.store.GetTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !containsTeam(teams, input.Team1ID) || !containsTeam(teams, input.Team2ID) {
		return nil, invalid("both teams must belong to this tournament")
	}

	count, err := s.store.CountMatchesTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}

	match := bracket.Match{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		GroupName:    input.GroupName,
		Round:        input.Round,
		Position:     count + 1,
		Team1ID:      utils.Ptr(input.Team1ID),
		Team2ID:      utils.Ptr(input.Team2ID),
		ScheduledAt:  input.ScheduledAt,
		Court:        input.Court,
	}
	if err := s.store.CreateMatches(ctx, tx, []bracket.Match{match}); err != nil {
		return nil, err
	}

	return &match, tx.Commit()
}

// SaveMatch applies the patch to a match of the tournament. On a bracket match
// the winner is written into the slot it feeds in the next round, and a winner
// that was withdrawn is taken out of every later round it had reached.
func (s *MatchService) SaveMatch(ctx context.Context, tournamentID, matchID uuid.UUID, patch MatchPatch) (*bracket.Match, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID.String())
	if err != nil {
		return nil, notFound(err, "match")
	}
	if match.TournamentID != tournamentID {
		return nil, fmt.Errorf("match: %w", ErrNotFound)
	}

	teams, err := s.store.GetTeamsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, id := range []*uuid.UUID{patch.Team1ID, patch.Team2ID, patch.WinnerID} {
		if id != nil && !containsTeam(teams, *id) {
			return nil, invalid("both teams must belong to this tournament")
		}
	}

	previousWinner := match.WinnerID
	match.Team1ID = patch.Team1ID
	match.Team2ID = patch.Team2ID
	match.ScheduledAt = patch.ScheduledAt
	match.Court = patch.Court
	match.Score = patch.Score
	match.WinnerID = patch.WinnerID

	if err := s.store.UpdateMatch(ctx, tx, match); err != nil {
		return nil, notFound(err, "match")
	}

	if match.IsBracketMatch() && (match.WinnerID != nil || previousWinner != nil) {
		if err := s.advanceWinner(ctx, tx, match, previousWinner); err != nil {
			return nil, err
		}
	}

	return match, tx.Commit()
}

// advanceWinner updates the slot that match feeds. A set winner takes the
// slot; a cleared winner leaves it only if previousWinner still holds it.
// When the next match's own winner drops out of that match, it is withdrawn
// from the round after as well.
func (s *MatchService) advanceWinner(ctx context.Context, tx *sqlx.Tx, match *bracket.Match, previousWinner *uuid.UUID) error {
	nextRound, nextPosition, slot := NextSlot(match.Round, match.Position)

	next, err := s.store.GetBracketMatchTx(ctx, tx, match.TournamentID, nextRound, nextPosition)
	if store.IsNotFound(err) {
		// The final has nowhere to go
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find next match: %w", err)
	}

	target := &next.Team1ID
	if slot == 2 {
		target = &next.Team2ID
	}
	switch {
	case match.WinnerID != nil:
		*target = utils.Ptr(*match.WinnerID)
	case utils.SameUUID(*target, previousWinner):
		*target = nil
	}

	var withdrawn *uuid.UUID
	if next.WinnerID != nil && !next.HasTeam(*next.WinnerID) {
		withdrawn = next.WinnerID
		next.WinnerID = nil
	}

	if err := s.store.UpdateMatch(ctx, tx, next); err != nil {
		return fmt.Errorf("failed to advance winner: %w", err)
	}
	slog.Debug("advanced winner", "match", match.ID, "next_round", nextRound, "next_position", nextPosition, "slot", slot)

	if withdrawn != nil {
		return s.advanceWinner(ctx, tx, next, withdrawn)
	}
	return nil
}

func (s *MatchService) DeleteMatch(ctx context.Context, tournamentID, matchID uuid.UUID) error {
	if err := s.store.DeleteMatch(ctx, tournamentID, matchID); err != nil {
		return notFound(err, "match")
	}
	return nil
}

func (s *MatchService) DeleteAllMatches(ctx context.Context, tournamentID uuid.UUID) error {
	return s.store.DeleteAllMatches(ctx, tournamentID)
}

func containsTeam(teams []bracket.Team, id uuid.UUID) bool {
	for _, t := range teams {
		if t.ID == id {
			return true
		}
	}
	return false
}
