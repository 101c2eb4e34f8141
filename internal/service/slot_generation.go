package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/store"
	"github.com/suntennis/tournament-site/internal/utils"
)

// Group labels are single letters.
const maxGroups = 26

// GenerationService rebuilds the team slots and match schedule of a
// tournament. Every regenerate replaces the previous rows of the same class in
// a single transaction.
type GenerationService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewGenerationService(db *sqlx.DB, store *store.TournamentStore) *GenerationService {
	return &GenerationService{db: db, store: store}
}

// BuildGroupSlots creates groupSize empty rows for each of groupCount groups
// labelled A, B, C...
func BuildGroupSlots(tournamentID uuid.UUID, groupCount, groupSize int) ([]bracket.Team, error) {
	if groupCount < 1 || groupSize < 2 {
		return nil, invalid("invalid group settings: need at least 1 group of at least 2 teams")
	}
	if groupCount > maxGroups {
		return nil, invalid("invalid group settings: at most %d groups", maxGroups)
	}

	teams := make([]bracket.Team, 0, groupCount*groupSize)
	for g := 0; g < groupCount; g++ {
		name := bracket.GroupLabel(g)
		for i := 1; i <= groupSize; i++ {
			teams = append(teams, bracket.Team{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				GroupName:    utils.Ptr(name),
				GroupIndex:   utils.Ptr(i),
			})
		}
	}
	return teams, nil
}

// BuildEliminationSlots creates bracketSize ungrouped rows seeded 1..bracketSize.
func BuildEliminationSlots(tournamentID uuid.UUID, bracketSize int) ([]bracket.Team, error) {
	if bracketSize < 2 || !bracket.IsPowerOfTwo(bracketSize) {
		return nil, invalid("bracket size must be a power of two (e.g. 4, 8, 16), got %d", bracketSize)
	}

	teams := make([]bracket.Team, 0, bracketSize)
	for seed := 1; seed <= bracketSize; seed++ {
		teams = append(teams, bracket.Team{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			GroupIndex:   utils.Ptr(seed),
		})
	}
	return teams, nil
}

// GenerateGroupSlots replaces every group team of the tournament with empty slots.
func (s *GenerationService) GenerateGroupSlots(ctx context.Context, tournamentID uuid.UUID, groupCount, groupSize int) ([]bracket.Team, error) {
	teams, err := BuildGroupSlots(tournamentID, groupCount, groupSize)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.DeleteGroupTeams(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return nil, err
	}

	return teams, tx.Commit()
}

// GenerateEliminationSlots replaces the seeded teams and, since matches point at
// seeds, every bracket match of the tournament.
func (s *GenerationService) GenerateEliminationSlots(ctx context.Context, tournamentID uuid.UUID, bracketSize int) ([]bracket.Team, error) {
	teams, err := BuildEliminationSlots(tournamentID, bracketSize)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.store.DeleteEliminationMatches(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteEliminationTeams(ctx, tx, tournamentID); err != nil {
		return nil, err
	}
	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return nil, err
	}

	return teams, tx.Commit()
}
