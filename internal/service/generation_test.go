package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suntennis/tournament-site/internal/bracket"
	"github.com/suntennis/tournament-site/internal/store"
	"github.com/suntennis/tournament-site/internal/utils"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	// Every new connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type testServices struct {
	store       *store.TournamentStore
	tournaments *TournamentService
	generation  *GenerationService
	teams       *TeamService
	matches     *MatchService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	tournamentStore := store.NewTournamentStore(db)
	return &testServices{
		store:       tournamentStore,
		tournaments: NewTournamentService(db, tournamentStore, "suntennis-2025", "SunTennis Open 2025"),
		generation:  NewGenerationService(db, tournamentStore),
		teams:       NewTeamService(tournamentStore),
		matches:     NewMatchService(db, tournamentStore),
	}
}

func (s *testServices) tournament(t *testing.T) *bracket.Tournament {
	t.Helper()
	tournament, err := s.tournaments.EnsureTournament(context.Background(), "1")
	require.NoError(t, err)
	return tournament
}

func TestBuildGroupSlots(t *testing.T) {
	testCases := []struct {
		name       string
		groupCount int
		groupSize  int
		wantErr    bool
	}{
		{"Two groups of four", 2, 4, false},
		{"Single group of two", 1, 2, false},
		{"No groups", 0, 4, true},
		{"Group of one", 2, 1, true},
		{"Too many groups", 27, 2, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tid := uuid.New()
			teams, err := BuildGroupSlots(tid, tc.groupCount, tc.groupSize)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			require.Len(t, teams, tc.groupCount*tc.groupSize)

			seen := make(map[string]bool)
			for _, team := range teams {
				assert.Equal(t, tid, team.TournamentID)
				assert.True(t, team.IsGroupTeam())
				assert.Empty(t, team.Player1)
				key := fmt.Sprintf("%s%d", team.Group(), team.Index())
				assert.False(t, seen[key], "duplicate slot %s", key)
				seen[key] = true
			}
			for g := 0; g < tc.groupCount; g++ {
				for i := 1; i <= tc.groupSize; i++ {
					assert.True(t, seen[fmt.Sprintf("%s%d", bracket.GroupLabel(g), i)])
				}
			}
		})
	}
}

func TestBuildEliminationSlots(t *testing.T) {
	testCases := []struct {
		name        string
		bracketSize int
		wantErr     bool
	}{
		{"Eight", 8, false},
		{"Two", 2, false},
		{"Seven", 7, true},
		{"One", 1, true},
		{"Zero", 0, true},
		{"Negative", -4, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			teams, err := BuildEliminationSlots(uuid.New(), tc.bracketSize)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			require.Len(t, teams, tc.bracketSize)
			for i, team := range teams {
				assert.False(t, team.IsGroupTeam())
				assert.Equal(t, i+1, team.Index())
			}
		})
	}
}

func TestGenerateGroupSlots_Replaces(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	_, err := s.generation.GenerateGroupSlots(ctx, tournament.ID, 2, 4)
	require.NoError(t, err)
	_, err = s.generation.GenerateGroupSlots(ctx, tournament.ID, 3, 3)
	require.NoError(t, err)

	teams, err := s.store.GetTeams(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, teams, 9)

	perGroup := make(map[string]int)
	for _, team := range teams {
		perGroup[team.Group()]++
	}
	assert.Equal(t, map[string]int{"A": 3, "B": 3, "C": 3}, perGroup)
}

func TestGenerateGroupSlots_KeepsEliminationTeams(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	_, err := s.generation.GenerateEliminationSlots(ctx, tournament.ID, 4)
	require.NoError(t, err)
	_, err = s.generation.GenerateGroupSlots(ctx, tournament.ID, 1, 2)
	require.NoError(t, err)

	teams, err := s.store.GetTeams(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, teams, 6)
}

func TestGenerateGroupSlots_InvalidLeavesTeams(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	_, err := s.generation.GenerateGroupSlots(ctx, tournament.ID, 2, 4)
	require.NoError(t, err)

	_, err = s.generation.GenerateGroupSlots(ctx, tournament.ID, 0, 4)
	assert.ErrorIs(t, err, ErrValidation)

	teams, err := s.store.GetTeams(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, teams, 8)
}

func TestGenerateGroupMatches(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	_, err := s.generation.GenerateGroupSlots(ctx, tournament.ID, 2, 4)
	require.NoError(t, err)

	// Twice: the second run replaces the first
	_, err = s.generation.GenerateGroupMatches(ctx, tournament.ID)
	require.NoError(t, err)
	_, err = s.generation.GenerateGroupMatches(ctx, tournament.ID)
	require.NoError(t, err)

	teams, err := s.store.GetTeams(ctx, tournament.ID)
	require.NoError(t, err)
	teamGroup := make(map[uuid.UUID]string)
	for _, team := range teams {
		teamGroup[team.ID] = team.Group()
	}

	matches, err := s.store.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 12)

	perGroup := make(map[string]int)
	pairs := make(map[[2]uuid.UUID]bool)
	positions := make(map[int]bool)
	for _, m := range matches {
		require.NotNil(t, m.GroupName)
		require.NotNil(t, m.Team1ID)
		require.NotNil(t, m.Team2ID)
		assert.Equal(t, 1, m.Round)
		assert.NotEqual(t, *m.Team1ID, *m.Team2ID)
		assert.Equal(t, m.Group(), teamGroup[*m.Team1ID])
		assert.Equal(t, m.Group(), teamGroup[*m.Team2ID])

		pair := [2]uuid.UUID{*m.Team1ID, *m.Team2ID}
		reverse := [2]uuid.UUID{*m.Team2ID, *m.Team1ID}
		assert.False(t, pairs[pair] || pairs[reverse], "pair played twice")
		pairs[pair] = true

		assert.False(t, positions[m.Position], "duplicate position %d", m.Position)
		positions[m.Position] = true
		perGroup[m.Group()]++
	}
	assert.Equal(t, map[string]int{"A": 6, "B": 6}, perGroup)
	for p := 1; p <= 12; p++ {
		assert.True(t, positions[p])
	}
}

func TestBuildGroupMatches_Validation(t *testing.T) {
	tid := uuid.New()

	_, err := BuildGroupMatches(tid, nil)
	assert.ErrorIs(t, err, ErrValidation)

	seeds, err := BuildEliminationSlots(tid, 4)
	require.NoError(t, err)
	_, err = BuildGroupMatches(tid, seeds)
	assert.ErrorIs(t, err, ErrValidation, "ungrouped teams are ignored")

	lonely := []bracket.Team{
		{ID: uuid.New(), GroupName: utils.Ptr("A"), GroupIndex: utils.Ptr(1)},
		{ID: uuid.New(), GroupName: utils.Ptr("B"), GroupIndex: utils.Ptr(1)},
	}
	_, err = BuildGroupMatches(tid, lonely)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuildGroupMatches_OrdersByIndex(t *testing.T) {
	tid := uuid.New()
	first := bracket.Team{ID: uuid.New(), GroupName: utils.Ptr("A"), GroupIndex: utils.Ptr(1)}
	second := bracket.Team{ID: uuid.New(), GroupName: utils.Ptr("A"), GroupIndex: utils.Ptr(2)}
	third := bracket.Team{ID: uuid.New(), GroupName: utils.Ptr("A"), GroupIndex: utils.Ptr(3)}

	matches, err := BuildGroupMatches(tid, []bracket.Team{third, first, second})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, first.ID, *matches[0].Team1ID)
	assert.Equal(t, second.ID, *matches[0].Team2ID)
	assert.Equal(t, first.ID, *matches[1].Team1ID)
	assert.Equal(t, third.ID, *matches[1].Team2ID)
	assert.Equal(t, second.ID, *matches[2].Team1ID)
	assert.Equal(t, third.ID, *matches[2].Team2ID)
}

func TestGenerateEliminationMatches_EightSeeds(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	seeds, err := s.generation.GenerateEliminationSlots(ctx, tournament.ID, 8)
	require.NoError(t, err)
	require.Len(t, seeds, 8)

	_, err = s.generation.GenerateEliminationMatches(ctx, tournament.ID)
	require.NoError(t, err)
	_, err = s.generation.GenerateEliminationMatches(ctx, tournament.ID)
	require.NoError(t, err)

	teams, err := s.store.GetTeams(ctx, tournament.ID)
	require.NoError(t, err)
	seedOf := make(map[uuid.UUID]int)
	for _, team := range teams {
		seedOf[team.ID] = team.Index()
	}

	matches, err := s.store.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 7)

	perRound := make(map[int][]bracket.Match)
	for _, m := range matches {
		assert.Nil(t, m.GroupName)
		perRound[m.Round] = append(perRound[m.Round], m)
	}
	require.Len(t, perRound[1], 4)
	require.Len(t, perRound[2], 2)
	require.Len(t, perRound[3], 1)

	for _, m := range perRound[1] {
		require.NotNil(t, m.Team1ID)
		require.NotNil(t, m.Team2ID)
		assert.Equal(t, 2*m.Position-1, seedOf[*m.Team1ID])
		assert.Equal(t, 2*m.Position, seedOf[*m.Team2ID])
	}
	for _, round := range []int{2, 3} {
		for _, m := range perRound[round] {
			assert.Nil(t, m.Team1ID)
			assert.Nil(t, m.Team2ID)
			assert.Nil(t, m.WinnerID)
		}
	}
}

func TestGenerateEliminationMatches_RevalidatesSeeds(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	_, err := s.generation.GenerateEliminationMatches(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrValidation, "no seeds yet")

	_, err = s.generation.GenerateEliminationSlots(ctx, tournament.ID, 4)
	require.NoError(t, err)
	_, err = s.generation.GenerateEliminationMatches(ctx, tournament.ID)
	require.NoError(t, err)

	// A fifth ungrouped team breaks the power of two
	_, err = s.teams.AddTeam(ctx, tournament.ID, "Late Entry", "")
	require.NoError(t, err)

	_, err = s.generation.GenerateEliminationMatches(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrValidation)

	matches, err := s.store.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 3, "a rejected regenerate must not touch the existing bracket")
}

func TestGenerateEliminationSlots_ClearsBracketOnly(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	tournament := s.tournament(t)

	_, err := s.generation.GenerateGroupSlots(ctx, tournament.ID, 1, 3)
	require.NoError(t, err)
	_, err = s.generation.GenerateGroupMatches(ctx, tournament.ID)
	require.NoError(t, err)
	_, err = s.generation.GenerateEliminationSlots(ctx, tournament.ID, 4)
	require.NoError(t, err)
	_, err = s.generation.GenerateEliminationMatches(ctx, tournament.ID)
	require.NoError(t, err)

	_, err = s.generation.GenerateEliminationSlots(ctx, tournament.ID, 2)
	require.NoError(t, err)

	matches, err := s.store.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.False(t, m.IsBracketMatch())
	}

	teams, err := s.store.GetTeams(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, teams, 5)
}

// Every bracket match except the final must feed exactly one free slot of an
// existing match, and every slot after round 1 must be fed exactly once.
func TestNextSlot_AllBracketSizes(t *testing.T) {
	for size := 2; size <= 64; size *= 2 {
		t.Run(fmt.Sprintf("Size %d", size), func(t *testing.T) {
			seeds, err := BuildEliminationSlots(uuid.New(), size)
			require.NoError(t, err)
			matches, err := BuildEliminationMatches(uuid.New(), seeds)
			require.NoError(t, err)
			require.Len(t, matches, size-1)

			type slotKey struct{ round, position, slot int }
			exists := make(map[[2]int]bool)
			finalRound := bracket.Log2(size)
			for _, m := range matches {
				exists[[2]int{m.Round, m.Position}] = true
			}

			fed := make(map[slotKey]int)
			for _, m := range matches {
				round, position, slot := NextSlot(m.Round, m.Position)
				if m.Round == finalRound {
					assert.False(t, exists[[2]int{round, position}], "the final feeds nothing")
					continue
				}
				require.True(t, exists[[2]int{round, position}], "round %d position %d has no parent", m.Round, m.Position)
				fed[slotKey{round, position, slot}]++
			}

			for _, m := range matches {
				if m.Round == 1 {
					continue
				}
				assert.Equal(t, 1, fed[slotKey{m.Round, m.Position, 1}])
				assert.Equal(t, 1, fed[slotKey{m.Round, m.Position, 2}])
			}
		})
	}
}

func TestNextSlot(t *testing.T) {
	testCases := []struct {
		round, position                   int
		wantRound, wantPosition, wantSlot int
	}{
		{1, 1, 2, 1, 1},
		{1, 2, 2, 1, 2},
		{1, 3, 2, 2, 1},
		{1, 4, 2, 2, 2},
		{2, 1, 3, 1, 1},
		{3, 7, 4, 4, 1},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("R%dP%d", tc.round, tc.position), func(t *testing.T) {
			round, position, slot := NextSlot(tc.round, tc.position)
			assert.Equal(t, tc.wantRound, round)
			assert.Equal(t, tc.wantPosition, position)
			assert.Equal(t, tc.wantSlot, slot)
		})
	}
}
