package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/suntennis/tournament-site/internal/bracket"
)

// TournamentStore owns the tournaments, teams and matches tables. Write methods
// take the executor explicitly so callers can group them in one transaction.
type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) DB() *sqlx.DB {
	return s.db
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx sqlx.ExtContext, tournament *bracket.Tournament) error {
	_, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO tournaments (id, slug, name, format, bracket_size, group_count, group_size, location, start_date, end_date)
        VALUES (:id, :slug, :name, :format, :bracket_size, :group_count, :group_size, :location, :start_date, :end_date)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentBySlug(ctx context.Context, slug string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE slug = ?", slug)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentsBySlugs(ctx context.Context, slugs []string) ([]bracket.Tournament, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM tournaments WHERE slug IN (?) ORDER BY slug ASC", slugs)
	if err != nil {
		return nil, err
	}
	var tournaments []bracket.Tournament
	err = s.db.SelectContext(ctx, &tournaments, s.db.Rebind(query), args...)
	return tournaments, err
}

func (s *TournamentStore) UpdateTournamentSettings(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, `UPDATE tournaments SET
        format = :format, bracket_size = :bracket_size, group_count = :group_count, group_size = :group_size
        WHERE id = :id`, tournament)
	return err
}

func (s *TournamentStore) GetTeams(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Team, error) {
	return s.GetTeamsTx(ctx, s.db, tournamentID)
}

// GetTeamsTx lists teams with group rows after the ungrouped seeds, ordered by
// group name, then row/seed, then insertion time.
func (s *TournamentStore) GetTeamsTx(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := sqlx.SelectContext(ctx, q, &teams, `SELECT * FROM teams WHERE tournament_id = ?
        ORDER BY group_name ASC, group_index ASC, created_at ASC`, tournamentID)
	return teams, err
}

func (s *TournamentStore) GetTeamsForTournaments(ctx context.Context, tournamentIDs []uuid.UUID) ([]bracket.Team, error) {
	if len(tournamentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM teams WHERE tournament_id IN (?)", tournamentIDs)
	if err != nil {
		return nil, err
	}
	var teams []bracket.Team
	err = s.db.SelectContext(ctx, &teams, s.db.Rebind(query), args...)
	return teams, err
}

func (s *TournamentStore) GetTeam(ctx context.Context, id string) (*bracket.Team, error) {
	var team bracket.Team
	err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id)
	return &team, err
}

func (s *TournamentStore) CreateTeams(ctx context.Context, tx sqlx.ExtContext, teams []bracket.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO teams (id, tournament_id, group_name, group_index, player1, player2)
            VALUES (:id, :tournament_id, :group_name, :group_index, :player1, :player2)`, teams)
	return err
}

// UpdateTeamName renames a team of the given tournament. A team of another
// tournament is reported as missing.
func (s *TournamentStore) UpdateTeamName(ctx context.Context, tournamentID, id uuid.UUID, player1 string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE teams SET player1 = ? WHERE id = ? AND tournament_id = ?", player1, id, tournamentID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *TournamentStore) DeleteGroupTeams(ctx context.Context, tx sqlx.ExtContext, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE tournament_id = ? AND group_name IS NOT NULL", tournamentID)
	return err
}

func (s *TournamentStore) DeleteEliminationTeams(ctx context.Context, tx sqlx.ExtContext, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE tournament_id = ? AND group_name IS NULL", tournamentID)
	return err
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, `SELECT * FROM matches WHERE tournament_id = ?
        ORDER BY group_name ASC, round ASC, position ASC`, tournamentID)
	return matches, err
}

// GetMatchesForTournaments returns matches of several tournaments by kickoff,
// unscheduled matches first.
func (s *TournamentStore) GetMatchesForTournaments(ctx context.Context, tournamentIDs []uuid.UUID) ([]bracket.Match, error) {
	if len(tournamentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM matches WHERE tournament_id IN (?)
        ORDER BY scheduled_at ASC, round ASC, position ASC`, tournamentIDs)
	if err != nil {
		return nil, err
	}
	var matches []bracket.Match
	err = s.db.SelectContext(ctx, &matches, s.db.Rebind(query), args...)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	return s.GetMatchTx(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, q sqlx.QueryerContext, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, "SELECT * FROM matches WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetBracketMatchTx addresses an ungrouped match by round and position.
func (s *TournamentStore) GetBracketMatchTx(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID, round, position int) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, `SELECT * FROM matches
        WHERE tournament_id = ? AND group_name IS NULL AND round = ? AND position = ?
        ORDER BY created_at ASC LIMIT 1`, tournamentID, round, position)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) CountMatchesTx(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, "SELECT COUNT(*) FROM matches WHERE tournament_id = ?", tournamentID)
	return count, err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx sqlx.ExtContext, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, tx, `INSERT INTO matches (id, tournament_id, group_name, round, position, team1_id, team2_id, scheduled_at, court, score, winner_id)
		VALUES (:id, :tournament_id, :group_name, :round, :position, :team1_id, :team2_id, :scheduled_at, :court, :score, :winner_id)`, matches)
	return err
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, tx sqlx.ExtContext, match *bracket.Match) error {
	res, err := sqlx.NamedExecContext(ctx, tx, `UPDATE matches SET
        team1_id = :team1_id, team2_id = :team2_id, scheduled_at = :scheduled_at,
        court = :court, score = :score, winner_id = :winner_id
        WHERE id = :id`, match)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *TournamentStore) DeleteGroupMatches(ctx context.Context, tx sqlx.ExtContext, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE tournament_id = ? AND group_name IS NOT NULL", tournamentID)
	return err
}

func (s *TournamentStore) DeleteEliminationMatches(ctx context.Context, tx sqlx.ExtContext, tournamentID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE tournament_id = ? AND group_name IS NULL", tournamentID)
	return err
}

func (s *TournamentStore) DeleteMatch(ctx context.Context, tournamentID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM matches WHERE id = ? AND tournament_id = ?", id, tournamentID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *TournamentStore) DeleteAllMatches(ctx context.Context, tournamentID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM matches WHERE tournament_id = ?", tournamentID)
	return err
}

// Updates and deletes by id report a missing row the same way a lookup does.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
