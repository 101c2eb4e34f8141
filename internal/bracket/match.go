package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Match is a group match when GroupName is set, otherwise a bracket match
// addressed by Round and Position.
type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	GroupName    *string   `db:"group_name" json:"group_name"`

	Round    int `db:"round" json:"round"`
	Position int `db:"position" json:"position"`

	Team1ID *uuid.UUID `db:"team1_id" json:"team1_id"`
	Team2ID *uuid.UUID `db:"team2_id" json:"team2_id"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at"`
	Court       *string    `db:"court" json:"court"`
	Score       *string    `db:"score" json:"score"`
	WinnerID    *uuid.UUID `db:"winner_id" json:"winner_id"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (m *Match) IsBracketMatch() bool {
	return m.GroupName == nil
}

func (m *Match) Group() string {
	if m.GroupName == nil {
		return ""
	}
	return *m.GroupName
}

func (m *Match) HasTeam(id uuid.UUID) bool {
	return (m.Team1ID != nil && *m.Team1ID == id) || (m.Team2ID != nil && *m.Team2ID == id)
}

func (m *Match) IsWinner(id *uuid.UUID) bool {
	return id != nil && m.WinnerID != nil && *m.WinnerID == *id
}

// IsBye is a first round bracket match with only one side filled.
func (m *Match) IsBye() bool {
	return m.IsBracketMatch() && m.Round == 1 && (m.Team1ID == nil) != (m.Team2ID == nil)
}
