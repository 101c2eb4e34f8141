package bracket

import (
	"time"

	"github.com/google/uuid"
)

const PlaceholderName = "TBD"

// Team is either a group slot (GroupName set, GroupIndex is the row inside the
// group) or an elimination slot (GroupName nil, GroupIndex is the seed).
type Team struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	GroupName    *string   `db:"group_name" json:"group_name"`
	GroupIndex   *int      `db:"group_index" json:"group_index"`
	Player1      string    `db:"player1" json:"player1"`
	Player2      string    `db:"player2" json:"player2"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (t *Team) IsGroupTeam() bool {
	return t.GroupName != nil
}

func (t *Team) Group() string {
	if t.GroupName == nil {
		return ""
	}
	return *t.GroupName
}

// Index returns the group row or the seed, zero when unset.
func (t *Team) Index() int {
	if t.GroupIndex == nil {
		return 0
	}
	return *t.GroupIndex
}

// Label is the display name: both players of a doubles pair, the one that is
// filled in, or the placeholder.
func (t *Team) Label() string {
	switch {
	case t.Player1 != "" && t.Player2 != "":
		return t.Player1 + " & " + t.Player2
	case t.Player1 != "":
		return t.Player1
	case t.Player2 != "":
		return t.Player2
	}
	return PlaceholderName
}

func LabelOf(t *Team) string {
	if t == nil {
		return PlaceholderName
	}
	return t.Label()
}

// GroupLabel returns the letter used for the group at offset i (A, B, C...).
func GroupLabel(i int) string {
	return string(rune('A' + i))
}
