package bracket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Format string

const (
	GroupsFormat      Format = "groups"
	EliminationFormat Format = "elimination"
)

func (f Format) Valid() bool {
	return f == GroupsFormat || f == EliminationFormat
}

type Tournament struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Format      Format    `db:"format" json:"format"`
	BracketSize int       `db:"bracket_size" json:"bracket_size"`
	GroupCount  int       `db:"group_count" json:"group_count"`
	GroupSize   int       `db:"group_size" json:"group_size"`
	Location    *string   `db:"location" json:"location,omitempty"`
	StartDate   *string   `db:"start_date" json:"start_date,omitempty"`
	EndDate     *string   `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SlugForCategory derives the lookup key of a category: category "1" (or none)
// maps to the base slug, every other category gets a "-<category>" suffix.
func SlugForCategory(base, category string) string {
	if category == "" || category == "1" {
		return base
	}
	return fmt.Sprintf("%s-%s", base, category)
}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 of a power of two.
func Log2(n int) int {
	rounds := 0
	for n > 1 {
		n >>= 1
		rounds++
	}
	return rounds
}
