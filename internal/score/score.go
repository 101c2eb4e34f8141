// Package score reads the free-text tennis scores typed into the admin console,
// e.g. "6-3 4-6 7-6(5)". Games are always written from team 1's side.
package score

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type Set struct {
	Team1 int
	Team2 int
}

type Line struct {
	Sets []Set
}

var setPattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})(?:\((\d{1,2})\))?$`)

// Parse splits the score on whitespace or commas. A blank score parses to an
// empty line.
func Parse(text string) (Line, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})

	line := Line{Sets: make([]Set, 0, len(fields))}
	for _, field := range fields {
		parts := setPattern.FindStringSubmatch(field)
		if parts == nil {
			return Line{}, fmt.Errorf("invalid set %q", field)
		}
		a, _ := strconv.Atoi(parts[1])
		b, _ := strconv.Atoi(parts[2])
		if a == b {
			return Line{}, fmt.Errorf("set %q has no winner", field)
		}
		line.Sets = append(line.Sets, Set{Team1: a, Team2: b})
	}
	return line, nil
}

func (l Line) SetsWon() (team1, team2 int) {
	for _, s := range l.Sets {
		if s.Team1 > s.Team2 {
			team1++
		} else {
			team2++
		}
	}
	return team1, team2
}

func (l Line) Games() (team1, team2 int) {
	for _, s := range l.Sets {
		team1 += s.Team1
		team2 += s.Team2
	}
	return team1, team2
}
