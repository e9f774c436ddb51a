// Package league holds the immutable roster every scheduling component
// shares: teams in a fixed global order, their divisions and conferences,
// and the teams that share a home stadium.
package league

import (
	"errors"
	"fmt"

	"github.com/derekprior/greenleague/internal/config"
)

// ErrUnknownTeam is returned when a name does not resolve against the roster.
var ErrUnknownTeam = errors.New("unknown team")

// Team is one roster entry. Index is the team's position in every matrix.
type Team struct {
	Index      int
	Name       string
	Conference string
	Division   int
}

type Division struct {
	Name       string
	Conference string
	Teams      []int
}

// League is built once from config and never mutated.
type League struct {
	teams     []Team
	divisions []Division
	shared    [][2]int
	byName    map[string]int
}

// New builds a League from the configured divisions. Team order follows the
// config file, division by division.
func New(cfg *config.Config) (*League, error) {
	l := &League{byName: make(map[string]int)}
	for d, div := range cfg.Divisions {
		ld := Division{Name: div.Name, Conference: div.Conference}
		for _, name := range div.Teams {
			if _, dup := l.byName[name]; dup {
				return nil, fmt.Errorf("team %q listed twice", name)
			}
			idx := len(l.teams)
			l.teams = append(l.teams, Team{Index: idx, Name: name, Conference: div.Conference, Division: d})
			l.byName[name] = idx
			ld.Teams = append(ld.Teams, idx)
		}
		l.divisions = append(l.divisions, ld)
	}
	for _, pair := range cfg.SharedStadiums {
		if len(pair) != 2 {
			return nil, fmt.Errorf("shared stadium entry %v must name two teams", pair)
		}
		a, err := l.Resolve(pair[0])
		if err != nil {
			return nil, err
		}
		b, err := l.Resolve(pair[1])
		if err != nil {
			return nil, err
		}
		l.shared = append(l.shared, [2]int{a, b})
	}
	return l, nil
}

// Size is the number of teams.
func (l *League) Size() int { return len(l.teams) }

// Team returns the team at index i.
func (l *League) Team(i int) Team { return l.teams[i] }

// Teams returns a copy of the roster in index order.
func (l *League) Teams() []Team {
	out := make([]Team, len(l.teams))
	copy(out, l.teams)
	return out
}

// Name returns the name of team i.
func (l *League) Name(i int) string { return l.teams[i].Name }

// Names returns all team names in index order.
func (l *League) Names() []string {
	names := make([]string, len(l.teams))
	for i, t := range l.teams {
		names[i] = t.Name
	}
	return names
}

// Divisions returns the divisions in config order.
func (l *League) Divisions() []Division {
	out := make([]Division, len(l.divisions))
	copy(out, l.divisions)
	return out
}

// SharedStadiums returns pairs of team indices that share a home venue.
func (l *League) SharedStadiums() [][2]int {
	out := make([][2]int, len(l.shared))
	copy(out, l.shared)
	return out
}

// Resolve maps a team name to its index.
func (l *League) Resolve(name string) (int, error) {
	i, ok := l.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTeam, name)
	}
	return i, nil
}

// SameDivision reports whether teams i and j are divisional rivals.
func (l *League) SameDivision(i, j int) bool {
	return i != j && l.teams[i].Division == l.teams[j].Division
}
