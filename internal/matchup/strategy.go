package matchup

import (
	"fmt"

	"github.com/derekprior/greenleague/internal/league"
)

// Strategy generates the matchup matrix for a season. standings lists every
// team, best first, and is ignored by strategies that do not seed by rank.
type Strategy interface {
	Generate(l *league.League, season int, standings []string) (*Matrix, error)
}

// Get returns a Strategy by name.
func Get(name string) (Strategy, error) {
	switch name {
	case "nfl_rotation":
		return &Rotation{BaseSeason: 2025}, nil
	case "division_weighted":
		return &DivisionWeighted{}, nil
	case "double_round_robin":
		return &DoubleRoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// DivisionWeighted plays intra-division opponents twice and every other
// team once.
type DivisionWeighted struct{}

func (s *DivisionWeighted) Generate(l *league.League, _ int, _ []string) (*Matrix, error) {
	m := newMatrix(l.Size())
	for i := 0; i < l.Size(); i++ {
		for j := i + 1; j < l.Size(); j++ {
			if l.SameDivision(i, j) {
				m.set(i, j, 2)
			} else {
				m.set(i, j, 1)
			}
		}
	}
	return m, nil
}

// DoubleRoundRobin plays every pair home and away.
type DoubleRoundRobin struct{}

func (s *DoubleRoundRobin) Generate(l *league.League, _ int, _ []string) (*Matrix, error) {
	m := newMatrix(l.Size())
	for i := 0; i < l.Size(); i++ {
		for j := i + 1; j < l.Size(); j++ {
			m.set(i, j, 2)
		}
	}
	return m, nil
}
