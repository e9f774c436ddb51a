package matchup

import (
	"fmt"
	"sort"

	"github.com/derekprior/greenleague/internal/league"
)

// Division slots in config order: four divisions of the first conference
// followed by the same four of the second.
const (
	aEast = iota
	aNorth
	aSouth
	aWest
	nEast
	nNorth
	nSouth
	nWest
)

type divPair struct{ a, b int }

// rotationSet is the pairing for one rotation index: divisions that meet in
// full, and divisions that meet team-for-team by standing.
type rotationSet struct {
	full []divPair
	rank []divPair
}

// mirror adds the same intra-conference pairing for the second conference.
func mirror(pairs ...divPair) []divPair {
	out := append([]divPair(nil), pairs...)
	for _, p := range pairs {
		out = append(out, divPair{p.a + nEast, p.b + nEast})
	}
	return out
}

// Intra-conference rotation, three-season cycle.
var conferenceRotation = [3]rotationSet{
	{
		full: mirror(divPair{aNorth, aEast}, divPair{aWest, aSouth}),
		rank: mirror(divPair{aEast, aSouth}, divPair{aEast, aWest}, divPair{aNorth, aSouth}, divPair{aNorth, aWest}),
	},
	{
		full: mirror(divPair{aWest, aEast}, divPair{aSouth, aNorth}),
		rank: mirror(divPair{aEast, aNorth}, divPair{aEast, aSouth}, divPair{aWest, aNorth}, divPair{aWest, aSouth}),
	},
	{
		full: mirror(divPair{aSouth, aEast}, divPair{aWest, aNorth}),
		rank: mirror(divPair{aEast, aNorth}, divPair{aEast, aWest}, divPair{aSouth, aNorth}, divPair{aSouth, aWest}),
	},
}

// Inter-conference rotation, four-season cycle.
var interconferenceRotation = [4]rotationSet{
	{
		full: []divPair{{nSouth, aEast}, {nNorth, aNorth}, {nWest, aSouth}, {nEast, aWest}},
		rank: []divPair{{aEast, nEast}, {aNorth, nWest}, {aSouth, nSouth}, {aWest, nNorth}},
	},
	{
		full: []divPair{{nNorth, aEast}, {nSouth, aNorth}, {nEast, aSouth}, {nWest, aWest}},
		rank: []divPair{{aEast, nWest}, {aNorth, nEast}, {aSouth, nNorth}, {aWest, nSouth}},
	},
	{
		full: []divPair{{nEast, aEast}, {nWest, aNorth}, {nSouth, aSouth}, {nNorth, aWest}},
		rank: []divPair{{aEast, nSouth}, {aNorth, nNorth}, {aSouth, nWest}, {aWest, nEast}},
	},
	{
		full: []divPair{{nWest, aEast}, {nEast, aNorth}, {nNorth, aSouth}, {nSouth, aWest}},
		rank: []divPair{{aEast, nNorth}, {aNorth, nSouth}, {aSouth, nEast}, {aWest, nWest}},
	},
}

// Rotation is the two-conference, eight-division, four-team format. Each
// team plays its division twice, one division of its conference and one of
// the other conference in full, and three same-standing opponents.
type Rotation struct {
	// BaseSeason is the season at which both rotations start at index 0.
	BaseSeason int
}

// Indices returns the intra- and inter-conference rotation indices for a
// season. Seasons before BaseSeason wrap around.
func (s *Rotation) Indices(season int) (conference, interconference int) {
	return mod(season-s.BaseSeason, 3), mod(season-s.BaseSeason, 4)
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

func (s *Rotation) Generate(l *league.League, season int, standings []string) (*Matrix, error) {
	divs := l.Divisions()
	if err := checkRotationShape(divs); err != nil {
		return nil, err
	}

	ranked, err := rankWithinDivisions(l, standings)
	if err != nil {
		return nil, err
	}

	m := newMatrix(l.Size())
	for _, d := range divs {
		for x, i := range d.Teams {
			for _, j := range d.Teams[x+1:] {
				m.set(i, j, 2)
			}
		}
	}

	conf, inter := s.Indices(season)
	for _, set := range []rotationSet{conferenceRotation[conf], interconferenceRotation[inter]} {
		for _, p := range set.full {
			for _, i := range divs[p.a].Teams {
				for _, j := range divs[p.b].Teams {
					m.set(i, j, 1)
				}
			}
		}
		for _, p := range set.rank {
			for k, i := range ranked[p.a] {
				m.set(i, ranked[p.b][k], 1)
			}
		}
	}
	return m, nil
}

func checkRotationShape(divs []league.Division) error {
	if len(divs) != 8 {
		return fmt.Errorf("rotation needs 8 divisions, have %d", len(divs))
	}
	for i, d := range divs {
		if len(d.Teams) != 4 {
			return fmt.Errorf("rotation needs 4 teams per division, %q has %d", d.Name, len(d.Teams))
		}
		if d.Conference != divs[i/4*4].Conference {
			return fmt.Errorf("division %q must be in conference %q", d.Name, divs[i/4*4].Conference)
		}
	}
	if divs[0].Conference == divs[4].Conference {
		return fmt.Errorf("rotation needs two conferences of four divisions")
	}
	return nil
}

// rankWithinDivisions orders each division's teams by their position in
// the league-wide standings.
func rankWithinDivisions(l *league.League, standings []string) ([][]int, error) {
	pos, err := standingPositions(l, standings)
	if err != nil {
		return nil, err
	}
	var out [][]int
	for _, d := range l.Divisions() {
		teams := append([]int(nil), d.Teams...)
		sort.SliceStable(teams, func(a, b int) bool { return pos[teams[a]] < pos[teams[b]] })
		out = append(out, teams)
	}
	return out, nil
}

func standingPositions(l *league.League, standings []string) ([]int, error) {
	pos := make([]int, l.Size())
	for i := range pos {
		pos[i] = -1
	}
	for rank, name := range standings {
		i, err := l.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("standings rank %d: %w", rank+1, err)
		}
		if pos[i] >= 0 {
			return nil, fmt.Errorf("standings list %q twice", name)
		}
		pos[i] = rank
	}
	for i, p := range pos {
		if p < 0 {
			return nil, fmt.Errorf("standings missing team %q", l.Name(i))
		}
	}
	return pos, nil
}
