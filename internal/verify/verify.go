// Package verify recomputes the exact emissions of a decoded schedule.
//
// The optimizer prices pairing with an average saving per team; this
// package walks the real schedule instead, so its figure is the one to
// report. The two are expected to differ.
package verify

import (
	"gonum.org/v1/gonum/floats"

	"github.com/derekprior/greenleague/internal/emissions"
	"github.com/derekprior/greenleague/internal/schedule"
)

// Report is the verified emissions of one schedule.
type Report struct {
	TotalKg     float64
	PairedTrips int
	PerTeamKg   []float64
}

// Tonnes is TotalKg in metric tonnes.
func (r Report) Tonnes() float64 {
	return r.TotalKg / 1000
}

// Emissions prices every team's season. A road game in the standard slot
// followed the next week by a road game in the early-prime slot is one
// paired trip, charged once with PairedAway.
func Emissions(s *schedule.Schedule, calc *emissions.Calculator) Report {
	std, early, pairing := schedule.PairingSlots(s.Slots)
	r := Report{PerTeamKg: make([]float64, len(s.Entries))}

	for team, entries := range s.Entries {
		games := make([]schedule.Entry, 0, len(entries))
		for _, e := range entries {
			if !e.Bye {
				games = append(games, e)
			}
		}

		kg := make([]float64, 0, len(games))
		for k := 0; k < len(games); k++ {
			e := games[k]
			if e.Home {
				kg = append(kg, calc.Home(team))
				continue
			}
			if pairing && k+1 < len(games) {
				next := games[k+1]
				if e.Slot == std && !next.Home && next.Slot == early && next.Week == e.Week+1 {
					kg = append(kg, calc.PairedAway(team, e.Opponent, next.Opponent))
					r.PairedTrips++
					k++
					continue
				}
			}
			kg = append(kg, calc.Away(team, e.Opponent))
		}
		r.PerTeamKg[team] = floats.Sum(kg)
	}

	r.TotalKg = floats.Sum(r.PerTeamKg)
	return r
}

// Fixture is one game of a published schedule.
type Fixture struct {
	Home int
	Away int
}

// Games prices a published schedule game by game, with no pairing.
func Games(fixtures []Fixture, n int, calc *emissions.Calculator) Report {
	r := Report{PerTeamKg: make([]float64, n)}
	for _, f := range fixtures {
		r.PerTeamKg[f.Home] += calc.Home(f.Home)
		r.PerTeamKg[f.Away] += calc.Away(f.Away, f.Home)
	}
	r.TotalKg = floats.Sum(r.PerTeamKg)
	return r
}
