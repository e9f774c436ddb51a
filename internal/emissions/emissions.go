// Package emissions prices team travel in kilograms of CO2.
//
// A home game is a bus round trip from the training facility to the team's
// own stadium. An away game is a bus round trip when the host stadium is
// within BusThresholdKM of the facility, and otherwise a bus-fly-bus trip
// flown out and back. A paired trip chains two away games into one loop
// without returning home in between.
package emissions

import (
	"gonum.org/v1/gonum/stat"
)

const (
	BusRate        = 4.256 // kg CO2 per km
	PlaneRate      = 12.3  // kg CO2 per km
	BusThresholdKM = 500.0
)

// Distances is the lookup surface the model needs.
type Distances interface {
	FacilityStadium(team int) float64
	FacilityAirport(team int) float64
	StadiumAirport(team int) float64
	FacilityAwayStadium(away, host int) float64
	AirportAirport(i, j int) float64
}

// Matchups reports how many games two teams must play.
type Matchups interface {
	Size() int
	At(i, j int) int
}

// Calculator computes emissions from a fixed set of distances.
type Calculator struct {
	d Distances
}

func NewCalculator(d Distances) *Calculator {
	return &Calculator{d: d}
}

// Home is the cost to team of playing one home game.
func (c *Calculator) Home(team int) float64 {
	return 2 * c.d.FacilityStadium(team) * BusRate
}

// Away is the cost to team of travelling to host for one game.
func (c *Calculator) Away(team, host int) float64 {
	direct := c.d.FacilityAwayStadium(team, host)
	if direct <= BusThresholdKM {
		return 2 * direct * BusRate
	}
	oneWay := c.d.FacilityAirport(team)*BusRate +
		c.d.AirportAirport(team, host)*PlaneRate +
		c.d.StadiumAirport(host)*BusRate
	return 2 * oneWay
}

// Game is the combined cost of a single game to both teams.
func (c *Calculator) Game(away, host int) float64 {
	return c.Away(away, host) + c.Home(host)
}

// PairedAway is the cost of one road trip covering games at opp1 and then
// opp2. The loop is already closed, so nothing is doubled.
func (c *Calculator) PairedAway(team, opp1, opp2 int) float64 {
	bus := c.d.FacilityAirport(team)*BusRate +
		2*c.d.StadiumAirport(opp1)*BusRate +
		2*c.d.StadiumAirport(opp2)*BusRate +
		c.d.FacilityAirport(team)*BusRate
	fly := c.d.AirportAirport(team, opp1)*PlaneRate +
		c.d.AirportAirport(opp1, opp2)*PlaneRate +
		c.d.AirportAirport(opp2, team)*PlaneRate
	return bus + fly
}

// SeparateAway is the cost of the same two games taken as separate trips.
func (c *Calculator) SeparateAway(team, opp1, opp2 int) float64 {
	return c.Away(team, opp1) + c.Away(team, opp2)
}

// AveragePairedSavings is the mean of SeparateAway - PairedAway over every
// ordered pair of opponents team is required to play, including the same
// opponent twice. It is zero when team has no opponents.
func (c *Calculator) AveragePairedSavings(team int, m Matchups) float64 {
	var opponents []int
	for j := 0; j < m.Size(); j++ {
		if j != team && m.At(team, j) > 0 {
			opponents = append(opponents, j)
		}
	}
	if len(opponents) == 0 {
		return 0
	}
	savings := make([]float64, 0, len(opponents)*len(opponents))
	for _, o1 := range opponents {
		for _, o2 := range opponents {
			savings = append(savings, c.SeparateAway(team, o1, o2)-c.PairedAway(team, o1, o2))
		}
	}
	return stat.Mean(savings, nil)
}
