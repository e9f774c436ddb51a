package schedule

import (
	"sort"
)

// Entry is one team's week: a bye, or a game against Opponent.
type Entry struct {
	Week         int // 1-based
	Bye          bool
	Opponent     int
	OpponentName string
	Home         bool
	Slot         int
	SlotName     string
}

// HomeAway returns "Home", "Away", or "-" for a bye.
func (e Entry) HomeAway() string {
	switch {
	case e.Bye:
		return "-"
	case e.Home:
		return "Home"
	default:
		return "Away"
	}
}

// OpponentLabel returns the opponent's name, or "BYE".
func (e Entry) OpponentLabel() string {
	if e.Bye {
		return "BYE"
	}
	return e.OpponentName
}

// SlotLabel returns the slot name, or "-" for a bye.
func (e Entry) SlotLabel() string {
	if e.Bye {
		return "-"
	}
	return e.SlotName
}

// Game is a single scheduled fixture.
type Game struct {
	Week int // 1-based
	Slot int
	Home int
	Away int
}

// Schedule is the decoded season: Entries[team][week-1].
type Schedule struct {
	Teams   []string
	Weeks   int
	Slots   []Slot
	Entries [][]Entry
}

// New returns a schedule in which every team has a bye every week.
func New(teams []string, weeks int, slots []Slot) *Schedule {
	s := &Schedule{Teams: teams, Weeks: weeks, Slots: slots, Entries: make([][]Entry, len(teams))}
	for i := range s.Entries {
		s.Entries[i] = make([]Entry, weeks)
		for w := range s.Entries[i] {
			s.Entries[i][w] = Entry{Week: w + 1, Bye: true, Opponent: -1, Slot: -1}
		}
	}
	return s
}

// SetGame records home hosting away in the given 1-based week and slot,
// overwriting whatever either team had that week.
func (s *Schedule) SetGame(week, slot, home, away int) {
	name := s.Slots[slot].Name
	s.Entries[home][week-1] = Entry{
		Week: week, Opponent: away, OpponentName: s.Teams[away],
		Home: true, Slot: slot, SlotName: name,
	}
	s.Entries[away][week-1] = Entry{
		Week: week, Opponent: home, OpponentName: s.Teams[home],
		Home: false, Slot: slot, SlotName: name,
	}
}

// Games returns every game ordered by week, slot, then home team.
func (s *Schedule) Games() []Game {
	var games []Game
	for i, entries := range s.Entries {
		for _, e := range entries {
			if !e.Bye && e.Home {
				games = append(games, Game{Week: e.Week, Slot: e.Slot, Home: i, Away: e.Opponent})
			}
		}
	}
	sort.Slice(games, func(a, b int) bool {
		ga, gb := games[a], games[b]
		if ga.Week != gb.Week {
			return ga.Week < gb.Week
		}
		if ga.Slot != gb.Slot {
			return ga.Slot < gb.Slot
		}
		return ga.Home < gb.Home
	})
	return games
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Games     int
	Home      int
	Away      int
	Primetime int
	ByeWeeks  []int
}

// Metrics tallies each team's schedule, keyed by team name.
func Metrics(s *Schedule) map[string]*TeamMetrics {
	metrics := make(map[string]*TeamMetrics, len(s.Teams))
	for i, name := range s.Teams {
		m := &TeamMetrics{}
		for _, e := range s.Entries[i] {
			if e.Bye {
				m.ByeWeeks = append(m.ByeWeeks, e.Week)
				continue
			}
			m.Games++
			if e.Home {
				m.Home++
			} else {
				m.Away++
			}
			if s.Slots[e.Slot].Kind.Prime() {
				m.Primetime++
			}
		}
		metrics[name] = m
	}
	return metrics
}
