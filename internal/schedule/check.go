package schedule

import (
	"fmt"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/league"
	"github.com/derekprior/greenleague/internal/matchup"
)

// Violation is a rule a decoded schedule breaks. Week is 0 for
// season-wide problems.
type Violation struct {
	Team    string
	Week    int
	Message string
}

func (v Violation) String() string {
	switch {
	case v.Team == "":
		return v.Message
	case v.Week == 0:
		return fmt.Sprintf("%s: %s", v.Team, v.Message)
	default:
		return fmt.Sprintf("%s week %d: %s", v.Team, v.Week, v.Message)
	}
}

// Checker re-checks a schedule against the league rules. Matrix may be nil
// to skip the matchup fulfilment check.
type Checker struct {
	League *league.League
	Matrix *matchup.Matrix
	Rules  config.Rules
}

// Check returns every violation found in s, in a stable order.
func (c Checker) Check(s *Schedule) []Violation {
	var out []Violation
	out = append(out, c.checkConsistency(s)...)
	out = append(out, c.checkSeason(s)...)
	out = append(out, c.checkFatigue(s)...)
	out = append(out, c.checkMatchups(s)...)
	out = append(out, c.checkRematches(s)...)
	out = append(out, c.checkSharedVenues(s)...)
	out = append(out, c.checkPrimeSlots(s)...)
	out = append(out, c.checkShortWeeks(s)...)
	return out
}

func (c Checker) checkConsistency(s *Schedule) []Violation {
	var out []Violation
	for i, entries := range s.Entries {
		for _, e := range entries {
			if e.Bye {
				continue
			}
			if e.Opponent < 0 || e.Opponent >= len(s.Teams) || e.Opponent == i {
				out = append(out, Violation{s.Teams[i], e.Week, "invalid opponent"})
				continue
			}
			o := s.Entries[e.Opponent][e.Week-1]
			if o.Bye || o.Opponent != i || o.Home == e.Home || o.Slot != e.Slot {
				out = append(out, Violation{s.Teams[i], e.Week,
					fmt.Sprintf("%s does not list the matching game", s.Teams[e.Opponent])})
			}
		}
	}
	return out
}

func (c Checker) checkSeason(s *Schedule) []Violation {
	r := c.Rules
	var out []Violation
	for i, entries := range s.Entries {
		team := s.Teams[i]
		var games, home, byes int
		for _, e := range entries {
			switch {
			case e.Bye:
				byes++
				if r.ByesPerTeam > 0 && !r.ByeWindow.Contains(e.Week) {
					out = append(out, Violation{team, e.Week,
						fmt.Sprintf("bye outside weeks %d-%d", r.ByeWindow.First, r.ByeWindow.Last)})
				}
			case e.Home:
				games++
				home++
			default:
				games++
			}
		}
		if byes != r.ByesPerTeam {
			out = append(out, Violation{team, 0, fmt.Sprintf("%d byes, want %d", byes, r.ByesPerTeam)})
		}
		if games != r.GamesPerTeam {
			out = append(out, Violation{team, 0, fmt.Sprintf("%d games, want %d", games, r.GamesPerTeam)})
		}
		if home < r.MinHomeGames || home > r.MaxHomeGames {
			out = append(out, Violation{team, 0,
				fmt.Sprintf("%d home games, want %d-%d", home, r.MinHomeGames, r.MaxHomeGames)})
		}
	}
	return out
}

func (c Checker) checkFatigue(s *Schedule) []Violation {
	r := c.Rules
	if r.FatigueWindow <= 0 {
		return nil
	}
	var out []Violation
	for i, entries := range s.Entries {
		for start := 0; start+r.FatigueWindow <= len(entries); start++ {
			var home, away int
			for _, e := range entries[start : start+r.FatigueWindow] {
				switch {
				case e.Bye:
				case e.Home:
					home++
				default:
					away++
				}
			}
			if home > r.MaxHomeInWindow {
				out = append(out, Violation{s.Teams[i], start + 1,
					fmt.Sprintf("%d home games in %d weeks", home, r.FatigueWindow)})
			}
			if away > r.MaxAwayInWindow {
				out = append(out, Violation{s.Teams[i], start + 1,
					fmt.Sprintf("%d away games in %d weeks", away, r.FatigueWindow)})
			}
		}
	}
	return out
}

func (c Checker) checkMatchups(s *Schedule) []Violation {
	if c.Matrix == nil {
		return nil
	}
	n := len(s.Teams)
	hosted := make([][]int, n)
	for i := range hosted {
		hosted[i] = make([]int, n)
	}
	for _, g := range s.Games() {
		hosted[g.Home][g.Away]++
	}

	var out []Violation
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ij, ji := hosted[i][j], hosted[j][i]
			var ok bool
			switch c.Matrix.At(i, j) {
			case 2:
				ok = ij == 1 && ji == 1
			case 1:
				ok = ij+ji == 1
			default:
				ok = ij+ji == 0
			}
			if !ok {
				out = append(out, Violation{Message: fmt.Sprintf("%s hosts %s %d times and is hosted %d times, matchup requires %d games",
					s.Teams[i], s.Teams[j], ij, ji, c.Matrix.At(i, j))})
			}
		}
	}
	return out
}

func (c Checker) checkRematches(s *Schedule) []Violation {
	if !c.Rules.NoBackToBackDivisional || c.League == nil {
		return nil
	}
	var out []Violation
	for i, entries := range s.Entries {
		for w := 1; w < len(entries); w++ {
			prev, cur := entries[w-1], entries[w]
			if prev.Bye || cur.Bye || prev.Opponent != cur.Opponent {
				continue
			}
			if i < cur.Opponent && c.League.SameDivision(i, cur.Opponent) {
				out = append(out, Violation{s.Teams[i], cur.Week,
					fmt.Sprintf("divisional rematch with %s in consecutive weeks", cur.OpponentName)})
			}
		}
	}
	return out
}

func (c Checker) checkSharedVenues(s *Schedule) []Violation {
	if c.League == nil {
		return nil
	}
	var out []Violation
	for _, pair := range c.League.SharedStadiums() {
		p, q := s.Entries[pair[0]], s.Entries[pair[1]]
		for w := range p {
			if !p[w].Bye && !q[w].Bye && p[w].Home && q[w].Home && p[w].Slot == q[w].Slot {
				out = append(out, Violation{s.Teams[pair[0]], w + 1,
					fmt.Sprintf("shares a stadium with %s and both host in the %s slot", s.Teams[pair[1]], p[w].SlotName)})
			}
		}
	}
	return out
}

func (c Checker) checkPrimeSlots(s *Schedule) []Violation {
	games := s.Games()
	if len(games) == 0 {
		return nil
	}
	counts := make(map[[2]int]int)
	for _, g := range games {
		counts[[2]int{g.Week, g.Slot}]++
	}
	var out []Violation
	for w := 1; w <= s.Weeks; w++ {
		for _, slot := range s.Slots {
			if !slot.Kind.Prime() {
				continue
			}
			if got := counts[[2]int{w, slot.Index}]; got != 1 {
				out = append(out, Violation{Week: w, Message: fmt.Sprintf("week %d has %d %s games, want 1", w, got, slot.Name)})
			}
		}
	}
	return out
}

func (c Checker) checkShortWeeks(s *Schedule) []Violation {
	std, early, ok := PairingSlots(s.Slots)
	if !ok || !c.Rules.EnforceShortWeek {
		return nil
	}
	var short []Violation
	for i, entries := range s.Entries {
		for w := 1; w < len(entries); w++ {
			cur, prev := entries[w], entries[w-1]
			if cur.Bye || cur.Home || cur.Slot != early {
				continue
			}
			if prev.Bye || prev.Home || prev.Slot != std {
				short = append(short, Violation{s.Teams[i], cur.Week, "travels on a short week"})
			}
		}
	}
	if len(short) <= c.Rules.ShortWeekExceptions {
		return nil
	}
	return short
}
