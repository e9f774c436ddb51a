package schedule

import (
	"errors"
	"fmt"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/emissions"
	"github.com/derekprior/greenleague/internal/league"
	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/mip"
)

// Problem is everything needed to schedule one season.
type Problem struct {
	League *league.League
	Matrix *matchup.Matrix
	Calc   *emissions.Calculator
	Rules  config.Rules
	Weeks  int
	Slots  []Slot

	// Start, when set, is a schedule the solver begins from. It is ignored
	// with a warning if it breaks any rule.
	Start *Schedule
}

func (p Problem) check() error {
	switch {
	case p.League == nil || p.Matrix == nil || p.Calc == nil:
		return errors.New("problem needs a league, a matchup matrix and an emissions calculator")
	case p.Matrix.Size() != p.League.Size():
		return fmt.Errorf("matchup matrix is %dx%d but the league has %d teams",
			p.Matrix.Size(), p.Matrix.Size(), p.League.Size())
	case p.Weeks < 1:
		return errors.New("season must have at least one week")
	case len(p.Slots) == 0:
		return errors.New("at least one slot is required")
	}
	return nil
}

const noVar mip.Var = -1

// Model is the 0-1 program for one season together with the variable
// layout needed to decode a solution.
type Model struct {
	p   Problem
	mip *mip.Model

	n, weeks, slots int

	// play[((home*n+away)*weeks+w)*slots+s], noVar where the pair has no game.
	play  []mip.Var
	home  [][]mip.Var
	away  [][]mip.Var
	bye   [][]mip.Var
	pair  [][]mip.Var // pair[team][w] for w < weeks-1; nil without pairing slots
	short []mip.Var   // short[w] for w >= 1; nil when no exceptions are allowed

	savings []float64
}

// MIP returns the underlying program.
func (m *Model) MIP() *mip.Model { return m.mip }

// Problem returns the problem the model was built from.
func (m *Model) Problem() Problem { return m.p }

func (m *Model) playVar(home, away, w, s int) mip.Var {
	return m.play[((home*m.n+away)*m.weeks+w)*m.slots+s]
}

// Build constructs the variables, constraints and objective for p. Every
// row is added before the model is returned; nothing is added during a
// solve.
func Build(p Problem) (*Model, error) {
	if err := p.check(); err != nil {
		return nil, err
	}
	n, weeks, slots := p.League.Size(), p.Weeks, len(p.Slots)
	m := &Model{
		p:       p,
		mip:     mip.NewModel(),
		n:       n,
		weeks:   weeks,
		slots:   slots,
		play:    make([]mip.Var, n*n*weeks*slots),
		savings: make([]float64, n),
	}
	m.addVariables()
	m.addMatchupRows()
	m.addWeeklyRows()
	m.addSeasonRows()
	m.addFatigueRows()
	m.addRematchRows()
	m.addSharedVenueRows()
	m.addPrimeSlotRows()
	m.addShortWeekRows()
	m.addPairingRows()
	if err := m.mip.Err(); err != nil {
		return nil, fmt.Errorf("building model: %w", err)
	}
	return m, nil
}

func (m *Model) addVariables() {
	p := m.p
	for i := range m.play {
		m.play[i] = noVar
	}
	for h := 0; h < m.n; h++ {
		for a := 0; a < m.n; a++ {
			if h == a || p.Matrix.At(h, a) == 0 {
				continue
			}
			cost := p.Calc.Game(a, h)
			for w := 0; w < m.weeks; w++ {
				for s := 0; s < m.slots; s++ {
					v := m.mip.NewBoolVar(fmt.Sprintf("play_%d_%d_%d_%d", a, h, w, s))
					m.mip.Minimize(v, cost)
					m.play[((h*m.n+a)*m.weeks+w)*m.slots+s] = v
				}
			}
		}
	}

	m.home = m.teamWeekVars("home")
	m.away = m.teamWeekVars("away")
	m.bye = m.teamWeekVars("bye")

	if _, _, ok := PairingSlots(p.Slots); ok && m.weeks > 1 {
		m.pair = make([][]mip.Var, m.n)
		for i := 0; i < m.n; i++ {
			m.savings[i] = p.Calc.AveragePairedSavings(i, p.Matrix)
			m.pair[i] = make([]mip.Var, m.weeks-1)
			for w := range m.pair[i] {
				v := m.mip.NewBoolVar(fmt.Sprintf("pair_%d_%d", i, w))
				m.mip.Minimize(v, -m.savings[i])
				m.pair[i][w] = v
			}
		}
	}

	if m.shortWeekEnforced() && p.Rules.ShortWeekExceptions > 0 {
		m.short = make([]mip.Var, m.weeks)
		for w := 1; w < m.weeks; w++ {
			m.short[w] = m.mip.NewBoolVar(fmt.Sprintf("short_week_exception_%d", w))
		}
	}
}

func (m *Model) teamWeekVars(prefix string) [][]mip.Var {
	vars := make([][]mip.Var, m.n)
	for i := range vars {
		vars[i] = make([]mip.Var, m.weeks)
		for w := range vars[i] {
			vars[i][w] = m.mip.NewBoolVar(fmt.Sprintf("%s_%d_%d", prefix, i, w))
		}
	}
	return vars
}

func (m *Model) shortWeekEnforced() bool {
	_, _, ok := PairingSlots(m.p.Slots)
	return ok && m.p.Rules.EnforceShortWeek && m.weeks > 1
}

// hosted adds every game in which home hosts away to e.
func (m *Model) hosted(e *mip.LinearExpr, home, away int, coef int64) *mip.LinearExpr {
	for w := 0; w < m.weeks; w++ {
		for s := 0; s < m.slots; s++ {
			if v := m.playVar(home, away, w, s); v != noVar {
				e.AddTerm(v, coef)
			}
		}
	}
	return e
}

// weekGames adds every game of team in week w, hosting when home is true.
func (m *Model) weekGames(e *mip.LinearExpr, team, w int, home bool, coef int64) *mip.LinearExpr {
	for other := 0; other < m.n; other++ {
		if other == team {
			continue
		}
		for s := 0; s < m.slots; s++ {
			v := m.playVar(other, team, w, s)
			if home {
				v = m.playVar(team, other, w, s)
			}
			if v != noVar {
				e.AddTerm(v, coef)
			}
		}
	}
	return e
}

// slotGames adds the games of team in week w and slot s.
func (m *Model) slotGames(e *mip.LinearExpr, team, w, s int, home bool, coef int64) *mip.LinearExpr {
	for other := 0; other < m.n; other++ {
		if other == team {
			continue
		}
		v := m.playVar(other, team, w, s)
		if home {
			v = m.playVar(team, other, w, s)
		}
		if v != noVar {
			e.AddTerm(v, coef)
		}
	}
	return e
}

// addMatchupRows requires each hosting direction once for a value of 2 and
// one game in either direction for a value of 1.
func (m *Model) addMatchupRows() {
	l := m.p.League
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			switch m.p.Matrix.At(i, j) {
			case 2:
				m.mip.AddEquality(m.hosted(mip.NewLinearExpr(), i, j, 1), 1,
					fmt.Sprintf("%s hosts %s once", l.Name(i), l.Name(j)))
				m.mip.AddEquality(m.hosted(mip.NewLinearExpr(), j, i, 1), 1,
					fmt.Sprintf("%s hosts %s once", l.Name(j), l.Name(i)))
			case 1:
				e := m.hosted(mip.NewLinearExpr(), i, j, 1)
				m.mip.AddEquality(m.hosted(e, j, i, 1), 1,
					fmt.Sprintf("%s and %s meet once", l.Name(i), l.Name(j)))
			}
		}
	}
}

// addWeeklyRows ties the activity indicators to the game variables and
// requires every team to do exactly one thing each week.
func (m *Model) addWeeklyRows() {
	for i := 0; i < m.n; i++ {
		for w := 0; w < m.weeks; w++ {
			m.mip.AddEquality(mip.NewLinearExpr().AddSum(m.home[i][w], m.away[i][w], m.bye[i][w]), 1,
				fmt.Sprintf("one activity team %d week %d", i, w))
			m.mip.AddEquality(m.weekGames(mip.NewLinearExpr().Add(m.home[i][w]), i, w, true, -1), 0,
				fmt.Sprintf("home link team %d week %d", i, w))
			m.mip.AddEquality(m.weekGames(mip.NewLinearExpr().Add(m.away[i][w]), i, w, false, -1), 0,
				fmt.Sprintf("away link team %d week %d", i, w))
		}
	}

	// Redundant: 2 x games + byes = teams in every week.
	for w := 0; w < m.weeks; w++ {
		e := mip.NewLinearExpr()
		for h := 0; h < m.n; h++ {
			e.Add(m.bye[h][w])
			for a := 0; a < m.n; a++ {
				for s := 0; s < m.slots; s++ {
					if v := m.playVar(h, a, w, s); v != noVar {
						e.AddTerm(v, 2)
					}
				}
			}
		}
		m.mip.AddEquality(e, int64(m.n), fmt.Sprintf("coverage week %d", w))
	}
}

func (m *Model) addSeasonRows() {
	r := m.p.Rules
	for i := 0; i < m.n; i++ {
		games := mip.NewLinearExpr()
		home := mip.NewLinearExpr()
		byes := mip.NewLinearExpr()
		outside := mip.NewLinearExpr()
		for w := 0; w < m.weeks; w++ {
			games.AddSum(m.home[i][w], m.away[i][w])
			home.Add(m.home[i][w])
			byes.Add(m.bye[i][w])
			if r.ByesPerTeam == 0 || !r.ByeWindow.Contains(w+1) {
				outside.Add(m.bye[i][w])
			}
		}
		m.mip.AddEquality(games, int64(r.GamesPerTeam), fmt.Sprintf("games team %d", i))
		m.mip.AddLinearConstraint(home, int64(r.MinHomeGames), int64(r.MaxHomeGames), fmt.Sprintf("home games team %d", i))
		m.mip.AddEquality(byes, int64(r.ByesPerTeam), fmt.Sprintf("byes team %d", i))
		if outside.Len() > 0 {
			m.mip.AddEquality(outside, 0, fmt.Sprintf("bye window team %d", i))
		}
	}
}

func (m *Model) addFatigueRows() {
	r := m.p.Rules
	if r.FatigueWindow <= 0 {
		return
	}
	for i := 0; i < m.n; i++ {
		for start := 0; start+r.FatigueWindow <= m.weeks; start++ {
			home := mip.NewLinearExpr()
			away := mip.NewLinearExpr()
			for w := start; w < start+r.FatigueWindow; w++ {
				home.Add(m.home[i][w])
				away.Add(m.away[i][w])
			}
			m.mip.AddLessOrEqual(home, int64(r.MaxHomeInWindow), fmt.Sprintf("home streak team %d from week %d", i, start))
			m.mip.AddLessOrEqual(away, int64(r.MaxAwayInWindow), fmt.Sprintf("away streak team %d from week %d", i, start))
		}
	}
}

func (m *Model) addRematchRows() {
	if !m.p.Rules.NoBackToBackDivisional {
		return
	}
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if !m.p.League.SameDivision(i, j) {
				continue
			}
			for w := 0; w+1 < m.weeks; w++ {
				e := mip.NewLinearExpr()
				for _, wk := range [2]int{w, w + 1} {
					for s := 0; s < m.slots; s++ {
						if v := m.playVar(i, j, wk, s); v != noVar {
							e.Add(v)
						}
						if v := m.playVar(j, i, wk, s); v != noVar {
							e.Add(v)
						}
					}
				}
				if e.Len() > 0 {
					m.mip.AddLessOrEqual(e, 1, fmt.Sprintf("no rematch %d-%d weeks %d-%d", i, j, w, w+1))
				}
			}
		}
	}
}

// addSharedVenueRows stops two teams with one stadium from both hosting in
// the same week and slot. When they meet, only one of them hosts.
func (m *Model) addSharedVenueRows() {
	for _, pair := range m.p.League.SharedStadiums() {
		for w := 0; w < m.weeks; w++ {
			for s := 0; s < m.slots; s++ {
				e := m.slotGames(mip.NewLinearExpr(), pair[0], w, s, true, 1)
				m.slotGames(e, pair[1], w, s, true, 1)
				if e.Len() > 1 {
					m.mip.AddLessOrEqual(e, 1, fmt.Sprintf("shared venue %d-%d week %d slot %d", pair[0], pair[1], w, s))
				}
			}
		}
	}
}

func (m *Model) addPrimeSlotRows() {
	for _, slot := range m.p.Slots {
		if !slot.Kind.Prime() {
			continue
		}
		for w := 0; w < m.weeks; w++ {
			e := mip.NewLinearExpr()
			for h := 0; h < m.n; h++ {
				for a := 0; a < m.n; a++ {
					if v := m.playVar(h, a, w, slot.Index); v != noVar {
						e.Add(v)
					}
				}
			}
			if e.Len() > 0 {
				m.mip.AddEquality(e, 1, fmt.Sprintf("%s week %d", slot.Name, w))
			}
		}
	}
}

// addShortWeekRows lets a team travel for an early-prime game only straight
// after a standard-slot road game, except for a limited number of weeks.
// The first week has no previous week and is exempt.
func (m *Model) addShortWeekRows() {
	if !m.shortWeekEnforced() {
		return
	}
	std, early, _ := PairingSlots(m.p.Slots)
	for i := 0; i < m.n; i++ {
		for w := 1; w < m.weeks; w++ {
			e := m.slotGames(mip.NewLinearExpr(), i, w, early, false, 1)
			if e.Len() == 0 {
				continue
			}
			m.slotGames(e, i, w-1, std, false, -1)
			if m.short != nil {
				e.AddTerm(m.short[w], -1)
			}
			m.mip.AddLessOrEqual(e, 0, fmt.Sprintf("short week team %d week %d", i, w))
		}
	}
	if m.short != nil {
		m.mip.AddLessOrEqual(mip.NewLinearExpr().AddSum(m.short[1:]...), int64(m.p.Rules.ShortWeekExceptions),
			"short week exceptions")
	}
}

// addPairingRows makes pair[i][w] the AND of "away in the standard slot of
// week w" and "away in the early-prime slot of week w+1".
func (m *Model) addPairingRows() {
	if m.pair == nil {
		return
	}
	std, early, _ := PairingSlots(m.p.Slots)
	for i := 0; i < m.n; i++ {
		for w := 0; w+1 < m.weeks; w++ {
			y := m.pair[i][w]
			m.mip.AddLessOrEqual(m.slotGames(mip.NewLinearExpr().Add(y), i, w, std, false, -1), 0,
				fmt.Sprintf("pair team %d week %d first leg", i, w))
			m.mip.AddLessOrEqual(m.slotGames(mip.NewLinearExpr().Add(y), i, w+1, early, false, -1), 0,
				fmt.Sprintf("pair team %d week %d second leg", i, w))
			both := m.slotGames(mip.NewLinearExpr().AddTerm(y, -1), i, w, std, false, 1)
			m.mip.AddLessOrEqual(m.slotGames(both, i, w+1, early, false, 1), 1,
				fmt.Sprintf("pair team %d week %d both legs", i, w))
		}
	}
}
