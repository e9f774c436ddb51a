package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/derekprior/greenleague/internal/logger"
	"github.com/derekprior/greenleague/internal/mip"
)

// ErrInfeasible is returned when no schedule satisfies the rules.
var ErrInfeasible = errors.New("no feasible schedule")

// TimeoutError reports a solve that stopped at its limit without proving
// optimality. With an incumbent the schedule is still returned; without
// one the error unwraps to ErrInfeasible.
type TimeoutError struct {
	Limit     time.Duration
	Gap       float64
	Incumbent bool
}

func (e *TimeoutError) Error() string {
	if e.Incumbent {
		return fmt.Sprintf("solve stopped after %s: not proven optimal, gap = %.2f%%", e.Limit, 100*e.Gap)
	}
	return fmt.Sprintf("solve stopped after %s without a feasible schedule", e.Limit)
}

func (e *TimeoutError) Unwrap() error {
	if e.Incumbent {
		return nil
	}
	return ErrInfeasible
}

// DecodeError means a solved model left a team without a bye or a game in
// some week. It indicates a bug in the model, not in the input.
type DecodeError struct {
	Team string
	Week int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding solution: %s has neither a game nor a bye in week %d", e.Team, e.Week)
}

// Result is the output of one season's optimisation.
type Result struct {
	Schedule    *Schedule
	Status      mip.Status
	Objective   float64
	BestBound   float64
	Gap         float64
	Nodes       int64
	WallTime    time.Duration
	Variables   int
	Constraints int
	TeamMetrics map[string]*TeamMetrics

	// PairedTrips counts the paired road trips the model credited. It
	// should agree with the verified count for the decoded schedule.
	PairedTrips int
}

// Optimize builds the model for p, solves it and decodes the schedule.
// On a timeout with an incumbent it returns the Result alongside a
// *TimeoutError; every other error leaves Result.Schedule nil.
func Optimize(ctx context.Context, p Problem, solver mip.Solver, params mip.Params, log logger.Logger) (*Result, error) {
	m, err := Build(p)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Variables:   m.mip.NumVars(),
		Constraints: m.mip.NumConstraints(),
	}
	log.Infof("model built: %d variables, %d constraints", res.Variables, res.Constraints)

	if p.Start != nil && params.Start == nil {
		params.Start = m.start(p.Start, log)
	}
	if params.OnIncumbent == nil {
		params.OnIncumbent = func(obj float64, nodes int64) {
			log.Debugw("incumbent", map[string]any{"objective": obj, "nodes": nodes})
		}
	}
	sol, err := solver.Solve(ctx, m.mip, params)
	if sol != nil {
		res.Status = sol.Status
		res.Objective = sol.Objective
		res.BestBound = sol.BestBound
		res.Gap = sol.Gap
		res.Nodes = sol.Nodes
		res.WallTime = sol.WallTime
	}
	if err != nil {
		return res, fmt.Errorf("solving: %w", err)
	}
	log.Infof("solve finished: status=%s objective=%.2f gap=%.4f nodes=%d time=%s",
		sol.Status, sol.Objective, sol.Gap, sol.Nodes, sol.WallTime.Round(time.Millisecond))

	switch sol.Status {
	case mip.StatusInfeasible:
		return res, ErrInfeasible
	case mip.StatusUnknown:
		return res, &TimeoutError{Limit: params.TimeLimit}
	case mip.StatusModelInvalid:
		return res, errors.New("solver rejected the model")
	}

	sched, err := m.Decode(sol)
	if err != nil {
		return res, err
	}
	res.Schedule = sched
	res.TeamMetrics = Metrics(sched)
	res.PairedTrips = m.PairedTrips(sol)

	if sol.Status == mip.StatusFeasible {
		log.Warnf("schedule not proven optimal, gap = %.2f%%", 100*sol.Gap)
		return res, &TimeoutError{Limit: params.TimeLimit, Gap: sol.Gap, Incumbent: true}
	}
	return res, nil
}

// start encodes the warm-start schedule, or returns nil with a warning when
// it does not fit the model.
func (m *Model) start(s *Schedule, log logger.Logger) []bool {
	values, err := m.Encode(s)
	if err != nil {
		log.Warnf("ignoring starting schedule: %v", err)
		return nil
	}
	if broken := m.mip.Violations(values); len(broken) > 0 {
		log.Warnf("ignoring starting schedule: it breaks %d constraints, first %q", len(broken), broken[0])
		return nil
	}
	log.Infof("starting from a schedule costing %.2f", m.mip.Objective(values))
	return values
}

// Encode is the inverse of Decode: it sets every variable of the model to
// the value it takes for schedule s. Short-week exceptions are spent only
// in weeks that need one. The assignment is not checked against the
// constraints.
func (m *Model) Encode(s *Schedule) ([]bool, error) {
	if len(s.Teams) != m.n || s.Weeks != m.weeks || len(s.Slots) != m.slots {
		return nil, fmt.Errorf("schedule is %d teams x %d weeks x %d slots, model is %d x %d x %d",
			len(s.Teams), s.Weeks, len(s.Slots), m.n, m.weeks, m.slots)
	}
	values := make([]bool, m.mip.NumVars())
	for i := 0; i < m.n; i++ {
		for w := 0; w < m.weeks; w++ {
			e := s.Entries[i][w]
			switch {
			case e.Bye:
				values[m.bye[i][w]] = true
				continue
			case e.Home:
				values[m.home[i][w]] = true
				continue
			}
			values[m.away[i][w]] = true
			if e.Slot < 0 || e.Slot >= m.slots || e.Opponent < 0 || e.Opponent >= m.n || e.Opponent == i {
				return nil, fmt.Errorf("%s week %d: bad game against team %d in slot %d", s.Teams[i], w+1, e.Opponent, e.Slot)
			}
			v := m.playVar(e.Opponent, i, w, e.Slot)
			if v == noVar {
				return nil, fmt.Errorf("%s at %s in week %d is not in the matchup matrix",
					s.Teams[i], s.Teams[e.Opponent], w+1)
			}
			values[v] = true
		}
	}

	std, early, ok := PairingSlots(m.p.Slots)
	if !ok {
		return values, nil
	}
	awayIn := func(i, w, slot int) bool {
		e := s.Entries[i][w]
		return !e.Bye && !e.Home && e.Slot == slot
	}
	for i := range m.pair {
		for w, v := range m.pair[i] {
			values[v] = awayIn(i, w, std) && awayIn(i, w+1, early)
		}
	}
	for w := 1; w < len(m.short); w++ {
		for i := 0; i < m.n; i++ {
			if awayIn(i, w, early) && !awayIn(i, w-1, std) {
				values[m.short[w]] = true
			}
		}
	}
	return values, nil
}

// PairedTrips counts the pair indicators set in sol.
func (m *Model) PairedTrips(sol *mip.Solution) int {
	trips := 0
	for i := range m.pair {
		for _, v := range m.pair[i] {
			if sol.Value(v) {
				trips++
			}
		}
	}
	return trips
}

// Decode turns a solution into a schedule. Each team-week is read as a bye
// first, then an away game, then a home game.
func (m *Model) Decode(sol *mip.Solution) (*Schedule, error) {
	l := m.p.League
	sched := New(l.Names(), m.weeks, m.p.Slots)
	for i := 0; i < m.n; i++ {
		for w := 0; w < m.weeks; w++ {
			if sol.Value(m.bye[i][w]) {
				continue
			}
			home, away, slot, ok := m.findGame(sol, i, w)
			if !ok {
				return nil, &DecodeError{Team: l.Name(i), Week: w + 1}
			}
			sched.SetGame(w+1, slot, home, away)
		}
	}
	return sched, nil
}

func (m *Model) findGame(sol *mip.Solution, team, w int) (home, away, slot int, ok bool) {
	for _, hosting := range [2]bool{false, true} {
		for other := 0; other < m.n; other++ {
			if other == team {
				continue
			}
			for s := 0; s < m.slots; s++ {
				h, a := other, team
				if hosting {
					h, a = team, other
				}
				if v := m.playVar(h, a, w, s); v != noVar && sol.Value(v) {
					return h, a, s, true
				}
			}
		}
	}
	return 0, 0, 0, false
}
