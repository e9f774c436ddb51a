package mip

import (
	"context"
	"time"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusModelInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusModelInvalid:
		return "model_invalid"
	default:
		return "unknown"
	}
}

// HasSolution reports whether the status carries an assignment.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Params bound a solve. A zero TimeLimit or NodeLimit means no limit.
type Params struct {
	TimeLimit   time.Duration
	RelativeGap float64
	NodeLimit   int64

	// Start, when set, is a complete assignment to begin from. Backends use
	// it as the first incumbent if it satisfies every constraint.
	Start []bool

	// OnIncumbent, when set, is called each time a better solution is found.
	OnIncumbent func(objective float64, nodes int64)
}

type Solution struct {
	Status    Status
	Values    []bool
	Objective float64
	BestBound float64
	Gap       float64 // relative distance between Objective and BestBound
	Nodes     int64
	WallTime  time.Duration
}

// Value reports the assignment of v.
func (s *Solution) Value(v Var) bool {
	return s.Values != nil && s.Values[v]
}

// Solver is implemented by every optimisation backend.
type Solver interface {
	Solve(ctx context.Context, m *Model, p Params) (*Solution, error)
}
