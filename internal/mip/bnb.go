package mip

import (
	"context"
	"fmt"
	"math"
	"time"
)

// BranchAndBound is a depth-first 0-1 solver. Every node propagates bounds
// through the linear constraints, and a subtree is cut once its lower bound
// cannot beat the incumbent by more than the requested relative gap.
//
// The lower bound adds the cost already fixed, every negative objective
// coefficient still free, and for each covering row (all coefficients 1,
// positive lower bound, non-negative costs with at least one positive, no
// variable shared with another covering row) the cheapest way to meet its
// lower bound.
type BranchAndBound struct{}

func (BranchAndBound) Solve(ctx context.Context, m *Model, p Params) (*Solution, error) {
	start := time.Now()
	if err := m.Err(); err != nil {
		return &Solution{Status: StatusModelInvalid}, fmt.Errorf("invalid model: %w", err)
	}

	s := newSearch(ctx, m, p, start)
	sol := &Solution{}

	if s.initialize() {
		s.rootBound = s.lowerBound()
		s.seed()
		s.dfs()
	}

	sol.Nodes = s.nodes
	sol.WallTime = time.Since(start)

	switch {
	case s.have && !s.stopped:
		sol.Status = StatusOptimal
	case s.have:
		sol.Status = StatusFeasible
	case !s.stopped:
		sol.Status = StatusInfeasible
		return sol, nil
	default:
		sol.Status = StatusUnknown
		sol.BestBound = s.rootBound
		return sol, nil
	}

	sol.Values = s.best
	sol.Objective = s.bestObj
	if s.stopped {
		sol.BestBound = math.Min(s.rootBound, s.bestObj)
	} else {
		sol.BestBound = math.Min(s.prunedBound, s.bestObj)
	}
	sol.Gap = relativeGap(sol.Objective, sol.BestBound)
	return sol, nil
}

func relativeGap(obj, bound float64) float64 {
	if obj == bound {
		return 0
	}
	return math.Max(0, (obj-bound)/math.Max(math.Abs(obj), 1e-9))
}

type occurrence struct {
	con  int32
	coef int64
}

const unassigned int8 = -1

type search struct {
	ctx      context.Context
	m        *Model
	params   Params
	deadline time.Time

	occs   [][]occurrence
	minAct []int64
	maxAct []int64
	free   []int32
	maxAbs []int64

	val   []int8
	trail []Var

	queue   []int32
	inQueue []bool

	fixedCost float64

	covers  []int32
	coverOf []int32

	have        bool
	best        []bool
	bestObj     float64
	rootBound   float64
	prunedBound float64

	nodes   int64
	stopped bool
}

func newSearch(ctx context.Context, m *Model, p Params, start time.Time) *search {
	n := m.NumVars()
	nc := m.NumConstraints()
	s := &search{
		ctx:         ctx,
		m:           m,
		params:      p,
		occs:        make([][]occurrence, n),
		minAct:      make([]int64, nc),
		maxAct:      make([]int64, nc),
		free:        make([]int32, nc),
		maxAbs:      make([]int64, nc),
		val:         make([]int8, n),
		inQueue:     make([]bool, nc),
		coverOf:     make([]int32, n),
		prunedBound: math.Inf(1),
	}
	if p.TimeLimit > 0 {
		s.deadline = start.Add(p.TimeLimit)
	}
	for i := range s.val {
		s.val[i] = unassigned
		s.coverOf[i] = -1
	}
	for ci, c := range m.cons {
		for _, t := range c.Terms {
			s.occs[t.Var] = append(s.occs[t.Var], occurrence{con: int32(ci), coef: t.Coef})
			if t.Coef > 0 {
				s.maxAct[ci] += t.Coef
			} else {
				s.minAct[ci] += t.Coef
			}
			if a := abs(t.Coef); a > s.maxAbs[ci] {
				s.maxAbs[ci] = a
			}
		}
		s.free[ci] = int32(len(c.Terms))
	}
	s.findCovers()
	return s
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func (s *search) findCovers() {
	for ci, c := range s.m.cons {
		if c.Lo < 1 || len(c.Terms) == 0 {
			continue
		}
		ok, priced := true, false
		for _, t := range c.Terms {
			if t.Coef != 1 || s.m.obj[t.Var] < 0 || s.coverOf[t.Var] >= 0 {
				ok = false
				break
			}
			if s.m.obj[t.Var] > 0 {
				priced = true
			}
		}
		// Rows whose variables cost nothing add nothing to the bound.
		if !ok || !priced {
			continue
		}
		for _, t := range c.Terms {
			s.coverOf[t.Var] = int32(ci)
		}
		s.covers = append(s.covers, int32(ci))
	}
}

// initialize propagates every row once. It returns false if the model is
// infeasible before any branching.
func (s *search) initialize() bool {
	for ci := range s.m.cons {
		s.enqueue(int32(ci))
	}
	return s.propagate()
}

func (s *search) enqueue(c int32) {
	if !s.inQueue[c] {
		s.inQueue[c] = true
		s.queue = append(s.queue, c)
	}
}

func (s *search) clearQueue() {
	for _, c := range s.queue {
		s.inQueue[c] = false
	}
	s.queue = s.queue[:0]
}

func (s *search) assign(v Var, b int8) {
	s.val[v] = b
	s.trail = append(s.trail, v)
	if b == 1 {
		s.fixedCost += s.m.obj[v]
	}
	for _, o := range s.occs[v] {
		switch {
		case b == 1 && o.coef > 0:
			s.minAct[o.con] += o.coef
		case b == 1:
			s.maxAct[o.con] += o.coef
		case o.coef > 0:
			s.maxAct[o.con] -= o.coef
		default:
			s.minAct[o.con] -= o.coef
		}
		s.free[o.con]--
		s.enqueue(o.con)
	}
}

func (s *search) undo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		b := s.val[v]
		if b == 1 {
			s.fixedCost -= s.m.obj[v]
		}
		for _, o := range s.occs[v] {
			switch {
			case b == 1 && o.coef > 0:
				s.minAct[o.con] -= o.coef
			case b == 1:
				s.maxAct[o.con] -= o.coef
			case o.coef > 0:
				s.maxAct[o.con] += o.coef
			default:
				s.minAct[o.con] += o.coef
			}
			s.free[o.con]++
		}
		s.val[v] = unassigned
	}
}

// propagate drains the queue, fixing every variable whose other value would
// break a row. It returns false on a conflict.
func (s *search) propagate() bool {
	for len(s.queue) > 0 {
		ci := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.inQueue[ci] = false

		c := &s.m.cons[ci]
		if s.minAct[ci] > c.Hi || s.maxAct[ci] < c.Lo {
			s.clearQueue()
			return false
		}
		if s.free[ci] == 0 {
			continue
		}
		if s.minAct[ci]+s.maxAbs[ci] <= c.Hi && s.maxAct[ci]-s.maxAbs[ci] >= c.Lo {
			continue
		}
		for _, t := range c.Terms {
			if s.val[t.Var] != unassigned {
				continue
			}
			up, down := t.Coef, int64(0)
			if t.Coef < 0 {
				up, down = 0, t.Coef
			}
			oneBreaks := s.minAct[ci]+up > c.Hi || s.maxAct[ci]+down < c.Lo
			zeroBreaks := s.minAct[ci]-down > c.Hi || s.maxAct[ci]-up < c.Lo
			switch {
			case oneBreaks && zeroBreaks:
				s.clearQueue()
				return false
			case oneBreaks:
				s.assign(t.Var, 0)
			case zeroBreaks:
				s.assign(t.Var, 1)
			}
			if s.minAct[ci] > c.Hi || s.maxAct[ci] < c.Lo {
				s.clearQueue()
				return false
			}
		}
	}
	return true
}

func (s *search) lowerBound() float64 {
	bound := s.fixedCost + s.m.objConst
	for v, b := range s.val {
		if b == unassigned && s.coverOf[v] < 0 && s.m.obj[v] < 0 {
			bound += s.m.obj[v]
		}
	}
	for _, ci := range s.covers {
		need := s.m.cons[ci].Lo - s.minAct[ci]
		if need <= 0 {
			continue
		}
		cheapest := math.Inf(1)
		for _, t := range s.m.cons[ci].Terms {
			if s.val[t.Var] == unassigned && s.m.obj[t.Var] < cheapest {
				cheapest = s.m.obj[t.Var]
			}
		}
		if !math.IsInf(cheapest, 1) {
			bound += float64(need) * cheapest
		}
	}
	return bound
}

func (s *search) cutoff() float64 {
	tol := math.Max(s.params.RelativeGap*math.Abs(s.bestObj), 1e-9*math.Max(1, math.Abs(s.bestObj)))
	return s.bestObj - tol
}

// pickBranch chooses the next decision. Covering rows that still need ones
// come first, smallest first, trying their cheapest variable at 1. After
// that the lowest free variable is tried at its objective-preferred value.
func (s *search) pickBranch() (Var, int8, bool) {
	bestRow := int32(-1)
	var bestFree int32
	for _, ci := range s.covers {
		if s.m.cons[ci].Lo-s.minAct[ci] <= 0 || s.free[ci] == 0 {
			continue
		}
		if bestRow < 0 || s.free[ci] < bestFree {
			bestRow, bestFree = ci, s.free[ci]
		}
	}
	if bestRow >= 0 {
		pick := Var(-1)
		for _, t := range s.m.cons[bestRow].Terms {
			if s.val[t.Var] != unassigned {
				continue
			}
			if pick < 0 || s.m.obj[t.Var] < s.m.obj[pick] {
				pick = t.Var
			}
		}
		return pick, 1, true
	}
	for v, b := range s.val {
		if b == unassigned {
			if s.m.obj[v] < 0 {
				return Var(v), 1, true
			}
			return Var(v), 0, true
		}
	}
	return 0, 0, false
}

func (s *search) record() {
	obj := s.fixedCost + s.m.objConst
	if s.have && obj >= s.bestObj {
		return
	}
	if s.best == nil {
		s.best = make([]bool, len(s.val))
	}
	for v, b := range s.val {
		s.best[v] = b == 1
	}
	s.bestObj = obj
	s.have = true
	if s.params.OnIncumbent != nil {
		s.params.OnIncumbent(obj, s.nodes)
	}
}

// seed takes Params.Start as the first incumbent when it satisfies every
// row.
func (s *search) seed() {
	start := s.params.Start
	if len(start) != len(s.val) || len(s.m.Violations(start)) > 0 {
		return
	}
	s.best = append([]bool(nil), start...)
	s.bestObj = s.m.Objective(start)
	s.have = true
	if s.params.OnIncumbent != nil {
		s.params.OnIncumbent(s.bestObj, 0)
	}
}

func (s *search) shouldStop() bool {
	if s.stopped {
		return true
	}
	if s.params.NodeLimit > 0 && s.nodes >= s.params.NodeLimit {
		s.stopped = true
		return true
	}
	if s.nodes&1023 == 0 {
		if s.ctx.Err() != nil || (!s.deadline.IsZero() && time.Now().After(s.deadline)) {
			s.stopped = true
			return true
		}
	}
	return false
}

func (s *search) dfs() {
	if s.shouldStop() {
		return
	}
	s.nodes++

	if s.have {
		if b := s.lowerBound(); b >= s.cutoff() {
			if b < s.prunedBound {
				s.prunedBound = b
			}
			return
		}
	}

	v, first, ok := s.pickBranch()
	if !ok {
		s.record()
		return
	}
	for _, b := range [2]int8{first, 1 - first} {
		mark := len(s.trail)
		s.assign(v, b)
		if s.propagate() {
			s.dfs()
		}
		s.undo(mark)
		if s.stopped {
			return
		}
	}
}
