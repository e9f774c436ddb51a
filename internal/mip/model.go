// Package mip describes 0-1 integer programs independently of the engine
// that solves them. A Model holds Boolean variables, integer linear
// constraints lo <= sum(coef*x) <= hi and a linear objective to minimise.
package mip

import (
	"fmt"
	"math"
)

// Unbounded is used as the open side of a one-sided constraint.
const Unbounded int64 = math.MaxInt64 / 4

// Var identifies a Boolean variable in a Model.
type Var int32

// Term is one coefficient of a linear expression.
type Term struct {
	Var  Var
	Coef int64
}

// LinearExpr accumulates terms and a constant.
type LinearExpr struct {
	terms    []Term
	constant int64
}

func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// Add appends v with coefficient 1.
func (e *LinearExpr) Add(v Var) *LinearExpr {
	return e.AddTerm(v, 1)
}

// AddSum appends every variable with coefficient 1.
func (e *LinearExpr) AddSum(vs ...Var) *LinearExpr {
	for _, v := range vs {
		e.AddTerm(v, 1)
	}
	return e
}

// AddWeightedSum appends every variable with the same coefficient.
func (e *LinearExpr) AddWeightedSum(vs []Var, coef int64) *LinearExpr {
	for _, v := range vs {
		e.AddTerm(v, coef)
	}
	return e
}

func (e *LinearExpr) AddTerm(v Var, coef int64) *LinearExpr {
	e.terms = append(e.terms, Term{Var: v, Coef: coef})
	return e
}

func (e *LinearExpr) AddConstant(c int64) *LinearExpr {
	e.constant += c
	return e
}

// Len is the number of terms added so far.
func (e *LinearExpr) Len() int { return len(e.terms) }

// Constraint is a normalised row: duplicate variables merged, zero
// coefficients dropped and the expression constant folded into the bounds.
type Constraint struct {
	Name  string
	Terms []Term
	Lo    int64
	Hi    int64
}

type Model struct {
	names    []string
	obj      []float64
	objConst float64
	cons     []Constraint
	err      error
}

func NewModel() *Model {
	return &Model{}
}

// NewBoolVar adds a 0-1 variable.
func (m *Model) NewBoolVar(name string) Var {
	m.names = append(m.names, name)
	m.obj = append(m.obj, 0)
	return Var(len(m.names) - 1)
}

func (m *Model) NumVars() int        { return len(m.names) }
func (m *Model) NumConstraints() int { return len(m.cons) }

// VarName returns the name given to v.
func (m *Model) VarName(v Var) string { return m.names[v] }

// Constraints returns the constraint rows. Callers must not modify them.
func (m *Model) Constraints() []Constraint { return m.cons }

// ObjectiveCoef returns the objective coefficient of v.
func (m *Model) ObjectiveCoef(v Var) float64 { return m.obj[v] }

// ObjectiveConstant returns the constant part of the objective.
func (m *Model) ObjectiveConstant() float64 { return m.objConst }

// Err reports the first construction error, such as a term that refers to
// a variable from another model.
func (m *Model) Err() error { return m.err }

// AddLinearConstraint requires lo <= e <= hi.
func (m *Model) AddLinearConstraint(e *LinearExpr, lo, hi int64, name string) {
	merged := make(map[Var]int64, len(e.terms))
	var order []Var
	for _, t := range e.terms {
		if t.Var < 0 || int(t.Var) >= len(m.names) {
			if m.err == nil {
				m.err = fmt.Errorf("constraint %q: unknown variable %d", name, t.Var)
			}
			return
		}
		if _, ok := merged[t.Var]; !ok {
			order = append(order, t.Var)
		}
		merged[t.Var] += t.Coef
	}
	c := Constraint{Name: name, Lo: lo, Hi: hi}
	if lo > -Unbounded {
		c.Lo = lo - e.constant
	}
	if hi < Unbounded {
		c.Hi = hi - e.constant
	}
	for _, v := range order {
		if coef := merged[v]; coef != 0 {
			c.Terms = append(c.Terms, Term{Var: v, Coef: coef})
		}
	}
	if c.Lo > c.Hi && m.err == nil {
		m.err = fmt.Errorf("constraint %q: empty range [%d, %d]", name, c.Lo, c.Hi)
	}
	m.cons = append(m.cons, c)
}

// AddEquality requires e == rhs.
func (m *Model) AddEquality(e *LinearExpr, rhs int64, name string) {
	m.AddLinearConstraint(e, rhs, rhs, name)
}

// AddLessOrEqual requires e <= rhs.
func (m *Model) AddLessOrEqual(e *LinearExpr, rhs int64, name string) {
	m.AddLinearConstraint(e, -Unbounded, rhs, name)
}

// AddGreaterOrEqual requires e >= rhs.
func (m *Model) AddGreaterOrEqual(e *LinearExpr, rhs int64, name string) {
	m.AddLinearConstraint(e, rhs, Unbounded, name)
}

// Minimize adds coef*v to the objective.
func (m *Model) Minimize(v Var, coef float64) {
	m.obj[v] += coef
}

// AddObjectiveConstant adds a constant to the objective.
func (m *Model) AddObjectiveConstant(c float64) {
	m.objConst += c
}

// Objective evaluates the objective for an assignment.
func (m *Model) Objective(values []bool) float64 {
	total := m.objConst
	for v, on := range values {
		if on {
			total += m.obj[v]
		}
	}
	return total
}

// Violations returns the names of constraints the assignment breaks.
func (m *Model) Violations(values []bool) []string {
	var out []string
	for _, c := range m.cons {
		var act int64
		for _, t := range c.Terms {
			if values[t.Var] {
				act += t.Coef
			}
		}
		if act < c.Lo || act > c.Hi {
			out = append(out, c.Name)
		}
	}
	return out
}
