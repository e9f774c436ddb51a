package mip

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pickTwo is the cheapest-cover model: choose two of five costed variables.
func pickTwo() (*Model, []Var) {
	m := NewModel()
	var vars []Var
	for i, c := range []float64{5, 1, 4, 2, 3} {
		v := m.NewBoolVar(fmt.Sprintf("x%d", i))
		m.Minimize(v, c)
		vars = append(vars, v)
	}
	m.AddEquality(NewLinearExpr().AddSum(vars...), 2, "pick two")
	return m, vars
}

func mpsEntry(col, row, val string) string {
	return fmt.Sprintf("    %-8s  %-8s  %12s\n", col, row, val)
}

func TestWriteMPS(t *testing.T) {
	m := NewModel()
	x, y, z := m.NewBoolVar("x"), m.NewBoolVar("y"), m.NewBoolVar("z with spaces")
	m.Minimize(x, 12.5)
	m.Minimize(y, -1234.56789012345)
	m.AddEquality(NewLinearExpr().Add(x).Add(y), 1, "eq")
	m.AddLessOrEqual(NewLinearExpr().Add(x).AddTerm(z, -2), 0, "le")
	m.AddGreaterOrEqual(NewLinearExpr().Add(y).Add(z), 1, "ge")
	m.AddLinearConstraint(NewLinearExpr().AddSum(x, y, z), 1, 2, "range")

	var buf bytes.Buffer
	require.NoError(t, WriteMPS(&buf, m))
	out := buf.String()

	for _, want := range []string{
		"NAME          GREENLEAGUE\n",
		"ROWS\n N  OBJ\n E  R0\n L  R1\n G  R2\n G  R3\nCOLUMNS\n",
		"    MARKER                 'MARKER'                 'INTORG'\n",
		mpsEntry("X0", "OBJ", "12.5"),
		mpsEntry("X0", "R0", "1"),
		mpsEntry("X1", "OBJ", "-1234.56789"),
		mpsEntry("X2", "OBJ", "0"),
		mpsEntry("X2", "R1", "-2"),
		"    MARKER                 'MARKER'                 'INTEND'\n",
		mpsEntry("RHS", "R0", "1"),
		mpsEntry("RNG", "R3", "1"),
		" BV BND       X2\n",
		"ENDATA\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "with spaces", "model names stay out of the file")
	assert.NotContains(t, out, "RHS       R1", "zero right-hand sides are omitted")
}

func TestReadSolution(t *testing.T) {
	file := `Stopped on time - objective value 3.00000000
      0 R0                      2                      0
      0 X0                      0                      5
      1 X1                      1                      0
**    2 X2                      0                      4
      3 X3                      1                      0
`
	status, values, err := readSolution(strings.NewReader(file), 5)
	require.NoError(t, err)
	assert.Equal(t, StatusFeasible, status)
	assert.Equal(t, []bool{false, true, false, true, false}, values)

	_, _, err = readSolution(strings.NewReader("Optimal - objective value 0\n 9 X9 1 0\n"), 5)
	assert.Error(t, err, "column outside the model")

	_, _, err = readSolution(strings.NewReader(""), 5)
	assert.Error(t, err)
}

func TestSolutionStatus(t *testing.T) {
	tests := []struct {
		line string
		want Status
	}{
		{"Optimal - objective value 12.00000000", StatusOptimal},
		{"Infeasible - objective value 0.00000000", StatusInfeasible},
		{"Integer infeasible - objective value 0.00000000", StatusInfeasible},
		{"Stopped on time - objective value 12.00000000", StatusFeasible},
		{"Stopped on nodes - objective value 12.00000000", StatusFeasible},
		{"Stopped on time (no integer solution - continuous used) - objective value 3.5", StatusUnknown},
		{"Unbounded - objective value 0", StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, solutionStatus(tt.line), tt.line)
	}
}

func TestParseSummary(t *testing.T) {
	out := `Result - Stopped on time limit

Objective value:                3.00000000
Lower bound:                    2.500
Gap:                            0.20
Enumerated nodes:               1234
Total iterations:               5678
`
	bound, ok, nodes := parseSummary(out)
	assert.True(t, ok)
	assert.Equal(t, 2.5, bound)
	assert.Equal(t, int64(1234), nodes)

	_, ok, _ = parseSummary("Result - Optimal solution found\n")
	assert.False(t, ok)
}

// fakeCBC installs a shell script that records its arguments and the model
// it was given, then answers with the canned solution file and console
// output found in dir.
func fakeCBC(t *testing.T, solution, console string, exit int) (command, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solution"), []byte(solution), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "console"), []byte(console), 0o644))
	script := fmt.Sprintf(`#!/bin/sh
printf '%%s\n' "$@" > %[1]s/args
cp "$1" %[1]s/model.mps
prev=""
for a in "$@"; do
  if [ "$prev" = "-solution" ]; then cp %[1]s/solution "$a"; fi
  prev="$a"
done
cat %[1]s/console
exit %[2]d
`, dir, exit)
	command = filepath.Join(dir, "cbc")
	require.NoError(t, os.WriteFile(command, []byte(script), 0o755))
	return command, dir
}

func TestCBCSolve(t *testing.T) {
	m, vars := pickTwo()
	command, dir := fakeCBC(t,
		"Optimal - objective value 3.00000000\n      0 R0  2  0\n      0 X0  0  5\n      1 X1  1  0\n      2 X2  0  3\n      3 X3  1  0\n      4 X4  0  1\n",
		"Result - Optimal solution found\n\nObjective value:  3.00000000\nEnumerated nodes:  0\n", 0)

	var console []string
	var incumbents int
	onOutput := func(line string) { console = append(console, line) }
	sol, err := CBC{Command: command, OnOutput: onOutput}.Solve(context.Background(), m, Params{
		TimeLimit:   90 * time.Second,
		RelativeGap: 0.005,
		NodeLimit:   1000,
		OnIncumbent: func(float64, int64) { incumbents++ },
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.True(t, sol.Value(vars[1]))
	assert.True(t, sol.Value(vars[3]))
	assert.InDelta(t, 3.0, sol.Objective, 1e-9)
	assert.Equal(t, sol.Objective, sol.BestBound)
	assert.Zero(t, sol.Gap)
	assert.Equal(t, 1, incumbents)
	assert.Equal(t, []string{"Result - Optimal solution found", "Objective value:  3.00000000", "Enumerated nodes:  0"}, console)

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	for _, want := range []string{"-sec\n90\n", "-ratio\n0.005\n", "-maxNodes\n1000\n", "-timeMode\nelapsed\n", "-branch\n"} {
		assert.Contains(t, string(args), want)
	}
	assert.NotContains(t, string(args), "-mips", "no start was given")

	model, err := os.ReadFile(filepath.Join(dir, "model.mps"))
	require.NoError(t, err)
	assert.Contains(t, string(model), " E  R0\n")
	assert.Contains(t, string(model), mpsEntry("RHS", "R0", "2"))
}

func TestCBCStoppedWithIncumbent(t *testing.T) {
	m, _ := pickTwo()
	command, dir := fakeCBC(t,
		"Stopped on time - objective value 4.00000000\n      1 X1  1  0\n      2 X2  0  0\n      4 X4  1  0\n",
		"Result - Stopped on time limit\n\nObjective value:  4.00000000\nLower bound:  3.000\nEnumerated nodes:  17\n", 0)

	start := []bool{false, true, false, false, true}
	sol, err := CBC{Command: command}.Solve(context.Background(), m, Params{Start: start})
	require.NoError(t, err)
	assert.Equal(t, StatusFeasible, sol.Status)
	assert.InDelta(t, 4.0, sol.Objective, 1e-9)
	assert.InDelta(t, 3.0, sol.BestBound, 1e-9)
	assert.InDelta(t, 0.25, sol.Gap, 1e-9)
	assert.Equal(t, int64(17), sol.Nodes)

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "-mips\n")
	assert.NotContains(t, string(args), "-sec", "no time limit was given")
}

func TestCBCWithoutSolution(t *testing.T) {
	m, _ := pickTwo()
	command, _ := fakeCBC(t, "Infeasible - objective value 0.00000000\n", "Result - Linear relaxation infeasible\n", 0)
	sol, err := CBC{Command: command}.Solve(context.Background(), m, Params{})
	require.NoError(t, err)
	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Nil(t, sol.Values)

	command, _ = fakeCBC(t, "Stopped on time (no integer solution - continuous used) - objective value 2.5\n",
		"Result - Stopped on time limit\n\nLower bound:  2.500\n", 0)
	sol, err = CBC{Command: command}.Solve(context.Background(), m, Params{})
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, sol.Status)
	assert.Nil(t, sol.Values)
	assert.InDelta(t, 2.5, sol.BestBound, 1e-9)
}

func TestCBCRejectsBrokenAssignment(t *testing.T) {
	m, _ := pickTwo()
	command, _ := fakeCBC(t, "Optimal - objective value 1.00000000\n      1 X1  1  0\n", "", 0)
	_, err := CBC{Command: command}.Solve(context.Background(), m, Params{})
	assert.ErrorContains(t, err, "pick two")
}

func TestLineWriter(t *testing.T) {
	var lines []string
	lw := &lineWriter{emit: func(s string) { lines = append(lines, s) }}
	fmt.Fprint(lw, "Cbc0010I After 100 nodes")
	fmt.Fprint(lw, ", 3 on tree\r\n\nCbc0012I Integer solution")
	assert.Equal(t, []string{"Cbc0010I After 100 nodes, 3 on tree"}, lines)
	lw.flush()
	assert.Equal(t, []string{"Cbc0010I After 100 nodes, 3 on tree", "Cbc0012I Integer solution"}, lines)
}

func TestCBCFailures(t *testing.T) {
	m, _ := pickTwo()
	command, _ := fakeCBC(t, "", "Unable to open file\n", 3)
	_, err := CBC{Command: command}.Solve(context.Background(), m, Params{})
	assert.ErrorContains(t, err, "Unable to open file")

	_, err = CBC{Command: filepath.Join(t.TempDir(), "no-such-cbc")}.Solve(context.Background(), m, Params{})
	assert.ErrorContains(t, err, "finding cbc")

	bad := NewModel()
	bad.AddEquality(NewLinearExpr().Add(Var(3)), 1, "bad")
	sol, err := CBC{Command: command}.Solve(context.Background(), bad, Params{})
	assert.Error(t, err)
	assert.Equal(t, StatusModelInvalid, sol.Status)
}

func TestCBCInstalled(t *testing.T) {
	if _, err := exec.LookPath("cbc"); err != nil {
		t.Skip("cbc is not installed")
	}
	m, vars := pickTwo()
	sol, err := CBC{}.Solve(context.Background(), m, Params{TimeLimit: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.InDelta(t, 3.0, sol.Objective, 1e-9)
	assert.True(t, sol.Value(vars[1]))
	assert.True(t, sol.Value(vars[3]))
}
