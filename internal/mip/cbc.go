package mip

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CBC solves models with the COIN-OR CBC command line solver. The model is
// written to a scratch directory in MPS format, cbc is run on it, and the
// solution file it leaves behind is read back.
type CBC struct {
	// Command is the cbc executable. Empty means "cbc" on PATH.
	Command string

	// OnOutput, when set, is called with each line of the solver's console
	// output as it runs.
	OnOutput func(line string)
}

func (c CBC) command() string {
	if c.Command == "" {
		return "cbc"
	}
	return c.Command
}

func (c CBC) Solve(ctx context.Context, m *Model, p Params) (*Solution, error) {
	start := time.Now()
	if err := m.Err(); err != nil {
		return &Solution{Status: StatusModelInvalid}, fmt.Errorf("invalid model: %w", err)
	}
	bin, err := exec.LookPath(c.command())
	if err != nil {
		return nil, fmt.Errorf("finding cbc: %w", err)
	}

	dir, err := os.MkdirTemp("", "greenleague-cbc-")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	modelPath := filepath.Join(dir, "model.mps")
	if err := writeFile(modelPath, func(w io.Writer) error { return WriteMPS(w, m) }); err != nil {
		return nil, fmt.Errorf("writing model: %w", err)
	}

	args := []string{modelPath}
	if p.TimeLimit > 0 {
		args = append(args, "-sec", strconv.FormatFloat(p.TimeLimit.Seconds(), 'f', -1, 64))
	}
	if p.RelativeGap > 0 {
		args = append(args, "-ratio", strconv.FormatFloat(p.RelativeGap, 'g', -1, 64))
	}
	if p.NodeLimit > 0 {
		args = append(args, "-maxNodes", strconv.FormatInt(p.NodeLimit, 10))
	}
	if len(p.Start) == m.NumVars() {
		startPath := filepath.Join(dir, "start.sol")
		if err := writeFile(startPath, func(w io.Writer) error { return writeStart(w, p.Start) }); err != nil {
			return nil, fmt.Errorf("writing start: %w", err)
		}
		args = append(args, "-mips", startPath)
	}
	solPath := filepath.Join(dir, "model.sol")
	args = append(args, "-timeMode", "elapsed", "-branch", "-printingOptions", "all", "-solution", solPath)

	var out bytes.Buffer
	var w io.Writer = &out
	var lw *lineWriter
	if c.OnOutput != nil {
		lw = &lineWriter{emit: c.OnOutput}
		w = io.MultiWriter(&out, lw)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = w
	runErr := cmd.Run()
	if lw != nil {
		lw.flush()
	}

	sol := &Solution{Status: StatusUnknown}
	if ctx.Err() != nil {
		sol.WallTime = time.Since(start)
		return sol, nil
	}
	if runErr != nil {
		return nil, fmt.Errorf("running cbc: %w: %s", runErr, lastLines(out.String(), 5))
	}

	f, err := os.Open(solPath)
	if err != nil {
		return nil, fmt.Errorf("reading cbc solution: %w", err)
	}
	defer f.Close()
	status, values, err := readSolution(f, m.NumVars())
	if err != nil {
		return nil, fmt.Errorf("reading cbc solution: %w", err)
	}

	bound, haveBound, nodes := parseSummary(out.String())
	sol.Status = status
	sol.Nodes = nodes
	sol.WallTime = time.Since(start)
	if !status.HasSolution() {
		if haveBound {
			sol.BestBound = bound + m.objConst
		}
		return sol, nil
	}

	if broken := m.Violations(values); len(broken) > 0 {
		return nil, fmt.Errorf("cbc returned an assignment that breaks %d constraints, first %q", len(broken), broken[0])
	}
	sol.Values = values
	sol.Objective = m.Objective(values)
	sol.BestBound = sol.Objective
	if haveBound {
		sol.BestBound = math.Min(bound+m.objConst, sol.Objective)
	}
	sol.Gap = relativeGap(sol.Objective, sol.BestBound)
	if p.OnIncumbent != nil {
		p.OnIncumbent(sol.Objective, nodes)
	}
	return sol, nil
}

// lineWriter hands complete lines to emit. Stdout and stderr share one
// writer, and exec copies them from a single goroutine each, so writes are
// serialised with a mutex.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(string)
}

func (l *lineWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf, p...)
	for {
		i := bytes.IndexByte(l.buf, '\n')
		if i < 0 {
			break
		}
		if line := strings.TrimRight(string(l.buf[:i]), "\r"); line != "" {
			l.emit(line)
		}
		l.buf = l.buf[i+1:]
	}
	return len(p), nil
}

func (l *lineWriter) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.buf) > 0 {
		l.emit(string(l.buf))
		l.buf = nil
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeStart writes an assignment in the layout cbc reads with -mips.
func writeStart(w io.Writer, values []bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Stopped on iterations - objective value 0")
	for v, on := range values {
		x := 0
		if on {
			x = 1
		}
		fmt.Fprintf(bw, "%7d %-8s %15d %23d\n", v, colName(v), x, 0)
	}
	return bw.Flush()
}

// solutionStatus reads the first line of a cbc solution file.
func solutionStatus(line string) Status {
	switch {
	case strings.HasPrefix(line, "Optimal"):
		return StatusOptimal
	case strings.HasPrefix(line, "Infeasible"), strings.HasPrefix(line, "Integer infeasible"):
		return StatusInfeasible
	case strings.HasPrefix(line, "Stopped"):
		if strings.Contains(line, "no integer solution") {
			return StatusUnknown
		}
		return StatusFeasible
	default:
		return StatusUnknown
	}
}

// readSolution parses a cbc solution file: a status line, then one
// "index name value reduced-cost" line per row and column, prefixed with
// "**" where the value is infeasible. Rows are skipped.
func readSolution(r io.Reader, n int) (Status, []bool, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return StatusUnknown, nil, err
		}
		return StatusUnknown, nil, errors.New("empty solution file")
	}
	status := solutionStatus(strings.TrimSpace(sc.Text()))

	values := make([]bool, n)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) > 0 && f[0] == "**" {
			f = f[1:]
		}
		if len(f) < 3 || !strings.HasPrefix(f[1], "X") {
			continue
		}
		v, err := strconv.Atoi(f[1][1:])
		if err != nil || v < 0 || v >= n {
			return status, nil, fmt.Errorf("unknown column %q", f[1])
		}
		x, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return status, nil, fmt.Errorf("column %s: bad value %q", f[1], f[2])
		}
		values[v] = x > 0.5
	}
	if err := sc.Err(); err != nil {
		return status, nil, err
	}
	return status, values, nil
}

// parseSummary picks the best bound and node count out of the report cbc
// prints when it finishes.
func parseSummary(out string) (bound float64, haveBound bool, nodes int64) {
	for _, line := range strings.Split(out, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "Lower bound":
			if b, err := strconv.ParseFloat(val, 64); err == nil {
				bound, haveBound = b, true
			}
		case "Enumerated nodes":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				nodes = n
			}
		}
	}
	return bound, haveBound, nodes
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
