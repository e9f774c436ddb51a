package mip

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// MPS names: the objective row is OBJ, constraint i is R<i> and variable v
// is X<v>. Model names are free text and never reach the file.
const objRow = "OBJ"

func rowName(i int) string { return "R" + strconv.Itoa(i) }
func colName(v int) string { return "X" + strconv.Itoa(v) }

// rowBounds maps lo <= expr <= hi onto an MPS row type, its right-hand side
// and, for two-sided rows, the width of the range.
func rowBounds(c Constraint) (typ string, rhs, rng int64) {
	switch {
	case c.Lo == c.Hi:
		return "E", c.Lo, 0
	case c.Lo <= -Unbounded && c.Hi >= Unbounded:
		return "N", 0, 0
	case c.Lo <= -Unbounded:
		return "L", c.Hi, 0
	case c.Hi >= Unbounded:
		return "G", c.Lo, 0
	default:
		return "G", c.Lo, c.Hi - c.Lo
	}
}

// formatCoef fits v into the 12 characters of a fixed MPS number field.
func formatCoef(v float64) string {
	for prec := 12; prec > 1; prec-- {
		if s := strconv.FormatFloat(v, 'g', prec, 64); len(s) <= 12 {
			return s
		}
	}
	return strconv.FormatFloat(v, 'g', 1, 64)
}

// WriteMPS writes m as a fixed-format MPS file with every variable binary.
// The objective constant is not written.
func WriteMPS(w io.Writer, m *Model) error {
	if err := m.Err(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	line("NAME          GREENLEAGUE")
	line("ROWS")
	line(" N  %s", objRow)
	for i, c := range m.cons {
		typ, _, _ := rowBounds(c)
		line(" %-2s %s", typ, rowName(i))
	}

	cols := make([][]occurrence, len(m.names))
	for ci, c := range m.cons {
		for _, t := range c.Terms {
			cols[t.Var] = append(cols[t.Var], occurrence{con: int32(ci), coef: t.Coef})
		}
	}
	line("COLUMNS")
	line("    MARKER                 'MARKER'                 'INTORG'")
	for v, occs := range cols {
		name := colName(v)
		// Every column gets an objective entry, even a zero one, so the
		// solver knows about variables that appear in no row.
		line("    %-8s  %-8s  %12s", name, objRow, formatCoef(m.obj[v]))
		for _, o := range occs {
			line("    %-8s  %-8s  %12d", name, rowName(int(o.con)), o.coef)
		}
	}
	line("    MARKER                 'MARKER'                 'INTEND'")

	line("RHS")
	for i, c := range m.cons {
		if _, rhs, _ := rowBounds(c); rhs != 0 {
			line("    %-8s  %-8s  %12d", "RHS", rowName(i), rhs)
		}
	}
	line("RANGES")
	for i, c := range m.cons {
		if _, _, rng := rowBounds(c); rng != 0 {
			line("    %-8s  %-8s  %12d", "RNG", rowName(i), rng)
		}
	}
	line("BOUNDS")
	for v := range cols {
		line(" BV %-8s  %s", "BND", colName(v))
	}
	line("ENDATA")
	return bw.Flush()
}
