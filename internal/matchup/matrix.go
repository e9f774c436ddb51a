package matchup

import (
	"fmt"
)

// Matrix records how many times each pair of teams must meet: 0 for no game,
// 1 for a single game with the host left open, 2 for a home-and-home
// series. It is symmetric and immutable once built.
type Matrix struct {
	n     int
	cells []int
}

func newMatrix(n int) *Matrix {
	return &Matrix{n: n, cells: make([]int, n*n)}
}

func (m *Matrix) set(i, j, v int) {
	m.cells[i*m.n+j] = v
	m.cells[j*m.n+i] = v
}

// FromRows builds a Matrix from a square grid, rejecting grids that are not
// symmetric, have games on the diagonal, or hold values outside {0, 1, 2}.
func FromRows(rows [][]int) (*Matrix, error) {
	n := len(rows)
	m := newMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v < 0 || v > 2 {
				return nil, fmt.Errorf("cell (%d, %d) = %d, want 0, 1 or 2", i, j, v)
			}
			if i == j && v != 0 {
				return nil, fmt.Errorf("team %d is scheduled against itself", i)
			}
			m.cells[i*n+j] = v
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.At(i, j) != m.At(j, i) {
				return nil, fmt.Errorf("cells (%d, %d) and (%d, %d) differ", i, j, j, i)
			}
		}
	}
	return m, nil
}

// Size is the number of teams.
func (m *Matrix) Size() int { return m.n }

// At returns the required game count between i and j.
func (m *Matrix) At(i, j int) int { return m.cells[i*m.n+j] }

// Rows returns a copy of the grid.
func (m *Matrix) Rows() [][]int {
	rows := make([][]int, m.n)
	for i := range rows {
		rows[i] = append([]int(nil), m.cells[i*m.n:(i+1)*m.n]...)
	}
	return rows
}

// GamesFor is the number of games team i plays.
func (m *Matrix) GamesFor(i int) int {
	total := 0
	for j := 0; j < m.n; j++ {
		total += m.At(i, j)
	}
	return total
}

// Games is the number of games in the season.
func (m *Matrix) Games() int {
	total := 0
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			total += m.At(i, j)
		}
	}
	return total
}

// Sum adds every cell. For a symmetric matrix it is twice Games.
func (m *Matrix) Sum() int {
	total := 0
	for _, v := range m.cells {
		total += v
	}
	return total
}
