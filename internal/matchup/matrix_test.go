package matchup

import (
	"strings"
	"testing"
)

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]int{
		{0, 2, 1},
		{2, 0, 0},
		{1, 0, 0},
	})
	if err != nil {
		t.Fatalf("FromRows() error: %v", err)
	}
	if m.Size() != 3 || m.At(2, 0) != 1 || m.GamesFor(0) != 3 {
		t.Errorf("unexpected matrix %v", m.Rows())
	}
	if m.Games() != 3 || m.Sum() != 6 {
		t.Errorf("Games() = %d, Sum() = %d; want 3, 6", m.Games(), m.Sum())
	}

	rows := m.Rows()
	rows[0][1] = 0
	if m.At(0, 1) != 2 {
		t.Error("Rows() must return a copy")
	}
}

func TestFromRowsRejects(t *testing.T) {
	tests := []struct {
		name string
		rows [][]int
		want string
	}{
		{"ragged", [][]int{{0, 1}, {1}}, "columns"},
		{"asymmetric", [][]int{{0, 1}, {2, 0}}, "differ"},
		{"self game", [][]int{{1, 0}, {0, 0}}, "itself"},
		{"out of range", [][]int{{0, 3}, {3, 0}}, "want 0, 1 or 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRows(tt.rows)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestReadStandings(t *testing.T) {
	got, err := ReadStandings(strings.NewReader("# 2024 final\nChiefs\n\n  Lions \nEagles\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Chiefs", "Lions", "Eagles"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ReadStandings() = %v, want %v", got, want)
	}
}
