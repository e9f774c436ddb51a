package excel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/schedule"
)

// Resolver maps team names to indices.
type Resolver interface {
	Resolve(name string) (int, error)
}

// GameRow is one game read back from the master sheet. Row is the
// 1-based spreadsheet row, for error messages.
type GameRow struct {
	Row  int
	Week int
	Slot int
	Home int
	Away int
}

// ReadGames parses the master sheet. Columns are located by header name so
// that hand-edited sheets with extra columns still read.
func ReadGames(f *excelize.File, teams Resolver, slots []schedule.Slot) ([]GameRow, error) {
	rows, err := f.GetRows(MasterSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MasterSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", MasterSheet)
	}

	cols := map[string]int{"Week": -1, "Slot": -1, "Game": -1}
	for i, h := range rows[0] {
		if _, ok := cols[strings.TrimSpace(h)]; ok {
			cols[strings.TrimSpace(h)] = i
		}
	}
	for name, i := range cols {
		if i < 0 {
			return nil, fmt.Errorf("%s has no %s column", MasterSheet, name)
		}
	}

	slotByName := make(map[string]int, len(slots))
	for _, s := range slots {
		slotByName[s.Name] = s.Index
	}

	var games []GameRow
	var errs []error
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			if c := cols[name]; c < len(row) {
				return strings.TrimSpace(row[c])
			}
			return ""
		}
		if cell("Game") == "" {
			continue
		}
		away, home, ok := parseGameCell(cell("Game"))
		if !ok {
			errs = append(errs, fmt.Errorf("row %d: %q is not \"Away @ Home\"", line, cell("Game")))
			continue
		}
		g := GameRow{Row: line}
		if g.Week, err = strconv.Atoi(cell("Week")); err != nil {
			errs = append(errs, fmt.Errorf("row %d: bad week %q", line, cell("Week")))
			continue
		}
		if g.Slot, ok = slotByName[cell("Slot")]; !ok {
			errs = append(errs, fmt.Errorf("row %d: unknown slot %q", line, cell("Slot")))
			continue
		}
		if g.Home, err = teams.Resolve(home); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", line, err))
			continue
		}
		if g.Away, err = teams.Resolve(away); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", line, err))
			continue
		}
		games = append(games, g)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return games, nil
}

// parseGameCell parses "Away @ Home" and returns (away, home, true).
// Returns ("", "", false) if the cell doesn't match the game format.
func parseGameCell(cell string) (away, home string, ok bool) {
	away, home, ok = strings.Cut(cell, " @ ")
	if !ok {
		return "", "", false
	}
	away, home = strings.TrimSpace(away), strings.TrimSpace(home)
	if away == "" || home == "" {
		return "", "", false
	}
	return away, home, true
}

// ReadMatrix parses the Matchups sheet. Rows and columns may appear in any
// order; each label is resolved to its league index.
func ReadMatrix(f *excelize.File, teams Resolver, n int) (*matchup.Matrix, error) {
	rows, err := f.GetRows(MatchupsSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MatchupsSheet, err)
	}
	if len(rows) != n+1 || len(rows[0]) != n+1 {
		return nil, fmt.Errorf("%s must be a %d-team grid with labels", MatchupsSheet, n)
	}

	colTeam := make([]int, n)
	for j, name := range rows[0][1:] {
		if colTeam[j], err = teams.Resolve(strings.TrimSpace(name)); err != nil {
			return nil, fmt.Errorf("column %s: %w", colLetter(j+2), err)
		}
	}

	grid := make([][]int, n)
	for i := range grid {
		grid[i] = make([]int, n)
	}
	for r, row := range rows[1:] {
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d is empty", r+2)
		}
		i, err := teams.Resolve(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r+2, err)
		}
		for c := 1; c < len(row) && c <= n; c++ {
			v := 0
			if s := strings.TrimSpace(row[c]); s != "" {
				if v, err = strconv.Atoi(s); err != nil {
					return nil, fmt.Errorf("cell %s: %q is not a game count", cellRef(c+1, r+2), s)
				}
			}
			grid[i][colTeam[c-1]] = v
		}
	}
	return matchup.FromRows(grid)
}

// UpdateTeamSheets rewrites every team sheet of the workbook at path from
// s, leaving the master and emissions sheets as they are.
func UpdateTeamSheets(path string, s *schedule.Schedule, kickoff time.Time) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	st := newStyles(f)
	for team, name := range s.Teams {
		if idx, _ := f.GetSheetIndex(name); idx >= 0 {
			if err := f.DeleteSheet(name); err != nil {
				return fmt.Errorf("removing sheet %q: %w", name, err)
			}
		}
		if err := writeTeamSheet(f, st, s, team, name, kickoff); err != nil {
			return err
		}
	}
	return f.Save()
}
