package validator

import (
	"fmt"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/emissions"
	"github.com/derekprior/greenleague/internal/excel"
	"github.com/derekprior/greenleague/internal/league"
	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/schedule"
	"github.com/derekprior/greenleague/internal/verify"
)

// Violation represents a problem found during validation.
type Violation struct {
	Row     int    // master sheet row, 0 when not tied to one
	Type    string // "error" or "warning"
	Message string
}

// Result is a validated workbook.
type Result struct {
	Schedule   *schedule.Schedule
	Matrix     *matchup.Matrix // nil when the workbook has no Matchups sheet
	Emissions  verify.Report
	Violations []Violation
}

// Errors counts the violations of type "error".
func (r *Result) Errors() int {
	n := 0
	for _, v := range r.Violations {
		if v.Type == "error" {
			n++
		}
	}
	return n
}

// Validate reads a schedule workbook and checks it against the league rules,
// then recomputes its emissions.
func Validate(cfg *config.Config, l *league.League, calc *emissions.Calculator, path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	slots := schedule.GenerateSlots(cfg)
	games, err := excel.ReadGames(f, l, slots)
	if err != nil {
		return nil, fmt.Errorf("reading games: %w", err)
	}

	res := &Result{}
	if idx, _ := f.GetSheetIndex(excel.MatchupsSheet); idx >= 0 {
		if res.Matrix, err = excel.ReadMatrix(f, l, l.Size()); err != nil {
			return nil, fmt.Errorf("reading matchups: %w", err)
		}
	}

	var placed []Violation
	res.Schedule, placed = place(l.Names(), cfg.Season.Weeks, slots, games)
	res.Violations = append(res.Violations, placed...)

	checker := schedule.Checker{League: l, Matrix: res.Matrix, Rules: cfg.Rules}
	for _, v := range checker.Check(res.Schedule) {
		res.Violations = append(res.Violations, Violation{Type: "error", Message: v.String()})
	}

	res.Emissions = verify.Emissions(res.Schedule, calc)
	res.Violations = append(res.Violations, checkRecordedEmissions(f, res.Emissions)...)
	return res, nil
}

// place builds a schedule from the master sheet rows. A game that would
// double-book a team, or falls outside the season, is reported and dropped.
func place(teams []string, weeks int, slots []schedule.Slot, games []excel.GameRow) (*schedule.Schedule, []Violation) {
	s := schedule.New(teams, weeks, slots)
	var violations []Violation
	for _, g := range games {
		switch {
		case g.Week < 1 || g.Week > weeks:
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("week %d is outside the %d-week season", g.Week, weeks),
			})
			continue
		case g.Home == g.Away:
			violations = append(violations, Violation{
				Row:     g.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s is scheduled against itself", teams[g.Home]),
			})
			continue
		}
		busy := false
		for _, team := range []int{g.Away, g.Home} {
			if e := s.Entries[team][g.Week-1]; !e.Bye {
				busy = true
				violations = append(violations, Violation{
					Row:  g.Row,
					Type: "error",
					Message: fmt.Sprintf("%s plays twice in week %d (already against %s)",
						teams[team], g.Week, e.OpponentName),
				})
			}
		}
		if !busy {
			s.SetGame(g.Week, g.Slot, g.Home, g.Away)
		}
	}
	return s, violations
}

// checkRecordedEmissions warns when the figure saved with the schedule no
// longer matches it, as happens after hand edits.
func checkRecordedEmissions(f *excelize.File, got verify.Report) []Violation {
	rows, err := f.GetRows(excel.EmissionsSheet)
	if err != nil {
		return nil
	}
	for _, row := range rows {
		if len(row) < 2 || row[0] != "kg CO2" {
			continue
		}
		recorded, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return []Violation{{Type: "warning", Message: fmt.Sprintf("recorded emissions %q are not a number", row[1])}}
		}
		if math.Abs(recorded-got.TotalKg) > 0.01 {
			return []Violation{{
				Type: "warning",
				Message: fmt.Sprintf("Emissions sheet records %.2f kg CO2 but the schedule emits %.2f kg CO2",
					recorded, got.TotalKg),
			}}
		}
		return nil
	}
	return nil
}
