package excel

import (
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/schedule"
	"github.com/derekprior/greenleague/internal/verify"
)

const (
	MasterSheet    = "Master Schedule"
	EmissionsSheet = "Emissions"
	MatchupsSheet  = "Matchups"
)

const dateLayout = "01/02/2006"

// Summary is the figure block written to the Emissions sheet.
type Summary struct {
	Season    int
	RunID     string
	Status    string
	Emissions verify.Report
	Objective float64
	Gap       float64
}

// Generate creates a workbook with the master schedule, one sheet per team
// and, when sum is non-nil, an Emissions sheet. Dates are left blank when
// kickoff is zero.
func Generate(s *schedule.Schedule, kickoff time.Time, sum *Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")
	st := newStyles(f)

	if err := writeMasterSheet(f, st, s, kickoff); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}
	if err := writeTeamSheets(f, st, s, kickoff); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}
	if sum != nil {
		if err := writeEmissionsSheet(f, st, s.Teams, sum); err != nil {
			return nil, fmt.Errorf("writing emissions sheet: %w", err)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// NewMatchupWorkbook holds only the Matchups sheet.
func NewMatchupWorkbook(names []string, m *matchup.Matrix) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")
	if err := WriteMatrix(f, names, m); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header int
	cell   int
	center int
	bye    int
}

func newStyles(f *excelize.File) styles {
	var st styles
	st.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 16, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	st.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	st.center, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 16, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	st.bye, _ = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
		Font: &excelize.Font{Size: 16, Family: "Arial"},
	})
	return st
}

// sheetWriter keeps the first error from a run of cell writes.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cellRef(col, row), v)
}

func (w *sheetWriter) style(col, row, style int) {
	if style != 0 {
		w.f.SetCellStyle(w.sheet, cellRef(col, row), cellRef(col, row), style)
	}
}

func (w *sheetWriter) header(st styles, headers ...string) {
	for i, h := range headers {
		w.set(i+1, 1, h)
		w.style(i+1, 1, st.header)
	}
}

func (w *sheetWriter) widths(widths ...float64) {
	for i, width := range widths {
		col := colLetter(i + 1)
		w.f.SetColWidth(w.sheet, col, col, width)
	}
}

func newSheet(f *excelize.File, name string) (*sheetWriter, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("creating sheet %q: %w", name, err)
	}
	return &sheetWriter{f: f, sheet: name}, nil
}

func weekDate(kickoff time.Time, slot schedule.Slot, week int) (date, day string) {
	if kickoff.IsZero() {
		return "", ""
	}
	d := slot.Date(kickoff, week)
	return d.Format(dateLayout), d.Format("Mon")
}

func writeMasterSheet(f *excelize.File, st styles, s *schedule.Schedule, kickoff time.Time) error {
	w, err := newSheet(f, MasterSheet)
	if err != nil {
		return err
	}
	w.header(st, "Week", "Date", "Day", "Slot", "Game")

	for i, g := range s.Games() {
		row := i + 2
		slot := s.Slots[g.Slot]
		date, day := weekDate(kickoff, slot, g.Week)
		w.set(1, row, g.Week)
		w.set(2, row, date)
		w.set(3, row, day)
		w.set(4, row, slot.Name)
		w.set(5, row, fmt.Sprintf("%s @ %s", s.Teams[g.Away], s.Teams[g.Home]))
		for col := 1; col <= 4; col++ {
			w.style(col, row, st.cell)
		}
		w.style(5, row, st.center)
	}

	// Sized for Arial 16
	w.widths(8, 18, 8, 14, 44)
	return w.err
}

func writeTeamSheets(f *excelize.File, st styles, s *schedule.Schedule, kickoff time.Time) error {
	for team, name := range s.Teams {
		if err := writeTeamSheet(f, st, s, team, name, kickoff); err != nil {
			return err
		}
	}
	return nil
}

func writeTeamSheet(f *excelize.File, st styles, s *schedule.Schedule, team int, name string, kickoff time.Time) error {
	w, err := newSheet(f, name)
	if err != nil {
		return err
	}
	w.header(st, "Week", "Date", "Opponent", "Home/Away", "Slot")

	for i, e := range s.Entries[team] {
		row := i + 2
		date := ""
		if !e.Bye {
			date, _ = weekDate(kickoff, s.Slots[e.Slot], e.Week)
		}
		w.set(1, row, e.Week)
		w.set(2, row, date)
		w.set(3, row, e.OpponentLabel())
		w.set(4, row, e.HomeAway())
		w.set(5, row, e.SlotLabel())
		style := st.cell
		if e.Bye {
			style = st.bye
		}
		for col := 1; col <= 5; col++ {
			w.style(col, row, style)
		}
	}

	w.widths(8, 18, 26, 14, 14)
	return w.err
}

func writeEmissionsSheet(f *excelize.File, st styles, teams []string, sum *Summary) error {
	w, err := newSheet(f, EmissionsSheet)
	if err != nil {
		return err
	}
	w.header(st, "Metric", "Value")

	figures := []struct {
		label string
		value any
	}{
		{"Season", sum.Season},
		{"Run", sum.RunID},
		{"Status", sum.Status},
		{"kg CO2", round2(sum.Emissions.TotalKg)},
		{"metric tonnes CO2", round2(sum.Emissions.Tonnes())},
		{"Paired trips", sum.Emissions.PairedTrips},
		{"Optimizer objective (kg CO2)", round2(sum.Objective)},
		{"Approximation gap (kg CO2)", round2(sum.Emissions.TotalKg - sum.Objective)},
		{"Solver gap (%)", round2(100 * sum.Gap)},
	}
	row := 2
	for _, fig := range figures {
		w.set(1, row, fig.label)
		w.set(2, row, fig.value)
		w.style(1, row, st.cell)
		w.style(2, row, st.cell)
		row++
	}

	row++
	w.set(1, row, "Team")
	w.set(2, row, "kg CO2")
	w.style(1, row, st.header)
	w.style(2, row, st.header)
	for i, name := range teams {
		row++
		kg := 0.0
		if i < len(sum.Emissions.PerTeamKg) {
			kg = sum.Emissions.PerTeamKg[i]
		}
		w.set(1, row, name)
		w.set(2, row, round2(kg))
		w.style(1, row, st.cell)
		w.style(2, row, st.cell)
	}

	w.widths(40, 20)
	return w.err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteMatrix adds the Matchups sheet: a team-by-team grid of required
// game counts, labelled in league order on both axes.
func WriteMatrix(f *excelize.File, names []string, m *matchup.Matrix) error {
	if len(names) != m.Size() {
		return fmt.Errorf("%d team names for a %d-team matrix", len(names), m.Size())
	}
	st := newStyles(f)
	w, err := newSheet(f, MatchupsSheet)
	if err != nil {
		return err
	}
	w.header(st, append([]string{"Team"}, names...)...)
	for i, name := range names {
		row := i + 2
		w.set(1, row, name)
		w.style(1, row, st.header)
		for j := range names {
			w.set(j+2, row, m.At(i, j))
			w.style(j+2, row, st.center)
		}
	}
	w.f.SetColWidth(MatchupsSheet, "A", "A", 26)
	return w.err
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
