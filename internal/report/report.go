// Package report writes the plain-text emissions reports printed by the
// CLI and saved next to generated schedules.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/derekprior/greenleague/internal/season"
)

// WriteEmissions describes a single season. The optimizer objective is
// shown next to the verified figure; the two are not expected to agree.
func WriteEmissions(w io.Writer, o season.Outcome) error {
	ew := &errWriter{w: w}
	ew.printf("Season %d\n", o.Season)
	if o.RunID != "" {
		ew.printf("Run: %s\n", o.RunID)
	}
	if o.Failed() {
		ew.printf("Status: %s\n", o.Status())
		if o.Err != nil {
			ew.printf("Error: %v\n", o.Err)
		}
		return ew.err
	}

	res := o.Result
	ew.printf("Status: %s\n", o.Status())
	ew.printf("%.2f kg CO2\n", o.Emissions.TotalKg)
	ew.printf("%.2f metric tonnes CO2\n", o.Emissions.Tonnes())
	ew.printf("Paired trips: %d\n", o.Emissions.PairedTrips)
	ew.printf("Optimizer objective: %.2f kg CO2\n", res.Objective)
	ew.printf("Approximation gap: %.2f kg CO2\n", o.Emissions.TotalKg-res.Objective)
	ew.printf("Solver gap: %.2f%% after %d nodes in %s\n", 100*res.Gap, res.Nodes, res.WallTime.Round(time.Millisecond))
	if o.Err != nil {
		ew.printf("Warning: %v\n", o.Err)
	}
	if len(o.Violations) > 0 {
		ew.printf("Rule violations (%d):\n", len(o.Violations))
		for _, v := range o.Violations {
			ew.printf("  ✗ %s\n", v)
		}
	}
	return ew.err
}

// WriteTeams lists each team's verified emissions and schedule shape.
func WriteTeams(w io.Writer, o season.Outcome) error {
	if o.Failed() {
		return nil
	}
	s := o.Result.Schedule
	ew := &errWriter{w: w}
	ew.printf("  %-22s %6s %4s %4s %5s %12s\n", "Team", "Games", "Home", "Away", "Prime", "kg CO2")
	for i, name := range s.Teams {
		m := o.Result.TeamMetrics[name]
		kg := 0.0
		if i < len(o.Emissions.PerTeamKg) {
			kg = o.Emissions.PerTeamKg[i]
		}
		ew.printf("  %-22s %6d %4d %4d %5d %12.2f\n", name, m.Games, m.Home, m.Away, m.Primetime, kg)
	}
	return ew.err
}

// WriteSummary lists every season of a multi-season run. Failed seasons
// carry no figure and are left out of the total.
func WriteSummary(w io.Writer, outcomes []season.Outcome) error {
	ew := &errWriter{w: w}
	ew.printf("  %-8s %-10s %16s %14s\n", "Season", "Status", "kg CO2", "tonnes CO2")
	var total float64
	solved := 0
	for _, o := range outcomes {
		if o.Failed() {
			ew.printf("  %-8d %-10s %16s %14s\n", o.Season, o.Status(), "Failed", "-")
			continue
		}
		solved++
		total += o.Emissions.TotalKg
		ew.printf("  %-8d %-10s %16.2f %14.2f\n", o.Season, o.Status(), o.Emissions.TotalKg, o.Emissions.Tonnes())
	}
	ew.printf("\n%d of %d seasons scheduled, %.2f metric tonnes CO2 in total\n", solved, len(outcomes), total/1000)
	return ew.err
}

// Comparison sets a published season against its optimised counterpart.
type Comparison struct {
	Season        int
	ActualTonnes  float64
	OptimalTonnes float64
}

// PercentDecrease is the saving of the optimised season relative to the
// published one.
func (c Comparison) PercentDecrease() float64 {
	if c.ActualTonnes == 0 {
		return 0
	}
	return 100 * (c.ActualTonnes - c.OptimalTonnes) / c.ActualTonnes
}

// WriteComparisons writes comparisons as CSV with the columns
// year,actual_value,optimal_value,percent_decrease.
func WriteComparisons(w io.Writer, comparisons []Comparison) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "actual_value", "optimal_value", "percent_decrease"}); err != nil {
		return err
	}
	for _, c := range comparisons {
		err := cw.Write([]string{
			strconv.Itoa(c.Season),
			strconv.FormatFloat(c.ActualTonnes, 'f', 2, 64),
			strconv.FormatFloat(c.OptimalTonnes, 'f', 2, 64),
			strconv.FormatFloat(c.PercentDecrease(), 'f', 2, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
