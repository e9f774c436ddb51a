package schedule

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/emissions"
	"github.com/derekprior/greenleague/internal/league"
	"github.com/derekprior/greenleague/internal/logger"
	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/mip"
)

// lineDistances places every team on a line, 100 km apart, so nearby
// rivals bus and distant ones fly.
type lineDistances struct{}

func gap(i, j int) float64 {
	if i > j {
		return float64(i - j)
	}
	return float64(j - i)
}

func (lineDistances) FacilityStadium(int) float64 { return 20 }
func (lineDistances) FacilityAirport(int) float64 { return 30 }
func (lineDistances) StadiumAirport(int) float64  { return 25 }
func (lineDistances) FacilityAwayStadium(a, h int) float64 {
	return 100*gap(a, h) + 20
}
func (lineDistances) AirportAirport(i, j int) float64 { return 100 * gap(i, j) }

func toyLeague(t *testing.T) *league.League {
	t.Helper()
	l, err := league.New(&config.Config{
		Divisions: []config.Division{
			{Name: "Solo", Conference: "Only", Teams: []string{"Ants", "Bees", "Crows", "Doves"}},
		},
	})
	if err != nil {
		t.Fatalf("league.New() error: %v", err)
	}
	return l
}

func toyProblem(t *testing.T) Problem {
	t.Helper()
	l := toyLeague(t)
	m, err := (&matchup.DoubleRoundRobin{}).Generate(l, 2025, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	return Problem{
		League: l,
		Matrix: m,
		Calc:   emissions.NewCalculator(lineDistances{}),
		Rules: config.Rules{
			GamesPerTeam:           6,
			MinHomeGames:           3,
			MaxHomeGames:           3,
			FatigueWindow:          4,
			MaxHomeInWindow:        3,
			MaxAwayInWindow:        3,
			NoBackToBackDivisional: true,
		},
		Weeks: 6,
		Slots: []Slot{{Index: 0, Name: "Sunday", Kind: config.Standard, DayOffset: 3}},
	}
}

func TestOptimizeDoubleRoundRobin(t *testing.T) {
	p := toyProblem(t)
	result, err := Optimize(context.Background(), p, mip.BranchAndBound{}, mip.Params{TimeLimit: time.Minute}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if result.Status != mip.StatusOptimal {
		t.Fatalf("status = %s, want optimal", result.Status)
	}
	s := result.Schedule

	t.Run("every pair meets once at each venue", func(t *testing.T) {
		hosted := make(map[[2]int]int)
		for _, g := range s.Games() {
			hosted[[2]int{g.Home, g.Away}]++
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if i == j {
					continue
				}
				if hosted[[2]int{i, j}] != 1 {
					t.Errorf("%s hosted %s %d times, want 1", s.Teams[i], s.Teams[j], hosted[[2]int{i, j}])
				}
			}
		}
	})

	t.Run("no byes", func(t *testing.T) {
		for name, m := range result.TeamMetrics {
			if len(m.ByeWeeks) != 0 || m.Games != 6 || m.Home != 3 {
				t.Errorf("%s metrics = %+v, want 6 games, 3 home, no byes", name, m)
			}
		}
	})

	t.Run("rules hold", func(t *testing.T) {
		c := Checker{League: p.League, Matrix: p.Matrix, Rules: p.Rules}
		for _, v := range c.Check(s) {
			t.Errorf("violation: %s", v)
		}
	})

	t.Run("objective is the total game cost", func(t *testing.T) {
		var want float64
		for h := 0; h < 4; h++ {
			for a := 0; a < 4; a++ {
				if h != a {
					want += p.Calc.Game(a, h)
				}
			}
		}
		if diff := result.Objective - want; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("objective = %.4f, want %.4f", result.Objective, want)
		}
		if result.Gap != 0 {
			t.Errorf("gap = %v, want 0", result.Gap)
		}
	})
}

func TestBuildModelSize(t *testing.T) {
	p := toyProblem(t)
	p.Slots = nflSlots()
	p.Rules.EnforceShortWeek = true
	p.Rules.ShortWeekExceptions = 1

	m, err := Build(p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	// 12 ordered pairs x 6 weeks x 3 slots, home/away/bye per team-week,
	// a pairing indicator per team for weeks 1-5, an exception per week
	// after the first.
	want := 12*6*3 + 3*4*6 + 4*5 + 5
	if got := m.MIP().NumVars(); got != want {
		t.Errorf("variables = %d, want %d", got, want)
	}
	if m.MIP().ObjectiveCoef(m.pair[0][0]) != -p.Calc.AveragePairedSavings(0, p.Matrix) {
		t.Error("pairing indicator should be priced at minus the average pairing saving")
	}
}

func TestBuildWithoutPairingSlots(t *testing.T) {
	p := toyProblem(t)
	p.Rules.EnforceShortWeek = true
	p.Rules.ShortWeekExceptions = 1
	m, err := Build(p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if m.pair != nil || m.short != nil {
		t.Error("a single standard slot should create no pairing or short-week variables")
	}
}

func TestBuildRejectsBadProblem(t *testing.T) {
	p := toyProblem(t)
	p.Slots = nil
	if _, err := Build(p); err == nil {
		t.Error("expected error for no slots")
	}

	p = toyProblem(t)
	p.Matrix, _ = matchup.FromRows([][]int{{0, 2}, {2, 0}})
	if _, err := Build(p); err == nil {
		t.Error("expected error for a matrix smaller than the league")
	}
}

func TestOptimizeInfeasible(t *testing.T) {
	p := toyProblem(t)
	p.Rules.GamesPerTeam = 5
	p.Rules.ByesPerTeam = 1
	p.Rules.ByeWindow = config.Window{First: 0, Last: 0}

	result, err := Optimize(context.Background(), p, mip.BranchAndBound{}, mip.Params{}, logger.NopLogger{})
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("error = %v, want ErrInfeasible", err)
	}
	if result.Schedule != nil {
		t.Error("an infeasible model should not produce a schedule")
	}
}

// stubSolver solves with BranchAndBound and then reports a different
// status, standing in for a backend that hit its time limit.
type stubSolver struct {
	status mip.Status
	gap    float64
}

func (s stubSolver) Solve(ctx context.Context, m *mip.Model, p mip.Params) (*mip.Solution, error) {
	sol, err := mip.BranchAndBound{}.Solve(ctx, m, p)
	if err != nil {
		return sol, err
	}
	sol.Status = s.status
	sol.Gap = s.gap
	if s.status == mip.StatusUnknown {
		sol.Values = nil
	}
	return sol, nil
}

func TestOptimizeTimeout(t *testing.T) {
	t.Run("with incumbent", func(t *testing.T) {
		p := toyProblem(t)
		params := mip.Params{TimeLimit: time.Second}
		result, err := Optimize(context.Background(), p, stubSolver{status: mip.StatusFeasible, gap: 0.02}, params, logger.NopLogger{})

		var te *TimeoutError
		if !errors.As(err, &te) {
			t.Fatalf("error = %v, want *TimeoutError", err)
		}
		if !te.Incumbent || te.Gap != 0.02 {
			t.Errorf("timeout = %+v, want incumbent with gap 0.02", te)
		}
		if errors.Is(err, ErrInfeasible) {
			t.Error("a timeout with an incumbent is not infeasible")
		}
		if result.Schedule == nil {
			t.Error("the incumbent schedule should be returned")
		}
	})

	t.Run("without incumbent", func(t *testing.T) {
		p := toyProblem(t)
		result, err := Optimize(context.Background(), p, stubSolver{status: mip.StatusUnknown}, mip.Params{}, logger.NopLogger{})
		if !errors.Is(err, ErrInfeasible) {
			t.Fatalf("error = %v, want it to wrap ErrInfeasible", err)
		}
		if result.Schedule != nil {
			t.Error("no schedule should be returned without an incumbent")
		}
	})
}

func TestDecodeRejectsEmptyWeek(t *testing.T) {
	m, err := Build(toyProblem(t))
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	sol := &mip.Solution{Status: mip.StatusOptimal, Values: make([]bool, m.MIP().NumVars())}

	_, err = m.Decode(sol)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Team != "Ants" || de.Week != 1 {
		t.Errorf("decode error = %+v, want Ants week 1", de)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p := toyProblem(t)
	m, err := Build(p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	want := mirroredSchedule(p.Slots, 0)

	values, err := m.Encode(want)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if broken := m.MIP().Violations(values); len(broken) != 0 {
		t.Fatalf("encoded schedule breaks %v", broken)
	}
	if got := m.MIP().Objective(values); got <= 0 {
		t.Errorf("objective = %v, want the cost of twelve games", got)
	}

	got, err := m.Decode(&mip.Solution{Status: mip.StatusOptimal, Values: values})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsMismatchedSchedule(t *testing.T) {
	p := toyProblem(t)
	m, err := Build(p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if _, err := m.Encode(New(p.League.Names(), 5, p.Slots)); err == nil {
		t.Error("Encode() accepted a five week schedule for a six week model")
	}

	// Ants and Doves never meet.
	single, err := matchup.FromRows([][]int{
		{0, 1, 1, 0},
		{1, 0, 1, 1},
		{1, 1, 0, 1},
		{0, 1, 1, 0},
	})
	if err != nil {
		t.Fatalf("FromRows() error: %v", err)
	}
	p.Matrix = single
	p.Rules.GamesPerTeam = 3
	p.Weeks = 3
	m, err = Build(p)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	s := New(p.League.Names(), 3, p.Slots)
	s.SetGame(1, 0, 1, 0)
	s.SetGame(1, 0, 3, 2)
	s.SetGame(2, 0, 3, 0)
	if _, err := m.Encode(s); err == nil || !strings.Contains(err.Error(), "not in the matchup matrix") {
		t.Errorf("Encode() error = %v, want a matchup matrix error", err)
	}
}

// startSolver records the warm start it was handed and then solves.
type startSolver struct {
	start *[]bool
}

func (s startSolver) Solve(ctx context.Context, m *mip.Model, p mip.Params) (*mip.Solution, error) {
	*s.start = p.Start
	return mip.BranchAndBound{}.Solve(ctx, m, p)
}

func TestOptimizeWarmStart(t *testing.T) {
	t.Run("valid start is passed on", func(t *testing.T) {
		p := toyProblem(t)
		p.Start = mirroredSchedule(p.Slots, 0)
		var start []bool
		result, err := Optimize(context.Background(), p, startSolver{&start}, mip.Params{TimeLimit: time.Minute}, logger.NopLogger{})
		if err != nil {
			t.Fatalf("Optimize() error: %v", err)
		}
		if start == nil {
			t.Fatal("solver was not given the starting schedule")
		}
		if result.Variables != len(start) {
			t.Errorf("start has %d values, model has %d variables", len(start), result.Variables)
		}
	})

	t.Run("rule-breaking start is dropped", func(t *testing.T) {
		p := toyProblem(t)
		p.Start = mirroredSchedule(p.Slots, 0)
		// Ants take a bye that no rule allows.
		p.Start.Entries[0][0] = Entry{Week: 1, Bye: true, Opponent: -1, Slot: -1}
		var start []bool
		if _, err := Optimize(context.Background(), p, startSolver{&start}, mip.Params{TimeLimit: time.Minute}, logger.NopLogger{}); err != nil {
			t.Fatalf("Optimize() error: %v", err)
		}
		if start != nil {
			t.Error("a start that breaks the rules should not reach the solver")
		}
	})
}
