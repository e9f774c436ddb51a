// Package season runs the whole pipeline for one or more seasons:
// standings, matchups, optimisation, decoding and verification.
package season

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/distance"
	"github.com/derekprior/greenleague/internal/emissions"
	"github.com/derekprior/greenleague/internal/league"
	"github.com/derekprior/greenleague/internal/logger"
	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/metrics"
	"github.com/derekprior/greenleague/internal/mip"
	"github.com/derekprior/greenleague/internal/schedule"
	"github.com/derekprior/greenleague/internal/verify"
)

// Env is shared, read-only state for every season of a run.
type Env struct {
	Config   *config.Config
	League   *league.League
	Calc     *emissions.Calculator
	Strategy matchup.Strategy
	Solver   mip.Solver
	Metrics  *metrics.Recorder
	Log      logger.Logger
	RunID    string

	// Standings returns the ranking used to seed a season. It defaults to
	// reading the configured standings file.
	Standings func(season int) ([]string, error)
}

// NewEnv builds the league and loads the distance tables named in cfg.
func NewEnv(cfg *config.Config, log logger.Logger) (*Env, error) {
	l, err := league.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building league: %w", err)
	}
	tables, err := distance.Load(cfg.Distances, l, log)
	if err != nil {
		return nil, fmt.Errorf("loading distances: %w", err)
	}
	strat, err := matchup.Get(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	e := &Env{
		Config:   cfg,
		League:   l,
		Calc:     emissions.NewCalculator(tables),
		Strategy: strat,
		Log:      log.With("run_id", runID),
		RunID:    runID,
	}
	e.Solver = newSolver(cfg.Solver, e.Log)
	e.Standings = e.loadStandings
	return e, nil
}

// newSolver picks the backend named in the config. cbc console output is
// logged at debug level.
func newSolver(cfg config.Solver, log logger.Logger) mip.Solver {
	if cfg.Backend == config.BackendBranchAndBound {
		return mip.BranchAndBound{}
	}
	out := log.With("solver", config.BackendCBC)
	return mip.CBC{
		Command:  cfg.Command,
		OnOutput: func(line string) { out.Debugf("%s", line) },
	}
}

func (e *Env) loadStandings(season int) ([]string, error) {
	if e.Config.Standings.Pattern == "" {
		return nil, nil
	}
	return matchup.LoadStandings(e.Config.StandingsPath(season))
}

// Matchups generates the matchup matrix for season.
func (e *Env) Matchups(season int) (*matchup.Matrix, error) {
	standings, err := e.Standings(season)
	if err != nil {
		return nil, fmt.Errorf("loading standings: %w", err)
	}
	m, err := e.Strategy.Generate(e.League, season, standings)
	if err != nil {
		return nil, fmt.Errorf("generating matchups: %w", err)
	}
	return m, nil
}

// Outcome is what one season produced. A season with a schedule may still
// carry Err, annotating a solve that was not proven optimal.
type Outcome struct {
	Season     int
	RunID      string
	Matrix     *matchup.Matrix
	Result     *schedule.Result
	Emissions  verify.Report
	Violations []schedule.Violation
	Err        error
}

// Failed reports whether the season produced no schedule.
func (o Outcome) Failed() bool {
	return o.Result == nil || o.Result.Schedule == nil
}

// Status names the outcome for reports and metrics.
func (o Outcome) Status() string {
	if o.Failed() {
		var te *schedule.TimeoutError
		switch {
		case errors.As(o.Err, &te):
			return "timeout"
		case errors.Is(o.Err, schedule.ErrInfeasible):
			return "infeasible"
		default:
			return "failed"
		}
	}
	return o.Result.Status.String()
}

func (e *Env) problem(m *matchup.Matrix) schedule.Problem {
	return schedule.Problem{
		League: e.League,
		Matrix: m,
		Calc:   e.Calc,
		Rules:  e.Config.Rules,
		Weeks:  e.Config.Season.Weeks,
		Slots:  schedule.GenerateSlots(e.Config),
	}
}

func (e *Env) params() mip.Params {
	return mip.Params{
		TimeLimit:   e.Config.Solver.TimeLimit,
		RelativeGap: e.Config.Solver.RelativeGap,
		NodeLimit:   e.Config.Solver.NodeLimit,
	}
}

// Run schedules and verifies a single season.
func (e *Env) Run(ctx context.Context, season int) Outcome {
	log := e.Log.With("season", season)
	out := Outcome{Season: season, RunID: e.RunID}
	defer func() { e.Metrics.ObserveOutcome(out.Status()) }()

	m, err := e.Matchups(season)
	if err != nil {
		out.Err = err
		log.Errorf("%v", err)
		return out
	}
	out.Matrix = m
	log.Infof("generated %d matchups", m.Games())

	p := e.problem(m)
	res, err := schedule.Optimize(ctx, p, e.Solver, e.params(), log)
	out.Result = res
	out.Err = err
	e.Metrics.ObserveSolve(season, res)
	if out.Failed() {
		log.Errorf("no schedule: %v", err)
		return out
	}

	out.Violations = schedule.Checker{League: e.League, Matrix: m, Rules: p.Rules}.Check(res.Schedule)
	for _, v := range out.Violations {
		log.Warnf("schedule check: %s", v)
	}

	out.Emissions = verify.Emissions(res.Schedule, e.Calc)
	e.Metrics.ObserveEmissions(season, out.Emissions)
	log.Infof("verified emissions %.2f kg CO2, %d paired trips, objective %.2f",
		out.Emissions.TotalKg, out.Emissions.PairedTrips, res.Objective)
	if res.PairedTrips != out.Emissions.PairedTrips {
		log.Warnf("model credited %d paired trips, schedule has %d", res.PairedTrips, out.Emissions.PairedTrips)
	}
	return out
}

// RunAll solves independent seasons with at most parallel solves at once.
// Outcomes are returned in the order of seasons; a failed season never
// stops the others.
func (e *Env) RunAll(ctx context.Context, seasons []int, parallel int) []Outcome {
	if parallel < 1 {
		parallel = 1
	}
	outcomes := make([]Outcome, len(seasons))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, s := range seasons {
		i, s := i, s
		g.Go(func() error {
			outcomes[i] = e.Run(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Seasons lists every season from first to last inclusive.
func Seasons(first, last int) ([]int, error) {
	if last < first {
		return nil, fmt.Errorf("season range %d-%d is empty", first, last)
	}
	seasons := make([]int, 0, last-first+1)
	for s := first; s <= last; s++ {
		seasons = append(seasons, s)
	}
	return seasons, nil
}
