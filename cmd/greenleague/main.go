package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/excel"
	"github.com/derekprior/greenleague/internal/logger"
	"github.com/derekprior/greenleague/internal/matchup"
	"github.com/derekprior/greenleague/internal/metrics"
	"github.com/derekprior/greenleague/internal/report"
	"github.com/derekprior/greenleague/internal/season"
	"github.com/derekprior/greenleague/internal/validator"
	"github.com/derekprior/greenleague/internal/verify"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "greenleague",
		Short: "Low-carbon NFL season schedule optimizer",
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")
	load := func() (*config.Config, error) {
		path, err := resolveConfigPath(configFile)
		if err != nil {
			return nil, err
		}
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	rootCmd.AddCommand(initCmd, newMatchupsCmd(load), newScheduleCmd(load), newEmissionsCmd(load))
	return rootCmd
}

type loadFunc func() (*config.Config, error)

func newMatchupsCmd(load loadFunc) *cobra.Command {
	matchupsCmd := &cobra.Command{
		Use:   "matchups",
		Short: "Generate matchup matrices",
	}

	var year int
	var standingsFile, outputFile string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Write the matchup matrix for a season",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runMatchups(cfg, seasonOrDefault(cfg, year), standingsFile, outputFile)
		},
	}
	generateCmd.Flags().IntVar(&year, "season", 0, "Season to generate (default: season.year from config)")
	generateCmd.Flags().StringVar(&standingsFile, "standings", "", "Standings file, best team first (default: standings.pattern from config)")
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "matchups.xlsx", "Output Excel file path")

	matchupsCmd.AddCommand(generateCmd)
	return matchupsCmd
}

func newScheduleCmd(load loadFunc) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate and validate schedules",
	}

	var (
		year        int
		outputFile  string
		reportFile  string
		metricsFile string
	)
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Optimize one season's schedule",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, seasonOrDefault(cfg, year), outputFile, reportFile, metricsFile)
		},
	}
	generateCmd.Flags().IntVar(&year, "season", 0, "Season to schedule (default: season.year from config)")
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "schedule.xlsx", "Output Excel file path")
	generateCmd.Flags().StringVar(&reportFile, "report", "", "Also write the emissions report to this file")
	generateCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	var (
		from, to   int
		parallel   int
		outDir     string
		actual     string
		allMetrics string
	)
	runAllCmd := &cobra.Command{
		Use:          "run-all",
		Short:        "Optimize a range of seasons in parallel",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if parallel > 0 {
				cfg.Solver.Parallel = parallel
			}
			return runAll(cmd.Context(), cfg, from, to, outDir, actual, allMetrics)
		},
	}
	runAllCmd.Flags().IntVar(&from, "from", 0, "First season")
	runAllCmd.Flags().IntVar(&to, "to", 0, "Last season")
	runAllCmd.Flags().IntVar(&parallel, "parallel", 0, "Seasons solved at once (default: solver.parallel from config)")
	runAllCmd.Flags().StringVar(&outDir, "out", ".", "Directory for schedule workbooks and the summary")
	runAllCmd.Flags().StringVar(&actual, "actual", "", `Published schedules to compare against, e.g. "actual/{season}.csv"`)
	runAllCmd.Flags().StringVar(&allMetrics, "metrics-file", "", "Write Prometheus metrics to this file")
	runAllCmd.MarkFlagRequired("from")
	runAllCmd.MarkFlagRequired("to")

	validateCmd := &cobra.Command{
		Use:          "validate <schedule.xlsx>",
		Short:        "Validate a schedule against config rules",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runValidate(cfg, args[0])
		},
	}

	scheduleCmd.AddCommand(generateCmd, runAllCmd, validateCmd)
	return scheduleCmd
}

func newEmissionsCmd(load loadFunc) *cobra.Command {
	emissionsCmd := &cobra.Command{
		Use:   "emissions",
		Short: "Price published schedules",
	}
	actualCmd := &cobra.Command{
		Use:          "actual <games.csv>",
		Short:        "Compute the emissions of a published schedule (home_team, away_team columns)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runActual(cfg, args[0])
		},
	}
	emissionsCmd.AddCommand(actualCmd)
	return emissionsCmd
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New("greenleague", logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
}

func seasonOrDefault(cfg *config.Config, year int) int {
	if year != 0 {
		return year
	}
	return cfg.Season.Year
}

// kickoff is the configured start date, which only applies to the
// configured season.
func kickoff(cfg *config.Config, year int) time.Time {
	if cfg.Season.StartDate == nil || year != cfg.Season.Year {
		return time.Time{}
	}
	return cfg.Season.StartDate.Time
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

func runMatchups(cfg *config.Config, year int, standingsFile, outputPath string) error {
	env, err := season.NewEnv(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	if standingsFile != "" {
		env.Standings = func(int) ([]string, error) { return matchup.LoadStandings(standingsFile) }
	}

	m, err := env.Matchups(year)
	if err != nil {
		return err
	}
	fmt.Printf("✓ %d games for %d teams in %d\n", m.Games(), m.Size(), year)

	f, err := excel.NewMatchupWorkbook(env.League.Names(), m)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("✓ Matchups saved to %s\n", outputPath)
	return nil
}

func runGenerate(ctx context.Context, cfg *config.Config, year int, outputPath, reportPath, metricsPath string) error {
	env, err := season.NewEnv(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	env.Metrics = metrics.New()

	fmt.Printf("Scheduling %d season (%d weeks, %d teams, time limit %s)...\n",
		year, cfg.Season.Weeks, env.League.Size(), cfg.Solver.TimeLimit)
	out := env.Run(ctx, year)

	if err := report.WriteEmissions(os.Stdout, out); err != nil {
		return err
	}
	if !out.Failed() {
		fmt.Println("\nPer Team Metrics:")
		if err := report.WriteTeams(os.Stdout, out); err != nil {
			return err
		}
		if err := saveWorkbook(env, out, kickoff(cfg, year), outputPath); err != nil {
			return err
		}
		fmt.Printf("\n✓ Schedule saved to %s\n", outputPath)
	}

	if reportPath != "" {
		if err := writeReport(reportPath, out); err != nil {
			return err
		}
	}
	if metricsPath != "" {
		if err := env.Metrics.WriteFile(metricsPath); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	if out.Failed() {
		return fmt.Errorf("season %d: %w", year, out.Err)
	}
	return nil
}

func saveWorkbook(env *season.Env, out season.Outcome, start time.Time, path string) error {
	res := out.Result
	f, err := excel.Generate(res.Schedule, start, &excel.Summary{
		Season:    out.Season,
		RunID:     out.RunID,
		Status:    out.Status(),
		Emissions: out.Emissions,
		Objective: res.Objective,
		Gap:       res.Gap,
	})
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := excel.WriteMatrix(f, env.League.Names(), out.Matrix); err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	return nil
}

func writeReport(path string, out season.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.WriteEmissions(f, out); err != nil {
		f.Close()
		return fmt.Errorf("writing report: %w", err)
	}
	return f.Close()
}

func runAll(ctx context.Context, cfg *config.Config, from, to int, outDir, actualPattern, metricsPath string) error {
	seasons, err := season.Seasons(from, to)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	env, err := season.NewEnv(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	env.Metrics = metrics.New()

	fmt.Printf("Scheduling %d seasons, %d at a time...\n", len(seasons), cfg.Solver.Parallel)
	outcomes := env.RunAll(ctx, seasons, cfg.Solver.Parallel)

	var comparisons []report.Comparison
	for _, out := range outcomes {
		if out.Failed() {
			continue
		}
		path := filepath.Join(outDir, fmt.Sprintf("schedule-%d.xlsx", out.Season))
		if err := saveWorkbook(env, out, kickoff(cfg, out.Season), path); err != nil {
			return err
		}
		if actualPattern == "" {
			continue
		}
		actualPath := strings.ReplaceAll(actualPattern, "{season}", strconv.Itoa(out.Season))
		fixtures, err := verify.LoadFixtures(actualPath, env.League)
		if err != nil {
			return err
		}
		actual := verify.Games(fixtures, env.League.Size(), env.Calc)
		comparisons = append(comparisons, report.Comparison{
			Season:        out.Season,
			ActualTonnes:  actual.Tonnes(),
			OptimalTonnes: out.Emissions.Tonnes(),
		})
	}

	fmt.Println()
	if err := report.WriteSummary(os.Stdout, outcomes); err != nil {
		return err
	}

	summary, err := os.Create(filepath.Join(outDir, "summary.txt"))
	if err != nil {
		return fmt.Errorf("creating summary: %w", err)
	}
	err = report.WriteSummary(summary, outcomes)
	if cerr := summary.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if len(comparisons) > 0 {
		path := filepath.Join(outDir, "results.csv")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating comparison: %w", err)
		}
		err = report.WriteComparisons(f, comparisons)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing comparison: %w", err)
		}
		fmt.Printf("✓ Actual vs optimal written to %s\n", path)
	}

	if metricsPath != "" {
		if err := env.Metrics.WriteFile(metricsPath); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	var failed []string
	for _, out := range outcomes {
		if out.Failed() {
			failed = append(failed, strconv.Itoa(out.Season))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d seasons failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

func runValidate(cfg *config.Config, schedulePath string) error {
	env, err := season.NewEnv(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	res, err := validator.Validate(cfg, env.League, env.Calc, schedulePath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errs := 0
	warnings := 0
	for _, v := range res.Violations {
		where := ""
		if v.Row > 0 {
			where = fmt.Sprintf("row %d: ", v.Row)
		}
		switch v.Type {
		case "error":
			errs++
			fmt.Printf("✗ Rule violation: %s%s\n", where, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Warning: %s%s\n", where, v.Message)
		}
	}
	if res.Matrix == nil {
		fmt.Println("⚠ No Matchups sheet; matchup fulfilment not checked")
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d warnings\n", errs, warnings)
	fmt.Printf("%.2f kg CO2\n%.2f metric tonnes CO2\n%d paired trips\n",
		res.Emissions.TotalKg, res.Emissions.Tonnes(), res.Emissions.PairedTrips)

	// Regenerate team sheets from master schedule
	if err := excel.UpdateTeamSheets(schedulePath, res.Schedule, kickoff(cfg, cfg.Season.Year)); err != nil {
		return fmt.Errorf("updating team sheets: %w", err)
	}
	fmt.Printf("✓ Team sheets updated in %s\n", schedulePath)

	if errs > 0 {
		return fmt.Errorf("%d constraint violations found", errs)
	}
	return nil
}

func runActual(cfg *config.Config, gamesPath string) error {
	env, err := season.NewEnv(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	fixtures, err := verify.LoadFixtures(gamesPath, env.League)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		return errors.New("schedule has no games")
	}
	r := verify.Games(fixtures, env.League.Size(), env.Calc)
	fmt.Printf("%d games\n", len(fixtures))
	fmt.Printf("%.2f kg CO2\n", r.TotalKg)
	fmt.Printf("%.2f metric tonnes CO2\n", r.Tonnes())
	return nil
}
