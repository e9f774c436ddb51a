package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// GREENLEAGUE_SOLVER__TIME_LIMIT=10m.
const EnvPrefix = "GREENLEAGUE_"

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// SlotKind classifies a weekly broadcast window.
type SlotKind string

const (
	EarlyPrime SlotKind = "early_prime"
	Standard   SlotKind = "standard"
	LatePrime  SlotKind = "late_prime"
)

// Prime reports whether exactly one league game must be played in this
// kind of slot every week.
func (k SlotKind) Prime() bool {
	return k == EarlyPrime || k == LatePrime
}

type TimeSlot struct {
	Name      string   `yaml:"name"`
	Kind      SlotKind `yaml:"kind"`
	DayOffset int      `yaml:"day_offset"` // days after the start of the week
}

type Division struct {
	Name       string   `yaml:"name"`
	Conference string   `yaml:"conference"`
	Teams      []string `yaml:"teams"`
}

type Season struct {
	Year      int   `yaml:"year"`
	StartDate *Date `yaml:"start_date"`
	Weeks     int   `yaml:"weeks"`
}

// Window is an inclusive range of 1-based week numbers.
type Window struct {
	First int `yaml:"first"`
	Last  int `yaml:"last"`
}

// Contains reports whether the 1-based week falls inside the window.
func (w Window) Contains(week int) bool {
	return week >= w.First && week <= w.Last
}

type Rules struct {
	GamesPerTeam           int    `yaml:"games_per_team"`
	ByesPerTeam            int    `yaml:"byes_per_team"`
	ByeWindow              Window `yaml:"bye_window"`
	MinHomeGames           int    `yaml:"min_home_games"`
	MaxHomeGames           int    `yaml:"max_home_games"`
	FatigueWindow          int    `yaml:"fatigue_window"` // 0 disables the check
	MaxHomeInWindow        int    `yaml:"max_home_in_window"`
	MaxAwayInWindow        int    `yaml:"max_away_in_window"`
	NoBackToBackDivisional bool   `yaml:"no_back_to_back_divisional"`
	EnforceShortWeek       bool   `yaml:"enforce_short_week"`
	ShortWeekExceptions    int    `yaml:"short_week_exceptions"`
}

// Missing-distance policies.
const (
	MissingFailFast    = "fail_fast"
	MissingZeroDefault = "zero_default"
)

type Distances struct {
	Dir                   string `yaml:"dir"`
	FacilityToStadium     string `yaml:"facility_to_stadium"`
	FacilityToAirport     string `yaml:"facility_to_airport"`
	StadiumToAirport      string `yaml:"stadium_to_airport"`
	FacilityToAwayStadium string `yaml:"facility_to_away_stadium"`
	AirportToAirport      string `yaml:"airport_to_airport"`
	Missing               string `yaml:"missing"`
}

type Standings struct {
	// Pattern locates the ranking file for a season; "{season}" is replaced
	// with the season being scheduled.
	Pattern string `yaml:"pattern"`
}

// Solver backends.
const (
	BackendCBC            = "cbc"
	BackendBranchAndBound = "branch_and_bound"
)

type Solver struct {
	Backend     string        `yaml:"backend"`
	Command     string        `yaml:"command"` // cbc executable, defaults to cbc on PATH
	TimeLimit   time.Duration `yaml:"time_limit"`
	RelativeGap float64       `yaml:"relative_gap"`
	NodeLimit   int64         `yaml:"node_limit"`
	Parallel    int           `yaml:"parallel"` // seasons solved at once by run-all
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Season         Season     `yaml:"season"`
	Divisions      []Division `yaml:"divisions"`
	SharedStadiums [][]string `yaml:"shared_stadiums"`
	TimeSlots      []TimeSlot `yaml:"time_slots"`
	Strategy       string     `yaml:"strategy"`
	Rules          Rules      `yaml:"rules"`
	Distances      Distances  `yaml:"distances"`
	Standings      Standings  `yaml:"standings"`
	Solver         Solver     `yaml:"solver"`
	Logging        Logging    `yaml:"logging"`
}

// AllTeams returns all team names across all divisions.
func (c *Config) AllTeams() []string {
	var teams []string
	for _, d := range c.Divisions {
		teams = append(teams, d.Teams...)
	}
	return teams
}

// StandingsPath returns the ranking file used to schedule the given season.
func (c *Config) StandingsPath(season int) string {
	return strings.ReplaceAll(c.Standings.Pattern, "{season}", strconv.Itoa(season))
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads and parses a YAML config file, then applies
// GREENLEAGUE_* environment overrides before validating.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.setDefaults()
	return c.validate()
}

// applyEnv overlays environment variables onto the parsed file. Nested keys
// use a double underscore: GREENLEAGUE_LOGGING__LEVEL=debug.
func (c *Config) applyEnv() error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return err
	}
	if len(k.Keys()) == 0 {
		return nil
	}
	return k.UnmarshalWithConf("", c, koanf.UnmarshalConf{Tag: "yaml"})
}

func (c *Config) setDefaults() {
	if c.Strategy == "" {
		c.Strategy = "nfl_rotation"
	}
	if c.Distances.Missing == "" {
		c.Distances.Missing = MissingFailFast
	}
	if c.Solver.Backend == "" {
		c.Solver.Backend = BackendCBC
	}
	if c.Solver.TimeLimit == 0 {
		c.Solver.TimeLimit = time.Hour
	}
	if c.Solver.RelativeGap == 0 {
		c.Solver.RelativeGap = 0.005
	}
	if c.Solver.Parallel == 0 {
		c.Solver.Parallel = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	if len(c.Divisions) == 0 {
		return fmt.Errorf("at least one division is required")
	}

	// Check for duplicate team names
	seen := make(map[string]string)
	for _, div := range c.Divisions {
		if len(div.Teams) == 0 {
			return fmt.Errorf("division %q has no teams", div.Name)
		}
		for _, team := range div.Teams {
			if prevDiv, ok := seen[team]; ok {
				return fmt.Errorf("team %q appears in both %q and %q divisions", team, prevDiv, div.Name)
			}
			seen[team] = div.Name
		}
	}

	for _, pair := range c.SharedStadiums {
		if len(pair) != 2 {
			return fmt.Errorf("shared stadium entry %v must name exactly two teams", pair)
		}
		for _, team := range pair {
			if _, ok := seen[team]; !ok {
				return fmt.Errorf("shared stadium entry names unknown team %q", team)
			}
		}
		if pair[0] == pair[1] {
			return fmt.Errorf("shared stadium entry repeats team %q", pair[0])
		}
	}

	if c.Season.Weeks < 1 {
		return fmt.Errorf("season must have at least one week")
	}

	if len(c.TimeSlots) == 0 {
		return fmt.Errorf("at least one time slot is required")
	}
	kinds := make(map[SlotKind]string)
	for _, s := range c.TimeSlots {
		switch s.Kind {
		case EarlyPrime, Standard, LatePrime:
		default:
			return fmt.Errorf("time slot %q: unknown kind %q", s.Name, s.Kind)
		}
		if prev, ok := kinds[s.Kind]; ok {
			return fmt.Errorf("time slots %q and %q share kind %q", prev, s.Name, s.Kind)
		}
		kinds[s.Kind] = s.Name
	}

	r := c.Rules
	if r.GamesPerTeam < 1 {
		return fmt.Errorf("games_per_team must be positive")
	}
	if r.GamesPerTeam+r.ByesPerTeam != c.Season.Weeks {
		return fmt.Errorf("games_per_team (%d) plus byes_per_team (%d) must equal season weeks (%d)",
			r.GamesPerTeam, r.ByesPerTeam, c.Season.Weeks)
	}
	if r.ByesPerTeam > 0 {
		if r.ByeWindow.First < 1 || r.ByeWindow.Last > c.Season.Weeks || r.ByeWindow.First > r.ByeWindow.Last {
			return fmt.Errorf("bye window %d-%d must lie within weeks 1-%d",
				r.ByeWindow.First, r.ByeWindow.Last, c.Season.Weeks)
		}
	}
	if r.MinHomeGames > r.MaxHomeGames {
		return fmt.Errorf("min_home_games (%d) exceeds max_home_games (%d)", r.MinHomeGames, r.MaxHomeGames)
	}
	if r.MaxHomeGames > r.GamesPerTeam {
		return fmt.Errorf("max_home_games (%d) exceeds games_per_team (%d)", r.MaxHomeGames, r.GamesPerTeam)
	}
	if r.FatigueWindow < 0 || r.FatigueWindow > c.Season.Weeks {
		return fmt.Errorf("fatigue_window must be between 0 and %d", c.Season.Weeks)
	}
	if r.ShortWeekExceptions < 0 {
		return fmt.Errorf("short_week_exceptions cannot be negative")
	}

	switch c.Distances.Missing {
	case MissingFailFast, MissingZeroDefault:
	default:
		return fmt.Errorf("distances.missing must be %q or %q, got %q",
			MissingFailFast, MissingZeroDefault, c.Distances.Missing)
	}

	switch c.Solver.Backend {
	case BackendCBC, BackendBranchAndBound:
	default:
		return fmt.Errorf("solver backend must be %q or %q, got %q", BackendCBC, BackendBranchAndBound, c.Solver.Backend)
	}
	if c.Solver.TimeLimit < 0 {
		return fmt.Errorf("solver time_limit cannot be negative")
	}
	if c.Solver.RelativeGap < 0 || c.Solver.RelativeGap >= 1 {
		return fmt.Errorf("solver relative_gap must be in [0, 1)")
	}

	return nil
}
