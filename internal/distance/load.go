package distance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/league"
	"github.com/derekprior/greenleague/internal/logger"
)

// Resolver maps team names to indices.
type Resolver interface {
	Resolve(name string) (int, error)
	Size() int
}

var (
	teamHeader      = []string{"team", "distance_km"}
	pairHeader      = []string{"away_team", "home_team", "distance_km"}
	symmetricHeader = []string{"team_i", "team_j", "distance_km"}
)

// ReadTeamTable reads a "team,distance_km" table.
func ReadTeamTable(r io.Reader, name string, teams Resolver) (*TeamTable, error) {
	values := nanSlice(teams.Size())
	err := readRows(r, teamHeader, func(row []string) error {
		i, err := teams.Resolve(row[0])
		if err != nil {
			return err
		}
		d, ok, err := parseKM(row[1])
		if err != nil {
			return err
		}
		if ok {
			values[i] = d
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &TeamTable{name: name, values: values}, nil
}

// ReadPairTable reads an ordered "away_team,home_team,distance_km" table.
func ReadPairTable(r io.Reader, name string, teams Resolver) (*PairTable, error) {
	t, err := readPairs(r, name, pairHeader, teams)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ReadSymmetricTable reads a "team_i,team_j,distance_km" table.
func ReadSymmetricTable(r io.Reader, name string, teams Resolver) (*SymmetricTable, error) {
	t, err := readPairs(r, name, symmetricHeader, teams)
	if err != nil {
		return nil, err
	}
	return &SymmetricTable{pairs: t}, nil
}

func readPairs(r io.Reader, name string, header []string, teams Resolver) (*PairTable, error) {
	n := teams.Size()
	t := &PairTable{name: name, n: n, values: nanSlice(n * n)}
	err := readRows(r, header, func(row []string) error {
		i, err := teams.Resolve(row[0])
		if err != nil {
			return err
		}
		j, err := teams.Resolve(row[1])
		if err != nil {
			return err
		}
		d, ok, err := parseKM(row[2])
		if err != nil {
			return err
		}
		if ok {
			t.values[i*n+j] = d
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return t, nil
}

func readRows(r io.Reader, header []string, fn func(row []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	got, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("empty file, want header %s", strings.Join(header, ","))
	}
	if err != nil {
		return err
	}
	for i := range header {
		if strings.TrimSpace(got[i]) != header[i] {
			return fmt.Errorf("header %s, want %s", strings.Join(got, ","), strings.Join(header, ","))
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			line, _ := cr.FieldPos(0)
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

// parseKM parses a distance cell. An empty cell is an absent entry.
func parseKM(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return 0, false, nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid distance %q: %w", s, err)
	}
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false, fmt.Errorf("invalid distance %q", s)
	}
	return d, true, nil
}

func nanSlice(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

// Load reads all five tables named in cfg. Under the fail_fast policy any
// gap in coverage is an error; under zero_default gaps are logged once and
// read as zero.
func Load(cfg config.Distances, l *league.League, log logger.Logger) (*Tables, error) {
	open := func(file string) (*os.File, error) {
		f, err := os.Open(filepath.Join(cfg.Dir, file))
		if err != nil {
			return nil, fmt.Errorf("opening distance table: %w", err)
		}
		return f, nil
	}

	readTeam := func(file, name string) (*TeamTable, error) {
		f, err := open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadTeamTable(f, name, l)
	}

	t := &Tables{}
	var err error
	if t.FacilityToStadium, err = readTeam(cfg.FacilityToStadium, "facility_to_stadium"); err != nil {
		return nil, err
	}
	if t.FacilityToAirport, err = readTeam(cfg.FacilityToAirport, "facility_to_airport"); err != nil {
		return nil, err
	}
	if t.StadiumToAirport, err = readTeam(cfg.StadiumToAirport, "stadium_to_airport"); err != nil {
		return nil, err
	}

	f, err := open(cfg.FacilityToAwayStadium)
	if err != nil {
		return nil, err
	}
	t.FacilityToAwayStadium, err = ReadPairTable(f, "facility_to_away_stadium", l)
	f.Close()
	if err != nil {
		return nil, err
	}

	f, err = open(cfg.AirportToAirport)
	if err != nil {
		return nil, err
	}
	t.AirportToAirport, err = ReadSymmetricTable(f, "airport_to_airport", l)
	f.Close()
	if err != nil {
		return nil, err
	}

	t = t.WithNames(l.Names())
	if cfg.Missing == config.MissingZeroDefault {
		if err := t.Validate(l.Size()); err != nil {
			log.Warnf("%v", err)
		}
		return t.WithZeroDefault(log), nil
	}
	if err := t.Validate(l.Size()); err != nil {
		return nil, err
	}
	return t, nil
}
