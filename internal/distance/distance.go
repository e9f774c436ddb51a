// Package distance loads the five kilometre tables the emissions model reads:
// three keyed by a single team, one keyed by an ordered (away, host) pair and
// one symmetric airport-to-airport matrix.
package distance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/derekprior/greenleague/internal/logger"
)

// ErrMissing reports that a table has no entry for a team or pair the
// league needs.
var ErrMissing = errors.New("missing distance")

// TeamTable maps a team index to a distance.
type TeamTable struct {
	name   string
	values []float64 // NaN marks an absent entry
}

// NewTeamTable builds a table from values indexed by team. NaN entries are
// treated as absent.
func NewTeamTable(name string, values []float64) *TeamTable {
	v := make([]float64, len(values))
	copy(v, values)
	return &TeamTable{name: name, values: v}
}

func (t *TeamTable) Name() string { return t.name }

// Lookup returns the distance for team i.
func (t *TeamTable) Lookup(i int) (float64, bool) {
	if t == nil || i < 0 || i >= len(t.values) || math.IsNaN(t.values[i]) {
		return 0, false
	}
	return t.values[i], true
}

// PairTable maps an ordered (from, to) pair to a distance.
type PairTable struct {
	name   string
	n      int
	values []float64
}

// NewPairTable builds an ordered pair table from a square matrix.
func NewPairTable(name string, rows [][]float64) *PairTable {
	n := len(rows)
	t := &PairTable{name: name, n: n, values: make([]float64, n*n)}
	for i := range t.values {
		t.values[i] = math.NaN()
	}
	for i, row := range rows {
		for j := 0; j < n && j < len(row); j++ {
			t.values[i*n+j] = row[j]
		}
	}
	return t
}

func (t *PairTable) Name() string { return t.name }

// Lookup returns the distance from i to j.
func (t *PairTable) Lookup(i, j int) (float64, bool) {
	if t == nil || i < 0 || j < 0 || i >= t.n || j >= t.n {
		return 0, false
	}
	v := t.values[i*t.n+j]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// SymmetricTable answers (i, j) and (j, i) with the same entry. When both
// directions were supplied the (i, j) entry wins. The diagonal is always 0.
type SymmetricTable struct {
	pairs *PairTable
}

func NewSymmetricTable(name string, rows [][]float64) *SymmetricTable {
	return &SymmetricTable{pairs: NewPairTable(name, rows)}
}

func (t *SymmetricTable) Name() string { return t.pairs.Name() }

func (t *SymmetricTable) Lookup(i, j int) (float64, bool) {
	if i == j {
		return 0, true
	}
	if t == nil {
		return 0, false
	}
	if v, ok := t.pairs.Lookup(i, j); ok {
		return v, true
	}
	return t.pairs.Lookup(j, i)
}

// Tables bundles the five inputs of the emissions model.
type Tables struct {
	FacilityToStadium     *TeamTable
	FacilityToAirport     *TeamTable
	StadiumToAirport      *TeamTable
	FacilityToAwayStadium *PairTable
	AirportToAirport      *SymmetricTable

	names  []string
	warner *warnOnce
}

type warnOnce struct {
	log  logger.Logger
	mu   sync.Mutex
	seen map[string]bool
}

func (w *warnOnce) warn(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.log.Warnf("%s: treating as 0 km", key)
}

// WithZeroDefault returns a copy of t that reads missing entries as zero and
// logs each missing key once.
func (t *Tables) WithZeroDefault(log logger.Logger) *Tables {
	c := *t
	c.warner = &warnOnce{log: log, seen: make(map[string]bool)}
	return &c
}

// WithNames attaches team names used in diagnostics.
func (t *Tables) WithNames(names []string) *Tables {
	c := *t
	c.names = names
	return &c
}

func (t *Tables) teamName(i int) string {
	if i >= 0 && i < len(t.names) {
		return t.names[i]
	}
	return fmt.Sprintf("team %d", i)
}

func (t *Tables) missing(table string, key string) {
	if t.warner != nil {
		t.warner.warn(fmt.Sprintf("%s %s %s", ErrMissing, table, key))
	}
}

func (t *Tables) team(tbl *TeamTable, name string, i int) float64 {
	v, ok := tbl.Lookup(i)
	if !ok {
		t.missing(name, t.teamName(i))
	}
	return v
}

func (t *Tables) pair(lookup func(i, j int) (float64, bool), name string, i, j int) float64 {
	v, ok := lookup(i, j)
	if !ok {
		t.missing(name, t.teamName(i)+" -> "+t.teamName(j))
	}
	return v
}

// FacilityStadium is the road distance from a team's training facility to
// its own stadium.
func (t *Tables) FacilityStadium(team int) float64 {
	return t.team(t.FacilityToStadium, "facility_to_stadium", team)
}

// FacilityAirport is the road distance from a team's facility to its airport.
func (t *Tables) FacilityAirport(team int) float64 {
	return t.team(t.FacilityToAirport, "facility_to_airport", team)
}

// StadiumAirport is the road distance between a team's stadium and airport.
func (t *Tables) StadiumAirport(team int) float64 {
	return t.team(t.StadiumToAirport, "stadium_to_airport", team)
}

// FacilityAwayStadium is the road distance from the away team's facility to
// the host's stadium.
func (t *Tables) FacilityAwayStadium(away, host int) float64 {
	return t.pair(t.FacilityToAwayStadium.Lookup, "facility_to_away_stadium", away, host)
}

// AirportAirport is the flight distance between two teams' airports.
func (t *Tables) AirportAirport(i, j int) float64 {
	return t.pair(t.AirportToAirport.Lookup, "airport_to_airport", i, j)
}

// Validate checks that every table covers all n teams and every ordered pair
// of distinct teams.
func (t *Tables) Validate(n int) error {
	var missing []string
	for _, tt := range []struct {
		name string
		tbl  *TeamTable
	}{
		{"facility_to_stadium", t.FacilityToStadium},
		{"facility_to_airport", t.FacilityToAirport},
		{"stadium_to_airport", t.StadiumToAirport},
	} {
		for i := 0; i < n; i++ {
			if _, ok := tt.tbl.Lookup(i); !ok {
				missing = append(missing, tt.name+" "+t.teamName(i))
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if _, ok := t.FacilityToAwayStadium.Lookup(i, j); !ok {
				missing = append(missing, "facility_to_away_stadium "+t.teamName(i)+" -> "+t.teamName(j))
			}
			if _, ok := t.AirportToAirport.Lookup(i, j); !ok {
				missing = append(missing, "airport_to_airport "+t.teamName(i)+" -> "+t.teamName(j))
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	shown := missing
	if len(shown) > 10 {
		shown = shown[:10]
	}
	return fmt.Errorf("%w: %d entries (%s)", ErrMissing, len(missing), strings.Join(shown, "; "))
}
