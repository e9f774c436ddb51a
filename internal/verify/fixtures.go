package verify

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Resolver maps team names to indices.
type Resolver interface {
	Resolve(name string) (int, error)
}

// ReadFixtures reads a CSV of published games. The header must contain
// home_team and away_team; other columns are ignored.
func ReadFixtures(r io.Reader, teams Resolver) ([]Fixture, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty schedule file")
	}
	if err != nil {
		return nil, err
	}
	home, away := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "home_team":
			home = i
		case "away_team":
			away = i
		}
	}
	if home < 0 || away < 0 {
		return nil, fmt.Errorf("header %s must contain home_team and away_team", strings.Join(header, ","))
	}

	var fixtures []Fixture
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return fixtures, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		h, err := teams.Resolve(strings.TrimSpace(row[home]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		a, err := teams.Resolve(strings.TrimSpace(row[away]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fixtures = append(fixtures, Fixture{Home: h, Away: a})
	}
}

// LoadFixtures reads a published schedule from path.
func LoadFixtures(path string, teams Resolver) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schedule: %w", err)
	}
	defer f.Close()
	fixtures, err := ReadFixtures(f, teams)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return fixtures, nil
}
