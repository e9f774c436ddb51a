package matchup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadStandings reads one team name per line, best team first. Blank lines
// and lines starting with # are skipped.
func ReadStandings(r io.Reader) ([]string, error) {
	var teams []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		teams = append(teams, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading standings: %w", err)
	}
	return teams, nil
}

// LoadStandings reads a standings file.
func LoadStandings(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening standings: %w", err)
	}
	defer f.Close()
	return ReadStandings(f)
}
