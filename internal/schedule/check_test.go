package schedule

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/derekprior/greenleague/internal/config"
	"github.com/derekprior/greenleague/internal/league"
)

// mirroredSchedule is a hand-built double round robin for the toy league:
// weeks 4-6 replay weeks 1-3 with the venues swapped.
func mirroredSchedule(slots []Slot, slot int) *Schedule {
	s := New([]string{"Ants", "Bees", "Crows", "Doves"}, 6, slots)
	first := [3][2][2]int{
		{{1, 0}, {3, 2}},
		{{0, 2}, {1, 3}},
		{{0, 3}, {2, 1}},
	}
	for w, games := range first {
		for _, g := range games {
			s.SetGame(w+1, slot, g[0], g[1])
			s.SetGame(w+4, slot, g[1], g[0])
		}
	}
	return s
}

func toyChecker(t *testing.T) Checker {
	p := toyProblem(t)
	return Checker{League: p.League, Matrix: p.Matrix, Rules: p.Rules}
}

func messages(vs []Violation) []string {
	var out []string
	for _, v := range vs {
		out = append(out, v.String())
	}
	return out
}

func TestCheckAcceptsValidSchedule(t *testing.T) {
	s := mirroredSchedule(toyProblem(t).Slots, 0)
	if vs := toyChecker(t).Check(s); len(vs) != 0 {
		t.Errorf("unexpected violations: %v", messages(vs))
	}
}

func TestCheckFindsViolations(t *testing.T) {
	t.Run("venue swapped", func(t *testing.T) {
		s := mirroredSchedule(toyProblem(t).Slots, 0)
		s.SetGame(4, 0, 1, 0) // Bees host Ants again
		got := messages(toyChecker(t).Check(s))
		want := []string{
			"Ants: 2 home games, want 3-3",
			"Bees: 4 home games, want 3-3",
			"Ants hosts Bees 0 times and is hosted 2 times, matchup requires 2 games",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("violations mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("divisional rematch", func(t *testing.T) {
		s := New([]string{"Ants", "Bees", "Crows", "Doves"}, 2, toyProblem(t).Slots)
		s.SetGame(1, 0, 0, 1)
		s.SetGame(2, 0, 1, 0)
		c := Checker{League: toyLeague(t), Rules: config.Rules{NoBackToBackDivisional: true}}
		found := false
		for _, v := range c.Check(s) {
			if strings.Contains(v.Message, "divisional rematch with Bees") && v.Week == 2 {
				found = true
			}
		}
		if !found {
			t.Error("expected a divisional rematch violation in week 2")
		}
	})

	t.Run("bye outside window", func(t *testing.T) {
		s := New([]string{"Ants", "Bees"}, 3, toyProblem(t).Slots)
		s.SetGame(2, 0, 0, 1)
		s.SetGame(3, 0, 1, 0)
		c := Checker{Rules: config.Rules{
			GamesPerTeam: 2, ByesPerTeam: 1, ByeWindow: config.Window{First: 2, Last: 3},
			MinHomeGames: 1, MaxHomeGames: 1,
		}}
		got := messages(c.Check(s))
		want := []string{"Ants week 1: bye outside weeks 2-3", "Bees week 1: bye outside weeks 2-3"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("violations mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fatigue", func(t *testing.T) {
		s := mirroredSchedule(toyProblem(t).Slots, 0)
		c := toyChecker(t)
		c.Matrix = nil
		c.Rules.MaxHomeInWindow = 2
		found := false
		for _, v := range c.Check(s) {
			if v.Team == "Ants" && strings.Contains(v.Message, "3 home games in 4 weeks") {
				found = true
			}
		}
		if !found {
			t.Error("expected Ants to break a two-home-game cap")
		}
	})

	t.Run("inconsistent opponent", func(t *testing.T) {
		s := mirroredSchedule(toyProblem(t).Slots, 0)
		s.Entries[3][0].Opponent = 1
		found := false
		for _, v := range toyChecker(t).Check(s) {
			if v.Team == "Doves" && v.Week == 1 && strings.Contains(v.Message, "matching game") {
				found = true
			}
		}
		if !found {
			t.Error("expected an opponent mismatch for Doves in week 1")
		}
	})
}

func TestCheckSharedVenue(t *testing.T) {
	l, err := league.New(&config.Config{
		Divisions: []config.Division{
			{Name: "Solo", Conference: "Only", Teams: []string{"Ants", "Bees", "Crows", "Doves"}},
		},
		SharedStadiums: [][]string{{"Ants", "Bees"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	c := toyChecker(t)
	c.League = l

	// Ants and Bees both host only in week 2.
	var weeks []int
	for _, v := range c.Check(mirroredSchedule(toyProblem(t).Slots, 0)) {
		if strings.Contains(v.Message, "shares a stadium") {
			weeks = append(weeks, v.Week)
		}
	}
	if diff := cmp.Diff([]int{2}, weeks); diff != "" {
		t.Errorf("shared venue weeks mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckPrimeSlotsAndShortWeeks(t *testing.T) {
	slots := nflSlots()
	s := mirroredSchedule(slots, 1) // every game on Sunday
	c := toyChecker(t)

	var prime int
	for _, v := range c.Check(s) {
		if strings.Contains(v.Message, "Thursday games") || strings.Contains(v.Message, "Monday games") {
			prime++
		}
	}
	if prime != 12 {
		t.Errorf("prime slot violations = %d, want 12 (two per week)", prime)
	}

	// Move the week 2 Ants-Crows game to Thursday: Crows travel after a
	// Sunday road game, so it is a legal short week.
	s.SetGame(2, 0, 0, 2)
	c.Rules.EnforceShortWeek = true
	for _, v := range c.Check(s) {
		if strings.Contains(v.Message, "short week") {
			t.Errorf("unexpected short week violation: %s", v)
		}
	}

	// Week 3 Thursday: Bees hosted Doves on Sunday of week 2, then travel.
	s.SetGame(3, 0, 2, 1)
	var short []string
	for _, v := range c.Check(s) {
		if strings.Contains(v.Message, "short week") {
			short = append(short, v.String())
		}
	}
	if diff := cmp.Diff([]string{"Bees week 3: travels on a short week"}, short); diff != "" {
		t.Errorf("short week mismatch (-want +got):\n%s", diff)
	}

	c.Rules.ShortWeekExceptions = 1
	for _, v := range c.Check(s) {
		if strings.Contains(v.Message, "short week") {
			t.Errorf("one exception should cover %s", v)
		}
	}
}
