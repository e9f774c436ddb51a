package league

import (
	"errors"
	"testing"

	"github.com/derekprior/greenleague/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Divisions: []config.Division{
			{Name: "AFC West", Conference: "AFC", Teams: []string{"Broncos", "Chiefs", "Raiders", "Chargers"}},
			{Name: "NFC West", Conference: "NFC", Teams: []string{"Cardinals", "Rams", "49ers", "Seahawks"}},
		},
		SharedStadiums: [][]string{{"Rams", "Chargers"}},
	}
}

func TestNew(t *testing.T) {
	l, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if l.Size() != 8 {
		t.Fatalf("Size() = %d, want 8", l.Size())
	}

	t.Run("index order follows config", func(t *testing.T) {
		for i, name := range l.Names() {
			if l.Team(i).Index != i {
				t.Errorf("team %q index = %d, want %d", name, l.Team(i).Index, i)
			}
		}
		if l.Name(5) != "Rams" {
			t.Errorf("Name(5) = %q, want Rams", l.Name(5))
		}
		if l.Team(5).Conference != "NFC" || l.Team(5).Division != 1 {
			t.Errorf("Rams = %+v, want NFC division 1", l.Team(5))
		}
	})

	t.Run("same division", func(t *testing.T) {
		if !l.SameDivision(0, 3) {
			t.Error("Broncos and Chargers should be divisional rivals")
		}
		if l.SameDivision(3, 5) {
			t.Error("Chargers and Rams are in different divisions")
		}
		if l.SameDivision(2, 2) {
			t.Error("a team is not its own rival")
		}
	})

	t.Run("shared stadiums", func(t *testing.T) {
		shared := l.SharedStadiums()
		if len(shared) != 1 || shared[0] != [2]int{5, 3} {
			t.Errorf("SharedStadiums() = %v, want [[5 3]]", shared)
		}
	})

	t.Run("divisions", func(t *testing.T) {
		divs := l.Divisions()
		if len(divs) != 2 || len(divs[1].Teams) != 4 || divs[1].Teams[0] != 4 {
			t.Errorf("Divisions() = %+v", divs)
		}
	})
}

func TestResolve(t *testing.T) {
	l, err := New(testConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if i, err := l.Resolve("Seahawks"); err != nil || i != 7 {
		t.Errorf("Resolve(Seahawks) = %d, %v; want 7, nil", i, err)
	}
	if _, err := l.Resolve("Oilers"); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("Resolve(Oilers) error = %v, want ErrUnknownTeam", err)
	}
}

func TestNewRejectsUnknownSharedTeam(t *testing.T) {
	cfg := testConfig()
	cfg.SharedStadiums = [][]string{{"Rams", "Oilers"}}
	if _, err := New(cfg); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("New() error = %v, want ErrUnknownTeam", err)
	}
}
