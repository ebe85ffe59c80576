package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("got %+v, want defaults", got)
	}
}

func TestLoad_OverridesOnlyNamedKeys(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	body := "tick_rate_hz: 30\nmovement:\n  gravity: 16\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 30 {
		t.Fatalf("tick_rate_hz = %d", got.TickRateHz)
	}
	if got.Movement.Gravity != 16 {
		t.Fatalf("gravity = %v", got.Movement.Gravity)
	}
	if got.Movement.MoveSpeed != Defaults().Movement.MoveSpeed {
		t.Fatal("unnamed key lost its default")
	}
	if got.Seed != Defaults().Seed {
		t.Fatal("unnamed seed lost its default")
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"zero tick rate":   "tick_rate_hz: 0\n",
		"negative gravity": "movement:\n  gravity: -1\n",
		"zero move speed":  "movement:\n  move_speed: 0\n",
		"malformed yaml":   "tick_rate_hz: [\n",
	}
	for name, body := range cases {
		p := filepath.Join(t.TempDir(), "tuning.yaml")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}
