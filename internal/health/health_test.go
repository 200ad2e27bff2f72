package health

import (
	"context"
	"errors"
	"testing"

	"github.com/FELMONON/ai-speech-coach/internal/config"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func findCheck(t *testing.T, s Status, name string) CheckResult {
	t.Helper()
	for _, c := range s.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q", name)
	return CheckResult{}
}

func TestCheckAllUnconfigured(t *testing.T) {
	s := CheckAll(context.Background(), config.Config{}, nil)
	if !s.OK {
		t.Fatal("overall status should stay OK with optional collaborators missing")
	}
	for _, name := range []string{"anthropic", "elevenlabs_stt", "elevenlabs_tts", "simli", "database"} {
		c := findCheck(t, s, name)
		if c.OK {
			t.Errorf("%s should not be OK without configuration", name)
		}
		if c.Error == "" {
			t.Errorf("%s should carry an error detail", name)
		}
	}
}

func TestCheckDatabase(t *testing.T) {
	var cfg config.Config
	cfg.Database.URL = "postgres://localhost/coach"

	c := checkDatabase(context.Background(), cfg, fakePinger{})
	if !c.OK {
		t.Fatalf("healthy database reported not OK: %s", c.Error)
	}

	c = checkDatabase(context.Background(), cfg, fakePinger{err: errors.New("refused")})
	if c.OK {
		t.Fatal("failing ping reported OK")
	}
}
