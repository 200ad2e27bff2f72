package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Clear relevant envs
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("ELEVENLABS_STT_MODEL")
	os.Unsetenv("ELEVENLABS_STT_COMMIT_STRATEGY")
	os.Unsetenv("COACH_INTERVAL_SECONDS")

	c := Load()

	if c.Server.Port != "8765" {
		t.Fatalf("expected default port 8765, got %q", c.Server.Port)
	}
	if c.Server.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", c.Server.LogLevel)
	}
	if c.Eleven.STTModel != "scribe_v2_realtime" {
		t.Fatalf("expected default stt model, got %q", c.Eleven.STTModel)
	}
	if c.Eleven.CommitStrategy != "manual" {
		t.Fatalf("expected default commit strategy manual, got %q", c.Eleven.CommitStrategy)
	}
	if c.Coach.IntervalSeconds != 15 {
		t.Fatalf("expected default coach interval 15, got %d", c.Coach.IntervalSeconds)
	}
}

func TestLoadFiltersPlaceholderKeys(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "your_anthropic_key_here")
	os.Setenv("ELEVENLABS_API_KEY", "xi-real-key")
	defer os.Unsetenv("ANTHROPIC_API_KEY")
	defer os.Unsetenv("ELEVENLABS_API_KEY")

	c := Load()

	if c.Anthropic.APIKey != "" {
		t.Fatalf("placeholder key should be filtered, got %q", c.Anthropic.APIKey)
	}
	if c.Eleven.APIKey != "xi-real-key" {
		t.Fatalf("real key should pass through, got %q", c.Eleven.APIKey)
	}
}

func TestLoadInvalidCommitStrategy(t *testing.T) {
	os.Setenv("ELEVENLABS_STT_COMMIT_STRATEGY", "bogus")
	defer os.Unsetenv("ELEVENLABS_STT_COMMIT_STRATEGY")

	c := Load()

	if c.Eleven.CommitStrategy != "vad" {
		t.Fatalf("invalid commit strategy should fall back to vad, got %q", c.Eleven.CommitStrategy)
	}
}
