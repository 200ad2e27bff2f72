package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Anthropic struct {
		APIKey string
		Model  string
	}
	Eleven struct {
		APIKey         string
		STTModel       string
		CommitStrategy string
		VoiceID        string
		TTSModel       string
	}
	Simli struct {
		APIKey string
		FaceID string
	}
	Coach struct {
		IntervalSeconds int
	}
	Database struct {
		URL string
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")

	v.SetDefault("elevenlabs.stt_model", "scribe_v2_realtime")
	v.SetDefault("elevenlabs.stt_commit_strategy", "manual")
	v.SetDefault("elevenlabs.voice_id", "pNInz6obpgDQGcFmaJgB")
	v.SetDefault("elevenlabs.tts_model", "eleven_turbo_v2")

	v.SetDefault("coach.interval_seconds", 15)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "ANTHROPIC_MODEL")

	v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	v.BindEnv("elevenlabs.stt_model", "ELEVENLABS_STT_MODEL")
	v.BindEnv("elevenlabs.stt_commit_strategy", "ELEVENLABS_STT_COMMIT_STRATEGY")
	v.BindEnv("elevenlabs.voice_id", "ELEVENLABS_VOICE_ID")
	v.BindEnv("elevenlabs.tts_model", "ELEVENLABS_TTS_MODEL")

	v.BindEnv("simli.api_key", "SIMLI_API_KEY")
	v.BindEnv("simli.face_id", "SIMLI_FACE_ID")

	v.BindEnv("coach.interval_seconds", "COACH_INTERVAL_SECONDS")

	v.BindEnv("database.url", "DATABASE_URL")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Anthropic.APIKey = realKey(v.GetString("anthropic.api_key"))
	c.Anthropic.Model = v.GetString("anthropic.model")

	c.Eleven.APIKey = realKey(v.GetString("elevenlabs.api_key"))
	c.Eleven.STTModel = v.GetString("elevenlabs.stt_model")
	c.Eleven.CommitStrategy = v.GetString("elevenlabs.stt_commit_strategy")
	if c.Eleven.CommitStrategy != "manual" && c.Eleven.CommitStrategy != "vad" {
		c.Eleven.CommitStrategy = "vad"
	}
	c.Eleven.VoiceID = v.GetString("elevenlabs.voice_id")
	c.Eleven.TTSModel = v.GetString("elevenlabs.tts_model")

	c.Simli.APIKey = realKey(v.GetString("simli.api_key"))
	c.Simli.FaceID = v.GetString("simli.face_id")

	c.Coach.IntervalSeconds = v.GetInt("coach.interval_seconds")

	c.Database.URL = v.GetString("database.url")

	log.Printf("config loaded: port=%s anthropic=%t elevenlabs=%t simli=%t db=%t",
		c.Server.Port, c.Anthropic.APIKey != "", c.Eleven.APIKey != "", c.Simli.APIKey != "", c.Database.URL != "")
	return c
}

// realKey filters out placeholder values left over from .env templates.
func realKey(s string) string {
	if strings.HasPrefix(s, "your_") {
		return ""
	}
	return s
}

func toString(v any) string { return fmt.Sprint(v) }
