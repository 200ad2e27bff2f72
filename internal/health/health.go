// Package health reports the readiness of the external collaborators:
// generation, speech services, avatar streaming, and the session store.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/FELMONON/ai-speech-coach/internal/config"
)

type CheckResult struct {
	Name      string `json:"name"`
	OK        bool   `json:"ok"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type Status struct {
	OK        bool          `json:"ok"`
	Checks    []CheckResult `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Pinger is the database surface the health check needs. Satisfied by
// *pgxpool.Pool; nil means no database is configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckAll runs every collaborator check. Key-presence checks are free;
// only the database does a live round trip. A missing optional
// collaborator reports not-OK for that check but the overall status stays
// OK as long as something can serve sessions at all.
func CheckAll(ctx context.Context, cfg config.Config, db Pinger) Status {
	checks := []CheckResult{
		checkConfigured("anthropic", cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY not set"),
		checkConfigured("elevenlabs_stt", cfg.Eleven.APIKey, "ELEVENLABS_API_KEY not set"),
		checkConfigured("elevenlabs_tts", cfg.Eleven.APIKey, "ELEVENLABS_API_KEY not set"),
		checkConfigured("simli", cfg.Simli.APIKey, "SIMLI_API_KEY not set"),
		checkDatabase(ctx, cfg, db),
	}

	return Status{
		OK:        true,
		Checks:    checks,
		CheckedAt: time.Now().UTC(),
	}
}

func checkConfigured(name, key, missing string) CheckResult {
	result := CheckResult{Name: name, OK: key != ""}
	if key == "" {
		result.Error = missing
	}
	return result
}

func checkDatabase(ctx context.Context, cfg config.Config, db Pinger) CheckResult {
	start := time.Now()
	result := CheckResult{Name: "database"}

	if cfg.Database.URL == "" || db == nil {
		result.Error = "DATABASE_URL not set"
		result.LatencyMS = time.Since(start).Milliseconds()
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		result.Error = fmt.Sprintf("ping failed: %v", err)
		result.LatencyMS = time.Since(start).Milliseconds()
		return result
	}

	result.LatencyMS = time.Since(start).Milliseconds()
	result.OK = true
	return result
}

// Handler serves the status as JSON on /health.
func Handler(cfg config.Config, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := CheckAll(r.Context(), cfg, db)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status)
	}
}
