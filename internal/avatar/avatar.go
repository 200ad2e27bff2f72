// Package avatar bridges coach responses to spoken output: ElevenLabs
// text-to-speech for the audio track and Simli for the avatar stream
// session. Both collaborators are best-effort; failures degrade to empty
// results and never surface to the live session.
package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	defaultElevenBase = "https://api.elevenlabs.io/v1"
	defaultSimliBase  = "https://api.simli.ai"

	ttsTimeout   = 40 * time.Second
	tokenTimeout = 20 * time.Second
)

// Manager holds credentials and endpoints for the speech-synthesis and
// avatar-token collaborators. Missing credentials put the corresponding
// call into silent degraded mode.
type Manager struct {
	http *http.Client

	elevenAPIKey string
	voiceID      string
	ttsModel     string
	elevenBase   string

	simliAPIKey string
	simliFaceID string
	simliBase   string
}

// Option overrides Manager defaults (endpoints in tests).
type Option func(*Manager)

// WithElevenBase overrides the ElevenLabs API base URL.
func WithElevenBase(base string) Option {
	return func(m *Manager) { m.elevenBase = base }
}

// WithSimliBase overrides the Simli API base URL.
func WithSimliBase(base string) Option {
	return func(m *Manager) { m.simliBase = base }
}

func NewManager(elevenAPIKey, voiceID, ttsModel, simliAPIKey, simliFaceID string, opts ...Option) *Manager {
	m := &Manager{
		http:         &http.Client{},
		elevenAPIKey: elevenAPIKey,
		voiceID:      voiceID,
		ttsModel:     ttsModel,
		elevenBase:   defaultElevenBase,
		simliAPIKey:  simliAPIKey,
		simliFaceID:  simliFaceID,
		simliBase:    defaultSimliBase,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SynthesizeSpeech converts text to encoded audio, returning the base64
// payload and its MIME type, or empty strings when synthesis is
// unavailable or fails.
func (m *Manager) SynthesizeSpeech(ctx context.Context, text string) (audioBase64, mimeType string) {
	if strings.TrimSpace(text) == "" || m.elevenAPIKey == "" {
		return "", ""
	}

	payload := map[string]any{
		"text":     text,
		"model_id": m.ttsModel,
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.7,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", ""
	}

	ctx, cancel := context.WithTimeout(ctx, ttsTimeout)
	defer cancel()
	url := fmt.Sprintf("%s/text-to-speech/%s/stream", m.elevenBase, m.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", ""
	}
	req.Header.Set("xi-api-key", m.elevenAPIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := m.http.Do(req)
	if err != nil {
		log.Printf("[avatar] tts request failed: %v", err)
		return "", ""
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		log.Printf("[avatar] tts status %d", resp.StatusCode)
		return "", ""
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ""
	}

	return base64.StdEncoding.EncodeToString(audio), "audio/mpeg"
}

// PrepareAvatarStream creates a Simli compose session for the given
// session id and returns its room URL, or empty when unavailable.
func (m *Manager) PrepareAvatarStream(ctx context.Context, sessionID string) string {
	if m.simliAPIKey == "" {
		return ""
	}

	payload := map[string]any{
		"simliAPIKey": m.simliAPIKey,
		"metadata": map[string]any{
			"sessionId": sessionID,
			"faceId":    m.simliFaceID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.simliBase+"/compose/token", bytes.NewReader(body))
	if err != nil {
		return ""
	}
	req.Header.Set("api-key", m.simliAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		log.Printf("[avatar] simli token request failed: %v", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		log.Printf("[avatar] simli token status %d", resp.StatusCode)
		return ""
	}

	var parsed struct {
		RoomURL string `json:"roomUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ""
	}
	return parsed.RoomURL
}
