package session

import (
	"github.com/FELMONON/ai-speech-coach/internal/coach"
	"github.com/FELMONON/ai-speech-coach/internal/speech"
	"github.com/FELMONON/ai-speech-coach/internal/types"
	"github.com/FELMONON/ai-speech-coach/internal/visual"
)

// Outbound message envelopes. Field names are part of the client protocol.

type statusMsg struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type transcriptMsg struct {
	Type          string `json:"type"`
	Transcription string `json:"transcription"`
	IsFinal       bool   `json:"is_final"`
}

type metricsData struct {
	SpeechMetrics  speech.Snapshot `json:"speech_metrics"`
	VisualSignals  visual.Snapshot `json:"visual_signals"`
	SessionContext coach.Context   `json:"session_context"`
}

type metricsMsg struct {
	Type string      `json:"type"`
	Data metricsData `json:"data"`
}

type coachResponseMsg struct {
	Type            string `json:"type"`
	ResponseText    string `json:"response_text"`
	AudioBase64     string `json:"audio_base64,omitempty"`
	AudioMimeType   string `json:"audio_mime_type,omitempty"`
	AvatarStreamURL string `json:"avatar_stream_url,omitempty"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Summary is the end-of-session report delivered in session_summary.
type Summary struct {
	SessionID            string             `json:"session_id"`
	DurationMinutes      float64            `json:"duration_minutes"`
	ExerciseType         types.ExerciseType `json:"exercise_type"`
	Summary              string             `json:"summary"`
	AvgWPM               float64            `json:"avg_wpm"`
	FillerWordRate       float64            `json:"filler_word_rate"`
	EyeContactPercentage float64            `json:"eye_contact_percentage"`
}

type summaryMsg struct {
	Type    string  `json:"type"`
	Summary Summary `json:"summary"`
}
