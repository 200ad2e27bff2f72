package stt

import (
	"encoding/json"
	"strings"
)

type eventKind int

const (
	eventTranscript eventKind = iota
	eventError
)

// serverEvent is one classified inbound frame from the STT service.
type serverEvent struct {
	kind    eventKind
	text    string
	isFinal bool
	detail  string
}

// errorMessageTypes enumerates the server error and warning events that
// are all forwarded to the error callback.
var errorMessageTypes = map[string]bool{
	"warning":                     true,
	"auth_error":                  true,
	"quota_exceeded_error":        true,
	"transcriber_error":           true,
	"input_error":                 true,
	"commit_throttled":            true,
	"unaccepted_terms_error":      true,
	"rate_limited":                true,
	"queue_overflow":              true,
	"resource_exhausted":          true,
	"session_time_limit_exceeded": true,
	"chunk_size_exceeded":         true,
	"insufficient_audio_activity": true,
	"error":                       true,
}

// classifyServerMessage parses one inbound frame and classifies it as a
// partial transcript, a committed transcript (with or without timestamps,
// treated identically), or a server error. Session-start acknowledgments,
// empty transcripts, and unknown frames are dropped.
func classifyServerMessage(data []byte) (serverEvent, bool) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return serverEvent{}, false
	}

	msgType, _ := m["message_type"].(string)

	switch msgType {
	case "partial_transcript", "committed_transcript", "committed_transcript_with_timestamps":
		text, _ := m["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			return serverEvent{}, false
		}
		return serverEvent{
			kind:    eventTranscript,
			text:    text,
			isFinal: msgType != "partial_transcript",
		}, true

	case "session_started":
		return serverEvent{}, false
	}

	if errorMessageTypes[msgType] {
		return serverEvent{kind: eventError, detail: errorDetail(m)}, true
	}

	return serverEvent{}, false
}

// errorDetail extracts a human-readable message from an error frame.
func errorDetail(m map[string]any) string {
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	b, _ := json.Marshal(m)
	return string(b)
}
