// Package coach decides when the AI coach should speak and generates the
// response, keeping a bounded conversation history that is compacted into
// a running summary as sessions grow long.
package coach

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/FELMONON/ai-speech-coach/internal/speech"
	"github.com/FELMONON/ai-speech-coach/internal/types"
	"github.com/FELMONON/ai-speech-coach/internal/visual"
)

const (
	// urgentCooldown is the shortened gate for acute-problem coaching.
	urgentCooldown = 4 * time.Second

	// minWordsForLagFallback gates coaching on interim-only streams.
	minWordsForLagFallback = 8

	// History compaction bounds.
	maxHistoryTurns   = 40
	retainedTurns     = 20
	foldedTurnChars   = 200
	maxSummaryChars   = 6000
	summaryTurnChars  = 1200
	maxFeedbackKept   = 50
	feedbackSnipChars = 120

	maxResponseTokens = 220
)

// Urgent-condition thresholds.
const (
	urgentFillerRate   = 6.0
	urgentEyeContact   = 30.0
	urgentWPMHigh      = 180.0
	urgentWPMLow       = 100.0
	urgentLongestPause = 5.0
)

// Turn is one role-tagged message in the generation history.
type Turn struct {
	Role    string
	Content string
}

// Context is the per-session situational data included in each prompt.
type Context struct {
	DurationMinutes       float64            `json:"duration_minutes"`
	ExerciseType          types.ExerciseType `json:"exercise_type"`
	PreviousFeedbackGiven []string           `json:"previous_feedback_given"`
	ImprovementTrend      types.Trend        `json:"improvement_trend"`
}

// Engine holds the coaching cool-down clock and conversation history.
// Safe for concurrent use: the decision path and the generation path run
// on different goroutines.
type Engine struct {
	client *anthropic.Client // nil when generation is not configured
	model  string
	system string

	interval time.Duration

	mu             sync.Mutex
	lastCoachTime  time.Time
	history        []Turn
	feedback       []string
	runningSummary string
}

// NewEngine builds an Engine. An empty apiKey yields the degraded mode:
// decisions are identical, generation uses the deterministic fallback.
func NewEngine(apiKey, model, systemPrompt string, interval time.Duration) *Engine {
	e := &Engine{
		model:    model,
		system:   systemPrompt,
		interval: interval,
	}
	if apiKey != "" {
		c := anthropic.NewClient(option.WithAPIKey(apiKey))
		e.client = &c
	}
	return e
}

// ShouldCoachNow applies the decision policy: routine coaching after the
// cool-down on a final transcript, an interim-only fallback when upstream
// finalization lags, and a shorter cool-down for urgent metric breaches.
func (e *Engine) ShouldCoachNow(now time.Time, m speech.Snapshot, v visual.Snapshot, isFinalTranscript bool) bool {
	e.mu.Lock()
	sinceLast := now.Sub(e.lastCoachTime)
	e.mu.Unlock()

	if isFinalTranscript && sinceLast > e.interval {
		return true
	}

	// Fallback for streams where final transcript chunks are delayed.
	if !isFinalTranscript && sinceLast > e.interval && m.TotalWords >= minWordsForLagFallback {
		return true
	}

	urgent := m.FillerWordRate > urgentFillerRate ||
		v.EyeContactPercentage < urgentEyeContact ||
		m.WordsPerMinute > urgentWPMHigh ||
		(m.WordsPerMinute > 0 && m.WordsPerMinute < urgentWPMLow) ||
		m.LongestPauseSeconds > urgentLongestPause

	return urgent && sinceLast > urgentCooldown
}

type promptPayload struct {
	Transcription  string          `json:"transcription"`
	SpeechMetrics  speech.Snapshot `json:"speech_metrics"`
	VisualSignals  visual.Snapshot `json:"visual_signals"`
	SessionContext Context         `json:"session_context"`
}

// GenerateCoaching produces the next coach response. Remote failures
// degrade to the deterministic fallback; the only returned error is the
// caller's own cancellation, so the active-response slot can distinguish
// "interrupted" from "answered".
func (e *Engine) GenerateCoaching(ctx context.Context, now time.Time, transcription string, m speech.Snapshot, v visual.Snapshot, sc Context) (string, error) {
	payload, err := json.Marshal(promptPayload{
		Transcription:  transcription,
		SpeechMetrics:  m,
		VisualSignals:  v,
		SessionContext: sc,
	})
	if err != nil {
		return "", err
	}
	userMessage := "CURRENT SESSION DATA:\n" + string(payload) +
		"\n\nProvide the next coaching response as live spoken guidance."

	e.mu.Lock()
	e.history = append(e.history, Turn{Role: "user", Content: userMessage})
	e.trimHistoryLocked()
	msgs := e.messageParamsLocked()
	client := e.client
	e.mu.Unlock()

	var response string
	if client != nil {
		resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(e.model),
			MaxTokens: maxResponseTokens,
			System:    []anthropic.TextBlockParam{{Text: e.system}},
			Messages:  msgs,
		})
		switch {
		case err == nil:
			response = responseText(resp)
		case ctx.Err() != nil:
			return "", ctx.Err()
		default:
			log.Printf("[coach] generation failed, using fallback: %v", err)
		}
	}
	if response == "" {
		response = fallbackResponse(m, v)
	}

	e.mu.Lock()
	e.history = append(e.history, Turn{Role: "assistant", Content: response})
	e.feedback = append(e.feedback, truncate(response, feedbackSnipChars))
	if len(e.feedback) > maxFeedbackKept {
		e.feedback = e.feedback[len(e.feedback)-maxFeedbackKept:]
	}
	e.lastCoachTime = now
	e.mu.Unlock()

	return response, nil
}

// RecentFeedback returns up to n most recent feedback snippets.
func (e *Engine) RecentFeedback(n int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.feedback) < n {
		n = len(e.feedback)
	}
	out := make([]string, n)
	copy(out, e.feedback[len(e.feedback)-n:])
	return out
}

// trimHistoryLocked folds everything but the most recent turns into the
// running summary once the history outgrows its bound, and swaps the
// folded turns for one synthetic summary turn. Keeps prompt size bounded
// without discarding long-session context outright.
func (e *Engine) trimHistoryLocked() {
	if len(e.history) <= maxHistoryTurns {
		return
	}

	older := e.history[:len(e.history)-retainedTurns]
	var snippet string
	for _, turn := range older {
		if snippet != "" {
			snippet += " "
		}
		snippet += truncate(turn.Content, foldedTurnChars)
	}
	if snippet != "" {
		merged := e.runningSummary
		if merged != "" {
			merged += " "
		}
		e.runningSummary = tail(merged+snippet, maxSummaryChars)
	}

	summaryTurn := Turn{
		Role: "user",
		Content: "Session summary so far (carry this context forward): " +
			tail(e.runningSummary, summaryTurnChars),
	}

	retained := e.history[len(e.history)-retainedTurns:]
	e.history = append([]Turn{summaryTurn}, retained...)
}

func (e *Engine) messageParamsLocked() []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(e.history))
	for _, turn := range e.history {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return msgs
}

func responseText(msg *anthropic.Message) string {
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			if out != "" {
				out += " "
			}
			out += block.Text
		}
	}
	return out
}

// fallbackResponse is the deterministic local response used whenever
// generation is unavailable or fails, keyed off the worst active metric.
func fallbackResponse(m speech.Snapshot, v visual.Snapshot) string {
	switch {
	case m.FillerWordRate > urgentFillerRate:
		return "Good momentum. Slow down slightly and replace each um with a one-second pause before your next key point."
	case v.EyeContactPercentage < 35:
		return "Your ideas are strong. Keep your gaze on the camera for your next two sentences to project more confidence."
	case m.WordsPerMinute > urgentWPMHigh:
		return "Nice energy. Drop your pace by about 15 percent and land each sentence ending before the next thought."
	case m.WordsPerMinute > 0 && m.WordsPerMinute < urgentWPMLow:
		return "You sound thoughtful. Add a little more pace and connect your points with shorter transitions to keep momentum."
	}
	return "Great control so far. Now raise the bar by using one deliberate pause before your main message."
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
