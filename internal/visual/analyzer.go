// Package visual aggregates raw camera telemetry (eye contact, head pose,
// expression, posture) into stable per-session signals.
package visual

import (
	"math"
	"time"

	"github.com/FELMONON/ai-speech-coach/internal/types"
)

// windowSize bounds the sliding window of retained samples.
const windowSize = 240

// Head-movement classification thresholds (mean absolute degrees).
const (
	movementModerate = 8
	movementHigh     = 16
)

// Snapshot is a point-in-time view over the current sample window.
type Snapshot struct {
	EyeContactPercentage float64 `json:"eye_contact_percentage"`
	HeadMovementLevel    string  `json:"head_movement_level"`
	FacialExpression     string  `json:"facial_expression"`
	PostureScore         float64 `json:"posture_score"`
}

type sample struct {
	at           time.Time
	eyeContact   bool
	pose         types.HeadPose
	expression   string
	postureScore float64
}

// Analyzer keeps a fixed-capacity ring of visual samples; the oldest is
// evicted once the window is full. Not safe for concurrent use.
type Analyzer struct {
	samples [windowSize]sample
	next    int
	count   int
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// IngestSignal appends one normalized telemetry sample.
func (a *Analyzer) IngestSignal(s types.VisualSample, ts time.Time) {
	expression := s.Expression
	if expression == "" {
		expression = "neutral"
	}
	a.samples[a.next] = sample{
		at:           ts,
		eyeContact:   s.EyeContact,
		pose:         s.HeadPose,
		expression:   expression,
		postureScore: s.PostureScore,
	}
	a.next = (a.next + 1) % windowSize
	if a.count < windowSize {
		a.count++
	}
}

// CurrentSignals recomputes the aggregate snapshot over the window.
// An empty window yields the neutral default.
func (a *Analyzer) CurrentSignals() Snapshot {
	if a.count == 0 {
		return Snapshot{
			HeadMovementLevel: "low",
			FacialExpression:  "neutral",
		}
	}

	eyeContactHits := 0
	var movementSum, postureSum float64
	expressionCounts := map[string]int{}
	var expressionOrder []string

	// Oldest-first, so the first-seen tie-break below follows the
	// chronological order of the window even after the ring has wrapped.
	start := 0
	if a.count == windowSize {
		start = a.next
	}
	for i := 0; i < a.count; i++ {
		s := a.samples[(start+i)%windowSize]
		if s.eyeContact {
			eyeContactHits++
		}
		movementSum += (math.Abs(s.pose.Pitch) + math.Abs(s.pose.Yaw) + math.Abs(s.pose.Roll)) / 3
		postureSum += s.postureScore
		if _, seen := expressionCounts[s.expression]; !seen {
			expressionOrder = append(expressionOrder, s.expression)
		}
		expressionCounts[s.expression]++
	}

	n := float64(a.count)

	level := "low"
	switch avg := movementSum / n; {
	case avg >= movementHigh:
		level = "high"
	case avg >= movementModerate:
		level = "moderate"
	}

	// Dominant expression; ties broken by first-seen order.
	dominant, best := "neutral", 0
	for _, expr := range expressionOrder {
		if expressionCounts[expr] > best {
			dominant, best = expr, expressionCounts[expr]
		}
	}

	return Snapshot{
		EyeContactPercentage: round1(float64(eyeContactHits) / n * 100),
		HeadMovementLevel:    level,
		FacialExpression:     dominant,
		PostureScore:         round2(clamp01(postureSum / n)),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
