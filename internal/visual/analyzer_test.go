package visual

import (
	"testing"
	"time"

	"github.com/FELMONON/ai-speech-coach/internal/types"
)

func TestEmptyWindowDefaults(t *testing.T) {
	a := NewAnalyzer()
	snap := a.CurrentSignals()

	if snap.EyeContactPercentage != 0 {
		t.Errorf("expected 0%% eye contact, got %v", snap.EyeContactPercentage)
	}
	if snap.HeadMovementLevel != "low" {
		t.Errorf("expected low movement, got %q", snap.HeadMovementLevel)
	}
	if snap.FacialExpression != "neutral" {
		t.Errorf("expected neutral expression, got %q", snap.FacialExpression)
	}
	if snap.PostureScore != 0 {
		t.Errorf("expected 0 posture, got %v", snap.PostureScore)
	}
}

func TestEyeContactPercentage(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()
	for i := 0; i < 10; i++ {
		a.IngestSignal(types.VisualSample{EyeContact: i%2 == 0, Expression: "neutral"}, now)
	}

	if got := a.CurrentSignals().EyeContactPercentage; got != 50.0 {
		t.Fatalf("expected 50.0, got %v", got)
	}
}

func TestHeadMovementLevels(t *testing.T) {
	cases := []struct {
		pose types.HeadPose
		want string
	}{
		{types.HeadPose{Pitch: 3, Yaw: 3, Roll: 3}, "low"},       // avg 3
		{types.HeadPose{Pitch: 10, Yaw: 10, Roll: 10}, "moderate"}, // avg 10
		{types.HeadPose{Pitch: 20, Yaw: 20, Roll: 20}, "high"},   // avg 20
	}
	for _, c := range cases {
		a := NewAnalyzer()
		a.IngestSignal(types.VisualSample{HeadPose: c.pose}, time.Now())
		if got := a.CurrentSignals().HeadMovementLevel; got != c.want {
			t.Errorf("pose %+v: expected %q, got %q", c.pose, c.want, got)
		}
	}
}

func TestDominantExpressionTieBreak(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()
	a.IngestSignal(types.VisualSample{Expression: "smiling"}, now)
	a.IngestSignal(types.VisualSample{Expression: "tense"}, now)

	if got := a.CurrentSignals().FacialExpression; got != "smiling" {
		t.Fatalf("ties should break by first-seen order, got %q", got)
	}
}

func TestTieBreakAfterWindowWraps(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()

	// One sample that will be evicted, then a calm/tense tie. After the
	// ring wraps, the newest tense sample sits at array index 0, but the
	// window's chronological order still starts with calm.
	a.IngestSignal(types.VisualSample{Expression: "surprised"}, now)
	for i := 0; i < windowSize/2; i++ {
		a.IngestSignal(types.VisualSample{Expression: "calm"}, now)
	}
	for i := 0; i < windowSize/2; i++ {
		a.IngestSignal(types.VisualSample{Expression: "tense"}, now)
	}

	if got := a.CurrentSignals().FacialExpression; got != "calm" {
		t.Fatalf("ties should break by window order after wrap, got %q", got)
	}
}

func TestWindowEviction(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()

	// Fill the window with eye contact false, then overflow with true.
	for i := 0; i < 240; i++ {
		a.IngestSignal(types.VisualSample{EyeContact: false}, now)
	}
	for i := 0; i < 240; i++ {
		a.IngestSignal(types.VisualSample{EyeContact: true}, now)
	}

	snap := a.CurrentSignals()
	if snap.EyeContactPercentage != 100 {
		t.Fatalf("only the most recent 240 samples should count, got %v%%", snap.EyeContactPercentage)
	}
}

func TestPartialEviction(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()

	for i := 0; i < 240; i++ {
		a.IngestSignal(types.VisualSample{EyeContact: false}, now)
	}
	// 60 newer samples evict 60 of the old ones: 60/240 = 25%.
	for i := 0; i < 60; i++ {
		a.IngestSignal(types.VisualSample{EyeContact: true}, now)
	}

	if got := a.CurrentSignals().EyeContactPercentage; got != 25.0 {
		t.Fatalf("expected 25.0%%, got %v", got)
	}
}

func TestPostureClamp(t *testing.T) {
	a := NewAnalyzer()
	a.IngestSignal(types.VisualSample{PostureScore: 1.7}, time.Now())

	if got := a.CurrentSignals().PostureScore; got != 1 {
		t.Fatalf("posture should clamp to 1, got %v", got)
	}
}
