package speech

import (
	"testing"
	"time"
)

func ts(base time.Time, secs float64) time.Time {
	return base.Add(time.Duration(secs * float64(time.Second)))
}

func TestWordCountAccumulates(t *testing.T) {
	a := NewAnalyzer()
	base := time.Now()

	a.ProcessTranscription("one two three four five six seven eight nine ten", ts(base, 0), true)
	a.ProcessTranscription("one two three four five six seven eight nine ten", ts(base, 60), true)
	snap := a.ProcessTranscription("one two three four five six seven eight nine ten", ts(base, 120), true)

	if snap.TotalWords != 30 {
		t.Fatalf("expected 30 total words, got %d", snap.TotalWords)
	}
	if snap.FillerWordRate != 0 {
		t.Fatalf("expected zero filler rate, got %v", snap.FillerWordRate)
	}
	// 30 words over 2 minutes
	if snap.WordsPerMinute != 15 {
		t.Fatalf("expected 15 wpm, got %v", snap.WordsPerMinute)
	}
}

func TestFillerDetection(t *testing.T) {
	a := NewAnalyzer()
	snap := a.ProcessTranscription("um, like, so basically", time.Now(), true)

	want := map[string]int{"um": 1, "like": 1, "so": 1, "basically": 1}
	for term, n := range want {
		if snap.FillerWords[term] != n {
			t.Errorf("filler %q: expected %d, got %d", term, n, snap.FillerWords[term])
		}
	}
}

func TestFillerCountsPerEventOnly(t *testing.T) {
	a := NewAnalyzer()
	base := time.Now()
	a.ProcessTranscription("um well", ts(base, 0), true)
	snap := a.CurrentMetrics(ts(base, 1))
	// Recomputing metrics must not re-scan previously finalized text.
	snap2 := a.CurrentMetrics(ts(base, 2))

	if snap.FillerWords["um"] != 1 || snap2.FillerWords["um"] != 1 {
		t.Fatalf("final filler counts must be counted exactly once, got %d then %d",
			snap.FillerWords["um"], snap2.FillerWords["um"])
	}
}

func TestInterimDoesNotMutateTotals(t *testing.T) {
	a := NewAnalyzer()
	base := time.Now()

	a.ProcessTranscription("um hello there", ts(base, 0), false)
	a.ProcessTranscription("um hello there friends", ts(base, 1), false)
	snap := a.CurrentMetrics(ts(base, 1))
	if snap.TotalWords != 4 {
		t.Fatalf("interim words should come from latest hypothesis only, got %d", snap.TotalWords)
	}
	if snap.FillerWords["um"] != 1 {
		t.Fatalf("interim fillers should not accumulate across revisions, got %d", snap.FillerWords["um"])
	}

	// The final replaces the pending interim entirely.
	snap = a.ProcessTranscription("hello there friends", ts(base, 2), true)
	if snap.TotalWords != 3 {
		t.Fatalf("expected 3 words after final, got %d", snap.TotalWords)
	}
	if snap.FillerWords["um"] != 0 {
		t.Fatalf("revised-away interim filler should not persist, got %d", snap.FillerWords["um"])
	}
}

func TestPauseDetection(t *testing.T) {
	a := NewAnalyzer()
	base := time.Now()

	a.ProcessTranscription("first part", ts(base, 0), true)
	a.ProcessTranscription("after a short gap", ts(base, 1), true)
	snap := a.ProcessTranscription("after a long gap", ts(base, 4), true)

	if snap.PauseCount != 1 {
		t.Fatalf("expected 1 pause (only gaps > 1.5s count), got %d", snap.PauseCount)
	}
	if snap.LongestPauseSeconds != 3.0 {
		t.Fatalf("expected longest pause 3.0s, got %v", snap.LongestPauseSeconds)
	}
}

func TestElapsedMinutesFloor(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()
	snap := a.ProcessTranscription("a few quick words", now, true)

	if snap.ElapsedMinutes != 0.1 {
		t.Fatalf("elapsed minutes should floor at 0.1, got %v", snap.ElapsedMinutes)
	}
	if snap.WordsPerMinute < 0 {
		t.Fatalf("wpm must be non-negative, got %v", snap.WordsPerMinute)
	}
}

func TestVolumeConsistency(t *testing.T) {
	a := NewAnalyzer()
	now := time.Now()

	a.AddLoudness(0.5)
	a.AddLoudness(0.5)
	a.AddLoudness(0.5)
	if got := a.CurrentMetrics(now).VolumeConsistency; got != 0 {
		t.Fatalf("fewer than 4 samples should score 0, got %v", got)
	}

	a.AddLoudness(0.5)
	if got := a.CurrentMetrics(now).VolumeConsistency; got != 1 {
		t.Fatalf("uniform loudness should score 1, got %v", got)
	}

	// Alternating 0/1 has stddev equal to mean, so the score bottoms out.
	b := NewAnalyzer()
	b.AddLoudness(0)
	b.AddLoudness(1)
	b.AddLoudness(0)
	b.AddLoudness(1)
	if got := b.CurrentMetrics(now).VolumeConsistency; got != 0 {
		t.Fatalf("alternating loudness should score 0, got %v", got)
	}
}

func TestEmptyFinalClearsInterim(t *testing.T) {
	a := NewAnalyzer()
	base := time.Now()

	a.ProcessTranscription("pending words here", ts(base, 0), false)
	snap := a.ProcessTranscription("", ts(base, 1), true)

	if snap.TotalWords != 0 {
		t.Fatalf("empty final should clear pending interim words, got %d", snap.TotalWords)
	}
	if snap.PauseCount != 0 {
		t.Fatalf("empty final should not record pauses, got %d", snap.PauseCount)
	}
}
