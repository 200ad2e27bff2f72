// Package speech turns transcript fragments and loudness samples into
// live speaking metrics (pace, fillers, pauses, volume consistency).
package speech

import (
	"math"
	"regexp"
	"strings"
	"time"
)

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

// fillerTerms is the fixed enumeration of filler words and phrases the
// analyzer counts. Order is the match order for multi-word phrases.
var fillerTerms = []string{
	"um", "uh", "uhh", "umm", "hmm", "hm",
	"like", "you know", "basically", "actually", "literally",
	"right", "so", "well", "i mean", "kind of", "sort of",
	"stuff like that",
}

const (
	pauseThreshold   = 1500 * time.Millisecond
	volumeWindowSize = 240
	minVolumeSamples = 4
	minElapsedMin    = 0.1
)

// Snapshot is a point-in-time view of the speaker's metrics. It is a
// plain value; the analyzer never hands out live internal state.
type Snapshot struct {
	WordsPerMinute      float64        `json:"words_per_minute"`
	FillerWords         map[string]int `json:"filler_words"`
	FillerWordRate      float64        `json:"filler_word_rate"`
	PauseCount          int            `json:"pause_count"`
	LongestPauseSeconds float64        `json:"longest_pause_seconds"`
	VolumeConsistency   float64        `json:"volume_consistency"`
	TotalWords          int            `json:"total_words"`
	ElapsedMinutes      float64        `json:"elapsed_minutes"`
}

// Analyzer accumulates metrics over one session. Timestamps are supplied
// by the caller so the analyzer never reads the wall clock itself.
// Not safe for concurrent use; the session coordinator owns it.
type Analyzer struct {
	patterns map[string]*regexp.Regexp

	sessionStart  time.Time
	lastFinalTime time.Time

	totalWords     int
	fillerCounts   map[string]int
	pauseDurations []time.Duration

	volumeSamples [volumeWindowSize]float64
	volumeNext    int
	volumeCount   int

	interimText      string
	interimWordCount int
}

func NewAnalyzer() *Analyzer {
	patterns := make(map[string]*regexp.Regexp, len(fillerTerms))
	for _, term := range fillerTerms {
		patterns[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return &Analyzer{
		patterns:     patterns,
		fillerCounts: make(map[string]int),
	}
}

// AddLoudness appends one RMS loudness sample, clamped to [0,1], into the
// fixed-capacity window used for volume consistency.
func (a *Analyzer) AddLoudness(rms float64) {
	a.volumeSamples[a.volumeNext] = clamp01(rms)
	a.volumeNext = (a.volumeNext + 1) % volumeWindowSize
	if a.volumeCount < volumeWindowSize {
		a.volumeCount++
	}
}

// ProcessTranscription folds one transcript fragment into the metrics and
// returns the resulting snapshot.
//
// Interim fragments only replace the pending scratch text so live views
// reflect in-flight speech without double counting words that later
// hypotheses revise. Final fragments update the cumulative counters.
func (a *Analyzer) ProcessTranscription(text string, ts time.Time, isFinal bool) Snapshot {
	if a.sessionStart.IsZero() {
		a.sessionStart = ts
	}

	normalized := strings.ToLower(strings.TrimSpace(text))

	if !isFinal {
		a.interimText = normalized
		a.interimWordCount = len(wordPattern.FindAllString(normalized, -1))
		return a.CurrentMetrics(ts)
	}

	if normalized == "" {
		a.interimText = ""
		a.interimWordCount = 0
		return a.CurrentMetrics(ts)
	}

	a.totalWords += len(wordPattern.FindAllString(normalized, -1))

	for term, pattern := range a.patterns {
		if n := len(pattern.FindAllString(normalized, -1)); n > 0 {
			a.fillerCounts[term] += n
		}
	}

	if !a.lastFinalTime.IsZero() {
		if pause := ts.Sub(a.lastFinalTime); pause > pauseThreshold {
			a.pauseDurations = append(a.pauseDurations, pause)
		}
	}

	a.lastFinalTime = ts
	a.interimText = ""
	a.interimWordCount = 0
	return a.CurrentMetrics(ts)
}

// CurrentMetrics recomputes the snapshot for the given time, including any
// in-flight interim words and filler matches.
func (a *Analyzer) CurrentMetrics(ts time.Time) Snapshot {
	if a.sessionStart.IsZero() {
		a.sessionStart = ts
	}

	elapsedMin := ts.Sub(a.sessionStart).Minutes()
	if elapsedMin < minElapsedMin {
		elapsedMin = minElapsedMin
	}

	fillers := make(map[string]int, len(a.fillerCounts))
	for term, n := range a.fillerCounts {
		fillers[term] = n
	}
	if a.interimText != "" {
		for term, pattern := range a.patterns {
			if n := len(pattern.FindAllString(a.interimText, -1)); n > 0 {
				fillers[term] += n
			}
		}
	}

	totalFillers := 0
	for _, n := range fillers {
		totalFillers += n
	}
	totalWords := a.totalWords + a.interimWordCount

	var longestPause time.Duration
	for _, p := range a.pauseDurations {
		if p > longestPause {
			longestPause = p
		}
	}

	return Snapshot{
		WordsPerMinute:      math.Round(float64(totalWords) / elapsedMin),
		FillerWords:         fillers,
		FillerWordRate:      round1(float64(totalFillers) / elapsedMin),
		PauseCount:          len(a.pauseDurations),
		LongestPauseSeconds: round1(longestPause.Seconds()),
		VolumeConsistency:   round2(a.volumeConsistency()),
		TotalWords:          totalWords,
		ElapsedMinutes:      round2(elapsedMin),
	}
}

// volumeConsistency is 1 - (population stddev / mean) over the loudness
// window, clamped to [0,1]. With fewer than minVolumeSamples samples the
// score is 0.
func (a *Analyzer) volumeConsistency() float64 {
	if a.volumeCount < minVolumeSamples {
		return 0
	}
	var sum float64
	for i := 0; i < a.volumeCount; i++ {
		sum += a.volumeSamples[i]
	}
	mean := sum / float64(a.volumeCount)
	if mean <= 0 {
		return 0
	}
	var sq float64
	for i := 0; i < a.volumeCount; i++ {
		d := a.volumeSamples[i] - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(a.volumeCount))
	return clamp01(1 - stddev/mean)
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
