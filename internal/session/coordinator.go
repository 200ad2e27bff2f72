// Package session orchestrates one live coaching session per client
// connection: it routes inbound telemetry to the speech/visual analyzers
// and the transcription stream, evaluates coaching decisions on transcript
// events, and runs at most one cancellable coach-response task at a time.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FELMONON/ai-speech-coach/internal/coach"
	"github.com/FELMONON/ai-speech-coach/internal/history"
	"github.com/FELMONON/ai-speech-coach/internal/speech"
	"github.com/FELMONON/ai-speech-coach/internal/types"
	"github.com/FELMONON/ai-speech-coach/internal/visual"
)

const (
	speechRMSThreshold  = 0.035
	silenceCommitDelay  = 800 * time.Millisecond
	finalDedupWindow    = 5 * time.Second
	feedbackSnipChars   = 180
	defaultSampleRate   = 16000
	recentFeedbackCount = 5
	teardownTimeout     = 5 * time.Second
)

// Conn is the client side of the duplex channel. Satisfied by the
// websocket adapter in clientws and by fakes in tests.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Transcriber is the streaming STT client surface the coordinator drives.
type Transcriber interface {
	Enabled() bool
	Connect() error
	SendAudio(pcm []byte, sampleRate int)
	Commit(sampleRate int)
	Close()
}

// CoachEngine is the decision/generation surface consumed per transcript.
type CoachEngine interface {
	ShouldCoachNow(now time.Time, m speech.Snapshot, v visual.Snapshot, isFinalTranscript bool) bool
	GenerateCoaching(ctx context.Context, now time.Time, transcription string, m speech.Snapshot, v visual.Snapshot, sc coach.Context) (string, error)
	RecentFeedback(n int) []string
}

// AvatarClient produces spoken audio and an avatar stream for responses.
type AvatarClient interface {
	SynthesizeSpeech(ctx context.Context, text string) (audioBase64, mimeType string)
	PrepareAvatarStream(ctx context.Context, sessionID string) string
}

// Deps are the coordinator's collaborators. NewTranscriber is a factory so
// the STT client can be built with this coordinator's callbacks installed.
type Deps struct {
	Conn     Conn
	Coach    CoachEngine
	Avatar   AvatarClient
	Recorder history.Recorder

	NewTranscriber func(onTranscript func(text string, isFinal bool, ts time.Time), onError func(detail string)) Transcriber

	// Now is the coordinator-edge clock; defaults to time.Now. The
	// analyzers themselves only ever see timestamps passed through it.
	Now func() time.Time
}

// Coordinator owns all per-session state. Inbound client messages arrive on
// the Run loop; transcript callbacks arrive on the STT receiver goroutine;
// the response task runs on its own goroutine. mu guards session state,
// sendMu serializes outbound frames.
type Coordinator struct {
	id   string
	deps Deps
	now  func() time.Time

	runCtx context.Context

	sendMu sync.Mutex

	mu            sync.Mutex
	startedAt     time.Time
	exercise      types.ExerciseType
	paused        bool
	transcripts   []string
	lastSpeech    speech.Snapshot
	lastVisual    visual.Snapshot
	hasMetrics    bool
	trend         types.Trend
	speechA       *speech.Analyzer
	visualA       *visual.Analyzer
	stt           Transcriber
	speaking      bool
	lastVoiceAt   time.Time
	lastFinalText string
	lastFinalAt   time.Time
	avatarStream  string

	taskMu sync.Mutex
	task   *responseTask
}

type responseTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCoordinator builds a coordinator for one connection. An empty id gets
// a generated one.
func NewCoordinator(id string, deps Deps) *Coordinator {
	if id == "" {
		id = uuid.NewString()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Recorder == nil {
		deps.Recorder = history.Noop{}
	}
	return &Coordinator{
		id:       id,
		deps:     deps,
		now:      deps.Now,
		exercise: types.ExerciseFreeTalk,
		trend:    types.TrendNeutral,
		speechA:  speech.NewAnalyzer(),
		visualA:  visual.NewAnalyzer(),
	}
}

func (c *Coordinator) ID() string { return c.id }

// Run drives the session until the client disconnects or ends it. Teardown
// always runs, including after a handler panic.
func (c *Coordinator) Run(ctx context.Context) {
	c.start(ctx)
	defer c.teardown()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[session] %s: handler panic: %v", c.id, r)
			c.sendDetached(errorMsg{Type: "error", Message: fmt.Sprint(r)})
		}
	}()

	for {
		data, err := c.deps.Conn.Read(ctx)
		if err != nil {
			return
		}
		var msg types.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			malformedMessages.Inc()
			log.Printf("[session] %s: skipping malformed message: %v", c.id, err)
			continue
		}
		if c.handleMessage(msg) {
			return
		}
	}
}

// start connects the transcription stream and announces the session.
func (c *Coordinator) start(ctx context.Context) {
	now := c.now()

	c.mu.Lock()
	c.runCtx = ctx
	c.startedAt = now
	c.stt = c.deps.NewTranscriber(c.handleTranscript, c.handleSTTError)
	stt := c.stt
	exercise := c.exercise
	c.mu.Unlock()

	if err := stt.Connect(); err != nil {
		log.Printf("[session] %s: stt connect: %v", c.id, err)
		c.send(ctx, errorMsg{Type: "error", Message: "STT connect failed: " + err.Error()})
	}

	c.send(ctx, statusMsg{Type: "status", State: "connected"})
	if !stt.Enabled() {
		c.send(ctx, errorMsg{
			Type:    "error",
			Message: "ElevenLabs STT is not configured. Add ELEVENLABS_API_KEY for live transcription.",
		})
	}

	c.deps.Recorder.SessionStarted(ctx, c.id, now, string(exercise))
	log.Printf("[session] %s: started", c.id)
}

// handleMessage dispatches one inbound client message. Returns true when
// the session should end.
func (c *Coordinator) handleMessage(msg types.ClientMessage) bool {
	clientMessages.WithLabelValues(msg.Type).Inc()
	ctx := c.runCtx

	switch msg.Type {
	case types.MsgStartSession:
		if !c.setExercise(ctx, msg.ExerciseType) {
			return false
		}
		c.send(ctx, statusMsg{Type: "status", State: "session_started"})

	case types.MsgSetExercise:
		if !c.setExercise(ctx, msg.ExerciseType) {
			return false
		}
		c.mu.Lock()
		name := string(c.exercise)
		c.mu.Unlock()
		c.send(ctx, statusMsg{Type: "status", State: "exercise:" + name})

	case types.MsgPauseSession:
		c.mu.Lock()
		c.paused = true
		c.mu.Unlock()
		c.send(ctx, statusMsg{Type: "status", State: "paused"})

	case types.MsgResumeSession:
		c.mu.Lock()
		c.paused = false
		c.mu.Unlock()
		c.send(ctx, statusMsg{Type: "status", State: "running"})

	case types.MsgUserInterrupt:
		if !c.cancelActiveResponse() {
			log.Printf("[session] %s: interrupt with no active response", c.id)
		}

	case types.MsgVisualSignal:
		if msg.Payload != nil {
			c.mu.Lock()
			c.visualA.IngestSignal(*msg.Payload, c.now())
			c.mu.Unlock()
		}

	case types.MsgAudioChunk:
		c.handleAudioChunk(msg)

	case types.MsgEndSession:
		c.mu.Lock()
		stt := c.stt
		c.mu.Unlock()
		if stt != nil {
			stt.Commit(0)
		}
		return true

	default:
		log.Printf("[session] %s: unknown message type %q", c.id, msg.Type)
	}
	return false
}

func (c *Coordinator) setExercise(ctx context.Context, name string) bool {
	if name == "" {
		name = string(types.ExerciseFreeTalk)
	}
	if !types.ValidExercise(name) {
		c.send(ctx, errorMsg{Type: "error", Message: "unknown exercise_type: " + name})
		return false
	}
	c.mu.Lock()
	c.exercise = types.ExerciseType(name)
	c.mu.Unlock()
	c.deps.Recorder.ExerciseChanged(ctx, c.id, name)
	return true
}

// handleAudioChunk feeds loudness into the speech analyzer, forwards the
// PCM payload to the transcription stream, and applies the local
// voice-activity commit policy: loudness at or above the threshold marks
// speaking; once speaking, sustained silence flushes the utterance.
func (c *Coordinator) handleAudioChunk(msg types.ClientMessage) {
	now := c.now()

	c.mu.Lock()
	c.speechA.AddLoudness(msg.RMS)
	stt := c.stt
	c.mu.Unlock()

	if msg.Chunk == "" || stt == nil || !stt.Enabled() {
		return
	}
	pcm, err := base64.StdEncoding.DecodeString(msg.Chunk)
	if err != nil {
		return
	}
	sr := msg.SampleRate
	if sr == 0 {
		sr = defaultSampleRate
	}
	stt.SendAudio(pcm, sr)

	commit := false
	c.mu.Lock()
	if msg.RMS >= speechRMSThreshold {
		c.speaking = true
		c.lastVoiceAt = now
	} else if c.speaking && now.Sub(c.lastVoiceAt) >= silenceCommitDelay {
		c.speaking = false
		commit = true
	}
	c.mu.Unlock()

	if commit {
		stt.Commit(sr)
		vadCommits.Inc()
	}
}

// handleTranscript runs on the STT receiver goroutine. Analysis always
// proceeds so resuming picks up accurate metrics; while paused, nothing is
// emitted and no coaching decision is made.
func (c *Coordinator) handleTranscript(text string, isFinal bool, ts time.Time) {
	ctx := c.runCtx

	c.mu.Lock()
	normalized := strings.ToLower(strings.TrimSpace(text))
	if isFinal && normalized != "" {
		if normalized == c.lastFinalText && ts.Sub(c.lastFinalAt) < finalDedupWindow {
			c.mu.Unlock()
			dedupedFinals.Inc()
			return
		}
		c.lastFinalText = normalized
		c.lastFinalAt = ts
	}

	snap := c.speechA.ProcessTranscription(text, ts, isFinal)
	vsnap := c.visualA.CurrentSignals()

	if c.hasMetrics {
		c.trend = computeTrend(c.lastSpeech, c.lastVisual, snap, vsnap)
	}
	c.lastSpeech, c.lastVisual, c.hasMetrics = snap, vsnap, true

	if isFinal && strings.TrimSpace(text) != "" {
		c.transcripts = append(c.transcripts, strings.TrimSpace(text))
	}

	paused := c.paused
	sc := c.sessionContextLocked()
	c.mu.Unlock()

	if paused {
		return
	}

	c.send(ctx, transcriptMsg{Type: "transcript", Transcription: text, IsFinal: isFinal})
	c.send(ctx, metricsMsg{Type: "metrics", Data: metricsData{
		SpeechMetrics:  snap,
		VisualSignals:  vsnap,
		SessionContext: sc,
	}})

	if strings.TrimSpace(text) != "" && c.deps.Coach.ShouldCoachNow(c.now(), snap, vsnap, isFinal) {
		c.startResponseTask(ctx, text, snap, vsnap, sc)
	}
}

func (c *Coordinator) handleSTTError(detail string) {
	c.send(c.runCtx, errorMsg{Type: "error", Message: "STT error: " + detail})
}

func (c *Coordinator) sessionContextLocked() coach.Context {
	return coach.Context{
		DurationMinutes:       round2(c.now().Sub(c.startedAt).Minutes()),
		ExerciseType:          c.exercise,
		PreviousFeedbackGiven: c.deps.Coach.RecentFeedback(recentFeedbackCount),
		ImprovementTrend:      c.trend,
	}
}

// startResponseTask enforces the single-slot rule: any in-flight response
// is cancelled and its termination awaited before the replacement begins.
func (c *Coordinator) startResponseTask(ctx context.Context, transcription string, m speech.Snapshot, v visual.Snapshot, sc coach.Context) {
	c.cancelActiveResponse()

	tctx, cancel := context.WithCancel(ctx)
	t := &responseTask{cancel: cancel, done: make(chan struct{})}

	c.taskMu.Lock()
	c.task = t
	c.taskMu.Unlock()

	go c.runResponse(tctx, t, transcription, m, v, sc)
}

// cancelActiveResponse cancels the in-flight response task, if any, and
// waits for it to finish. Reports whether anything was interrupted.
func (c *Coordinator) cancelActiveResponse() bool {
	c.taskMu.Lock()
	t := c.task
	c.taskMu.Unlock()
	if t == nil {
		return false
	}
	t.cancel()
	<-t.done
	return true
}

func (c *Coordinator) runResponse(ctx context.Context, t *responseTask, transcription string, m speech.Snapshot, v visual.Snapshot, sc coach.Context) {
	defer func() {
		c.taskMu.Lock()
		if c.task == t {
			c.task = nil
		}
		c.taskMu.Unlock()
		close(t.done)
	}()

	c.send(ctx, statusMsg{Type: "status", State: "coach_thinking"})

	text, err := c.deps.Coach.GenerateCoaching(ctx, c.now(), transcription, m, v, sc)
	if err != nil {
		c.interrupted()
		return
	}

	c.deps.Recorder.FeedbackGiven(ctx, c.id, truncate(text, feedbackSnipChars), c.now())

	audioB64, mimeType := c.deps.Avatar.SynthesizeSpeech(ctx, text)
	if ctx.Err() != nil {
		c.interrupted()
		return
	}

	c.mu.Lock()
	streamURL := c.avatarStream
	c.mu.Unlock()
	if streamURL == "" {
		streamURL = c.deps.Avatar.PrepareAvatarStream(ctx, c.id)
		if streamURL != "" {
			c.mu.Lock()
			c.avatarStream = streamURL
			c.mu.Unlock()
		}
	}
	if ctx.Err() != nil {
		c.interrupted()
		return
	}

	c.send(ctx, coachResponseMsg{
		Type:            "coach_response",
		ResponseText:    text,
		AudioBase64:     audioB64,
		AudioMimeType:   mimeType,
		AvatarStreamURL: streamURL,
	})
	c.send(ctx, statusMsg{Type: "status", State: "coach_ready"})
	coachResponses.Inc()
}

func (c *Coordinator) interrupted() {
	coachInterrupts.Inc()
	c.sendDetached(statusMsg{Type: "status", State: "coach_interrupted"})
}

// teardown runs on every exit path. Each step is independently
// fault-tolerant; a failure in one never skips the rest.
func (c *Coordinator) teardown() {
	c.cancelActiveResponse()

	c.mu.Lock()
	stt := c.stt
	c.mu.Unlock()
	if stt != nil {
		stt.Close()
	}

	now := c.now()
	c.mu.Lock()
	summary := Summary{
		SessionID:            c.id,
		DurationMinutes:      round2(now.Sub(c.startedAt).Minutes()),
		ExerciseType:         c.exercise,
		Summary:              "Session ended",
		AvgWPM:               c.lastSpeech.WordsPerMinute,
		FillerWordRate:       c.lastSpeech.FillerWordRate,
		EyeContactPercentage: c.lastVisual.EyeContactPercentage,
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	c.deps.Recorder.SessionFinished(ctx, c.id, now, summary.Summary,
		summary.AvgWPM, summary.FillerWordRate, summary.EyeContactPercentage)

	c.send(ctx, summaryMsg{Type: "session_summary", Summary: summary})
	log.Printf("[session] %s: ended after %.2f min", c.id, summary.DurationMinutes)
}

// computeTrend compares consecutive metrics snapshots: fewer fillers and
// steady-or-better eye contact is positive; a filler-rate jump above 1.0
// or an eye-contact drop beyond 8 points is negative.
func computeTrend(prevS speech.Snapshot, prevV visual.Snapshot, curS speech.Snapshot, curV visual.Snapshot) types.Trend {
	if curS.FillerWordRate <= prevS.FillerWordRate && curV.EyeContactPercentage >= prevV.EyeContactPercentage {
		return types.TrendPositive
	}
	if curS.FillerWordRate > prevS.FillerWordRate+1.0 || curV.EyeContactPercentage+8 < prevV.EyeContactPercentage {
		return types.TrendNegative
	}
	return types.TrendNeutral
}

func (c *Coordinator) send(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[session] %s: marshal outbound: %v", c.id, err)
		return
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.deps.Conn.Write(ctx, data); err != nil {
		log.Printf("[session] %s: send failed: %v", c.id, err)
	}
}

// sendDetached delivers a message on a fresh context so cancellation of
// the caller's context cannot swallow it.
func (c *Coordinator) sendDetached(v any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.send(ctx, v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
