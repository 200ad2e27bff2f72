package types

// Inbound client message types over the session websocket.
const (
	MsgStartSession  = "start_session"
	MsgSetExercise   = "set_exercise"
	MsgPauseSession  = "pause_session"
	MsgResumeSession = "resume_session"
	MsgUserInterrupt = "user_interrupt"
	MsgVisualSignal  = "visual_signal"
	MsgAudioChunk    = "audio_chunk"
	MsgEndSession    = "end_session"
)

// ClientMessage is the envelope for everything the browser sends.
// Fields beyond Type are populated depending on the message kind.
type ClientMessage struct {
	Type         string        `json:"type"`
	ExerciseType string        `json:"exercise_type,omitempty"`
	Payload      *VisualSample `json:"payload,omitempty"`
	Chunk        string        `json:"chunk,omitempty"` // base64 PCM16
	RMS          float64       `json:"rms,omitempty"`
	SampleRate   int           `json:"sample_rate,omitempty"`
}

// VisualSample is one raw visual-telemetry sample from the client's
// camera pipeline. Field names match the frontend payload.
type VisualSample struct {
	EyeContact   bool     `json:"eyeContact"`
	HeadPose     HeadPose `json:"headPose"`
	Expression   string   `json:"expression"`
	PostureScore float64  `json:"postureScore"`
}

// HeadPose holds head rotation in degrees.
type HeadPose struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// ExerciseType enumerates the supported coaching exercises.
type ExerciseType string

const (
	ExerciseFreeTalk              ExerciseType = "free_talk"
	ExerciseElevatorPitch         ExerciseType = "elevator_pitch"
	ExerciseStorytelling          ExerciseType = "storytelling"
	ExerciseDebate                ExerciseType = "debate"
	ExerciseEyeContactDrill       ExerciseType = "eye_contact_drill"
	ExerciseFillerWordElimination ExerciseType = "filler_word_elimination"
	ExercisePowerPause            ExerciseType = "power_pause"
	ExerciseImpromptu             ExerciseType = "impromptu"
)

// ValidExercise reports whether s names a known exercise.
func ValidExercise(s string) bool {
	switch ExerciseType(s) {
	case ExerciseFreeTalk, ExerciseElevatorPitch, ExerciseStorytelling,
		ExerciseDebate, ExerciseEyeContactDrill, ExerciseFillerWordElimination,
		ExercisePowerPause, ExerciseImpromptu:
		return true
	}
	return false
}

// Trend is the session improvement trend carried in session context.
type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNeutral  Trend = "neutral"
	TrendNegative Trend = "negative"
)
