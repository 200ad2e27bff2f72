// Package clientws accepts the browser's session websocket and binds each
// connection to its own session coordinator.
package clientws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	ws "nhooyr.io/websocket"

	"github.com/FELMONON/ai-speech-coach/internal/avatar"
	"github.com/FELMONON/ai-speech-coach/internal/coach"
	"github.com/FELMONON/ai-speech-coach/internal/config"
	"github.com/FELMONON/ai-speech-coach/internal/history"
	"github.com/FELMONON/ai-speech-coach/internal/session"
	"github.com/FELMONON/ai-speech-coach/internal/stt"
)

const defaultCoachInterval = 15 * time.Second

type Server struct {
	cfg      config.Config
	reg      *session.Registry
	recorder history.Recorder
}

func NewServer(cfg config.Config, reg *session.Registry, recorder history.Recorder) *Server {
	return &Server{cfg: cfg, reg: reg, recorder: recorder}
}

// HandleSessionWS serves one full session on /ws/session/{session_id}.
// The coordinator owns the connection until the client ends the session
// or disconnects.
func (s *Server) HandleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	c, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		log.Printf("[clientws] accept: %v", err)
		return
	}
	c.SetReadLimit(1 << 20)

	interval := time.Duration(s.cfg.Coach.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultCoachInterval
	}

	co := session.NewCoordinator(sessionID, session.Deps{
		Conn:  wsConn{c: c},
		Coach: coach.NewEngine(s.cfg.Anthropic.APIKey, s.cfg.Anthropic.Model, coach.SystemPrompt, interval),
		Avatar: avatar.NewManager(
			s.cfg.Eleven.APIKey, s.cfg.Eleven.VoiceID, s.cfg.Eleven.TTSModel,
			s.cfg.Simli.APIKey, s.cfg.Simli.FaceID,
		),
		Recorder: s.recorder,
		NewTranscriber: func(onTranscript func(string, bool, time.Time), onError func(string)) session.Transcriber {
			return stt.NewClient(r.Context(), stt.Config{
				APIKey:         s.cfg.Eleven.APIKey,
				ModelID:        s.cfg.Eleven.STTModel,
				CommitStrategy: s.cfg.Eleven.CommitStrategy,
				OnTranscript:   onTranscript,
				OnError:        onError,
			})
		},
	})

	s.reg.Add(co)
	co.Run(r.Context())
	s.reg.Remove(co.ID())

	_ = c.Close(ws.StatusNormalClosure, "session ended")
}

// wsConn adapts a websocket connection to the coordinator's Conn.
type wsConn struct {
	c *ws.Conn
}

func (w wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := w.c.Read(ctx)
		if err != nil {
			return nil, err
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		return data, nil
	}
}

func (w wsConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, ws.MessageText, data)
}
