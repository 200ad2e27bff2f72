// Package stt maintains the persistent connection to the ElevenLabs
// Scribe realtime speech-to-text service for one session: audio chunks go
// out through a bounded drop-oldest queue, transcript and error events
// come back through caller-supplied callbacks.
package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nhooyr.io/websocket"
)

const (
	defaultEndpoint = "wss://api.elevenlabs.io/v1/speech-to-text/realtime"
	sendQueueCap    = 96
	defaultSampleRate = 16000
)

// Config describes one realtime STT connection.
type Config struct {
	APIKey         string
	ModelID        string
	CommitStrategy string // "manual" | "vad"
	SampleRate     int
	BaseURL        string // override for tests

	// OnTranscript receives every partial and committed transcript.
	OnTranscript func(text string, isFinal bool, ts time.Time)
	// OnError receives a human-readable detail for classified server
	// error and warning events.
	OnError func(detail string)
}

// Client multiplexes outbound audio through a bounded queue and
// demultiplexes inbound server events to callbacks. Without an API key it
// is permanently disabled: every method is a silent no-op.
type Client struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg   Config
	url   string
	ws    *websocket.Conn
	queue *packetQueue
}

func NewClient(parent context.Context, cfg Config) *Client {
	ctx, cancel := context.WithCancel(parent)
	if cfg.ModelID == "" {
		cfg.ModelID = "scribe_v2_realtime"
	}
	if cfg.CommitStrategy != "manual" && cfg.CommitStrategy != "vad" {
		cfg.CommitStrategy = "vad"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaultSampleRate
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultEndpoint
	}
	q := url.Values{}
	q.Set("model_id", cfg.ModelID)
	q.Set("audio_format", "pcm_"+strconv.Itoa(cfg.SampleRate))
	q.Set("language_code", "en")
	q.Set("include_timestamps", "true")
	q.Set("commit_strategy", cfg.CommitStrategy)
	q.Set("vad_silence_threshold_secs", "1.0")

	return &Client{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		url:    base + "?" + q.Encode(),
		queue:  newPacketQueue(sendQueueCap),
	}
}

// Enabled reports whether an API key is configured. A disabled client is
// a first-class degraded mode, not an error.
func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }

// Connect dials the realtime endpoint and starts the outbound and inbound
// loops. It is a no-op for a disabled client.
func (c *Client) Connect() error {
	if !c.Enabled() {
		return nil
	}

	hdr := make(http.Header)
	hdr.Set("xi-api-key", c.cfg.APIKey)

	dialCtx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()
	start := time.Now()
	ws, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{HTTPHeader: hdr})
	if err != nil {
		return err
	}
	ws.SetReadLimit(2_000_000)
	metricConnectMS.Observe(float64(time.Since(start).Milliseconds()))
	log.Printf("[stt] connected in %dms", time.Since(start).Milliseconds())
	c.ws = ws

	go c.sender()
	go c.receiver()
	return nil
}

// SendAudio enqueues a non-committing PCM chunk.
func (c *Client) SendAudio(pcm []byte, sampleRate int) {
	if !c.Enabled() {
		return
	}
	c.enqueue(packet{
		MessageType: "input_audio_chunk",
		AudioBase64: base64.StdEncoding.EncodeToString(pcm),
		SampleRate:  c.sampleRate(sampleRate),
	})
}

// Commit enqueues a flush packet finalizing the current utterance.
func (c *Client) Commit(sampleRate int) {
	if !c.Enabled() {
		return
	}
	metricCommits.Inc()
	c.enqueue(packet{
		MessageType: "input_audio_chunk",
		Commit:      true,
		SampleRate:  c.sampleRate(sampleRate),
	})
}

func (c *Client) enqueue(p packet) {
	if c.queue.push(p) {
		metricDrops.Inc()
	}
	metricPackets.Inc()
	gaugeQueueDepth.Set(float64(c.queue.length()))
}

func (c *Client) sampleRate(sr int) int {
	if sr > 0 {
		return sr
	}
	return c.cfg.SampleRate
}

// Close terminates the outbound loop, cancels the inbound loop, and closes
// the socket, suppressing errors from an already-broken connection. The
// conn field is left intact: the sender may still be draining queued
// packets and the receiver may still be blocked in a read, and both exit
// through the socket-closed error instead.
func (c *Client) Close() {
	c.queue.close()
	c.cancel()
	if c.ws != nil {
		_ = c.ws.Close(websocket.StatusNormalClosure, "bye")
	}
}

func (c *Client) sender() {
	for {
		p, ok := c.queue.pop(c.ctx)
		if !ok {
			return
		}
		b, err := json.Marshal(p)
		if err != nil {
			continue
		}
		wctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
		err = c.ws.Write(wctx, websocket.MessageText, b)
		cancel()
		if err != nil {
			log.Printf("[stt] write error: %v", err)
			return
		}
	}
}

func (c *Client) receiver() {
	for {
		_, data, err := c.ws.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				log.Printf("[stt] read error: %v", err)
			}
			return
		}
		ev, ok := classifyServerMessage(data)
		if !ok {
			continue
		}
		switch ev.kind {
		case eventTranscript:
			metricTranscripts.WithLabelValues(boolLabel(ev.isFinal)).Inc()
			if c.cfg.OnTranscript != nil {
				c.cfg.OnTranscript(ev.text, ev.isFinal, time.Now())
			}
		case eventError:
			metricServerErrors.Inc()
			if c.cfg.OnError != nil {
				c.cfg.OnError(ev.detail)
			}
		}
	}
}

func boolLabel(b bool) string {
	if b {
		return "final"
	}
	return "partial"
}
