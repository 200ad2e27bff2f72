package stt

import (
	"context"
	"sync"
)

// packet is a single unit bound for the realtime STT socket: a base64 PCM
// chunk, or a commit marker flushing the current utterance.
type packet struct {
	MessageType string `json:"message_type"`
	AudioBase64 string `json:"audio_base_64"`
	Commit      bool   `json:"commit"`
	SampleRate  int    `json:"sample_rate"`
}

// packetQueue is a bounded FIFO with drop-oldest backpressure: a push into
// a full queue evicts the oldest packet instead of blocking the producer.
// Commit packets are never evicted. Losing one desynchronizes utterance
// boundaries for the rest of the stream, while losing a stale audio chunk
// costs a fraction of a second of speech.
type packetQueue struct {
	mu     sync.Mutex
	items  []packet
	cap    int
	ready  chan struct{}
	closed bool
}

func newPacketQueue(capacity int) *packetQueue {
	return &packetQueue{
		cap:   capacity,
		ready: make(chan struct{}, capacity),
	}
}

// push enqueues p, evicting the oldest non-commit packet when full.
// It reports whether an eviction happened and never blocks.
func (q *packetQueue) push(p packet) (dropped bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if len(q.items) >= q.cap {
		evicted := false
		for i, it := range q.items {
			if !it.Commit {
				q.items = append(q.items[:i], q.items[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			// Queue is all commits; drop the incoming packet instead.
			q.mu.Unlock()
			return true
		}
		dropped = true
	}
	q.items = append(q.items, p)
	// Wake-up stays under the lock so it cannot race a concurrent close
	// of the ready channel.
	select {
	case q.ready <- struct{}{}:
	default:
	}
	q.mu.Unlock()
	return dropped
}

// pop dequeues the oldest packet, blocking until one is available, the
// queue is closed and drained, or ctx is cancelled.
func (q *packetQueue) pop(ctx context.Context) (packet, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			p := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return p, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return packet{}, false
		}

		select {
		case <-ctx.Done():
			return packet{}, false
		case <-q.ready:
		}
	}
}

// close marks the queue closed; pending packets remain poppable. The ready
// channel is closed while holding the lock, mutually exclusive with push's
// wake-up send.
func (q *packetQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

func (q *packetQueue) length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
