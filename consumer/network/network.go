// Package network implements the network consumer: a Consumer that
// streams composited frames to one connected QUIC client via
// internal/wire framing over internal/quicsink. It never holds the
// synchronization clock itself (a live network viewer joining or
// stalling must not pace the channel), and drops frames when its
// internal queue saturates, following a bounded-executor, drop-on-full
// discipline suited to fan-out consumers with no upstream backpressure.
package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zsiec/vista/consumer"
	"github.com/zsiec/vista/internal/quicsink"
	"github.com/zsiec/vista/internal/wire"
	"github.com/zsiec/vista/media"
)

const defaultQueueDepth = 8

// Consumer streams frame objects to a single accepted QUIC client stream.
// Multiple concurrent client connections are handled by running one
// Consumer per connection, all registered with the same engine.ConsumerDevice.
type Consumer struct {
	log   *slog.Logger
	index uint32

	queue  chan media.Frame
	closed chan struct{}
	once   sync.Once

	mu               sync.Mutex
	lastSentAt       time.Time
	dropped, sent    uint64
}

// New constructs a network Consumer wrapping an already-accepted stream
// writer. addr identifies the remote client for fingerprinting/logging.
func New(w *wire.Writer, addr string) *Consumer {
	c := &Consumer{
		log:    slog.With("component", "network-consumer", "remote", addr),
		index:  consumer.Fingerprint(consumer.KindNetwork, addr),
		queue:  make(chan media.Frame, defaultQueueDepth),
		closed: make(chan struct{}),
	}
	go c.drain(w)
	return c
}

func (c *Consumer) drain(w *wire.Writer) {
	for {
		select {
		case frame, ok := <-c.queue:
			if !ok {
				return
			}
			if _, err := w.WriteFrame(frame); err != nil {
				c.log.Warn("write failed, closing consumer", "error", err)
				c.forceClose()
				return
			}
			c.mu.Lock()
			c.lastSentAt = time.Now()
			c.sent++
			c.mu.Unlock()
		case <-c.closed:
			return
		}
	}
}

func (c *Consumer) forceClose() {
	c.once.Do(func() { close(c.closed) })
}

// Initialize is a no-op: the network consumer has no per-format state
// beyond what the wire framing itself already carries per frame.
func (c *Consumer) Initialize(format media.Format, channelIndex int) error {
	return nil
}

// Send enqueues frame for the drain goroutine, dropping it if the queue
// is saturated rather than blocking the dispatcher.
func (c *Consumer) Send(ctx context.Context, frame media.Frame) (consumer.SendResult, error) {
	select {
	case <-c.closed:
		return consumer.SendResult{}, fmt.Errorf("network consumer: closed")
	default:
	}

	select {
	case c.queue <- frame:
		return consumer.SendResult{Accepted: true}, nil
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
		return consumer.SendResult{Accepted: true, Dropped: true}, nil
	}
}

// HasSynchronizationClock is always false: a network viewer must never
// pace the channel's output rate.
func (c *Consumer) HasSynchronizationClock() bool { return false }

// BufferDepth reports the number of frames currently queued.
func (c *Consumer) BufferDepth() int { return len(c.queue) }

// DroppedCount reports the cumulative number of frames dropped because the
// outbound queue was saturated.
func (c *Consumer) DroppedCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Index returns the consumer's fingerprinted identifier.
func (c *Consumer) Index() uint32 { return c.index }

// PresentationFrameAge returns milliseconds since the last frame was
// actually written to the wire.
func (c *Consumer) PresentationFrameAge() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSentAt.IsZero() {
		return -1
	}
	return time.Since(c.lastSentAt).Milliseconds()
}

// Close stops the drain goroutine and releases the queue.
func (c *Consumer) Close() error {
	c.forceClose()
	return nil
}

func (c *Consumer) String() string {
	return fmt.Sprintf("network-consumer[index=%08x]", c.index)
}

var _ consumer.Consumer = (*Consumer)(nil)

// ListenerConfig re-exports quicsink.Config so callers needn't import
// quicsink directly just to construct a network consumer server.
type ListenerConfig = quicsink.Config

// TLSCertificate re-exports the std tls.Certificate type for the same
// reason.
type TLSCertificate = tls.Certificate
