// Package file implements the file consumer: a Consumer that hands each
// final frame to an Encoder and writes the encoded result to disk. The
// actual codec is out of scope (§1 Non-goals) — Encoder is a narrow
// contract a real encoder library would satisfy, exercised here by a
// raw-frame-dump Encoder used in tests.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/zsiec/vista/consumer"
	"github.com/zsiec/vista/media"
)

// Encoder turns a composited media.Frame into an encoded byte payload
// ready to append to the output file. Real deployments bind this to an
// actual video/audio encoder; it is never implemented here.
type Encoder interface {
	Encode(frame media.Frame) ([]byte, error)
	// Flush returns any codec-delay frames buffered internally, to be
	// written before the file is closed.
	Flush() ([]byte, error)
}

const defaultQueueDepth = 64

// Consumer writes encoded frames to a file sequentially via its own
// bounded executor (a single drain goroutine). As the channel's
// synchronizing consumer it never drops a frame under backpressure;
// instead Send blocks until the drain goroutine has made room, which is
// what paces the producer device's tick loop to disk write speed.
type Consumer struct {
	log     *slog.Logger
	index   uint32
	path    string
	encoder Encoder

	f *os.File

	queue  chan media.Frame
	closed chan struct{}
	once   sync.Once
	done   chan struct{}

	mu         sync.Mutex
	lastSentAt time.Time
}

// New opens path for writing and constructs a file Consumer that encodes
// every frame through enc before appending it.
func New(path string, enc Encoder) (*Consumer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("file consumer: create %s: %w", path, err)
	}

	c := &Consumer{
		log:     slog.With("component", "file-consumer", "path", path),
		index:   consumer.Fingerprint(consumer.KindFile, path),
		path:    path,
		encoder: enc,
		f:       f,
		queue:   make(chan media.Frame, defaultQueueDepth),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.drain()
	return c, nil
}

func (c *Consumer) drain() {
	defer close(c.done)
	for {
		select {
		case frame, ok := <-c.queue:
			if !ok {
				c.flushAndClose()
				return
			}
			data, err := c.encoder.Encode(frame)
			if err != nil {
				c.log.Error("encode failed", "error", err)
				continue
			}
			if _, err := c.f.Write(data); err != nil {
				c.log.Error("write failed", "error", err)
				continue
			}
			c.mu.Lock()
			c.lastSentAt = time.Now()
			c.mu.Unlock()
		case <-c.closed:
			for len(c.queue) > 0 {
				frame := <-c.queue
				data, err := c.encoder.Encode(frame)
				if err != nil {
					c.log.Error("encode failed", "error", err)
					continue
				}
				if _, err := c.f.Write(data); err != nil {
					c.log.Error("write failed", "error", err)
				}
			}
			c.flushAndClose()
			return
		}
	}
}

func (c *Consumer) flushAndClose() {
	if tail, err := c.encoder.Flush(); err == nil && len(tail) > 0 {
		_, _ = c.f.Write(tail)
	}
	_ = c.f.Close()
}

// Initialize is a no-op here: the encoder is bound to its target format
// at construction time via whatever concrete Encoder implementation the
// caller chose.
func (c *Consumer) Initialize(format media.Format, channelIndex int) error {
	return nil
}

// Send enqueues frame for encoding, blocking until the drain goroutine
// has room rather than dropping: this is the back-pressure mechanism
// that paces the channel's tick loop to the synchronizing consumer's
// write rate (see ConsumerDevice.Dispatch).
func (c *Consumer) Send(ctx context.Context, frame media.Frame) (consumer.SendResult, error) {
	select {
	case <-c.closed:
		return consumer.SendResult{}, fmt.Errorf("file consumer: closed")
	default:
	}

	select {
	case c.queue <- frame:
		return consumer.SendResult{Accepted: true}, nil
	case <-c.closed:
		return consumer.SendResult{}, fmt.Errorf("file consumer: closed")
	}
}

// HasSynchronizationClock is true: a file recorder is the canonical
// synchronizing consumer in a headless channel with no live viewer, since
// its write rate should pace the channel rather than let frames pile up
// unbounded waiting on disk I/O.
func (c *Consumer) HasSynchronizationClock() bool { return true }

// BufferDepth reports the number of frames currently queued for encode.
func (c *Consumer) BufferDepth() int { return len(c.queue) }

// DroppedCount is always zero: as the synchronizing consumer, a file
// Consumer blocks rather than drops under backpressure.
func (c *Consumer) DroppedCount() uint64 { return 0 }

// Index returns the consumer's fingerprinted identifier.
func (c *Consumer) Index() uint32 { return c.index }

// PresentationFrameAge returns milliseconds since the last frame was
// encoded and written.
func (c *Consumer) PresentationFrameAge() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSentAt.IsZero() {
		return -1
	}
	return time.Since(c.lastSentAt).Milliseconds()
}

// Close flushes codec-delay frames and closes the output file, blocking
// until the drain goroutine has finished.
func (c *Consumer) Close() error {
	c.once.Do(func() { close(c.closed) })
	<-c.done
	return nil
}

func (c *Consumer) String() string {
	return fmt.Sprintf("file-consumer[path=%s]", c.path)
}

var _ consumer.Consumer = (*Consumer)(nil)
