// Package consumer defines the Consumer contract sinks implement to
// receive the final composited frame each tick, plus the concrete file
// and network consumer kinds.
package consumer

import (
	"context"
	"fmt"

	"github.com/zsiec/vista/media"
)

// SendResult reports what happened to one Send call: whether it was
// accepted at all, and whether it was dropped due to backpressure.
// Attributable drops (see DESIGN.md) beat a bare bool for diagnosing why
// a consumer is falling behind.
type SendResult struct {
	Accepted bool
	Dropped  bool
}

// Consumer is a sink for final composited frames. Heavy work (encode,
// network write) is queued on the consumer's own bounded executor rather
// than done inline. A non-synchronizing consumer's Send must return
// promptly: when its queue is full the frame is marked dropped and Send
// still returns immediately rather than stalling the dispatcher. The one
// consumer holding the synchronization clock is the exception — its
// Send blocks until its queue has room, which is what paces the whole
// channel (see ConsumerDevice.Dispatch).
type Consumer interface {
	// Initialize prepares the consumer for format at the given channel
	// index, called once before the first Send.
	Initialize(format media.Format, channelIndex int) error

	// Send enqueues frame for delivery. Must not block on I/O.
	Send(ctx context.Context, frame media.Frame) (SendResult, error)

	// HasSynchronizationClock reports whether the consumer device should
	// pace the tick loop to this consumer's acknowledgement (at most one
	// such consumer may exist per channel).
	HasSynchronizationClock() bool

	// BufferDepth reports the consumer's current queue depth.
	BufferDepth() int

	// DroppedCount reports the cumulative number of frames dropped to
	// backpressure since the consumer was created.
	DroppedCount() uint64

	// Index returns the consumer's stable identifier.
	Index() uint32

	// PresentationFrameAge returns how long, in milliseconds, since the
	// last frame this consumer actually presented (not merely enqueued)
	// was produced — used for drift diagnostics.
	PresentationFrameAge() int64

	// Close flushes any internally buffered frames and releases
	// resources.
	Close() error

	fmt.Stringer
}

// ErrQueueFull describes a frame dropped because a consumer's queue was
// full. The consumers in this module report drops through
// SendResult.Dropped and do not return this error.
var ErrQueueFull = fmt.Errorf("consumer: queue full, frame dropped")
