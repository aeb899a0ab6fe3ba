// Package producer defines the Producer contract every source of frames in
// a playout channel must satisfy, plus a generator producer used for tests
// and as solid-color/pattern layer content.
package producer

import (
	"fmt"

	"github.com/zsiec/vista/media"
)

// Producer is a single source of producer_frame values for one layer. The
// producer device calls Receive once per tick; implementations must return
// promptly (no blocking I/O) since Receive runs inside the device's
// per-tick parallel fan-out.
type Producer interface {
	// Receive returns the next frame: a payload, the empty identity frame,
	// or the eof sentinel once the source is exhausted.
	Receive() media.Frame

	// FollowingProducer returns the producer that should replace this one
	// once it reaches eof, or nil if playback should simply stop. The
	// layer calls this once, after observing an eof frame, and discards
	// the exhausted producer.
	FollowingProducer() Producer

	// SetLeadingProducer is called on the incoming producer of a
	// transition so it can hand control back once the transition
	// completes, mirroring get_following_producer/set_leading_producer
	// pairing in the transition producer.
	SetLeadingProducer(leading Producer)

	// Initialize is called once, synchronously, before the producer is
	// ever ticked, so it can allocate buffers sized to the channel's
	// target format via the supplied frame factory.
	Initialize(factory media.Factory)

	fmt.Stringer
}

// Empty is the null producer: it always returns the empty identity frame
// and never reaches eof. Used to fill a layer with no content loaded.
type Empty struct{}

func (Empty) Receive() media.Frame              { return media.Empty() }
func (Empty) FollowingProducer() Producer       { return nil }
func (Empty) SetLeadingProducer(Producer)       {}
func (Empty) Initialize(media.Factory)          {}
func (Empty) String() string                    { return "empty-producer" }

var _ Producer = Empty{}
