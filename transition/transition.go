// Package transition implements the transition producer: a Producer that
// wraps a source and destination producer and composites between them over
// a fixed number of frames using cut/mix/push/slide/wipe.
package transition

import (
	"fmt"
	"log/slog"

	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/producer"
)

// Type selects the compositing style applied between source and dest.
type Type int

const (
	Cut Type = iota
	Mix
	Push
	Slide
	Wipe
)

// Direction selects which edge the incoming destination enters from for
// push/slide/wipe.
type Direction int

const (
	FromLeft Direction = iota
	FromRight
)

// Info configures a transition: its style, direction, and duration in
// frames.
type Info struct {
	Type      Type
	Direction Direction
	Duration  int
}

// Producer composites a source producer (the outgoing content) against a
// destination producer (the incoming content) for Info.Duration frames,
// then reports eof so the owning layer hands off to the destination.
//
// Grounded directly on transition_producer.cpp's receive/compose
// structure: cut returns the raw source frame with no cross-fade (resolved
// Open Question — see the "transition cut cross-fade" entry in the design
// ledger), every other style cross-fades audio volume linearly and applies
// an alpha/translate/texcoord transform to the destination frame (and, for
// push, to the source frame too).
type Producer struct {
	log *slog.Logger

	info Info
	cur  int

	source, origSource producer.Producer
	dest, origDest      producer.Producer
}

// New constructs a transition producer. dest must not be nil: a
// transition always has incoming content, even if it is producer.Empty{}.
func New(dest producer.Producer, info Info) (*Producer, error) {
	if dest == nil {
		return nil, fmt.Errorf("transition: dest producer is nil")
	}
	return &Producer{
		log:      slog.With("component", "transition"),
		info:     info,
		dest:     dest,
		origDest: dest,
	}, nil
}

// Initialize initializes the destination producer. The source producer is
// initialized already (it is the layer's current foreground) and is
// attached via SetLeadingProducer instead.
func (p *Producer) Initialize(factory media.Factory) {
	p.dest.Initialize(factory)
}

// SetLeadingProducer attaches the outgoing producer this transition
// crossfades away from.
func (p *Producer) SetLeadingProducer(leading producer.Producer) {
	p.source = leading
	p.origSource = leading
}

// FollowingProducer returns the destination producer: once the transition
// reaches eof, the layer should continue playback from dest.
func (p *Producer) FollowingProducer() producer.Producer {
	return p.dest
}

func (p *Producer) String() string {
	srcName := "empty"
	if p.origSource != nil {
		srcName = p.origSource.String()
	}
	destName := "empty"
	if p.origDest != nil {
		destName = p.origDest.String()
	}
	return fmt.Sprintf("transition[dest:%s src:%s]", destName, srcName)
}

// Receive advances the transition by one frame. It runs dest/source
// receive-with-fallback, composes them, and returns eof once Duration
// frames have been produced.
func (p *Producer) Receive() media.Frame {
	if p.cur == 0 {
		p.log.Info("transition started")
	}

	if p.cur >= p.info.Duration {
		return media.EOF()
	}
	p.cur++

	destFrame := p.receiveFrom(&p.dest)
	srcFrame := p.receiveFrom(&p.source)

	result := p.compose(destFrame, srcFrame)
	if result.IsEOF() {
		p.log.Info("transition ended")
	}
	return result
}

// receiveFrom pulls the next frame from *slot, transparently following
// end-of-stream hand-off: if the current producer reports eof and exposes
// a following producer, that producer replaces *slot and is tried in its
// place, exactly as the original's receive(frame_producer_ptr&) helper
// does.
func (p *Producer) receiveFrom(slot *producer.Producer) media.Frame {
	cur := *slot
	if cur == nil {
		return media.EOF()
	}

	frame := cur.Receive()
	if !frame.IsEOF() {
		return frame
	}

	following := cur.FollowingProducer()
	if following == nil {
		return media.EOF()
	}
	following.SetLeadingProducer(cur)
	*slot = following
	return p.receiveFrom(slot)
}

func (p *Producer) compose(dest, src media.Frame) media.Frame {
	if dest.IsEOF() && src.IsEOF() {
		return media.EOF()
	}

	if p.info.Type == Cut {
		return src
	}

	alpha := float64(p.cur) / float64(p.info.Duration)
	volume := uint8(alpha * 255.0)

	srcT := src.Transform
	if src.IsEmpty() || src.IsEOF() {
		srcT = media.IdentityTransform()
	}
	destT := dest.Transform
	if dest.IsEmpty() || dest.IsEOF() {
		destT = media.IdentityTransform()
	}

	srcT.Volume = 255 - volume
	destT.Volume = volume

	dir := 1.0
	if p.info.Direction == FromRight {
		dir = -1.0
	}

	switch p.info.Type {
	case Mix:
		destT.Alpha = alpha
	case Slide:
		destT.TranslateX = (-1.0 + alpha) * dir
	case Push:
		destT.TranslateX = (-1.0 + alpha) * dir
		srcT.TranslateX = alpha * dir
	case Wipe:
		destT.TranslateX = (-1.0 + alpha) * dir
		destT.TexcoordSet = true
		destT.Texcoord = [4]float64{
			(-1.0 + alpha) * dir,
			1.0,
			1.0 - (1.0-alpha)*dir,
			0.0,
		}
	}

	// src painted first (back), dest on top (front): matches
	// composite_frame(src_frame, dest_frame) construction order in
	// transition_producer.cpp.
	return media.Composite(src.WithTransform(srcT), dest.WithTransform(destT))
}

var _ producer.Producer = (*Producer)(nil)
