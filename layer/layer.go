// Package layer implements the per-render-layer state machine: a
// foreground/background producer slot pair with play/pause/stop/clear
// control and automatic end-of-stream hand-off.
package layer

import (
	"log/slog"

	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/producer"
)

// LoadOption controls whether a newly loaded producer takes over
// immediately or waits in the background slot for an explicit Play.
type LoadOption int

const (
	// LoadPlay loads into background and immediately swaps it to
	// foreground (the common "load and play" case).
	LoadPlay LoadOption = iota
	// LoadPreview loads into background only; Play must be called
	// separately to promote it.
	LoadPreview
)

// Layer holds one render layer's foreground and background producers and
// dispatches play/pause/stop/clear against them. It is not safe for
// concurrent use from multiple goroutines; the owning producer device
// serializes all calls through its single tick/task executor, mirroring
// frame_producer_device.cpp's executor-confined layer map access.
type Layer struct {
	log *slog.Logger

	foreground producer.Producer
	background producer.Producer

	paused       bool
	lastFrame    media.Frame
	hasLastFrame bool
}

// New constructs an empty layer: foreground/background both
// producer.Empty{}.
func New(id int) *Layer {
	return &Layer{
		log:        slog.With("component", "layer", "id", id),
		foreground: producer.Empty{},
		background: producer.Empty{},
	}
}

// Load installs prod into the background slot, initializing it against
// factory. With LoadPlay the background is immediately promoted to
// foreground (the prior foreground is discarded, matching load()'s
// play_immediately semantics).
func (l *Layer) Load(prod producer.Producer, option LoadOption, factory media.Factory) {
	if prod == nil {
		prod = producer.Empty{}
	}
	prod.Initialize(factory)
	l.background = prod

	if option == LoadPlay {
		l.play()
	}
}

// Play promotes the background producer to foreground and un-pauses.
func (l *Layer) Play() {
	l.play()
}

func (l *Layer) play() {
	if _, ok := l.background.(producer.Empty); !ok {
		l.foreground = l.background
		l.background = producer.Empty{}
	}
	l.paused = false
}

// Pause freezes the foreground producer's output at its last-received
// frame. A paused layer keeps presenting its most recent frame rather
// than the empty identity frame, so Pause does not touch foreground/
// background — it only flips the flag Receive checks.
func (l *Layer) Pause() {
	l.paused = true
}

// Stop clears the foreground producer back to empty, leaving any loaded
// background producer untouched (the caller's responsibility — the
// producer device additionally removes the layer entirely if it has no
// background content, mirroring frame_producer_device.cpp's stop()).
func (l *Layer) Stop() {
	l.foreground = producer.Empty{}
	l.paused = false
	l.lastFrame = media.Frame{}
	l.hasLastFrame = false
}

// Clear resets both foreground and background to empty.
func (l *Layer) Clear() {
	l.foreground = producer.Empty{}
	l.background = producer.Empty{}
	l.paused = false
	l.lastFrame = media.Frame{}
	l.hasLastFrame = false
}

// Foreground returns the current foreground producer.
func (l *Layer) Foreground() producer.Producer { return l.foreground }

// Background returns the current background producer.
func (l *Layer) Background() producer.Producer { return l.background }

// HasBackground reports whether a non-empty producer is loaded in the
// background slot.
func (l *Layer) HasBackground() bool {
	_, ok := l.background.(producer.Empty)
	return !ok
}

// Paused reports whether the layer is currently holding its last frame.
func (l *Layer) Paused() bool { return l.paused }

// Receive pulls the next frame from the foreground producer, following
// eof hand-off to FollowingProducer() the same way transition.Producer
// does internally, and holding the last frame while paused.
func (l *Layer) Receive() media.Frame {
	if l.paused {
		if l.hasLastFrame {
			return l.lastFrame
		}
		return media.Empty()
	}

	frame := l.receiveFollowing()
	if frame.Kind == media.KindPayload {
		l.lastFrame = frame
		l.hasLastFrame = true
	}
	return frame
}

func (l *Layer) receiveFollowing() media.Frame {
	frame := l.foreground.Receive()
	if !frame.IsEOF() {
		return frame
	}

	following := l.foreground.FollowingProducer()
	if following == nil {
		l.foreground = producer.Empty{}
		return media.Empty()
	}
	following.SetLeadingProducer(l.foreground)
	l.foreground = following
	return l.receiveFollowing()
}
