package layer

import (
	"testing"

	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/producer"
)

type fakeProducer struct {
	name      string
	frames    []media.Frame
	i         int
	following producer.Producer
	leading   producer.Producer
}

func (p *fakeProducer) Receive() media.Frame {
	if p.i >= len(p.frames) {
		return media.EOF()
	}
	f := p.frames[p.i]
	p.i++
	return f
}
func (p *fakeProducer) FollowingProducer() producer.Producer  { return p.following }
func (p *fakeProducer) SetLeadingProducer(l producer.Producer) { p.leading = l }
func (p *fakeProducer) Initialize(media.Factory)                {}
func (p *fakeProducer) String() string                           { return p.name }

var _ producer.Producer = (*fakeProducer)(nil)

func TestNewLayerStartsEmpty(t *testing.T) {
	t.Parallel()
	l := New(1)
	if l.HasBackground() {
		t.Error("a new layer should have no background content")
	}
	if f := l.Receive(); !f.IsEmpty() {
		t.Error("a new layer's foreground should produce the empty frame")
	}
}

func TestLoadPlayPromotesImmediately(t *testing.T) {
	t.Parallel()
	l := New(1)
	p := &fakeProducer{name: "p", frames: []media.Frame{media.NewPayload(&media.ImageBuffer{}, nil, 1)}}
	l.Load(p, LoadPlay, nil)

	if l.Foreground() != p {
		t.Error("LoadPlay should promote the loaded producer to foreground immediately")
	}
	if l.HasBackground() {
		t.Error("after LoadPlay, background should be empty again")
	}
}

func TestLoadPreviewWaitsForPlay(t *testing.T) {
	t.Parallel()
	l := New(1)
	p := &fakeProducer{name: "p"}
	l.Load(p, LoadPreview, nil)

	if l.Foreground() == p {
		t.Error("LoadPreview should not promote to foreground")
	}
	if !l.HasBackground() {
		t.Error("LoadPreview should leave the producer loaded in background")
	}

	l.Play()
	if l.Foreground() != p {
		t.Error("Play() should promote the background producer to foreground")
	}
}

func TestPauseHoldsLastFrame(t *testing.T) {
	t.Parallel()
	l := New(1)
	frame := media.NewPayload(&media.ImageBuffer{}, nil, 42)
	p := &fakeProducer{name: "p", frames: []media.Frame{frame, frame}}
	l.Load(p, LoadPlay, nil)

	first := l.Receive()
	if first.DisplayPictureNumber != 42 {
		t.Fatal("expected the loaded producer's frame")
	}

	l.Pause()
	if !l.Paused() {
		t.Error("Paused() should report true after Pause()")
	}
	held := l.Receive()
	if held.DisplayPictureNumber != 42 {
		t.Error("a paused layer should keep returning its last frame")
	}
	if p.i != 1 {
		t.Error("a paused layer should not pull additional frames from the producer")
	}
}

func TestPauseWithoutAnyFrameYetReturnsEmpty(t *testing.T) {
	t.Parallel()
	l := New(1)
	l.Pause()
	if f := l.Receive(); !f.IsEmpty() {
		t.Error("pausing before any frame has been received should yield the empty frame")
	}
}

func TestStopClearsForegroundKeepsBackground(t *testing.T) {
	t.Parallel()
	l := New(1)
	fg := &fakeProducer{name: "fg", frames: []media.Frame{media.NewPayload(&media.ImageBuffer{}, nil, 1)}}
	bg := &fakeProducer{name: "bg"}
	l.Load(fg, LoadPlay, nil)
	l.Load(bg, LoadPreview, nil)

	l.Stop()
	if l.Foreground() == fg {
		t.Error("Stop should clear the foreground producer")
	}
	if !l.HasBackground() {
		t.Error("Stop should not touch the background slot")
	}
}

func TestClearResetsBoth(t *testing.T) {
	t.Parallel()
	l := New(1)
	fg := &fakeProducer{name: "fg"}
	bg := &fakeProducer{name: "bg"}
	l.Load(fg, LoadPlay, nil)
	l.Load(bg, LoadPreview, nil)

	l.Clear()
	if l.HasBackground() {
		t.Error("Clear should empty the background slot")
	}
	if f := l.Receive(); !f.IsEmpty() {
		t.Error("Clear should leave the foreground producing the empty frame")
	}
}

func TestReceiveFollowsEOFHandoff(t *testing.T) {
	t.Parallel()
	following := &fakeProducer{name: "following", frames: []media.Frame{media.NewPayload(&media.ImageBuffer{}, nil, 7)}}
	exhausted := &fakeProducer{name: "exhausted", following: following}

	l := New(1)
	l.Load(exhausted, LoadPlay, nil)

	got := l.Receive()
	if got.DisplayPictureNumber != 7 {
		t.Error("Receive should transparently follow to the following producer on eof")
	}
	if following.leading != exhausted {
		t.Error("the following producer should learn its leading producer")
	}
	if l.Foreground() != following {
		t.Error("the layer's foreground should now be the following producer")
	}
}

func TestReceiveWithNoFollowingGoesEmpty(t *testing.T) {
	t.Parallel()
	exhausted := &fakeProducer{name: "exhausted"}
	l := New(1)
	l.Load(exhausted, LoadPlay, nil)

	got := l.Receive()
	if !got.IsEmpty() {
		t.Error("a producer with no following producer should leave the layer empty on eof")
	}
}
