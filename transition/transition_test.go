package transition

import (
	"testing"

	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/producer"
)

// stubProducer returns frames from a fixed queue, then eof, then defers to
// following if set.
type stubProducer struct {
	name      string
	frames    []media.Frame
	i         int
	following producer.Producer
	leading   producer.Producer
}

func (s *stubProducer) Receive() media.Frame {
	if s.i >= len(s.frames) {
		return media.EOF()
	}
	f := s.frames[s.i]
	s.i++
	return f
}
func (s *stubProducer) FollowingProducer() producer.Producer  { return s.following }
func (s *stubProducer) SetLeadingProducer(p producer.Producer) { s.leading = p }
func (s *stubProducer) Initialize(media.Factory)               {}
func (s *stubProducer) String() string                          { return s.name }

var _ producer.Producer = (*stubProducer)(nil)

func TestNewNilDest(t *testing.T) {
	t.Parallel()
	if _, err := New(nil, Info{Duration: 5}); err == nil {
		t.Error("New() with nil dest should return an error")
	}
}

func TestFollowingProducerIsDest(t *testing.T) {
	t.Parallel()
	dest := &stubProducer{name: "dest"}
	p, err := New(dest, Info{Type: Mix, Duration: 3})
	if err != nil {
		t.Fatal(err)
	}
	if p.FollowingProducer() != dest {
		t.Error("FollowingProducer() should return dest")
	}
}

func TestReceiveCutReturnsRawSourceFrame(t *testing.T) {
	t.Parallel()
	destFrame := media.NewPayload(&media.ImageBuffer{}, nil, 1)
	srcFrame := media.NewPayload(&media.ImageBuffer{}, nil, 2)
	dest := &stubProducer{name: "dest", frames: []media.Frame{destFrame}}
	src := &stubProducer{name: "src", frames: []media.Frame{srcFrame}}

	p, err := New(dest, Info{Type: Cut, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	p.SetLeadingProducer(src)

	got := p.Receive()
	if got.IsComposite() {
		t.Error("a cut transition should not composite layers")
	}
	if got.DisplayPictureNumber != srcFrame.DisplayPictureNumber {
		t.Error("cut should return the raw source frame, not dest")
	}
}

func TestReceiveMixComposesAndCrossfades(t *testing.T) {
	t.Parallel()
	dest := &stubProducer{name: "dest", frames: []media.Frame{
		media.NewPayload(&media.ImageBuffer{}, nil, 1),
		media.NewPayload(&media.ImageBuffer{}, nil, 2),
	}}
	src := &stubProducer{name: "src", frames: []media.Frame{
		media.NewPayload(&media.ImageBuffer{}, nil, 10),
		media.NewPayload(&media.ImageBuffer{}, nil, 11),
	}}

	p, err := New(dest, Info{Type: Mix, Duration: 2})
	if err != nil {
		t.Fatal(err)
	}
	p.SetLeadingProducer(src)

	first := p.Receive()
	if !first.IsComposite() {
		t.Fatal("mix transition should produce a composite frame")
	}
	if len(first.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(first.Layers))
	}
	// src painted back, dest painted front.
	if first.Layers[0].DisplayPictureNumber != 10 || first.Layers[1].DisplayPictureNumber != 1 {
		t.Error("expected src layer first (back), dest layer second (front)")
	}
	if first.Layers[1].Transform.Alpha >= 1.0 {
		t.Error("half-way through the mix, dest alpha should be less than 1")
	}

	second := p.Receive()
	if second.IsEOF() {
		t.Error("transition should still be compositing on its second of two duration frames")
	}

	third := p.Receive()
	if !third.IsEOF() {
		t.Error("transition should report eof once Duration frames have been produced")
	}
}

func TestReceiveFromFollowsEOFHandoff(t *testing.T) {
	t.Parallel()
	following := &stubProducer{name: "following", frames: []media.Frame{
		media.NewPayload(&media.ImageBuffer{}, nil, 99),
	}}
	exhausted := &stubProducer{name: "exhausted", following: following}

	dest := &stubProducer{name: "dest", frames: []media.Frame{
		media.NewPayload(&media.ImageBuffer{}, nil, 1),
	}}
	p, err := New(dest, Info{Type: Cut, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	p.SetLeadingProducer(exhausted)

	got := p.Receive()
	if got.DisplayPictureNumber != 99 {
		t.Error("Receive should transparently follow to the following producer on eof")
	}
	if following.leading != exhausted {
		t.Error("the following producer should be told its leading producer via SetLeadingProducer")
	}
}

func TestStringIncludesSourceAndDest(t *testing.T) {
	t.Parallel()
	dest := &stubProducer{name: "bars"}
	p, err := New(dest, Info{Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.String(); got == "" {
		t.Error("String() should not be empty")
	}
}
