package producer

import (
	"testing"

	"github.com/zsiec/vista/media"
)

type fakeFactory struct{}

func (fakeFactory) NewImage(format media.PixelFormat, width, height int) *media.ImageBuffer {
	stride := width * 4
	return &media.ImageBuffer{
		Format: format,
		Width:  width,
		Height: height,
		Stride: stride,
		Data:   make([]byte, stride*height),
	}
}

func (fakeFactory) NewAudio(sampleCount, channels int) *media.AudioBuffer {
	return &media.AudioBuffer{SampleRate: 48000, Channels: channels, Samples: make([]int16, sampleCount*channels)}
}

func TestGeneratorReceiveWithoutInitializeReturnsEmpty(t *testing.T) {
	t.Parallel()
	g := NewGenerator("bars", PatternColorBars, [4]byte{})
	f := g.Receive()
	if !f.IsEmpty() {
		t.Error("Receive() before Initialize() should return the empty frame")
	}
}

func TestGeneratorReceiveSolid(t *testing.T) {
	t.Parallel()
	g := NewGenerator("solid", PatternSolid, [4]byte{10, 20, 30, 255})
	g.Initialize(fakeFactory{})
	g.SetFormat(media.Format{Width: 4, Height: 2, AudioSampleRate: 48000, AudioChannels: 2})

	f := g.Receive()
	if f.Kind != media.KindPayload {
		t.Fatalf("Kind = %v, want KindPayload", f.Kind)
	}
	if f.Image == nil {
		t.Fatal("expected an image buffer")
	}
	if f.Image.Data[0] != 10 || f.Image.Data[1] != 20 || f.Image.Data[2] != 30 || f.Image.Data[3] != 255 {
		t.Errorf("pixel 0 = %v, want [10 20 30 255]", f.Image.Data[0:4])
	}
	if f.Audio == nil {
		t.Fatal("expected an audio buffer when AudioSampleRate > 0")
	}
}

func TestGeneratorReceiveColorBars(t *testing.T) {
	t.Parallel()
	g := NewGenerator("bars", PatternColorBars, [4]byte{})
	g.Initialize(fakeFactory{})
	g.SetFormat(media.Format{Width: 8, Height: 1})

	f := g.Receive()
	first := f.Image.Data[0:4]
	last := f.Image.Data[(8-1)*4 : 8*4]
	if first[0] == last[0] && first[1] == last[1] && first[2] == last[2] {
		t.Error("color bars should paint distinct colors across the width")
	}
}

func TestGeneratorDisplayPictureNumberIncrements(t *testing.T) {
	t.Parallel()
	g := NewGenerator("g", PatternSolid, [4]byte{})
	g.Initialize(fakeFactory{})
	g.SetFormat(media.Format{Width: 1, Height: 1})

	a := g.Receive()
	b := g.Receive()
	if b.DisplayPictureNumber != a.DisplayPictureNumber+1 {
		t.Errorf("DisplayPictureNumber did not increment monotonically: %d then %d", a.DisplayPictureNumber, b.DisplayPictureNumber)
	}
}

func TestGeneratorNeverReachesEOF(t *testing.T) {
	t.Parallel()
	g := NewGenerator("g", PatternSolid, [4]byte{})
	if g.FollowingProducer() != nil {
		t.Error("a generator should have no following producer")
	}
}
