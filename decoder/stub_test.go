package decoder

import (
	"testing"

	"github.com/zsiec/vista/internal/demux"
	"github.com/zsiec/vista/media"
)

type fakeFactory struct{}

func (fakeFactory) NewImage(format media.PixelFormat, width, height int) *media.ImageBuffer {
	stride := width * 4
	return &media.ImageBuffer{Format: format, Width: width, Height: height, Stride: stride, Data: make([]byte, stride*height)}
}

func (fakeFactory) NewAudio(sampleCount, channels int) *media.AudioBuffer {
	return &media.AudioBuffer{SampleRate: 48000, Channels: channels, Samples: make([]int16, sampleCount*channels)}
}

func TestDecodeVideoUsesAccessUnitGeometry(t *testing.T) {
	t.Parallel()
	s := NewStub(fakeFactory{})
	au := &demux.VideoAccessUnit{Width: 640, Height: 480, GroupID: 3}

	img := s.DecodeVideo(au)
	if img.Width != 640 || img.Height != 480 {
		t.Errorf("geometry = %dx%d, want 640x480", img.Width, img.Height)
	}
}

func TestDecodeVideoFallsBackToDefaultGeometry(t *testing.T) {
	t.Parallel()
	s := NewStub(fakeFactory{})
	au := &demux.VideoAccessUnit{} // no width/height known yet

	img := s.DecodeVideo(au)
	if img.Width != defaultWidth || img.Height != defaultHeight {
		t.Errorf("geometry = %dx%d, want default %dx%d", img.Width, img.Height, defaultWidth, defaultHeight)
	}
}

func TestDecodeVideoRemembersLastKnownGeometry(t *testing.T) {
	t.Parallel()
	s := NewStub(fakeFactory{})
	_ = s.DecodeVideo(&demux.VideoAccessUnit{Width: 1920, Height: 1080})

	img := s.DecodeVideo(&demux.VideoAccessUnit{}) // no geometry on this unit
	if img.Width != 1920 || img.Height != 1080 {
		t.Errorf("geometry = %dx%d, want the previously seen 1920x1080", img.Width, img.Height)
	}
}

func TestDecodeVideoFillsOpaqueContent(t *testing.T) {
	t.Parallel()
	s := NewStub(fakeFactory{})
	img := s.DecodeVideo(&demux.VideoAccessUnit{Width: 2, Height: 2, GroupID: 7})

	want := byte(7 % 256)
	for _, b := range img.Data {
		if b != want {
			t.Fatalf("pixel byte = %d, want %d", b, want)
		}
	}
}

func TestDecodeAudioUsesChannelsAndFixedSampleCount(t *testing.T) {
	t.Parallel()
	s := NewStub(fakeFactory{})
	au := &demux.AudioAccessUnit{Channels: 2, SampleRate: 48000}

	ab := s.DecodeAudio(au)
	if ab.Channels != 2 {
		t.Errorf("Channels = %d, want 2", ab.Channels)
	}
	if len(ab.Samples) != 1024*2 {
		t.Errorf("len(Samples) = %d, want %d", len(ab.Samples), 1024*2)
	}
}
