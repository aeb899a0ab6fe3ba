// Package mixer defines the compositing contract the producer device
// submits per-tick layer frames to, plus one concrete CPU-side
// implementation: a back-to-front alpha-blend compositor.
//
// The compositing contract is intentionally thin (spec §4.6: "the mixer
// owns GPU resources and is an external collaborator to this spec") — a
// real deployment would back Mixer with a GPU compositor. CPUMixer exists
// so the rest of the pipeline (muxer, layer, engine, consumer) is
// exercisable without one, grounded on the z-order back-to-front blend
// loop in the IntuitionEngine video compositor (composite/blendFrame).
package mixer

import (
	"log/slog"

	"github.com/zsiec/vista/media"
)

// Mixer accepts the producer device's per-tick, Z-ordered vector of layer
// frames and returns one final composited frame ready for consumers. It
// also hands out a Factory producers use to allocate image/audio buffers
// sized to the channel's target format.
type Mixer interface {
	media.Factory

	// Composite flattens layers (back to front, ascending index = back)
	// into a single final frame.
	Composite(layers []media.Frame) media.Frame
}

// CPUMixer is a software compositor: scale-to-fit + straight alpha blend
// per layer, audio summed and clamped to int16 range. A transform's
// translate and texcoord are not applied. It owns no GPU resources and
// is meant for tests, the file consumer, and deployments without a GPU
// compositing backend.
type CPUMixer struct {
	log    *slog.Logger
	format media.Format
}

// NewCPUMixer constructs a CPUMixer targeting format.
func NewCPUMixer(format media.Format) *CPUMixer {
	return &CPUMixer{log: slog.With("component", "mixer"), format: format}
}

// NewImage allocates a zeroed BGRA image buffer of the given geometry.
func (m *CPUMixer) NewImage(format media.PixelFormat, width, height int) *media.ImageBuffer {
	stride := width * 4
	return &media.ImageBuffer{
		Format: format,
		Width:  width,
		Height: height,
		Stride: stride,
		Data:   make([]byte, stride*height),
	}
}

// NewAudio allocates a zeroed interleaved sample buffer.
func (m *CPUMixer) NewAudio(sampleCount, channels int) *media.AudioBuffer {
	if channels <= 0 {
		channels = m.format.AudioChannels
	}
	return &media.AudioBuffer{
		SampleRate: m.format.AudioSampleRate,
		Channels:   channels,
		Samples:    make([]int16, sampleCount*channels),
	}
}

// Composite flattens layers back-to-front into one final frame at the
// mixer's target geometry. Empty/eof layer entries contribute nothing.
func (m *CPUMixer) Composite(layers []media.Frame) media.Frame {
	out := m.NewImage(media.PixFmtBGRA, m.format.Width, m.format.Height)
	audio := m.NewAudio(0, m.format.AudioChannels)

	for _, layer := range layers {
		m.blendLayer(out, layer)
		audio = mixAudio(audio, extractAudio(layer))
	}

	return media.Frame{
		Kind:  media.KindPayload,
		Image: out,
		Audio: audio,
		Transform: media.IdentityTransform(),
	}
}

// blendLayer draws layer (possibly itself a composite of sub-layers, as
// produced by a transition) onto dst, back to front.
func (m *CPUMixer) blendLayer(dst *media.ImageBuffer, layer media.Frame) {
	if layer.IsComposite() {
		for _, sub := range layer.Layers {
			m.blendLayer(dst, sub)
		}
		return
	}
	if layer.Image == nil {
		return
	}
	blend(dst, layer.Image, layer.Transform)
}

// blend scale-to-fits src into dst and alpha-blends it in place,
// following the IntuitionEngine compositor's per-pixel scale+copy loop
// but with a real alpha multiply (dst' = src*a + dst*(1-a)) instead of a
// binary opaque-or-skip test, since the transform contract here carries a
// continuous alpha (mix/push transitions depend on it).
func blend(dst, src *media.ImageBuffer, t media.Transform) {
	if src.Width == 0 || src.Height == 0 || dst.Width == 0 || dst.Height == 0 {
		return
	}
	alpha := t.Alpha
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}

	dstW, dstH := dst.Width, dst.Height
	for dy := 0; dy < dstH; dy++ {
		sy := dy * src.Height / dstH
		for dx := 0; dx < dstW; dx++ {
			sx := dx * src.Width / dstW

			si := sy*src.Stride + sx*4
			di := dy*dst.Stride + dx*4
			if si+4 > len(src.Data) || di+4 > len(dst.Data) {
				continue
			}

			for c := 0; c < 4; c++ {
				s := float64(src.Data[si+c])
				d := float64(dst.Data[di+c])
				dst.Data[di+c] = byte(s*alpha + d*(1-alpha))
			}
		}
	}
}

// weightedAudio pairs a sub-frame's audio buffer with the volume carried
// by that same sub-frame's transform (0-255, 255 = unity gain), so a
// transition's cross-fade reaches the audio mix and not just the video
// alpha blend.
type weightedAudio struct {
	buf    *media.AudioBuffer
	volume uint8
}

func extractAudio(f media.Frame) []weightedAudio {
	if f.IsComposite() {
		var out []weightedAudio
		for _, sub := range f.Layers {
			out = append(out, extractAudio(sub)...)
		}
		return out
	}
	if f.Audio == nil {
		return nil
	}
	return []weightedAudio{{buf: f.Audio, volume: f.Transform.Volume}}
}

// mixAudio sums each buffer's contribution into acc, scaled by its
// source transform's volume and clamped to int16 range. acc grows to the
// longest buffer mixed into it. A transition's cross-fade reaches the mix
// through these per-layer volumes (cut sets none).
func mixAudio(acc *media.AudioBuffer, weighted []weightedAudio) *media.AudioBuffer {
	for _, w := range weighted {
		if w.buf == nil {
			continue
		}
		if len(w.buf.Samples) > len(acc.Samples) {
			grown := make([]int16, len(w.buf.Samples))
			copy(grown, acc.Samples)
			acc.Samples = grown
		}
		for i, s := range w.buf.Samples {
			scaled := int32(s) * int32(w.volume) / 255
			sum := int32(acc.Samples[i]) + scaled
			acc.Samples[i] = clampInt16(sum)
		}
	}
	return acc
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

var _ Mixer = (*CPUMixer)(nil)
