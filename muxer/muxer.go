// Package muxer implements the frame muxer: a single-owner, no-concurrency
// rate-adaptation stage that maps a source cadence (arbitrary fps/field
// mode) onto the channel's fixed target cadence, directly grounded on
// frame_muxer.cpp's display-mode detection, ready predicates, and
// poll/truncate logic.
package muxer

import (
	"fmt"
	"log/slog"

	"github.com/zsiec/vista/media"
)

// DisplayMode selects how the muxer maps source frames onto target
// frames. Values and semantics match frame_muxer.cpp's display_mode enum.
type DisplayMode int

const (
	Invalid DisplayMode = iota
	Simple
	Half
	Duplicate
	Interlace
	Deinterlace
	DeinterlaceBob
	ScaleInterlaced
)

func (m DisplayMode) String() string {
	switch m {
	case Simple:
		return "simple"
	case Half:
		return "half"
	case Duplicate:
		return "duplicate"
	case Interlace:
		return "interlace"
	case Deinterlace:
		return "deinterlace"
	case DeinterlaceBob:
		return "deinterlace_bob"
	case ScaleInterlaced:
		return "scale_interlaced"
	default:
		return "invalid"
	}
}

const (
	overflowVideoFrames = 32
	overflowAudioFactor = 32
)

// videoFrame is one pending decoded video frame with the source-side
// metadata the display-mode detector and field-combining steps need.
type videoFrame struct {
	img        *media.ImageBuffer
	srcField   media.FieldMode
	srcWidth   int
	srcHeight  int
	interlaced bool
	dpn        int64
}

// Muxer accumulates demuxed video/audio and emits target-cadence frames.
// Not safe for concurrent use: a single producer goroutine owns it,
// matching "Muxer buffers are single-owner" in the data model.
type Muxer struct {
	log *slog.Logger

	inFPS     float64
	target    media.Format
	channels  int
	isMXF     bool
	autoDeint bool

	videoStreams [][]videoFrame
	audioStreams [][]int16

	cadence []int

	frameBuffer []media.Frame

	displayMode     DisplayMode
	forceDeinterlace bool
	filter          FilterChain
}

// New constructs a Muxer for a source of the given fps feeding a channel
// targeting format. isMXF enables the IMX/VBI crop workaround for
// 720x608 MXF-tagged frames.
func New(inFPS float64, target media.Format, channels int, isMXF bool) *Muxer {
	m := &Muxer{
		log:       slog.With("component", "muxer"),
		inFPS:     inFPS,
		target:    target,
		channels:  channels,
		isMXF:     isMXF,
		autoDeint: true,
		cadence:   target.Cadence(),
		filter:    passthroughFilter{},
	}
	m.videoStreams = [][]videoFrame{nil}
	m.audioStreams = [][]int16{nil}
	// One-step rotation: "fills the audio mixer most optimally" per the
	// original's boost::range::rotate(cadence, end-1) comment.
	if len(m.cadence) > 0 {
		m.cadence = rotateCadence(m.cadence, len(m.cadence)-1)
	}
	return m
}

func rotateCadence(c []int, n int) []int {
	if len(c) == 0 {
		return c
	}
	n = n % len(c)
	out := make([]int, len(c))
	copy(out, c[n:])
	copy(out[len(c)-n:], c[:n])
	return out
}

// PushVideo pushes one decoded video frame into the back sub-queue. The
// display mode is recomputed when none is selected yet or when the
// deinterlace hint changes; a later change of source geometry or field
// mode alone does not trigger a new selection.
func (m *Muxer) PushVideo(img *media.ImageBuffer, srcField media.FieldMode, interlaced bool, deinterlaceHint bool, dpn int64) error {
	if img == nil {
		return nil
	}

	if m.autoDeint && m.forceDeinterlace != deinterlaceHint {
		m.forceDeinterlace = deinterlaceHint
		m.displayMode = Invalid
	}

	if m.displayMode == Invalid {
		m.updateDisplayMode(srcField, img.Width, img.Height, interlaced)
	}

	back := len(m.videoStreams) - 1
	m.videoStreams[back] = append(m.videoStreams[back], videoFrame{
		img:        img,
		srcField:   srcField,
		srcWidth:   img.Width,
		srcHeight:  img.Height,
		interlaced: interlaced,
		dpn:        dpn,
	})

	if len(m.videoStreams[back]) > overflowVideoFrames {
		return fmt.Errorf("muxer: video sub-queue overflow (>%d frames); check source frame rate", overflowVideoFrames)
	}
	return nil
}

// PushEmptyVideo pushes the empty identity frame, forcing Simple mode
// (matches push(empty_video()) setting display_mode_ = simple).
func (m *Muxer) PushEmptyVideo() {
	back := len(m.videoStreams) - 1
	m.videoStreams[back] = append(m.videoStreams[back], videoFrame{})
	m.displayMode = Simple
}

// FlushVideo pushes a new empty sub-queue boundary.
func (m *Muxer) FlushVideo() {
	m.videoStreams = append(m.videoStreams, nil)
}

// PushAudio appends interleaved samples to the back audio sub-queue.
func (m *Muxer) PushAudio(samples []int16) error {
	back := len(m.audioStreams) - 1
	m.audioStreams[back] = append(m.audioStreams[back], samples...)

	limit := overflowAudioFactor * m.cadenceHead() * m.channels
	if limit > 0 && len(m.audioStreams[back]) > limit {
		return fmt.Errorf("muxer: audio sub-queue overflow (>%d samples); check source frame rate", limit)
	}
	return nil
}

// PushEmptyAudio appends one cadence slice of silence to the back
// sub-queue.
func (m *Muxer) PushEmptyAudio() {
	n := m.cadenceHead() * m.channels
	back := len(m.audioStreams) - 1
	m.audioStreams[back] = append(m.audioStreams[back], make([]int16, n)...)
}

// FlushAudio pushes a new empty audio sub-queue boundary.
func (m *Muxer) FlushAudio() {
	m.audioStreams = append(m.audioStreams, nil)
}

func (m *Muxer) cadenceHead() int {
	if len(m.cadence) == 0 {
		return 0
	}
	return m.cadence[0]
}

// VideoReady reports whether a final frame could be emitted on the video
// side alone, per video_ready/video_ready2.
func (m *Muxer) VideoReady() bool {
	if len(m.videoStreams) > 1 {
		return true
	}
	return len(m.videoStreams) >= len(m.audioStreams) && m.videoReady2()
}

func (m *Muxer) videoReady2() bool {
	need := 1
	if m.displayMode == Interlace || m.displayMode == Half {
		need = 2
	}
	return len(m.videoStreams[0]) >= need
}

// AudioReady reports whether a final frame could be emitted on the audio
// side alone, per audio_ready/audio_ready2.
func (m *Muxer) AudioReady() bool {
	if len(m.audioStreams) > 1 {
		return true
	}
	return len(m.audioStreams) >= len(m.videoStreams) && m.audioReady2()
}

func (m *Muxer) audioReady2() bool {
	need := m.cadenceHead() * m.channels
	if m.displayMode == Duplicate {
		return len(m.audioStreams[0])/2 >= need
	}
	return len(m.audioStreams[0]) >= need
}

// Poll emits the next target-cadence frame, or nil if none is ready yet.
// Truncates a misaligned front sub-queue pair and recurses, matching
// poll()'s structure exactly (full drop of both front sub-queues on
// misalignment, not a partial drain).
func (m *Muxer) Poll() (*media.Frame, error) {
	if len(m.frameBuffer) > 0 {
		f := m.frameBuffer[0]
		m.frameBuffer = m.frameBuffer[1:]
		return &f, nil
	}

	if len(m.videoStreams) > 1 && len(m.audioStreams) > 1 && (!m.videoReady2() || !m.audioReady2()) {
		if len(m.videoStreams[0]) > 0 || len(m.audioStreams[0]) > 0 {
			m.log.Debug("truncating misaligned sub-queue",
				"videoFrames", len(m.videoStreams[0]), "audioSamples", len(m.audioStreams[0]))
		}
		m.videoStreams = m.videoStreams[1:]
		m.audioStreams = m.audioStreams[1:]
	}

	if !m.videoReady2() || !m.audioReady2() || m.displayMode == Invalid {
		return nil, nil
	}

	frame1, err := m.popVideo()
	if err != nil {
		return nil, err
	}
	audio1 := m.popAudio()

	switch m.displayMode {
	case Deinterlace, DeinterlaceBob:
		frame1.img = deinterlaceByAveraging(frame1.img)
		m.frameBuffer = append(m.frameBuffer, toFrame(frame1, audio1, m.channels))
	case Simple, ScaleInterlaced:
		m.frameBuffer = append(m.frameBuffer, toFrame(frame1, audio1, m.channels))
	case Interlace:
		frame2, err := m.popVideo()
		if err != nil {
			return nil, err
		}
		m.frameBuffer = append(m.frameBuffer, interlaceFrames(frame1, frame2, audio1, m.target.Field, m.channels))
	case Duplicate:
		audio2 := m.popAudio()
		m.frameBuffer = append(m.frameBuffer, toFrame(frame1, audio1, m.channels))
		m.frameBuffer = append(m.frameBuffer, toFrame(frame1, audio2, m.channels))
	case Half:
		if _, err := m.popVideo(); err != nil { // thrown away
			return nil, err
		}
		m.frameBuffer = append(m.frameBuffer, toFrame(frame1, audio1, m.channels))
	}

	if len(m.frameBuffer) == 0 {
		return nil, nil
	}
	return m.Poll()
}

func (m *Muxer) popVideo() (videoFrame, error) {
	if len(m.videoStreams[0]) == 0 {
		return videoFrame{}, fmt.Errorf("muxer: popVideo called on empty front sub-queue")
	}
	f := m.videoStreams[0][0]
	m.videoStreams[0] = m.videoStreams[0][1:]
	return f, nil
}

// popAudio pops one cadence slice and rotates the cadence table by one,
// matching pop_audio's boost::range::rotate(cadence, begin+1).
func (m *Muxer) popAudio() []int16 {
	n := m.cadenceHead() * m.channels
	if n > len(m.audioStreams[0]) {
		n = len(m.audioStreams[0])
	}
	samples := append([]int16(nil), m.audioStreams[0][:n]...)
	m.audioStreams[0] = m.audioStreams[0][n:]

	if len(m.cadence) > 0 {
		m.cadence = rotateCadence(m.cadence, 1)
	}
	return samples
}

func toFrame(v videoFrame, audio []int16, channels int) media.Frame {
	var ab *media.AudioBuffer
	if audio != nil {
		ab = &media.AudioBuffer{Channels: channels, Samples: audio}
	}
	return media.NewPayload(v.img, ab, v.dpn)
}

// Clear discards all buffered state, preserving no audio (the original's
// clear() drops everything, including the back audio sub-queue, despite
// other code paths trying to preserve buffered audio on format changes —
// clear is the hard reset, format-change is the soft one).
func (m *Muxer) Clear() {
	m.videoStreams = [][]videoFrame{nil}
	m.audioStreams = [][]int16{nil}
	m.frameBuffer = nil
	m.filter.Clear()
}

// DisplayMode returns the currently selected display mode.
func (m *Muxer) DisplayMode() DisplayMode { return m.displayMode }
