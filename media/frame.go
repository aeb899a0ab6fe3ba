package media

// PixelFormat identifies the layout of an ImageBuffer's pixel data. The
// compositing core only ever needs to know stride/size relationships, not
// perform colorspace conversion — that stays with the (out of scope)
// encoder/decoder libraries.
type PixelFormat int

const (
	PixFmtBGRA PixelFormat = iota
	PixFmtYUV420P
	PixFmtGray8
)

// ImageBuffer is an immutable pixel buffer. Once constructed it is shared
// read-only by every layer frame that references it until the mixer blits
// the final composite, per the ownership model: "Frame buffers are
// immutable after creation and shared read-only."
type ImageBuffer struct {
	Format PixelFormat
	Width  int
	Height int
	Stride int
	Data   []byte
}

// AudioBuffer is an immutable interleaved PCM sample buffer (int16 stored
// per-sample to keep channel math simple on the hot path).
type AudioBuffer struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Len returns the number of per-channel sample frames (not raw int16
// count) held in the buffer.
func (a AudioBuffer) Len() int {
	if a.Channels == 0 {
		return 0
	}
	return len(a.Samples) / a.Channels
}

// Transform carries the optional alpha/translate/texcoord/volume applied
// by a transition producer. The zero value is NOT the identity transform
// (Alpha defaults to 0) — use IdentityTransform() for untransformed frames.
type Transform struct {
	Alpha       float64
	TranslateX  float64
	TranslateY  float64
	TexcoordSet bool
	Texcoord    [4]float64 // left, top, right, bottom
	Volume      uint8      // 0-255, 255 = unity gain
}

// IdentityTransform is the no-op transform applied to frames that have not
// passed through a transition: opaque, untranslated, full volume.
func IdentityTransform() Transform {
	return Transform{Alpha: 1, Volume: 255}
}

// Kind distinguishes the three producer_frame variants from spec §5: a
// real payload, the empty identity frame, or the eof sentinel.
type Kind int

const (
	KindPayload Kind = iota
	KindEmpty
	KindEOF
)

// Frame is a producer_frame: one of {payload, empty, eof}. A leaf payload
// frame carries image/audio data plus an optional transform; a composite
// payload frame instead carries Layers, a list of sub-frames to be
// flattened by the mixer back-to-front (the Go analogue of
// composite_frame: transition output is a composite of a dest and a src
// frame, each already carrying its own transform, left unflattened until
// the mixer's final blit so every layer's transform stays independent).
type Frame struct {
	Kind Kind

	Image     *ImageBuffer
	Audio     *AudioBuffer
	Transform Transform

	// Layers holds sub-frames for a composite payload frame. When
	// non-empty, Image/Audio on this Frame are unset and the mixer
	// composites Layers back-to-front instead.
	Layers []Frame

	// DisplayPictureNumber is a monotonically increasing tag a producer
	// assigns to payload frames, used for diagnostics and for the stream
	// producer to surface source timecodes.
	DisplayPictureNumber int64
}

// IsComposite reports whether f is a composite payload frame (carries
// Layers rather than a single Image/Audio pair).
func (f Frame) IsComposite() bool { return len(f.Layers) > 0 }

// Composite builds a composite payload frame from sub-frames ordered
// back-to-front (first element painted first, later elements on top).
func Composite(layers ...Frame) Frame {
	return Frame{Kind: KindPayload, Transform: IdentityTransform(), Layers: layers}
}

// NewPayload builds a payload producer_frame with the identity transform.
func NewPayload(img *ImageBuffer, audio *AudioBuffer, dpn int64) Frame {
	return Frame{
		Kind:                 KindPayload,
		Image:                img,
		Audio:                audio,
		Transform:            IdentityTransform(),
		DisplayPictureNumber: dpn,
	}
}

// Empty returns the identity producer_frame: zero compositing contribution,
// used as the placeholder for stopped/paused-without-history layers.
func Empty() Frame {
	return Frame{Kind: KindEmpty}
}

// EOF returns the terminal sentinel a producer emits when its source is
// exhausted.
func EOF() Frame {
	return Frame{Kind: KindEOF}
}

// IsEOF reports whether f is the eof sentinel.
func (f Frame) IsEOF() bool { return f.Kind == KindEOF }

// IsEmpty reports whether f is the identity frame.
func (f Frame) IsEmpty() bool { return f.Kind == KindEmpty }

// WithTransform returns a copy of f with its transform replaced. Frames
// are small value types; transitions build a new transformed copy per
// tick rather than mutating a shared frame, preserving the "immutable
// after creation" invariant for the underlying buffers (which are not
// copied, only referenced).
func (f Frame) WithTransform(t Transform) Frame {
	f.Transform = t
	return f
}

// Factory allocates image/audio buffers of the target geometry and
// channel layout, matching the external "frame factory" interface the
// mixer exposes to producers (spec external interfaces section).
type Factory interface {
	NewImage(format PixelFormat, width, height int) *ImageBuffer
	NewAudio(sampleCount, channels int) *AudioBuffer
}
