package producer

import (
	"fmt"
	"sync/atomic"

	"github.com/zsiec/vista/media"
)

// Pattern selects the pixel pattern a Generator paints into each frame.
type Pattern int

const (
	// PatternSolid fills every frame with Color.
	PatternSolid Pattern = iota
	// PatternColorBars renders a static SMPTE-like color bar ladder,
	// useful as a visually distinct test signal.
	PatternColorBars
)

// Generator is a synthetic Producer that never reaches eof: a solid color
// or color-bars test pattern, used for tests and as placeholder layer
// content (the role solid-color/test-pattern producers play in the
// teacher's generator-equivalent sources).
type Generator struct {
	name    string
	pattern Pattern
	color   [4]byte // BGRA
	dpn     int64

	factory media.Factory
	format  media.Format
	leading Producer
}

// NewGenerator constructs a Generator with the given display name, pattern,
// and fill color (BGRA, only used for PatternSolid).
func NewGenerator(name string, pattern Pattern, color [4]byte) *Generator {
	return &Generator{name: name, pattern: pattern, color: color}
}

// Initialize records the factory used to allocate image and audio buffers.
// The geometry painted comes from SetFormat, not from the factory.
func (g *Generator) Initialize(factory media.Factory) {
	g.factory = factory
}

// SetFormat tells the generator the target geometry and audio layout to
// produce. Until it is called, Receive paints 0x0 images and attaches no
// audio.
func (g *Generator) SetFormat(format media.Format) {
	g.format = format
}

func (g *Generator) Receive() media.Frame {
	dpn := atomic.AddInt64(&g.dpn, 1) - 1

	if g.factory == nil {
		return media.Empty()
	}

	img := g.factory.NewImage(media.PixFmtBGRA, g.format.Width, g.format.Height)
	g.paint(img)

	var audio *media.AudioBuffer
	if g.format.AudioSampleRate > 0 {
		n := g.format.AudioSampleRate / 25
		if len(g.format.AudioCadence) > 0 {
			n = g.format.AudioCadence[int(dpn)%len(g.format.AudioCadence)]
		}
		audio = g.factory.NewAudio(n, g.format.AudioChannels)
	}

	return media.NewPayload(img, audio, dpn)
}

func (g *Generator) paint(img *media.ImageBuffer) {
	if img == nil || img.Data == nil {
		return
	}
	switch g.pattern {
	case PatternColorBars:
		g.paintColorBars(img)
	default:
		g.paintSolid(img)
	}
}

func (g *Generator) paintSolid(img *media.ImageBuffer) {
	for row := 0; row < img.Height; row++ {
		off := row * img.Stride
		for x := 0; x < img.Width; x++ {
			p := off + x*4
			if p+4 > len(img.Data) {
				break
			}
			copy(img.Data[p:p+4], g.color[:])
		}
	}
}

var barColors = [8][4]byte{
	{192, 192, 192, 255}, // gray
	{0, 192, 192, 255},   // yellow (BGRA)
	{192, 192, 0, 255},   // cyan
	{0, 192, 0, 255},     // green
	{192, 0, 192, 255},   // magenta
	{0, 0, 192, 255},     // red
	{192, 0, 0, 255},     // blue
	{0, 0, 0, 255},       // black
}

func (g *Generator) paintColorBars(img *media.ImageBuffer) {
	if img.Width == 0 {
		return
	}
	barWidth := img.Width / len(barColors)
	if barWidth == 0 {
		barWidth = 1
	}
	for row := 0; row < img.Height; row++ {
		off := row * img.Stride
		for x := 0; x < img.Width; x++ {
			bar := x / barWidth
			if bar >= len(barColors) {
				bar = len(barColors) - 1
			}
			p := off + x*4
			if p+4 > len(img.Data) {
				break
			}
			copy(img.Data[p:p+4], barColors[bar][:])
		}
	}
}

// FollowingProducer returns nil: generators run indefinitely and never
// hand off.
func (g *Generator) FollowingProducer() Producer { return nil }

// SetLeadingProducer is a no-op: generators do not participate in
// leading/following transition hand-off.
func (g *Generator) SetLeadingProducer(Producer) {}

func (g *Generator) String() string {
	return fmt.Sprintf("generator[%s]", g.name)
}

var _ Producer = (*Generator)(nil)
