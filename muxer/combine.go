package muxer

import "github.com/zsiec/vista/media"

// interlaceFrames combines two successive video frames into one
// interlaced final frame, matching basic_frame::interlace(frame1, frame2,
// field_mode): frame1 supplies the lines of the leading field, frame2 the
// trailing field, woven according to the target field mode.
func interlaceFrames(a, b videoFrame, audio []int16, field media.FieldMode, channels int) media.Frame {
	img := weaveFields(a.img, b.img, field)

	var ab *media.AudioBuffer
	if audio != nil {
		ab = &media.AudioBuffer{Channels: channels, Samples: audio}
	}
	return media.NewPayload(img, ab, a.dpn)
}

// weaveFields interleaves scanlines from a and b into a single buffer
// sized like a. Lines alternate starting from whichever frame the target
// field mode designates as first; if either buffer is nil or the two
// differ in geometry, a is returned unchanged (best-effort: the strict
// geometry match is enforced earlier in the pipeline by display-mode
// selection, not here).
func weaveFields(a, b *media.ImageBuffer, field media.FieldMode) *media.ImageBuffer {
	if a == nil || b == nil || a.Width != b.Width || a.Height != b.Height || a.Stride != b.Stride {
		return a
	}

	out := &media.ImageBuffer{
		Format: a.Format,
		Width:  a.Width,
		Height: a.Height,
		Stride: a.Stride,
		Data:   make([]byte, len(a.Data)),
	}

	first, second := a, b
	if field == media.LowerFieldFirst {
		first, second = b, a
	}

	for row := 0; row < a.Height; row++ {
		lineStart := row * a.Stride
		lineEnd := lineStart + a.Stride
		if lineEnd > len(out.Data) {
			break
		}
		src := first
		if row%2 == 1 {
			src = second
		}
		copy(out.Data[lineStart:lineEnd], src.Data[lineStart:lineEnd])
	}
	return out
}

// deinterlaceByAveraging produces a progressive frame from an interlaced
// one by blending each line with its neighbor, a simple line-averaging
// stand-in for the yadif filter (the real deinterlace math is out of
// scope, §1 — only the decision of when to deinterlace is).
func deinterlaceByAveraging(img *media.ImageBuffer) *media.ImageBuffer {
	if img == nil {
		return nil
	}
	out := &media.ImageBuffer{
		Format: img.Format,
		Width:  img.Width,
		Height: img.Height,
		Stride: img.Stride,
		Data:   make([]byte, len(img.Data)),
	}
	for row := 0; row < img.Height; row++ {
		lo := row * img.Stride
		hi := lo + img.Stride
		if hi > len(img.Data) {
			break
		}
		if row+1 < img.Height {
			nextLo := (row + 1) * img.Stride
			nextHi := nextLo + img.Stride
			if nextHi <= len(img.Data) {
				for i := lo; i < hi; i++ {
					out.Data[i] = byte((int(img.Data[i]) + int(img.Data[nextLo+(i-lo)])) / 2)
				}
				continue
			}
		}
		copy(out.Data[lo:hi], img.Data[lo:hi])
	}
	return out
}
