package muxer

import (
	"testing"

	"github.com/zsiec/vista/media"
)

func TestWeaveFieldsUpperFirst(t *testing.T) {
	t.Parallel()
	a := makeImage(2, 4)
	b := makeImage(2, 4)
	for i := range a.Data {
		a.Data[i] = 0xAA
	}
	for i := range b.Data {
		b.Data[i] = 0xBB
	}

	out := weaveFields(a, b, media.UpperFieldFirst)
	if out.Data[0] != 0xAA {
		t.Error("upper-field-first: row 0 should come from the first frame (a)")
	}
	if out.Data[out.Stride] != 0xBB {
		t.Error("upper-field-first: row 1 should come from the second frame (b)")
	}
}

func TestWeaveFieldsLowerFirst(t *testing.T) {
	t.Parallel()
	a := makeImage(2, 4)
	b := makeImage(2, 4)
	for i := range a.Data {
		a.Data[i] = 0xAA
	}
	for i := range b.Data {
		b.Data[i] = 0xBB
	}

	out := weaveFields(a, b, media.LowerFieldFirst)
	if out.Data[0] != 0xBB {
		t.Error("lower-field-first: row 0 should come from the second frame (b)")
	}
	if out.Data[out.Stride] != 0xAA {
		t.Error("lower-field-first: row 1 should come from the first frame (a)")
	}
}

func TestWeaveFieldsMismatchedGeometryReturnsA(t *testing.T) {
	t.Parallel()
	a := makeImage(4, 4)
	b := makeImage(2, 2)
	out := weaveFields(a, b, media.UpperFieldFirst)
	if out != a {
		t.Error("mismatched geometry should fall back to returning a unchanged")
	}
}

func TestDeinterlaceByAveraging(t *testing.T) {
	t.Parallel()
	img := makeImage(2, 2)
	img.Data[0] = 0   // row0 col0
	img.Data[img.Stride] = 100 // row1 col0

	out := deinterlaceByAveraging(img)
	if out.Data[0] != 50 {
		t.Errorf("averaged pixel = %d, want 50", out.Data[0])
	}
}

func TestDeinterlaceByAveragingNil(t *testing.T) {
	t.Parallel()
	if out := deinterlaceByAveraging(nil); out != nil {
		t.Error("deinterlaceByAveraging(nil) should return nil")
	}
}
