package muxer

import (
	"testing"

	"github.com/zsiec/vista/media"
)

func TestSelectDisplayModeSimple(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.Progressive, 25.0, media.Progressive, 25.0)
	if mode != Simple {
		t.Errorf("selectDisplayMode() = %v, want Simple", mode)
	}
}

func TestSelectDisplayModeInterlace(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.Progressive, 50.0, media.UpperFieldFirst, 25.0)
	if mode != Interlace {
		t.Errorf("selectDisplayMode() = %v, want Interlace", mode)
	}
}

func TestSelectDisplayModeDuplicate(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.Progressive, 25.0, media.Progressive, 50.0)
	if mode != Duplicate {
		t.Errorf("selectDisplayMode() = %v, want Duplicate", mode)
	}
}

func TestSelectDisplayModeHalf(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.Progressive, 50.0, media.Progressive, 25.0)
	if mode != Half {
		t.Errorf("selectDisplayMode() = %v, want Half", mode)
	}
}

func TestSelectDisplayModeDeinterlace(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.UpperFieldFirst, 25.0, media.Progressive, 25.0)
	if mode != Deinterlace {
		t.Errorf("selectDisplayMode() = %v, want Deinterlace", mode)
	}
}

func TestSelectDisplayModeDeinterlaceBob(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.UpperFieldFirst, 25.0, media.Progressive, 50.0)
	if mode != DeinterlaceBob {
		t.Errorf("selectDisplayMode() = %v, want DeinterlaceBob", mode)
	}
}

func TestSelectDisplayModeInvalid(t *testing.T) {
	t.Parallel()
	mode := selectDisplayMode(media.UpperFieldFirst, 30.0, media.Progressive, 23.0)
	if mode != Invalid {
		t.Errorf("selectDisplayMode() = %v, want Invalid", mode)
	}
}

func TestDisplayModeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mode DisplayMode
		want string
	}{
		{Simple, "simple"},
		{Half, "half"},
		{Duplicate, "duplicate"},
		{Interlace, "interlace"},
		{Deinterlace, "deinterlace"},
		{DeinterlaceBob, "deinterlace_bob"},
		{ScaleInterlaced, "scale_interlaced"},
		{Invalid, "invalid"},
	}
	for _, tc := range tests {
		if got := tc.mode.String(); got != tc.want {
			t.Errorf("DisplayMode(%d).String() = %q, want %q", tc.mode, got, tc.want)
		}
	}
}
