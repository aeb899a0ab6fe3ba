package engine

import (
	"testing"

	"github.com/zsiec/vista/media"
)

func TestSortInts(t *testing.T) {
	t.Parallel()
	xs := []int{5, 1, 4, 2, 3}
	sortInts(xs)
	want := []int{1, 2, 3, 4, 5}
	for i, v := range want {
		if xs[i] != v {
			t.Fatalf("sortInts() = %v, want %v", xs, want)
		}
	}
}

func TestSortIntsEmptyAndSingle(t *testing.T) {
	t.Parallel()
	empty := []int{}
	sortInts(empty)
	if len(empty) != 0 {
		t.Error("sorting an empty slice should leave it empty")
	}

	single := []int{7}
	sortInts(single)
	if single[0] != 7 {
		t.Error("sorting a single-element slice should be a no-op")
	}
}

func TestNewProducerDeviceFallsBackOnZeroTickEvery(t *testing.T) {
	t.Parallel()
	d := NewProducerDevice(media.Format{}, nil, func(media.Frame) {})
	if d.tickEvery <= 0 {
		t.Error("a zero/invalid frame duration should fall back to a default tick interval")
	}
}

func TestTickIntervalMatchesConfiguredFrameDuration(t *testing.T) {
	t.Parallel()
	format := media.Format{FrameDuration: 1, TimeScale: 25}
	d := NewProducerDevice(format, nil, func(media.Frame) {})
	if got, want := d.TickInterval(), d.tickEvery; got != want {
		t.Errorf("TickInterval() = %v, want %v", got, want)
	}
}
