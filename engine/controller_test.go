package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/zsiec/vista/layer"
	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/mixer"
	"github.com/zsiec/vista/producer"
)

func newRunningDevice(t *testing.T) (*ProducerDevice, *Controller, chan media.Frame, context.CancelFunc) {
	t.Helper()
	format := media.Format{
		Width: 4, Height: 4,
		FrameDuration: 1, TimeScale: 1000, // 1ms ticks, fast enough for tests
		AudioChannels: 2, AudioSampleRate: 48000,
	}
	frames := make(chan media.Frame, 16)
	device := NewProducerDevice(format, mixer.NewCPUMixer(format), func(f media.Frame) {
		select {
		case frames <- f:
		default:
		}
	})
	controller := NewController(device)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = device.Run(ctx) }()
	return device, controller, frames, cancel
}

func TestControllerLoadPlayProducesFrames(t *testing.T) {
	t.Parallel()
	_, controller, frames, cancel := newRunningDevice(t)
	defer cancel()

	gen := producer.NewGenerator("bars", producer.PatternColorBars, [4]byte{})
	controller.Load(1, gen, layer.LoadPlay)

	select {
	case f := <-frames:
		if f.Kind != media.KindPayload {
			t.Errorf("Kind = %v, want KindPayload", f.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a composited frame")
	}

	if controller.Foreground(1) == nil {
		t.Error("Foreground(1) should return the loaded generator after LoadPlay")
	}
}

func TestControllerLoadPreviewThenPlay(t *testing.T) {
	t.Parallel()
	_, controller, _, cancel := newRunningDevice(t)
	defer cancel()

	gen := producer.NewGenerator("bars", producer.PatternSolid, [4]byte{1, 2, 3, 255})
	controller.Load(2, gen, layer.LoadPreview)

	if controller.Foreground(2) != nil {
		t.Error("LoadPreview should not promote to foreground")
	}
	if controller.Background(2) == nil {
		t.Error("LoadPreview should populate the background slot")
	}

	controller.Play(2)
	if controller.Foreground(2) == nil {
		t.Error("Play should promote the background producer to foreground")
	}
}

func TestControllerStopRemovesLayerWithNoBackground(t *testing.T) {
	t.Parallel()
	device, controller, _, cancel := newRunningDevice(t)
	defer cancel()

	gen := producer.NewGenerator("bars", producer.PatternSolid, [4]byte{})
	controller.Load(3, gen, layer.LoadPlay)
	controller.Stop(3)

	// Block until the Stop task has actually been processed.
	_ = controller.Foreground(3)

	device.mu.Lock()
	_, exists := device.layers[3]
	device.mu.Unlock()
	if exists {
		t.Error("Stop should remove a layer that has no background content loaded")
	}
}

func TestControllerLayersReportsForegroundAndBackground(t *testing.T) {
	t.Parallel()
	_, controller, _, cancel := newRunningDevice(t)
	defer cancel()

	controller.Load(5, producer.NewGenerator("fg", producer.PatternColorBars, [4]byte{}), layer.LoadPlay)
	controller.Load(5, producer.NewGenerator("bg", producer.PatternSolid, [4]byte{}), layer.LoadPreview)

	var snaps []LayerSnapshot
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		snaps = controller.Layers()
		if len(snaps) == 1 && snaps[0].HasBackground {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if len(snaps) != 1 {
		t.Fatalf("Layers() = %v, want exactly one entry for layer 5", snaps)
	}
	if snaps[0].ID != 5 {
		t.Errorf("ID = %d, want 5", snaps[0].ID)
	}
	if !strings.Contains(snaps[0].Foreground, "fg") {
		t.Errorf("Foreground = %q, want it to mention %q", snaps[0].Foreground, "fg")
	}
	if !snaps[0].HasBackground {
		t.Error("HasBackground should be true once a preview producer is loaded")
	}
}

func TestControllerLayersEmptyWhenNoLayersLoaded(t *testing.T) {
	t.Parallel()
	_, controller, _, cancel := newRunningDevice(t)
	defer cancel()

	if snaps := controller.Layers(); len(snaps) != 0 {
		t.Errorf("Layers() = %v, want none before any Load", snaps)
	}
}

func TestControllerClearAll(t *testing.T) {
	t.Parallel()
	device, controller, _, cancel := newRunningDevice(t)
	defer cancel()

	controller.Load(1, producer.NewGenerator("a", producer.PatternSolid, [4]byte{}), layer.LoadPlay)
	controller.Load(2, producer.NewGenerator("b", producer.PatternSolid, [4]byte{}), layer.LoadPlay)
	controller.ClearAll()

	_ = controller.Foreground(1)

	device.mu.Lock()
	n := len(device.layers)
	device.mu.Unlock()
	if n != 0 {
		t.Errorf("ClearAll should empty the layer map, found %d remaining", n)
	}
}
