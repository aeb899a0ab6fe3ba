// Package engine wires the playout core together: ProducerDevice runs the
// clocked tick loop over a layer map, ConsumerDevice fans the resulting
// final frame out to registered consumers, and Controller exposes the
// load/play/pause/stop/clear control surface both are driven through.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/vista/layer"
	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/mixer"
)

// task is a closure queued onto the producer device's single serial
// executor, the Go analogue of executor_.begin_invoke in
// frame_producer_device.cpp: layer mutations interleave with ticks only
// at task-queue boundaries, never mid-tick.
type task func()

// ProducerDevice runs the periodic composite loop: each tick, every
// layer's Receive is called in parallel, the results are gathered in
// ascending layer-id (back-to-front) order, composited by the mixer, and
// handed to onFrame. Any panic escaping the per-layer fan-out (beyond
// what a layer itself contains) clears every layer and keeps ticking, so
// the output clock never stops — mirroring the tick() catch(...) block.
type ProducerDevice struct {
	log *slog.Logger

	mixer   mixer.Mixer
	onFrame func(media.Frame)

	tasks chan task

	mu     sync.Mutex
	layers map[int]*layer.Layer

	tickEvery time.Duration

	ticks uint64
}

// NewProducerDevice constructs a ProducerDevice targeting the given
// format's frame rate, compositing via m, and delivering each final frame
// to onFrame (normally a ConsumerDevice.Dispatch).
func NewProducerDevice(format media.Format, m mixer.Mixer, onFrame func(media.Frame)) *ProducerDevice {
	d := &ProducerDevice{
		log:       slog.With("component", "producer-device"),
		mixer:     m,
		onFrame:   onFrame,
		tasks:     make(chan task, 256),
		layers:    make(map[int]*layer.Layer),
		tickEvery: time.Duration(format.FrameDurationSeconds() * float64(time.Second)),
	}
	if d.tickEvery <= 0 {
		d.tickEvery = time.Second / 25
	}
	return d
}

// Run drives the tick loop and the task-queue drain until ctx is
// cancelled. It is meant to be run in its own goroutine (e.g. under an
// errgroup, matching cmd/prism/main.go's supervision style).
func (d *ProducerDevice) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-d.tasks:
			t()
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// submit enqueues a task, blocking only if the queue is saturated (which
// indicates a stuck consumer of tasks, not ordinary backpressure).
func (d *ProducerDevice) submit(t task) {
	d.tasks <- t
}

// Ticks returns the number of ticks processed so far, for diagnostics.
func (d *ProducerDevice) Ticks() uint64 { return d.ticks }

// TickInterval returns the configured tick period, for diagnostics.
func (d *ProducerDevice) TickInterval() time.Duration { return d.tickEvery }

// layerSnapshotsLocked builds a LayerSnapshot list from the current layer
// map. Must only be called from within the task executor (i.e. from a
// submitted task), matching layerOrCreate/layerLocked/deleteLayer.
func (d *ProducerDevice) layerSnapshotsLocked() []LayerSnapshot {
	d.mu.Lock()
	ids := make([]int, 0, len(d.layers))
	for id := range d.layers {
		ids = append(ids, id)
	}
	sortInts(ids)
	layers := make([]*layer.Layer, len(ids))
	for i, id := range ids {
		layers[i] = d.layers[id]
	}
	d.mu.Unlock()

	out := make([]LayerSnapshot, len(ids))
	for i, l := range layers {
		out[i] = LayerSnapshot{
			ID:            ids[i],
			Foreground:    l.Foreground().String(),
			Background:    l.Background().String(),
			HasBackground: l.HasBackground(),
			Paused:        l.Paused(),
		}
	}
	return out
}

// LayerSnapshot summarizes one layer's state for a status/diagnostics
// surface: the layer id plus its foreground/background producer names.
type LayerSnapshot struct {
	ID            int    `json:"id"`
	Foreground    string `json:"foreground"`
	Background    string `json:"background"`
	HasBackground bool   `json:"hasBackground"`
	Paused        bool   `json:"paused"`
}

func (d *ProducerDevice) tick(ctx context.Context) {
	d.ticks++

	func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("unexpected panic in tick, clearing layers", "panic", r)
				d.mu.Lock()
				d.layers = make(map[int]*layer.Layer)
				d.mu.Unlock()
			}
		}()

		frames := d.receiveAll(ctx)
		composite := d.mixer.Composite(frames)
		d.onFrame(composite)
	}()
}

// receiveAll calls Receive on every layer in parallel, gathering results
// in ascending layer-id order (back to front), matching the original's
// tbb::parallel_for + ordered std::vector<producer_frame> gather.
func (d *ProducerDevice) receiveAll(ctx context.Context) []media.Frame {
	d.mu.Lock()
	ids := make([]int, 0, len(d.layers))
	for id := range d.layers {
		ids = append(ids, id)
	}
	sortInts(ids)
	layers := make([]*layer.Layer, len(ids))
	for i, id := range ids {
		layers[i] = d.layers[id]
	}
	d.mu.Unlock()

	frames := make([]media.Frame, len(layers))

	g, _ := errgroup.WithContext(ctx)
	for i, l := range layers {
		i, l := i, l
		g.Go(func() error {
			frames[i] = d.receiveLayer(l, ids[i])
			return nil
		})
	}
	_ = g.Wait() // receiveLayer never returns an error; faults are isolated per layer

	return frames
}

// receiveLayer isolates a single layer's fault: a panic inside one
// layer's Receive yields the empty frame for that layer only, rather than
// propagating to the clear-all-layers path (reserved for logic bugs
// escaping this recovery).
func (d *ProducerDevice) receiveLayer(l *layer.Layer, id int) (frame media.Frame) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("layer panicked, isolating", "layer", id, "panic", r)
			frame = media.Empty()
		}
	}()
	return l.Receive()
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// layerOrCreate returns the layer for id, creating it if absent. Must be
// called from within the task executor.
func (d *ProducerDevice) layerOrCreate(id int) *layer.Layer {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.layers[id]
	if !ok {
		l = layer.New(id)
		d.layers[id] = l
	}
	return l
}

func (d *ProducerDevice) layerLocked(id int) (*layer.Layer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.layers[id]
	return l, ok
}

func (d *ProducerDevice) deleteLayer(id int) {
	d.mu.Lock()
	delete(d.layers, id)
	d.mu.Unlock()
}

func (d *ProducerDevice) clearAllLayers() {
	d.mu.Lock()
	d.layers = make(map[int]*layer.Layer)
	d.mu.Unlock()
}
