package engine

import (
	"github.com/zsiec/vista/layer"
	"github.com/zsiec/vista/producer"
)

// Controller is the control-surface API load/play/pause/stop/clear/
// clear_all/foreground/background is submitted through. Every call
// enqueues a task onto the device's serial executor so mutations only
// ever interleave between ticks, matching frame_producer_device.cpp's
// load/pause/play/stop/clear/clear dispatch via executor_.begin_invoke.
type Controller struct {
	device *ProducerDevice
}

// NewController returns a Controller bound to device.
func NewController(device *ProducerDevice) *Controller {
	return &Controller{device: device}
}

// Load installs prod into render layer id's background slot (promoting it
// to foreground immediately under layer.LoadPlay).
func (c *Controller) Load(id int, prod producer.Producer, option layer.LoadOption) {
	c.device.submit(func() {
		c.device.layerOrCreate(id).Load(prod, option, c.device.mixer)
	})
}

// Play promotes layer id's background producer to foreground.
func (c *Controller) Play(id int) {
	c.device.submit(func() {
		if l, ok := c.device.layerLocked(id); ok {
			l.Play()
		}
	})
}

// Pause freezes layer id's output at its last frame.
func (c *Controller) Pause(id int) {
	c.device.submit(func() {
		if l, ok := c.device.layerLocked(id); ok {
			l.Pause()
		}
	})
}

// Stop clears layer id's foreground. If the layer has no background
// content loaded, the layer is removed entirely, matching
// frame_producer_device.cpp's stop() erase-if-no-background behavior.
func (c *Controller) Stop(id int) {
	c.device.submit(func() {
		l, ok := c.device.layerLocked(id)
		if !ok {
			return
		}
		l.Stop()
		if !l.HasBackground() {
			c.device.deleteLayer(id)
		}
	})
}

// Clear resets layer id's foreground and background, then removes it.
func (c *Controller) Clear(id int) {
	c.device.submit(func() {
		if l, ok := c.device.layerLocked(id); ok {
			l.Clear()
		}
		c.device.deleteLayer(id)
	})
}

// ClearAll resets every layer, as if every layer received Clear.
func (c *Controller) ClearAll() {
	c.device.submit(func() {
		c.device.clearAllLayers()
	})
}

// Foreground returns the current foreground producer for layer id
// (nil if the layer does not exist or its foreground slot is empty),
// computed synchronously by blocking until the task executor processes the
// request.
func (c *Controller) Foreground(id int) producer.Producer {
	return c.query(func() producer.Producer {
		if l, ok := c.device.layerLocked(id); ok {
			if _, empty := l.Foreground().(producer.Empty); !empty {
				return l.Foreground()
			}
		}
		return nil
	})
}

// Background returns the current background producer for layer id.
func (c *Controller) Background(id int) producer.Producer {
	return c.query(func() producer.Producer {
		if l, ok := c.device.layerLocked(id); ok {
			return l.Background()
		}
		return nil
	})
}

// Layers returns a snapshot of every active layer's state, for a
// status/diagnostics surface, computed synchronously on the task executor
// like Foreground/Background.
func (c *Controller) Layers() []LayerSnapshot {
	resultCh := make(chan []LayerSnapshot, 1)
	c.device.submit(func() {
		resultCh <- c.device.layerSnapshotsLocked()
	})
	return <-resultCh
}

// query submits fn onto the task executor and blocks for its result,
// the Go analogue of the original's boost::unique_future<frame_producer_ptr>
// return from foreground()/background().
func (c *Controller) query(fn func() producer.Producer) producer.Producer {
	resultCh := make(chan producer.Producer, 1)
	c.device.submit(func() {
		resultCh <- fn()
	})
	return <-resultCh
}
