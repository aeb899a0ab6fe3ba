package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zsiec/vista/consumer"
	"github.com/zsiec/vista/media"
)

// ConsumerDevice holds the set of registered consumers for one channel,
// keyed by their stable index, and dispatches each final composited frame
// to all of them every tick. At most one consumer may hold the
// synchronization clock; the device waits for that consumer's Send to
// return before the tick loop re-arms, pacing the whole channel to the
// slowest clock-bearing sink. Non-synchronizing consumers are
// fire-and-forget with drop semantics, matching §4.8.
type ConsumerDevice struct {
	log *slog.Logger

	mu        sync.RWMutex
	consumers map[uint32]consumer.Consumer
	syncIndex uint32
	hasSync   bool
}

// NewConsumerDevice constructs an empty ConsumerDevice.
func NewConsumerDevice() *ConsumerDevice {
	return &ConsumerDevice{
		log:       slog.With("component", "consumer-device"),
		consumers: make(map[uint32]consumer.Consumer),
	}
}

// Add registers c. If c.HasSynchronizationClock() and another
// synchronizing consumer is already registered, Add returns an error: at
// most one synchronizing consumer may exist per channel.
func (d *ConsumerDevice) Add(c consumer.Consumer, format media.Format, channelIndex int) error {
	if err := c.Initialize(format, channelIndex); err != nil {
		return fmt.Errorf("consumer device: initialize %s: %w", c, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if c.HasSynchronizationClock() {
		if d.hasSync && d.syncIndex != c.Index() {
			return fmt.Errorf("consumer device: synchronizing consumer already registered (index %08x)", d.syncIndex)
		}
		d.syncIndex = c.Index()
		d.hasSync = true
	}

	d.consumers[c.Index()] = c
	d.log.Info("consumer added", "index", fmt.Sprintf("%08x", c.Index()), "sync", c.HasSynchronizationClock())
	return nil
}

// Remove unregisters the consumer with the given index, closing it.
func (d *ConsumerDevice) Remove(index uint32) {
	d.mu.Lock()
	c, ok := d.consumers[index]
	if ok {
		delete(d.consumers, index)
		if d.hasSync && d.syncIndex == index {
			d.hasSync = false
		}
	}
	d.mu.Unlock()

	if ok {
		_ = c.Close()
		d.log.Info("consumer removed", "index", fmt.Sprintf("%08x", index))
	}
}

// Dispatch sends frame to every registered consumer, waiting only for the
// synchronizing consumer's Send to return before returning itself. This
// is the back-pressure mechanism the producer device's tick loop relies
// on via onFrame.
func (d *ConsumerDevice) Dispatch(frame media.Frame) {
	d.mu.RLock()
	cs := make([]consumer.Consumer, 0, len(d.consumers))
	for _, c := range d.consumers {
		cs = append(cs, c)
	}
	syncIndex, hasSync := d.syncIndex, d.hasSync
	d.mu.RUnlock()

	ctx := context.Background()

	for _, c := range cs {
		if hasSync && c.Index() == syncIndex {
			continue
		}
		c := c
		go func() {
			if _, err := c.Send(ctx, frame); err != nil {
				d.log.Warn("consumer send failed", "consumer", c.String(), "error", err)
			}
		}()
	}

	if hasSync {
		d.mu.RLock()
		syncConsumer, ok := d.consumers[syncIndex]
		d.mu.RUnlock()
		if ok {
			if _, err := syncConsumer.Send(ctx, frame); err != nil {
				d.log.Warn("synchronizing consumer send failed", "consumer", syncConsumer.String(), "error", err)
			}
		}
	}
}

// CloseAll closes every registered consumer and empties the device,
// called during channel shutdown.
func (d *ConsumerDevice) CloseAll() {
	d.mu.Lock()
	cs := make([]consumer.Consumer, 0, len(d.consumers))
	for _, c := range d.consumers {
		cs = append(cs, c)
	}
	d.consumers = make(map[uint32]consumer.Consumer)
	d.hasSync = false
	d.mu.Unlock()

	for _, c := range cs {
		_ = c.Close()
	}
}

// Consumers returns a snapshot of currently registered consumers.
func (d *ConsumerDevice) Consumers() []consumer.Consumer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cs := make([]consumer.Consumer, 0, len(d.consumers))
	for _, c := range d.consumers {
		cs = append(cs, c)
	}
	return cs
}
