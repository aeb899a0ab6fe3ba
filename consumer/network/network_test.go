package network

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/zsiec/vista/internal/wire"
	"github.com/zsiec/vista/media"
)

func TestNetworkConsumerNeverHoldsSyncClock(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	c := New(wire.NewWriter(&buf), "127.0.0.1:9999")
	defer c.Close()

	if c.HasSynchronizationClock() {
		t.Error("a network consumer should never hold the synchronization clock")
	}
}

func TestNetworkConsumerSendWritesToWire(t *testing.T) {
	t.Parallel()
	var buf syncBuffer
	c := New(wire.NewWriter(&buf), "127.0.0.1:9999")
	defer c.Close()

	frame := media.NewPayload(&media.ImageBuffer{Width: 1, Height: 1, Stride: 4, Data: []byte{1, 2, 3, 4}}, nil, 1)
	result, err := c.Send(nil, frame)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted {
		t.Error("Send() should be accepted while the queue has room")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if buf.Len() > 0 {
			r := wire.NewReader(bytes.NewReader(buf.Bytes()))
			got, err := r.ReadFrame()
			if err != nil {
				t.Fatal(err)
			}
			if got.DisplayPictureNumber != 1 {
				t.Errorf("DisplayPictureNumber = %d, want 1", got.DisplayPictureNumber)
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Error("timed out waiting for the drain goroutine to write the frame")
}

func TestNetworkConsumerDropsOnQueueSaturation(t *testing.T) {
	t.Parallel()
	// blockingWriter never returns from Write, keeping the drain goroutine
	// stuck on the first frame so the queue fills up behind it.
	bw := &blockingWriter{unblock: make(chan struct{})}
	defer close(bw.unblock)
	c := New(wire.NewWriter(bw), "127.0.0.1:9999")
	defer c.Close()

	accepted := 0
	dropped := 0
	for i := 0; i < defaultQueueDepth+4; i++ {
		result, err := c.Send(nil, media.NewPayload(&media.ImageBuffer{Data: []byte{1}}, nil, int64(i)))
		if err != nil {
			t.Fatal(err)
		}
		if result.Dropped {
			dropped++
		} else if result.Accepted {
			accepted++
		}
	}
	if dropped == 0 {
		t.Error("sending more frames than the queue depth while the drain is stuck should drop some")
	}
	if got := c.DroppedCount(); got != uint64(dropped) {
		t.Errorf("DroppedCount() = %d, want %d", got, dropped)
	}
}

func TestNetworkConsumerIndexIsFingerprint(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	c := New(wire.NewWriter(&buf), "10.0.0.1:1234")
	defer c.Close()

	if c.Index() == 0 {
		t.Error("Index() should be a non-zero fingerprint derived from the remote address")
	}
}

func TestNetworkConsumerCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	c := New(wire.NewWriter(&buf), "127.0.0.1:9999")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("a second Close() call should not error: %v", err)
	}
}

// syncBuffer wraps bytes.Buffer with a mutex so it is safe to read from the
// test goroutine while the consumer's drain goroutine writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

// blockingWriter never completes a Write until its unblock channel is
// closed, used to keep the drain goroutine stuck so the queue saturates.
type blockingWriter struct {
	unblock chan struct{}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.unblock
	return len(p), nil
}
