// Package stream implements the stream producer: a producer.Producer that
// pulls a live SRT source, demuxes its MPEG-TS container, and feeds the
// resulting access units into a per-producer frame muxer.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	srtgo "github.com/zsiec/srtgo"

	"github.com/zsiec/vista/decoder"
	"github.com/zsiec/vista/internal/demux"
	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/muxer"
	"github.com/zsiec/vista/producer"
)

const (
	srtReadBufferSize = 1316 * 10
	srtLatencyNs       = 120_000_000
	dialTimeout        = 10 * time.Second
)

// Config describes a remote SRT source to pull and the target format its
// frame muxer should conform to.
type Config struct {
	Address   string
	StreamID  string
	SourceFPS float64
	Target    media.Format
	Channels  int
	Log       *slog.Logger
}

// Stats captures connection-level metrics for one stream producer.
type Stats struct {
	BytesReceived int64
	ReadCount     int64
	ConnectedAt   int64
	UptimeMs      int64
	RemoteAddr    string
}

// Producer pulls a live SRT MPEG-TS source and exposes its demuxed,
// re-muxed cadence as a producer.Producer. It never has a following
// producer — a live source has no "next clip" to hand off to on eof.
type Producer struct {
	log  *slog.Logger
	name string

	conn   *srtgo.Conn
	demux  *demux.Demuxer
	mux    *muxer.Muxer
	stub   *decoder.Stub
	cancel context.CancelFunc

	startedAt  time.Time
	bytesRecv  atomic.Int64
	readCount  atomic.Int64
	remoteAddr string

	recentMu sync.Mutex
	recent   []demux.SCTE35Event

	done chan struct{}
}

// Dial connects to cfg.Address via SRT and starts demuxing in the
// background. The returned Producer's Receive method should be polled by
// a layer once Initialize has been called.
func Dial(ctx context.Context, cfg Config) (*Producer, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("stream producer: address is required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "stream-producer", "address", cfg.Address)

	srtCfg := srtgo.DefaultConfig()
	srtCfg.Latency = srtLatencyNs
	streamID := cfg.StreamID
	if streamID == "" {
		streamID = cfg.Address
	}
	srtCfg.StreamID = streamID

	type dialResult struct {
		conn *srtgo.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := srtgo.Dial(cfg.Address, srtCfg)
		ch <- dialResult{conn, err}
	}()

	timer := time.NewTimer(dialTimeout)
	defer timer.Stop()

	var conn *srtgo.Conn
	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("stream producer: SRT dial failed: %w", res.err)
		}
		conn = res.conn
	case <-timer.C:
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, fmt.Errorf("stream producer: SRT dial timed out after %s", dialTimeout)
	case <-ctx.Done():
		go func() {
			if res := <-ch; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}

	runCtx, cancel := context.WithCancel(context.Background())

	p := &Producer{
		log:        log,
		name:       cfg.Address,
		conn:       conn,
		mux:        muxer.New(cfg.SourceFPS, cfg.Target, cfg.Channels, false),
		cancel:     cancel,
		startedAt:  time.Now(),
		remoteAddr: cfg.Address,
		done:       make(chan struct{}),
	}

	pr, pw := io.Pipe()
	p.demux = demux.NewDemuxer(pr, log)
	p.demux.SetStats(&statsRecorder{p: p})

	go p.readLoop(runCtx, pw)
	go p.demuxLoop(runCtx)

	return p, nil
}

func (p *Producer) readLoop(ctx context.Context, pw *io.PipeWriter) {
	defer pw.Close()
	buf := make([]byte, srtReadBufferSize)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := p.conn.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.log.Debug("SRT read error", "error", err)
			}
			return
		}
		p.bytesRecv.Add(int64(n))
		p.readCount.Add(1)
		if _, err := pw.Write(buf[:n]); err != nil {
			return
		}
	}
}

func (p *Producer) demuxLoop(ctx context.Context) {
	defer close(p.done)
	go func() {
		if err := p.demux.Run(ctx); err != nil && ctx.Err() == nil {
			p.log.Debug("demux stopped", "error", err)
		}
	}()

	videoCh := p.demux.Video()
	audioCh := p.demux.Audio()
	for videoCh != nil || audioCh != nil {
		select {
		case au, ok := <-videoCh:
			if !ok {
				videoCh = nil
				continue
			}
			img := p.stub.DecodeVideo(au)
			field := media.Progressive
			_ = p.mux.PushVideo(img, field, false, false, au.PTS)
		case au, ok := <-audioCh:
			if !ok {
				audioCh = nil
				continue
			}
			samples := p.stub.DecodeAudio(au)
			_ = p.mux.PushAudio(samples.Samples)
		case <-ctx.Done():
			return
		}
	}
}

// Initialize binds the producer's decoder stub to the engine's frame
// factory, per producer.Producer's contract.
func (p *Producer) Initialize(factory media.Factory) {
	p.stub = decoder.NewStub(factory)
}

// Receive polls the underlying frame muxer for the next ready composited
// frame, returning media.Empty() if neither video nor audio is ready yet.
// A live source never reaches eof on its own; Receive only returns
// media.EOF() once the underlying connection has closed and the muxer has
// nothing left to drain.
func (p *Producer) Receive() media.Frame {
	select {
	case <-p.done:
		if !p.mux.VideoReady() && !p.mux.AudioReady() {
			return media.EOF()
		}
	default:
	}

	frame, err := p.mux.Poll()
	if err != nil {
		p.log.Warn("muxer poll failed", "error", err)
		return media.Empty()
	}
	if frame == nil {
		return media.Empty()
	}
	return *frame
}

// FollowingProducer is always nil: a live stream source has nothing to
// hand off to after eof.
func (p *Producer) FollowingProducer() producer.Producer { return nil }

// SetLeadingProducer is a no-op: nothing ever transitions into a live
// stream producer from an upstream slot.
func (p *Producer) SetLeadingProducer(producer.Producer) {}

// Stats returns a snapshot of ingest connection metrics.
func (p *Producer) Stats() Stats {
	return Stats{
		BytesReceived: p.bytesRecv.Load(),
		ReadCount:     p.readCount.Load(),
		ConnectedAt:   p.startedAt.UnixMilli(),
		UptimeMs:      time.Since(p.startedAt).Milliseconds(),
		RemoteAddr:    p.remoteAddr,
	}
}

// RecentSCTE35 returns a snapshot of the most recently observed SCTE-35
// splice events, surfaced for a control surface to react to ad markers
// (ad-break cue-out/cue-in); nothing in the compositing core consumes
// these itself.
func (p *Producer) RecentSCTE35() []demux.SCTE35Event {
	p.recentMu.Lock()
	defer p.recentMu.Unlock()
	out := make([]demux.SCTE35Event, len(p.recent))
	copy(out, p.recent)
	return out
}

// Close stops the read and demux loops and closes the SRT connection.
func (p *Producer) Close() error {
	p.cancel()
	return p.conn.Close()
}

func (p *Producer) String() string {
	return fmt.Sprintf("stream-producer[%s]", p.name)
}

const maxRecentSCTE35 = 16

// statsRecorder adapts demux.StatsRecorder onto Producer, discarding the
// byte/codec telemetry this core has no slot for and keeping only the
// SCTE-35 event history a control surface needs for ad-break detection.
type statsRecorder struct {
	p *Producer
}

func (s *statsRecorder) RecordVideoFrame(bytes int64, isKeyframe bool, pts int64)               {}
func (s *statsRecorder) RecordAudioFrame(trackIdx int, bytes int64, pts int64, sr, ch int)       {}
func (s *statsRecorder) RecordResolution(width, height int)                                     {}
func (s *statsRecorder) RecordTimecode(tc string)                                                {}
func (s *statsRecorder) RecordVideoCodec(codec string)                                           {}

func (s *statsRecorder) RecordSCTE35(event demux.SCTE35Event) {
	s.p.recentMu.Lock()
	defer s.p.recentMu.Unlock()
	s.p.recent = append(s.p.recent, event)
	if len(s.p.recent) > maxRecentSCTE35 {
		s.p.recent = s.p.recent[len(s.p.recent)-maxRecentSCTE35:]
	}
}

var _ producer.Producer = (*Producer)(nil)
