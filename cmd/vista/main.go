package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/vista/certs"
	"github.com/zsiec/vista/consumer/file"
	"github.com/zsiec/vista/consumer/network"
	"github.com/zsiec/vista/engine"
	"github.com/zsiec/vista/internal/quicsink"
	"github.com/zsiec/vista/internal/wire"
	"github.com/zsiec/vista/layer"
	"github.com/zsiec/vista/media"
	"github.com/zsiec/vista/mixer"
	"github.com/zsiec/vista/producer"
	"github.com/zsiec/vista/producer/stream"
	"github.com/zsiec/vista/status"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	format := media.Format{
		Name:            "1080i5994",
		Width:           1920,
		Height:          1080,
		Field:           media.UpperFieldFirst,
		FrameDuration:   1001,
		TimeScale:       30000,
		AudioSampleRate: 48000,
		AudioChannels:   2,
		AudioCadence:    media.NTSC29_97Cadence(48000),
	}

	netAddr := envOr("NETWORK_ADDR", ":9090")
	statusAddr := envOr("STATUS_ADDR", ":9091")
	recordPath := os.Getenv("RECORD_PATH")
	streamAddr := os.Getenv("STREAM_SOURCE_ADDR")

	slog.Info("generating self-signed certificate")
	cert, err := certs.Generate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate cert", "error", err)
		os.Exit(1)
	}
	slog.Info("certificate generated", "fingerprint", cert.FingerprintBase64(), "expires", cert.NotAfter.Format(time.RFC3339))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	cpuMixer := mixer.NewCPUMixer(format)
	consumerDevice := engine.NewConsumerDevice()
	producerDevice := engine.NewProducerDevice(format, cpuMixer, consumerDevice.Dispatch)
	controller := engine.NewController(producerDevice)

	// Layer 1 defaults to a color-bars test pattern so the channel produces
	// output immediately, before any real content is loaded.
	bars := producer.NewGenerator("bars", producer.PatternColorBars, [4]byte{})
	bars.SetFormat(format)
	controller.Load(1, bars, layer.LoadPlay)
	controller.Play(1)

	if recordPath != "" {
		rec, err := file.New(recordPath, rawFrameEncoder{})
		if err != nil {
			slog.Error("failed to open record file", "error", err)
			os.Exit(1)
		}
		if err := consumerDevice.Add(rec, format, 0); err != nil {
			slog.Error("failed to add file consumer", "error", err)
			os.Exit(1)
		}
	}

	streamRegistry := stream.NewRegistry()
	if streamAddr != "" {
		srcCtx, srcCancel := context.WithTimeout(ctx, 10*time.Second)
		src, err := streamRegistry.Open(srcCtx, "srt1", stream.Config{
			Address:   streamAddr,
			SourceFPS: 29.97,
			Target:    format,
			Channels:  format.AudioChannels,
		})
		srcCancel()
		if err != nil {
			slog.Error("failed to open SRT stream source", "address", streamAddr, "error", err)
			os.Exit(1)
		}
		controller.Load(2, src, layer.LoadPlay)
		controller.Play(2)
	}

	listener, err := quicsink.Listen(quicsink.Config{Addr: netAddr, Cert: cert.TLSCert})
	if err != nil {
		slog.Error("failed to start network listener", "error", err)
		os.Exit(1)
	}

	statusServer := &http.Server{Addr: statusAddr, Handler: status.New(producerDevice, consumerDevice, controller, streamRegistry).Handler()}

	slog.Info("vista starting",
		"version", version,
		"network", listener.Addr(),
		"status", statusAddr,
		"cert_hash", cert.FingerprintBase64(),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return producerDevice.Run(ctx)
	})

	g.Go(func() error {
		return acceptLoop(ctx, listener, consumerDevice, format)
	})

	g.Go(func() error {
		if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		consumerDevice.CloseAll()
		_ = statusServer.Close()
		return listener.Close()
	})

	if err := g.Wait(); err != nil {
		slog.Error("channel stopped with error", "error", err)
		os.Exit(1)
	}
}

func acceptLoop(ctx context.Context, listener *quicsink.Listener, consumerDevice *engine.ConsumerDevice, format media.Format) error {
	for {
		stream, conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		addr := conn.RemoteAddr().String()
		c := network.New(wire.NewWriter(stream), addr)
		if err := consumerDevice.Add(c, format, 0); err != nil {
			slog.Warn("rejecting network consumer", "remote", addr, "error", err)
			_ = c.Close()
		}
	}
}

// rawFrameEncoder is a minimal file.Encoder that dumps raw image bytes with
// no container framing, standing in for a real codec/muxer (out of scope).
type rawFrameEncoder struct{}

func (rawFrameEncoder) Encode(frame media.Frame) ([]byte, error) {
	if frame.Image == nil {
		return nil, nil
	}
	return frame.Image.Data, nil
}

func (rawFrameEncoder) Flush() ([]byte, error) { return nil, nil }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
