// Package status exposes a read-only JSON HTTP API reporting per-layer
// state, per-consumer queue depth and drop counts, per-stream-producer
// ingest stats, and the producer device's tick rate.
package status

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zsiec/vista/engine"
	"github.com/zsiec/vista/producer/stream"
)

// Server serves diagnostics for one playout channel.
type Server struct {
	producerDevice *engine.ProducerDevice
	consumerDevice *engine.ConsumerDevice
	controller     *engine.Controller
	streams        *stream.Registry
}

// New constructs a status Server reading from the given channel's devices.
// registry may be nil if no stream producers are in use, in which case
// /api/streams always reports an empty list.
func New(producerDevice *engine.ProducerDevice, consumerDevice *engine.ConsumerDevice, controller *engine.Controller, registry *stream.Registry) *Server {
	return &Server{
		producerDevice: producerDevice,
		consumerDevice: consumerDevice,
		controller:     controller,
		streams:        registry,
	}
}

// Handler returns an http.Handler exposing /api/status, /api/layers,
// /api/consumers, and /api/streams.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleChannelStatus)
	mux.HandleFunc("GET /api/layers", s.handleLayers)
	mux.HandleFunc("GET /api/consumers", s.handleConsumers)
	mux.HandleFunc("GET /api/streams", s.handleStreams)
	return mux
}

type channelStatusResponse struct {
	Ticks          uint64  `json:"ticks"`
	TickIntervalMs float64 `json:"tickIntervalMs"`
}

func (s *Server) handleChannelStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, channelStatusResponse{
		Ticks:          s.producerDevice.Ticks(),
		TickIntervalMs: float64(s.producerDevice.TickInterval().Microseconds()) / 1000.0,
	})
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Layers())
}

type consumerResponse struct {
	Index                string `json:"index"`
	Description          string `json:"description"`
	SynchronizationClock bool   `json:"synchronizationClock"`
	BufferDepth          int    `json:"bufferDepth"`
	DroppedCount         uint64 `json:"droppedCount"`
	PresentationAgeMs    int64  `json:"presentationAgeMs"`
}

func (s *Server) handleConsumers(w http.ResponseWriter, _ *http.Request) {
	consumers := s.consumerDevice.Consumers()
	resp := make([]consumerResponse, 0, len(consumers))
	for _, c := range consumers {
		resp = append(resp, consumerResponse{
			Index:                fmt.Sprintf("%08x", c.Index()),
			Description:          c.String(),
			SynchronizationClock: c.HasSynchronizationClock(),
			BufferDepth:          c.BufferDepth(),
			DroppedCount:         c.DroppedCount(),
			PresentationAgeMs:    c.PresentationFrameAge(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type streamResponse struct {
	Name          string `json:"name"`
	stream.Stats  `json:"stats"`
	RecentSCTE35N int `json:"recentScte35Count"`
}

func (s *Server) handleStreams(w http.ResponseWriter, _ *http.Request) {
	resp := []streamResponse{}
	if s.streams != nil {
		for _, name := range s.streams.Names() {
			p, ok := s.streams.Get(name)
			if !ok {
				continue
			}
			resp = append(resp, streamResponse{
				Name:          name,
				Stats:         p.Stats(),
				RecentSCTE35N: len(p.RecentSCTE35()),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding status response", "error", err)
	}
}
