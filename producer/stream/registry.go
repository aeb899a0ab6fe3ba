package stream

import (
	"context"
	"fmt"
	"sync"
)

// Registry tracks active stream producers by name, the rendezvous point
// between a control surface's "load this SRT source" request and the
// layer that will play it.
type Registry struct {
	mu        sync.RWMutex
	producers map[string]*Producer
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{producers: make(map[string]*Producer)}
}

// Open dials cfg.Address and registers the resulting Producer under name.
// It returns an error if a producer is already registered under that name.
func (r *Registry) Open(ctx context.Context, name string, cfg Config) (*Producer, error) {
	r.mu.Lock()
	if _, exists := r.producers[name]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("stream registry: %q already open", name)
	}
	r.mu.Unlock()

	p, err := Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.producers[name] = p
	r.mu.Unlock()
	return p, nil
}

// Get returns the producer registered under name, if any.
func (r *Registry) Get(name string) (*Producer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.producers[name]
	return p, ok
}

// Close closes and unregisters the producer under name.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	p, ok := r.producers[name]
	if ok {
		delete(r.producers, name)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("stream registry: %q not open", name)
	}
	return p.Close()
}

// Names returns the names of all currently registered producers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.producers))
	for name := range r.producers {
		names = append(names, name)
	}
	return names
}
