package strategy

import (
	"sync"

	"go.uber.org/zap"
)

// Registry manages the closed set of generators. Iteration order is
// registration order, so candidate evaluation (and therefore tie-breaking in
// the scorer) stays deterministic.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	order      []string
	logger     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{
		generators: make(map[string]Generator),
		logger:     l,
	}
}

// Register adds a generator. Re-registering a name replaces the generator
// but keeps its original position.
func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[g.Name()]; !exists {
		r.order = append(r.order, g.Name())
	}
	r.generators[g.Name()] = g
}

// Get retrieves a generator by name.
func (r *Registry) Get(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	return g, ok
}

// Active returns the generators for the requested names, in registration
// order. Unknown names are logged and skipped so a config typo disables one
// strategy instead of the whole run.
func (r *Registry) Active(names []string) []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.generators[n]; !ok {
			r.logger.Warn("unknown strategy in config", zap.String("strategy", n))
			continue
		}
		want[n] = true
	}

	out := make([]Generator, 0, len(want))
	for _, name := range r.order {
		if want[name] {
			out = append(out, r.generators[name])
		}
	}
	return out
}

// All returns every registered generator in registration order.
func (r *Registry) All() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Generator, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.generators[name])
	}
	return out
}

// DefaultRegistry returns a registry with the four built-in generators.
func DefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(NewOrderBlockEntry())
	r.Register(NewFVGEntry())
	r.Register(NewBOSContinuation())
	r.Register(NewCHoCHReversal())
	return r
}
