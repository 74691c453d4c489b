package postprocessors

import (
	"fmt"
	"slices"
	"sort"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// BuilderFunc creates a processor from its table in the configuration.
// cfg is nil when the processor has no settings.
type BuilderFunc func(cfg map[string]any) (driven.PageProcessor, error)

// Registry maps processor names to builders so a pipeline can be
// described by a list of names.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder. It panics on an empty name, a nil builder or
// a name registered twice, as those are wiring bugs.
func (r *Registry) Register(name string, builder BuilderFunc) {
	if name == "" || builder == nil {
		panic("postprocessors: Register needs a name and a builder")
	}
	if _, dup := r.builders[name]; dup {
		panic("postprocessors: Register called twice for " + name)
	}
	r.builders[name] = builder
}

// Build creates the named processor.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PageProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor %q (have %v)", name, r.Names())
	}
	proc, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return proc, nil
}

// BuildPipeline builds the named processors, in order, into a pipeline.
// cfgs maps a processor name to its config and may be nil. A name may
// appear only once.
func (r *Registry) BuildPipeline(names []string, cfgs map[string]map[string]any) (*Pipeline, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one processor")
	}
	pipeline := NewPipeline()
	for i, name := range names {
		if slices.Contains(names[:i], name) {
			return nil, fmt.Errorf("processor %q listed twice", name)
		}
		proc, err := r.Build(name, cfgs[name])
		if err != nil {
			return nil, err
		}
		pipeline.Add(proc)
	}
	return pipeline, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
