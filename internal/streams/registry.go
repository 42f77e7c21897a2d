// Package streams is the stream registry: the declared names and versions
// of spec.md §6.1. It is a distinct concern from internal/envelope's schema
// registry — this package governs *which streams exist*, not the shape of
// the events on them. Which streams a writer may append to is enforced by
// bus.Producer's declared outputs, not here.
package streams

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tradebus/tradebus/internal/envelope"
)

// Definition is one declared stream.
type Definition struct {
	Name    string `yaml:"name"`
	Version int    `yaml:"version"`
}

// Registry holds the declared stream set. It is append-only at the version
// level: re-declaring a name with a different version is rejected, matching
// the schema registry's SchemaConflict semantics for the same reason
// (spec.md §3.1 — "a v1 schema's field semantics are frozen").
type Registry struct {
	mu    sync.RWMutex
	byName map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Definition)}
}

// Declare registers a stream name into the registry. It does not declare
// the stream's DLQ; callers declare DLQStream(name) separately.
func (r *Registry) Declare(name string) error {
	major, ok := envelope.SchemaMajor(name)
	if !ok {
		return fmt.Errorf("streams: %q is not a valid stream name", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byName[name]; ok {
		if existing.Version != major {
			return fmt.Errorf("streams: %q already declared at version %d, cannot redeclare at %d", name, existing.Version, major)
		}
		return nil
	}
	r.byName[name] = Definition{Name: name, Version: major}
	return nil
}

// Exists reports whether a stream has been declared.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// Names returns every declared stream name, stable-sorted is not guaranteed;
// callers that need determinism should sort.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	return out
}

// CoreStreams is the §6.1 stream registry: the producer/consumer wiring
// every stage-processor contract is defined against.
var CoreStreams = []string{
	"perception.market_data.collected.v1",
	"perception.heartbeat.v1",
	"variables.market.computed.v1",
	"variables.stock.computed.v1",
	"signals.opportunity.scored.v1",
	"signals.regime.detected.v1",
	"strategy.candidate_action.generated.v1",
	"risk.order.approved.v1",
	"risk.order.rejected.v1",
	"execution.order.executed.v1",
	"execution.order.failed.v1",
	"postmortem.trade_record.created.v1",
	"evolution.backtest.completed.v1",
	"evolution.parameter.proposed.v1",
}

// NewCoreRegistry returns a Registry pre-populated with CoreStreams and each
// of their DLQs.
func NewCoreRegistry() *Registry {
	r := NewRegistry()
	for _, name := range CoreStreams {
		_ = r.Declare(name)
		_ = r.Declare(envelope.DLQStream(name))
	}
	return r
}

// fileSpec is the shape of configs/streams.yaml.
type fileSpec struct {
	Streams []string `yaml:"streams"`
}

// LoadOverrides reads additional stream declarations from a yaml file (used
// to extend the registry for processor-specific streams beyond the core
// set) and declares them on r. A missing file is not an error.
func LoadOverrides(r *Registry, path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("streams: read %s: %w", path, err)
	}
	var spec fileSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return fmt.Errorf("streams: parse %s: %w", path, err)
	}
	for _, name := range spec.Streams {
		if err := r.Declare(name); err != nil {
			return err
		}
		if err := r.Declare(envelope.DLQStream(name)); err != nil {
			return err
		}
	}
	return nil
}
