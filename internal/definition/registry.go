// Package definition holds the built-in behaviors that spell effects invoke.
//
// A Definition pairs a name, the Go callback that implements it and an
// optional manifest describing its inputs. Definitions are registered once
// during startup; afterwards the registry is only read, concurrently, by the
// effect compiler and the cast runtime.
package definition

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"github.com/vk/arcanebooks/internal/config"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/modifier"
)

// Module is the interface that all built-in modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Definition is a named built-in behavior.
type Definition struct {
	Name        string
	Description string

	// NewInput returns a pointer to a fresh input struct. It is nil when the
	// definition takes no decoded input.
	NewInput  func() any
	InputType reflect.Type

	// Fn is the host callback. Its concrete signature is owned by the
	// runtime that executes invocations.
	Fn any

	// Manifest describes the accepted inputs. When nil, one is implied from
	// InputType.
	Manifest *config.DefinitionManifest
}

// DefinitionName implements modifier.Handle.
func (d *Definition) DefinitionName() string { return d.Name }

// Registry maps definition names to definitions. Lookups are exact and
// case-sensitive.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. It panics on an empty or duplicate name,
// both of which are programmer errors.
func (r *Registry) Register(def *Definition) {
	if def == nil || def.Name == "" {
		panic("definition must have a non-empty name")
	}
	if def.NewInput != nil && def.InputType == nil {
		def.InputType = reflect.TypeOf(def.NewInput()).Elem()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("definition with name '%s' already registered", def.Name))
	}
	slog.Debug("Registering definition.", "name", def.Name)
	r.defs[def.Name] = def
}

// RegisterModules registers every module in order.
func (r *Registry) RegisterModules(mods ...Module) {
	for _, m := range mods {
		m.Register(r)
	}
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	return d, ok
}

// Resolve returns the handle an invocation of name binds to.
func (r *Registry) Resolve(name string) (modifier.Handle, bool) {
	d, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	return d, true
}

// Names returns the sorted names of all registered definitions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// ApplyManifests attaches loaded manifests to their definitions. Manifests
// for names that have no Go definition are logged and ignored.
func (r *Registry) ApplyManifests(ctx context.Context, manifests map[string]*config.DefinitionManifest) {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, m := range manifests {
		def, ok := r.defs[name]
		if !ok {
			logger.Warn("Manifest declares a definition that has no Go implementation.", "definition", name)
			continue
		}
		def.Manifest = m
		if m.Description != "" {
			def.Description = m.Description
		}
		logger.Debug("Applied definition manifest.", "definition", name, "inputs", len(m.Inputs))
	}
}
