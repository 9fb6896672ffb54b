package testutil

import "github.com/vk/arcanebooks/internal/definition"

// SimpleModule is a test helper for registering a fixed set of definitions
// as one module.
type SimpleModule struct {
	Definitions []*definition.Definition
}

// Register implements the definition.Module interface.
func (m *SimpleModule) Register(r *definition.Registry) {
	for _, d := range m.Definitions {
		r.Register(d)
	}
}

// Stub returns a definition without input or handler, for tests that only
// need the name to resolve.
func Stub(name string) *definition.Definition {
	return &definition.Definition{Name: name}
}

// StubModule registers a Stub for every name.
func StubModule(names ...string) *SimpleModule {
	m := &SimpleModule{}
	for _, n := range names {
		m.Definitions = append(m.Definitions, Stub(n))
	}
	return m
}
