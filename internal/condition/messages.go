package condition

import (
	"slices"
	"strings"
	"sync"
)

// Messages is a concurrency-safe bag of named messages. Names are
// case-insensitive; they are stored upper-cased.
type Messages struct {
	mu  sync.RWMutex
	all map[string]string
}

// NewMessages returns an empty bag, optionally pre-populated with names
// carrying empty values.
func NewMessages(names ...string) *Messages {
	m := &Messages{all: make(map[string]string, len(names))}
	for _, n := range names {
		m.all[strings.ToUpper(n)] = ""
	}
	return m
}

// Set stores a message, replacing any previous value.
func (m *Messages) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.all == nil {
		m.all = make(map[string]string)
	}
	m.all[strings.ToUpper(name)] = value
}

// Unset removes a message. It reports whether the message was present.
func (m *Messages) Unset(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToUpper(name)
	_, ok := m.all[key]
	delete(m.all, key)
	return ok
}

// Has reports whether a message is present.
func (m *Messages) Has(name string) bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.all[strings.ToUpper(name)]
	return ok
}

// Get returns the value of a message.
func (m *Messages) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.all[strings.ToUpper(name)]
	return v, ok
}

// Names returns the sorted upper-cased names of all messages.
func (m *Messages) Names() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	names := make([]string, 0, len(m.all))
	for n := range m.all {
		names = append(names, n)
	}
	m.mu.RUnlock()
	slices.Sort(names)
	return names
}

// Scoped pairs the message bag of the current phrase with the bag of the
// whole spell cast.
type Scoped struct {
	Phrase *Messages
	Spell  *Messages
}

// Lookup resolves name in the bag selected by scope. A nil bag holds nothing.
func (s Scoped) Lookup(name string, scope Scope) bool {
	if scope == Global {
		return s.Spell.Has(name)
	}
	return s.Phrase.Has(name)
}

// Evaluate evaluates expr against both bags.
func (s Scoped) Evaluate(expr string) bool {
	return Evaluate(expr, s.Lookup)
}
