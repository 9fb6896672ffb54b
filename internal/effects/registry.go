package effects

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/vk/arcanebooks/internal/modifier"
)

// Resolver looks up definitions by exact name.
type Resolver interface {
	Resolve(name string) (modifier.Handle, bool)
}

// Registry holds compiled effects and the backlog. One RWMutex guards both
// maps; writers hold it for their whole critical section and listeners run
// after it is released.
type Registry struct {
	defs   Resolver
	logger *slog.Logger

	mu       sync.RWMutex
	compiled map[string]Effect
	backlog  map[string][]modifier.Modifier

	lmu       sync.Mutex
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// New creates an empty Registry resolving definitions through defs. A nil
// logger means slog.Default().
func New(defs Resolver, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		defs:     defs,
		logger:   logger,
		compiled: make(map[string]Effect),
		backlog:  make(map[string][]modifier.Modifier),
	}
}

// Subscribe registers a listener and returns a function that removes it.
func (r *Registry) Subscribe(l Listener) (unsubscribe func()) {
	r.lmu.Lock()
	defer r.lmu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners = append(r.listeners, subscription{id: id, fn: l})

	return func() {
		r.lmu.Lock()
		defer r.lmu.Unlock()
		r.listeners = slices.DeleteFunc(r.listeners, func(s subscription) bool { return s.id == id })
	}
}

// notify delivers events in order. It must be called without r.mu held.
func (r *Registry) notify(events []Event) {
	if len(events) == 0 {
		return
	}
	r.lmu.Lock()
	ls := slices.Clone(r.listeners)
	r.lmu.Unlock()

	for _, ev := range events {
		for _, s := range ls {
			s.fn(ev)
		}
	}
}

// Load parses raw as the body of effect name and stores it as compiled when
// every definition resolves, or backlogs the whole tree otherwise. A
// previously compiled effect of the same name is replaced either way. A name
// that ValidName rejects is not stored and StatusUnknown is returned.
func (r *Registry) Load(name, raw string) Status {
	if !ValidName(name) {
		r.logger.Warn("Rejected effect name.", "effect", name)
		return StatusUnknown
	}
	mods := modifier.ParseBody(raw)

	r.mu.Lock()
	status, events := r.loadLocked(name, mods)
	r.mu.Unlock()

	r.notify(events)
	return status
}

// loadLocked stores one parsed entry. It returns the resulting status and the
// events to deliver once the lock is released.
func (r *Registry) loadLocked(name string, mods []modifier.Modifier) (Status, []Event) {
	if invs, ok := realizeAll(r.defs, mods); ok {
		delete(r.backlog, name)
		r.compiled[name] = Effect{Name: name, Invocations: invs}
		r.logger.Debug("Compiled effect.", "effect", name, "invocations", len(invs))
		return StatusCompiled, []Event{{Kind: EventAdded, Names: []string{name}}}
	}

	var events []Event
	if _, was := r.compiled[name]; was {
		delete(r.compiled, name)
		events = append(events, Event{Kind: EventRemoved, Names: []string{name}})
	}
	r.backlog[name] = mods
	r.logger.Debug("Backlogged effect.", "effect", name, "missing", missingNames(r.defs, mods))
	return StatusBacklogged, events
}

// UpdateBacklog re-attempts every backlog entry and returns the sorted
// names that compiled. EventBacklogCleared fires once per call and
// EventAdded fires when at least one entry moved.
func (r *Registry) UpdateBacklog() []string {
	r.mu.Lock()
	moved := r.updateBacklogLocked()
	events := []Event{{Kind: EventBacklogCleared}}
	if len(moved) > 0 {
		events = append(events, Event{Kind: EventAdded, Names: moved})
	}
	remaining := len(r.backlog)
	r.mu.Unlock()

	r.logger.Debug("Backlog updated.", "compiled", len(moved), "remaining", remaining)
	r.notify(events)
	return moved
}

func (r *Registry) updateBacklogLocked() []string {
	var moved []string
	for _, name := range slices.Sorted(maps.Keys(r.backlog)) {
		invs, ok := realizeAll(r.defs, r.backlog[name])
		if !ok {
			continue
		}
		delete(r.backlog, name)
		r.compiled[name] = Effect{Name: name, Invocations: invs}
		moved = append(moved, name)
	}
	return moved
}

// Deregister removes names from both maps and returns the sorted subset
// that was present. EventRemoved fires when that subset is not empty.
func (r *Registry) Deregister(names ...string) []string {
	r.mu.Lock()
	var removed []string
	for _, name := range names {
		_, inCompiled := r.compiled[name]
		_, inBacklog := r.backlog[name]
		if !inCompiled && !inBacklog {
			continue
		}
		delete(r.compiled, name)
		delete(r.backlog, name)
		removed = append(removed, name)
	}
	slices.Sort(removed)
	removed = slices.Compact(removed)
	r.mu.Unlock()

	if len(removed) > 0 {
		r.notify([]Event{{Kind: EventRemoved, Names: removed}})
	}
	return removed
}

// Clear removes every effect and returns the sorted removed names.
func (r *Registry) Clear() []string {
	r.mu.Lock()
	removed := r.clearLocked()
	r.mu.Unlock()

	if len(removed) > 0 {
		r.notify([]Event{{Kind: EventRemoved, Names: removed}})
	}
	return removed
}

func (r *Registry) clearLocked() []string {
	removed := r.namesLocked()
	clear(r.compiled)
	clear(r.backlog)
	return removed
}

// namesLocked returns every known name, sorted.
func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.compiled)+len(r.backlog))
	for n := range r.compiled {
		names = append(names, n)
	}
	for n := range r.backlog {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Get returns the compiled effect name. Backlogged effects are not
// returned.
func (r *Registry) Get(name string) (Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.compiled[name]
	if !ok {
		return Effect{}, false
	}
	return Effect{Name: e.Name, Invocations: slices.Clone(e.Invocations)}, true
}

// Effects returns copies of all compiled effects sorted by name.
func (r *Registry) Effects() []Effect {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Effect, 0, len(r.compiled))
	for _, name := range slices.Sorted(maps.Keys(r.compiled)) {
		e := r.compiled[name]
		out = append(out, Effect{Name: e.Name, Invocations: slices.Clone(e.Invocations)})
	}
	return out
}

// Names returns every compiled or backlogged name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

// Backlogged returns the sorted names waiting for definitions.
func (r *Registry) Backlogged() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.backlog))
}

// Missing returns, per backlog entry, the sorted definition names that do
// not resolve yet.
func (r *Registry) Missing() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.backlog))
	for name, mods := range r.backlog {
		out[name] = missingNames(r.defs, mods)
	}
	return out
}

// Status reports the state of name.
func (r *Registry) Status(name string) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statusLocked(name)
}

func (r *Registry) statusLocked(name string) Status {
	if _, ok := r.compiled[name]; ok {
		return StatusCompiled
	}
	if _, ok := r.backlog[name]; ok {
		return StatusBacklogged
	}
	return StatusUnknown
}

// Body returns the canonical body text of name in either state.
func (r *Registry) Body(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.compiled[name]; ok {
		return e.Body(), true
	}
	if mods, ok := r.backlog[name]; ok {
		return modifier.FormatBody(mods), true
	}
	return "", false
}

// Len returns the number of compiled and backlogged effects.
func (r *Registry) Len() (compiled, backlogged int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.compiled), len(r.backlog)
}
