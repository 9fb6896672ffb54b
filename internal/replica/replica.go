// Package replica keeps an effect registry in step with peers over
// socket.io.
//
// Peers send whole effect texts. "effects:replace" swaps the local registry
// for the payload, "effects:add" merges it and "effects:request" asks for a
// snapshot. Every local change is published as "effects:snapshot" carrying
// the serialized registry. Changes applied from a remote payload are not
// published back; a local change that lands while a payload is applied is
// published once the payload is in.
package replica

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vk/arcanebooks/internal/effects"
)

// Event names exchanged with peers.
const (
	EventReplace  = "effects:replace"
	EventAdd      = "effects:add"
	EventRequest  = "effects:request"
	EventSnapshot = "effects:snapshot"
)

// Store is the part of effects.Registry the replica drives.
type Store interface {
	LoadFromString(text string, replacing bool) effects.Report
	AddFromString(text string, replacing bool) effects.Report
	Serialize() string
	Subscribe(l effects.Listener) (unsubscribe func())
}

// EmitFunc sends an event to peers.
type EmitFunc func(event string, args ...any) error

// Replica dispatches peer events to a Store and publishes local changes.
type Replica struct {
	store  Store
	emit   EmitFunc
	logger *slog.Logger

	applyMu sync.Mutex // serializes peer payloads

	mu       sync.Mutex
	applying bool
	seen     []effects.Event // observed while a peer payload is applied
}

// New creates a Replica that publishes through emit.
func New(store Store, emit EmitFunc, logger *slog.Logger) *Replica {
	if logger == nil {
		logger = slog.Default()
	}
	return &Replica{store: store, emit: emit, logger: logger.With("component", "replica")}
}

// Handle applies one peer event. Unknown events are ignored.
func (r *Replica) Handle(event string, args ...any) error {
	switch event {
	case EventReplace, EventAdd:
		text, err := payload(args)
		if err != nil {
			return fmt.Errorf("%s: %w", event, err)
		}

		r.applyMu.Lock()
		r.setApplying(true)
		var rep effects.Report
		if event == EventReplace {
			rep = r.store.LoadFromString(text, true)
		} else {
			rep = r.store.AddFromString(text, true)
		}
		seen := r.setApplying(false)
		r.applyMu.Unlock()

		r.logger.Info("Applied peer effects.", "event", event, "compiled", len(rep.Compiled), "backlogged", len(rep.Backlogged), "skipped", len(rep.Skipped))
		if local := unexplained(seen, rep, event == EventReplace); len(local) > 0 {
			r.logger.Debug("Local change during peer payload.", "effects", local)
			return r.Publish()
		}
		return nil
	case EventRequest:
		return r.Publish()
	default:
		r.logger.Debug("Ignoring event.", "event", event)
		return nil
	}
}

// Publish sends the serialized registry to peers.
func (r *Replica) Publish() error {
	if err := r.emit(EventSnapshot, r.store.Serialize()); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	r.logger.Debug("Published snapshot.")
	return nil
}

// Watch publishes a snapshot whenever effects are added to or removed from
// the store by anything other than a peer payload. The returned function
// stops watching.
func (r *Replica) Watch() (stop func()) {
	return r.store.Subscribe(func(ev effects.Event) {
		if ev.Kind == effects.EventBacklogCleared || r.hold(ev) {
			return
		}
		if err := r.Publish(); err != nil {
			r.logger.Warn("Failed to publish local change.", "error", err)
		}
	})
}

// setApplying opens or closes the window in which store events are held
// back. Closing it returns the events held.
func (r *Replica) setApplying(on bool) []effects.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := r.seen
	r.applying, r.seen = on, nil
	return seen
}

// hold keeps ev for the running peer payload. It reports false when no
// payload is being applied.
func (r *Replica) hold(ev effects.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.applying {
		return false
	}
	r.seen = append(r.seen, ev)
	return true
}

// unexplained returns the names in events that the report of a peer payload
// does not account for. A replacing payload accounts for every removal of a
// name it did not compile.
func unexplained(events []effects.Event, rep effects.Report, replacing bool) []string {
	var out []string
	for _, ev := range events {
		for _, name := range ev.Names {
			compiled := slices.Contains(rep.Compiled, name)
			switch ev.Kind {
			case effects.EventAdded:
				if !compiled {
					out = append(out, name)
				}
			case effects.EventRemoved:
				if replacing && !compiled {
					continue
				}
				if !slices.Contains(rep.Backlogged, name) {
					out = append(out, name)
				}
			}
		}
	}
	return out
}

// payload extracts the effect text carried by a peer event.
func payload(args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("missing payload")
	}
	switch v := args[0].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return text, nil
		}
		return "", fmt.Errorf("payload object has no string 'text' field")
	default:
		return "", fmt.Errorf("unsupported payload type %T", args[0])
	}
}
