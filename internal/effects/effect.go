// Package effects compiles spell-effect text into executable effects.
//
// Every effect name is in one of two states. An effect is Compiled when
// every definition reference in its text, at any depth, resolved against the
// definition registry. Otherwise the whole parsed tree waits in the backlog
// until UpdateBacklog finds all of its definitions. A name is never in both
// states at once.
package effects

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk/arcanebooks/internal/modifier"
)

// Status is the compile state of an effect name.
type Status int

const (
	// StatusUnknown means the name is neither compiled nor backlogged.
	StatusUnknown Status = iota
	StatusBacklogged
	StatusCompiled
)

func (s Status) String() string {
	switch s {
	case StatusBacklogged:
		return "backlogged"
	case StatusCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// Effect is a compiled spell effect. It is never mutated; reloading a name
// replaces the whole value.
type Effect struct {
	Name        string
	Invocations []modifier.Invocation
}

// Body renders the invocations in canonical form.
func (e Effect) Body() string {
	mods := make([]modifier.Modifier, len(e.Invocations))
	for i, inv := range e.Invocations {
		mods[i] = inv
	}
	return modifier.FormatBody(mods)
}

// String renders the effect as one line of an effects file.
func (e Effect) String() string {
	return FormatEntry(e.Name, e.Body())
}

// FormatEntry renders one "name: body" line of an effects file. An empty
// body renders as "name:".
func FormatEntry(name, body string) string {
	if body == "" {
		return name + ":"
	}
	return name + ": " + body
}

// ValidName reports whether name reads back unchanged from an effects file
// line: it must be non-empty, trimmed, on one line, not start with '#' and
// hold no colon outside brackets or quotes.
func ValidName(name string) bool {
	if name == "" || strings.TrimSpace(name) != name || strings.HasPrefix(name, "#") || strings.ContainsAny(name, "\r\n") {
		return false
	}
	got, body, ok := modifier.SplitEntry(FormatEntry(name, "x"))
	return ok && got == name && body == "x"
}

// EventKind identifies a registry notification.
type EventKind int

const (
	// EventAdded lists names that became compiled.
	EventAdded EventKind = iota
	// EventRemoved lists names that left the registry or lost their
	// compiled effect.
	EventRemoved
	// EventBacklogCleared fires once per UpdateBacklog call.
	EventBacklogCleared
)

func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventBacklogCleared:
		return "backlog_cleared"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners after the registry lock is released.
type Event struct {
	Kind  EventKind
	Names []string
}

// Listener receives registry events.
type Listener func(Event)

// Issue describes a problem found while ingesting text.
type Issue struct {
	Level   slog.Level
	Line    int // 1-based; 0 when not tied to a line
	Text    string
	Message string
}

func (i Issue) String() string {
	msg := i.Message
	if i.Text != "" {
		msg += ": " + i.Text
	}
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s", i.Line, msg)
	}
	return msg
}

// Report summarises one ingestion call.
type Report struct {
	Compiled   []string // Names compiled, including backlog entries that moved
	Backlogged []string // Names left waiting for definitions
	Skipped    []Issue  // Lines that were not loaded
	Warnings   []Issue  // Loaded entries with suspicious content
}
