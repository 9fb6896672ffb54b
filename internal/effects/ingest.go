package effects

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/vk/arcanebooks/internal/condition"
	"github.com/vk/arcanebooks/internal/modifier"
)

// entry is one staged line of effect text.
type entry struct {
	line int
	name string
	mods []modifier.Modifier
}

// stage parses every line of text without touching the registry. Blank
// lines and lines starting with '#' are ignored; lines without a top-level
// colon are reported as skipped. Lines have no length limit.
func stage(text string) (entries []entry, skipped, warnings []Issue) {
	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, body, ok := modifier.SplitEntry(line)
		if !ok {
			skipped = append(skipped, Issue{
				Level:   slog.LevelWarn,
				Line:    lineNo,
				Text:    line,
				Message: "line cannot be split into name and definitions",
			})
			continue
		}

		mods := modifier.ParseBody(body)
		for _, c := range checks(mods) {
			if err := condition.Validate(c); err != nil {
				warnings = append(warnings, Issue{
					Level:   slog.LevelWarn,
					Line:    lineNo,
					Text:    c,
					Message: "effect '" + name + "': " + err.Error(),
				})
			}
		}
		entries = append(entries, entry{line: lineNo, name: name, mods: mods})
	}
	return entries, skipped, warnings
}

// LoadFromString loads one effect per line. The text is parsed before the
// lock is taken. With replacing set the registry is cleared and reloaded in
// a single critical section, so readers never observe it half loaded.
// UpdateBacklog runs afterwards.
func (r *Registry) LoadFromString(text string, replacing bool) Report {
	entries, skipped, warnings := stage(text)
	report := Report{Skipped: skipped, Warnings: warnings}

	r.mu.Lock()
	prev := r.statusesLocked()
	if replacing {
		r.clearLocked()
	}
	r.loadEntriesLocked(entries, &report)
	removed := r.lostLocked(prev)
	r.mu.Unlock()

	r.notify(batchEvents(report.Compiled, removed))

	if moved := r.UpdateBacklog(); len(moved) > 0 {
		report.Compiled = sortedUnion(report.Compiled, moved)
		report.Backlogged = subtract(report.Backlogged, moved)
	}

	r.logReport("Loaded effects.", report)
	return report
}

// AddFromString merges effects into the registry. With replacing set,
// existing names are overwritten; otherwise they are kept and reported as
// skipped.
func (r *Registry) AddFromString(text string, replacing bool) Report {
	entries, skipped, warnings := stage(text)
	report := Report{Skipped: skipped, Warnings: warnings}

	r.mu.Lock()
	prev := r.statusesLocked()
	if !replacing {
		kept := entries[:0]
		for _, e := range entries {
			if prev[e.name] != StatusUnknown {
				report.Skipped = append(report.Skipped, Issue{
					Level:   slog.LevelWarn,
					Line:    e.line,
					Text:    e.name,
					Message: "effect already exists",
				})
				continue
			}
			kept = append(kept, e)
		}
		entries = kept
	}
	r.loadEntriesLocked(entries, &report)
	removed := r.lostLocked(prev)
	r.mu.Unlock()

	r.notify(batchEvents(report.Compiled, removed))

	r.logReport("Added effects.", report)
	return report
}

// loadEntriesLocked stores entries in order; a later line for the same name
// wins. It fills the sorted name lists of the report.
func (r *Registry) loadEntriesLocked(entries []entry, report *Report) {
	final := make(map[string]Status, len(entries))
	for _, e := range entries {
		status, _ := r.loadLocked(e.name, e.mods)
		final[e.name] = status
	}

	for _, name := range slices.Sorted(maps.Keys(final)) {
		switch final[name] {
		case StatusCompiled:
			report.Compiled = append(report.Compiled, name)
		case StatusBacklogged:
			report.Backlogged = append(report.Backlogged, name)
		}
	}
}

// statusesLocked snapshots the status of every known name.
func (r *Registry) statusesLocked() map[string]Status {
	out := make(map[string]Status, len(r.compiled)+len(r.backlog))
	for n := range r.backlog {
		out[n] = StatusBacklogged
	}
	for n := range r.compiled {
		out[n] = StatusCompiled
	}
	return out
}

// lostLocked returns the sorted names of prev that left the registry or
// lost their compiled effect since the snapshot.
func (r *Registry) lostLocked(prev map[string]Status) []string {
	var lost []string
	for name, was := range prev {
		now := r.statusLocked(name)
		if now == StatusUnknown || (was == StatusCompiled && now == StatusBacklogged) {
			lost = append(lost, name)
		}
	}
	slices.Sort(lost)
	return lost
}

func batchEvents(added, removed []string) []Event {
	var events []Event
	if len(removed) > 0 {
		events = append(events, Event{Kind: EventRemoved, Names: removed})
	}
	if len(added) > 0 {
		events = append(events, Event{Kind: EventAdded, Names: slices.Clone(added)})
	}
	return events
}

func (r *Registry) logReport(msg string, rep Report) {
	for _, is := range rep.Skipped {
		r.logger.Warn("Skipped effect line.", "line", is.Line, "reason", is.Message, "text", is.Text)
	}
	for _, is := range rep.Warnings {
		r.logger.Warn("Suspicious logical check.", "line", is.Line, "detail", is.Message)
	}
	r.logger.Debug(msg, "compiled", len(rep.Compiled), "backlogged", len(rep.Backlogged), "skipped", len(rep.Skipped))
}

// Serialize renders every entry as one "name: body" line: compiled effects
// sorted by name, then backlog entries sorted by name. Loading the output
// reproduces an equivalent registry.
func (r *Registry) Serialize() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range slices.Sorted(maps.Keys(r.compiled)) {
		sb.WriteString(r.compiled[name].String())
		sb.WriteByte('\n')
	}
	for _, name := range slices.Sorted(maps.Keys(r.backlog)) {
		sb.WriteString(FormatEntry(name, modifier.FormatBody(r.backlog[name])))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// subtract returns the sorted elements of a not present in b.
func subtract(a, b []string) []string {
	var out []string
	for _, s := range a {
		if !slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

func sortedUnion(a, b []string) []string {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
