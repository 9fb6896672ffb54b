// Package testutil holds shared helpers for tests across packages.
package testutil

import (
	"context"
	"fmt"
	"sync"
)

// RecordingWorld is a cast.World that records every action it is asked to
// perform. Detect succeeds for the names in Present.
type RecordingWorld struct {
	Present map[string]bool
	// FailOn makes the named action return an error.
	FailOn string

	mu      sync.Mutex
	actions []string
}

// Actions returns the recorded actions in call order.
func (w *RecordingWorld) Actions() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.actions...)
}

func (w *RecordingWorld) record(action, format string, args ...any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actions = append(w.actions, action+" "+fmt.Sprintf(format, args...))
	if w.FailOn == action {
		return fmt.Errorf("%s failed", action)
	}
	return nil
}

func (w *RecordingWorld) Heal(_ context.Context, amount float64) error {
	return w.record("Heal", "%g", amount)
}

func (w *RecordingWorld) Damage(_ context.Context, amount float64, fire bool) error {
	return w.record("Damage", "%g fire=%t", amount, fire)
}

func (w *RecordingWorld) BreakBlock(_ context.Context, radius float64, drop bool) error {
	return w.record("BreakBlock", "%g drop=%t", radius, drop)
}

func (w *RecordingWorld) GivePotionEffect(_ context.Context, effect string, duration, amplifier int) error {
	return w.record("GivePotionEffect", "%s %d %d", effect, duration, amplifier)
}

func (w *RecordingWorld) Detect(_ context.Context, what string, reach float64) (bool, error) {
	err := w.record("Detect", "%s %g", what, reach)
	return w.Present[what], err
}
