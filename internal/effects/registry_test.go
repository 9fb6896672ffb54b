package effects

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/internal/modifier"
)

func newDefs(names ...string) *definition.Registry {
	defs := definition.New()
	for _, n := range names {
		defs.Register(&definition.Definition{Name: n})
	}
	return defs
}

// recorder collects events delivered to a listener.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) take() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func TestLoad_CompilesImmediately(t *testing.T) {
	// --- Arrange ---
	reg := New(newDefs("Heal"), nil)

	// --- Act ---
	status := reg.Load("TestHeal", "Heal: 5")

	// --- Assert ---
	require.Equal(t, StatusCompiled, status)
	e, ok := reg.Get("TestHeal")
	require.True(t, ok)
	require.Len(t, e.Invocations, 1)

	inv := e.Invocations[0]
	assert.Equal(t, "Heal", inv.Name())
	v, ok := inv.ValueText()
	require.True(t, ok)
	assert.Equal(t, "5", v)
	assert.Equal(t, "TestHeal: Heal: 5", e.String())
}

func TestLoad_RejectsUnreadableNames(t *testing.T) {
	testCases := []struct {
		name     string
		expected Status
	}{
		{name: "Mend", expected: StatusCompiled},
		{name: "Fire Ball", expected: StatusCompiled},
		{name: "", expected: StatusUnknown},
		{name: "a:b", expected: StatusUnknown},
		{name: "#note", expected: StatusUnknown},
		{name: " padded", expected: StatusUnknown},
		{name: "two\nlines", expected: StatusUnknown},
		{name: "open(", expected: StatusUnknown},
		{name: `say "hi`, expected: StatusUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			reg := New(newDefs("Heal"), nil)
			rec := &recorder{}
			reg.Subscribe(rec.listen)

			// --- Act ---
			status := reg.Load(tc.name, "Heal: 1")

			// --- Assert ---
			assert.Equal(t, tc.expected, status)
			if tc.expected == StatusUnknown {
				assert.Empty(t, reg.Names())
				assert.Empty(t, rec.take())
				return
			}
			copyReg := New(newDefs("Heal"), nil)
			copyReg.LoadFromString(reg.Serialize(), true)
			assert.Equal(t, []string{tc.name}, copyReg.Names(), "the name reads back from the serialized text")
		})
	}
}

func TestLoad_BacklogThenUpdate(t *testing.T) {
	// --- Arrange ---
	defs := newDefs("Heal")
	reg := New(defs, nil)

	// --- Act ---
	status := reg.Load("Zapper", "Zap: 1")

	// --- Assert ---
	assert.Equal(t, StatusBacklogged, status)
	_, ok := reg.Get("Zapper")
	assert.False(t, ok, "backlogged effects are not returned")
	assert.Equal(t, []string{"Zapper"}, reg.Backlogged())
	assert.Equal(t, map[string][]string{"Zapper": {"Zap"}}, reg.Missing())

	// --- Act ---
	defs.Register(&definition.Definition{Name: "Zap"})
	moved := reg.UpdateBacklog()

	// --- Assert ---
	assert.Equal(t, []string{"Zapper"}, moved)
	e, ok := reg.Get("Zapper")
	require.True(t, ok)
	assert.Equal(t, "Zap", e.Invocations[0].Name())
	assert.Empty(t, reg.Backlogged())
	assert.Equal(t, StatusCompiled, reg.Status("Zapper"))
}

func TestLoad_AllOrNothing(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		missing []string
	}{
		{name: "second top-level reference unknown", body: "Heal: 1, Unknown: 2", missing: []string{"Unknown"}},
		{name: "nested reference unknown", body: "Heal(Unknown: 1)", missing: []string{"Unknown"}},
		{name: "reference inside a plain argument", body: "Heal(amount(Deep))", missing: []string{"Deep"}},
		{name: "several unknown names", body: "B: 1, A(B)", missing: []string{"A", "B"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg := New(newDefs("Heal"), nil)

			assert.Equal(t, StatusBacklogged, reg.Load("Partial", tc.body))
			_, ok := reg.Get("Partial")
			assert.False(t, ok)
			assert.Equal(t, tc.missing, reg.Missing()["Partial"])
			assert.Empty(t, reg.Effects())
		})
	}
}

func TestLoad_ReloadReplacesWholesale(t *testing.T) {
	reg := New(newDefs("Heal", "Damage"), nil)
	rec := &recorder{}
	reg.Subscribe(rec.listen)

	require.Equal(t, StatusCompiled, reg.Load("Spell", "Heal: 1"))
	require.Equal(t, StatusCompiled, reg.Load("Spell", "Damage: 2"))
	e, _ := reg.Get("Spell")
	assert.Equal(t, "Damage: 2", e.Body())

	require.Equal(t, StatusBacklogged, reg.Load("Spell", "Missing: 3"))
	assert.Equal(t, StatusBacklogged, reg.Status("Spell"))
	_, ok := reg.Get("Spell")
	assert.False(t, ok, "a name is never compiled and backlogged at once")

	assert.Equal(t, []Event{
		{Kind: EventAdded, Names: []string{"Spell"}},
		{Kind: EventAdded, Names: []string{"Spell"}},
		{Kind: EventRemoved, Names: []string{"Spell"}},
	}, rec.take())

	require.Equal(t, StatusCompiled, reg.Load("Spell", "Heal: 4"))
	assert.Empty(t, reg.Backlogged())
}

func TestUpdateBacklog_Events(t *testing.T) {
	defs := newDefs("Heal")
	reg := New(defs, nil)
	rec := &recorder{}
	reg.Subscribe(rec.listen)

	reg.Load("Later", "Zap: 1")
	assert.Empty(t, rec.take(), "backlogging a new name fires nothing")

	assert.Empty(t, reg.UpdateBacklog())
	assert.Equal(t, []Event{{Kind: EventBacklogCleared}}, rec.take(), "cleared fires even when nothing moved")

	defs.Register(&definition.Definition{Name: "Zap"})
	reg.UpdateBacklog()
	assert.Equal(t, []Event{
		{Kind: EventBacklogCleared},
		{Kind: EventAdded, Names: []string{"Later"}},
	}, rec.take())
}

func TestDeregisterAndClear(t *testing.T) {
	reg := New(newDefs("Heal"), nil)
	rec := &recorder{}
	unsubscribe := reg.Subscribe(rec.listen)

	reg.Load("A", "Heal: 1")
	reg.Load("B", "Zap: 1")
	reg.Load("C", "Heal: 2")
	rec.take()

	removed := reg.Deregister("B", "A", "Nope", "A")
	assert.Equal(t, []string{"A", "B"}, removed)
	assert.Equal(t, []Event{{Kind: EventRemoved, Names: []string{"A", "B"}}}, rec.take())

	assert.Empty(t, reg.Deregister("Nope"))
	assert.Empty(t, rec.take(), "nothing removed, nothing fired")

	assert.Equal(t, []string{"C"}, reg.Clear())
	assert.Equal(t, []Event{{Kind: EventRemoved, Names: []string{"C"}}}, rec.take())

	unsubscribe()
	reg.Load("D", "Heal: 1")
	assert.Empty(t, rec.take(), "unsubscribed listeners are not called")
}

func TestListeners_RunOutsideTheLock(t *testing.T) {
	reg := New(newDefs("Heal"), nil)

	var seen []string
	reg.Subscribe(func(ev Event) {
		// Reading from inside a listener would deadlock if the lock were held.
		for _, n := range ev.Names {
			if e, ok := reg.Get(n); ok {
				seen = append(seen, e.String())
			}
		}
	})

	reg.Load("A", "Heal: 1")
	assert.Equal(t, []string{"A: Heal: 1"}, seen)
}

func TestLoadFromString(t *testing.T) {
	// --- Arrange ---
	reg := New(newDefs("Heal", "Damage", "If"), nil)
	text := `
# comment lines and blank lines are ignored

TestHeal: Heal: 5
Combo: If[detected](Heal: 5, Damage: 3)
this line has no separator
Waiting: Summon(count: 2)
Odd: If[a &&](Heal: 1)
`

	// --- Act ---
	rep := reg.LoadFromString(text, false)

	// --- Assert ---
	assert.Equal(t, []string{"Combo", "Odd", "TestHeal"}, rep.Compiled)
	assert.Equal(t, []string{"Waiting"}, rep.Backlogged)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, 6, rep.Skipped[0].Line)
	assert.Equal(t, "this line has no separator", rep.Skipped[0].Text)
	require.Len(t, rep.Warnings, 1)
	assert.Equal(t, 8, rep.Warnings[0].Line)
	assert.Contains(t, rep.Warnings[0].Message, "effect 'Odd'")

	combo, ok := reg.Get("Combo")
	require.True(t, ok)
	require.Len(t, combo.Invocations, 1)
	ifInv := combo.Invocations[0]
	assert.Equal(t, []string{"detected"}, ifInv.LogicalChecks)
	require.Len(t, ifInv.SubModifiers, 2)
	for _, sub := range ifInv.SubModifiers {
		assert.Equal(t, modifier.KindInvocation, sub.Kind(), "nested references are realized too")
	}
}

func TestLoadFromString_Replacing(t *testing.T) {
	reg := New(newDefs("Heal"), nil)
	reg.LoadFromString("Old: Heal: 1\nKept: Heal: 2\nStuck: Nope: 1", false)

	rec := &recorder{}
	reg.Subscribe(rec.listen)

	rep := reg.LoadFromString("Kept: Heal: 3\nNew: Heal: 4", true)

	assert.Equal(t, []string{"Kept", "New"}, rep.Compiled)
	assert.Equal(t, []string{"Kept", "New"}, reg.Names())
	e, _ := reg.Get("Kept")
	assert.Equal(t, "Heal: 3", e.Body())

	assert.Equal(t, []Event{
		{Kind: EventRemoved, Names: []string{"Old", "Stuck"}},
		{Kind: EventAdded, Names: []string{"Kept", "New"}},
		{Kind: EventBacklogCleared},
	}, rec.take())
}

func TestLoadFromString_LaterLineWins(t *testing.T) {
	reg := New(newDefs("Heal"), nil)

	rep := reg.LoadFromString("A: Nope: 1\nA: Heal: 2", false)

	assert.Equal(t, []string{"A"}, rep.Compiled)
	assert.Empty(t, rep.Backlogged)
	assert.Empty(t, reg.Backlogged())
}

func TestAddFromString(t *testing.T) {
	testCases := []struct {
		name      string
		replacing bool
		wantBody  string
		skipped   int
		compiled  []string
	}{
		{name: "keeps existing names", replacing: false, wantBody: "Heal: 1", skipped: 1, compiled: []string{"B"}},
		{name: "overwrites existing names", replacing: true, wantBody: "Heal: 9", skipped: 0, compiled: []string{"A", "B"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg := New(newDefs("Heal"), nil)
			reg.Load("A", "Heal: 1")

			rep := reg.AddFromString("A: Heal: 9\nB: Heal: 2", tc.replacing)

			assert.Len(t, rep.Skipped, tc.skipped)
			assert.Equal(t, tc.compiled, rep.Compiled)
			e, ok := reg.Get("A")
			require.True(t, ok)
			assert.Equal(t, tc.wantBody, e.Body())
			assert.Equal(t, StatusCompiled, reg.Status("B"))
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	// --- Arrange ---
	reg := New(newDefs("Heal", "Damage", "If", "Message"), nil)
	reg.LoadFromString(`
Zeta: Heal: 5
Alpha: If[a && (b || !%c)](Damage(fire, 2): 3, Message: "hello, world")
Waiting: Summon(Heal: 1)
Empty:
Escaped: Message: a\, b
`, false)

	// --- Act ---
	out := reg.Serialize()
	copyReg := New(newDefs("Heal", "Damage", "If", "Message"), nil)
	rep := copyReg.LoadFromString(out, true)

	// --- Assert ---
	assert.Equal(t, "Alpha: If[a && (b || !%c)](Damage(fire, 2): 3, Message: \"hello, world\")\n"+
		"Empty:\n"+
		"Escaped: \"Message: a, b\"\n"+
		"Zeta: Heal: 5\n"+
		"Waiting: Summon(Heal: 1)\n", out, "compiled entries first, then the backlog, each sorted")
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, out, copyReg.Serialize())
	assert.Equal(t, reg.Names(), copyReg.Names())
	assert.Equal(t, reg.Backlogged(), copyReg.Backlogged())
}

func TestLoadFromString_LongLine(t *testing.T) {
	// --- Arrange ---
	reg := New(newDefs("Heal", "Message"), nil)
	reg.Load("Old", "Heal: 1")
	long := strings.Repeat("x", 2<<20)
	text := "A: Heal: 1\nBig: Message: " + long + "\nC: Heal: 2\n"

	// --- Act ---
	rep := reg.LoadFromString(text, true)

	// --- Assert ---
	assert.Empty(t, rep.Skipped)
	assert.Equal(t, []string{"A", "Big", "C"}, rep.Compiled)
	assert.Equal(t, []string{"A", "Big", "C"}, reg.Names())
	body, ok := reg.Body("Big")
	require.True(t, ok)
	assert.Len(t, body, len("Message: ")+len(long))
}

func TestSerialize_StableWithStrayBrackets(t *testing.T) {
	testCases := []struct {
		name     string
		body     string
		argument string
	}{
		{name: "escaped closer", body: `Heal(\))`, argument: ")"},
		{name: "open apostrophe", body: `Heal(x: it's)`, argument: "x: it's)"},
		{name: "inner quote", body: `Heal("a""b")`, argument: `a"b`},
		{name: "open double quote", body: `Heal(x: "q)`, argument: `x: "q)`},
		{name: "top-level apostrophe", body: `Message: it's`, argument: "it's"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			reg := New(newDefs("Heal", "Message"), nil)
			require.Equal(t, StatusCompiled, reg.Load("E", tc.body))
			first := reg.Serialize()

			// --- Act ---
			out := first
			for range 3 {
				rep := reg.LoadFromString(out, true)
				require.Empty(t, rep.Skipped)
				out = reg.Serialize()
			}

			// --- Assert ---
			assert.Equal(t, first, out, "rendering must not drift across reloads")
			e, ok := reg.Get("E")
			require.True(t, ok)
			require.Len(t, e.Invocations, 1)
			subs := e.Invocations[0].Components().SubModifiers
			require.NotEmpty(t, subs)
			assert.Equal(t, tc.argument, subs[0].String())
		})
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := New(newDefs("Heal"), nil)
	var wg sync.WaitGroup
	numGoroutines := 100

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("E%d", i%10)
			switch i % 5 {
			case 0:
				reg.Load(name, "Heal: 1")
			case 1:
				reg.Load(name, "Zap: 1")
			case 2:
				_, _ = reg.Get(name)
			case 3:
				_ = reg.Serialize()
			case 4:
				reg.UpdateBacklog()
			}
		}(i)
	}
	wg.Wait()

	for _, name := range reg.Names() {
		s := reg.Status(name)
		assert.Contains(t, []Status{StatusCompiled, StatusBacklogged}, s)
	}
	compiled, backlogged := reg.Len()
	assert.Equal(t, len(reg.Names()), compiled+backlogged, "no name is in both maps")
}
