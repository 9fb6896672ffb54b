package admin

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/runes"
	"github.com/vk/arcanebooks/internal/testutil"
	"github.com/vk/arcanebooks/modules/vitals"
)

// staticRunes is a RuneLookup over a fixed map.
type staticRunes map[string]runes.Design

func (s staticRunes) Get(identity string) (runes.Design, bool) {
	d, ok := s[identity]
	return d, ok
}

func setup(t *testing.T) (*effects.Registry, http.Handler) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	defs := definition.New()
	defs.RegisterModules(&vitals.Module{}, testutil.StubModule("If"))
	reg := effects.New(defs, logger)
	reg.LoadFromString("Mend: Heal: 2\nWait: Summon(Heal: 1)", true)

	d, err := runes.NewBuilder(runes.NewDomain(2, 2)).AddLine(runes.L(0, 0, 1, 1), runes.FlavourDefault).Make()
	require.NoError(t, err)

	return reg, New(reg, defs, staticRunes{"Mend": d}, logger).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, h := setup(t)

	rec := do(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestGetEffects(t *testing.T) {
	_, h := setup(t)

	rec := do(t, h, http.MethodGet, "/effects", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mend: Heal: 2\nWait: Summon(Heal: 1)\n", rec.Body.String())
}

func TestGetEffect(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		code     int
		expected effectView
	}{
		{
			name:     "compiled with rune",
			target:   "/effects/Mend",
			code:     http.StatusOK,
			expected: effectView{Name: "Mend", Status: "compiled", Body: "Heal: 2", Rune: "0:(0,0)-(1,1)"},
		},
		{
			name:     "backlogged lists missing definitions",
			target:   "/effects/Wait",
			code:     http.StatusOK,
			expected: effectView{Name: "Wait", Status: "backlogged", Body: "Summon(Heal: 1)", Missing: []string{"Summon"}},
		},
		{name: "unknown", target: "/effects/Nope", code: http.StatusNotFound},
	}

	_, h := setup(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tc.target, "")

			require.Equal(t, tc.code, rec.Code)
			if tc.code != http.StatusOK {
				return
			}
			var got effectView
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestReplaceEffects(t *testing.T) {
	// --- Arrange ---
	reg, h := setup(t)

	// --- Act ---
	rec := do(t, h, http.MethodPut, "/effects", "Burn: Damage(fire): 3\nno colon here\n")

	// --- Assert ---
	require.Equal(t, http.StatusOK, rec.Code)
	var got reportView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, []string{"Burn"}, got.Compiled)
	assert.Empty(t, got.Backlogged)
	require.Len(t, got.Skipped, 1)
	assert.Contains(t, got.Skipped[0], "line 2")
	assert.Equal(t, []string{"Burn"}, reg.Names())
}

func TestAddEffects(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		code     int
		expected string
	}{
		{
			name:     "keeps existing names by default",
			target:   "/effects",
			code:     http.StatusOK,
			expected: "Burn: Damage: 1\nMend: Heal: 2\nWait: Summon(Heal: 1)\n",
		},
		{
			name:     "replace overwrites",
			target:   "/effects?replace=true",
			code:     http.StatusOK,
			expected: "Burn: Damage: 1\nMend: Heal: 9\nWait: Summon(Heal: 1)\n",
		},
		{
			name:     "invalid flag",
			target:   "/effects?replace=maybe",
			code:     http.StatusBadRequest,
			expected: "Mend: Heal: 2\nWait: Summon(Heal: 1)\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg, h := setup(t)

			rec := do(t, h, http.MethodPost, tc.target, "Mend: Heal: 9\nBurn: Damage: 1")

			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.expected, reg.Serialize())
		})
	}
}

func TestDeleteEffect(t *testing.T) {
	reg, h := setup(t)

	rec := do(t, h, http.MethodDelete, "/effects/Wait", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, reg.Backlogged())

	rec = do(t, h, http.MethodDelete, "/effects/Wait", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBacklog(t *testing.T) {
	// --- Arrange ---
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	defs := definition.New()
	reg := effects.New(defs, logger)
	reg.LoadFromString("Mend: Heal: 2", true)
	h := New(reg, defs, nil, logger).Handler()
	defs.RegisterModules(&vitals.Module{})

	// --- Act ---
	rec := do(t, h, http.MethodPost, "/backlog", "")

	// --- Assert ---
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"compiled":["Mend"],"backlogged":[]}`, rec.Body.String())
	assert.Equal(t, effects.StatusCompiled, reg.Status("Mend"))
}

func TestGetDefinitions(t *testing.T) {
	_, h := setup(t)

	rec := do(t, h, http.MethodGet, "/definitions", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []definitionView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	names := make([]string, len(got))
	for i, d := range got {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"Damage", "Heal", "If"}, names)
	assert.Equal(t, []inputView{
		{Name: "fire", Type: "bool", Optional: true},
		{Name: "value", Type: "number", Optional: true},
	}, got[0].Inputs)
	assert.Empty(t, got[2].Inputs)
}

func TestMethodNotAllowed(t *testing.T) {
	_, h := setup(t)

	rec := do(t, h, http.MethodPatch, "/effects", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
