package integration_tests

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/arcanebooks/internal/admin"
	"github.com/vk/arcanebooks/internal/app"
	"github.com/vk/arcanebooks/internal/replica"
)

func TestAdminAPI_EditsTheLiveRegistry(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	result := runIntegrationTest(t, map[string]string{"effects.txt": "Mend: Heal: 1\n"}, app.Config{})
	require.NoError(t, result.Err)
	a := result.App
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(admin.New(a.Effects(), a.Definitions(), a.Runes(), logger).Handler())
	defer srv.Close()

	// --- Act ---
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/effects", strings.NewReader("Burn: Damage(fire): 2\nCall: Summon"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/effects/Burn")
	require.NoError(t, err)
	defer resp.Body.Close()

	// --- Assert ---
	var view struct {
		Name   string `json:"name"`
		Status string `json:"status"`
		Body   string `json:"body"`
		Rune   string `json:"rune"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "compiled", view.Status)
	assert.Equal(t, "Damage(fire): 2", view.Body)

	d, ok := a.Runes().Get("Burn")
	require.True(t, ok, "new compiled effects receive a rune")
	assert.Equal(t, d.Key(), view.Rune)

	_, ok = a.Runes().Get("Mend")
	assert.False(t, ok, "replaced effects release their rune")
	_, ok = a.Runes().Get("Call")
	assert.False(t, ok)
}

func TestReplica_AppliesPeerSnapshots(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	result := runIntegrationTest(t, map[string]string{"effects.txt": "Mend: Heal: 1\n"}, app.Config{})
	require.NoError(t, result.Err)
	a := result.App

	var mu sync.Mutex
	var published []string
	emit := func(event string, args ...any) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, event)
		return nil
	}
	rep := replica.New(a.Effects(), emit, slog.New(slog.NewTextHandler(io.Discard, nil)))
	stop := rep.Watch()
	defer stop()

	// --- Act ---
	require.NoError(t, rep.Handle(replica.EventAdd, "Ward: GivePotionEffect: resistance"))
	a.Effects().Load("Local", "Heal: 2")

	// --- Assert ---
	assert.Equal(t, []string{"Local", "Mend", "Ward"}, a.Effects().Names())
	_, ok := a.Runes().Get("Ward")
	assert.True(t, ok, "peer effects receive runes too")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{replica.EventSnapshot}, published, "only the local change is published")
}
