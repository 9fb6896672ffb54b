package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/arcanebooks/internal/app"
	"github.com/vk/arcanebooks/internal/effectfile"
	"github.com/vk/arcanebooks/internal/effects"
	"github.com/vk/arcanebooks/internal/hcl"
)

func TestEffectsFile_CreatedFromConfiguredDefaults(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"config/defaults.hcl": `
			effect "Mend" {
				body = "Heal: 10"
			}
			effect "Call" {
				body = "Summon: wolf"
			}
		`,
	}

	// --- Act ---
	result := runIntegrationTest(t, files, app.Config{})

	// --- Assert ---
	require.NoError(t, result.Err)
	text, err := effectfile.Read(result.EffectsPath)
	require.NoError(t, err)
	assert.Contains(t, text, "Mend: Heal: 10\n", "configured defaults override the built-in ones by name")
	assert.Contains(t, text, "Fireball: Damage(fire): 6, BreakBlock: 1\n")
	assert.Contains(t, text, "Call: Summon: wolf\n")

	reg := result.App.Effects()
	assert.Equal(t, effects.StatusCompiled, reg.Status("Mend"))
	assert.Equal(t, effects.StatusBacklogged, reg.Status("Call"))
	assert.Equal(t, map[string][]string{"Call": {"Summon"}}, reg.Missing())
	assert.Contains(t, result.LogOutput, "Effect waits for definitions.")
}

func TestEffectsFile_ExistingFileIsKept(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"effects.txt": "# mine\nMend: Heal: 2\nthis line has no separator\n",
	}

	// --- Act ---
	result := runIntegrationTest(t, files, app.Config{})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"Mend"}, result.App.Effects().Names())
	assert.Contains(t, result.LogOutput, "line 3: line cannot be split into name and definitions")

	raw, err := os.ReadFile(result.EffectsPath)
	require.NoError(t, err)
	assert.Equal(t, "# mine\nMend: Heal: 2\nthis line has no separator\n", string(raw), "loading never rewrites the file")
}

func TestEffectsFile_UnreadablePathFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	result := runIntegrationTest(t, nil, app.Config{EffectsPath: dir})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to load effects")
	assert.Empty(t, result.App.Effects().Names())
}

func TestEffectsFile_PathFromConfig(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	root := t.TempDir()
	target := filepath.Join(root, "book", "spells.txt")
	cfgPath := filepath.Join(root, "app.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`effects_file = "`+filepath.ToSlash(target)+`"`), 0o644))

	// --- Act ---
	a := app.NewApp(&app.SafeBuffer{}, &app.Config{ConfigPaths: []string{cfgPath}}, hcl.NewLoader())
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, target, a.EffectsPath())
	_, err = os.Stat(target)
	assert.NoError(t, err, "the effects file is created where the config points")
}
