package integration_tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/arcanebooks/internal/app"
	"github.com/vk/arcanebooks/internal/definition"
	"github.com/vk/arcanebooks/internal/hcl"
)

// harnessResult holds the outcomes of an integration test run.
type harnessResult struct {
	LogOutput   string
	Err         error
	App         *app.App
	EffectsPath string
}

// runIntegrationTest writes files below a temporary root, points the app at
// its "config" directory and "effects.txt", and runs it. Startup panics are
// returned as errors. Empty modules select the built-in ones.
func runIntegrationTest(t *testing.T, files map[string]string, cfg app.Config, modules ...definition.Module) *harnessResult {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg.ConfigPaths = append(cfg.ConfigPaths, filepath.Join(root, "config"))
	if cfg.EffectsPath == "" {
		cfg.EffectsPath = filepath.Join(root, "effects.txt")
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	logBuffer := &app.SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, &cfg, hcl.NewLoader(), modules...)
	}()

	if panicErr != nil {
		return &harnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(context.Background())

	if os.Getenv("ARCANEBOOKS_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &harnessResult{
		LogOutput:   logBuffer.String(),
		Err:         runErr,
		App:         testApp,
		EffectsPath: cfg.EffectsPath,
	}
}
