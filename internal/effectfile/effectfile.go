// Package effectfile persists an effect registry as a plain text file with
// one "Name: body" line per effect.
package effectfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/arcanebooks/internal/config"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/effects"
)

// header is written at the top of files created from defaults.
const header = "# Spell effects, one per line: Name: Definition(args): value, ...\n"

// Read returns the contents of the effects file at path.
func Read(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading effects file: %w", err)
	}
	return string(b), nil
}

// Write replaces the file at path with text. The text goes to a temporary
// file in the same directory first, which is then renamed over path, so
// readers never see a partial file.
func Write(path, text string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating effects directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary effects file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("writing effects file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing effects file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing effects file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing effects file: %w", err)
	}
	return nil
}

// DefaultsText renders defaults as the contents of a fresh effects file.
func DefaultsText(defaults []*config.EffectDefault) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, d := range defaults {
		sb.WriteString(effects.FormatEntry(d.Name, strings.TrimSpace(d.Body)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// LoadOrCreate loads the effects file at path into reg, replacing its
// contents. A missing file is first created from defaults. The file is read
// completely before the registry is touched, so a read error leaves reg as
// it was.
func LoadOrCreate(ctx context.Context, path string, reg *effects.Registry, defaults []*config.EffectDefault) (effects.Report, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)

	text, err := Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("Effects file not found, writing defaults.", "effects", len(defaults))
		text = DefaultsText(defaults)
		if err := Write(path, text); err != nil {
			return effects.Report{}, err
		}
	} else if err != nil {
		return effects.Report{}, err
	}

	report := reg.LoadFromString(text, true)
	logger.Info("Effects file loaded.", "compiled", len(report.Compiled), "backlogged", len(report.Backlogged), "skipped", len(report.Skipped))
	return report, nil
}

// Save writes the serialized registry to path.
func Save(ctx context.Context, path string, reg *effects.Registry) error {
	if err := Write(path, reg.Serialize()); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Effects file saved.", "path", path)
	return nil
}
