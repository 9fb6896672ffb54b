package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/arcanebooks/internal/config"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths, in order, and merges
// them into one model. Directories are searched recursively; paths that do
// not exist are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := config.NewModel()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		m, err := l.decode(ctx, hclFile, file)
		if err != nil {
			return nil, err
		}
		model.Merge(m)
	}

	logger.Debug("HCL loading complete.", "definitions", len(model.Definitions), "effects", len(model.Effects))
	return model, nil
}

// LoadSource parses a single configuration held in memory. filename is used
// in diagnostics only.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	return l.decode(ctx, hclFile, filename)
}

// decode translates one parsed file into a model.
func (l *Loader) decode(ctx context.Context, file *hcl.File, filename string) (*config.Model, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	model, err := translateRoot(ctx, &root)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", filename, err)
	}
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, without duplicates.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			allFiles = append(allFiles, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFiles(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return allFiles, nil
}
