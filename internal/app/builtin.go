package app

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/vk/arcanebooks/internal/config"
)

//go:embed builtin.hcl
var builtinHCL []byte

// loadConfig merges the user configuration on top of the built-in one.
func loadConfig(ctx context.Context, loader config.Loader, paths []string) (*config.Model, error) {
	model, err := loader.LoadSource(ctx, "builtin.hcl", builtinHCL)
	if err != nil {
		return nil, fmt.Errorf("built-in configuration: %w", err)
	}
	if len(paths) == 0 {
		return model, nil
	}
	user, err := loader.Load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	model.Merge(user)
	return model, nil
}
