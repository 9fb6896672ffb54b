// This file translates the HCL schema structs into the format-agnostic
// configuration model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/arcanebooks/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

func translateRoot(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := config.NewModel()
	if root.EffectsFile != nil {
		m.EffectsFile = *root.EffectsFile
	}
	if root.LogLevel != nil {
		m.LogLevel = *root.LogLevel
	}
	if root.LogFormat != nil {
		m.LogFormat = *root.LogFormat
	}
	if r := root.Rune; r != nil {
		m.Rune = &config.Rune{
			Width:       r.Width,
			Height:      r.Height,
			MinLines:    r.MinLines,
			MaxLines:    r.MaxLines,
			MaxAttempts: r.MaxAttempts,
			Seed:        r.Seed,
		}
	}
	if s := root.Sync; s != nil {
		m.Sync = &config.Sync{URL: s.URL, Path: s.Path, Namespace: s.Namespace}
	}
	if a := root.Admin; a != nil {
		m.Admin = &config.Admin{Port: a.Port}
	}

	for _, d := range root.Definitions {
		if _, dup := m.Definitions[d.Name]; dup {
			return nil, fmt.Errorf("definition '%s' declared more than once", d.Name)
		}
		manifest, err := translateDefinition(ctx, d)
		if err != nil {
			return nil, err
		}
		m.Definitions[d.Name] = manifest
	}

	for _, e := range root.Effects {
		m.Effects = append(m.Effects, &config.EffectDefault{Name: e.Name, Body: e.Body})
	}
	return m, nil
}

// translateDefinition converts a definition block into a manifest.
func translateDefinition(ctx context.Context, d *definitionBlock) (*config.DefinitionManifest, error) {
	m := &config.DefinitionManifest{
		Name:        d.Name,
		Description: d.Description,
		Inputs:      make(map[string]*config.InputDefinition, len(d.Inputs)),
	}
	for _, in := range d.Inputs {
		if _, dup := m.Inputs[in.Name]; dup {
			return nil, fmt.Errorf("in definition '%s': input '%s' declared more than once", d.Name, in.Name)
		}
		translated, err := translateInputDefinition(ctx, in, d.Name)
		if err != nil {
			return nil, err
		}
		m.Inputs[in.Name] = translated
	}
	return m, nil
}

// translateInputDefinition processes a single input block, handling its
// type and default value. An input with a default is optional unless it
// says otherwise.
func translateInputDefinition(ctx context.Context, in *inputBlock, owner string) (*config.InputDefinition, error) {
	parsedType, err := typeExprToCtyType(ctx, in.Type)
	if err != nil {
		return nil, fmt.Errorf("in definition '%s', input '%s': %w", owner, in.Name, err)
	}

	var defaultVal *cty.Value
	if !isAbsent(in.Default) {
		val, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for input '%s' in definition '%s': %w", in.Name, owner, diags)
		}
		if !val.IsNull() {
			if !parsedType.Equals(cty.DynamicPseudoType) {
				if val, err = convert.Convert(val, parsedType); err != nil {
					return nil, fmt.Errorf("default value for input '%s' in definition '%s' is not a %s: %w", in.Name, owner, parsedType.FriendlyName(), err)
				}
			}
			defaultVal = &val
		}
	}

	optional := defaultVal != nil
	if in.Optional != nil {
		optional = *in.Optional
	}

	return &config.InputDefinition{
		Name:        in.Name,
		Type:        parsedType,
		Description: in.Description,
		Default:     defaultVal,
		Optional:    optional,
	}, nil
}
