package definition

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Validate performs a strict parity check between manifests and Go input
// structs. It checks both the presence of inputs and the compatibility of
// their types. Definitions without a manifest are skipped.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range sortedKeys(r.defs) {
		def := r.defs[name]
		if def.Manifest == nil {
			continue
		}

		if def.InputType == nil {
			if len(def.Manifest.Inputs) > 0 {
				errs = append(errs, fmt.Sprintf("definition '%s': manifest declares inputs, but Go definition has no input struct", name))
			}
			continue
		}

		goInputs := make(map[string]reflect.StructField)
		for i := 0; i < def.InputType.NumField(); i++ {
			field := def.InputType.Field(i)
			if argName := tagName(field); argName != "" {
				goInputs[argName] = field
			}
		}

		// Check for presence mismatches
		for argName := range goInputs {
			if _, ok := def.Manifest.Inputs[argName]; !ok {
				errs = append(errs, fmt.Sprintf("definition '%s': Go struct has field for input '%s' which is not declared in manifest", name, argName))
			}
		}
		for argName := range def.Manifest.Inputs {
			if _, ok := goInputs[argName]; !ok {
				errs = append(errs, fmt.Sprintf("definition '%s': manifest declares input '%s' which is not found in Go struct", name, argName))
			}
		}

		// Check for type mismatches
		for argName, inputDef := range def.Manifest.Inputs {
			goField, ok := goInputs[argName]
			if !ok {
				continue
			}

			if inputDef.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Manifest has input with 'type = any', which disables static type checking.", "definition", name, "input", argName)
				continue
			}

			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("definition '%s', input '%s': could not imply cty type from Go field type %s: %v", name, argName, goField.Type, err))
				continue
			}

			if !inputDef.Type.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("definition '%s', input '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
					name, argName, inputDef.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("definition validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
