package definition

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/vk/arcanebooks/internal/config"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/vk/arcanebooks/internal/modifier"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// TagName is the struct tag that binds an input field to an argument name.
const TagName = "spell"

// ValueInput is the input name that receives the ": value" suffix of an
// invocation.
const ValueInput = "value"

// DecodeInput converts the arguments of an invocation into a new input
// struct for def. It returns nil when def takes no input.
//
// Arguments map to inputs as follows: "name: v" sets name to the string v,
// a bare "name" sets it to true, "name(a, b)" sets it to a tuple, the n-th
// bare number sets "arg<n>" and the invocation's own value sets "value".
// Values are converted to the manifest type with go-cty. Nested
// invocations and logical checks are not inputs and are skipped.
func DecodeInput(ctx context.Context, def *Definition, parts modifier.Parts) (any, error) {
	if def.NewInput == nil {
		return nil, nil
	}

	args, err := Arguments(parts)
	if err != nil {
		return nil, fmt.Errorf("definition '%s': %w", def.Name, err)
	}

	manifest := def.Manifest
	if manifest == nil {
		manifest = ImpliedManifest(def.Name, def.InputType)
	}

	for name := range args {
		if _, ok := manifest.Inputs[name]; !ok {
			return nil, fmt.Errorf("definition '%s': unknown argument %q (accepted: %s)", def.Name, name, strings.Join(inputNames(manifest), ", "))
		}
	}

	input := def.NewInput()
	if err := decodeInto(ctx, input, args, manifest.Inputs); err != nil {
		return nil, fmt.Errorf("definition '%s': %w", def.Name, err)
	}
	return input, nil
}

// Arguments collects the input values carried by an invocation's parts.
func Arguments(parts modifier.Parts) (map[string]cty.Value, error) {
	args := make(map[string]cty.Value)
	set := func(name string, v cty.Value) error {
		if _, dup := args[name]; dup {
			return fmt.Errorf("argument %q given more than once", name)
		}
		args[name] = v
		return nil
	}

	positional := 0
	for _, m := range parts.Arguments() {
		switch v := m.(type) {
		case modifier.Numeric:
			if err := set(fmt.Sprintf("arg%d", positional), cty.NumberFloatVal(v.Value)); err != nil {
				return nil, err
			}
			positional++
		case modifier.Basic:
			if err := set(v.Name, basicValue(v)); err != nil {
				return nil, err
			}
		}
	}

	if text, ok := parts.ValueText(); ok {
		if err := set(ValueInput, cty.StringVal(unquote(text))); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// basicValue converts a lower-case argument to its cty value.
func basicValue(b modifier.Basic) cty.Value {
	args := b.Arguments()
	text, hasValue := b.ValueText()

	switch {
	case len(args) == 0 && hasValue:
		return cty.StringVal(unquote(text))
	case len(args) == 0:
		return cty.True
	}

	elems := make([]cty.Value, 0, len(args)+1)
	for _, a := range args {
		elems = append(elems, elementValue(a))
	}
	if hasValue {
		elems = append(elems, cty.StringVal(unquote(text)))
	}
	return cty.TupleVal(elems)
}

func elementValue(m modifier.Modifier) cty.Value {
	switch v := m.(type) {
	case modifier.Numeric:
		return cty.NumberFloatVal(v.Value)
	case modifier.Basic:
		if len(v.SubModifiers) == 0 {
			return cty.StringVal(v.Name)
		}
		return basicValue(v)
	default:
		return cty.StringVal(unquote(m.String()))
	}
}

// unquote strips one pair of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// decodeInto populates the tagged fields of the struct behind inputPtr.
func decodeInto(ctx context.Context, inputPtr any, args map[string]cty.Value, defs map[string]*config.InputDefinition) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(inputPtr)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("input must be a non-nil pointer to a struct, got %T", inputPtr)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldVal.CanSet() {
			continue
		}

		name := tagName(field)
		if name == "" {
			continue
		}
		inputDef, ok := defs[name]
		if !ok {
			continue
		}

		target := fieldVal.Addr().Interface()
		if val, provided := args[name]; provided {
			if err := decodeValue(val, inputDef.Type, target); err != nil {
				return fmt.Errorf("failed to decode argument '%s': %w", name, err)
			}
			continue
		}

		if inputDef.Default == nil {
			if !inputDef.Optional {
				return fmt.Errorf("missing required argument %q", name)
			}
			continue
		}
		if err := decodeValue(*inputDef.Default, inputDef.Type, target); err != nil {
			return fmt.Errorf("failed to apply default for '%s': %w", name, err)
		}
	}

	logger.Debug("Decoded definition input.", "input_type", structType.String(), "arguments", len(args))
	return nil
}

// decodeValue converts val to the manifest type, then to the Go type behind
// target.
func decodeValue(val cty.Value, want cty.Type, target any) error {
	if want != cty.NilType && !want.Equals(cty.DynamicPseudoType) {
		converted, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), want.FriendlyName(), err)
		}
		val = converted
	}

	goType, err := gocty.ImpliedType(reflect.ValueOf(target).Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}
	converted, err := convert.Convert(val, goType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), goType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}

// ImpliedManifest derives a manifest from the tagged fields of an input
// struct. Every implied input is optional and typed after its Go field.
func ImpliedManifest(name string, inputType reflect.Type) *config.DefinitionManifest {
	m := &config.DefinitionManifest{Name: name, Inputs: make(map[string]*config.InputDefinition)}
	if inputType == nil || inputType.Kind() != reflect.Struct {
		return m
	}

	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		argName := tagName(field)
		if argName == "" {
			continue
		}
		ty, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
		if err != nil {
			ty = cty.DynamicPseudoType
		}
		m.Inputs[argName] = &config.InputDefinition{Name: argName, Type: ty, Optional: true}
	}
	return m
}

// Inputs returns the inputs def accepts, sorted by name. The manifest is
// implied from the input struct when none was applied.
func (d *Definition) Inputs() []*config.InputDefinition {
	m := d.Manifest
	if m == nil {
		if d.InputType == nil {
			return nil
		}
		m = ImpliedManifest(d.Name, d.InputType)
	}
	out := make([]*config.InputDefinition, 0, len(m.Inputs))
	for _, n := range inputNames(m) {
		out = append(out, m.Inputs[n])
	}
	return out
}

// tagName returns the argument name bound to field, or "".
func tagName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	name := strings.Split(field.Tag.Get(TagName), ",")[0]
	if name == "-" {
		return ""
	}
	return name
}

func inputNames(m *config.DefinitionManifest) []string {
	names := make([]string, 0, len(m.Inputs))
	for n := range m.Inputs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
