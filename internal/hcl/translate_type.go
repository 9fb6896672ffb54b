// This file contains the logic for parsing HCL type expressions (e.g., `string`,
// `list(number)`) into their corresponding cty.Type objects.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/arcanebooks/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// isAbsent reports whether expr is missing or the null placeholder gohcl
// assigns to omitted optional attributes.
func isAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if _, ok := expr.(hclsyntax.Expression); ok {
		return false
	}
	val, diags := expr.Value(nil)
	return !diags.HasErrors() && val.IsNull()
}

// typeExprToCtyType converts an HCL type expression into its cty.Type equivalent.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	logger := ctxlog.FromContext(ctx)

	if isAbsent(expr) {
		logger.Debug("Type expression is absent, defaulting to any.")
		return cty.DynamicPseudoType, nil
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		logger.Debug("Parsing type expression as a function call.", "call", v.Name)
		if v.Name == "object" {
			return objectType(ctx, v)
		}
		if len(v.Args) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("type constructors (list, map, set) require exactly one argument, got %d", len(v.Args))
		}

		elementType, err := typeExprToCtyType(ctx, v.Args[0])
		if err != nil {
			return cty.DynamicPseudoType, err
		}
		if elementType == cty.DynamicPseudoType {
			return cty.DynamicPseudoType, fmt.Errorf("collection types cannot contain type 'any'")
		}

		switch v.Name {
		case "list":
			return cty.List(elementType), nil
		case "map":
			return cty.Map(elementType), nil
		case "set":
			return cty.Set(elementType), nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown type constructor function %q", v.Name)
		}

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		rootName := v.Traversal.RootName()
		switch rootName {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown primitive type %q", rootName)
		}

	default:
		return cty.DynamicPseudoType, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

// objectType parses object({ key = type, ... }).
func objectType(ctx context.Context, call *hclsyntax.FunctionCallExpr) (cty.Type, error) {
	if len(call.Args) != 1 {
		return cty.DynamicPseudoType, fmt.Errorf("the object() type constructor requires exactly one argument, got %d", len(call.Args))
	}
	objExpr, ok := call.Args[0].(*hclsyntax.ObjectConsExpr)
	if !ok {
		return cty.DynamicPseudoType, fmt.Errorf("the argument to object() must be an object literal like { key = type, ... }, got %T", call.Args[0])
	}

	attrTypes := make(map[string]cty.Type, len(objExpr.Items))
	for _, item := range objExpr.Items {
		key := hcl.ExprAsKeyword(item.KeyExpr)
		if key == "" {
			return cty.DynamicPseudoType, fmt.Errorf("invalid key in object type definition: keys must be simple identifiers")
		}
		valueType, err := typeExprToCtyType(ctx, item.ValueExpr)
		if err != nil {
			return cty.DynamicPseudoType, fmt.Errorf("in object attribute '%s': %w", key, err)
		}
		attrTypes[key] = valueType
	}
	return cty.Object(attrTypes), nil
}
