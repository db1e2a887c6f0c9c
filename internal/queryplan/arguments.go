package queryplan

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// PlanArguments translates collection, column or relationship arguments.
//
// Predicate arguments are planned like filters: the relationships they
// reference are registered first. They need a protocol version that
// accepts predicate arguments. Arguments are visited in name order, so the
// reported error is deterministic. The returned map is never nil.
func PlanArguments(
	arguments map[string]queryir.Argument,
	version ndc.Version,
	relationships *Relationships,
) (map[ndc.ArgumentName]ndc.Argument, error) {
	out := make(map[ndc.ArgumentName]ndc.Argument, len(arguments))
	for _, name := range slices.Sorted(maps.Keys(arguments)) {
		planned, err := planArgument(arguments[name], version, relationships)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		out[ndc.ArgumentName(name)] = planned
	}
	return out, nil
}

func planArgument(arg queryir.Argument, version ndc.Version, relationships *Relationships) (ndc.Argument, error) {
	switch a := arg.(type) {
	case queryir.LiteralArgument:
		value := a.Value
		if value == nil {
			value = ir.IRNull{}
		}
		return ndc.LiteralArgument{Value: value}, nil

	case queryir.VariableArgument:
		if a.Name == "" {
			return nil, newInvalidArgumentError("variable argument has no name")
		}
		return ndc.VariableArgument{Name: ndc.VariableName(a.Name)}, nil

	case queryir.BooleanExpressionArgument:
		if !version.SupportsPredicateArguments() {
			return nil, newUnsupportedError("predicate arguments", version.String())
		}
		if a.Predicate == nil {
			return nil, newInvalidArgumentError("predicate argument has no expression")
		}
		if err := collectFilterRelationships(a.Predicate, relationships); err != nil {
			return nil, err
		}
		predicate, err := planExpression(a.Predicate, relationships)
		if err != nil {
			return nil, err
		}
		return ndc.PredicateArgument{Predicate: predicate}, nil

	default:
		return nil, newInvalidArgumentError("unsupported argument type %T", arg)
	}
}
