package queryir

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/fedplan/internal/ndc"
)

// ValidationError is one structural problem found in an IR tree.
type ValidationError struct {
	// Path locates the problem, e.g. "authors.articles.aggregates.total".
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks that a ModelSelection is structurally complete before it
// is compiled: every name present, every nested query attached, no duplicate
// output keys.
//
// All problems are collected (does not fail fast). The returned error is a
// *multierror.Error whose entries are *ValidationError, or nil.
//
// Validate does not check names against a schema; that happened upstream.
func Validate(query *ModelSelection) error {
	v := &validator{}
	v.validateModelSelection(query, rootPath(query))
	return v.errs.ErrorOrNil()
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) addError(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func rootPath(q *ModelSelection) string {
	if q == nil || q.Collection == "" {
		return "$"
	}
	return q.Collection
}

func join(path string, parts ...string) string {
	return path + "." + strings.Join(parts, ".")
}

func (v *validator) validateModelSelection(q *ModelSelection, path string) {
	if q == nil {
		v.addError(path, "query is nil")
		return
	}
	if q.Collection == "" {
		v.addError(path, "collection is required")
	}
	if q.Connector == nil {
		v.addError(path, "connector is required")
	} else if q.Connector.Capabilities.SupportedNDCVersion == ndc.VersionUnknown {
		v.addError(path, "connector %q has no supported protocol version", q.Connector.Name)
	}

	v.validateArguments(q.Arguments, join(path, "arguments"))
	if q.Selection != nil {
		v.validateSelection(q.Selection, path)
	}
	if q.Aggregates != nil {
		v.validateAggregates(q.Aggregates, join(path, "aggregates"))
	}
	v.validateFilter(q.Filter.WhereClause, join(path, "where"))
	v.validateFilter(q.Filter.AdditionalFilter, join(path, "additional_filter"))
	if q.OrderBy != nil {
		v.validateOrderBy(q.OrderBy, join(path, "order_by"))
	}
}

func (v *validator) validateSelection(sel *ResultSelectionSet, path string) {
	seen := make(map[string]bool, len(sel.Fields))
	for i, f := range sel.Fields {
		fieldPath := join(path, f.Alias)
		if f.Alias == "" {
			fieldPath = join(path, fmt.Sprintf("fields[%d]", i))
			v.addError(fieldPath, "field alias is required")
		} else if seen[f.Alias] {
			v.addError(fieldPath, "duplicate field alias %q", f.Alias)
		} else if strings.HasPrefix(f.Alias, PhantomAliasPrefix) {
			v.addError(fieldPath, "field alias %q uses the reserved prefix %q", f.Alias, PhantomAliasPrefix)
		}
		seen[f.Alias] = true

		switch field := f.Field.(type) {
		case Column:
			if field.Column == "" {
				v.addError(fieldPath, "column name is required")
			}
			v.validateArguments(field.Arguments, join(fieldPath, "arguments"))
		case LocalRelationship:
			v.validateRelationshipInfo(field.Relationship, fieldPath)
			v.validateArguments(field.Arguments, join(fieldPath, "arguments"))
			v.validateModelSelection(field.Query, fieldPath)
		case RemoteRelationship:
			if len(field.JoinMapping) == 0 {
				v.addError(fieldPath, "remote relationship needs at least one join mapping")
			}
			for _, m := range field.JoinMapping {
				if m.SourceColumn == "" || m.TargetField == "" {
					v.addError(fieldPath, "join mapping has an empty column")
				}
			}
			v.validateModelSelection(field.Query, fieldPath)
		case nil:
			v.addError(fieldPath, "field is nil")
		default:
			v.addError(fieldPath, "unknown field type %T", f.Field)
		}
	}
}

func (v *validator) validateAggregates(aggs *AggregateSelectionSet, path string) {
	seen := make(map[string]bool, len(aggs.Fields))
	for _, f := range aggs.Fields {
		aggPath := join(path, f.Name)
		if f.Name == "" {
			v.addError(path, "aggregate name is required")
		} else if seen[f.Name] {
			v.addError(aggPath, "duplicate aggregate name %q", f.Name)
		}
		seen[f.Name] = true

		switch agg := f.Selection.(type) {
		case Count:
			v.validateColumnPath(agg.ColumnPath, aggPath)
		case CountDistinct:
			if len(agg.ColumnPath) == 0 {
				v.addError(aggPath, "distinct count needs a column")
			}
			v.validateColumnPath(agg.ColumnPath, aggPath)
		case AggregationFunction:
			if agg.Function == "" {
				v.addError(aggPath, "aggregation function name is required")
			}
			v.validateColumnPath(agg.ColumnPath.Slice(), aggPath)
		case nil:
			v.addError(aggPath, "aggregate selection is nil")
		default:
			v.addError(aggPath, "unknown aggregate type %T", f.Selection)
		}
	}
}

func (v *validator) validateColumnPath(columns []string, path string) {
	for _, c := range columns {
		if c == "" {
			v.addError(path, "column path contains an empty name")
			return
		}
	}
}

func (v *validator) validateOrderBy(ob *OrderBy, path string) {
	for i, el := range ob.Elements {
		elPath := fmt.Sprintf("%s[%d]", path, i)
		switch target := el.Target.(type) {
		case ColumnTarget:
			if target.Name == "" {
				v.addError(elPath, "order by column name is required")
			}
			for _, rel := range target.RelationshipPath {
				v.validateRelationshipInfo(rel, elPath)
			}
		case nil:
			v.addError(elPath, "order by target is nil")
		default:
			v.addError(elPath, "unknown order by target %T", el.Target)
		}
	}
}

func (v *validator) validateFilter(expr FilterExpression, path string) {
	switch e := expr.(type) {
	case nil:
		// No filter
	case And:
		for _, sub := range e.Expressions {
			v.validateFilter(sub, path)
		}
	case Or:
		for _, sub := range e.Expressions {
			v.validateFilter(sub, path)
		}
	case Not:
		if e.Expression == nil {
			v.addError(path, "not expression has no operand")
		}
		v.validateFilter(e.Expression, path)
	case BinaryComparison:
		v.validateComparisonColumn(e.Column, path)
		if e.Operator == "" {
			v.addError(path, "comparison operator is required")
		}
		if e.Value == nil {
			v.addError(path, "comparison value is required")
		}
	case IsNull:
		v.validateComparisonColumn(e.Column, path)
	case RelationshipExists:
		v.validateRelationshipInfo(e.Relationship, path)
		v.validateFilter(e.Predicate, join(path, string(e.Relationship.Name)))
	default:
		v.addError(path, "unknown filter expression %T", expr)
	}
}

func (v *validator) validateComparisonColumn(col ComparisonColumn, path string) {
	if col.Name == "" {
		v.addError(path, "comparison column name is required")
	}
	for _, rel := range col.RelationshipPath {
		v.validateRelationshipInfo(rel, path)
	}
}

func (v *validator) validateRelationshipInfo(info LocalRelationshipInfo, path string) {
	if info.Name == "" {
		v.addError(path, "relationship name is required")
	}
	if info.TargetCollection == "" {
		v.addError(path, "relationship %q has no target collection", info.Name)
	}
	switch info.RelationshipType {
	case ndc.ObjectRelationship, ndc.ArrayRelationship:
	default:
		v.addError(path, "relationship %q has invalid type %q", info.Name, info.RelationshipType)
	}
}

func (v *validator) validateArguments(args map[string]Argument, path string) {
	for name, arg := range args {
		switch a := arg.(type) {
		case LiteralArgument, VariableArgument:
		case BooleanExpressionArgument:
			v.validateFilter(a.Predicate, join(path, name))
		case nil:
			v.addError(join(path, name), "argument is nil")
		default:
			v.addError(join(path, name), "unknown argument type %T", arg)
		}
	}
}
