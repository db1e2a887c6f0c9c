package queryplan

import (
	"fmt"

	"github.com/roach88/fedplan/internal/queryir"
)

// CollectRelationships walks a query once and registers every relationship
// it references: local relationship selections (recursively), relationship
// predicates and comparison paths in filters, and ordering paths.
//
// Remote relationship targets are skipped. They compile into separate plans
// for another connector, each with its own registry.
//
// Arguments are not visited; PlanArguments registers what it needs when it
// plans predicate-typed arguments.
func CollectRelationships(query *queryir.ModelSelection, relationships *Relationships) error {
	if query == nil {
		return nil
	}
	if query.Selection != nil {
		if err := collectSelectionRelationships(query.Selection, relationships); err != nil {
			return err
		}
	}
	if err := collectFilterRelationships(query.Filter.WhereClause, relationships); err != nil {
		return err
	}
	if err := collectFilterRelationships(query.Filter.AdditionalFilter, relationships); err != nil {
		return err
	}
	if query.OrderBy != nil {
		for _, el := range query.OrderBy.Elements {
			target, ok := el.Target.(queryir.ColumnTarget)
			if !ok {
				continue
			}
			for _, rel := range target.RelationshipPath {
				if err := relationships.InsertInfo(rel); err != nil {
					return fmt.Errorf("order by %s: %w", target.Name, err)
				}
			}
		}
	}
	return nil
}

func collectSelectionRelationships(sel *queryir.ResultSelectionSet, relationships *Relationships) error {
	for _, f := range sel.Fields {
		local, ok := f.Field.(queryir.LocalRelationship)
		if !ok {
			continue
		}
		if err := relationships.InsertInfo(local.Relationship); err != nil {
			return fmt.Errorf("field %s: %w", f.Alias, err)
		}
		if err := CollectRelationships(local.Query, relationships); err != nil {
			return fmt.Errorf("field %s: %w", f.Alias, err)
		}
	}
	return nil
}

func collectFilterRelationships(expr queryir.FilterExpression, relationships *Relationships) error {
	switch e := expr.(type) {
	case queryir.And:
		for _, sub := range e.Expressions {
			if err := collectFilterRelationships(sub, relationships); err != nil {
				return err
			}
		}
	case queryir.Or:
		for _, sub := range e.Expressions {
			if err := collectFilterRelationships(sub, relationships); err != nil {
				return err
			}
		}
	case queryir.Not:
		return collectFilterRelationships(e.Expression, relationships)
	case queryir.BinaryComparison:
		return collectPathRelationships(e.Column.RelationshipPath, relationships)
	case queryir.IsNull:
		return collectPathRelationships(e.Column.RelationshipPath, relationships)
	case queryir.RelationshipExists:
		if err := relationships.InsertInfo(e.Relationship); err != nil {
			return err
		}
		return collectFilterRelationships(e.Predicate, relationships)
	}
	return nil
}

func collectPathRelationships(path []queryir.LocalRelationshipInfo, relationships *Relationships) error {
	for _, rel := range path {
		if err := relationships.InsertInfo(rel); err != nil {
			return err
		}
	}
	return nil
}
