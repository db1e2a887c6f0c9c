package loader

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// Build turns a parsed document into the query IR.
//
// Every problem is collected; the returned error is a *multierror.Error
// of *LoadError, or nil. No partial query is returned on error.
func Build(doc *Document, connectors ConnectorResolver) (*queryir.ModelSelection, error) {
	b := &builder{
		connectors: connectors,
		defs:       doc.Relationships,
		infos:      make(map[string]queryir.LocalRelationshipInfo, len(doc.Relationships)),
		invalid:    make(map[string]bool),
	}
	b.relationshipDefinitions()
	query := b.query(&doc.QueryDoc, "", nil, "")
	if err := b.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return query, nil
}

type builder struct {
	connectors ConnectorResolver
	defs       map[string]RelationshipDoc
	infos      map[string]queryir.LocalRelationshipInfo
	invalid    map[string]bool
	errs       *multierror.Error
}

func (b *builder) addError(code, path, format string, args ...any) {
	b.errs = multierror.Append(b.errs, &LoadError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
	})
}

func at(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

func index(path, elem string, i int) string {
	return at(path, fmt.Sprintf("%s[%d]", elem, i))
}

// relationshipDefinitions checks every definition once, in name order.
func (b *builder) relationshipDefinitions() {
	for _, name := range slices.Sorted(maps.Keys(b.defs)) {
		def := b.defs[name]
		path := at("relationships", name)
		ok := true

		relType := ndc.RelationshipType(def.Type)
		if relType != ndc.ObjectRelationship && relType != ndc.ArrayRelationship {
			b.addError(ErrCodeInvalidRelationship, path, "type must be object or array, got %q", def.Type)
			ok = false
		}
		if def.Target == "" {
			b.addError(ErrCodeInvalidRelationship, path, "target collection is required")
			ok = false
		}
		if len(def.Mapping) == 0 {
			b.addError(ErrCodeInvalidRelationship, path, "mapping needs at least one column pair")
			ok = false
		}
		if !ok {
			b.invalid[name] = true
			continue
		}

		info := queryir.LocalRelationshipInfo{
			Name:             ndc.RelationshipName(name),
			RelationshipType: relType,
			TargetCollection: def.Target,
		}
		for _, source := range slices.Sorted(maps.Keys(def.Mapping)) {
			info.Mappings = append(info.Mappings, queryir.ColumnMapping{Source: source, Target: def.Mapping[source]})
		}
		b.infos[name] = info
	}
}

func (b *builder) relationship(name, path string) (queryir.LocalRelationshipInfo, bool) {
	if info, ok := b.infos[name]; ok {
		return info, true
	}
	if !b.invalid[name] {
		b.addError(ErrCodeUnknownRelationship, path, "unknown relationship %q", name)
	}
	return queryir.LocalRelationshipInfo{}, false
}

func (b *builder) relationshipPath(names []string, path string) []queryir.LocalRelationshipInfo {
	if len(names) == 0 {
		return nil
	}
	out := make([]queryir.LocalRelationshipInfo, 0, len(names))
	for _, name := range names {
		if info, ok := b.relationship(name, path); ok {
			out = append(out, info)
		}
	}
	return out
}

// query builds one level. parent is the connector of the enclosing local
// relationship (nil at the root and under remote relationships).
func (b *builder) query(d *QueryDoc, path string, parent *queryir.DataConnector, defaultCollection string) *queryir.ModelSelection {
	q := &queryir.ModelSelection{
		Collection: d.Collection,
		Limit:      d.Limit,
		Offset:     d.Offset,
	}
	if q.Collection == "" {
		q.Collection = defaultCollection
	}
	if q.Collection == "" {
		b.addError(ErrCodeInvalidQuery, path, "collection is required")
	}

	switch {
	case d.Connector == "" && parent != nil:
		q.Connector = parent
	case d.Connector == "":
		b.addError(ErrCodeInvalidQuery, path, "connector is required")
	case parent != nil && d.Connector != parent.Name:
		b.addError(ErrCodeInvalidQuery, path,
			"local relationship cannot leave connector %q for %q; use a remote field", parent.Name, d.Connector)
	default:
		dc, err := b.connectors.Connector(d.Connector)
		if err != nil {
			b.addError(ErrCodeUnknownConnector, path, "%v", err)
		}
		q.Connector = dc
	}

	q.Arguments = b.arguments(d.Arguments, at(path, "arguments"))

	if len(d.Fields) > 0 || len(d.Aggregates) == 0 {
		q.Selection = &queryir.ResultSelectionSet{Fields: make([]queryir.SelectedField, 0, len(d.Fields))}
		for i, f := range d.Fields {
			if sf, ok := b.field(f, index(path, "fields", i), q.Connector); ok {
				q.Selection.Fields = append(q.Selection.Fields, sf)
			}
		}
	}
	if len(d.Aggregates) > 0 {
		q.Aggregates = b.aggregates(d.Aggregates, path)
	}
	if d.Where != nil {
		q.Filter.WhereClause = b.filter(*d.Where, at(path, "where"))
	}
	if d.AdditionalFilter != nil {
		q.Filter.AdditionalFilter = b.filter(*d.AdditionalFilter, at(path, "additional_filter"))
	}
	if len(d.OrderBy) > 0 {
		q.OrderBy = b.orderBy(d.OrderBy, path)
	}
	return q
}

func (b *builder) field(f FieldDoc, path string, connector *queryir.DataConnector) (queryir.SelectedField, bool) {
	kinds := 0
	for _, set := range []bool{f.Column != "", f.Relationship != "", f.Remote != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		b.addError(ErrCodeInvalidField, path, "field needs exactly one of column, relationship or remote")
		return queryir.SelectedField{}, false
	}

	switch {
	case f.Column != "":
		if f.Query != nil {
			b.addError(ErrCodeInvalidField, path, "column %q takes no query", f.Column)
		}
		return queryir.SelectedField{
			Alias: aliasOr(f.Alias, f.Column),
			Field: queryir.Column{
				Column:    f.Column,
				Arguments: b.arguments(f.Arguments, at(path, "arguments")),
			},
		}, true

	case f.Relationship != "":
		info, ok := b.relationship(f.Relationship, path)
		if !ok {
			return queryir.SelectedField{}, false
		}
		nested := f.Query
		if nested == nil {
			nested = &QueryDoc{}
		}
		if connector == nil {
			// The parent already reported its missing connector.
			connector = &queryir.DataConnector{}
		}
		query := b.query(nested, at(path, "query"), connector, info.TargetCollection)
		args := b.arguments(f.Arguments, at(path, "arguments"))
		return queryir.SelectedField{
			Alias: aliasOr(f.Alias, f.Relationship),
			Field: queryir.LocalRelationship{Relationship: info, Query: query, Arguments: args},
		}, true

	default:
		return b.remoteField(f, path)
	}
}

func (b *builder) remoteField(f FieldDoc, path string) (queryir.SelectedField, bool) {
	r := f.Remote
	ok := true
	if f.Alias == "" {
		b.addError(ErrCodeInvalidField, path, "remote field needs an alias")
		ok = false
	}
	if len(f.Arguments) > 0 || f.Query != nil {
		b.addError(ErrCodeInvalidField, path, "remote field takes its query and arguments under remote.query")
		ok = false
	}
	relType := ndc.RelationshipType(r.Type)
	if relType != ndc.ObjectRelationship && relType != ndc.ArrayRelationship {
		b.addError(ErrCodeInvalidField, at(path, "remote"), "type must be object or array, got %q", r.Type)
		ok = false
	}
	if len(r.Join) == 0 {
		b.addError(ErrCodeInvalidField, at(path, "remote"), "join needs at least one column pair")
		ok = false
	}
	mapping := make([]queryir.JoinMapping, 0, len(r.Join))
	for i, j := range r.Join {
		if j.Source == "" || j.Target == "" {
			b.addError(ErrCodeInvalidField, index(at(path, "remote"), "join", i), "source and target are required")
			ok = false
			continue
		}
		mapping = append(mapping, queryir.JoinMapping{SourceColumn: j.Source, TargetField: j.Target})
	}
	if r.Query == nil {
		b.addError(ErrCodeInvalidField, at(path, "remote"), "query is required")
		return queryir.SelectedField{}, false
	}
	query := b.query(r.Query, at(path, "remote.query"), nil, "")
	if !ok {
		return queryir.SelectedField{}, false
	}
	return queryir.SelectedField{
		Alias: f.Alias,
		Field: queryir.RemoteRelationship{RelationshipType: relType, JoinMapping: mapping, Query: query},
	}, true
}

func aliasOr(alias, fallback string) string {
	if alias != "" {
		return alias
	}
	return fallback
}

// arguments builds an argument map in name order, so errors are reported
// deterministically. It returns nil for an empty map.
func (b *builder) arguments(args map[string]ArgumentDoc, path string) map[string]queryir.Argument {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]queryir.Argument, len(args))
	for _, name := range slices.Sorted(maps.Keys(args)) {
		a := args[name]
		argPath := at(path, name)

		kinds := 0
		for _, set := range []bool{!isAbsent(a.Literal), a.Variable != "", a.Predicate != nil} {
			if set {
				kinds++
			}
		}
		if kinds != 1 {
			b.addError(ErrCodeInvalidArgument, argPath, "argument needs exactly one of literal, variable or predicate")
			continue
		}

		switch {
		case a.Variable != "":
			out[name] = queryir.VariableArgument{Name: a.Variable}
		case a.Predicate != nil:
			if pred := b.filter(*a.Predicate, at(argPath, "predicate")); pred != nil {
				out[name] = queryir.BooleanExpressionArgument{Predicate: pred}
			}
		default:
			if value, ok := b.value(&a.Literal, at(argPath, "literal")); ok {
				out[name] = queryir.LiteralArgument{Value: value}
			}
		}
	}
	return out
}

func isAbsent(n yaml.Node) bool {
	return n.Kind == 0
}

func (b *builder) value(n *yaml.Node, path string) (ir.IRValue, bool) {
	var raw any
	if err := n.Decode(&raw); err != nil {
		b.addError(ErrCodeInvalidValue, path, "%v", err)
		return nil, false
	}
	value, err := ir.FromGo(raw)
	if err != nil {
		b.addError(ErrCodeInvalidValue, path, "%v", err)
		return nil, false
	}
	return value, true
}

func (b *builder) aggregates(docs []AggregateDoc, path string) *queryir.AggregateSelectionSet {
	set := &queryir.AggregateSelectionSet{Fields: make([]queryir.AggregateField, 0, len(docs))}
	seen := make(map[string]bool, len(docs))
	for i, a := range docs {
		aggPath := index(path, "aggregates", i)
		if a.Name == "" {
			b.addError(ErrCodeInvalidAggregate, aggPath, "name is required")
			continue
		}
		if seen[a.Name] {
			b.addError(ErrCodeInvalidAggregate, aggPath, "duplicate aggregate %q", a.Name)
			continue
		}
		seen[a.Name] = true

		var sel queryir.AggregateSelection
		switch a.Function {
		case "":
			b.addError(ErrCodeInvalidAggregate, aggPath, "function is required")
			continue
		case "count":
			sel = queryir.Count{ColumnPath: a.Column}
		case "count_distinct":
			if len(a.Column) == 0 {
				b.addError(ErrCodeInvalidAggregate, aggPath, "count_distinct needs a column")
				continue
			}
			sel = queryir.CountDistinct{ColumnPath: a.Column}
		default:
			if len(a.Column) == 0 {
				b.addError(ErrCodeInvalidAggregate, aggPath, "function %q needs a column", a.Function)
				continue
			}
			columnPath := queryir.Path(a.Column[0])
			if len(a.Column) > 1 {
				columnPath.Tail = a.Column[1:]
			}
			sel = queryir.AggregationFunction{Function: a.Function, ColumnPath: columnPath}
		}
		set.Fields = append(set.Fields, queryir.AggregateField{Name: a.Name, Selection: sel})
	}
	return set
}

func (b *builder) orderBy(docs []OrderByDoc, path string) *queryir.OrderBy {
	ob := &queryir.OrderBy{Elements: make([]queryir.OrderByElement, 0, len(docs))}
	for i, o := range docs {
		elPath := index(path, "order_by", i)
		if o.Column == "" {
			b.addError(ErrCodeInvalidOrderBy, elPath, "column is required")
			continue
		}
		var direction queryir.OrderDirection
		switch o.Direction {
		case "", "asc":
			direction = queryir.Asc
		case "desc":
			direction = queryir.Desc
		default:
			b.addError(ErrCodeInvalidOrderBy, elPath, "direction must be asc or desc, got %q", o.Direction)
			continue
		}
		ob.Elements = append(ob.Elements, queryir.OrderByElement{
			Direction: direction,
			Target: queryir.ColumnTarget{
				Name:             o.Column,
				RelationshipPath: b.relationshipPath(o.Path, elPath),
			},
		})
	}
	return ob
}

// filter builds a filter expression, returning nil after reporting a
// problem.
func (b *builder) filter(f FilterDoc, path string) queryir.FilterExpression {
	kinds := 0
	for _, set := range []bool{f.And != nil, f.Or != nil, f.Not != nil, f.Compare != nil, f.IsNull != nil, f.Exists != nil} {
		if set {
			kinds++
		}
	}
	if kinds != 1 {
		b.addError(ErrCodeInvalidFilter, path, "filter needs exactly one of and, or, not, compare, is_null or exists")
		return nil
	}

	switch {
	case f.And != nil:
		return queryir.And{Expressions: b.filters(f.And, path, "and")}
	case f.Or != nil:
		return queryir.Or{Expressions: b.filters(f.Or, path, "or")}
	case f.Not != nil:
		inner := b.filter(*f.Not, at(path, "not"))
		if inner == nil {
			return nil
		}
		return queryir.Not{Expression: inner}
	case f.Compare != nil:
		return b.compare(f.Compare, at(path, "compare"))
	case f.IsNull != nil:
		return queryir.IsNull{Column: b.columnRef(*f.IsNull, at(path, "is_null"))}
	default:
		info, ok := b.relationship(f.Exists.Relationship, at(path, "exists"))
		var predicate queryir.FilterExpression
		if f.Exists.Where != nil {
			predicate = b.filter(*f.Exists.Where, at(path, "exists.where"))
		}
		if !ok {
			return nil
		}
		return queryir.RelationshipExists{Relationship: info, Predicate: predicate}
	}
}

func (b *builder) filters(docs []FilterDoc, path, key string) []queryir.FilterExpression {
	out := make([]queryir.FilterExpression, 0, len(docs))
	for i, d := range docs {
		if expr := b.filter(d, index(path, key, i)); expr != nil {
			out = append(out, expr)
		}
	}
	return out
}

func (b *builder) compare(c *CompareDoc, path string) queryir.FilterExpression {
	column := b.columnRef(c.ColumnRefDoc, path)
	if c.Operator == "" {
		b.addError(ErrCodeInvalidFilter, path, "operator is required")
		return nil
	}
	hasValue, hasVariable := !isAbsent(c.Value), c.Variable != ""
	if hasValue == hasVariable {
		b.addError(ErrCodeInvalidFilter, path, "comparison needs exactly one of value or variable")
		return nil
	}

	var value queryir.ComparisonValue
	if hasVariable {
		value = queryir.VariableValue{Name: c.Variable}
	} else {
		literal, ok := b.value(&c.Value, at(path, "value"))
		if !ok {
			return nil
		}
		value = queryir.LiteralValue{Value: literal}
	}
	return queryir.BinaryComparison{Column: column, Operator: c.Operator, Value: value}
}

func (b *builder) columnRef(c ColumnRefDoc, path string) queryir.ComparisonColumn {
	if c.Column == "" {
		b.addError(ErrCodeInvalidFilter, path, "column is required")
	}
	return queryir.ComparisonColumn{
		Name:             c.Column,
		FieldPath:        c.FieldPath,
		RelationshipPath: b.relationshipPath(c.Path, path),
	}
}
