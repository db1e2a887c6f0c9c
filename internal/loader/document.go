package loader

import "gopkg.in/yaml.v3"

// Document is the on-disk form of a query: one root QueryDoc plus the
// relationship definitions it may reference at any depth.
//
//	collection: authors
//	connector: postgres
//	relationships:
//	  author_articles:
//	    type: array
//	    target: articles
//	    mapping: {id: author_id}
//	fields:
//	  - column: name
//	  - alias: articles
//	    relationship: author_articles
//	    query:
//	      fields: [{column: title}]
type Document struct {
	QueryDoc      `yaml:",inline"`
	Relationships map[string]RelationshipDoc `yaml:"relationships,omitempty"`
}

// QueryDoc is one level of a query.
//
// Collection and Connector may be omitted under a local relationship; they
// default to the relationship target and the parent connector.
type QueryDoc struct {
	Collection       string                 `yaml:"collection,omitempty"`
	Connector        string                 `yaml:"connector,omitempty"`
	Arguments        map[string]ArgumentDoc `yaml:"arguments,omitempty"`
	Fields           []FieldDoc             `yaml:"fields,omitempty"`
	Aggregates       []AggregateDoc         `yaml:"aggregates,omitempty"`
	Where            *FilterDoc             `yaml:"where,omitempty"`
	AdditionalFilter *FilterDoc             `yaml:"additional_filter,omitempty"`
	OrderBy          []OrderByDoc           `yaml:"order_by,omitempty"`
	Limit            *uint32                `yaml:"limit,omitempty"`
	Offset           *uint32                `yaml:"offset,omitempty"`
}

// RelationshipDoc defines a relationship between two collections of the
// same connector.
type RelationshipDoc struct {
	Type    string            `yaml:"type"`
	Target  string            `yaml:"target"`
	Mapping map[string]string `yaml:"mapping"`
}

// FieldDoc is one selected field. Exactly one of Column, Relationship and
// Remote is set. Alias defaults to the column or relationship name.
type FieldDoc struct {
	Alias        string                 `yaml:"alias,omitempty"`
	Column       string                 `yaml:"column,omitempty"`
	Relationship string                 `yaml:"relationship,omitempty"`
	Remote       *RemoteDoc             `yaml:"remote,omitempty"`
	Arguments    map[string]ArgumentDoc `yaml:"arguments,omitempty"`
	Query        *QueryDoc              `yaml:"query,omitempty"`
}

// RemoteDoc joins the current row with rows of another connector.
type RemoteDoc struct {
	Type  string    `yaml:"type"`
	Join  []JoinDoc `yaml:"join"`
	Query *QueryDoc `yaml:"query"`
}

// JoinDoc pairs a source column with the target field it must equal.
type JoinDoc struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// ArgumentDoc is an argument value. Exactly one of Literal, Variable and
// Predicate is set.
type ArgumentDoc struct {
	Literal   yaml.Node  `yaml:"literal,omitempty"`
	Variable  string     `yaml:"variable,omitempty"`
	Predicate *FilterDoc `yaml:"predicate,omitempty"`
}

// AggregateDoc is one named aggregate.
//
// Function "count" with no column counts rows; "count" and "count_distinct"
// with a column count its values; any other function is applied to Column.
// Column is a path: the first element names the column, the rest navigate
// nested fields.
type AggregateDoc struct {
	Name     string   `yaml:"name"`
	Function string   `yaml:"function"`
	Column   []string `yaml:"column,omitempty"`
}

// OrderByDoc is one sort key. Path lists relationship names, root first.
type OrderByDoc struct {
	Column    string   `yaml:"column"`
	Direction string   `yaml:"direction,omitempty"`
	Path      []string `yaml:"path,omitempty"`
}

// FilterDoc is a filter expression. Exactly one key is set.
type FilterDoc struct {
	And     []FilterDoc   `yaml:"and,omitempty"`
	Or      []FilterDoc   `yaml:"or,omitempty"`
	Not     *FilterDoc    `yaml:"not,omitempty"`
	Compare *CompareDoc   `yaml:"compare,omitempty"`
	IsNull  *ColumnRefDoc `yaml:"is_null,omitempty"`
	Exists  *ExistsDoc    `yaml:"exists,omitempty"`
}

// ColumnRefDoc references a column, optionally through relationships
// (Path) and into nested fields (FieldPath).
type ColumnRefDoc struct {
	Column    string   `yaml:"column"`
	Path      []string `yaml:"path,omitempty"`
	FieldPath []string `yaml:"field_path,omitempty"`
}

// CompareDoc is a binary comparison against a literal Value or a Variable.
type CompareDoc struct {
	ColumnRefDoc `yaml:",inline"`
	Operator     string    `yaml:"operator"`
	Value        yaml.Node `yaml:"value,omitempty"`
	Variable     string    `yaml:"variable,omitempty"`
}

// ExistsDoc filters on the existence of related rows matching Where.
type ExistsDoc struct {
	Relationship string     `yaml:"relationship"`
	Where        *FilterDoc `yaml:"where,omitempty"`
}
