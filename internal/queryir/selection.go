package queryir

import "github.com/roach88/fedplan/internal/ndc"

// PhantomAliasPrefix starts the aliases the planner gives to join columns
// it adds for remote relationships. Selected fields may not use it.
const PhantomAliasPrefix = "__phantom_"

// ResultSelectionSet is the ordered list of output fields of a query.
type ResultSelectionSet struct {
	Fields []SelectedField
}

// SelectedField is one output field under its response alias.
type SelectedField struct {
	Alias string
	Field Field
}

// Field is one entry of a selection set.
//
// Variants: Column, LocalRelationship, RemoteRelationship.
type Field interface {
	field() // Marker method - seals interface to this package
}

// Column selects a column of the queried collection.
type Column struct {
	Column    string
	Arguments map[string]Argument
}

func (Column) field() {}

// LocalRelationship selects rows related through a relationship that the
// same connector can resolve. Query describes the related rows.
type LocalRelationship struct {
	Relationship LocalRelationshipInfo
	Query        *ModelSelection
	Arguments    map[string]Argument
}

func (LocalRelationship) field() {}

// JoinMapping pairs a column of the source collection with the field of the
// target collection it joins to.
type JoinMapping struct {
	SourceColumn string
	TargetField  string
}

// RemoteRelationship selects rows from a collection served by a different
// connector. The engine fetches both sides and joins them on JoinMapping.
type RemoteRelationship struct {
	RelationshipType ndc.RelationshipType
	JoinMapping      []JoinMapping
	Query            *ModelSelection
}

func (RemoteRelationship) field() {}
