package ndc

import "encoding/json"

// Aggregate is one entry of a query's aggregates map.
//
// Variants:
//   - StarCount: count all rows
//   - ColumnCount: count values of a (possibly nested) column
//   - SingleColumnAggregate: apply a named function to a (possibly nested) column
type Aggregate interface {
	aggregate() // Marker method - seals interface to this package
}

// StarCount counts all rows and references no column.
type StarCount struct{}

func (StarCount) aggregate() {}

// MarshalJSON implements json.Marshaler.
func (StarCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: "star_count"})
}

// ColumnCount counts the values of Column, navigating FieldPath into nested
// structure when present. Distinct counts unique values only.
type ColumnCount struct {
	Column    FieldName
	FieldPath []FieldName // nil when the column itself is counted
	Distinct  bool
}

func (ColumnCount) aggregate() {}

// MarshalJSON implements json.Marshaler.
func (c ColumnCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string      `json:"type"`
		Column    FieldName   `json:"column"`
		FieldPath []FieldName `json:"field_path,omitempty"`
		Distinct  bool        `json:"distinct"`
	}{"column_count", c.Column, c.FieldPath, c.Distinct})
}

// SingleColumnAggregate applies Function to Column (optionally nested).
type SingleColumnAggregate struct {
	Column    FieldName
	FieldPath []FieldName // nil when the column itself is aggregated
	Function  AggregateFunctionName
}

func (SingleColumnAggregate) aggregate() {}

// MarshalJSON implements json.Marshaler.
func (s SingleColumnAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string                `json:"type"`
		Column    FieldName             `json:"column"`
		FieldPath []FieldName           `json:"field_path,omitempty"`
		Function  AggregateFunctionName `json:"function"`
	}{"single_column", s.Column, s.FieldPath, s.Function})
}
