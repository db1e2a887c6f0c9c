package queryir

// AggregateSelection is one requested aggregate.
//
// Variants: Count, CountDistinct, AggregationFunction.
type AggregateSelection interface {
	aggregateSelection() // Marker method - seals interface to this package
}

// Count counts rows when ColumnPath is empty, otherwise the non-null values
// of the column addressed by ColumnPath (column first, then nested fields).
type Count struct {
	ColumnPath []string
}

func (Count) aggregateSelection() {}

// CountDistinct counts the distinct values of the column at ColumnPath.
type CountDistinct struct {
	ColumnPath []string
}

func (CountDistinct) aggregateSelection() {}

// AggregationFunction applies a connector-defined function such as "sum" or
// "max" to the column at ColumnPath.
type AggregationFunction struct {
	Function   string
	ColumnPath NonEmptyPath
}

func (AggregationFunction) aggregateSelection() {}

// NonEmptyPath is a column path with at least one element: the column
// (Head) followed by nested field names (Tail).
type NonEmptyPath struct {
	Head string
	Tail []string
}

// Path builds a NonEmptyPath.
func Path(head string, tail ...string) NonEmptyPath {
	return NonEmptyPath{Head: head, Tail: tail}
}

// Slice returns the path as a flat slice.
func (p NonEmptyPath) Slice() []string {
	return append([]string{p.Head}, p.Tail...)
}

// AggregateField names one aggregate in the output.
type AggregateField struct {
	Name      string
	Selection AggregateSelection
}

// AggregateSelectionSet is an ordered set of aggregates. Output keys follow
// the order of Fields.
type AggregateSelectionSet struct {
	Fields []AggregateField
}
