package queryir

// ModelSelection is one query against one collection.
//
// Every part except Collection and Connector is optional. Limit and Offset
// are passed to the connector untouched.
type ModelSelection struct {
	Collection string
	Connector  *DataConnector
	Arguments  map[string]Argument

	Selection  *ResultSelectionSet    // nil when only aggregates are requested
	Aggregates *AggregateSelectionSet // nil when no aggregates are requested
	Filter     FilterClause
	OrderBy    *OrderBy

	Limit  *uint32
	Offset *uint32
}

// Uint32 returns a pointer to n, for Limit and Offset literals.
func Uint32(n uint32) *uint32 {
	return &n
}
