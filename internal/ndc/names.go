package ndc

// Names used across the protocol. Distinct types keep a relationship name
// from being passed where a column name is expected.
type (
	FieldName              string
	RelationshipName       string
	CollectionName         string
	ArgumentName           string
	AggregateFunctionName  string
	ComparisonOperatorName string
	VariableName           string
)

// FieldNames converts plain strings into a nested field path.
// An empty input yields nil: absent paths are never empty slices.
func FieldNames(path []string) []FieldName {
	if len(path) == 0 {
		return nil
	}
	out := make([]FieldName, len(path))
	for i, p := range path {
		out[i] = FieldName(p)
	}
	return out
}
