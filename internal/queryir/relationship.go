package queryir

import "github.com/roach88/fedplan/internal/ndc"

// ColumnMapping maps a source column to a target column of a relationship.
type ColumnMapping struct {
	Source string
	Target string
}

// LocalRelationshipInfo is the full definition of a relationship between
// two collections of the same connector.
type LocalRelationshipInfo struct {
	Name             ndc.RelationshipName
	RelationshipType ndc.RelationshipType
	TargetCollection string
	Mappings         []ColumnMapping
}

// Definition returns the protocol relationship definition.
func (info LocalRelationshipInfo) Definition() ndc.Relationship {
	mapping := make(map[ndc.FieldName]ndc.FieldName, len(info.Mappings))
	for _, m := range info.Mappings {
		mapping[ndc.FieldName(m.Source)] = ndc.FieldName(m.Target)
	}
	return ndc.Relationship{
		ColumnMapping:    mapping,
		RelationshipType: info.RelationshipType,
		TargetCollection: ndc.CollectionName(info.TargetCollection),
		Arguments:        map[ndc.ArgumentName]ndc.Argument{},
	}
}
