package queryir

// OrderDirection is the sort direction requested by the query.
type OrderDirection int

const (
	Asc OrderDirection = iota
	Desc
)

// String returns "asc" or "desc".
func (d OrderDirection) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// OrderBy is the ordering clause of a query.
type OrderBy struct {
	Elements []OrderByElement
}

// OrderByElement is one sort key.
type OrderByElement struct {
	Direction OrderDirection
	Target    OrderByTarget
}

// OrderByTarget is the value an element sorts on. Columns are the only
// variant today.
type OrderByTarget interface {
	orderByTarget() // Marker method - seals interface to this package
}

// ColumnTarget sorts on column Name, reached by traversing RelationshipPath
// in order. An empty path means a column of the queried collection.
type ColumnTarget struct {
	Name             string
	RelationshipPath []LocalRelationshipInfo
}

func (ColumnTarget) orderByTarget() {}
