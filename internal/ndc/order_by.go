package ndc

import "encoding/json"

// OrderDirection is the sort direction of one ordering element.
type OrderDirection string

const (
	Asc  OrderDirection = "asc"
	Desc OrderDirection = "desc"
)

// OrderBy is an ordered list of sort keys; earlier elements take priority.
type OrderBy struct {
	Elements []OrderByElement `json:"elements"`
}

// OrderByElement pairs a direction with the value being sorted on.
type OrderByElement struct {
	OrderDirection OrderDirection `json:"order_direction"`
	Target         OrderByTarget  `json:"target"`
}

// OrderByTarget is what an ordering element sorts on.
// Only columns are supported; the interface leaves room for aggregate
// targets without changing OrderByElement.
type OrderByTarget interface {
	orderByTarget() // Marker method - seals interface to this package
}

// ColumnTarget sorts on a column, possibly reached through relationships.
//
// Path lists the relationships to traverse, root first. The order is the
// traversal order and must not be changed: for a User -> Posts -> Comments
// chain ending at Comments.text the path is [UserPosts, PostsComments].
type ColumnTarget struct {
	Name      FieldName
	Path      []PathElement
	FieldPath []FieldName // always nil today; ordering does not navigate nested fields
}

func (ColumnTarget) orderByTarget() {}

// MarshalJSON implements json.Marshaler. Path is always present on the wire.
func (c ColumnTarget) MarshalJSON() ([]byte, error) {
	path := c.Path
	if path == nil {
		path = []PathElement{}
	}
	return json.Marshal(struct {
		Type      string        `json:"type"`
		Name      FieldName     `json:"name"`
		Path      []PathElement `json:"path"`
		FieldPath []FieldName   `json:"field_path,omitempty"`
	}{"column", c.Name, path, c.FieldPath})
}

// PathElement is one relationship hop.
// Predicate restricts which related rows take part in the hop; And{} with
// no expressions keeps every row.
type PathElement struct {
	Relationship RelationshipName          `json:"relationship"`
	Arguments    map[ArgumentName]Argument `json:"arguments"`
	Predicate    Expression                `json:"predicate,omitempty"`
}
