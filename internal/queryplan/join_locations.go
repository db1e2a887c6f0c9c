package queryplan

import (
	"encoding/json"

	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// JoinLocations records, per response field alias, where remote joins have
// to be spliced into a connector's response. It mirrors the shape of the
// query: a local relationship that contains remote joins further down gets a
// LocalJoin entry whose Rest holds the nested locations.
//
// The zero value is an empty tree.
type JoinLocations struct {
	locations *ndc.OrderedMap[string, Location]
}

// NewJoinLocations creates an empty tree.
func NewJoinLocations() JoinLocations {
	return JoinLocations{}
}

// Location is one annotated position in the response.
type Location struct {
	JoinNode JoinNode
	Rest     JoinLocations
}

// JoinNode says what happens at a location.
//
// Variants: LocalJoin, *RemoteJoin.
type JoinNode interface {
	joinNode() // Marker method - seals interface to this package
}

// LocalJoin marks a local relationship field whose nested rows contain
// remote join locations. Nothing is joined here; the executor descends.
type LocalJoin struct{}

func (LocalJoin) joinNode() {}

// JoinColumn pairs the phantom column added to the source query with the
// target field it must equal.
type JoinColumn struct {
	// SourceAlias is the response alias of the phantom column.
	SourceAlias ndc.FieldName `json:"source_alias"`
	// SourceColumn is the column it selects.
	SourceColumn ndc.FieldName `json:"source_column"`
	// TargetField is the field of the target collection to match.
	TargetField string `json:"target_field"`
}

// RemoteJoin is a join against another connector, resolved after the
// source rows are fetched: the executor collects the join column values,
// runs TargetPlan once per distinct tuple and stitches the results in.
type RemoteJoin struct {
	JoinID           JoinID                 `json:"join_id"`
	TargetConnector  *queryir.DataConnector `json:"target_connector"`
	TargetPlan       QueryExecutionPlan     `json:"target_plan"`
	JoinColumns      []JoinColumn           `json:"join_columns"`
	RelationshipType ndc.RelationshipType   `json:"relationship_type"`
}

func (*RemoteJoin) joinNode() {}

// Insert records a location under alias.
func (j *JoinLocations) Insert(alias string, loc Location) {
	if j.locations == nil {
		j.locations = ndc.NewOrderedMap[string, Location](1)
	}
	j.locations.Set(alias, loc)
}

// Get returns the location recorded under alias.
func (j JoinLocations) Get(alias string) (Location, bool) {
	return j.locations.Get(alias)
}

// IsEmpty reports whether no location was recorded.
func (j JoinLocations) IsEmpty() bool {
	return j.locations.Len() == 0
}

// Aliases returns the annotated aliases in query order.
func (j JoinLocations) Aliases() []string {
	return j.locations.Keys()
}

// RemoteJoins returns every remote join in the tree, pre-order, following
// field order. This is the order in which join ids were assigned, so the
// returned ids are strictly increasing.
func (j JoinLocations) RemoteJoins() []*RemoteJoin {
	var out []*RemoteJoin
	j.walk(func(rj *RemoteJoin) { out = append(out, rj) })
	return out
}

// JoinIDs returns the ids of RemoteJoins in the same order.
func (j JoinLocations) JoinIDs() []JoinID {
	var out []JoinID
	j.walk(func(rj *RemoteJoin) { out = append(out, rj.JoinID) })
	return out
}

func (j JoinLocations) walk(visit func(*RemoteJoin)) {
	for _, loc := range j.locations.All() {
		if rj, ok := loc.JoinNode.(*RemoteJoin); ok {
			visit(rj)
		}
		loc.Rest.walk(visit)
	}
}

// MarshalJSON encodes the tree as alias → location.
func (j JoinLocations) MarshalJSON() ([]byte, error) {
	if j.locations == nil {
		return []byte("{}"), nil
	}
	return j.locations.MarshalJSON()
}

// MarshalJSON implements json.Marshaler.
func (l Location) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind   string         `json:"kind"`
		Remote *RemoteJoin    `json:"remote,omitempty"`
		Rest   *JoinLocations `json:"rest,omitempty"`
	}{Kind: "local"}
	if rj, ok := l.JoinNode.(*RemoteJoin); ok {
		out.Kind = "remote"
		out.Remote = rj
	}
	if !l.Rest.IsEmpty() {
		out.Rest = &l.Rest
	}
	return json.Marshal(out)
}
