package queryplan

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// Relationships is the registry of relationship definitions referenced by
// one execution plan. Names are unique.
//
// Discovery fills it before the query node is built; selection, filter and
// argument planning extend it as they go. Inserting a name again with an
// identical definition is a no-op. Inserting it with a different definition
// is an ErrCodeRelationshipConflict error: the protocol references
// relationships by name only, so two definitions cannot coexist.
//
// Like Counter, a registry belongs to a single compilation.
type Relationships struct {
	defs map[ndc.RelationshipName]ndc.Relationship
}

// NewRelationships creates an empty registry.
func NewRelationships() *Relationships {
	return &Relationships{defs: make(map[ndc.RelationshipName]ndc.Relationship)}
}

// Insert registers a definition under name.
func (r *Relationships) Insert(name ndc.RelationshipName, def ndc.Relationship) error {
	if existing, ok := r.defs[name]; ok {
		if !existing.Equal(def) {
			return newConflictError(string(name))
		}
		return nil
	}
	r.defs[name] = def
	return nil
}

// InsertInfo registers the definition described by info.
func (r *Relationships) InsertInfo(info queryir.LocalRelationshipInfo) error {
	return r.Insert(info.Name, info.Definition())
}

// Get returns the definition registered under name.
func (r *Relationships) Get(name ndc.RelationshipName) (ndc.Relationship, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Len returns the number of registered relationships.
func (r *Relationships) Len() int {
	return len(r.defs)
}

// Names returns the registered names in sorted order.
func (r *Relationships) Names() []ndc.RelationshipName {
	return slices.Sorted(maps.Keys(r.defs))
}

// Map returns a copy of the registry contents.
func (r *Relationships) Map() map[ndc.RelationshipName]ndc.Relationship {
	return maps.Clone(r.defs)
}

// MarshalJSON encodes the registry as a name → definition object.
func (r *Relationships) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.defs)
}
