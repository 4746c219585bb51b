package export

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenepack/internal/model"
)

// ErrMeshIdentityCollision is returned when two different source data
// blocks, or the same name reached through different identity rules, resolve
// to one exported mesh name.
var ErrMeshIdentityCollision = errors.New("mesh identity collision")

// identityRule records how a mesh identity was derived.
type identityRule int

const (
	ruleData identityRule = iota
	ruleObject
	ruleLibrary
	rulePath
)

func (r identityRule) String() string {
	switch r {
	case ruleObject:
		return "object"
	case ruleLibrary:
		return "library"
	case rulePath:
		return "path"
	default:
		return "data"
	}
}

// meshEntry is one resolved mesh identity and the records built for it.
type meshEntry struct {
	// data is the source block the identity was built from: a *source.Mesh,
	// or the *source.Object of a curve.
	data    any
	rule    identityRule
	records []*model.MeshRecord
}

// registry maps mesh identities to flattened records for one export run.
// The first object to resolve an identity builds it; later objects reuse it.
type registry struct {
	entries map[string]*meshEntry
	records []*model.MeshRecord
	names   map[string]string
}

func newRegistry() *registry {
	return &registry{
		entries: make(map[string]*meshEntry),
		names:   make(map[string]string),
	}
}

// lookup returns the entry for id. A hit from another rule, or from another
// source block for identities that are exported, is a collision.
func (r *registry) lookup(id string, data any, rule identityRule) (*meshEntry, bool, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false, nil
	}
	if e.rule != rule || (rule != ruleLibrary && e.data != data) {
		return nil, false, fmt.Errorf("%w: %q resolved by %s rule, previously by %s rule",
			ErrMeshIdentityCollision, id, rule, e.rule)
	}
	return e, true, nil
}

// add registers id. Exported records are appended in registration order; a
// record name already taken by another identity is a collision.
func (r *registry) add(id string, data any, rule identityRule, records []*model.MeshRecord) (*meshEntry, error) {
	for _, rec := range records {
		if owner, ok := r.names[rec.Name]; ok {
			return nil, fmt.Errorf("%w: record %q of %q already exported by %q",
				ErrMeshIdentityCollision, rec.Name, id, owner)
		}
	}
	for _, rec := range records {
		r.names[rec.Name] = id
	}
	e := &meshEntry{data: data, rule: rule, records: records}
	r.entries[id] = e
	r.records = append(r.records, records...)
	return e, nil
}
