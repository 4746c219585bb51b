// Package source is the read-only view of a content-creation scene that the
// exporter consumes: objects with transforms, visibility, collections and
// custom properties, and polygon meshes carrying per-corner attributes.
//
// Importers build these values; the exporter never mutates them.
package source

import (
	"github.com/Faultbox/scenepack/pkg/datafile"
	"github.com/Faultbox/scenepack/pkg/math"
)

// ObjectType identifies what kind of data an object carries. The values are
// the type tags written to the asset file.
type ObjectType int

const (
	ObjectMesh  ObjectType = 0
	ObjectCurve ObjectType = 1
	ObjectEmpty ObjectType = 2
)

// String returns a human-readable object type name.
func (t ObjectType) String() string {
	switch t {
	case ObjectMesh:
		return "MESH"
	case ObjectCurve:
		return "CURVE"
	case ObjectEmpty:
		return "EMPTY"
	default:
		return "UNKNOWN"
	}
}

// Document is one source file with its scenes.
type Document struct {
	Path   string
	Scenes []*Scene
}

// Scene is an ordered collection of objects.
type Scene struct {
	Name    string
	Objects []*Object
	Props   *datafile.Dict
}

// Object is one entry of a scene's object list.
type Object struct {
	Name  string
	Type  ObjectType
	World math.Mat4

	// HideRender excludes the object from export entirely.
	HideRender bool

	// Collections lists the names of the collections the object belongs to.
	Collections []string

	// Props is an opaque bag of custom properties. Values may be of any Go
	// type; kinds the asset format cannot carry are dropped when written.
	Props *datafile.Dict

	// Mesh is set for mesh objects.
	Mesh *Mesh

	// Path is the evaluated polyline of a curve object, in local space.
	Path [][3]float32

	// Modifiers lists deforming modifiers. A modified mesh bakes per object.
	Modifiers []string

	// Library is the path of the library file a linked object comes from,
	// empty for local objects.
	Library string
}

// HasModifiers reports whether the object carries deforming modifiers.
func (o *Object) HasModifiers() bool {
	return len(o.Modifiers) > 0
}

// IsLinked reports whether the object is a linked-library instance.
func (o *Object) IsLinked() bool {
	return o.Library != ""
}
