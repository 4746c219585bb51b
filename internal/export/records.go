package export

import (
	"github.com/Faultbox/scenepack/internal/model"
	"github.com/Faultbox/scenepack/internal/source"
	"github.com/Faultbox/scenepack/pkg/datafile"
	"github.com/Faultbox/scenepack/pkg/math"
)

// NoData is the data name of an object without exported geometry.
const NoData = "NONE"

// ObjectRecord is one entry of an exported scene.
type ObjectRecord struct {
	Type        source.ObjectType
	Name        string
	DataName    string
	Collections []int
	Matrix      math.Mat4
	Props       *datafile.Dict
	BoxSize     math.Vec3
}

// Value converts the record to its asset file representation.
func (o *ObjectRecord) Value() *datafile.Dict {
	indexes := make([]any, len(o.Collections))
	for i, c := range o.Collections {
		indexes[i] = int64(c)
	}
	box := o.BoxSize.Array()
	return datafile.NewDict().
		Set("type", int64(o.Type)).
		Set("name", o.Name).
		Set("data_name", o.DataName).
		Set("collection_indexes", indexes).
		Set("matrix", model.PackFloats(o.Matrix[:])).
		Set("properties", propsOrEmpty(o.Props)).
		Set("bounding_box_size", model.PackFloats(box[:]))
}

// SceneRecord is one exported scene.
type SceneRecord struct {
	Name        string
	Objects     []*ObjectRecord
	Collections []string
	Props       *datafile.Dict
}

// Value converts the record to its asset file representation.
func (s *SceneRecord) Value() *datafile.Dict {
	objects := make([]any, len(s.Objects))
	for i, o := range s.Objects {
		objects[i] = o.Value()
	}
	collections := make([]any, len(s.Collections))
	for i, c := range s.Collections {
		collections[i] = c
	}
	return datafile.NewDict().
		Set("name", s.Name).
		Set("objects", objects).
		Set("collections", collections).
		Set("properties", propsOrEmpty(s.Props))
}

func propsOrEmpty(d *datafile.Dict) *datafile.Dict {
	if d == nil {
		return datafile.NewDict()
	}
	return d
}
