package model

import (
	"github.com/Faultbox/scenepack/pkg/math"
)

// FlattenPath emits a curve's evaluated polyline as a line record. Points are
// transformed to world space; consecutive points form one segment each.
// Fewer than two points yield nil.
func FlattenPath(name string, points [][3]float32, world math.Mat4) *MeshRecord {
	if len(points) < 2 {
		return nil
	}
	r := &MeshRecord{
		Name:         name,
		ElementSize:  ElementLines,
		NumColors:    1,
		NumTexCoords: 1,
		Material:     -1,
		Vertices:     make([]float32, 0, len(points)*3),
		Indices:      make([]uint32, 0, (len(points)-1)*2),
		Bounds:       EmptyBounds(),
	}
	for i, p := range points {
		w := world.TransformPoint(p)
		r.Vertices = append(r.Vertices, w[0], w[1], w[2])
		r.Bounds.Extend(w)
		if i > 0 {
			r.Indices = append(r.Indices, uint32(i-1), uint32(i))
		}
	}
	return r
}
