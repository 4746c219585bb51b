// Package model flattens source polygon meshes into packed, deduplicated
// vertex and index buffers ready for the asset file.
package model

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/pkg/datafile"
	"github.com/Faultbox/scenepack/pkg/math"
)

// Element sizes: number of indices per primitive.
const (
	ElementLines     = 2
	ElementTriangles = 3
)

// MeshRecord is one exported mesh: a single material's triangles (or the
// edges of a wire mesh) with an interleaved vertex buffer.
//
// Vertex layout, in float32 units:
// position(3), normal(3), [tangent(3), sign(1)], colors(3 each), uvs(2 each).
// Line records only carry position(3).
type MeshRecord struct {
	Name         string
	ElementSize  int
	NumColors    int
	NumTexCoords int
	HasTangents  bool

	// Material is the source material index of a triangle record, -1 for
	// line records.
	Material int

	Vertices []float32
	Indices  []uint32
	Bounds   Bounds
	Props    *datafile.Dict
}

// Stride returns the number of floats per vertex.
func (r *MeshRecord) Stride() int {
	if r.ElementSize == ElementLines {
		return 3
	}
	return VertexStride(r.NumColors, r.NumTexCoords, r.HasTangents)
}

// NumVertices returns the number of vertices in the buffer.
func (r *MeshRecord) NumVertices() int {
	return len(r.Vertices) / r.Stride()
}

// Vertex returns the floats of one vertex.
func (r *MeshRecord) Vertex(i int) []float32 {
	s := r.Stride()
	return r.Vertices[i*s : (i+1)*s]
}

// VertexStride returns the floats per triangle vertex for a channel layout.
func VertexStride(colors, texCoords int, tangents bool) int {
	n := 6 + colors*3 + texCoords*2
	if tangents {
		n += 4
	}
	return n
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// EmptyBounds returns inverted bounds that any point extends.
func EmptyBounds() Bounds {
	inf := math32.Inf(1)
	return Bounds{
		Min: [3]float32{inf, inf, inf},
		Max: [3]float32{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p [3]float32) {
	v := math.V3(p)
	b.Min = math.V3(b.Min).Min(v).Array()
	b.Max = math.V3(b.Max).Max(v).Array()
}

// Size returns the extent of the bounds, zero when empty.
func (b Bounds) Size() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return math.V3(b.Max).Sub(math.V3(b.Min))
}

// Options controls mesh flattening.
type Options struct {
	// Tangents emits the tangent and bitangent sign when the source mesh
	// carries a tangent layer.
	Tangents bool

	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
