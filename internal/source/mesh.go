package source

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenepack/pkg/datafile"
	"github.com/Faultbox/scenepack/pkg/math"
)

// Mesh validation errors.
var (
	ErrCornerRange  = errors.New("polygon corner range out of bounds")
	ErrVertexIndex  = errors.New("vertex index out of range")
	ErrLayerLength  = errors.New("per-corner layer length mismatch")
	ErrDegenerate   = errors.New("polygon has fewer than 3 corners")
	ErrNegativeSlot = errors.New("negative material index")
)

// Polygon is one face, referencing Count consecutive corners from Start.
type Polygon struct {
	Start    int
	Count    int
	Material int
}

// UVLayer is one texture coordinate channel, indexed by corner. Coordinates
// use a bottom-left origin.
type UVLayer struct {
	Name string
	Data [][2]float32
}

// ColorLayer is one RGB vertex color channel, indexed by corner.
type ColorLayer struct {
	Name string
	Data [][3]float32
}

// Mesh is a polygon mesh data-block. A face-corner (loop) is one vertex
// reference within one polygon and carries its own normal, UVs, colors and
// tangent even when its position is shared.
type Mesh struct {
	Name string

	// Positions are the mesh vertices.
	Positions [][3]float32

	// Edges are loose or wire edges, used when the mesh has no polygons.
	Edges [][2]uint32

	// Polygons reference ranges of corners.
	Polygons []Polygon

	// CornerVerts maps each corner to an index into Positions.
	CornerVerts []uint32

	// CornerNormals holds one normal per corner. Nil means flat shading:
	// every corner uses its polygon's face normal.
	CornerNormals [][3]float32

	UVLayers    []UVLayer
	ColorLayers []ColorLayer

	// Tangents holds one tangent per corner (xyz) with the bitangent sign in
	// the fourth component. Nil when the mesh has no tangent space.
	Tangents [][4]float32

	Props *datafile.Dict
}

// NumCorners returns the number of face corners.
func (m *Mesh) NumCorners() int {
	return len(m.CornerVerts)
}

// CornerPosition returns the position of a corner.
func (m *Mesh) CornerPosition(corner int) [3]float32 {
	return m.Positions[m.CornerVerts[corner]]
}

// PolygonNormal returns the face normal of a polygon using Newell's method,
// which is robust for concave and slightly non-planar faces.
func (m *Mesh) PolygonNormal(p Polygon) math.Vec3 {
	var n math.Vec3
	for i := 0; i < p.Count; i++ {
		a := m.CornerPosition(p.Start + i)
		b := m.CornerPosition(p.Start + (i+1)%p.Count)
		n.X += (a[1] - b[1]) * (a[2] + b[2])
		n.Y += (a[2] - b[2]) * (a[0] + b[0])
		n.Z += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n.Normalize()
}

// Validate checks that every index and per-corner layer is consistent so
// consumers can index without bounds checks.
func (m *Mesh) Validate() error {
	corners := m.NumCorners()
	for i, p := range m.Polygons {
		if p.Count < 3 {
			return fmt.Errorf("mesh %q polygon %d: %w", m.Name, i, ErrDegenerate)
		}
		if p.Start < 0 || p.Start+p.Count > corners {
			return fmt.Errorf("mesh %q polygon %d: %w", m.Name, i, ErrCornerRange)
		}
		if p.Material < 0 {
			return fmt.Errorf("mesh %q polygon %d: %w", m.Name, i, ErrNegativeSlot)
		}
	}
	for i, v := range m.CornerVerts {
		if int(v) >= len(m.Positions) {
			return fmt.Errorf("mesh %q corner %d: %w", m.Name, i, ErrVertexIndex)
		}
	}
	for i, e := range m.Edges {
		if int(e[0]) >= len(m.Positions) || int(e[1]) >= len(m.Positions) {
			return fmt.Errorf("mesh %q edge %d: %w", m.Name, i, ErrVertexIndex)
		}
	}
	if m.CornerNormals != nil && len(m.CornerNormals) != corners {
		return fmt.Errorf("mesh %q normals: %w", m.Name, ErrLayerLength)
	}
	if m.Tangents != nil && len(m.Tangents) != corners {
		return fmt.Errorf("mesh %q tangents: %w", m.Name, ErrLayerLength)
	}
	for _, l := range m.UVLayers {
		if len(l.Data) != corners {
			return fmt.Errorf("mesh %q uv layer %q: %w", m.Name, l.Name, ErrLayerLength)
		}
	}
	for _, l := range m.ColorLayers {
		if len(l.Data) != corners {
			return fmt.Errorf("mesh %q color layer %q: %w", m.Name, l.Name, ErrLayerLength)
		}
	}
	return nil
}

// AddPolygon appends a polygon built from position indices and returns the
// index of its first corner. Per-corner layers are not extended.
func (m *Mesh) AddPolygon(material int, verts ...uint32) int {
	start := len(m.CornerVerts)
	m.CornerVerts = append(m.CornerVerts, verts...)
	m.Polygons = append(m.Polygons, Polygon{Start: start, Count: len(verts), Material: material})
	return start
}
