package model

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/source"
	"github.com/Faultbox/scenepack/pkg/math"
)

// triangle references three corners of the source mesh.
type triangle struct {
	corners  [3]int
	polygon  int
	material int
}

// Flatten builds mesh records from a source mesh.
//
// Polygon meshes are triangulated, split by material and deduplicated: two
// corners whose full attribute tuple is byte-identical share one vertex, and
// vertex indices follow first-encounter order of the triangle stream. A
// single material yields one record named baseName; several materials yield
// baseName_mat<index> records in ascending material order. Meshes with only
// edges yield one line record. Meshes with neither yield no records.
func Flatten(baseName string, mesh *source.Mesh, opts Options) ([]*MeshRecord, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	log := opts.logger()

	bounds := SourceBounds(mesh)

	switch {
	case len(mesh.Polygons) > 0:
		records := flattenTriangles(baseName, mesh, bounds, opts)
		for _, r := range records {
			log.Debug("flattened mesh",
				zap.String("name", r.Name),
				zap.Int("vertices", r.NumVertices()),
				zap.Int("indices", len(r.Indices)),
				zap.Int("colors", r.NumColors),
				zap.Int("uvs", r.NumTexCoords),
				zap.Bool("tangents", r.HasTangents))
		}
		return records, nil
	case len(mesh.Edges) > 0:
		r := flattenLines(baseName, mesh, bounds)
		log.Debug("flattened wire mesh",
			zap.String("name", r.Name),
			zap.Int("vertices", r.NumVertices()),
			zap.Int("edges", len(mesh.Edges)))
		return []*MeshRecord{r}, nil
	default:
		log.Debug("mesh has no polygons or edges", zap.String("mesh", mesh.Name))
		return nil, nil
	}
}

// SourceBounds returns the bounds of every source vertex, independent of
// deduplication.
func SourceBounds(mesh *source.Mesh) Bounds {
	b := EmptyBounds()
	for _, p := range mesh.Positions {
		b.Extend(p)
	}
	return b
}

func flattenTriangles(baseName string, mesh *source.Mesh, bounds Bounds, opts Options) []*MeshRecord {
	tris := triangulateMesh(mesh)

	// Group triangles by material, keeping source order within a group.
	groups := make(map[int][]triangle)
	for _, t := range tris {
		groups[t.material] = append(groups[t.material], t)
	}
	materials := make([]int, 0, len(groups))
	for mat := range groups {
		materials = append(materials, mat)
	}
	sort.Ints(materials)

	faceNormals := make([]math.Vec3, len(mesh.Polygons))
	if mesh.CornerNormals == nil {
		for i, p := range mesh.Polygons {
			faceNormals[i] = mesh.PolygonNormal(p)
		}
	}

	b := &vertexBuilder{
		mesh:        mesh,
		faceNormals: faceNormals,
		tangents:    opts.Tangents && mesh.Tangents != nil,
		numColors:   max(1, len(mesh.ColorLayers)),
		numUVs:      max(1, len(mesh.UVLayers)),
	}

	records := make([]*MeshRecord, 0, len(materials))
	for _, mat := range materials {
		name := baseName
		if len(materials) > 1 {
			name = fmt.Sprintf("%s_mat%d", baseName, mat)
		}
		records = append(records, b.build(name, mat, groups[mat], bounds, mesh))
	}
	return records
}

func triangulateMesh(mesh *source.Mesh) []triangle {
	var tris []triangle
	for pi, p := range mesh.Polygons {
		if p.Count == 3 {
			tris = append(tris, triangle{
				corners:  [3]int{p.Start, p.Start + 1, p.Start + 2},
				polygon:  pi,
				material: p.Material,
			})
			continue
		}
		pts := make([][3]float32, p.Count)
		for i := range pts {
			pts[i] = mesh.CornerPosition(p.Start + i)
		}
		for _, t := range Triangulate(pts) {
			tris = append(tris, triangle{
				corners:  [3]int{p.Start + t[0], p.Start + t[1], p.Start + t[2]},
				polygon:  pi,
				material: p.Material,
			})
		}
	}
	return tris
}

// vertexBuilder packs corner attributes in the fixed wire order. The packed
// floats double as the deduplication key.
type vertexBuilder struct {
	mesh        *source.Mesh
	faceNormals []math.Vec3
	tangents    bool
	numColors   int
	numUVs      int

	scratch []float32
	key     []byte
}

func (b *vertexBuilder) build(name string, material int, tris []triangle, bounds Bounds, mesh *source.Mesh) *MeshRecord {
	r := &MeshRecord{
		Name:         name,
		ElementSize:  ElementTriangles,
		NumColors:    b.numColors,
		NumTexCoords: b.numUVs,
		HasTangents:  b.tangents,
		Material:     material,
		Indices:      make([]uint32, 0, len(tris)*3),
		Bounds:       bounds,
		Props:        mesh.Props,
	}

	lookup := make(map[string]uint32)
	var next uint32
	for _, t := range tris {
		for _, corner := range t.corners {
			b.corner(corner, t.polygon)
			idx, ok := lookup[string(b.key)]
			if !ok {
				idx = next
				next++
				lookup[string(b.key)] = idx
				r.Vertices = append(r.Vertices, b.scratch...)
			}
			r.Indices = append(r.Indices, idx)
		}
	}
	return r
}

// corner fills scratch and key with the attribute tuple of one corner.
func (b *vertexBuilder) corner(corner, polygon int) {
	m := b.mesh
	b.scratch = b.scratch[:0]

	pos := m.CornerPosition(corner)
	b.scratch = append(b.scratch, pos[0], pos[1], pos[2])

	var n [3]float32
	if m.CornerNormals != nil {
		n = m.CornerNormals[corner]
	} else {
		n = b.faceNormals[polygon].Array()
	}
	b.scratch = append(b.scratch, n[0], n[1], n[2])

	if b.tangents {
		t := m.Tangents[corner]
		b.scratch = append(b.scratch, t[0], t[1], t[2], sign(t[3]))
	}

	if len(m.ColorLayers) == 0 {
		b.scratch = append(b.scratch, 1, 1, 1)
	}
	for _, l := range m.ColorLayers {
		c := l.Data[corner]
		b.scratch = append(b.scratch, c[0], c[1], c[2])
	}

	// The synthesized channel is a constant (0, 0); real channels store
	// v' = 1 - v for the renderer's top-left texture origin.
	if len(m.UVLayers) == 0 {
		b.scratch = append(b.scratch, 0, 0)
	}
	for _, l := range m.UVLayers {
		uv := l.Data[corner]
		b.scratch = append(b.scratch, uv[0], 1-uv[1])
	}

	b.key = b.key[:0]
	for _, f := range b.scratch {
		b.key = binary.LittleEndian.AppendUint32(b.key, math32.Float32bits(f))
	}
}

func sign(w float32) float32 {
	if w < 0 {
		return -1
	}
	return 1
}

// flattenLines emits raw positions and one index per edge endpoint, without
// deduplication or material splitting.
func flattenLines(baseName string, mesh *source.Mesh, bounds Bounds) *MeshRecord {
	r := &MeshRecord{
		Name:         baseName,
		ElementSize:  ElementLines,
		NumColors:    max(1, len(mesh.ColorLayers)),
		NumTexCoords: max(1, len(mesh.UVLayers)),
		Material:     -1,
		Vertices:     make([]float32, 0, len(mesh.Positions)*3),
		Indices:      make([]uint32, 0, len(mesh.Edges)*2),
		Bounds:       bounds,
		Props:        mesh.Props,
	}
	for _, p := range mesh.Positions {
		r.Vertices = append(r.Vertices, p[0], p[1], p[2])
	}
	for _, e := range mesh.Edges {
		r.Indices = append(r.Indices, e[0], e[1])
	}
	return r
}
