package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/scenepack/internal/source"
)

const crateOBJ = `# crate
mtllib crate.mtl
v 0 0 0 1 0 0
v 1 0 0 0 1 0
v 1 1 0 0 0 1
v 0 1 0
vt 0 0.25
vt 1 0.25
vt 1 1
vt 0 1
vn 0 0 1
o Crate
g props crates
usemtl Wood
f 1/1/1 2/2/1 3/3/1 4/4/1
usemtl Metal
f -4//1 -2//1 -1//1
usemtl Wood
f 1 2 3
o Rope
l 1 2 3
`

func TestReadOBJ(t *testing.T) {
	doc, err := ReadOBJ("assets/crate.obj", strings.NewReader(crateOBJ))
	require.NoError(t, err)
	require.Len(t, doc.Scenes, 1)

	s := doc.Scenes[0]
	assert.Equal(t, "crate", s.Name)
	require.Len(t, s.Objects, 2)

	crate := s.Objects[0]
	assert.Equal(t, "Crate", crate.Name)
	assert.Equal(t, source.ObjectMesh, crate.Type)
	assert.Equal(t, []string{"props", "crates"}, crate.Collections)

	m := crate.Mesh
	require.NoError(t, m.Validate())
	assert.Len(t, m.Positions, 4)
	require.Len(t, m.Polygons, 3)
	assert.Equal(t, source.Polygon{Start: 0, Count: 4, Material: 0}, m.Polygons[0])
	assert.Equal(t, source.Polygon{Start: 4, Count: 3, Material: 1}, m.Polygons[1])
	assert.Equal(t, source.Polygon{Start: 7, Count: 3, Material: 0}, m.Polygons[2])
	assert.Equal(t, []uint32{0, 2, 3}, m.CornerVerts[4:7])

	require.Len(t, m.UVLayers, 1)
	assert.Equal(t, [2]float32{0, 0.25}, m.UVLayers[0].Data[0])
	assert.Equal(t, [2]float32{0, 0}, m.UVLayers[0].Data[4])

	require.Len(t, m.ColorLayers, 1)
	assert.Equal(t, [3]float32{1, 0, 0}, m.ColorLayers[0].Data[0])
	assert.Equal(t, [3]float32{1, 1, 1}, m.ColorLayers[0].Data[3])

	// The last face has no normals and falls back to its face normal.
	require.Len(t, m.CornerNormals, 10)
	assert.Equal(t, [3]float32{0, 0, 1}, m.CornerNormals[9])

	rope := s.Objects[1]
	assert.Equal(t, "Rope", rope.Name)
	assert.Empty(t, rope.Mesh.Polygons)
	assert.Equal(t, [][2]uint32{{0, 1}, {1, 2}}, rope.Mesh.Edges)
}

func TestReadOBJ_DefaultObject(t *testing.T) {
	doc, err := ReadOBJ("tri.obj", strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	require.NoError(t, err)
	objs := doc.Scenes[0].Objects
	require.Len(t, objs, 1)
	assert.Equal(t, "tri", objs[0].Name)
	assert.Nil(t, objs[0].Mesh.CornerNormals)
	assert.Empty(t, objs[0].Mesh.UVLayers)
	assert.Empty(t, objs[0].Mesh.ColorLayers)
}

func TestReadOBJ_HomogeneousVertices(t *testing.T) {
	src := "o Tri\nv 0 0 0 1\nv 2 0 0 1\nv 0 2 0 0.5\nf 1 2 3\n"
	doc, err := ReadOBJ("w.obj", strings.NewReader(src))
	require.NoError(t, err)
	m := doc.Scenes[0].Objects[0].Mesh
	assert.Equal(t, [][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}}, m.Positions)
	assert.Empty(t, m.ColorLayers)
}

func TestReadOBJ_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bad vertex", "v 1 2\n", "expected 3, 4 or 6 values"},
		{"five values", "v 1 2 3 4 5\n", "expected 3, 4 or 6 values"},
		{"bad number", "v 1 x 3\n", "invalid number"},
		{"short face", "v 0 0 0\nf 1 1\n", "at least 3 corners"},
		{"index range", "v 0 0 0\nf 1 2 3\n", "out of range"},
		{"bad corner", "v 0 0 0\nf 1/1/1/1 1 1\n", "invalid face corner"},
		{"unnamed object", "o\n", "without a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadOBJ("bad.obj", strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "bad.obj")
		})
	}
}

func TestLoad_OBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crate.obj")
	require.NoError(t, os.WriteFile(path, []byte(crateOBJ), 0644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Scenes[0].Objects, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.obj"))
	assert.Error(t, err)
}
