package source

import (
	"errors"
	"testing"
)

func quadMesh() *Mesh {
	m := &Mesh{
		Name: "Quad",
		Positions: [][3]float32{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		},
	}
	m.AddPolygon(0, 0, 1, 2, 3)
	return m
}

func TestMesh_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Mesh)
		wantErr error
	}{
		{"valid", func(m *Mesh) {}, nil},
		{"bad vertex", func(m *Mesh) { m.CornerVerts[2] = 9 }, ErrVertexIndex},
		{"bad range", func(m *Mesh) { m.Polygons[0].Count = 5 }, ErrCornerRange},
		{"degenerate", func(m *Mesh) { m.Polygons[0].Count = 2 }, ErrDegenerate},
		{"negative material", func(m *Mesh) { m.Polygons[0].Material = -1 }, ErrNegativeSlot},
		{"short normals", func(m *Mesh) { m.CornerNormals = make([][3]float32, 3) }, ErrLayerLength},
		{"short uv", func(m *Mesh) { m.UVLayers = []UVLayer{{Name: "UVMap", Data: make([][2]float32, 1)}} }, ErrLayerLength},
		{"short color", func(m *Mesh) { m.ColorLayers = []ColorLayer{{Name: "Col"}} }, ErrLayerLength},
		{"short tangents", func(m *Mesh) { m.Tangents = make([][4]float32, 2) }, ErrLayerLength},
		{"bad edge", func(m *Mesh) { m.Edges = [][2]uint32{{0, 4}} }, ErrVertexIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := quadMesh()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMesh_PolygonNormal(t *testing.T) {
	m := quadMesh()
	n := m.PolygonNormal(m.Polygons[0])
	if n.X != 0 || n.Y != 0 || n.Z != 1 {
		t.Errorf("PolygonNormal() = %v, want (0, 0, 1)", n)
	}
}

func TestObjectType_String(t *testing.T) {
	tests := []struct {
		typ  ObjectType
		want string
	}{
		{ObjectMesh, "MESH"},
		{ObjectCurve, "CURVE"},
		{ObjectEmpty, "EMPTY"},
		{ObjectType(9), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("ObjectType(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
