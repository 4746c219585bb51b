package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triArea(pts [][3]float32, t [3]int) float32 {
	a, b, c := pts[t[0]], pts[t[1]], pts[t[2]]
	cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	if cross < 0 {
		cross = -cross
	}
	return cross / 2
}

func TestTriangulate_ConvexFan(t *testing.T) {
	quad := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, Triangulate(quad))

	pent := [][3]float32{{0, 0, 0}, {2, 0, 0}, {3, 1, 0}, {1, 2, 0}, {-1, 1, 0}}
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}, Triangulate(pent))
}

func TestTriangulate_Concave(t *testing.T) {
	// Chevron with a reflex corner at index 1.
	pts := [][3]float32{{0, 0, 0}, {2, 1, 0}, {4, 0, 0}, {2, 3, 0}}
	tris := Triangulate(pts)
	require.Len(t, tris, 2)

	var total float32
	for _, tri := range tris {
		total += triArea(pts, tri)
	}
	assert.InDelta(t, 4.0, total, 1e-6)
	assert.Equal(t, [][3]int{{1, 2, 3}, {0, 1, 3}}, tris)
}

func TestTriangulate_VerticalPlane(t *testing.T) {
	// Quad in the YZ plane projects onto (y, z).
	quad := [][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}}
	assert.Len(t, Triangulate(quad), 2)
}

func TestTriangulate_Small(t *testing.T) {
	assert.Nil(t, Triangulate(nil))
	assert.Nil(t, Triangulate([][3]float32{{0, 0, 0}, {1, 0, 0}}))
	assert.Equal(t, [][3]int{{0, 1, 2}}, Triangulate([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}))
}

func TestTriangulate_DegenerateFallsBackToFan(t *testing.T) {
	// Collinear corners have no ears.
	line := [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, Triangulate(line))
}
