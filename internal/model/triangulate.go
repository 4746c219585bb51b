package model

import (
	"github.com/Faultbox/scenepack/pkg/math"
)

const earEpsilon float32 = 1e-12

// Triangulate splits a simple polygon into triangles by ear clipping and
// returns triples of indices into pts. Winding follows the polygon's own
// order. Convex polygons produce a fan around the first corner. Degenerate or
// self-intersecting input falls back to a fan over the corners that remain.
func Triangulate(pts [][3]float32) [][3]int {
	n := len(pts)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}
	}

	// Project onto the plane most perpendicular to the face normal.
	normal := newellNormal(pts)
	ax, ay := projectionAxes(normal.MaxAxis())
	flat := make([][2]float32, n)
	for i, p := range pts {
		flat[i] = [2]float32{p[ax], p[ay]}
	}

	// Orientation of the projected polygon; ears must turn the same way.
	orient := float32(1)
	if signedArea(flat) < 0 {
		orient = -1
	}

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	tris := make([][3]int, 0, n-2)
	cursor := 1
	misses := 0
	for len(remaining) > 3 {
		if misses >= len(remaining) {
			break
		}
		m := len(remaining)
		cursor %= m
		prev := remaining[(cursor+m-1)%m]
		cur := remaining[cursor]
		next := remaining[(cursor+1)%m]

		if isEar(flat, remaining, prev, cur, next, orient) {
			tris = append(tris, [3]int{prev, cur, next})
			remaining = append(remaining[:cursor], remaining[cursor+1:]...)
			misses = 0
			continue
		}
		cursor++
		misses++
	}

	if len(remaining) == 3 {
		return append(tris, [3]int{remaining[0], remaining[1], remaining[2]})
	}

	// No ear found: fan the rest.
	for i := 1; i+1 < len(remaining); i++ {
		tris = append(tris, [3]int{remaining[0], remaining[i], remaining[i+1]})
	}
	return tris
}

func isEar(flat [][2]float32, remaining []int, prev, cur, next int, orient float32) bool {
	a, b, c := flat[prev], flat[cur], flat[next]
	if cross2(a, b, c)*orient <= earEpsilon {
		return false
	}
	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		if pointInTriangle(flat[idx], a, b, c, orient) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c [2]float32, orient float32) bool {
	return cross2(a, b, p)*orient > 0 &&
		cross2(b, c, p)*orient > 0 &&
		cross2(c, a, p)*orient > 0
}

// cross2 is the z component of (b-a) x (c-a).
func cross2(a, b, c [2]float32) float32 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func signedArea(flat [][2]float32) float32 {
	var area float32
	for i := range flat {
		j := (i + 1) % len(flat)
		area += flat[i][0]*flat[j][1] - flat[j][0]*flat[i][1]
	}
	return area / 2
}

func newellNormal(pts [][3]float32) math.Vec3 {
	var n math.Vec3
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a[1] - b[1]) * (a[2] + b[2])
		n.Y += (a[2] - b[2]) * (a[0] + b[0])
		n.Z += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}

// projectionAxes returns the two axes kept when dropping the dominant one.
func projectionAxes(dominant int) (int, int) {
	switch dominant {
	case 0:
		return 1, 2
	case 1:
		return 2, 0
	default:
		return 0, 1
	}
}
