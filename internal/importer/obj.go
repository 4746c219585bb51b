package importer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/scenepack/internal/source"
	"github.com/Faultbox/scenepack/pkg/math"
)

// LoadOBJ reads a Wavefront .obj file.
func LoadOBJ(path string) (*source.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadOBJ(path, f)
}

// ReadOBJ parses Wavefront geometry into a single scene named after path.
// Each "o" statement starts an object with its own mesh; "g" sets the
// object's collections and "usemtl" selects a per-object material slot.
func ReadOBJ(path string, r io.Reader) (*source.Document, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	p := &objParser{
		file:      filepath.Base(path),
		defName:   base,
		meshNames: make(uniqueNames),
	}
	if err := p.parse(r); err != nil {
		return nil, err
	}

	scene := &source.Scene{Name: base}
	for _, o := range p.objects {
		obj, err := o.build(p)
		if err != nil {
			return nil, err
		}
		scene.Objects = append(scene.Objects, obj)
	}
	return &source.Document{Path: path, Scenes: []*source.Scene{scene}}, nil
}

// objCorner is one face corner as 0-based global indices, -1 when absent.
type objCorner struct {
	v, vt, vn int
}

type objFace struct {
	material int
	corners  []objCorner
}

type objObject struct {
	name        string
	collections []string
	materials   map[string]int
	material    int
	faces       []objFace
	lines       [][]int
}

func (o *objObject) empty() bool {
	return len(o.faces) == 0 && len(o.lines) == 0
}

type objParser struct {
	file      string
	defName   string
	meshNames uniqueNames

	positions [][3]float32
	colors    [][3]float32
	hasColors bool
	uvs       [][2]float32
	normals   [][3]float32

	objects []*objObject
	cur     *objObject
	line    int
}

func (p *objParser) errorf(format string, args ...any) error {
	return fmt.Errorf("obj: [%s: %d] %s", p.file, p.line, fmt.Sprintf(format, args...))
}

func (p *objParser) current() *objObject {
	if p.cur == nil {
		p.startObject(p.defName)
	}
	return p.cur
}

func (p *objParser) startObject(name string) {
	// An object that never received geometry is replaced rather than kept.
	if p.cur != nil && p.cur.empty() && p.cur.name == p.defName {
		p.objects = p.objects[:len(p.objects)-1]
	}
	p.cur = &objObject{name: name, materials: make(map[string]int)}
	p.objects = append(p.objects, p.cur)
}

func (p *objParser) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.line++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		if err := p.statement(tokens[0], tokens[1:]); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("obj: reading %s: %w", p.file, err)
	}
	return nil
}

func (p *objParser) statement(keyword string, args []string) error {
	switch keyword {
	case "v":
		// x y z, x y z w (w ignored), or x y z r g b.
		if len(args) < 3 || len(args) > 6 || len(args) == 5 {
			return p.errorf("expected 3, 4 or 6 values for vertex, got %d", len(args))
		}
		vals, err := p.floats(args)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, [3]float32{vals[0], vals[1], vals[2]})
		col := [3]float32{1, 1, 1}
		if len(vals) == 6 {
			col = [3]float32{vals[3], vals[4], vals[5]}
			p.hasColors = true
		}
		p.colors = append(p.colors, col)
	case "vt":
		if len(args) < 2 {
			return p.errorf("expected at least 2 values for texture coordinate, got %d", len(args))
		}
		vals, err := p.floats(args[:2])
		if err != nil {
			return err
		}
		p.uvs = append(p.uvs, [2]float32{vals[0], vals[1]})
	case "vn":
		if len(args) != 3 {
			return p.errorf("expected 3 values for normal, got %d", len(args))
		}
		vals, err := p.floats(args)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, [3]float32{vals[0], vals[1], vals[2]})
	case "o":
		if len(args) == 0 {
			return p.errorf("object statement without a name")
		}
		p.startObject(strings.Join(args, " "))
	case "g":
		o := p.current()
		for _, g := range args {
			if g == "default" || contains(o.collections, g) {
				continue
			}
			o.collections = append(o.collections, g)
		}
	case "usemtl":
		if len(args) == 0 {
			return p.errorf("usemtl without a material name")
		}
		o := p.current()
		slot, ok := o.materials[args[0]]
		if !ok {
			slot = len(o.materials)
			o.materials[args[0]] = slot
		}
		o.material = slot
	case "f":
		if len(args) < 3 {
			return p.errorf("face needs at least 3 corners, got %d", len(args))
		}
		face := objFace{material: p.current().material}
		for _, a := range args {
			c, err := p.corner(a)
			if err != nil {
				return err
			}
			face.corners = append(face.corners, c)
		}
		p.cur.faces = append(p.cur.faces, face)
	case "l":
		if len(args) < 2 {
			return p.errorf("line needs at least 2 vertices, got %d", len(args))
		}
		verts := make([]int, 0, len(args))
		for _, a := range args {
			c, err := p.corner(a)
			if err != nil {
				return err
			}
			verts = append(verts, c.v)
		}
		o := p.current()
		o.lines = append(o.lines, verts)
	}
	// mtllib, s and other statements carry nothing the exporter uses.
	return nil
}

func (p *objParser) floats(args []string) ([]float32, error) {
	out := make([]float32, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 32)
		if err != nil {
			return nil, p.errorf("invalid number %q", a)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// corner parses v, v/vt, v//vn or v/vt/vn.
func (p *objParser) corner(s string) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return c, p.errorf("invalid face corner %q", s)
	}
	var err error
	if c.v, err = p.index(parts[0], len(p.positions)); err != nil {
		return c, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.vt, err = p.index(parts[1], len(p.uvs)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.vn, err = p.index(parts[2], len(p.normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// index resolves a 1-based or negative relative index.
func (p *objParser) index(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf("invalid index %q", s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, p.errorf("index %d out of range (%d defined)", i, count)
	}
}

func (o *objObject) build(p *objParser) (*source.Object, error) {
	mesh := &source.Mesh{Name: p.meshNames.next(o.name, "Mesh")}
	local := make(map[int]uint32)
	vertex := func(v int) uint32 {
		if idx, ok := local[v]; ok {
			return idx
		}
		idx := uint32(len(mesh.Positions))
		local[v] = idx
		mesh.Positions = append(mesh.Positions, p.positions[v])
		return idx
	}

	hasUVs, hasNormals := false, false
	for _, f := range o.faces {
		for _, c := range f.corners {
			hasUVs = hasUVs || c.vt >= 0
			hasNormals = hasNormals || c.vn >= 0
		}
	}
	var uvs source.UVLayer
	var colors source.ColorLayer
	var normals [][3]float32
	var flat []bool

	for _, f := range o.faces {
		verts := make([]uint32, len(f.corners))
		for i, c := range f.corners {
			verts[i] = vertex(c.v)
			if hasUVs {
				var uv [2]float32
				if c.vt >= 0 {
					uv = p.uvs[c.vt]
				}
				uvs.Data = append(uvs.Data, uv)
			}
			if p.hasColors {
				colors.Data = append(colors.Data, p.colors[c.v])
			}
			if hasNormals {
				var n [3]float32
				if c.vn >= 0 {
					n = p.normals[c.vn]
				}
				normals = append(normals, n)
				flat = append(flat, c.vn < 0)
			}
		}
		mesh.AddPolygon(f.material, verts...)
	}
	for _, l := range o.lines {
		for i := 0; i+1 < len(l); i++ {
			mesh.Edges = append(mesh.Edges, [2]uint32{vertex(l[i]), vertex(l[i+1])})
		}
	}

	if hasUVs {
		uvs.Name = "UVMap"
		mesh.UVLayers = []source.UVLayer{uvs}
	}
	if p.hasColors && len(o.faces) > 0 {
		colors.Name = "Col"
		mesh.ColorLayers = []source.ColorLayer{colors}
	}
	if hasNormals {
		for _, poly := range mesh.Polygons {
			for c := poly.Start; c < poly.Start+poly.Count; c++ {
				if flat[c] {
					normals[c] = mesh.PolygonNormal(poly).Array()
				}
			}
		}
		mesh.CornerNormals = normals
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("obj: %w", err)
	}

	return &source.Object{
		Name:        o.name,
		Type:        source.ObjectMesh,
		World:       math.Identity(),
		Collections: o.collections,
		Mesh:        mesh,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
