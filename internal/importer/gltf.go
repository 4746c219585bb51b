package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/scenepack/internal/source"
	"github.com/Faultbox/scenepack/pkg/math"
)

// LoadGLTF reads a .gltf or .glb file.
func LoadGLTF(path string) (*source.Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return ReadGLTF(path, doc)
}

// ReadGLTF converts a glTF document. Each glTF scene becomes one source scene
// whose objects are the scene's nodes in depth-first order with world
// transforms. A document without scenes yields one scene of its root nodes.
func ReadGLTF(path string, doc *gltf.Document) (*source.Document, error) {
	r := &gltfReader{
		doc:       doc,
		meshes:    make(map[int]*source.Mesh),
		meshNames: make(uniqueNames),
	}

	out := &source.Document{Path: path}
	sceneNames := make(uniqueNames)

	if len(doc.Scenes) == 0 {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		s := &source.Scene{Name: sceneNames.next(base, "Scene")}
		for _, n := range rootNodes(doc) {
			if err := r.walk(s, n, math.Identity()); err != nil {
				return nil, err
			}
		}
		out.Scenes = append(out.Scenes, s)
		return out, nil
	}

	for _, gs := range doc.Scenes {
		s := &source.Scene{
			Name:  sceneNames.next(gs.Name, "Scene"),
			Props: extrasDict(gs.Extras),
		}
		for _, n := range gs.Nodes {
			if err := r.walk(s, n, math.Identity()); err != nil {
				return nil, err
			}
		}
		out.Scenes = append(out.Scenes, s)
	}
	return out, nil
}

// rootNodes returns nodes that are nobody's child.
func rootNodes(doc *gltf.Document) []int {
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

type gltfReader struct {
	doc       *gltf.Document
	meshes    map[int]*source.Mesh
	meshNames uniqueNames
}

func (r *gltfReader) walk(s *source.Scene, idx int, parent math.Mat4) error {
	if idx < 0 || idx >= len(r.doc.Nodes) {
		return fmt.Errorf("gltf: node index %d out of range", idx)
	}
	node := r.doc.Nodes[idx]
	world := parent.Mul(localMatrix(node))

	extras := parseObjectExtras(node.Extras)
	name := node.Name
	if name == "" {
		name = fmt.Sprintf("Node%d", idx)
	}
	obj := &source.Object{
		Name:        name,
		Type:        source.ObjectEmpty,
		World:       world,
		HideRender:  extras.hideRender,
		Collections: extras.collections,
		Props:       extras.props,
		Modifiers:   extras.modifiers,
		Library:     extras.library,
	}
	if node.Mesh != nil {
		mesh, err := r.mesh(*node.Mesh)
		if err != nil {
			return fmt.Errorf("gltf: node %q: %w", name, err)
		}
		obj.Type = source.ObjectMesh
		obj.Mesh = mesh
		if extras.curve && len(mesh.Polygons) == 0 {
			// Curves arrive as line meshes of their evaluated points.
			obj.Type = source.ObjectCurve
			obj.Mesh = nil
			obj.Path = mesh.Positions
		}
	}
	s.Objects = append(s.Objects, obj)

	for _, c := range node.Children {
		if err := r.walk(s, c, world); err != nil {
			return err
		}
	}
	return nil
}

var identity64 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// localMatrix returns the node's explicit matrix, or T * R * S.
func localMatrix(node *gltf.Node) math.Mat4 {
	if m := node.MatrixOrDefault(); m != identity64 {
		var out math.Mat4
		for i, v := range m {
			out[i] = float32(v)
		}
		return out
	}

	t := node.TranslationOrDefault()
	q := node.RotationOrDefault()
	sc := node.ScaleOrDefault()

	rot := mgl32.Quat{
		W: float32(q[3]),
		V: mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])},
	}.Normalize()
	m := mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(float32(sc[0]), float32(sc[1]), float32(sc[2])))
	return math.Mat4(m)
}

// primitiveData is one primitive's vertex streams.
type primitiveData struct {
	positions [][3]float32
	normals   [][3]float32
	tangents  [][4]float32
	uvs       [][][2]float32
	colors    [][][3]float32
	indices   []uint32
}

// mesh converts a glTF mesh once; nodes sharing it share the source mesh.
// Primitives are merged: each distinct material becomes a material slot in
// first-seen order.
func (r *gltfReader) mesh(idx int) (*source.Mesh, error) {
	if m, ok := r.meshes[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(r.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	gm := r.doc.Meshes[idx]

	out := &source.Mesh{
		Name:  r.meshNames.next(gm.Name, "Mesh"),
		Props: extrasDict(gm.Extras),
	}

	var prims []*primitiveData
	var surfaces []*gltf.Primitive
	numUVs, numColors := 0, 0
	allTangents := true
	for pi, p := range gm.Primitives {
		data, err := r.readPrimitive(p)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
		}
		prims = append(prims, data)
		surfaces = append(surfaces, p)
		if isSurface(p.Mode) {
			numUVs = max(numUVs, len(data.uvs))
			numColors = max(numColors, len(data.colors))
			allTangents = allTangents && data.tangents != nil
		}
	}

	b := &meshBuilder{
		mesh:      out,
		numUVs:    numUVs,
		numColors: numColors,
		tangents:  allTangents && numSurfaces(surfaces) > 0,
		slots:     make(map[int]int),
	}
	b.init()
	for i, data := range prims {
		b.add(surfaces[i], data)
	}
	b.finish()

	r.meshes[idx] = out
	return out, nil
}

func isSurface(mode gltf.PrimitiveMode) bool {
	return mode == gltf.PrimitiveTriangles ||
		mode == gltf.PrimitiveTriangleStrip ||
		mode == gltf.PrimitiveTriangleFan
}

func numSurfaces(prims []*gltf.Primitive) int {
	n := 0
	for _, p := range prims {
		if isSurface(p.Mode) {
			n++
		}
	}
	return n
}

func (r *gltfReader) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(r.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return r.doc.Accessors[idx], nil
}

func (r *gltfReader) readPrimitive(p *gltf.Primitive) (*primitiveData, error) {
	data := &primitiveData{}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return data, nil
	}
	acr, err := r.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	if data.positions, err = modeler.ReadPosition(r.doc, acr, nil); err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	n := len(data.positions)

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		if acr, err = r.accessor(idx); err != nil {
			return nil, err
		}
		if data.normals, err = modeler.ReadNormal(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if len(data.normals) != n {
			return nil, fmt.Errorf("normal count %d does not match position count %d", len(data.normals), n)
		}
	}

	if idx, ok := p.Attributes[gltf.TANGENT]; ok {
		if acr, err = r.accessor(idx); err != nil {
			return nil, err
		}
		if data.tangents, err = modeler.ReadTangent(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading tangents: %w", err)
		}
		if len(data.tangents) != n {
			return nil, fmt.Errorf("tangent count %d does not match position count %d", len(data.tangents), n)
		}
	}

	for i := 0; ; i++ {
		idx, ok := p.Attributes[fmt.Sprintf("TEXCOORD_%d", i)]
		if !ok {
			break
		}
		if acr, err = r.accessor(idx); err != nil {
			return nil, err
		}
		uv, err := modeler.ReadTextureCoord(r.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading TEXCOORD_%d: %w", i, err)
		}
		if len(uv) != n {
			return nil, fmt.Errorf("TEXCOORD_%d count %d does not match position count %d", i, len(uv), n)
		}
		data.uvs = append(data.uvs, uv)
	}

	for i := 0; ; i++ {
		idx, ok := p.Attributes[fmt.Sprintf("COLOR_%d", i)]
		if !ok {
			break
		}
		if acr, err = r.accessor(idx); err != nil {
			return nil, err
		}
		c, err := r.readColors(acr)
		if err != nil {
			return nil, fmt.Errorf("reading COLOR_%d: %w", i, err)
		}
		if len(c) != n {
			return nil, fmt.Errorf("COLOR_%d count %d does not match position count %d", i, len(c), n)
		}
		data.colors = append(data.colors, c)
	}

	if p.Indices != nil {
		if acr, err = r.accessor(*p.Indices); err != nil {
			return nil, err
		}
		if data.indices, err = modeler.ReadIndices(r.doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		for _, i := range data.indices {
			if int(i) >= n {
				return nil, fmt.Errorf("index %d out of range for %d vertices", i, n)
			}
		}
	} else {
		data.indices = make([]uint32, n)
		for i := range data.indices {
			data.indices[i] = uint32(i)
		}
	}
	return data, nil
}

// readColors reads a color accessor as RGB floats, dropping alpha.
func (r *gltfReader) readColors(acr *gltf.Accessor) ([][3]float32, error) {
	raw, err := modeler.ReadAccessor(r.doc, acr, nil)
	if err != nil {
		return nil, err
	}
	switch c := raw.(type) {
	case [][3]float32:
		return c, nil
	case [][4]float32:
		out := make([][3]float32, len(c))
		for i, v := range c {
			out[i] = [3]float32{v[0], v[1], v[2]}
		}
		return out, nil
	case [][3]uint8:
		out := make([][3]float32, len(c))
		for i, v := range c {
			out[i] = [3]float32{float32(v[0]) / 255, float32(v[1]) / 255, float32(v[2]) / 255}
		}
		return out, nil
	case [][4]uint8:
		out := make([][3]float32, len(c))
		for i, v := range c {
			out[i] = [3]float32{float32(v[0]) / 255, float32(v[1]) / 255, float32(v[2]) / 255}
		}
		return out, nil
	case [][3]uint16:
		out := make([][3]float32, len(c))
		for i, v := range c {
			out[i] = [3]float32{float32(v[0]) / 65535, float32(v[1]) / 65535, float32(v[2]) / 65535}
		}
		return out, nil
	case [][4]uint16:
		out := make([][3]float32, len(c))
		for i, v := range c {
			out[i] = [3]float32{float32(v[0]) / 65535, float32(v[1]) / 65535, float32(v[2]) / 65535}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported color accessor type %T", raw)
	}
}

// meshBuilder merges primitives into one source mesh.
type meshBuilder struct {
	mesh      *source.Mesh
	numUVs    int
	numColors int
	tangents  bool

	// slots maps glTF material indices (-1 for none) to material slots.
	slots map[int]int

	normals [][3]float32
	flat    []bool
}

func (b *meshBuilder) init() {
	m := b.mesh
	for i := 0; i < b.numUVs; i++ {
		m.UVLayers = append(m.UVLayers, source.UVLayer{Name: fmt.Sprintf("TEXCOORD_%d", i)})
	}
	for i := 0; i < b.numColors; i++ {
		m.ColorLayers = append(m.ColorLayers, source.ColorLayer{Name: fmt.Sprintf("COLOR_%d", i)})
	}
	if b.tangents {
		m.Tangents = [][4]float32{}
	}
}

func (b *meshBuilder) slot(p *gltf.Primitive) int {
	key := -1
	if p.Material != nil {
		key = *p.Material
	}
	s, ok := b.slots[key]
	if !ok {
		s = len(b.slots)
		b.slots[key] = s
	}
	return s
}

func (b *meshBuilder) add(p *gltf.Primitive, data *primitiveData) {
	m := b.mesh
	base := uint32(len(m.Positions))
	m.Positions = append(m.Positions, data.positions...)
	idx := data.indices

	switch p.Mode {
	case gltf.PrimitiveTriangles:
		material := b.slot(p)
		for i := 0; i+2 < len(idx); i += 3 {
			b.triangle(material, data, base, idx[i], idx[i+1], idx[i+2])
		}
	case gltf.PrimitiveTriangleStrip:
		material := b.slot(p)
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				b.triangle(material, data, base, idx[i], idx[i+1], idx[i+2])
			} else {
				b.triangle(material, data, base, idx[i+1], idx[i], idx[i+2])
			}
		}
	case gltf.PrimitiveTriangleFan:
		material := b.slot(p)
		for i := 1; i+1 < len(idx); i++ {
			b.triangle(material, data, base, idx[i], idx[i+1], idx[0])
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(idx); i += 2 {
			m.Edges = append(m.Edges, [2]uint32{base + idx[i], base + idx[i+1]})
		}
	case gltf.PrimitiveLineStrip, gltf.PrimitiveLineLoop:
		for i := 0; i+1 < len(idx); i++ {
			m.Edges = append(m.Edges, [2]uint32{base + idx[i], base + idx[i+1]})
		}
		if p.Mode == gltf.PrimitiveLineLoop && len(idx) > 2 {
			m.Edges = append(m.Edges, [2]uint32{base + idx[len(idx)-1], base + idx[0]})
		}
	}
}

// triangle appends one polygon and its corner layers. glTF UVs have a
// top-left origin and are stored with a bottom-left origin.
func (b *meshBuilder) triangle(material int, data *primitiveData, base uint32, a, c, d uint32) {
	m := b.mesh
	m.AddPolygon(material, base+a, base+c, base+d)
	for _, v := range [3]uint32{a, c, d} {
		if data.normals != nil {
			b.normals = append(b.normals, data.normals[v])
			b.flat = append(b.flat, false)
		} else {
			b.normals = append(b.normals, [3]float32{})
			b.flat = append(b.flat, true)
		}
		if b.tangents {
			m.Tangents = append(m.Tangents, data.tangents[v])
		}
		for l := range m.UVLayers {
			var uv [2]float32
			if l < len(data.uvs) {
				uv = data.uvs[l][v]
				uv[1] = 1 - uv[1]
			}
			m.UVLayers[l].Data = append(m.UVLayers[l].Data, uv)
		}
		for l := range m.ColorLayers {
			col := [3]float32{1, 1, 1}
			if l < len(data.colors) {
				col = data.colors[l][v]
			}
			m.ColorLayers[l].Data = append(m.ColorLayers[l].Data, col)
		}
	}
}

// finish resolves per-corner normals. A mesh without any vertex normals is
// flat shaded; corners of primitives lacking normals get the face normal.
func (b *meshBuilder) finish() {
	m := b.mesh
	anySmooth := false
	for _, f := range b.flat {
		if !f {
			anySmooth = true
			break
		}
	}
	if !anySmooth {
		return
	}
	for _, p := range m.Polygons {
		var face [3]float32
		computed := false
		for c := p.Start; c < p.Start+p.Count; c++ {
			if !b.flat[c] {
				continue
			}
			if !computed {
				face = m.PolygonNormal(p).Array()
				computed = true
			}
			b.normals[c] = face
		}
	}
	m.CornerNormals = b.normals
}
