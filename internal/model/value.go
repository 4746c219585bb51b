package model

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/scenepack/pkg/datafile"
)

// Mesh value keys.
const (
	KeyName         = "name"
	KeyElementSize  = "element_size"
	KeyNumColors    = "num_colors"
	KeyNumTexCoords = "num_texcoords"
	KeyHasTangents  = "has_tangents"
	KeyNumVertices  = "num_vertices"
	KeyNumIndices   = "num_indices"
	KeyVertexBuffer = "vertex_buffer"
	KeyIndexBuffer  = "index_buffer"
	KeyAABBMin      = "aabb_min"
	KeyAABBMax      = "aabb_max"
	KeyProperties   = "properties"
)

// ErrInvalidMeshValue is returned when a decoded value is not a mesh record.
var ErrInvalidMeshValue = errors.New("invalid mesh value")

// Value converts the record to its asset file representation.
func (r *MeshRecord) Value() *datafile.Dict {
	props := r.Props
	if props == nil {
		props = datafile.NewDict()
	}
	var tangents int64
	if r.HasTangents {
		tangents = 1
	}
	return datafile.NewDict().
		Set(KeyName, r.Name).
		Set(KeyElementSize, int64(r.ElementSize)).
		Set(KeyNumColors, int64(r.NumColors)).
		Set(KeyNumTexCoords, int64(r.NumTexCoords)).
		Set(KeyHasTangents, tangents).
		Set(KeyNumVertices, int64(r.NumVertices())).
		Set(KeyNumIndices, int64(len(r.Indices))).
		Set(KeyVertexBuffer, PackFloats(r.Vertices)).
		Set(KeyIndexBuffer, PackUint32s(r.Indices)).
		Set(KeyAABBMin, PackFloats(r.Bounds.Min[:])).
		Set(KeyAABBMax, PackFloats(r.Bounds.Max[:])).
		Set(KeyProperties, props)
}

// DecodeMeshRecord converts a decoded mesh value back into a record.
func DecodeMeshRecord(d *datafile.Dict) (*MeshRecord, error) {
	r := &MeshRecord{Material: -1}

	var ok bool
	if r.Name, ok = d.String(KeyName); !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidMeshValue, KeyName)
	}

	ints := map[string]*int{
		KeyElementSize:  &r.ElementSize,
		KeyNumColors:    &r.NumColors,
		KeyNumTexCoords: &r.NumTexCoords,
	}
	for key, dst := range ints {
		v, ok := d.Int(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q: missing %s", ErrInvalidMeshValue, KeyName, r.Name, key)
		}
		*dst = int(v)
	}
	if r.ElementSize != ElementLines && r.ElementSize != ElementTriangles {
		return nil, fmt.Errorf("%w: element size %d", ErrInvalidMeshValue, r.ElementSize)
	}
	// Triangle vertices always carry at least one color and one UV set.
	minChannels := 1
	if r.ElementSize == ElementLines {
		minChannels = 0
	}
	if r.NumColors < minChannels || r.NumTexCoords < minChannels {
		return nil, fmt.Errorf("%w: %q has %d color and %d uv channels",
			ErrInvalidMeshValue, r.Name, r.NumColors, r.NumTexCoords)
	}
	tangents, _ := d.Int(KeyHasTangents)
	r.HasTangents = tangents != 0

	vb, ok := d.Bytes(KeyVertexBuffer)
	if !ok || len(vb)%4 != 0 {
		return nil, fmt.Errorf("%w: %q vertex buffer", ErrInvalidMeshValue, r.Name)
	}
	ib, ok := d.Bytes(KeyIndexBuffer)
	if !ok || len(ib)%4 != 0 {
		return nil, fmt.Errorf("%w: %q index buffer", ErrInvalidMeshValue, r.Name)
	}
	r.Vertices = UnpackFloats(vb)
	r.Indices = UnpackUint32s(ib)
	if len(r.Vertices)%r.Stride() != 0 {
		return nil, fmt.Errorf("%w: %q vertex buffer is not a multiple of stride %d", ErrInvalidMeshValue, r.Name, r.Stride())
	}

	if r.Bounds.Min, ok = unpackVec3(d, KeyAABBMin); !ok {
		return nil, fmt.Errorf("%w: %q %s", ErrInvalidMeshValue, r.Name, KeyAABBMin)
	}
	if r.Bounds.Max, ok = unpackVec3(d, KeyAABBMax); !ok {
		return nil, fmt.Errorf("%w: %q %s", ErrInvalidMeshValue, r.Name, KeyAABBMax)
	}

	r.Props, _ = d.Dict(KeyProperties)
	return r, nil
}

func unpackVec3(d *datafile.Dict, key string) ([3]float32, bool) {
	var v [3]float32
	b, ok := d.Bytes(key)
	if !ok || len(b) != 12 {
		return v, false
	}
	copy(v[:], UnpackFloats(b))
	return v, true
}

// PackFloats encodes floats as little-endian float32 bytes.
func PackFloats(fs []float32) []byte {
	out := make([]byte, 0, len(fs)*4)
	for _, f := range fs {
		out = binary.LittleEndian.AppendUint32(out, math32.Float32bits(f))
	}
	return out
}

// UnpackFloats decodes little-endian float32 bytes.
func UnpackFloats(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math32.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

// PackUint32s encodes indices as little-endian uint32 bytes.
func PackUint32s(vs []uint32) []byte {
	out := make([]byte, 0, len(vs)*4)
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

// UnpackUint32s decodes little-endian uint32 bytes.
func UnpackUint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}
