// Package importer reads scene files into the source scene view consumed by
// the exporter.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/scenepack/internal/source"
)

// ErrUnsupportedFormat is returned for files no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// Extensions lists the scene file extensions Load accepts.
var Extensions = []string{".gltf", ".glb", ".obj"}

// Supported reports whether path has a scene file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Load reads a scene file, choosing the reader by extension.
func Load(path string) (*source.Document, error) {
	var (
		doc *source.Document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		doc, err = LoadGLTF(path)
	case ".obj":
		doc, err = LoadOBJ(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return doc, nil
}

// uniqueNames hands out names, suffixing repeats as Name.001, Name.002, ...
type uniqueNames map[string]bool

func (u uniqueNames) next(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	candidate := name
	for i := 1; u[candidate]; i++ {
		candidate = fmt.Sprintf("%s.%03d", name, i)
	}
	u[candidate] = true
	return candidate
}
