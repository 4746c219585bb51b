package export

import (
	"path/filepath"
	"strings"

	"github.com/Faultbox/scenepack/internal/source"
)

// names derives exported names for one source document.
type names struct {
	enabled bool
	prefix  string
}

func newNames(docPath string, enabled bool) names {
	n := names{enabled: enabled}
	if enabled {
		n.prefix = Prefix(docPath)
	}
	return n
}

// Prefix returns the name prefix for a source file: its base name without
// extension followed by a dot. An empty path has no prefix.
func Prefix(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "."
}

// meshIdentity resolves the exported mesh name of a mesh object. Modified
// meshes bake per object; linked meshes are named after their library.
func (n names) meshIdentity(obj *source.Object) (string, identityRule) {
	switch {
	case obj.HasModifiers():
		return n.prefix + obj.Name, ruleObject
	case obj.IsLinked():
		prefix := ""
		if n.enabled {
			prefix = Prefix(obj.Library)
		}
		return prefix + obj.Mesh.Name, ruleLibrary
	default:
		return n.prefix + obj.Mesh.Name, ruleData
	}
}
