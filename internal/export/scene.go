package export

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/model"
	"github.com/Faultbox/scenepack/internal/source"
	"github.com/Faultbox/scenepack/pkg/math"
)

// sceneBuilder accumulates the records of one scene.
type sceneBuilder struct {
	exp   *Exporter
	reg   *registry
	names names
	stats *Stats

	scene       *SceneRecord
	collections map[string]int
}

func (e *Exporter) newSceneBuilder(reg *registry, n names, stats *Stats, s *source.Scene) *sceneBuilder {
	return &sceneBuilder{
		exp:   e,
		reg:   reg,
		names: n,
		stats: stats,
		scene: &SceneRecord{
			Name:        n.prefix + s.Name,
			Objects:     []*ObjectRecord{},
			Collections: []string{},
			Props:       s.Props,
		},
		collections: make(map[string]int),
	}
}

// collectionIndexes resolves collection names to indices, allocating new
// indices in first-seen order.
func (b *sceneBuilder) collectionIndexes(names []string) []int {
	out := make([]int, 0, len(names))
	for _, name := range names {
		idx, ok := b.collections[name]
		if !ok {
			idx = len(b.scene.Collections)
			b.collections[name] = idx
			b.scene.Collections = append(b.scene.Collections, name)
		}
		out = append(out, idx)
	}
	return out
}

func (b *sceneBuilder) addObject(obj *source.Object) error {
	log := b.exp.log

	if obj.HideRender {
		b.stats.Skipped++
		log.Debug("skipping render-hidden object", zap.String("object", obj.Name))
		return nil
	}

	switch obj.Type {
	case source.ObjectMesh:
		return b.addMeshObject(obj)
	default:
		if !b.exp.opts.IncludeEmpties {
			log.Debug("skipping non-mesh object",
				zap.String("object", obj.Name),
				zap.Stringer("type", obj.Type))
			return nil
		}
		if obj.Type == source.ObjectCurve && len(obj.Path) > 1 {
			return b.addCurveObject(obj)
		}
		b.emit(obj, obj.Type, obj.Name, NoData, b.collectionIndexes(obj.Collections), math.Vec3{})
		return nil
	}
}

// addCurveObject exports a curve's polyline in world space, named after the
// object.
func (b *sceneBuilder) addCurveObject(obj *source.Object) error {
	collections := b.collectionIndexes(obj.Collections)
	id := b.names.prefix + obj.Name

	entry, found, err := b.reg.lookup(id, obj, rulePath)
	if err != nil {
		return fmt.Errorf("object %q: %w", obj.Name, err)
	}
	if !found {
		rec := model.FlattenPath(id, obj.Path, obj.World)
		rec.Props = obj.Props
		if entry, err = b.reg.add(id, obj, rulePath, []*model.MeshRecord{rec}); err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
	}
	// Points are already in world space.
	size := entry.records[0].Bounds.Size()
	b.emit(obj, source.ObjectCurve, obj.Name, id, collections, size)
	return nil
}

func (b *sceneBuilder) addMeshObject(obj *source.Object) error {
	collections := b.collectionIndexes(obj.Collections)

	if obj.Mesh == nil {
		b.emit(obj, source.ObjectMesh, obj.Name, NoData, collections, math.Vec3{})
		return nil
	}

	id, rule := b.names.meshIdentity(obj)
	entry, found, err := b.reg.lookup(id, obj.Mesh, rule)
	if err != nil {
		return fmt.Errorf("object %q: %w", obj.Name, err)
	}

	if rule == ruleLibrary {
		// Linked instances reference the library's export of the mesh.
		if !found {
			if _, err := b.reg.add(id, obj.Mesh, rule, nil); err != nil {
				return fmt.Errorf("object %q: %w", obj.Name, err)
			}
		}
		b.emit(obj, source.ObjectMesh, obj.Name, id, collections, boxSize(model.SourceBounds(obj.Mesh), obj.World))
		return nil
	}

	if !found {
		records, err := model.Flatten(id, obj.Mesh, model.Options{
			Tangents: b.exp.opts.Tangents,
			Logger:   b.exp.log,
		})
		if err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
		if entry, err = b.reg.add(id, obj.Mesh, rule, records); err != nil {
			return fmt.Errorf("object %q: %w", obj.Name, err)
		}
		if len(records) == 0 {
			b.exp.log.Warn("mesh has no geometry",
				zap.String("object", obj.Name),
				zap.String("mesh", obj.Mesh.Name))
		}
	}

	switch len(entry.records) {
	case 0:
		b.emit(obj, source.ObjectMesh, obj.Name, NoData, collections, math.Vec3{})
	case 1:
		r := entry.records[0]
		b.emit(obj, source.ObjectMesh, obj.Name, r.Name, collections, boxSize(r.Bounds, obj.World))
	default:
		for _, r := range entry.records {
			name := fmt.Sprintf("%s_mat%d", obj.Name, r.Material)
			b.emit(obj, source.ObjectMesh, name, r.Name, collections, boxSize(r.Bounds, obj.World))
		}
	}
	return nil
}

func (b *sceneBuilder) emit(obj *source.Object, typ source.ObjectType, name, dataName string, collections []int, size math.Vec3) {
	b.stats.Objects++
	b.scene.Objects = append(b.scene.Objects, &ObjectRecord{
		Type:        typ,
		Name:        name,
		DataName:    dataName,
		Collections: collections,
		Matrix:      obj.World,
		Props:       obj.Props,
		BoxSize:     size,
	})
}

// boxSize scales the local extent by the world scale of each axis.
func boxSize(b model.Bounds, world math.Mat4) math.Vec3 {
	return b.Size().Mul(world.ScaleFactors())
}
