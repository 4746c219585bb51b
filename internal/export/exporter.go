// Package export turns source documents into asset files.
//
// An export run walks every scene of a document, flattens each distinct mesh
// once, and writes a single root value with the keys "meshes" and "scenes"
// behind the asset file header. Runs are single-threaded and share no state.
package export

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/importer"
	"github.com/Faultbox/scenepack/internal/model"
	"github.com/Faultbox/scenepack/internal/source"
	"github.com/Faultbox/scenepack/pkg/datafile"
)

// SuccessMarker prefixes the log line written after an asset file is saved.
// Out-of-process build drivers look for it in the exporter's output.
const SuccessMarker = "Saved to file:"

// Options controls an export run.
type Options struct {
	// NamePrefix prefixes mesh and scene names with the source file's base
	// name.
	NamePrefix bool

	// Tangents emits tangent space for meshes that carry it.
	Tangents bool

	// IncludeEmpties emits curve and empty objects with no data reference.
	IncludeEmpties bool
}

// DefaultOptions returns the options of a standard export.
func DefaultOptions() Options {
	return Options{NamePrefix: true}
}

// Stats summarizes an export run.
type Stats struct {
	Meshes  int
	Objects int
	Skipped int
	Dropped int
}

// Result holds the records of one export run.
type Result struct {
	Meshes []*model.MeshRecord
	Scenes []*SceneRecord
	Stats  Stats

	// Dropped lists the paths of property values the encoder omitted. It is
	// filled by Write.
	Dropped []string
}

// Value builds the root value of the asset file.
func (r *Result) Value() *datafile.Dict {
	meshes := datafile.NewDict()
	for _, m := range r.Meshes {
		meshes.Set(m.Name, m.Value())
	}
	scenes := make([]any, len(r.Scenes))
	for i, s := range r.Scenes {
		scenes[i] = s.Value()
	}
	return datafile.NewDict().
		Set("meshes", meshes).
		Set("scenes", scenes)
}

// Exporter runs exports with fixed options.
type Exporter struct {
	opts Options
	log  *zap.Logger
}

// New creates an exporter. A nil logger disables logging.
func New(opts Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{opts: opts, log: log}
}

// Export flattens every scene of doc.
func (e *Exporter) Export(doc *source.Document) (*Result, error) {
	reg := newRegistry()
	n := newNames(doc.Path, e.opts.NamePrefix)
	res := &Result{Scenes: make([]*SceneRecord, 0, len(doc.Scenes))}

	for _, s := range doc.Scenes {
		b := e.newSceneBuilder(reg, n, &res.Stats, s)
		for _, obj := range s.Objects {
			if err := b.addObject(obj); err != nil {
				return nil, fmt.Errorf("scene %q: %w", s.Name, err)
			}
		}
		res.Scenes = append(res.Scenes, b.scene)
		e.log.Debug("flattened scene",
			zap.String("scene", b.scene.Name),
			zap.Int("objects", len(b.scene.Objects)),
			zap.Int("collections", len(b.scene.Collections)))
	}

	res.Meshes = reg.records
	res.Stats.Meshes = len(res.Meshes)
	return res, nil
}

// Write encodes res and writes it to path. Nothing is written when encoding
// fails.
func (e *Exporter) Write(res *Result, path string) error {
	data, dropped, err := EncodeAsset(res.Value(), e.log)
	if err != nil {
		return err
	}
	res.Dropped = dropped
	res.Stats.Dropped = len(dropped)
	return WriteFile(path, data)
}

// ExportFile loads src, exports it and writes the asset file to dst.
func (e *Exporter) ExportFile(src, dst string) (*Result, error) {
	start := time.Now()

	doc, err := importer.Load(src)
	if err != nil {
		return nil, err
	}
	res, err := e.Export(doc)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", src, err)
	}
	if err := e.Write(res, dst); err != nil {
		return nil, fmt.Errorf("exporting %s: %w", src, err)
	}

	e.log.Info(SuccessMarker+" "+dst,
		zap.Int("meshes", res.Stats.Meshes),
		zap.Int("objects", res.Stats.Objects),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("dropped", res.Stats.Dropped),
		zap.Duration("took", time.Since(start)))
	return res, nil
}
