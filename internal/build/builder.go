// Package build implements the asset build: scene sources are exported to
// asset files, every other asset is copied verbatim, and a timestamp cache
// skips sources that have not changed since their last build.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/Faultbox/scenepack/internal/config"
	"github.com/Faultbox/scenepack/internal/export"
	"github.com/Faultbox/scenepack/internal/importer"
)

// AssetExt is the extension of exported asset files.
const AssetExt = ".dat"

// ErrOutputConflict is returned when two sources map to one output file.
var ErrOutputConflict = errors.New("output conflict")

// Action is what the build does with one source file.
type Action int

const (
	ActionExport Action = iota
	ActionExternal
	ActionCopy
)

func (a Action) String() string {
	switch a {
	case ActionExport:
		return "export"
	case ActionExternal:
		return "external"
	case ActionCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// Task is one source file of the build.
type Task struct {
	Rel     string // slash-separated path relative to the assets dir
	Source  string
	Output  string
	Action  Action
	Command string // external exporter command line
	ModTime time.Time
}

// Report summarizes a build.
type Report struct {
	Exported int
	Copied   int
	UpToDate int
	Failed   []string
}

// Builder runs builds for one configuration.
type Builder struct {
	cfg      config.BuildConfig
	exporter *export.Exporter
	log      *zap.Logger

	scenes   patternSet
	ignore   patternSet
	external []externalRule

	// Progress enables the progress bar when stderr is a terminal.
	Progress bool
}

// New creates a builder. A nil logger disables logging.
func New(cfg config.BuildConfig, opts export.Options, log *zap.Logger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	scenes, err := compilePatterns(cfg.ScenePatterns)
	if err != nil {
		return nil, err
	}
	ignore, err := compilePatterns(cfg.Ignore)
	if err != nil {
		return nil, err
	}
	external, err := compileExternal(cfg.External)
	if err != nil {
		return nil, err
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return &Builder{
		cfg:      cfg,
		exporter: export.New(opts, log.Named("export")),
		log:      log,
		scenes:   scenes,
		ignore:   ignore,
		external: external,
	}, nil
}

// OutputPath returns where a scene source is exported: its relative path
// under the output dir with the asset extension.
func OutputPath(outputDir, rel string) string {
	base := strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(outputDir, filepath.FromSlash(base)+AssetExt)
}

// Plan walks the assets dir and classifies every file.
func (b *Builder) Plan() ([]Task, error) {
	root := b.cfg.AssetsDir
	var tasks []Task
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if b.ignore.match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		tasks = append(tasks, b.classify(rel, path, info.ModTime()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Rel < tasks[j].Rel })

	outputs := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if other, ok := outputs[t.Output]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", ErrOutputConflict, other, t.Rel, t.Output)
		}
		outputs[t.Output] = t.Rel
	}
	return tasks, nil
}

func (b *Builder) classify(rel, path string, mod time.Time) Task {
	t := Task{Rel: rel, Source: path, ModTime: mod}
	for _, e := range b.external {
		if e.glob.Match(rel) {
			t.Action = ActionExternal
			t.Command = e.command
			t.Output = OutputPath(b.cfg.OutputDir, rel)
			return t
		}
	}
	if b.scenes.match(rel) && importer.Supported(rel) {
		t.Action = ActionExport
		t.Output = OutputPath(b.cfg.OutputDir, rel)
		return t
	}
	t.Action = ActionCopy
	t.Output = filepath.Join(b.cfg.OutputDir, filepath.FromSlash(rel))
	return t
}

// stale reports whether a task must run.
func (b *Builder) stale(cache *Cache, t Task) bool {
	if !cache.Fresh(t.Rel, t.ModTime) {
		return true
	}
	_, err := os.Stat(t.Output)
	return err != nil
}

// Run executes one build. Failed tasks are reported and do not stop the
// others; the returned error is non-nil when any task failed.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	cache, err := LoadCache(b.cfg.CacheFile)
	if err != nil {
		return nil, err
	}
	tasks, err := b.Plan()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var pending []Task
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		seen[t.Rel] = true
		if b.stale(cache, t) {
			pending = append(pending, t)
		} else {
			report.UpToDate++
		}
	}
	cache.Prune(seen)

	b.log.Info("building assets",
		zap.String("assets", b.cfg.AssetsDir),
		zap.String("output", b.cfg.OutputDir),
		zap.Int("files", len(tasks)),
		zap.Int("stale", len(pending)),
		zap.Int("jobs", b.cfg.Jobs))

	bar := b.progressBar(len(pending))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Jobs)
	for _, t := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := b.runTask(gctx, t)

			mu.Lock()
			defer mu.Unlock()
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				b.log.Error("asset failed", zap.String("file", t.Rel), zap.Error(err))
				report.Failed = append(report.Failed, t.Rel)
				cache.Forget(t.Rel)
				return nil
			}
			cache.Update(t.Rel, t.ModTime)
			if t.Action == ActionCopy {
				report.Copied++
			} else {
				report.Exported++
			}
			return nil
		})
	}
	waitErr := g.Wait()
	if bar != nil {
		_ = bar.Finish()
	}

	if err := cache.Save(); err != nil {
		return report, fmt.Errorf("saving build cache: %w", err)
	}
	if waitErr != nil {
		return report, waitErr
	}

	sort.Strings(report.Failed)
	b.log.Info("build finished",
		zap.Int("exported", report.Exported),
		zap.Int("copied", report.Copied),
		zap.Int("up_to_date", report.UpToDate),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("took", time.Since(start)))

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("%d assets failed: %s", len(report.Failed), strings.Join(report.Failed, ", "))
	}
	return report, nil
}

func (b *Builder) progressBar(n int) *progressbar.ProgressBar {
	if !b.Progress || n == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("building assets"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (b *Builder) runTask(ctx context.Context, t Task) error {
	switch t.Action {
	case ActionExport:
		_, err := b.exporter.ExportFile(t.Source, t.Output)
		return err
	case ActionExternal:
		if err := os.MkdirAll(filepath.Dir(t.Output), 0755); err != nil {
			return err
		}
		out, err := RunExternal(ctx, t.Command, t.Source, t.Output)
		b.log.Debug("external exporter output", zap.String("file", t.Rel), zap.ByteString("output", out))
		return err
	case ActionCopy:
		return CopyFile(t.Source, t.Output)
	default:
		return fmt.Errorf("unknown action %v", t.Action)
	}
}

// CopyFile copies src to dst, creating parent directories and preserving the
// modification time.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// IsCanceled reports whether err comes from a canceled build.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
