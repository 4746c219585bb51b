// assetc exports 3D scenes to binary asset files and builds asset trees.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/scenepack/internal/build"
	"github.com/Faultbox/scenepack/internal/config"
	"github.com/Faultbox/scenepack/internal/export"
	"github.com/Faultbox/scenepack/internal/logger"
)

// Version is set at link time.
var Version = "dev"

func main() {
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]
	args = args[1:]

	switch command {
	case "help", "-h", "--help":
		printUsage()
		return
	case "version":
		fmt.Println("assetc", Version)
		return
	case "dump":
		// dump reads files only and needs no config.
		os.Exit(cmdDump(args))
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	var code int
	switch command {
	case "export":
		code = cmdExport(cfg, args)
	case "build":
		code = cmdBuild(cfg, args)
	case "watch":
		code = cmdWatch(cfg, args)
	case "config":
		code = cmdConfig(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}
	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func printUsage() {
	fmt.Println(`assetc - scene to asset file exporter

Usage:
  assetc [global options] <command> [options]

Commands:
  export <scene> [output.dat]   Export one scene file
  build                         Export and copy the whole assets dir
  watch                         Build, then rebuild on every change
  dump [-v] <file.dat>          Print the contents of an asset file
  config                        Print the effective configuration
  version                       Print the version

Global options:
  -config <file>    Config file (default ./assetc.yaml)
  -assets <dir>     Assets source directory
  -output <dir>     Output directory
  -jobs <n>         Parallel export jobs
  -no-prefix        Do not prefix names with the source file name
  -tangents         Export tangent space
  -debug            Enable debug logging
  -log-file <file>  Also write logs to a rotating file

Examples:
  assetc export levels/forest.glb
  assetc -assets assets -output bin build
  assetc dump bin/levels/forest.dat`)
}

func exportOptions(cfg *config.Config) export.Options {
	return export.Options{
		NamePrefix:     cfg.Export.NamePrefix,
		Tangents:       cfg.Export.Tangents,
		IncludeEmpties: cfg.Export.IncludeEmpties,
	}
}

func cmdExport(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assetc export <scene> [output.dat]")
		return 1
	}
	src := args[0]
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + build.AssetExt
	if len(args) > 1 {
		dst = args[1]
	}

	exp := export.New(exportOptions(cfg), logger.Named("export"))
	res, err := exp.ExportFile(src, dst)
	if err != nil {
		logger.Error("export failed", zap.String("file", src), zap.Error(err))
		return 1
	}
	for _, path := range res.Dropped {
		fmt.Fprintf(os.Stderr, "dropped: %s\n", path)
	}
	return 0
}

func newBuilder(cfg *config.Config) (*build.Builder, error) {
	b, err := build.New(cfg.Build, exportOptions(cfg), logger.Named("build"))
	if err != nil {
		return nil, err
	}
	b.Progress = true
	return b, nil
}

func cmdBuild(cfg *config.Config, args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: assetc build")
		return 1
	}
	b, err := newBuilder(cfg)
	if err != nil {
		logger.Error("invalid build config", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := b.Run(ctx)
	if err != nil {
		if build.IsCanceled(err) {
			logger.Warn("build canceled")
		} else {
			logger.Error("build failed", zap.Error(err))
		}
		return 1
	}
	fmt.Printf("%d exported, %d copied, %d up to date\n", report.Exported, report.Copied, report.UpToDate)
	return 0
}

func cmdWatch(cfg *config.Config, args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: assetc watch")
		return 1
	}
	b, err := newBuilder(cfg)
	if err != nil {
		logger.Error("invalid build config", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching assets", zap.String("dir", cfg.Build.AssetsDir))
	if err := b.Watch(ctx, build.DefaultDebounce, nil); err != nil {
		logger.Error("watch failed", zap.Error(err))
		return 1
	}
	return 0
}

func cmdConfig(cfg *config.Config) int {
	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}
