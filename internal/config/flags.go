package config

import (
	"flag"
	"runtime"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagAssets   = flag.String("assets", "", "Assets source directory")
	flagOutput   = flag.String("output", "", "Output directory")
	flagJobs     = flag.Int("jobs", 0, "Parallel export jobs")
	flagNoPrefix = flag.Bool("no-prefix", false, "Do not prefix names with the source file name")
	flagTangents = flag.Bool("tangents", false, "Export tangent space")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments: the subcommand and its arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAssets != "" {
		cfg.Build.AssetsDir = *flagAssets
	}
	if *flagOutput != "" {
		cfg.Build.OutputDir = *flagOutput
	}
	if *flagJobs > 0 {
		cfg.Build.Jobs = *flagJobs
	}
	if *flagNoPrefix {
		cfg.Export.NamePrefix = false
	}
	if *flagTangents {
		cfg.Export.Tangents = true
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	// jobs: 0 means one worker per CPU.
	if cfg.Build.Jobs == 0 {
		cfg.Build.Jobs = runtime.NumCPU()
	}
}
