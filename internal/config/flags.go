package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagBuckets     = flag.Int("buckets", 0, "Vertex table bucket count")
	flagMaxVertices = flag.Int("max-vertices", 0, "Maximum distinct vertices per mesh")
	flagWorkers     = flag.Int("workers", 0, "Parallel parses when checking many files")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments left after ParseFlags.
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
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagBuckets > 0 {
		cfg.Parser.Buckets = *flagBuckets
	}
	if *flagMaxVertices > 0 {
		cfg.Parser.MaxVertices = *flagMaxVertices
	}
	if *flagWorkers > 0 {
		cfg.Loader.Workers = *flagWorkers
	}
}
