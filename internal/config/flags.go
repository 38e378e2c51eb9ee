package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers    = flag.Int("workers", 0, "Worker goroutines (0 = keep config)")
	flagFrames     = flag.Int("frames", 0, "Frames to simulate")
	flagPartitions = flag.Int("partitions", 0, "Partitions per submesh")
)

// ParseFlags parses command-line flags from args. Call this early in main(),
// after the subcommand has been stripped.
func ParseFlags(args []string) {
	_ = flag.CommandLine.Parse(args)
}

// Args returns the positional arguments left after flag parsing.
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
	if *flagWorkers > 0 {
		cfg.Engine.Workers = *flagWorkers
	}
	if *flagFrames > 0 {
		cfg.Blade.Frames = *flagFrames
	}
	if *flagPartitions > 0 {
		cfg.Engine.Partitions = *flagPartitions
	}
}
